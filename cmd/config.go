package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zorak1103/berth/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the effective configuration",
	Long: `Display the effective configuration that berth will use at runtime.

This shows the merged configuration from:
  1. Default values
  2. Configuration file (berth.yaml)
  3. Environment variables (highest priority)

Notification credentials are masked.`,
	Example: `  # Show current configuration
  berth config

  # Show with custom config file
  berth config --config /etc/berth/berth.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		printConfig(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func printConfig(out io.Writer, cfg *config.Config) {
	source := cfg.ConfigFilePath
	if source == "" {
		source = "(defaults/environment)"
	}

	_, _ = fmt.Fprintln(out, "=== berth Effective Configuration ===")
	_, _ = fmt.Fprintf(out, "Source: %s\n\n", source)

	_, _ = fmt.Fprintln(out, "🐳 Docker Configuration:")
	_, _ = fmt.Fprintf(out, "   Host:           %s\n", cfg.Docker.Host)
	_, _ = fmt.Fprintf(out, "   API Version:    %s\n", orDefault(cfg.Docker.APIVersion, "(daemon default)"))
	_, _ = fmt.Fprintf(out, "   Max Idle Conns: %d\n", cfg.Docker.MaxIdleConns)
	_, _ = fmt.Fprintf(out, "   Dial Timeout:   %s\n", cfg.Docker.DialTimeout)
	_, _ = fmt.Fprintf(out, "   Cert Path:      %s\n", orDefault(cfg.Docker.CertPath, "(none)"))
	_, _ = fmt.Fprintf(out, "   TLS Verify:     %v\n\n", cfg.Docker.TLSVerify)

	_, _ = fmt.Fprintln(out, "📝 Log Configuration:")
	_, _ = fmt.Fprintf(out, "   Level:          %s\n\n", cfg.LogLevel())

	_, _ = fmt.Fprintln(out, "🔔 Notification Configuration:")
	_, _ = fmt.Fprintf(out, "   Enabled:        %v\n", cfg.Notification.Enabled)
	_, _ = fmt.Fprintf(out, "   Shoutrrr URL:   %s\n", maskShoutrrrURL(cfg.Notification.ShoutrrURL))
	_, _ = fmt.Fprintf(out, "   Ignore:         %s\n", orDefault(strings.Join(cfg.Events.IgnorePatterns, ", "), "(none)"))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// maskShoutrrrURL masks sensitive parts of Shoutrrr URL
func maskShoutrrrURL(url string) string {
	if url == "" {
		return "❌ Not configured"
	}

	// Extract service type (e.g., discord://, slack://, smtp://)
	parts := strings.SplitN(url, "://", 2)
	if len(parts) != 2 {
		return "✅ Configured (invalid format)"
	}

	// Mask the credentials/tokens
	return fmt.Sprintf("✅ Configured (%s://***)", parts[0])
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(configCmd)
}
