// Package cmd implements the CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/docker/go-connections/tlsconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zorak1103/berth/internal/config"
	"github.com/zorak1103/berth/internal/version"
	"github.com/zorak1103/berth/pkg/docker"
	"github.com/zorak1103/berth/pkg/transport"
)

var (
	cfgFile string
	host    string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "berth",
	Short: "Docker daemon client",
	Long: `berth talks to a Docker daemon over its HTTP API.

It features:
  - Container lifecycle, logs and inspection
  - Image listing and pulls with registry progress
  - Network listing
  - Live daemon events with optional Shoutrrr notifications`,
	Version:       version.GetFullVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if host != "" {
			cfg.Docker.Host = host
		}

		logrus.SetOutput(cmd.ErrOrStderr())
		logrus.SetLevel(cfg.LogLevel())
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
			logrus.WithField("config", cfg.ConfigFilePath).Debug("loaded configuration")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./berth.yaml)")
	rootCmd.PersistentFlags().StringVarP(&host, "host", "H", "", "daemon address (overrides docker.host)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "D", false, "verbose output (debug logging)")
}

// GetConfig returns the loaded configuration or nil if not loaded.
// Must be called after rootCmd.PersistentPreRunE has executed.
func GetConfig() *config.Config {
	return cfg
}

// newClient connects a daemon client according to the loaded configuration.
func newClient(c *config.Config) (*docker.Client, error) {
	if c == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	options := []transport.Option{
		transport.WithAPIVersion(c.Docker.APIVersion),
		transport.WithMaxIdleConns(c.Docker.MaxIdleConns),
		transport.WithDialTimeout(c.Docker.DialTimeout),
		transport.WithUserAgent(version.UserAgent()),
		transport.WithLogger(logrus.WithField("daemon", c.Docker.Host)),
	}

	if c.Docker.CertPath != "" {
		tlsCfg, err := tlsconfig.Client(tlsconfig.Options{
			CAFile:             filepath.Join(c.Docker.CertPath, "ca.pem"),
			CertFile:           filepath.Join(c.Docker.CertPath, "cert.pem"),
			KeyFile:            filepath.Join(c.Docker.CertPath, "key.pem"),
			InsecureSkipVerify: !c.Docker.TLSVerify,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS material from %s: %w", c.Docker.CertPath, err)
		}
		options = append(options, transport.WithTLSConfig(tlsCfg))
	}

	return docker.NewClient(c.Docker.Host, options...)
}

// withClient runs fn with a client for the loaded configuration and closes it afterwards.
func withClient(fn func(*docker.Client) error) error {
	client, err := newClient(GetConfig())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()
	return fn(client)
}
