package cmd

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zorak1103/berth/internal/version"
	"github.com/zorak1103/berth/pkg/docker"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the berth and daemon version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(func(client *docker.Client) error {
			return runVersion(cmd.Context(), client, cmd.OutOrStdout())
		})
	},
}

// runVersion always prints the client section; a daemon failure is returned
// after it.
func runVersion(ctx context.Context, client *docker.Client, out io.Writer) error {
	w := newTable(out)
	_, _ = fmt.Fprintln(w, "Client:")
	_, _ = fmt.Fprintf(w, " Version:\t%s\n", version.GetFullVersion())
	_, _ = fmt.Fprintf(w, " Go version:\t%s\n", runtime.Version())
	_, _ = fmt.Fprintf(w, " OS/Arch:\t%s/%s\n", runtime.GOOS, runtime.GOARCH)
	_, _ = fmt.Fprintf(w, " Daemon:\t%s\n", client.Addr())

	info, err := client.Version(ctx)
	if err != nil {
		_ = w.Flush()
		logrus.WithError(err).Debug("daemon version unavailable")
		return err
	}

	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Server:")
	_, _ = fmt.Fprintf(w, " Version:\t%s\n", info.Version)
	_, _ = fmt.Fprintf(w, " API version:\t%s (minimum version %s)\n", info.APIVersion, info.MinAPIVersion)
	_, _ = fmt.Fprintf(w, " Go version:\t%s\n", info.GoVersion)
	_, _ = fmt.Fprintf(w, " Git commit:\t%s\n", info.GitCommit)
	_, _ = fmt.Fprintf(w, " OS/Arch:\t%s/%s\n", info.Os, info.Arch)
	return w.Flush()
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}
