package cmd

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zorak1103/berth/pkg/docker"
	"github.com/zorak1103/berth/pkg/opts"
)

type logsFlags struct {
	follow     bool
	tail       int
	timestamps bool
	since      time.Duration
}

var logsOpts = logsFlags{tail: -1}

var logsCmd = &cobra.Command{
	Use:   "logs CONTAINER",
	Short: "Fetch the logs of a container",
	Example: `  # Last 100 lines with timestamps
  berth logs --tail 100 -t web

  # Follow output from the last 10 minutes
  berth logs -f --since 10m web`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(client *docker.Client) error {
			return runLogs(cmd.Context(), client, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], logsOpts)
		})
	},
}

func runLogs(ctx context.Context, client *docker.Client, stdout, stderr io.Writer, id string, f logsFlags) error {
	o := opts.NewLogsOpts().
		Stdout(true).
		Stderr(true).
		Follow(f.follow).
		Timestamps(f.timestamps)
	if f.tail >= 0 {
		o.Tail(f.tail)
	}
	if f.since > 0 {
		o.Since(time.Now().Add(-f.since))
	}

	container := client.Container(id)
	// Inspect first so TTY containers are read as raw streams.
	if _, err := container.Inspect(ctx); err != nil {
		return err
	}

	stream, err := container.Logs(ctx, o)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	if _, err := stream.Split(stdout, stderr); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	logsCmd.Flags().BoolVarP(&logsOpts.follow, "follow", "f", false, "follow log output")
	logsCmd.Flags().IntVarP(&logsOpts.tail, "tail", "n", -1, "number of lines to show from the end of the logs (-1 for all)")
	logsCmd.Flags().BoolVarP(&logsOpts.timestamps, "timestamps", "t", false, "show timestamps")
	logsCmd.Flags().DurationVar(&logsOpts.since, "since", 0, "show logs newer than this relative duration (e.g. 42m)")

	rootCmd.AddCommand(logsCmd)
}
