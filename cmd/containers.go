package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zorak1103/berth/pkg/docker"
	"github.com/zorak1103/berth/pkg/opts"
)

type psFlags struct {
	all     bool
	filters []string
}

var psOpts psFlags

var psCmd = &cobra.Command{
	Use:     "ps",
	Short:   "List containers",
	Aliases: []string{"list"},
	Example: `  # Running containers
  berth ps

  # All exited containers
  berth ps -a --filter status=exited`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(func(client *docker.Client) error {
			return runPs(cmd.Context(), client, cmd.OutOrStdout(), psOpts)
		})
	},
}

func runPs(ctx context.Context, client *docker.Client, out io.Writer, f psFlags) error {
	pairs, err := parseFilters(f.filters)
	if err != nil {
		return err
	}
	o := opts.NewListContainersOpts().All(f.all)
	for _, p := range pairs {
		o.Filter(p[0], p[1])
	}

	containers, err := client.Containers().List(ctx, o)
	if err != nil {
		return err
	}

	now := time.Now()
	w := newTable(out)
	_, _ = fmt.Fprintln(w, "CONTAINER ID\tIMAGE\tCOMMAND\tCREATED\tSTATUS\tPORTS\tNAMES")
	for _, c := range containers {
		s := c.Summary()
		_, _ = fmt.Fprintf(w, "%s\t%s\t%q\t%s\t%s\t%s\t%s\n",
			shortID(s.ID), s.Image, truncate(s.Command, 20), ago(now, s.Created),
			s.Status, formatPorts(s.Ports), containerNames(s.Names))
	}
	return w.Flush()
}

var inspectCmd = &cobra.Command{
	Use:   "inspect CONTAINER",
	Short: "Show low-level information on a container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(client *docker.Client) error {
			return runInspect(cmd.Context(), client, cmd.OutOrStdout(), args[0])
		})
	},
}

func runInspect(ctx context.Context, client *docker.Client, out io.Writer, id string) error {
	details, err := client.Container(id).Inspect(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "    ")
	return enc.Encode(details)
}

// lifecycleAction applies one container action to every argument and keeps
// going after failures, like the docker CLI.
type lifecycleAction func(ctx context.Context, c *docker.Container) error

func runLifecycle(ctx context.Context, client *docker.Client, out, errOut io.Writer, verb string, ids []string, action lifecycleAction) error {
	var failed []string
	for _, id := range ids {
		if err := action(ctx, client.Container(id)); err != nil {
			logrus.WithField("container", id).WithError(err).Debugf("%s failed", verb)
			_, _ = fmt.Fprintf(errOut, "Error response from daemon: %v\n", err)
			failed = append(failed, id)
			continue
		}
		_, _ = fmt.Fprintln(out, id)
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to %s containers: %s", verb, strings.Join(failed, ", "))
	}
	return nil
}

func lifecycleCommand(verb, short string, action lifecycleAction) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " CONTAINER [CONTAINER...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(client *docker.Client) error {
				return runLifecycle(cmd.Context(), client, cmd.OutOrStdout(), cmd.ErrOrStderr(), verb, args, action)
			})
		},
	}
}

var (
	stopTimeout int
	stopSignal  string
	killSignal  string
	rmForce     bool
	rmVolumes   bool
)

func stopOpts() *opts.StopOpts {
	o := opts.NewStopOpts()
	if stopTimeout >= 0 {
		o.Wait(time.Duration(stopTimeout) * time.Second)
	}
	if stopSignal != "" {
		o.Signal(stopSignal)
	}
	return o
}

var (
	startCmd = lifecycleCommand("start", "Start one or more stopped containers",
		func(ctx context.Context, c *docker.Container) error { return c.Start(ctx) })
	stopCmd = lifecycleCommand("stop", "Stop one or more running containers",
		func(ctx context.Context, c *docker.Container) error { return c.Stop(ctx, stopOpts()) })
	restartCmd = lifecycleCommand("restart", "Restart one or more containers",
		func(ctx context.Context, c *docker.Container) error { return c.Restart(ctx, stopOpts()) })
	killCmd = lifecycleCommand("kill", "Kill one or more running containers",
		func(ctx context.Context, c *docker.Container) error {
			o := opts.NewKillOpts()
			if killSignal != "" {
				o.Signal(killSignal)
			}
			return c.Kill(ctx, o)
		})
	pauseCmd = lifecycleCommand("pause", "Pause all processes within one or more containers",
		func(ctx context.Context, c *docker.Container) error { return c.Pause(ctx) })
	unpauseCmd = lifecycleCommand("unpause", "Unpause all processes within one or more containers",
		func(ctx context.Context, c *docker.Container) error { return c.Unpause(ctx) })
	rmCmd = lifecycleCommand("rm", "Remove one or more containers",
		func(ctx context.Context, c *docker.Container) error {
			return c.Remove(ctx, opts.NewRemoveContainerOpts().Force(rmForce).Volumes(rmVolumes))
		})
)

var renameCmd = &cobra.Command{
	Use:   "rename CONTAINER NEW_NAME",
	Short: "Rename a container",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(client *docker.Client) error {
			return client.Container(args[0]).Rename(cmd.Context(), args[1])
		})
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	psCmd.Flags().BoolVarP(&psOpts.all, "all", "a", false, "show all containers (default shows just running)")
	psCmd.Flags().StringArrayVarP(&psOpts.filters, "filter", "f", nil, "filter output based on conditions provided (key=value)")

	for _, c := range []*cobra.Command{stopCmd, restartCmd} {
		c.Flags().IntVarP(&stopTimeout, "time", "t", -1, "seconds to wait before killing the container")
		c.Flags().StringVarP(&stopSignal, "signal", "s", "", "signal to send to the container")
	}
	killCmd.Flags().StringVarP(&killSignal, "signal", "s", "", "signal to send to the container")
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "force the removal of a running container")
	rmCmd.Flags().BoolVarP(&rmVolumes, "volumes", "v", false, "remove anonymous volumes associated with the container")

	rootCmd.AddCommand(psCmd, inspectCmd, startCmd, stopCmd, restartCmd, killCmd, pauseCmd, unpauseCmd, renameCmd, rmCmd)
}
