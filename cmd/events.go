package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zorak1103/berth/internal/notification"
	"github.com/zorak1103/berth/internal/state"
	"github.com/zorak1103/berth/pkg/docker"
	apperrors "github.com/zorak1103/berth/pkg/errors"
	"github.com/zorak1103/berth/pkg/opts"
)

type eventsFlags struct {
	filters   []string
	since     time.Duration
	notify    bool
	stateFile string
}

// stateSaveEvery bounds how many events may be replayed after a crash.
const stateSaveEvery = 50

var eventsOpts eventsFlags

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Stream real time events from the daemon",
	Long: `Stream real time events from the daemon until interrupted.

With --notify every event not matched by events.ignore_patterns is also
forwarded to the configured Shoutrrr URL.`,
	Example: `  # Container lifecycle only
  berth events --filter type=container

  # Forward dying containers to chat
  berth events --filter event=die --notify`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var notifier *notification.Notifier
		if eventsOpts.notify {
			var err error
			notifier, err = notification.NewNotifier(GetConfig())
			if err != nil {
				return err
			}
			if !notifier.IsEnabled() {
				return fmt.Errorf("--notify requires notification.enabled (set BERTH_NOTIFICATION_ENABLED=true)")
			}
		}

		stateFile := eventsOpts.stateFile
		if stateFile == "" {
			stateFile = GetConfig().Events.StateFile
		}
		var st *state.State
		if stateFile != "" {
			var err error
			if st, err = state.Load(stateFile); err != nil {
				return err
			}
		}

		return withClient(func(client *docker.Client) error {
			return runEvents(cmd.Context(), client, cmd.OutOrStdout(), eventsOpts, notifier, st)
		})
	},
}

// runEvents prints events until the stream ends or ctx is canceled. With a
// state, the stream resumes after the last recorded event and events at or
// before it are skipped.
func runEvents(ctx context.Context, client *docker.Client, out io.Writer, f eventsFlags, notifier *notification.Notifier, st *state.State) error {
	pairs, err := parseFilters(f.filters)
	if err != nil {
		return err
	}
	o := opts.NewEventsOpts()
	for _, p := range pairs {
		o.Filter(p[0], p[1])
	}

	cursor := state.CursorName(f.filters)
	var resumeAfter time.Time
	switch {
	case f.since > 0:
		o.Since(time.Now().Add(-f.since))
	case st != nil:
		if last, ok := st.Resume(cursor); ok {
			resumeAfter = last
			o.Since(last)
			logrus.WithFields(logrus.Fields{"cursor": cursor, "since": last}).Debug("resuming event stream")
		}
	}

	stream, err := client.Events(ctx, o)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	if st != nil {
		defer func() {
			if err := st.Save(); err != nil {
				logrus.WithError(err).Warn("failed to save event state")
			}
		}()
	}

	var handled int
	for ev, err := range stream.All() {
		if err != nil {
			var decodeErr *apperrors.DecodeError
			if errors.As(err, &decodeErr) {
				logrus.WithError(err).Warn("skipping malformed event")
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if !resumeAfter.IsZero() && !ev.When().After(resumeAfter) {
			continue
		}

		_, _ = fmt.Fprintln(out, formatEvent(ev))

		if notifier != nil {
			if _, err := notifier.NotifyEvent(ev); err != nil {
				logrus.WithFields(logrus.Fields{"type": ev.Type, "action": ev.Action}).WithError(err).Warn("notification failed")
			}
		}

		if st == nil {
			continue
		}
		st.Advance(cursor, ev.When())
		handled++
		if handled%stateSaveEvery == 0 {
			if err := st.Save(); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatEvent(ev docker.Event) string {
	line := fmt.Sprintf("%s %s %s %s", ev.When().Format(time.RFC3339Nano), ev.Type, ev.Action, ev.Actor.ID)
	if name := ev.Actor.Attributes["name"]; name != "" {
		line += " (name=" + name + ")"
	}
	return line
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	eventsCmd.Flags().StringArrayVarP(&eventsOpts.filters, "filter", "f", nil, "filter events (key=value)")
	eventsCmd.Flags().DurationVar(&eventsOpts.since, "since", 0, "replay events newer than this relative duration")
	eventsCmd.Flags().BoolVar(&eventsOpts.notify, "notify", false, "forward events through the configured Shoutrrr URL")
	eventsCmd.Flags().StringVar(&eventsOpts.stateFile, "state", "", "resume from and record to this state file (default: events.state_file)")

	rootCmd.AddCommand(eventsCmd)
}
