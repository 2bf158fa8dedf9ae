package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/zorak1103/berth/pkg/docker"
	"github.com/zorak1103/berth/pkg/opts"
)

var imagesAll bool

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "List images",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(func(client *docker.Client) error {
			return runImages(cmd.Context(), client, cmd.OutOrStdout(), imagesAll)
		})
	},
}

func runImages(ctx context.Context, client *docker.Client, out io.Writer, all bool) error {
	images, err := client.Images().List(ctx, opts.NewListImagesOpts().All(all))
	if err != nil {
		return err
	}

	now := time.Now()
	w := newTable(out)
	_, _ = fmt.Fprintln(w, "REPOSITORY\tTAG\tIMAGE ID\tCREATED\tSIZE")
	for _, img := range images {
		s := img.Summary()
		tags := s.RepoTags
		if len(tags) == 0 {
			tags = []string{"<none>:<none>"}
		}
		for _, ref := range tags {
			repo, tag := splitRepoTag(ref)
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", repo, tag, shortID(s.ID), ago(now, s.Created), humanSize(s.Size))
		}
	}
	return w.Flush()
}

var pullCmd = &cobra.Command{
	Use:   "pull IMAGE[:TAG]",
	Short: "Download an image from a registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(client *docker.Client) error {
			return runPull(cmd.Context(), client, cmd.OutOrStdout(), args[0])
		})
	},
}

func runPull(ctx context.Context, client *docker.Client, out io.Writer, ref string) error {
	stream, err := client.Images().Create(ctx, opts.NewPullImageOpts(ref))
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	for {
		msg, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := msg.Err(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, formatProgress(msg))
	}

	_, _ = fmt.Fprintf(out, "Pulled %s\n", ref)
	return nil
}

func formatProgress(msg docker.ProgressMessage) string {
	line := msg.Status
	if msg.ID != "" {
		line = msg.ID + ": " + line
	}
	if msg.ProgressDetail != nil && msg.ProgressDetail.Total > 0 {
		line += fmt.Sprintf(" %s/%s", humanSize(msg.ProgressDetail.Current), humanSize(msg.ProgressDetail.Total))
	}
	return line
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	imagesCmd.Flags().BoolVarP(&imagesAll, "all", "a", false, "show all images (default hides intermediate images)")

	rootCmd.AddCommand(imagesCmd, pullCmd)
}
