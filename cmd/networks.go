package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zorak1103/berth/pkg/docker"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(func(client *docker.Client) error {
			return runNetworks(cmd.Context(), client, cmd.OutOrStdout())
		})
	},
}

func runNetworks(ctx context.Context, client *docker.Client, out io.Writer) error {
	networks, err := client.Networks().List(ctx, nil)
	if err != nil {
		return err
	}

	w := newTable(out)
	_, _ = fmt.Fprintln(w, "NETWORK ID\tNAME\tDRIVER\tSCOPE")
	for _, n := range networks {
		d := n.Data()
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", shortID(d.ID), d.Name, d.Driver, d.Scope)
	}
	return w.Flush()
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(networksCmd)
}
