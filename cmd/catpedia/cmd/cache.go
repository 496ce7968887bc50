package cmd

import (
	"context"
	"fmt"

	"github.com/illmade-knight/go-catpedia/pkg/catpedia"
	"github.com/spf13/cobra"
)

func newCacheCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the offline catalog cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop the cached breed list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *catpedia.Client) error {
				if err := c.Catalog.Invalidate(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(a.stdout, "Catalog cache cleared.")
				return nil
			})
		},
	})
	return cmd
}
