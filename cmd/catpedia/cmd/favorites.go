package cmd

import (
	"context"
	"fmt"

	"github.com/illmade-knight/go-catpedia/pkg/browse"
	"github.com/illmade-knight/go-catpedia/pkg/catpedia"
	"github.com/spf13/cobra"
)

func newFavoritesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List or toggle favorite breeds",
	}
	cmd.AddCommand(newFavoritesListCommand(a), newFavoritesToggleCommand(a))
	return cmd
}

func newFavoritesListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorite breeds in catalog order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *catpedia.Client) error {
				ids, err := c.Favorites.Read(ctx)
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					_, _ = fmt.Fprintln(a.stdout, "No favorites yet.")
					return nil
				}

				res, err := c.Catalog.Fetch(ctx)
				if err != nil {
					// Without a catalog the ids are all there is to show.
					for _, id := range ids {
						_, _ = fmt.Fprintf(a.stdout, "* %s\n", id)
					}
					return nil
				}
				printOffline(a.stdout, res)

				favs := browse.SelectFavorites(res.Breeds, ids)
				printBreeds(a.stdout, favs, ids)

				known := make(map[string]bool, len(favs))
				for _, b := range favs {
					known[b.ID] = true
				}
				for _, id := range ids {
					if !known[id] {
						_, _ = fmt.Fprintf(a.stdout, "* %-6s (not in catalog)\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newFavoritesToggleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Add a breed to favorites, or remove it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *catpedia.Client) error {
				added, err := c.Favorites.Toggle(ctx, args[0])
				if err != nil {
					return err
				}
				if added {
					_, _ = fmt.Fprintf(a.stdout, "Added %s to favorites.\n", args[0])
				} else {
					_, _ = fmt.Fprintf(a.stdout, "Removed %s from favorites.\n", args[0])
				}
				return nil
			})
		},
	}
}
