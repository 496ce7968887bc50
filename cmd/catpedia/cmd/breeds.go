package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/illmade-knight/go-catpedia/pkg/browse"
	"github.com/illmade-knight/go-catpedia/pkg/catalog"
	"github.com/illmade-knight/go-catpedia/pkg/catpedia"
	"github.com/spf13/cobra"
)

const detailImageLimit = 3

func newBreedsCommand(a *app) *cobra.Command {
	var query, sortFlag string

	cmd := &cobra.Command{
		Use:   "breeds",
		Short: "List breeds, optionally filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := browse.ParseSortOption(sortFlag)
			if err != nil {
				return err
			}
			return a.withClient(cmd, func(ctx context.Context, c *catpedia.Client) error {
				res, err := c.Catalog.Fetch(ctx)
				if err != nil {
					return err
				}
				favs, err := c.Favorites.Read(ctx)
				if err != nil {
					return err
				}

				printOffline(a.stdout, res)
				shown := browse.Apply(res.Breeds, query, opt)
				if len(shown) == 0 {
					_, _ = fmt.Fprintln(a.stdout, "No breeds found.")
					return nil
				}
				printBreeds(a.stdout, shown, favs)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "match breed name or temperament")
	cmd.Flags().StringVarP(&sortFlag, "sort", "s", string(browse.SortNone),
		fmt.Sprintf("sort order: %s", joinSortOptions()))
	return cmd
}

func newBreedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "breed <id>",
		Short: "Show one breed in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *catpedia.Client) error {
				b, err := c.API.GetBreed(ctx, args[0])
				if err != nil {
					return err
				}
				fav, err := c.Favorites.IsFavorite(ctx, b.ID)
				if err != nil {
					return err
				}
				printDetail(a.stdout, b, fav)

				images, err := c.API.SearchImages(ctx, b.ID, detailImageLimit)
				if err != nil {
					// The detail view is still useful without a gallery.
					_, _ = fmt.Fprintf(a.stderr, "images unavailable: %v\n", err)
					return nil
				}
				for _, img := range images {
					_, _ = fmt.Fprintf(a.stdout, "Image: %s\n", img.URL)
				}
				return nil
			})
		},
	}
}

func printOffline(w io.Writer, res catalog.Result) {
	if res.Degraded() {
		_, _ = fmt.Fprintln(w, offlineNotice)
	}
}

func printBreeds(w io.Writer, breeds []catalog.Breed, favs []string) {
	marked := make(map[string]bool, len(favs))
	for _, id := range favs {
		marked[id] = true
	}
	for _, b := range breeds {
		star := " "
		if marked[b.ID] {
			star = "*"
		}
		_, _ = fmt.Fprintf(w, "%s %-6s %s\n", star, b.ID, b.Name)
	}
}

func printDetail(w io.Writer, b catalog.Breed, favorite bool) {
	_, _ = fmt.Fprintf(w, "%s (%s)\n", b.Name, b.ID)
	if favorite {
		_, _ = fmt.Fprintln(w, "Favorite: yes")
	}
	if b.Origin != "" {
		_, _ = fmt.Fprintf(w, "Origin: %s\n", b.Origin)
	}
	if b.LifeSpan != "" {
		_, _ = fmt.Fprintf(w, "Life span: %s years\n", b.LifeSpan)
	}
	if b.Weight != nil && b.Weight.Metric != "" {
		_, _ = fmt.Fprintf(w, "Weight: %s kg\n", b.Weight.Metric)
	}
	if b.Temperament != "" {
		_, _ = fmt.Fprintf(w, "Temperament: %s\n", b.Temperament)
	}
	traits := []struct {
		name  string
		level int
	}{
		{"Affection", b.AffectionLevel},
		{"Energy", b.EnergyLevel},
		{"Intelligence", b.Intelligence},
		{"Social needs", b.SocialNeeds},
		{"Child friendly", b.ChildFriendly},
		{"Dog friendly", b.DogFriendly},
	}
	for _, t := range traits {
		if t.level > 0 {
			_, _ = fmt.Fprintf(w, "%s: %d/5\n", t.name, t.level)
		}
	}
	if b.Description != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", b.Description)
	}
	if b.WikipediaURL != "" {
		_, _ = fmt.Fprintf(w, "Wikipedia: %s\n", b.WikipediaURL)
	}
	if u := b.ImageURL(); u != "" {
		_, _ = fmt.Fprintf(w, "Image: %s\n", u)
	}
}

func joinSortOptions() string {
	opts := browse.SortOptions()
	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = string(o)
	}
	return strings.Join(names, ", ")
}
