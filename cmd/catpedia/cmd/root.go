// Package cmd implements the catpedia command line.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/illmade-knight/go-catpedia/pkg/catpedia"
	"github.com/illmade-knight/go-catpedia/pkg/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "dev"

// offlineNotice is printed when the catalog was served from the cache.
const offlineNotice = "(offline: cached data)"

// Execute runs the CLI with the given arguments and IO writers and returns
// the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	stdout     io.Writer
	stderr     io.Writer
}

// NewRootCommand creates the root command with injectable IO.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "catpedia",
		Short:         "Browse the cat breed catalog",
		Long:          "catpedia browses the cat breed catalog with an offline cache and a shared favorites list.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")

	root.AddCommand(
		newBreedsCommand(a),
		newBreedCommand(a),
		newFavoritesCommand(a),
		newCacheCommand(a),
	)
	return root
}

// client loads the configuration and builds a data-layer client. The caller
// must Close it.
func (a *app) client(ctx context.Context) (*catpedia.Client, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: a.stderr, NoColor: true}).
		Level(level).With().Timestamp().Logger()

	return catpedia.New(ctx, cfg, catpedia.Dependencies{}, logger)
}

// withClient runs fn with a client that is closed afterwards.
func (a *app) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *catpedia.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := a.client(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	return fn(ctx, c)
}
