// Package cli provides the command-line interface for one-off crawls.
package cli

import (
	"context"
	"os"

	"sjsage522/estateworker/config"
	"sjsage522/estateworker/internal"
	"sjsage522/estateworker/internal/crawler"
	"sjsage522/estateworker/services/orchestrator"
	"sjsage522/estateworker/storage"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// listingStore persists crawled listings
type listingStore interface {
	SaveListings(ctx context.Context, listings []crawler.Listing) (int, error)
	Close()
}

// application is everything a command needs for one run
type application struct {
	orch    *orchestrator.Orchestrator
	store   listingStore // nil without a Postgres DSN
	closers []func()
}

func (a *application) Close() {
	if a.store != nil {
		a.store.Close()
	}
	for _, c := range a.closers {
		c()
	}
}

// appBuilder creates the application for cfg
type appBuilder func(ctx context.Context, cfg *config.Config) (*application, error)

// Execute runs the root command with ctx and exits non-zero on failure.
// This is called by main.main().
func Execute(ctx context.Context) {
	if err := NewRootCmd(buildApplication).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd returns the crawl command tree. The root command itself runs a crawl.
func NewRootCmd(build appBuilder) *cobra.Command {
	var verbose, quiet bool
	opts := &crawlOptions{}

	root := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl property listings from zameen, property1 and olx",
		Long: `Crawl walks the result pages of the supported listing sites for one or more
cities and writes the extracted listings to JSON files.

Each (source, city) pair is crawled in turn with a cool-down between pairs.
A failing page or city is logged and skipped.`,
		Example: `  # Crawl two pages of zameen for Lahore
  crawl --source zameen --city Lahore --pages 2

  # Crawl every olx city into ./out and upsert into Postgres
  crawl --source olx --output-dir ./out --postgres-dsn postgres://localhost/estate

  # List the supported cities
  crawl cities`,
		Version:      "0.1.0",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setLogLevel(verbose, quiet)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.quiet = quiet
			return runCrawl(cmd, opts, build)
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	opts.register(root)

	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(newCitiesCmd(build))
	return root
}

func setLogLevel(verbose, quiet bool) {
	switch {
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}
}

// buildApplication wires the real dependencies for cfg
func buildApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	deps, err := internal.NewDependencies(ctx, cfg)
	if err != nil {
		return nil, err
	}

	crawlers, err := crawler.CreateCrawlers(cfg, deps.Cache, deps.Fetcher, deps.ImageFetcher)
	if err != nil {
		deps.Close()
		return nil, err
	}

	app := &application{
		orch:    orchestrator.New(crawlers, deps.Publisher, cfg.TargetCooldown),
		closers: []func(){deps.Close},
	}

	if cfg.PostgresDSN != "" {
		store, err := storage.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			app.Close()
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			app.Close()
			return nil, err
		}
		app.store = store
	}
	return app, nil
}
