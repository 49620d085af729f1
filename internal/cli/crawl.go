package cli

import (
	"fmt"
	"io"
	"time"

	"sjsage522/estateworker/config"
	"sjsage522/estateworker/internal/crawler"
	"sjsage522/estateworker/logger"
	"sjsage522/estateworker/services/orchestrator"
	"sjsage522/estateworker/storage"
	crawlerrors "sjsage522/estateworker/pkg/errors"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type crawlOptions struct {
	source      string
	cities      []string
	pages       int
	outputDir   string
	postgresDSN string
	show        int
	noProgress  bool
	quiet       bool
}

func (o *crawlOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.source, "source", "s", "", "Site to crawl: zameen, property1 or olx (default all)")
	f.StringArrayVarP(&o.cities, "city", "c", nil, "City to crawl, repeatable (default all cities of the source)")
	f.IntVarP(&o.pages, "pages", "p", 1, "Result pages to crawl per city")
	f.StringVarP(&o.outputDir, "output-dir", "o", "", "Directory for the JSON files (default $OUTPUT_DIR or .)")
	f.StringVar(&o.postgresDSN, "postgres-dsn", "", "Also upsert listings into this Postgres database")
	f.IntVar(&o.show, "show", 0, "Print the first N listings of each city")
	f.BoolVar(&o.noProgress, "no-progress", false, "Disable the progress bar")
}

// targets expands the source and city flags into crawl targets
func (o *crawlOptions) targets(cities map[crawler.Source][]string) ([]orchestrator.Target, error) {
	sources := crawler.Sources
	if o.source != "" {
		src, err := crawler.ParseSource(o.source)
		if err != nil {
			return nil, err
		}
		sources = []crawler.Source{src}
	}

	var targets []orchestrator.Target
	for _, src := range sources {
		names := o.cities
		if len(names) == 0 {
			names = cities[src]
		}
		for _, city := range names {
			targets = append(targets, orchestrator.Target{Source: src, City: city})
		}
	}
	return targets, nil
}

func runCrawl(cmd *cobra.Command, opts *crawlOptions, build appBuilder) error {
	ctx := cmd.Context()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if opts.postgresDSN != "" {
		cfg.PostgresDSN = opts.postgresDSN
	}
	if opts.pages < 1 || opts.pages > cfg.MaxPages {
		return crawlerrors.NewInvalidInput("", fmt.Sprintf("pages must be between 1 and %d", cfg.MaxPages))
	}
	if opts.show < 0 {
		return crawlerrors.NewInvalidInput("", fmt.Sprintf("show must not be negative, got %d", opts.show))
	}

	app, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	targets, err := opts.targets(app.orch.Cities())
	if err != nil {
		return err
	}
	if targets, err = app.orch.Validate(targets); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	bar := progressbar.NewOptions(len(targets),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("crawling"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(!opts.noProgress && !opts.quiet),
	)

	log := logger.ForOrchestrator()
	files := make(map[orchestrator.Target]string)
	app.orch.OnProgress = func(done, total int, r orchestrator.Result) {
		bar.Describe(r.Target.String())
		_ = bar.Add(1)
		if len(r.Listings) == 0 {
			return
		}
		path, err := storage.SaveJSON(cfg.OutputDir, r.Target.Source, r.Target.City, r.Listings, time.Now())
		if err != nil {
			log.Error().Err(err).Str("target", r.Target.String()).Msg("Failed to save listings")
			return
		}
		files[r.Target] = path
	}

	results, runErr := app.orch.Run(ctx, targets, opts.pages)
	_ = bar.Finish()

	if app.store != nil {
		for _, r := range results {
			if len(r.Listings) == 0 {
				continue
			}
			if _, err := app.store.SaveListings(ctx, r.Listings); err != nil {
				log.Error().Err(err).Str("target", r.Target.String()).Msg("Failed to store listings")
			}
		}
	}

	if !opts.quiet {
		printSummary(out, results, files, opts.show)
	}
	if runErr != nil {
		return runErr
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 && failed == len(results) {
		return fmt.Errorf("all %d targets failed", failed)
	}
	return nil
}

func printSummary(w io.Writer, results []orchestrator.Result, files map[orchestrator.Target]string, show int) {
	total := 0
	for _, r := range results {
		total += len(r.Listings)
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "%-24s failed: %v\n", r.Target, r.Err)
		case len(r.Listings) == 0:
			fmt.Fprintf(w, "%-24s no listings\n", r.Target)
		default:
			fmt.Fprintf(w, "%-24s %3d listings  %s\n", r.Target, len(r.Listings), files[r.Target])
		}
		printListings(w, r.Listings, show)
	}
	fmt.Fprintf(w, "%d listings from %d targets\n", total, len(results))
}

func printListings(w io.Writer, listings []crawler.Listing, limit int) {
	limit = max(0, min(limit, len(listings)))
	for i, l := range listings[:limit] {
		fmt.Fprintf(w, "  %d. %s\n", i+1, l.Title)
		fmt.Fprintf(w, "     price: %s  location: %s  area: %s\n", l.Price, l.Location, l.Area)
		if l.Beds != "" || l.Baths != "" {
			fmt.Fprintf(w, "     beds: %s  baths: %s\n", l.Beds, l.Baths)
		}
		fmt.Fprintf(w, "     %s\n", l.URL)
	}
}
