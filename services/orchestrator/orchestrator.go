package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sjsage522/estateworker/internal/crawler"
	"sjsage522/estateworker/internal/pacing"
	"sjsage522/estateworker/logger"
	"sjsage522/estateworker/services/publisher"
	crawlerrors "sjsage522/estateworker/pkg/errors"
)

// Target is one (source, city) pair
type Target struct {
	Source crawler.Source
	City   string
}

func (t Target) String() string {
	return string(t.Source) + "/" + t.City
}

// Result is the outcome of crawling one target
type Result struct {
	Target   Target
	Listings []crawler.Listing
	Err      error
}

// Progress is called after every target with the number finished so far
type Progress func(done, total int, r Result)

// Orchestrator runs site crawlers for a set of targets one after another
type Orchestrator struct {
	crawlers  map[crawler.Source]crawler.Crawler
	publisher publisher.Publisher
	cooldown  time.Duration
	log       *logger.Logger

	// OnProgress, when set, observes each finished target
	OnProgress Progress
}

// New creates an orchestrator. pub may be nil to skip publishing.
func New(crawlers map[crawler.Source]crawler.Crawler, pub publisher.Publisher, cooldown time.Duration) *Orchestrator {
	return &Orchestrator{
		crawlers:  crawlers,
		publisher: pub,
		cooldown:  cooldown,
		log:       logger.ForOrchestrator(),
	}
}

// WithLogger replaces the orchestrator's logger
func (o *Orchestrator) WithLogger(l *logger.Logger) *Orchestrator {
	o.log = l
	return o
}

// Crawler returns the crawler for source
func (o *Orchestrator) Crawler(source crawler.Source) (crawler.Crawler, bool) {
	c, ok := o.crawlers[source]
	return c, ok
}

// Cities lists the supported cities per source
func (o *Orchestrator) Cities() map[crawler.Source][]string {
	out := make(map[crawler.Source][]string, len(o.crawlers))
	for src, c := range o.crawlers {
		out[src] = c.Cities()
	}
	return out
}

// AllTargets returns every known (source, city) pair in source order
func (o *Orchestrator) AllTargets() []Target {
	var targets []Target
	for _, src := range crawler.Sources {
		c, ok := o.crawlers[src]
		if !ok {
			continue
		}
		for _, city := range c.Cities() {
			targets = append(targets, Target{Source: src, City: city})
		}
	}
	return targets
}

// Validate resolves targets to their canonical city names. Any unknown source
// or city rejects the whole set.
func (o *Orchestrator) Validate(targets []Target) ([]Target, error) {
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		c, ok := o.crawlers[t.Source]
		if !ok {
			return nil, crawlerrors.NewInvalidInput(string(t.Source), "unknown source")
		}
		city, ok := canonicalCity(c, t.City)
		if !ok {
			return nil, crawlerrors.NewInvalidInput(string(t.Source), fmt.Sprintf("unknown city %q", t.City))
		}
		out = append(out, Target{Source: t.Source, City: city})
	}
	return out, nil
}

// Crawl runs a single target
func (o *Orchestrator) Crawl(ctx context.Context, source crawler.Source, city string, pages int) ([]crawler.Listing, error) {
	targets, err := o.Validate([]Target{{Source: source, City: city}})
	if err != nil {
		return nil, err
	}
	return o.crawlers[source].Crawl(ctx, targets[0].City, pages)
}

// Run crawls targets (all known pairs when empty) sequentially with the
// cool-down between them. A failed target is recorded in its Result and does
// not stop the rest. The returned error is non-nil only for invalid targets or
// cancellation.
func (o *Orchestrator) Run(ctx context.Context, targets []Target, pages int) ([]Result, error) {
	if len(targets) == 0 {
		targets = o.AllTargets()
	}
	targets, err := o.Validate(targets)
	if err != nil {
		return nil, err
	}
	if pages < 1 {
		return nil, crawlerrors.NewInvalidInput("", fmt.Sprintf("page count must be at least 1, got %d", pages))
	}

	start := time.Now()
	cooldown := pacing.New(pacing.Fixed(o.cooldown))
	results := make([]Result, 0, len(targets))

	for i, t := range targets {
		if err := cooldown.Wait(ctx); err != nil {
			return results, err
		}

		r := o.runTarget(ctx, t, pages)
		cooldown.Done()
		results = append(results, r)
		if o.OnProgress != nil {
			o.OnProgress(i+1, len(targets), r)
		}
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}

	if o.publisher != nil {
		if err := o.publisher.TrimStreams(ctx); err != nil {
			o.log.Error().Err(err).Msg("Stream trimming failed")
		}
	}

	o.log.Info().Int("targets", len(targets)).Dur("elapsed", time.Since(start)).Msg("Run finished")
	return results, nil
}

// runTarget crawls and publishes one target
func (o *Orchestrator) runTarget(ctx context.Context, t Target, pages int) Result {
	log := o.log.WithFields(logger.Fields{"source": t.Source, "city": t.City})

	listings, err := o.crawlers[t.Source].Crawl(ctx, t.City, pages)
	if err != nil {
		log.Error().Err(err).Int("partial", len(listings)).Msg("Target failed")
		return Result{Target: t, Listings: listings, Err: err}
	}
	log.Info().Int("listings", len(listings)).Msg("Target finished")

	o.publish(ctx, t, listings)
	return Result{Target: t, Listings: listings}
}

// publish sends every listing as its own JSON message keyed by source
func (o *Orchestrator) publish(ctx context.Context, t Target, listings []crawler.Listing) {
	if o.publisher == nil {
		return
	}
	for _, l := range listings {
		data, err := json.Marshal(l)
		if err != nil {
			o.log.Error().Err(err).Str("url", l.URL).Msg("Failed to encode listing")
			continue
		}
		if err := o.publisher.Publish(ctx, string(t.Source), data); err != nil {
			o.log.Error().Err(err).Str("target", t.String()).Msg("Failed to publish listing")
			return
		}
	}
}

// ByCity groups the listings of results by city, keeping result order
func ByCity(results []Result) map[string][]crawler.Listing {
	out := make(map[string][]crawler.Listing)
	for _, r := range results {
		out[r.Target.City] = append(out[r.Target.City], r.Listings...)
	}
	return out
}

func canonicalCity(c crawler.Crawler, city string) (string, bool) {
	for _, name := range c.Cities() {
		if strings.EqualFold(name, strings.TrimSpace(city)) {
			return name, true
		}
	}
	return "", false
}
