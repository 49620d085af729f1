package crawler

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"sjsage522/estateworker/helpers"
	"sjsage522/estateworker/internal/extract"
	"sjsage522/estateworker/internal/fetch"
	"sjsage522/estateworker/internal/imageurl"
	"sjsage522/estateworker/internal/pacing"
	"sjsage522/estateworker/logger"
	"sjsage522/estateworker/services/cache"
	crawlerrors "sjsage522/estateworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// SiteCrawler runs the page, card and field pipeline for one site
type SiteCrawler struct {
	BaseCrawler
	Site     SiteConfig
	ImageTTL time.Duration
	Log      *logger.Logger

	// DetailFetcher loads detail pages for images; Fetcher when nil
	DetailFetcher fetch.Fetcher

	origin   *url.URL
	resolver *imageurl.Resolver
}

// NewSiteCrawler creates a crawler for site
func NewSiteCrawler(site SiteConfig, cacheSvc cache.CacheService, fetcher fetch.Fetcher) (*SiteCrawler, error) {
	origin, err := url.Parse(site.Origin)
	if err != nil || origin.Host == "" {
		return nil, crawlerrors.NewConfiguration(fmt.Sprintf("invalid origin %q for %s", site.Origin, site.Source), err)
	}
	if site.PageURL == nil {
		return nil, crawlerrors.NewConfiguration(fmt.Sprintf("no page url builder for %s", site.Source), nil)
	}
	if site.TitleLimit <= 0 {
		site.TitleLimit = DefaultTitleLimit
	}
	if site.CacheKey == "" {
		site.CacheKey = string(site.Source) + "_rate_limited"
	}

	return &SiteCrawler{
		BaseCrawler: BaseCrawler{
			Provider:  site.Source,
			Referer:   origin.Scheme + "://" + origin.Host + "/",
			CacheKey:  site.CacheKey,
			CacheSvc:  cacheSvc,
			BlockTime: site.BlockTime,
			Fetcher:   fetcher,
		},
		Site:     site,
		ImageTTL: 24 * time.Hour,
		Log:      logger.ForSite(string(site.Source)),
		origin:   origin,
		resolver: imageurl.NewResolver(origin),
	}, nil
}

// GetName returns the site's display name
func (c *SiteCrawler) GetName() string {
	return c.Site.Name
}

// GetProvider returns the site's source id
func (c *SiteCrawler) GetProvider() Source {
	return c.Site.Source
}

// Cities returns the supported city names
func (c *SiteCrawler) Cities() []string {
	return c.Site.CityNames()
}

// crawlRun is the state owned by a single Crawl call
type crawlRun struct {
	city   string
	seen   seenSet
	detail *imageurl.DetailLookup
	out    []Listing
}

// Crawl walks pages 1..pages of city in order. Page and category failures are
// logged and skipped. Only an unknown city, a non-positive page count, or a
// cancelled context produce an error; on cancellation the listings gathered
// so far are returned with it.
func (c *SiteCrawler) Crawl(ctx context.Context, city string, pages int) ([]Listing, error) {
	target, ok := c.Site.CityURL(city)
	if !ok {
		return nil, crawlerrors.NewInvalidInput(string(c.Site.Source), fmt.Sprintf("unknown city %q", city))
	}
	if pages < 1 {
		return nil, crawlerrors.NewInvalidInput(string(c.Site.Source), fmt.Sprintf("page count must be at least 1, got %d", pages))
	}

	run := &crawlRun{city: target.Name, seen: seenSet{}}
	if c.Site.DetailImage {
		detailFetcher := c.DetailFetcher
		if detailFetcher == nil {
			detailFetcher = c.Fetcher
		}
		run.detail = &imageurl.DetailLookup{
			Fetcher:  detailFetcher,
			Pacer:    pacing.New(c.Site.Pacing.Image),
			Cache:    c.CacheSvc,
			CacheTTL: c.ImageTTL,
			Referer:  c.Referer,
			Log:      c.Log,
		}
	}

	categories := c.Site.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}

	pagePacer := pacing.New(c.Site.Pacing.Page)
	log := c.Log.WithField("city", target.Name)

	for page := 1; page <= pages; page++ {
		for _, category := range categories {
			if err := pagePacer.Wait(ctx); err != nil {
				return run.out, err
			}

			pageURL := c.Site.PageURL(target.URL, category, page)
			emitted, err := c.crawlPage(ctx, run, pageURL)
			pagePacer.Done()
			if err != nil {
				if ctx.Err() != nil {
					return run.out, ctx.Err()
				}
				if crawlerrors.IsType(err, crawlerrors.ErrorTypeRateLimit) {
					log.Warn().Err(err).Int("page", page).Msg("Site is blocked, ending crawl early")
					return run.out, nil
				}
				log.Warn().Err(err).Str("url", pageURL).Int("page", page).Msg("Skipping page")
				continue
			}

			log.Debug().Str("url", pageURL).Int("page", page).Int("emitted", emitted).Msg("Page processed")
			if emitted > 0 && category != "" && c.Site.CategoryPolicy == StopAfterFirstYield {
				break
			}
		}
	}

	log.Info().Int("total", len(run.out)).Int("pages", pages).Msg("Crawl finished")
	return run.out, nil
}

// crawlPage fetches one result page and appends its new listings to run
func (c *SiteCrawler) crawlPage(ctx context.Context, run *crawlRun, pageURL string) (int, error) {
	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return 0, err
	}

	found := c.Site.Cards.Locate(doc)
	if len(found.Cards) == 0 {
		c.Log.Debug().Str("url", pageURL).Msg("No cards found")
		return 0, nil
	}
	c.Log.Debug().Str("strategy", found.Strategy).Int("cards", len(found.Cards)).Msg("Located cards")

	emitted := 0
	for _, card := range found.Cards {
		if ctx.Err() != nil {
			return emitted, ctx.Err()
		}
		listing, ok := c.processCard(ctx, run, card)
		if !ok {
			continue
		}
		run.seen.add(listing.URL)
		run.out = append(run.out, listing)
		emitted++
	}
	return emitted, nil
}

// processCard turns one card into a Listing. ok is false when the card is
// dropped; a panic inside extraction drops only this card.
func (c *SiteCrawler) processCard(ctx context.Context, run *crawlRun, sel *goquery.Selection) (listing Listing, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.Log.Warn().Interface("panic", r).Msg("Dropped card after extraction fault")
			listing, ok = Listing{}, false
		}
	}()

	link, found := extract.CanonicalLink(sel, c.origin, c.Site.LinkFilter)
	if !found || run.seen.has(link) {
		return Listing{}, false
	}

	card := extract.NewCard(sel, run.city)
	if c.Site.CardFilter != nil && !c.Site.CardFilter.MatchString(card.Text) {
		return Listing{}, false
	}

	title := c.Site.Fields.Title.Resolve(card)
	if !title.Matched {
		c.Log.Debug().Str("url", link).Msg("Dropped card without title")
		return Listing{}, false
	}
	card.Title = title.Value

	price := c.Site.Fields.Price.Resolve(card)
	if c.Site.RequirePrice && !price.Matched {
		c.Log.Debug().Str("url", link).Msg("Dropped card without price")
		return Listing{}, false
	}

	listing = Listing{
		Title:    helpers.Truncate(title.Value, c.Site.TitleLimit),
		Price:    price.Value,
		Location: c.Site.Fields.Location.Resolve(card).Value,
		Area:     c.Site.Fields.Area.Resolve(card).Value,
		URL:      link,
		City:     run.city,
		Source:   c.Site.Source,
	}
	if c.Site.Rooms {
		listing.Beds = c.Site.Fields.Beds.Resolve(card).Value
		listing.Baths = c.Site.Fields.Baths.Resolve(card).Value
	}

	if img, ok := c.resolver.Resolve(ctx, sel, link, run.detail); ok {
		listing.Image = img
	}

	return listing, true
}
