package crawler

import (
	"context"
	"regexp"
	"strings"
	"time"

	"sjsage522/estateworker/internal/extract"
	"sjsage522/estateworker/internal/locator"
	"sjsage522/estateworker/internal/pacing"
	crawlerrors "sjsage522/estateworker/pkg/errors"
)

// Source identifies a listing site
type Source string

const (
	SourceZameen    Source = "zameen"
	SourceProperty1 Source = "property1"
	SourceOLX       Source = "olx"
)

// DefaultTitleLimit bounds titles of sites that set no TitleLimit
const DefaultTitleLimit = 150

// Sources lists every supported site in display order
var Sources = []Source{SourceZameen, SourceProperty1, SourceOLX}

// ParseSource accepts a source name case-insensitively
func ParseSource(s string) (Source, error) {
	want := Source(strings.ToLower(strings.TrimSpace(s)))
	for _, src := range Sources {
		if src == want {
			return src, nil
		}
	}
	return "", crawlerrors.NewInvalidInput(s, "unknown source")
}

// Listing is one extracted property record. It is built once and never mutated.
// Image is empty when no photo could be resolved.
type Listing struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Location string `json:"location"`
	Area     string `json:"area"`
	Beds     string `json:"beds,omitempty"`
	Baths    string `json:"baths,omitempty"`
	Image    string `json:"image,omitempty"`
	URL      string `json:"url"`
	City     string `json:"city"`
	Source   Source `json:"source"`
}

// Crawler crawls one site for one city at a time
type Crawler interface {
	// Crawl returns the deduplicated listings of the first pages result pages
	Crawl(ctx context.Context, city string, pages int) ([]Listing, error)

	// GetName returns the site's display name
	GetName() string

	// GetProvider returns the site's source id
	GetProvider() Source

	// Cities returns the supported city names in display order
	Cities() []string
}

// CategoryPolicy decides whether later categories of a page are scanned once
// one category has produced listings.
type CategoryPolicy int

const (
	// StopAfterFirstYield skips the remaining categories of a page once one yields listings
	StopAfterFirstYield CategoryPolicy = iota
	// ScanAllCategories always fetches every category
	ScanAllCategories
)

func (p CategoryPolicy) String() string {
	if p == ScanAllCategories {
		return "scan-all"
	}
	return "stop-after-first"
}

// ParseCategoryPolicy reads "stop-after-first" or "scan-all"
func ParseCategoryPolicy(s string) (CategoryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stop-after-first", "stop":
		return StopAfterFirstYield, nil
	case "scan-all", "all":
		return ScanAllCategories, nil
	}
	return StopAfterFirstYield, crawlerrors.NewInvalidInput("", "unknown category policy "+s)
}

// PageURLFunc builds the URL of one result page. category is empty for sites
// without categories; page starts at 1.
type PageURLFunc func(base, category string, page int) string

// City is one supported city and its first result page
type City struct {
	Name string
	URL  string
}

// Pacing holds the minimum spacing between paced requests of one crawl
type Pacing struct {
	Page  pacing.Interval
	Image pacing.Interval
}

// SiteConfig describes everything site-specific about a crawl
type SiteConfig struct {
	Source     Source
	Name       string
	Origin     string
	Cities     []City
	Categories []string
	PageURL    PageURLFunc

	Cards      locator.Locator
	Fields     extract.Fields
	LinkFilter extract.LinkFilter
	// CardFilter, when set, must match the card text before extraction
	CardFilter *regexp.Regexp

	RequirePrice bool
	Rooms        bool
	DetailImage  bool
	TitleLimit   int // DefaultTitleLimit when zero

	Pacing         Pacing
	CategoryPolicy CategoryPolicy

	CacheKey  string
	BlockTime time.Duration
}

// CityURL returns the first result page for city, matched case-insensitively
func (s SiteConfig) CityURL(city string) (City, bool) {
	for _, c := range s.Cities {
		if strings.EqualFold(c.Name, strings.TrimSpace(city)) {
			return c, true
		}
	}
	return City{}, false
}

// CityNames returns the supported cities in order
func (s SiteConfig) CityNames() []string {
	names := make([]string, 0, len(s.Cities))
	for _, c := range s.Cities {
		names = append(names, c.Name)
	}
	return names
}

// seenSet holds the canonical URLs emitted by one crawl
type seenSet map[string]struct{}

func (s seenSet) has(u string) bool {
	_, ok := s[u]
	return ok
}

func (s seenSet) add(u string) {
	s[u] = struct{}{}
}
