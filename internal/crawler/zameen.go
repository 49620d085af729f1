package crawler

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"sjsage522/estateworker/internal/extract"
	"sjsage522/estateworker/internal/locator"
	"sjsage522/estateworker/internal/markup"
	"sjsage522/estateworker/internal/pacing"
)

// DefaultZameenOrigin is the live zameen.com origin
const DefaultZameenOrigin = "https://www.zameen.com"

var zameenPageSuffix = regexp.MustCompile(`-\d+\.html$`)

var zameenCities = []struct{ name, slug string }{
	{"Lahore", "Lahore-1-1"},
	{"Karachi", "Karachi-2-1"},
	{"Rawalpindi", "Rawalpindi-41-1"},
	{"Islamabad", "Islamabad-3-1"},
}

// Zameen describes zameen.com served from origin
func Zameen(origin string) SiteConfig {
	origin = strings.TrimRight(origin, "/")

	cities := make([]City, 0, len(zameenCities))
	for _, c := range zameenCities {
		cities = append(cities, City{Name: c.name, URL: fmt.Sprintf("%s/Homes/%s.html", origin, c.slug)})
	}

	return SiteConfig{
		Source:  SourceZameen,
		Name:    "Zameen.com",
		Origin:  origin,
		Cities:  cities,
		PageURL: zameenPageURL,
		Cards: locator.Locator{
			Patterns: []markup.Hint{
				markup.Attr("li", "role", "^article$"),
				markup.Class("article", "card"),
				markup.Class("div", "property-card"),
				markup.Class("div", "listing-card"),
				markup.Class("div", "card"),
			},
			Heuristic: locator.DefaultHeuristic(),
		},
		Fields:       extract.DefaultFields(),
		LinkFilter:   extract.PathContains("/property/", "/homes/"),
		RequirePrice: true,
		TitleLimit:   150,
		Pacing:       Pacing{Page: pacing.Fixed(2 * time.Second)},
		BlockTime:    300 * time.Second,
	}
}

// zameenPageURL rewrites the trailing "-<n>.html" of the city page
func zameenPageURL(base, _ string, page int) string {
	if page <= 1 {
		return base
	}
	return zameenPageSuffix.ReplaceAllString(base, fmt.Sprintf("-%d.html", page))
}
