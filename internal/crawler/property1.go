package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"sjsage522/estateworker/internal/extract"
	"sjsage522/estateworker/internal/locator"
	"sjsage522/estateworker/internal/markup"
	"sjsage522/estateworker/internal/pacing"
)

// DefaultProperty1Origin is the live property1.pk origin
const DefaultProperty1Origin = "https://www.property1.pk"

var property1PageSegment = regexp.MustCompile(`/page/\d+/?`)

// Property1 describes property1.pk served from origin
func Property1(origin string) SiteConfig {
	origin = strings.TrimRight(origin, "/")

	names := []string{"Islamabad", "Rawalpindi", "Lahore", "Karachi"}
	cities := make([]City, 0, len(names))
	for _, name := range names {
		cities = append(cities, City{
			Name: name,
			URL:  origin + "/all-properties/?s=&filters%5Bad_type%5D=&rtcl_location=" + strings.ToLower(name),
		})
	}

	return SiteConfig{
		Source:  SourceProperty1,
		Name:    "Property1.pk",
		Origin:  origin,
		Cities:  cities,
		PageURL: property1PageURL,
		Cards: locator.Locator{
			Patterns: []markup.Hint{
				markup.Class("div", "listing-item|property-item|rtcl-listing-item"),
				markup.Class("div", "col.*?property"),
				markup.Class("article", "listing|property"),
				markup.Class("div", "item"),
				markup.Class("li", "listing"),
				markup.Class("div", "property-box"),
				markup.Attr("div", "data-rtcl", "listing"),
			},
			Heuristic: locator.DefaultHeuristic(),
		},
		Fields:     extract.DefaultFields(),
		LinkFilter: extract.SameSite(hostOf(origin)),
		TitleLimit: 120,
		Pacing:     Pacing{Page: pacing.Fixed(3 * time.Second)},
		BlockTime:  300 * time.Second,
	}
}

// property1PageURL places "/page/N/" at the end of the path, replacing any
// existing page segment, and keeps the query untouched.
func property1PageURL(base, _ string, page int) string {
	if page <= 1 {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	path := property1PageSegment.ReplaceAllString(u.Path, "/")
	u.Path = strings.TrimRight(path, "/") + fmt.Sprintf("/page/%d/", page)
	u.RawPath = ""
	return u.String()
}

func hostOf(origin string) string {
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
