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

// DefaultOLXOrigin is the live olx.com.pk origin
const DefaultOLXOrigin = "https://www.olx.com.pk"

// OLXCategories are the property search categories walked on every page
var OLXCategories = []string{"property-for-sale", "houses", "apartments", "land-plots"}

var olxPriceToken = regexp.MustCompile(`(?i)\b(?:pkr|rs|crore|lakh)\b`)

// OLX describes olx.com.pk served from origin
func OLX(origin string) SiteConfig {
	origin = strings.TrimRight(origin, "/")

	names := []string{"Lahore", "Karachi", "Islamabad", "Rawalpindi"}
	cities := make([]City, 0, len(names))
	for _, name := range names {
		cities = append(cities, City{Name: name, URL: origin + "/" + strings.ToLower(name) + "/"})
	}

	return SiteConfig{
		Source:     SourceOLX,
		Name:       "OLX.pk",
		Origin:     origin,
		Cities:     cities,
		Categories: OLXCategories,
		PageURL:    olxPageURL,
		Cards: locator.Locator{
			Patterns: []markup.Hint{
				markup.Class("div", "_1t0I4"),
				markup.Class("div", "a38b8"),
				markup.Class("li", "_2U8HN"),
				markup.Class("div", "ads__item"),
				markup.Class("div", "listing-card"),
			},
			Heuristic: locator.Heuristic{
				MinText: 50,
				MaxText: 1000,
				Require: []*regexp.Regexp{locator.CurrencyToken, locator.UnitToken},
			},
		},
		Fields:      extract.DefaultFields(),
		LinkFilter:  extract.SameSite(hostOf(origin)),
		CardFilter:  olxPriceToken,
		Rooms:       true,
		DetailImage: true,
		TitleLimit:  150,
		Pacing: Pacing{
			Page:  pacing.Interval{Min: 3 * time.Second, Max: 5 * time.Second},
			Image: pacing.Interval{Min: 1 * time.Second, Max: 2 * time.Second},
		},
		CategoryPolicy: StopAfterFirstYield,
		BlockTime:      300 * time.Second,
	}
}

// olxPageURL builds "<city>/q-<category>/" with a page query after page 1
func olxPageURL(base, category string, page int) string {
	u := strings.TrimRight(base, "/") + "/q-" + category + "/"
	if page <= 1 {
		return u
	}
	return fmt.Sprintf("%s?page=%d", u, page)
}
