package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"sjsage522/estateworker/helpers"
	"sjsage522/estateworker/internal/markup"
)

// DefaultLocationHints are the labeled nodes tried for location
var DefaultLocationHints = []markup.Hint{
	markup.Attr("*", "aria-label", "^location$"),
	markup.Attr("*", "data-testid", "location"),
	markup.Attr("*", "itemprop", "^address$"),
	markup.Class("span", "location|address"),
	markup.Class("div", "location|address"),
	markup.Class("li", "location"),
}

var locationPatterns = []*regexp.Regexp{
	// "in DHA Phase 6", "location: Gulberg III"
	regexp.MustCompile(`\b(?i:in|at|location:?)\s+([A-Z][A-Za-z0-9]*(?:,?\s[A-Z0-9][A-Za-z0-9-]*){0,3})`),
	// "Bahria Town", "DHA Phase 6", "Sector F-7"
	regexp.MustCompile(`\b((?:[A-Z][A-Za-z]*\s){0,3}(?:Phase|Sector|Block|Town)(?:\s[A-Z0-9][A-Za-z0-9-]*)?)`),
}

const maxLocation = 120

// LocationCascade builds labeled-node, text-pattern, sentinel precedence for
// location. Any candidate equal to the query city is skipped.
func LocationCascade(hints []markup.Hint) Cascade {
	return Cascade{
		Field:    "location",
		Sentinel: Unknown,
		Strategies: []Strategy{
			{
				Name: "location-label",
				Kind: Structural,
				Run: func(c Card) (string, bool) {
					if c.Sel == nil {
						return "", false
					}
					return markup.FirstText(c.Sel, hints, func(text string) (string, bool) {
						return acceptLocation(c.City, text)
					})
				},
			},
			TextPattern("location-pattern", locationPatterns, func(c Card, g []string) (string, bool) {
				return acceptLocation(c.City, g[1])
			}),
		},
	}
}

func acceptLocation(city, text string) (string, bool) {
	text = strings.Trim(helpers.CleanText(text), " ,:-")
	n := utf8.RuneCountInString(text)
	if n <= 3 || n > maxLocation {
		return "", false
	}
	if helpers.IsDigits(strings.ReplaceAll(text, " ", "")) {
		return "", false
	}
	if city != "" && strings.EqualFold(text, city) {
		return "", false
	}
	return text, true
}
