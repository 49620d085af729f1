package extract

import (
	"regexp"

	"sjsage522/estateworker/internal/markup"
)

var (
	bedPattern  = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:bedrooms?|beds?|br)\b`)
	bathPattern = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:bathrooms?|baths?|ba)\b`)
	countOnly   = regexp.MustCompile(`^\D*(\d{1,2})\D*$`)
)

// BedsCascade reads a labeled bed count, then "3 Bed" style text
func BedsCascade() Cascade {
	return roomCascade("beds", "Bed", "^beds?$", bedPattern)
}

// BathsCascade reads a labeled bath count, then "2 Bath" style text
func BathsCascade() Cascade {
	return roomCascade("baths", "Bath", "^baths?$", bathPattern)
}

func roomCascade(field, unit, label string, pattern *regexp.Regexp) Cascade {
	return Cascade{
		Field:    field,
		Sentinel: Unknown,
		Strategies: []Strategy{
			Labeled(field+"-label", []markup.Hint{markup.Attr("*", "aria-label", label)}, func(text string) (string, bool) {
				m := countOnly.FindStringSubmatch(text)
				if m == nil {
					return "", false
				}
				return FormatCount(m[1], unit), true
			}),
			TextPattern(field+"-pattern", []*regexp.Regexp{pattern}, func(_ Card, g []string) (string, bool) {
				return FormatCount(g[1], unit), true
			}),
		},
	}
}

// FormatCount renders "1 Bed" or "3 Beds"
func FormatCount(n, unit string) string {
	if n == "1" {
		return n + " " + unit
	}
	return n + " " + unit + "s"
}
