package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"sjsage522/estateworker/internal/markup"
)

// DefaultAreaHints are the labeled nodes tried for area
var DefaultAreaHints = []markup.Hint{
	markup.Class("span", "area|size"),
	markup.Class("div", "area|size"),
	markup.Class("li", "area|size"),
	markup.Attr("*", "aria-label", "^area$"),
}

const unitPattern = `(Marla|Kanal|Square\s*(?:Feet|Foot|Yards?|Meters?|Metres?)|Sq\.?\s*(?:Ft|Feet|Yds?|Yards?)\.?|Sq\.?\s*M\b|sqft|sqyd|sqm|m²)`

var (
	areaToken = regexp.MustCompile(`(?i)marla|kanal|sq|yard|feet|m²`)

	areaPatterns = []*regexp.Regexp{
		// ranges first so "5-7 Marla" is not read as "7 Marla"
		regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*` + unitPattern),
		regexp.MustCompile(`(?i)\b(\d[\d,]*(?:\.\d+)?)\s*` + unitPattern),
	}

	squash = strings.NewReplacer(" ", "", ".", "", "\t", "")

	areaUnits = map[string]string{
		"marla":         "Marla",
		"kanal":         "Kanal",
		"squarefeet":    "Sq. Ft.",
		"squarefoot":    "Sq. Ft.",
		"sqft":          "Sq. Ft.",
		"sqfeet":        "Sq. Ft.",
		"squareyard":    "Sq. Yd.",
		"squareyards":   "Sq. Yd.",
		"sqyd":          "Sq. Yd.",
		"sqyds":         "Sq. Yd.",
		"sqyard":        "Sq. Yd.",
		"sqyards":       "Sq. Yd.",
		"squaremeter":   "Sq. M.",
		"squaremeters":  "Sq. M.",
		"squaremetre":   "Sq. M.",
		"squaremetres":  "Sq. M.",
		"sqm":           "Sq. M.",
		"m²":            "Sq. M.",
	}
)

const maxLabeledArea = 40

// AreaCascade builds labeled-node, text-pattern, title-pattern precedence for area
func AreaCascade(hints []markup.Hint) Cascade {
	return Cascade{
		Field:    "area",
		Sentinel: Unknown,
		Strategies: []Strategy{
			Labeled("area-label", hints, acceptAreaLabel),
			TextPattern("area-pattern", areaPatterns, matchArea),
			TitlePattern("area-title", areaPatterns, matchArea),
		},
	}
}

func acceptAreaLabel(text string) (string, bool) {
	if utf8.RuneCountInString(text) > maxLabeledArea || !areaToken.MatchString(text) {
		return "", false
	}
	return text, true
}

func matchArea(_ Card, g []string) (string, bool) {
	switch len(g) {
	case 4:
		return g[1] + "-" + g[2] + " " + normalizeUnit(g[3]), true
	case 3:
		n := strings.Trim(g[1], ",")
		if n == "" {
			return "", false
		}
		return n + " " + normalizeUnit(g[2]), true
	}
	return "", false
}

func normalizeUnit(u string) string {
	if v, ok := areaUnits[squash.Replace(strings.ToLower(u))]; ok {
		return v
	}
	return u
}
