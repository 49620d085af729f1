package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"sjsage522/estateworker/internal/markup"
)

// DefaultPriceHints are the labeled nodes tried before falling back to text patterns
var DefaultPriceHints = []markup.Hint{
	markup.Class("span", "price|amount"),
	markup.Class("div", "price|amount|payment"),
	markup.Class("li", "price"),
	markup.Attr("*", "aria-label", "^price$"),
	markup.Attr("*", "itemprop", "^price$"),
}

var (
	priceToken = regexp.MustCompile(`(?i)\b(?:pkr|rs|crore|lakh|lac|million|arab)\b`)

	pricePatterns = []*regexp.Regexp{
		// PKR 1.2 Crore, Rs. 45,000
		regexp.MustCompile(`(?i)\b(?:PKR|Rs\.?)\s*(\d[\d,]*(?:\.\d+)?)(?:\s*(Crore|Lakh|Lac|Million|Arab|Thousand)\b)?`),
		// 1.2 Crore PKR
		regexp.MustCompile(`(?i)\b(\d[\d,]*(?:\.\d+)?)\s*(Crore|Lakh|Lac|Million|Arab)\b`),
	}

	magnitudes = map[string]string{
		"crore":    "Crore",
		"lakh":     "Lakh",
		"lac":      "Lakh",
		"million":  "Million",
		"arab":     "Arab",
		"thousand": "Thousand",
	}
)

const maxLabeledPrice = 60

// PriceCascade builds labeled-node, text-pattern, sentinel precedence for price
func PriceCascade(hints []markup.Hint) Cascade {
	return Cascade{
		Field:    "price",
		Sentinel: PriceUnknown,
		Strategies: []Strategy{
			Labeled("price-label", hints, acceptPriceLabel),
			TextPattern("price-pattern", pricePatterns, matchPrice),
		},
	}
}

func acceptPriceLabel(text string) (string, bool) {
	if utf8.RuneCountInString(text) > maxLabeledPrice {
		return "", false
	}
	if !priceToken.MatchString(text) || !strings.ContainsAny(text, "0123456789") {
		return "", false
	}
	return text, true
}

func matchPrice(_ Card, g []string) (string, bool) {
	amount := strings.Trim(g[1], ",")
	if amount == "" {
		return "", false
	}
	if mag := magnitudes[strings.ToLower(g[2])]; mag != "" {
		return "PKR " + amount + " " + mag, true
	}
	return "PKR " + amount, true
}

