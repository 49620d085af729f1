package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"sjsage522/estateworker/helpers"
	"sjsage522/estateworker/internal/markup"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTitleHints are the nodes most sites use for a listing headline
var DefaultTitleHints = []markup.Hint{
	markup.Tag("h2"),
	markup.Tag("h3"),
	markup.Attr("*", "aria-label", "^title$"),
	markup.Class("a", "title|heading"),
	markup.Class("div", "title|heading"),
	markup.Class("span", "title|heading"),
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?|\n•]+\s`)
	propertyKind  = regexp.MustCompile(`(?i)\b(?:house|flat|apartment|plot|property|villa|portion|penthouse|farm\s*house)\b`)
)

const (
	minTitle      = 10
	minShortTitle = 6
	maxSentence   = 200
)

// TitleCascade prefers a full headline, then a sentence naming a property
// kind, then any shorter headline.
func TitleCascade(hints []markup.Hint) Cascade {
	return Cascade{
		Field: "title",
		Strategies: []Strategy{
			Labeled("title-heading", hints, minLength(minTitle)),
			{
				Name: "title-attribute",
				Kind: Structural,
				Run:  titleAttribute,
			},
			{
				Name: "title-sentence",
				Kind: Fallback,
				Run:  propertySentence,
			},
			Labeled("title-short", hints, minLength(minShortTitle)),
		},
	}
}

func minLength(n int) func(string) (string, bool) {
	return func(text string) (string, bool) {
		return text, utf8.RuneCountInString(text) >= n
	}
}

func titleAttribute(c Card) (string, bool) {
	if c.Sel == nil {
		return "", false
	}
	var found string
	c.Sel.Find("a[title]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		v, _ := a.Attr("title")
		v = helpers.CleanText(v)
		if utf8.RuneCountInString(v) >= minTitle {
			found = v
			return false
		}
		return true
	})
	return found, found != ""
}

func propertySentence(c Card) (string, bool) {
	for _, s := range sentenceSplit.Split(c.Text, -1) {
		s = strings.TrimSpace(s)
		n := utf8.RuneCountInString(s)
		if n >= minTitle && n <= maxSentence && propertyKind.MatchString(s) {
			return s, true
		}
	}
	return "", false
}
