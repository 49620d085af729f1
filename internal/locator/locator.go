// Package locator finds the card elements on a search-results page.
package locator

import (
	"regexp"
	"unicode/utf8"

	"sjsage522/estateworker/internal/markup"

	"github.com/PuerkitoBio/goquery"
)

// MaxCards bounds the cards considered on one page
const MaxCards = 20

var (
	// CurrencyToken matches price wording in card text
	CurrencyToken = regexp.MustCompile(`(?i)\b(?:pkr|rs\.?|crore|lakh|lac)\b`)
	// UnitToken matches area wording in card text
	UnitToken = regexp.MustCompile(`(?i)\b(?:marla|kanal|sq\.?\s*ft|sqft|square|sq\.?\s*yd|sqm)\b`)
	// ListingToken matches either
	ListingToken = regexp.MustCompile(CurrencyToken.String() + `|` + UnitToken.String())

	blockTags = "div, li, article, section"
)

// Heuristic is the generic structural fallback used when no pattern matches
type Heuristic struct {
	MinText int
	MaxText int
	// Require lists patterns that must all match the block's text
	Require []*regexp.Regexp
}

// DefaultHeuristic accepts 50-1000 char blocks with price or area wording
func DefaultHeuristic() Heuristic {
	return Heuristic{MinText: 50, MaxText: 1000, Require: []*regexp.Regexp{ListingToken}}
}

// Locator returns the cards of a page by first-matching pattern
type Locator struct {
	Patterns  []markup.Hint
	Heuristic Heuristic
	Limit     int
}

// Result is what Locate found and how
type Result struct {
	Cards    []*goquery.Selection
	Strategy string // hint description, "heuristic", or "" when nothing matched
}

// Locate tries each pattern in order and returns the matches of the first one
// that finds anything. Patterns are never merged. Without a match it falls back
// to scanning block elements with the heuristic.
func (l Locator) Locate(doc *goquery.Document) Result {
	limit := l.Limit
	if limit <= 0 {
		limit = MaxCards
	}

	for _, p := range l.Patterns {
		found := p.Find(doc.Selection)
		if found.Length() == 0 {
			continue
		}
		return Result{Cards: take(found, limit), Strategy: p.String()}
	}

	cards := l.scan(doc, limit)
	if len(cards) == 0 {
		return Result{}
	}
	return Result{Cards: cards, Strategy: "heuristic"}
}

func (l Locator) scan(doc *goquery.Document, limit int) []*goquery.Selection {
	h := l.Heuristic
	if h.MaxText == 0 {
		h = DefaultHeuristic()
	}

	var cards []*goquery.Selection
	doc.Find(blockTags).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := markup.Text(el)
		n := utf8.RuneCountInString(text)
		if n < h.MinText || n > h.MaxText {
			return true
		}
		for _, re := range h.Require {
			if !re.MatchString(text) {
				return true
			}
		}
		cards = append(cards, el)
		return len(cards) < limit
	})
	return cards
}

func take(s *goquery.Selection, limit int) []*goquery.Selection {
	n := s.Length()
	if n > limit {
		n = limit
	}
	out := make([]*goquery.Selection, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.Eq(i))
	}
	return out
}
