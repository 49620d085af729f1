package extract

import (
	"regexp"

	"sjsage522/estateworker/internal/markup"

	"github.com/PuerkitoBio/goquery"
)

// Sentinels mark a field the cascade could not fill. Callers must treat them
// as "no data", never as extracted values.
const (
	PriceUnknown = "price unknown"
	Unknown      = "unknown"
)

// Kind tags how a strategy reads the card
type Kind int

const (
	// Structural strategies read labeled sub-elements
	Structural Kind = iota
	// Pattern strategies run regexes over flattened card text
	Pattern
	// Fallback strategies apply looser heuristics
	Fallback
)

func (k Kind) String() string {
	switch k {
	case Structural:
		return "structural"
	case Pattern:
		return "pattern"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Card is the input every strategy reads from
type Card struct {
	Sel   *goquery.Selection
	Text  string // flattened visible text
	City  string // query city, used to reject uninformative locations
	Title string // set once the title cascade has run
}

// NewCard flattens sel once so regex strategies share the same text
func NewCard(sel *goquery.Selection, city string) Card {
	return Card{Sel: sel, Text: markup.Text(sel), City: city}
}

// Strategy is one step of a cascade
type Strategy struct {
	Name string
	Kind Kind
	Run  func(Card) (string, bool)
}

// Result is the outcome of a cascade. Matched is false when the sentinel was used.
type Result struct {
	Value    string
	Strategy string
	Matched  bool
}

// Cascade evaluates strategies in order and stops at the first success
type Cascade struct {
	Field      string
	Strategies []Strategy
	Sentinel   string
}

// Resolve runs the cascade against card
func (c Cascade) Resolve(card Card) Result {
	for _, s := range c.Strategies {
		if s.Run == nil {
			continue
		}
		if v, ok := s.Run(card); ok && v != "" {
			return Result{Value: v, Strategy: s.Name, Matched: true}
		}
	}
	return Result{Value: c.Sentinel}
}

// Labeled reads the first hinted sub-element whose text normalize accepts
func Labeled(name string, hints []markup.Hint, normalize func(string) (string, bool)) Strategy {
	return Strategy{
		Name: name,
		Kind: Structural,
		Run: func(c Card) (string, bool) {
			if c.Sel == nil {
				return "", false
			}
			return markup.FirstText(c.Sel, hints, normalize)
		},
	}
}

// Matcher turns regex submatches into a field value; ok=false rejects the match
type Matcher func(c Card, groups []string) (string, bool)

// TextPattern runs patterns in order over the card text, trying every match
// of a pattern before moving on to the next one.
func TextPattern(name string, patterns []*regexp.Regexp, match Matcher) Strategy {
	return Strategy{
		Name: name,
		Kind: Pattern,
		Run: func(c Card) (string, bool) {
			return firstMatch(c, c.Text, patterns, match)
		},
	}
}

// TitlePattern runs patterns over the already-extracted title
func TitlePattern(name string, patterns []*regexp.Regexp, match Matcher) Strategy {
	return Strategy{
		Name: name,
		Kind: Fallback,
		Run: func(c Card) (string, bool) {
			return firstMatch(c, c.Title, patterns, match)
		},
	}
}

func firstMatch(c Card, text string, patterns []*regexp.Regexp, match Matcher) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, re := range patterns {
		for _, groups := range re.FindAllStringSubmatch(text, -1) {
			if v, ok := match(c, groups); ok && v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// Fields bundles the per-field cascades one site uses
type Fields struct {
	Title    Cascade
	Price    Cascade
	Area     Cascade
	Location Cascade
	Beds     Cascade
	Baths    Cascade
}

// DefaultFields returns cascades tuned for Pakistani listing markup
func DefaultFields() Fields {
	return Fields{
		Title:    TitleCascade(DefaultTitleHints),
		Price:    PriceCascade(DefaultPriceHints),
		Area:     AreaCascade(DefaultAreaHints),
		Location: LocationCascade(DefaultLocationHints),
		Beds:     BedsCascade(),
		Baths:    BathsCascade(),
	}
}
