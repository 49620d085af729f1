package locator

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"sjsage522/estateworker/internal/markup"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>` + body + `</body></html>`))
	require.NoError(t, err)
	return d
}

func TestFirstMatchingPatternWins(t *testing.T) {
	d := doc(t, `
		<ul>
			<li role="article" class="card">one</li>
			<li role="article" class="card">two</li>
		</ul>
		<div class="property-card">three</div>`)

	l := Locator{Patterns: []markup.Hint{
		markup.Attr("li", "role", "^article$"),
		markup.Class("div", "card"),
	}}
	r := l.Locate(d)

	require.Len(t, r.Cards, 2)
	assert.Equal(t, "one", r.Cards[0].Text())
	assert.Equal(t, "two", r.Cards[1].Text())
	assert.Equal(t, "li[role~/^article$/]", r.Strategy)
}

func TestPatternsAreNotMerged(t *testing.T) {
	d := doc(t, `<div class="listing-card"><div class="card-body">x</div></div>`)
	l := Locator{Patterns: []markup.Hint{
		markup.Class("div", "listing-card"),
		markup.Class("div", "card"),
	}}
	r := l.Locate(d)
	assert.Len(t, r.Cards, 1)
}

func TestCardCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, `<article class="card">%d</article>`, i)
	}
	r := Locator{Patterns: []markup.Hint{markup.Class("article", "card")}}.Locate(doc(t, b.String()))
	assert.Len(t, r.Cards, MaxCards)
	assert.Equal(t, "0", r.Cards[0].Text())
}

func TestHeuristicFallback(t *testing.T) {
	long := strings.Repeat("lorem ipsum ", 100)
	d := doc(t, `
		<nav><div>PKR</div></nav>
		<section><div class="x">Beautiful 10 Marla house in DHA for sale, PKR 3.5 Crore, call the owner today</div></section>
		<div>`+long+` PKR 1 Crore</div>`)

	l := Locator{Patterns: []markup.Hint{markup.Class("div", "nothing-matches")}}
	r := l.Locate(d)

	assert.Equal(t, "heuristic", r.Strategy)
	require.NotEmpty(t, r.Cards)
	for _, c := range r.Cards {
		n := len([]rune(markup.Text(c)))
		assert.GreaterOrEqual(t, n, 50)
		assert.LessOrEqual(t, n, 1000)
	}
}

func TestHeuristicRequiresAllTokens(t *testing.T) {
	d := doc(t, `<div>Spacious apartment for rent at PKR 85,000 per month, furnished, near park</div>`)

	strict := Locator{Heuristic: Heuristic{
		MinText: 50, MaxText: 1000,
		Require: []*regexp.Regexp{CurrencyToken, UnitToken},
	}}
	assert.Empty(t, strict.Locate(d).Cards)

	loose := Locator{}
	assert.Len(t, loose.Locate(d).Cards, 1)
}

func TestNothingFound(t *testing.T) {
	r := Locator{}.Locate(doc(t, `<p>empty</p>`))
	assert.Empty(t, r.Cards)
	assert.Empty(t, r.Strategy)
}
