package markup

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestTextSeparatesElements(t *testing.T) {
	doc := parse(t, `<div><h2>House</h2><span>PKR 1</span><script>var x=1</script></div>`)
	assert.Equal(t, "House PKR 1", Text(doc.Find("div")))
}

func TestClassHintIsCaseInsensitive(t *testing.T) {
	doc := parse(t, `<div><span class="Listing-Price">1 Crore</span><span class="other">x</span></div>`)
	h := Class("span", "price")
	assert.Equal(t, 1, h.Find(doc.Selection).Length())
	assert.Equal(t, "span[class~/price/]", h.String())
}

func TestAttrHintPresenceOnly(t *testing.T) {
	doc := parse(t, `<div data-rtcl-listing="1">a</div><div>b</div>`)
	h := Attr("div", "data-rtcl-listing", "")
	assert.Equal(t, 1, h.Find(doc.Selection).Length())
	assert.Equal(t, "div[data-rtcl-listing]", h.String())
}

func TestFirstTextHonoursOrderAndAccept(t *testing.T) {
	doc := parse(t, `<div>
		<div class="price">call us</div>
		<span class="amount">PKR 95 Lakh</span>
		<span aria-label="Price">1.1 Crore</span>
	</div>`)
	hints := []Hint{Class("div", "price"), Class("span", "amount"), Attr("span", "aria-label", "^price$")}

	got, ok := FirstText(doc.Selection, hints, func(s string) (string, bool) {
		return s, strings.Contains(s, "PKR") || strings.Contains(s, "Crore")
	})
	assert.True(t, ok)
	assert.Equal(t, "PKR 95 Lakh", got)

	got, ok = FirstText(doc.Selection, hints, func(s string) (string, bool) {
		return strings.ToUpper(s), strings.Contains(s, "Crore")
	})
	assert.True(t, ok)
	assert.Equal(t, "1.1 CRORE", got)

	_, ok = FirstText(doc.Selection, hints, func(string) (string, bool) { return "", false })
	assert.False(t, ok)
}

func TestTagHint(t *testing.T) {
	doc := parse(t, `<div><h2>One</h2><h2 class="x">Two</h2></div>`)
	h := Tag("h2")
	assert.Equal(t, 2, h.Find(doc.Selection).Length())
	assert.Equal(t, "h2", h.String())
}
