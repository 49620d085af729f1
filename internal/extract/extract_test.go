package extract

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(t *testing.T, src, city string) Card {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>` + src + `</body></html>`))
	require.NoError(t, err)
	return NewCard(doc.Find("body").Children().First(), city)
}

func TestStructuralPriceWinsOverPattern(t *testing.T) {
	c := card(t, `<div>
		<p>PKR 1.2 Crore ... 5 Marla ... 3 Bed 2 Bath</p>
		<span class="price">1.2 Crore</span>
	</div>`, "Lahore")
	f := DefaultFields()

	price := f.Price.Resolve(c)
	assert.Equal(t, "1.2 Crore", price.Value)
	assert.Equal(t, "price-label", price.Strategy)
	assert.True(t, price.Matched)

	assert.Equal(t, "5 Marla", f.Area.Resolve(c).Value)
	assert.Equal(t, "3 Beds", f.Beds.Resolve(c).Value)
	assert.Equal(t, "2 Baths", f.Baths.Resolve(c).Value)
}

func TestPricePatterns(t *testing.T) {
	cases := map[string]string{
		`<div>Rs. 45,000 per month</div>`:        "PKR 45,000",
		`<div>PKR 2.5 crore negotiable</div>`:    "PKR 2.5 Crore",
		`<div>Demand 95 Lakh PKR, urgent</div>`:  "PKR 95 Lakh",
		`<div>Floors 2 and a roof</div>`:          PriceUnknown,
		`<div>Price on request, call now</div>`:   PriceUnknown,
		`<div><span class="price">Call</span> 1.1 Arab</div>`: "PKR 1.1 Arab",
	}
	f := DefaultFields()
	for src, want := range cases {
		assert.Equal(t, want, f.Price.Resolve(card(t, src, "")).Value, src)
	}
}

func TestPriceSentinelIsUnmatched(t *testing.T) {
	r := DefaultFields().Price.Resolve(card(t, `<div>nothing here</div>`, ""))
	assert.False(t, r.Matched)
	assert.Equal(t, PriceUnknown, r.Value)
	assert.Empty(t, r.Strategy)
}

func TestAreaPatterns(t *testing.T) {
	cases := map[string]string{
		`<div>Plot 5-7 Marla in scheme</div>`:  "5-7 Marla",
		`<div>1 Kanal house</div>`:             "1 Kanal",
		`<div>Covered 1,250 Sq. Ft. flat</div>`: "1,250 Sq. Ft.",
		`<div>Apartment 120 sqm</div>`:          "120 Sq. M.",
		`<div>200 Square Yards bungalow</div>`:  "200 Sq. Yd.",
		`<div>No size given</div>`:              Unknown,
	}
	f := DefaultFields()
	for src, want := range cases {
		assert.Equal(t, want, f.Area.Resolve(card(t, src, "")).Value, src)
	}
}

func TestAreaFallsBackToTitle(t *testing.T) {
	c := card(t, `<div>Contact agent</div>`, "")
	c.Title = "10 Marla Brand New House"
	r := DefaultFields().Area.Resolve(c)
	assert.Equal(t, "10 Marla", r.Value)
	assert.Equal(t, "area-title", r.Strategy)
}

func TestAreaLabel(t *testing.T) {
	c := card(t, `<div><span aria-label="Area"><span>8 Marla</span></span> also 10 Marla</div>`, "")
	r := DefaultFields().Area.Resolve(c)
	assert.Equal(t, "8 Marla", r.Value)
	assert.Equal(t, "area-label", r.Strategy)
}

func TestLocationRejectsQueryCity(t *testing.T) {
	f := DefaultFields()

	c := card(t, `<div><span class="location">Lahore</span> House in Lahore</div>`, "Lahore")
	assert.Equal(t, Unknown, f.Location.Resolve(c).Value)

	c = card(t, `<div><span class="location">Lahore</span> House in DHA Phase 6</div>`, "Lahore")
	assert.Equal(t, "DHA Phase 6", f.Location.Resolve(c).Value)

	c = card(t, `<div><div class="listing-location">Bahria Town, Lahore</div></div>`, "Lahore")
	assert.Equal(t, "Bahria Town, Lahore", f.Location.Resolve(c).Value)
}

func TestLocationSuffixPattern(t *testing.T) {
	c := card(t, `<div>brand new corner plot near Bahria Town with park</div>`, "Rawalpindi")
	r := DefaultFields().Location.Resolve(c)
	assert.Equal(t, "Bahria Town", r.Value)
	assert.Equal(t, "location-pattern", r.Strategy)
}

func TestLocationRejectsDigits(t *testing.T) {
	c := card(t, `<div><span class="address">12345</span></div>`, "Karachi")
	assert.Equal(t, Unknown, DefaultFields().Location.Resolve(c).Value)
}

func TestRooms(t *testing.T) {
	f := DefaultFields()
	c := card(t, `<div>1 Bedroom 1 Bathroom flat</div>`, "")
	assert.Equal(t, "1 Bed", f.Beds.Resolve(c).Value)
	assert.Equal(t, "1 Bath", f.Baths.Resolve(c).Value)

	c = card(t, `<div><span aria-label="Beds">4</span><span aria-label="Baths">5</span></div>`, "")
	assert.Equal(t, "4 Beds", f.Beds.Resolve(c).Value)
	assert.Equal(t, "5 Baths", f.Baths.Resolve(c).Value)

	c = card(t, `<div>Plot for sale</div>`, "")
	assert.Equal(t, Unknown, f.Beds.Resolve(c).Value)
	assert.Equal(t, Unknown, f.Baths.Resolve(c).Value)
}

func TestTitleCascade(t *testing.T) {
	f := DefaultFields()

	c := card(t, `<div><h2>10 Marla House for Sale</h2><h3>Another heading here</h3></div>`, "")
	assert.Equal(t, "10 Marla House for Sale", f.Title.Resolve(c).Value)

	c = card(t, `<div><a title="Corner plot in Gulberg" href="/x">x</a></div>`, "")
	assert.Equal(t, "Corner plot in Gulberg", f.Title.Resolve(c).Value)

	c = card(t, `<div><p>PKR 2 Crore. Spacious house with lawn for sale. Call now</p></div>`, "")
	r := f.Title.Resolve(c)
	assert.Equal(t, "Spacious house with lawn for sale", r.Value)
	assert.Equal(t, "title-sentence", r.Strategy)

	c = card(t, `<div><h3>Villa 7</h3></div>`, "")
	assert.Equal(t, "Villa 7", f.Title.Resolve(c).Value)

	c = card(t, `<div><span>x</span></div>`, "")
	r = f.Title.Resolve(c)
	assert.False(t, r.Matched)
	assert.Empty(t, r.Value)
}

func TestCanonicalLink(t *testing.T) {
	base, _ := url.Parse("https://www.zameen.com/Homes/Lahore-1-1.html")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div>
		<a href="javascript:void(0)">x</a>
		<a href="/agents/12">agent</a>
		<a href="/Property/dha_phase_6-123.html#gallery">listing</a>
	</div>`))
	require.NoError(t, err)

	link, ok := CanonicalLink(doc.Find("div"), base, PathContains("/property/", "/homes/"))
	assert.True(t, ok)
	assert.Equal(t, "https://www.zameen.com/Property/dha_phase_6-123.html", link)

	_, ok = CanonicalLink(doc.Find("div"), base, PathContains("/nothing/"))
	assert.False(t, ok)
}

func TestCanonicalLinkOnAnchorCard(t *testing.T) {
	base, _ := url.Parse("https://www.olx.com.pk/")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<a href="//www.olx.com.pk/item/house-iid-1"><h2>x</h2></a>`))
	require.NoError(t, err)

	link, ok := CanonicalLink(doc.Find("a"), base, SameSite("olx.com.pk"))
	assert.True(t, ok)
	assert.Equal(t, "https://www.olx.com.pk/item/house-iid-1", link)
}

func TestResolve(t *testing.T) {
	base, _ := url.Parse("https://www.property1.pk/all-properties/")
	u, ok := Resolve(base, "../listing/abc/")
	assert.True(t, ok)
	assert.Equal(t, "https://www.property1.pk/listing/abc/", u.String())

	for _, bad := range []string{"", "#top", "mailto:a@b.c", "tel:123", "ftp://x/y"} {
		_, ok := Resolve(base, bad)
		assert.False(t, ok, bad)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "structural", Structural.String())
	assert.Equal(t, "pattern", Pattern.String())
	assert.Equal(t, "fallback", Fallback.String())
}
