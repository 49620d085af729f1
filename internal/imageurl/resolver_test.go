package imageurl

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"sjsage522/estateworker/internal/pacing"
	"sjsage522/estateworker/services/cache"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL, _ string) ([]byte, error) {
	f.calls = append(f.calls, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(body), nil
}

func origin(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("https://www.zameen.com")
	require.NoError(t, err)
	return u
}

func selection(t *testing.T, src string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>` + src + `</body></html>`))
	require.NoError(t, err)
	return doc.Find("body").Children().First()
}

func TestNormalize(t *testing.T) {
	o := origin(t)
	cases := map[string]string{
		"//media.zameen.com/a.jpg":        "https://media.zameen.com/a.jpg",
		"/thumbnails/1-400x300.jpeg":      "https://www.zameen.com/thumbnails/1-400x300.jpeg",
		"http://cdn.example.com/b.png":    "https://cdn.example.com/b.png",
		"https://cdn.example.com/c.webp":  "https://cdn.example.com/c.webp",
		"images/d.jpg":                    "https://www.zameen.com/images/d.jpg",
	}
	for raw, want := range cases {
		got, ok := Normalize(raw, o)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, bad := range []string{"", "  ", "data:image/gif;base64,R0lGOD", "javascript:void(0)"} {
		_, ok := Normalize(bad, o)
		assert.False(t, ok, bad)
	}
}

func TestNormalizedNeverRelative(t *testing.T) {
	o := origin(t)
	for _, raw := range []string{"//x.com/a.jpg", "/a.jpg", "a.jpg", "./a.jpg", "../a.jpg"} {
		got, ok := Normalize(raw, o)
		require.True(t, ok, raw)
		assert.True(t, strings.HasPrefix(got, "https://"), got)
		assert.False(t, strings.HasPrefix(got, "//"))
		assert.False(t, strings.HasPrefix(got, "/"))
	}
}

func TestInlineSkipsIconsAndReadsLazyAttrs(t *testing.T) {
	r := NewResolver(origin(t))
	card := selection(t, `<div>
		<img src="/static/logo.png">
		<img src="data:image/gif;base64,AAAA" data-src="//media.zameen.com/thumbnails/9-400x300.jpeg">
	</div>`)

	u, strategy, ok := r.FromCard(card)
	assert.True(t, ok)
	assert.Equal(t, "inline", strategy)
	assert.Equal(t, "https://media.zameen.com/thumbnails/9-400x300.jpeg", u)
}

func TestInlineSrcsetFirstCandidate(t *testing.T) {
	r := NewResolver(origin(t))
	card := selection(t, `<div><picture><source srcset="/a-800.webp 800w, /a-400.webp 400w"></picture></div>`)

	u, _, ok := r.FromCard(card)
	assert.True(t, ok)
	assert.Equal(t, "https://www.zameen.com/a-800.webp", u)
}

func TestStyleMetadataAndLinkedFallbacks(t *testing.T) {
	r := NewResolver(origin(t))

	u, strategy, ok := r.FromCard(selection(t, `<div><div style="width:10px; background-image: url('/bg/house.jpg')"></div></div>`))
	assert.True(t, ok)
	assert.Equal(t, "style", strategy)
	assert.Equal(t, "https://www.zameen.com/bg/house.jpg", u)

	u, strategy, ok = r.FromCard(selection(t, `<div><meta property="og:image" content="https://cdn.example.com/og.jpg"></div>`))
	assert.True(t, ok)
	assert.Equal(t, "metadata", strategy)
	assert.Equal(t, "https://cdn.example.com/og.jpg", u)

	u, strategy, ok = r.FromCard(selection(t, `<div><a href="/listing/1">x</a><a href="/photos/1.JPG">photo</a></div>`))
	assert.True(t, ok)
	assert.Equal(t, "linked", strategy)
	assert.Equal(t, "https://www.zameen.com/photos/1.JPG", u)

	_, _, ok = r.FromCard(selection(t, `<div><img src="/img/placeholder.png"></div>`))
	assert.False(t, ok)
}

func TestResolveFetchesDetailPageOnce(t *testing.T) {
	r := NewResolver(origin(t))
	f := &fakeFetcher{pages: map[string]string{
		"https://www.zameen.com/Property/1.html": `<html><head>
			<meta property="og:image" content="https://media.zameen.com/og.jpg">
		</head><body>
			<div class="gallery-wrap"><img data-src="/gallery/1.jpg"></div>
		</body></html>`,
	}}
	c := cache.NewMemoryCache()
	d := &DetailLookup{Fetcher: f, Cache: c}

	card := selection(t, `<div><h2>No photo here</h2></div>`)
	u, ok := r.Resolve(context.Background(), card, "https://www.zameen.com/Property/1.html", d)
	assert.True(t, ok)
	assert.Equal(t, "https://www.zameen.com/gallery/1.jpg", u)
	assert.Len(t, f.calls, 1)

	// a second resolution is answered from the cache
	u, ok = r.Resolve(context.Background(), card, "https://www.zameen.com/Property/1.html", d)
	assert.True(t, ok)
	assert.Equal(t, "https://www.zameen.com/gallery/1.jpg", u)
	assert.Len(t, f.calls, 1)
}

func TestResolveDetailFailureIsContained(t *testing.T) {
	r := NewResolver(origin(t))
	f := &fakeFetcher{pages: map[string]string{}}
	d := &DetailLookup{Fetcher: f}

	_, ok := r.Resolve(context.Background(), selection(t, `<div></div>`), "https://www.zameen.com/Property/404.html", d)
	assert.False(t, ok)
	assert.Len(t, f.calls, 1)
}

func TestResolveSkipsDetailWhenCardHasImage(t *testing.T) {
	r := NewResolver(origin(t))
	f := &fakeFetcher{}
	d := &DetailLookup{Fetcher: f}

	u, ok := r.Resolve(context.Background(), selection(t, `<div><img src="/a.jpg"></div>`), "https://www.zameen.com/Property/1.html", d)
	assert.True(t, ok)
	assert.Equal(t, "https://www.zameen.com/a.jpg", u)
	assert.Empty(t, f.calls)
}

// slowFetcher takes delay per fetch and records when each one starts and ends
type slowFetcher struct {
	fakeFetcher
	delay  time.Duration
	starts []time.Time
	ends   []time.Time
}

func (f *slowFetcher) Fetch(ctx context.Context, rawURL, referer string) ([]byte, error) {
	f.starts = append(f.starts, time.Now())
	time.Sleep(f.delay)
	body, err := f.fakeFetcher.Fetch(ctx, rawURL, referer)
	f.ends = append(f.ends, time.Now())
	return body, err
}

func TestDetailLookupGapFollowsSlowFetch(t *testing.T) {
	r := NewResolver(origin(t))
	f := &slowFetcher{delay: 150 * time.Millisecond}
	d := &DetailLookup{Fetcher: f, Pacer: pacing.New(pacing.Fixed(100 * time.Millisecond))}

	card := selection(t, `<div></div>`)
	r.Resolve(context.Background(), card, "https://www.zameen.com/Property/1.html", d)
	r.Resolve(context.Background(), card, "https://www.zameen.com/Property/2.html", d)

	require.Len(t, f.starts, 2)
	idle := f.starts[1].Sub(f.ends[0])
	assert.GreaterOrEqual(t, idle, 90*time.Millisecond)
}
