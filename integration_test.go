package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"sjsage522/estateworker/config"
	"sjsage522/estateworker/internal"
	"sjsage522/estateworker/internal/crawler"
	"sjsage522/estateworker/internal/fetch"
	"sjsage522/estateworker/internal/server"
	"sjsage522/estateworker/logger"
	"sjsage522/estateworker/services/cache"
	"sjsage522/estateworker/services/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeImage stands in for a listing photo
var fakeImage = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

const resultsPage = `<!DOCTYPE html>
<html>
<head><title>Houses for sale in Lahore</title></head>
<body>
  <ul>
    <li role="article">
      <a href="/Property/dha_phase_6-101.html"><h2>Beautiful 10 Marla House in DHA Phase 6</h2></a>
      <span class="price">PKR 3.5 Crore</span>
      <span class="area">10 Marla</span>
      <div class="location">DHA Phase 6, Lahore</div>
      <img src="/img/101.jpg" alt="house">
    </li>
    <li role="article">
      <a href="/Property/bahria_town-102.html"><h2>Brand New 5 Marla House in Bahria Town</h2></a>
      <span class="price">PKR 1.65 Crore</span>
      <span class="area">5 Marla</span>
      <div class="location">Bahria Town, Lahore</div>
    </li>
    <li role="article">
      <a href="/Property/johar_town-103.html"><h2>Plot without a price</h2></a>
      <span class="area">1 Kanal</span>
    </li>
  </ul>
</body>
</html>`

// newFakeSite serves a zameen-shaped site over TLS. Karachi always answers 429.
func newFakeSite(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch {
		case r.URL.Path == "/Homes/Lahore-1-1.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			io.WriteString(w, resultsPage)
		case strings.HasPrefix(r.URL.Path, "/Homes/Karachi"):
			w.WriteHeader(http.StatusTooManyRequests)
		case r.URL.Path == "/img/101.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write(fakeImage)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// newApp wires the real stack against the fake site and returns the API server
func newApp(t *testing.T, site *httptest.Server) *httptest.Server {
	t.Helper()
	logger.InitWithWriter(io.Discard)

	t.Setenv("ZAMEEN_URL", site.URL)
	t.Setenv("RETRY_MAX_ATTEMPTS", "1")
	t.Setenv("RETRY_BACKOFF_MS", "1")
	t.Setenv("TARGET_COOLDOWN_SECONDS", "0")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("SITES_FILE", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	// the fake site's client trusts its self-signed certificate
	fetcher := fetch.NewClient(
		fetch.WithHTTPClient(site.Client()),
		fetch.WithTimeout(cfg.RequestTimeout),
		fetch.WithPolicy(internal.RetryPolicy(cfg)),
	)
	crawlers, err := crawler.CreateCrawlers(cfg, cache.NewMemoryCache(), fetcher, nil)
	require.NoError(t, err)

	orch := orchestrator.New(crawlers, nil, cfg.TargetCooldown)
	api := httptest.NewServer(server.New(orch, server.Options{
		MaxPages:    cfg.MaxPages,
		ImageClient: site.Client(),
	}).Handler())
	t.Cleanup(api.Close)
	return api
}

type scrapeBody struct {
	Success    bool              `json:"success"`
	Source     string            `json:"source"`
	City       string            `json:"city"`
	Total      int               `json:"total"`
	Properties []crawler.Listing `json:"properties"`
	Error      string            `json:"error"`
}

func scrape(t *testing.T, api *httptest.Server, body string) (int, scrapeBody) {
	t.Helper()
	resp, err := http.Post(api.URL+"/scrape", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out scrapeBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestIntegration(t *testing.T) {
	site, _ := newFakeSite(t)
	api := newApp(t, site)

	status, body := scrape(t, api, `{"source":"zameen","city":"lahore","pages":1}`)
	require.Equal(t, http.StatusOK, status, body.Error)
	assert.True(t, body.Success)
	assert.Equal(t, "zameen", body.Source)
	assert.Equal(t, "Lahore", body.City)
	assert.Equal(t, 2, body.Total)
	require.Len(t, body.Properties, 2)

	first := body.Properties[0]
	assert.Equal(t, "Beautiful 10 Marla House in DHA Phase 6", first.Title)
	assert.Equal(t, "PKR 3.5 Crore", first.Price)
	assert.Equal(t, "10 Marla", first.Area)
	assert.Equal(t, "DHA Phase 6, Lahore", first.Location)
	assert.Equal(t, site.URL+"/Property/dha_phase_6-101.html", first.URL)
	assert.Equal(t, site.URL+"/img/101.jpg", first.Image)
	assert.Equal(t, "Lahore", first.City)
	assert.Equal(t, crawler.SourceZameen, first.Source)

	second := body.Properties[1]
	assert.Equal(t, "Brand New 5 Marla House in Bahria Town", second.Title)
	assert.Empty(t, second.Image)

	t.Run("image relay", func(t *testing.T) {
		resp, err := http.Get(api.URL + "/image-proxy?url=" + url.QueryEscape(first.Image))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, fakeImage, data)
	})

	t.Run("cities", func(t *testing.T) {
		resp, err := http.Get(api.URL + "/cities")
		require.NoError(t, err)
		defer resp.Body.Close()

		var cities map[string][]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&cities))
		for _, src := range crawler.Sources {
			assert.Len(t, cities[string(src)], 4, src)
		}
	})

	t.Run("unknown city", func(t *testing.T) {
		status, body := scrape(t, api, `{"source":"zameen","city":"Atlantis"}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.False(t, body.Success)
	})
}

func TestIntegrationRateLimitBlocksSite(t *testing.T) {
	site, hits := newFakeSite(t)
	api := newApp(t, site)

	status, body := scrape(t, api, `{"source":"zameen","city":"Karachi","pages":3}`)
	require.Equal(t, http.StatusOK, status, body.Error)
	assert.Empty(t, body.Properties)
	// the first 429 blocks the site, so pages 2 and 3 are never fetched
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))

	status, body = scrape(t, api, `{"source":"zameen","city":"Lahore"}`)
	require.Equal(t, http.StatusOK, status, body.Error)
	assert.Empty(t, body.Properties, fmt.Sprintf("blocked site returned %d listings", body.Total))
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}
