package helpers

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"
)

// Browser identities rotated per request
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// relayReferers maps image hosts to the referer their CDNs expect
var relayReferers = []struct {
	domain  string
	referer string
}{
	{"zameen.com", "https://www.zameen.com/"},
	{"property1.pk", "https://www.property1.pk/"},
	{"olx.com.pk", "https://www.olx.com.pk/"},
}

const defaultReferer = "https://www.google.com/"

// RandomUserAgent returns one of the rotated browser user agents
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// SetPageHeaders sets browser-like headers for an HTML page request
func SetPageHeaders(h http.Header, referer string) {
	if referer == "" {
		referer = defaultReferer
	}
	h.Set("User-Agent", RandomUserAgent())
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Referer", referer)
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "same-origin")
}

// SetImageHeaders sets headers for an image relay request
func SetImageHeaders(h http.Header, referer string) {
	h.Set("User-Agent", RandomUserAgent())
	h.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	h.Set("Referer", referer)
}

// RefererFor picks the referer an image host expects, falling back to a search engine
func RefererFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultReferer
	}
	host := strings.ToLower(u.Hostname())
	for _, r := range relayReferers {
		if host == r.domain || strings.HasSuffix(host, "."+r.domain) {
			return r.referer
		}
	}
	return defaultReferer
}

// DecodeBody converts a response body to UTF-8 based on the Content-Type header
// and any meta charset in the body.
func DecodeBody(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if strings.EqualFold(name, "utf-8") {
		return body, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, fmt.Errorf("failed to convert body from %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
