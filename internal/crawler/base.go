package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"sjsage522/estateworker/internal/fetch"
	"sjsage522/estateworker/services/cache"
	crawlerrors "sjsage522/estateworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// BaseCrawler provides page fetching shared by every site
type BaseCrawler struct {
	Provider  Source
	Referer   string
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	Fetcher   fetch.Fetcher
}

// blocked reports whether an earlier 429 put the site on hold
func (c *BaseCrawler) blocked() bool {
	if c.CacheSvc == nil || c.CacheKey == "" {
		return false
	}
	_, err := c.CacheSvc.Get(c.CacheKey)
	return err == nil
}

// fetchDocument fetches and parses one page. A 429 that survives the retry
// policy blocks the site for BlockTime.
func (c *BaseCrawler) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if c.blocked() {
		return nil, crawlerrors.NewRateLimit(string(c.Provider), c.BlockTime)
	}

	body, err := c.Fetcher.Fetch(ctx, pageURL, c.Referer)
	if err != nil {
		if crawlerrors.StatusCode(err) == http.StatusTooManyRequests && c.CacheSvc != nil && c.CacheKey != "" && c.BlockTime > 0 {
			c.CacheSvc.Set(c.CacheKey, []byte(fmt.Sprintf("%d", int(c.BlockTime/time.Second))), c.BlockTime)
		}
		return nil, err
	}

	return c.createDocument(body)
}

// createDocument parses a UTF-8 body into a goquery document
func (c *BaseCrawler) createDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, crawlerrors.NewMarkupParse(string(c.Provider), "failed to parse page", err)
	}
	return doc, nil
}
