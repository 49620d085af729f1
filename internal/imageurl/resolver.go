// Package imageurl finds a representative photo for a listing card, falling
// back to one fetch of the listing's detail page.
package imageurl

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"time"

	"sjsage522/estateworker/internal/fetch"
	"sjsage522/estateworker/internal/pacing"
	"sjsage522/estateworker/logger"
	"sjsage522/estateworker/services/cache"

	"github.com/PuerkitoBio/goquery"
)

// lazyAttrs lists image-bearing attributes in preference order
var lazyAttrs = []string{
	"src", "data-src", "data-lazy-src", "data-original", "data-url", "data-image",
	"data-img", "data-srcset", "srcset", "data-default", "data-lazy", "data-echo",
}

var styleURL = regexp.MustCompile(`(?i)background(?:-image)?\s*:[^;]*?url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

var metaSelectors = []string{
	`meta[property="og:image"]`,
	`meta[property="og:image:url"]`,
	`meta[itemprop="image"]`,
	`meta[name="twitter:image"]`,
	`link[rel="image_src"]`,
}

var gallerySelectors = []string{
	`div[class*="swiper"] img`,
	`div[class*="gallery"] img`,
	`div[class*="slider"] img`,
	`div[class*="carousel"] img`,
	`img[class*="image"]`,
	`img[class*="photo"]`,
}

// maxDetailImages bounds the generic <img> scan on a detail page
const maxDetailImages = 10

// Strategy is one named image lookup over a subtree
type Strategy struct {
	Name string
	Run  func(*goquery.Selection) (string, bool)
}

// Resolver runs the image cascade for one site origin
type Resolver struct {
	origin *url.URL
	card   []Strategy
	detail []Strategy
}

// NewResolver creates a resolver that rewrites relative URLs against origin
func NewResolver(origin *url.URL) *Resolver {
	r := &Resolver{origin: origin}
	r.card = []Strategy{
		{Name: "inline", Run: func(s *goquery.Selection) (string, bool) { return r.inline(s.Find("img, source"), 0) }},
		{Name: "style", Run: r.style},
		{Name: "metadata", Run: r.metadata},
		{Name: "linked", Run: r.linked},
	}
	r.detail = []Strategy{
		{Name: "detail-gallery", Run: r.gallery},
		{Name: "detail-metadata", Run: r.metadata},
		{Name: "detail-inline", Run: func(s *goquery.Selection) (string, bool) { return r.inline(s.Find("img"), maxDetailImages) }},
		{Name: "detail-style", Run: r.style},
	}
	return r
}

// FromCard runs the card strategies and reports which one matched
func (r *Resolver) FromCard(card *goquery.Selection) (string, string, bool) {
	return run(r.card, card)
}

// FromDetail runs the detail-page strategies over a fetched listing page
func (r *Resolver) FromDetail(doc *goquery.Document) (string, string, bool) {
	return run(r.detail, doc.Selection)
}

// Resolve returns the card's image, consulting detail for one secondary fetch
// of detailURL when the card itself carries none. detail may be nil.
func (r *Resolver) Resolve(ctx context.Context, card *goquery.Selection, detailURL string, detail *DetailLookup) (string, bool) {
	if u, _, ok := r.FromCard(card); ok {
		return u, true
	}
	if detail == nil || detailURL == "" {
		return "", false
	}
	return detail.Lookup(ctx, r, detailURL)
}

func run(strategies []Strategy, s *goquery.Selection) (string, string, bool) {
	for _, st := range strategies {
		if u, ok := st.Run(s); ok {
			return u, st.Name, true
		}
	}
	return "", "", false
}

func (r *Resolver) accept(raw string) (string, bool) {
	u, ok := Normalize(raw, r.origin)
	if !ok || !Acceptable(u) {
		return "", false
	}
	return u, true
}

func (r *Resolver) inline(imgs *goquery.Selection, limit int) (string, bool) {
	var found string
	imgs.EachWithBreak(func(i int, img *goquery.Selection) bool {
		if limit > 0 && i >= limit {
			return false
		}
		for _, attr := range lazyAttrs {
			v, ok := img.Attr(attr)
			if !ok {
				continue
			}
			if attr == "srcset" || attr == "data-srcset" {
				v = firstSrcset(v)
			}
			if u, ok := r.accept(v); ok {
				found = u
				return false
			}
		}
		return true
	})
	return found, found != ""
}

func (r *Resolver) style(s *goquery.Selection) (string, bool) {
	var found string
	s.Find("[style]").AddSelection(s.Filter("[style]")).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		style, _ := el.Attr("style")
		for _, m := range styleURL.FindAllStringSubmatch(style, -1) {
			if u, ok := r.accept(m[1]); ok {
				found = u
				return false
			}
		}
		return true
	})
	return found, found != ""
}

func (r *Resolver) metadata(s *goquery.Selection) (string, bool) {
	for _, sel := range metaSelectors {
		var found string
		s.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			v, ok := el.Attr("content")
			if !ok {
				v, _ = el.Attr("href")
			}
			if u, ok := r.accept(v); ok {
				found = u
				return false
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

func (r *Resolver) linked(s *goquery.Selection) (string, bool) {
	var found string
	s.Find("a[href]").AddSelection(s.Filter("a[href]")).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if u, ok := r.accept(href); ok && HasImageExtension(u) {
			found = u
			return false
		}
		return true
	})
	return found, found != ""
}

func (r *Resolver) gallery(s *goquery.Selection) (string, bool) {
	for _, sel := range gallerySelectors {
		if u, ok := r.inline(s.Find(sel), 0); ok {
			return u, true
		}
	}
	return "", false
}

// DetailLookup performs the paced secondary fetch of a listing page
type DetailLookup struct {
	Fetcher  fetch.Fetcher
	Pacer    *pacing.Pacer
	Cache    cache.CacheService
	CacheTTL time.Duration
	Referer  string
	Log      *logger.Logger
}

// Lookup fetches detailURL once and runs the detail strategies over it.
// Failures are logged and reported as no image.
func (d *DetailLookup) Lookup(ctx context.Context, r *Resolver, detailURL string) (string, bool) {
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}

	key := cache.Key("detail-image", detailURL)
	if d.Cache != nil {
		if v, err := d.Cache.Get(key); err == nil && len(v) > 0 {
			return string(v), true
		}
	}

	if d.Pacer != nil {
		if err := d.Pacer.Wait(ctx); err != nil {
			return "", false
		}
	}

	body, err := d.Fetcher.Fetch(ctx, detailURL, d.Referer)
	if d.Pacer != nil {
		d.Pacer.Done()
	}
	if err != nil {
		log.Warn().Err(err).Str("url", detailURL).Msg("Detail page fetch failed")
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Str("url", detailURL).Msg("Detail page parse failed")
		return "", false
	}

	u, strategy, ok := r.FromDetail(doc)
	if !ok {
		log.Debug().Str("url", detailURL).Msg("No image on detail page")
		return "", false
	}
	log.Debug().Str("url", detailURL).Str("strategy", strategy).Msg("Resolved detail image")

	if d.Cache != nil {
		if err := d.Cache.Set(key, []byte(u), d.CacheTTL); err != nil {
			log.Debug().Err(err).Msg("Failed to cache detail image")
		}
	}
	return u, true
}
