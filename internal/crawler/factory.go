package crawler

import (
	"strings"
	"time"

	"sjsage522/estateworker/config"
	"sjsage522/estateworker/internal/fetch"
	"sjsage522/estateworker/internal/pacing"
	"sjsage522/estateworker/logger"
	"sjsage522/estateworker/services/cache"
)

// SiteConfigs returns the three site descriptions with cfg's origins,
// block time and per-source overrides applied.
func SiteConfigs(cfg *config.Config) ([]SiteConfig, error) {
	sites := []SiteConfig{
		Zameen(orDefault(cfg.ZameenURL, DefaultZameenOrigin)),
		Property1(orDefault(cfg.Property1URL, DefaultProperty1Origin)),
		OLX(orDefault(cfg.OLXURL, DefaultOLXOrigin)),
	}

	for i := range sites {
		if cfg.BlockTime > 0 {
			sites[i].BlockTime = cfg.BlockTime
		}
		o, ok := cfg.Sites[string(sites[i].Source)]
		if !ok {
			continue
		}
		sites[i].Pacing.Page = override(sites[i].Pacing.Page, o.PageDelayMin, o.PageDelayMax)
		sites[i].Pacing.Image = override(sites[i].Pacing.Image, o.ImageDelayMin, o.ImageDelayMax)
		if strings.TrimSpace(o.CategoryPolicy) != "" {
			policy, err := ParseCategoryPolicy(o.CategoryPolicy)
			if err != nil {
				return nil, err
			}
			sites[i].CategoryPolicy = policy
		}
	}
	return sites, nil
}

// CreateCrawlers creates one crawler per site, keyed by source. Detail pages
// are loaded with images, or with pages when images is nil.
func CreateCrawlers(cfg *config.Config, cacheSvc cache.CacheService, pages, images fetch.Fetcher) (map[Source]Crawler, error) {
	sites, err := SiteConfigs(cfg)
	if err != nil {
		return nil, err
	}

	crawlers := make(map[Source]Crawler, len(sites))
	for _, site := range sites {
		c, err := NewSiteCrawler(site, cacheSvc, pages)
		if err != nil {
			return nil, err
		}
		c.DetailFetcher = images
		if cfg.ImageCacheTTL > 0 {
			c.ImageTTL = cfg.ImageCacheTTL
		}
		crawlers[site.Source] = c

		logger.Debug("Created crawler %s for %s (%d cities)", c.GetName(), site.Origin, len(site.Cities))
	}
	return crawlers, nil
}

func override(iv pacing.Interval, lo, hi time.Duration) pacing.Interval {
	if lo > 0 {
		iv.Min = lo
		if iv.Max < lo {
			iv.Max = lo
		}
	}
	if hi > 0 {
		iv.Max = hi
	}
	return iv
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
