package internal

import (
	"sjsage522/estateworker/internal/fetch"
	"sjsage522/estateworker/services/cache"
	"sjsage522/estateworker/services/publisher"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher // nil when publishing is disabled
	Fetcher   fetch.Fetcher

	// ImageFetcher loads listing detail pages under the image timeout
	ImageFetcher fetch.Fetcher
}
