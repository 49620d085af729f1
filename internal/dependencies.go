package internal

import (
	"context"

	"sjsage522/estateworker/config"
	"sjsage522/estateworker/internal/fetch"
	"sjsage522/estateworker/internal/retry"
	"sjsage522/estateworker/logger"
	"sjsage522/estateworker/services/cache"
	"sjsage522/estateworker/services/publisher"
)

// NewDependencies wires the cache, publisher and fetchers described by cfg
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unreachable, using in-process cache")
			deps.Cache = cache.NewMemoryCache()
		} else {
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
			deps.Cache = mc
		}
	} else {
		deps.Cache = cache.NewMemoryCache()
	}

	if cfg.PublishListings {
		rp := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		if err := rp.Ping(ctx); err != nil {
			rp.Close()
			return nil, err
		}
		deps.Publisher = rp
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	deps.Fetcher = fetch.NewClient(
		fetch.WithTimeout(cfg.RequestTimeout),
		fetch.WithPolicy(RetryPolicy(cfg)),
		fetch.WithLogger(logger.ForSite("fetch")),
	)
	deps.ImageFetcher = fetch.NewClient(
		fetch.WithTimeout(cfg.ImageTimeout),
		fetch.WithPolicy(RetryPolicy(cfg)),
		fetch.WithLogger(logger.ForSite("fetch")),
	)
	return deps, nil
}

// RetryPolicy derives the page fetch policy from cfg
func RetryPolicy(cfg *config.Config) retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = cfg.RetryMaxAttempts
	p.InitialBackoff = cfg.RetryBackoff
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	return p
}

// Close releases the publisher connection
func (d *Dependencies) Close() {
	if d.Publisher != nil {
		d.Publisher.Close()
	}
}
