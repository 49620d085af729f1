package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	crawlerrors "sjsage522/estateworker/pkg/errors"

	"gopkg.in/yaml.v2"
)

// Config represents the application configuration
type Config struct {
	// HTTP front-end
	HTTPAddr string

	// Fetching
	RequestTimeout   time.Duration
	ImageTimeout     time.Duration
	RetryMaxAttempts int
	RetryBackoff     time.Duration
	BlockTime        time.Duration

	// Orchestration
	TargetCooldown time.Duration
	MaxPages       int

	// Memcache configuration; empty means an in-process cache
	MemcacheAddr  string
	ImageCacheTTL time.Duration

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int64
	PublishListings      bool

	// Sinks
	PostgresDSN string
	OutputDir   string

	// Site origins
	ZameenURL    string
	Property1URL string
	OLXURL       string

	// Per-source overrides read from SitesFile
	SitesFile string
	Sites     map[string]SiteOverride

	// Environment
	Environment string
}

// SiteOverride tunes one source's pacing and category handling
type SiteOverride struct {
	PageDelayMin   time.Duration `yaml:"page_delay_min"`
	PageDelayMax   time.Duration `yaml:"page_delay_max"`
	ImageDelayMin  time.Duration `yaml:"image_delay_min"`
	ImageDelayMax  time.Duration `yaml:"image_delay_max"`
	CategoryPolicy string        `yaml:"category_policy"`
}

type sitesFile struct {
	Sites map[string]SiteOverride `yaml:"sites"`
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		HTTPAddr:             getEnv("HTTP_ADDR", ":5000"),
		RequestTimeout:       seconds("REQUEST_TIMEOUT_SECONDS", 20),
		ImageTimeout:         seconds("IMAGE_TIMEOUT_SECONDS", 15),
		RetryMaxAttempts:     getInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBackoff:         time.Duration(getInt("RETRY_BACKOFF_MS", 1000)) * time.Millisecond,
		BlockTime:            seconds("BLOCK_TIME_SECONDS", 300),
		TargetCooldown:       seconds("TARGET_COOLDOWN_SECONDS", 3),
		MaxPages:             getInt("MAX_PAGES", 10),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		ImageCacheTTL:        seconds("IMAGE_CACHE_TTL_SECONDS", 86400),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "listings"),
		RedisStreamMaxLength: int64(getInt("REDIS_STREAM_MAX_LENGTH", 1000)),
		PublishListings:      getBool("PUBLISH_LISTINGS", false),
		PostgresDSN:          getEnv("POSTGRES_DSN", ""),
		OutputDir:            getEnv("OUTPUT_DIR", "."),
		ZameenURL:            getEnv("ZAMEEN_URL", "https://www.zameen.com"),
		Property1URL:         getEnv("PROPERTY1_URL", "https://www.property1.pk"),
		OLXURL:               getEnv("OLX_URL", "https://www.olx.com.pk"),
		SitesFile:            getEnv("SITES_FILE", ""),
		Environment:          getEnv("ESTATE_ENVIRONMENT", "development"),
	}
}

// Load reads the environment, applies SitesFile when set and validates the result
func Load() (*Config, error) {
	cfg := LoadConfig()
	if cfg.SitesFile != "" {
		sites, err := LoadSitesFile(cfg.SitesFile)
		if err != nil {
			return nil, err
		}
		cfg.Sites = sites
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadSitesFile decodes per-source overrides keyed by source name
func LoadSitesFile(path string) (map[string]SiteOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, crawlerrors.NewConfiguration("failed to read sites file "+path, err)
	}

	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, crawlerrors.NewConfiguration("failed to parse sites file "+path, err)
	}

	sites := make(map[string]SiteOverride, len(f.Sites))
	for name, o := range f.Sites {
		sites[strings.ToLower(name)] = o
	}
	return sites, nil
}

// Validate rejects values the crawler cannot run with
func (c *Config) Validate() error {
	switch {
	case c.RequestTimeout <= 0:
		return crawlerrors.NewConfiguration("REQUEST_TIMEOUT_SECONDS must be positive", nil)
	case c.ImageTimeout <= 0:
		return crawlerrors.NewConfiguration("IMAGE_TIMEOUT_SECONDS must be positive", nil)
	case c.RetryMaxAttempts < 1:
		return crawlerrors.NewConfiguration("RETRY_MAX_ATTEMPTS must be at least 1", nil)
	case c.RetryBackoff < 0:
		return crawlerrors.NewConfiguration("RETRY_BACKOFF_MS must not be negative", nil)
	case c.MaxPages < 1:
		return crawlerrors.NewConfiguration("MAX_PAGES must be at least 1", nil)
	case c.TargetCooldown < 0:
		return crawlerrors.NewConfiguration("TARGET_COOLDOWN_SECONDS must not be negative", nil)
	case c.PublishListings && c.RedisAddr == "":
		return crawlerrors.NewConfiguration("PUBLISH_LISTINGS requires REDIS_ADDR", nil)
	}

	for name, o := range c.Sites {
		if o.PageDelayMax != 0 && o.PageDelayMax < o.PageDelayMin {
			return crawlerrors.NewConfiguration(fmt.Sprintf("%s: page_delay_max is below page_delay_min", name), nil)
		}
		if o.ImageDelayMax != 0 && o.ImageDelayMax < o.ImageDelayMin {
			return crawlerrors.NewConfiguration(fmt.Sprintf("%s: image_delay_max is below image_delay_min", name), nil)
		}
		switch strings.ToLower(o.CategoryPolicy) {
		case "", "stop-after-first", "stop", "scan-all", "all":
		default:
			return crawlerrors.NewConfiguration(fmt.Sprintf("%s: unknown category_policy %q", name, o.CategoryPolicy), nil)
		}
	}
	return nil
}

// IsProduction reports whether ESTATE_ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func seconds(key string, defaultValue int) time.Duration {
	return time.Duration(getInt(key, defaultValue)) * time.Second
}
