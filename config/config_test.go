package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	crawlerrors "sjsage522/estateworker/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, ":5000", config.HTTPAddr)
	assert.Equal(t, 20*time.Second, config.RequestTimeout)
	assert.Equal(t, 15*time.Second, config.ImageTimeout)
	assert.Equal(t, 3, config.RetryMaxAttempts)
	assert.Equal(t, time.Second, config.RetryBackoff)
	assert.Equal(t, 10, config.MaxPages)
	assert.Equal(t, 300*time.Second, config.BlockTime)
	assert.Equal(t, "", config.MemcacheAddr)
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.False(t, config.PublishListings)
	assert.Equal(t, "https://www.zameen.com", config.ZameenURL)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("REDIS_DB", "1")
	t.Setenv("MAX_PAGES", "4")
	t.Setenv("RETRY_BACKOFF_MS", "250")
	t.Setenv("PUBLISH_LISTINGS", "true")
	t.Setenv("OLX_URL", "http://127.0.0.1:9000")

	config = LoadConfig()
	assert.Equal(t, ":8080", config.HTTPAddr)
	assert.Equal(t, 1, config.RedisDB)
	assert.Equal(t, 4, config.MaxPages)
	assert.Equal(t, 250*time.Millisecond, config.RetryBackoff)
	assert.True(t, config.PublishListings)
	assert.Equal(t, "http://127.0.0.1:9000", config.OLXURL)
}

func TestInvalidNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("MAX_PAGES", "lots")
	t.Setenv("PUBLISH_LISTINGS", "maybe")

	config := LoadConfig()
	assert.Equal(t, 10, config.MaxPages)
	assert.False(t, config.PublishListings)
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	config.MaxPages = 0
	err := config.Validate()
	require.Error(t, err)
	assert.True(t, crawlerrors.IsType(err, crawlerrors.ErrorTypeConfiguration))

	config = LoadConfig()
	config.Sites = map[string]SiteOverride{"olx": {PageDelayMin: 5 * time.Second, PageDelayMax: time.Second}}
	assert.Error(t, config.Validate())

	config.Sites = map[string]SiteOverride{"olx": {CategoryPolicy: "sometimes"}}
	assert.Error(t, config.Validate())
}

func TestLoadSitesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sites:
  OLX:
    page_delay_min: 1s
    page_delay_max: 2s
    image_delay_min: 500ms
    category_policy: scan-all
  zameen:
    page_delay_min: 4s
`), 0o644))

	sites, err := LoadSitesFile(path)
	require.NoError(t, err)
	require.Contains(t, sites, "olx")
	assert.Equal(t, time.Second, sites["olx"].PageDelayMin)
	assert.Equal(t, 2*time.Second, sites["olx"].PageDelayMax)
	assert.Equal(t, 500*time.Millisecond, sites["olx"].ImageDelayMin)
	assert.Equal(t, "scan-all", sites["olx"].CategoryPolicy)
	assert.Equal(t, 4*time.Second, sites["zameen"].PageDelayMin)

	t.Setenv("SITES_FILE", path)
	config, err := Load()
	require.NoError(t, err)
	assert.Len(t, config.Sites, 2)
}

func TestLoadSitesFileErrors(t *testing.T) {
	_, err := LoadSitesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, crawlerrors.IsType(err, crawlerrors.ErrorTypeConfiguration))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sites: [unterminated"), 0o644))
	_, err = LoadSitesFile(path)
	assert.Error(t, err)
}
