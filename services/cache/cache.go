package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// maxKeyLength is memcached's key limit
const maxKeyLength = 250

// Key joins parts with ":" and hashes anything that memcached would refuse
// (too long, spaces or control characters). A short first part survives as a prefix.
func Key(parts ...string) string {
	k := strings.Join(parts, ":")
	if validKey(k) {
		return k
	}
	sum := sha1.Sum([]byte(k))
	prefix := "h"
	if len(parts) > 1 && len(parts[0]) <= 64 && validKey(parts[0]) {
		prefix = parts[0]
	}
	return prefix + ":" + hex.EncodeToString(sum[:])
}

func validKey(k string) bool {
	return k != "" && len(k) <= maxKeyLength &&
		!strings.ContainsFunc(k, func(r rune) bool { return r <= ' ' || r == 0x7f })
}
