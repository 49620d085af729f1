package cache

import (
	"errors"
	"time"

	crawlerrors "sjsage522/estateworker/pkg/errors"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheService using memcache
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService creates a new memcache service
func NewMemcacheService(serverAddr string) *MemcacheService {
	client := memcache.New(serverAddr)
	client.Timeout = 500 * time.Millisecond
	return &MemcacheService{client: client}
}

// Ping checks that the server answers
func (m *MemcacheService) Ping() error {
	if err := m.client.Ping(); err != nil {
		return crawlerrors.NewCache("memcache", "ping failed", err)
	}
	return nil
}

// Get retrieves a value from memcache, mapping misses to ErrCacheMiss
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(Key(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, crawlerrors.NewCache("memcache", "get failed", err)
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	err := m.client.Set(&memcache.Item{
		Key:        Key(key),
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
	if err != nil {
		return crawlerrors.NewCache("memcache", "set failed", err)
	}
	return nil
}

// Delete removes a value from memcache; deleting a missing key is not an error
func (m *MemcacheService) Delete(key string) error {
	err := m.client.Delete(Key(key))
	if err == nil || errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return crawlerrors.NewCache("memcache", "delete failed", err)
}
