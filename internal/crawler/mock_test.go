package crawler

import (
	"context"
	"sync"
	"time"

	crawlerrors "sjsage522/estateworker/pkg/errors"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, &mockError{message: "cache miss"}
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

// mockFetcher serves canned pages by URL; anything unknown is a 404
type mockFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errors map[string]error
	calls  []string
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{pages: map[string]string{}, errors: map[string]error{}}
}

func (f *mockFetcher) Fetch(_ context.Context, rawURL, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, rawURL)
	if err, ok := f.errors[rawURL]; ok {
		return nil, err
	}
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, crawlerrors.NewHTTPStatus("mock", rawURL, 404)
	}
	return []byte(body), nil
}

func (f *mockFetcher) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
