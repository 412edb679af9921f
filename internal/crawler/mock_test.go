package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
	"sjsage522/dealpicker/services/cache"
)

// mockCacheService is an in-memory CacheService that ignores expiry
type mockCacheService struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMockCacheService() *mockCacheService {
	return &mockCacheService{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, cache.ErrMiss
}

func (m *mockCacheService) Set(key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// mockFetcher serves canned pages by URL
type mockFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)
	page, ok := m.pages[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(page), nil
}

type ruleMap map[platform.ID]platform.Rule

func (r ruleMap) Rule(id platform.ID) (platform.Rule, bool) {
	rule, ok := r[id]
	return rule, ok
}

func testRules() ruleMap {
	return ruleMap{
		platform.Shopee: {
			ID: platform.Shopee, Domain: "shopee.tw", URLPattern: "https://shopee.tw/",
			SearchPath: "search?keyword={keyword}",
			Selectors:  platform.Selectors{Name: "h1", Price: ".price", Image: "img.main"},
		},
		platform.Momo: {
			ID: platform.Momo, Domain: "momoshop.com.tw", URLPattern: "https://www.momoshop.com.tw/",
			Selectors: platform.Selectors{Name: "h1", Price: ".prdPrice b", Image: "img.main"},
		},
		platform.PChome: {
			ID: platform.PChome, Domain: "pchome.com.tw", URLPattern: "https://24h.pchome.com.tw/",
			Selectors: platform.Selectors{Name: "h1", Price: "#PriceTotal"},
		},
	}
}

// blockingSource waits for its context and records that it was cancelled
type blockingSource struct {
	cancelled chan struct{}
}

func (b *blockingSource) FetchPrice(ctx context.Context, req Request) (model.PriceQuote, error) {
	<-ctx.Done()
	close(b.cancelled)
	return model.PriceQuote{}, ctx.Err()
}
