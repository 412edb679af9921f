package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sjsage522/dealpicker/helpers"
	"sjsage522/dealpicker/logger"
	"sjsage522/dealpicker/services/cache"
	"sjsage522/dealpicker/services/proxy"
)

// ErrBlocked is returned while a host is inside its rate-limit block window
var ErrBlocked = errors.New("host is rate limited")

// PageFetcher retrieves a page as UTF-8 bytes
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches pages directly or through rotating relays. A host that
// answers 429 or 430 is not contacted again until BlockTime passes.
type HTTPFetcher struct {
	client    *http.Client
	relays    proxy.RelayProvider
	cacheSvc  cache.CacheService
	blockTime time.Duration
}

// NewHTTPFetcher creates a fetcher. relays and cacheSvc may be nil.
func NewHTTPFetcher(client *http.Client, relays proxy.RelayProvider, cacheSvc cache.CacheService, blockTime time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:    client,
		relays:    relays,
		cacheSvc:  cacheSvc,
		blockTime: blockTime,
	}
}

// Fetch retrieves target. With relays configured every relay is tried once,
// in rotation order, until one succeeds.
func (f *HTTPFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	if f.relays == nil || f.relays.Len() == 0 {
		return f.fetchWithCache(ctx, target)
	}

	var lastErr error
	for _, relay := range f.relays.Order() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := f.fetchWithCache(ctx, relay.URL(target))
		if err == nil {
			body, err = relay.Decode(body)
		}
		if err != nil {
			logger.Debug("relay %s failed for %s: %v", relay.Prefix, target, err)
			lastErr = err
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("all %d relays failed: %w", f.relays.Len(), lastErr)
}

// fetchWithCache fetches one URL, honouring and recording rate-limit blocks
func (f *HTTPFetcher) fetchWithCache(ctx context.Context, rawURL string) ([]byte, error) {
	key := rateLimitKey(rawURL)
	if f.cacheSvc != nil && key != "" {
		if _, err := f.cacheSvc.Get(key); err == nil {
			return nil, fmt.Errorf("%s: %w for %d seconds", key, ErrBlocked, int(f.blockTime/time.Second))
		}
	}

	body, err := helpers.FetchWithRandomHeaders(ctx, f.client, rawURL)
	if err != nil {
		var rateErr *helpers.RateLimitError
		if errors.As(err, &rateErr) && f.cacheSvc != nil && key != "" && f.blockTime > 0 {
			value := []byte(fmt.Sprintf("%d", int(f.blockTime/time.Second)))
			if setErr := f.cacheSvc.Set(key, value, f.blockTime); setErr != nil {
				logger.Warn("failed to record rate limit for %s: %v", key, setErr)
			}
		}
		return nil, err
	}
	return body, nil
}

func rateLimitKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return "ratelimit:" + strings.ToLower(u.Host)
}
