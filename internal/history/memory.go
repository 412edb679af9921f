package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
)

type priceKey struct {
	product  string
	platform platform.ID
}

// Memory is an in-process Store
type Memory struct {
	mu       sync.RWMutex
	searches []Search
	prices   map[priceKey][]Point
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{prices: make(map[priceKey][]Point)}
}

func (m *Memory) RecordSearch(ctx context.Context, product model.Product, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.searches = append([]Search{{Product: product, At: at}}, m.searches...)
	if len(m.searches) > RecentLimit {
		m.searches = m.searches[:RecentLimit]
	}
	return nil
}

func (m *Memory) RecentSearches(ctx context.Context) ([]Search, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Search, len(m.searches))
	copy(out, m.searches)
	return out, nil
}

func (m *Memory) RecordPrice(ctx context.Context, productKey string, id platform.ID, price int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := priceKey{product: productKey, platform: id}
	points := append(m.prices[key], Point{Price: price, At: at})
	sort.SliceStable(points, func(i, j int) bool { return points[i].At.Before(points[j].At) })
	m.prices[key] = points
	return nil
}

func (m *Memory) Trend(ctx context.Context, productKey string, id platform.ID) (Trend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ComputeTrend(id, m.prices[priceKey{product: productKey, platform: id}]), nil
}

func (m *Memory) Close() error { return nil }
