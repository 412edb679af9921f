package crawler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
	dealerrors "sjsage522/dealpicker/pkg/errors"
)

const (
	estimateBase   = 20000
	estimateJitter = 10000
	estimateMin    = 1000
	estimateMax    = 100000
)

// platformOffsets shifts the estimate per platform
var platformOffsets = map[platform.ID]int{
	platform.Shopee: 0,
	platform.Momo:   2000,
	platform.PChome: 1000,
}

// EstimateSource produces a synthetic price after a synthetic delay. It is
// the degraded mode used when live scraping is unavailable.
type EstimateSource struct {
	rules    RuleLookup
	delayMin time.Duration
	delayMax time.Duration
	now      func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewEstimateSource creates an estimate source. The seed makes the prices
// and delays reproducible.
func NewEstimateSource(rules RuleLookup, delayMin, delayMax time.Duration, seed int64) *EstimateSource {
	if delayMax < delayMin {
		delayMax = delayMin
	}
	return &EstimateSource{
		rules:    rules,
		delayMin: delayMin,
		delayMax: delayMax,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(seed)),
	}
}

// FetchPrice waits for the synthetic delay, then returns the estimate
func (s *EstimateSource) FetchPrice(ctx context.Context, req Request) (model.PriceQuote, error) {
	name := string(req.Platform)
	rule, ok := s.rules.Rule(req.Platform)
	if !ok {
		return model.PriceQuote{}, dealerrors.NewFetch(name, "no platform rule", nil)
	}

	delay, jitter := s.draw()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return model.PriceQuote{}, dealerrors.NewFetch(name, "estimate canceled", ctx.Err())
	case <-timer.C:
	}

	return model.PriceQuote{
		ID:          model.NewID(),
		Platform:    req.Platform,
		PlatformURL: req.TargetURL(rule),
		Price:       EstimatePrice(req.Platform, jitter),
		Available:   true,
		Source:      model.SourceEstimate,
		FetchedAt:   s.now(),
	}, nil
}

func (s *EstimateSource) draw() (time.Duration, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delay := s.delayMin
	if span := s.delayMax - s.delayMin; span > 0 {
		delay += time.Duration(s.rnd.Int63n(int64(span)))
	}
	return delay, s.rnd.Intn(estimateJitter)
}

// EstimatePrice computes the estimate for a platform given a jitter drawn
// from [0, 10000)
func EstimatePrice(id platform.ID, jitter int) int {
	price := estimateBase + platformOffsets[id] + jitter
	switch {
	case price < estimateMin:
		return estimateMin
	case price > estimateMax:
		return estimateMax
	default:
		return price
	}
}
