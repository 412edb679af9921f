package crawler

import (
	"context"
	"time"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/logger"
)

// FallbackSource tries the primary source and uses the fallback when it
// fails
type FallbackSource struct {
	primary  Source
	fallback Source
}

// NewFallbackSource creates a source that degrades from primary to fallback
func NewFallbackSource(primary, fallback Source) *FallbackSource {
	return &FallbackSource{primary: primary, fallback: fallback}
}

// FetchPrice returns the primary quote, or the fallback quote when the
// primary fails and the context is still live
func (s *FallbackSource) FetchPrice(ctx context.Context, req Request) (model.PriceQuote, error) {
	quote, err := s.primary.FetchPrice(ctx, req)
	if err == nil {
		return quote, nil
	}
	if ctx.Err() != nil {
		return model.PriceQuote{}, err
	}

	logger.ForPlatform(string(req.Platform)).Warn().Err(err).Msg("Live price unavailable, using estimate")
	return s.fallback.FetchPrice(ctx, req)
}

// Options selects and tunes the price source
type Options struct {
	Mode             string
	EstimateDelayMin time.Duration
	EstimateDelayMax time.Duration
	Seed             int64
	// FetchTimeout is the caller's per-platform budget. In auto mode the live
	// attempt is cut short so the estimate still fits inside it.
	FetchTimeout time.Duration
}

// liveBudget leaves room for the slowest estimate plus a tenth of total as
// slack. The live attempt keeps at least half of total.
func liveBudget(total, estimateDelayMax time.Duration) time.Duration {
	budget := total - estimateDelayMax - total/10
	if budget < total/2 {
		budget = total / 2
	}
	return budget
}

// NewSource builds the source for a price mode: "live", "estimate" or "auto"
func NewSource(rules RuleLookup, fetcher PageFetcher, opts Options) Source {
	live := NewLiveSource(rules, fetcher)
	estimate := NewEstimateSource(rules, opts.EstimateDelayMin, opts.EstimateDelayMax, opts.Seed)

	switch opts.Mode {
	case "live":
		return live
	case "estimate":
		return estimate
	default:
		var primary Source = live
		if opts.FetchTimeout > 0 {
			primary = WithTimeout(live, liveBudget(opts.FetchTimeout, opts.EstimateDelayMax))
		}
		return NewFallbackSource(primary, estimate)
	}
}
