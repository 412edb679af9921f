package crawler

import (
	"context"
	"fmt"
	"time"

	"sjsage522/dealpicker/internal/model"
	dealerrors "sjsage522/dealpicker/pkg/errors"
)

type timeoutSource struct {
	source  Source
	timeout time.Duration
}

type fetchResult struct {
	quote model.PriceQuote
	err   error
}

// WithTimeout bounds every fetch of source by d. The fetch runs on a derived
// context that is cancelled once the timer fires, and a late result is
// discarded. Every failure comes back as a fetch DealError.
func WithTimeout(source Source, d time.Duration) Source {
	return &timeoutSource{source: source, timeout: d}
}

func (t *timeoutSource) FetchPrice(ctx context.Context, req Request) (model.PriceQuote, error) {
	name := string(req.Platform)
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// one slot: the goroutine never blocks after the caller has gone
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: dealerrors.NewFetch(name, fmt.Sprintf("panic: %v", r), nil)}
			}
		}()
		quote, err := t.source.FetchPrice(fetchCtx, req)
		done <- fetchResult{quote: quote, err: err}
	}()

	var expired <-chan time.Time
	if t.timeout > 0 {
		timer := time.NewTimer(t.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case r := <-done:
		if r.err != nil {
			return model.PriceQuote{}, asFetchError(name, r.err)
		}
		return r.quote, nil
	case <-expired:
		return model.PriceQuote{}, dealerrors.NewFetch(name, fmt.Sprintf("timed out after %s", t.timeout), context.DeadlineExceeded)
	case <-ctx.Done():
		return model.PriceQuote{}, dealerrors.NewFetch(name, "canceled", ctx.Err())
	}
}

// asFetchError keeps per-platform fetch errors and wraps everything else, so a
// source can never end the whole query
func asFetchError(platform string, err error) error {
	if dealerrors.IsType(err, dealerrors.ErrorTypeFetch) && !dealerrors.IsTerminal(err) {
		return err
	}
	return dealerrors.NewFetch(platform, "price fetch failed", err)
}
