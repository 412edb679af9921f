// Package aggregator collects price quotes across platforms with bounded
// concurrency. One platform's failure never affects another.
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sjsage522/dealpicker/internal/crawler"
	"sjsage522/dealpicker/internal/metrics"
	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
	"sjsage522/dealpicker/logger"
)

// DefaultConcurrency is the batch size used when none is configured
const DefaultConcurrency = 3

// PlatformError is one platform's fetch failure
type PlatformError struct {
	Platform platform.ID `json:"platform"`
	Message  string      `json:"message"`
}

// Result holds everything an aggregation produced
type Result struct {
	Quotes []model.PriceQuote `json:"quotes"`
	Errors []PlatformError    `json:"errors"`
}

// Success reports whether at least one quote was obtained
func (r Result) Success() bool {
	return len(r.Quotes) > 0
}

// Aggregator runs a price source over a list of platforms
type Aggregator struct {
	source      crawler.Source
	concurrency int
}

// New creates an aggregator. Platforms are fetched in batches of
// concurrency; a non-positive value uses DefaultConcurrency.
func New(source crawler.Source, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{source: source, concurrency: concurrency}
}

type outcome struct {
	quote model.PriceQuote
	err   *PlatformError
}

// Aggregate fetches a quote from every platform in order. Batches run one
// after another and fetches inside a batch run concurrently. Quotes are
// appended in completion order. Duplicate platforms are fetched separately.
func (a *Aggregator) Aggregate(ctx context.Context, product model.Product, platforms []platform.ID) Result {
	result := Result{Quotes: []model.PriceQuote{}, Errors: []PlatformError{}}

	for start := 0; start < len(platforms); start += a.concurrency {
		end := start + a.concurrency
		if end > len(platforms) {
			end = len(platforms)
		}
		batch := platforms[start:end]
		logger.Debug("fetching batch %d-%d of %d platforms", start+1, end, len(platforms))

		for _, o := range a.fetchBatch(ctx, product, batch) {
			if o.err != nil {
				result.Errors = append(result.Errors, *o.err)
				continue
			}
			result.Quotes = append(result.Quotes, o.quote)
		}
	}

	return result
}

// fetchBatch fetches every platform of one batch concurrently
func (a *Aggregator) fetchBatch(ctx context.Context, product model.Product, batch []platform.ID) []outcome {
	outcomeChan := make(chan outcome, len(batch))
	var wg sync.WaitGroup

	for _, id := range batch {
		wg.Add(1)
		go func(id platform.ID) {
			defer wg.Done()
			outcomeChan <- a.fetchOne(ctx, product, id)
		}(id)
	}

	wg.Wait()
	close(outcomeChan)

	outcomes := make([]outcome, 0, len(batch))
	for o := range outcomeChan {
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func (a *Aggregator) fetchOne(ctx context.Context, product model.Product, id platform.ID) (o outcome) {
	log := logger.ForPlatform(string(id))
	startedAt := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Price fetch panicked")
			o = outcome{err: &PlatformError{Platform: id, Message: "internal error while fetching price"}}
		}
	}()

	req := crawler.Request{Platform: id, Keywords: product.Keywords}
	if id == product.SourcePlatform {
		req.ProductURL = product.OriginalURL
	}

	quote, err := a.source.FetchPrice(ctx, req)
	if err == nil && quote.Price < 0 {
		err = fmt.Errorf("negative price %d", quote.Price)
	}
	metrics.ObserveFetch(string(id), startedAt, err)
	if err != nil {
		log.Warn().Err(err).Dur("elapsed", time.Since(startedAt)).Msg("Price fetch failed")
		return outcome{err: &PlatformError{Platform: id, Message: err.Error()}}
	}

	quote.ProductID = product.ID
	quote.Platform = id
	log.Debug().Int("price", quote.Price).Str("source", string(quote.Source)).Msg("Price fetched")
	return outcome{quote: quote}
}

// OrderPlatforms returns source first, followed by the other defaults in
// their given order
func OrderPlatforms(source platform.ID, defaults []platform.ID) []platform.ID {
	ordered := make([]platform.ID, 0, len(defaults)+1)
	ordered = append(ordered, source)
	for _, id := range defaults {
		if id != source {
			ordered = append(ordered, id)
		}
	}
	return ordered
}
