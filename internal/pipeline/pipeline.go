// Package pipeline runs one comparison query end to end: classify the link,
// collect quotes, apply cards, pick the best deal and record the result.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"sjsage522/dealpicker/internal/affiliate"
	"sjsage522/dealpicker/internal/aggregator"
	"sjsage522/dealpicker/internal/classifier"
	"sjsage522/dealpicker/internal/deal"
	"sjsage522/dealpicker/internal/history"
	"sjsage522/dealpicker/internal/metrics"
	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
	"sjsage522/dealpicker/internal/refdata"
	"sjsage522/dealpicker/logger"
	dealerrors "sjsage522/dealpicker/pkg/errors"
	"sjsage522/dealpicker/services/publisher"
)

// Classifier turns a link into a product
type Classifier interface {
	Classify(rawURL string) (model.Product, error)
}

// Enricher fills in product details, best effort
type Enricher interface {
	Enrich(ctx context.Context, product model.Product) model.Product
}

// Aggregator collects quotes across platforms
type Aggregator interface {
	Aggregate(ctx context.Context, product model.Product, platforms []platform.ID) aggregator.Result
}

// Deps are the collaborators of a Pipeline. Enricher, History and
// Publisher are optional.
type Deps struct {
	Catalog        *refdata.Catalog
	Aggregator     Aggregator
	Classifier     Classifier
	Enricher       Enricher
	History        history.Store
	Publisher      publisher.Publisher
	RecommendLimit int
	Now            func() time.Time
}

// Outcome is everything one query produced
type Outcome struct {
	Product         model.Product              `json:"product"`
	Quotes          []model.PriceQuote         `json:"quotes"`
	Errors          []aggregator.PlatformError `json:"errors,omitempty"`
	Warnings        []string                   `json:"warnings,omitempty"`
	Best            deal.Deal                  `json:"best_deal"`
	Cheapest        model.PriceQuote           `json:"cheapest"`
	Recommendations []deal.CardBenefit         `json:"recommendations"`
	Trends          []history.Trend            `json:"trends,omitempty"`
	StartedAt       time.Time                  `json:"started_at"`
	Elapsed         time.Duration              `json:"elapsed_ns"`
}

// Pipeline is built once from a catalog and its collaborators. Queries are
// serialised.
type Pipeline struct {
	mu sync.Mutex

	catalog        *refdata.Catalog
	classifier     Classifier
	enricher       Enricher
	aggregator     Aggregator
	links          *affiliate.Generator
	selector       *deal.Selector
	history        history.Store
	publisher      publisher.Publisher
	recommendLimit int
	now            func() time.Time
}

// New creates a pipeline. The classifier defaults to one over the catalog.
func New(deps Deps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	cls := deps.Classifier
	if cls == nil {
		cls = classifier.New(deps.Catalog)
	}
	pub := deps.Publisher
	if pub == nil {
		pub = publisher.Noop{}
	}
	return &Pipeline{
		catalog:        deps.Catalog,
		classifier:     cls,
		enricher:       deps.Enricher,
		aggregator:     deps.Aggregator,
		links:          affiliate.NewGenerator(deps.Catalog.AffiliateTemplates()),
		selector:       deal.NewSelector(deps.Catalog, deps.Catalog.Cards(), now),
		history:        deps.History,
		publisher:      pub,
		recommendLimit: deps.RecommendLimit,
		now:            now,
	}
}

// Selector exposes the deal selector built over the catalog cards
func (p *Pipeline) Selector() *deal.Selector {
	return p.selector
}

// Run executes one query for rawURL
func (p *Pipeline) Run(ctx context.Context, rawURL string) (outcome *Outcome, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { metrics.ObserveQuery(err) }()

	startedAt := p.now()
	log := logger.ForComponent("pipeline")

	product, err := p.classifier.Classify(rawURL)
	if err != nil {
		return nil, err
	}
	if p.enricher != nil {
		product = p.enricher.Enrich(ctx, product)
	}
	log.Info().Str("platform", string(product.SourcePlatform)).Str("raw_id", product.RawID).Msg("Product classified")

	platforms := aggregator.OrderPlatforms(product.SourcePlatform, platform.Supported)
	result := p.aggregator.Aggregate(ctx, product, platforms)
	if !result.Success() {
		return nil, dealerrors.NewFetch("", "no prices could be retrieved: "+summarize(result.Errors), nil)
	}

	quotes := p.links.Attach(result.Quotes)
	best, err := p.selector.SelectBest(quotes, p.catalog.Cards())
	if err != nil {
		return nil, err
	}
	cheapest, _ := deal.Cheapest(quotes)

	outcome = &Outcome{
		Product:         product,
		Quotes:          quotes,
		Errors:          result.Errors,
		Warnings:        warnings(result.Errors),
		Best:            best,
		Cheapest:        cheapest,
		Recommendations: p.selector.BestCards(cheapest.Platform, cheapest.Price, p.recommendLimit),
		StartedAt:       startedAt,
	}

	outcome.Trends = p.record(ctx, product, quotes)
	outcome.Elapsed = p.now().Sub(startedAt)
	p.publish(ctx, outcome)

	metrics.BestDealSavings.WithLabelValues(string(best.Platform)).Set(float64(best.Savings))
	log.Info().
		Str("best_platform", string(best.Platform)).
		Int("final_price", best.FinalPrice).
		Int("quotes", len(quotes)).
		Int("failed", len(result.Errors)).
		Msg("Best deal selected")

	return outcome, nil
}

// record stores the search and prices and returns the updated trends.
// History failures are logged and skipped.
func (p *Pipeline) record(ctx context.Context, product model.Product, quotes []model.PriceQuote) []history.Trend {
	if p.history == nil {
		return nil
	}
	log := logger.ForComponent("history")
	at := p.now()

	if err := p.history.RecordSearch(ctx, product, at); err != nil {
		log.Warn().Err(err).Msg("Failed to record search")
	}

	key := product.Key()
	trends := make([]history.Trend, 0, len(quotes))
	seen := make(map[platform.ID]bool, len(quotes))
	for _, q := range quotes {
		fetchedAt := q.FetchedAt
		if fetchedAt.IsZero() {
			fetchedAt = at
		}
		if err := p.history.RecordPrice(ctx, key, q.Platform, q.Price, fetchedAt); err != nil {
			log.Warn().Err(err).Str("platform", string(q.Platform)).Msg("Failed to record price")
		}
	}
	for _, q := range quotes {
		if seen[q.Platform] {
			continue
		}
		seen[q.Platform] = true
		trend, err := p.history.Trend(ctx, key, q.Platform)
		if err != nil {
			log.Warn().Err(err).Str("platform", string(q.Platform)).Msg("Failed to load trend")
			continue
		}
		trends = append(trends, trend)
	}
	return trends
}

func (p *Pipeline) publish(ctx context.Context, outcome *Outcome) {
	data, err := json.Marshal(outcome)
	if err != nil {
		logger.LogError("publisher", err, "failed to encode outcome")
		return
	}
	key := string(outcome.Best.Platform)
	if err := p.publisher.Publish(ctx, key, data); err != nil {
		logger.ForComponent("publisher").WithError(err).Warn().Str("key", key).Msg("Failed to publish outcome")
	}
}

func summarize(errs []aggregator.PlatformError) string {
	if len(errs) == 0 {
		return "no platforms queried"
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Platform, e.Message))
	}
	return strings.Join(parts, "; ")
}

func warnings(errs []aggregator.PlatformError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, fmt.Sprintf("%s price unavailable: %s", e.Platform, e.Message))
	}
	return out
}
