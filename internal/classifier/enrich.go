package classifier

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
	"sjsage522/dealpicker/logger"
)

// PageFetcher retrieves a page as UTF-8 bytes
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// RuleLookup resolves a platform rule
type RuleLookup interface {
	Rule(id platform.ID) (platform.Rule, bool)
}

// Enricher fills in the product name and image from the product page
type Enricher struct {
	rules   RuleLookup
	fetcher PageFetcher
	timeout time.Duration
}

// NewEnricher creates an enricher bounded by timeout
func NewEnricher(rules RuleLookup, fetcher PageFetcher, timeout time.Duration) *Enricher {
	return &Enricher{rules: rules, fetcher: fetcher, timeout: timeout}
}

// Enrich returns a copy of product with the name and image found on its
// page. Any failure returns product unchanged.
func (e *Enricher) Enrich(ctx context.Context, product model.Product) model.Product {
	log := logger.ForPlatform(string(product.SourcePlatform))

	rule, ok := e.rules.Rule(product.SourcePlatform)
	if !ok {
		return product
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	body, err := e.fetcher.Fetch(ctx, product.OriginalURL)
	if err != nil {
		log.Debug().Err(err).Msg("Enrichment fetch failed")
		return product
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Debug().Err(err).Msg("Enrichment parse failed")
		return product
	}

	enriched := product
	enriched.Keywords = append([]string(nil), product.Keywords...)
	if rule.Selectors.Name != "" {
		if name := strings.Join(strings.Fields(doc.Find(rule.Selectors.Name).First().Text()), " "); name != "" {
			enriched.Name = name
		}
	}
	if rule.Selectors.Image != "" {
		if src, exists := doc.Find(rule.Selectors.Image).First().Attr("src"); exists && strings.TrimSpace(src) != "" {
			enriched.ImageURL = resolve(product.OriginalURL, strings.TrimSpace(src))
		}
	}

	log.Debug().Str("name", enriched.Name).Msg("Product enriched")
	return enriched
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
