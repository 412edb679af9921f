// Package crawler retrieves prices for a product from the supported
// platforms, live from the product page or as an estimate.
package crawler

import (
	"context"
	"strings"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
)

// Request describes one price lookup
type Request struct {
	Platform platform.ID
	Keywords []string
	// ProductURL is fetched directly when set. Otherwise the platform search
	// URL is built from the first keyword.
	ProductURL string
}

// Keyword returns the first non-blank keyword
func (r Request) Keyword() string {
	for _, k := range r.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			return k
		}
	}
	return ""
}

// TargetURL returns the page a request resolves to under rule
func (r Request) TargetURL(rule platform.Rule) string {
	if r.ProductURL != "" {
		return r.ProductURL
	}
	return rule.SearchURL(r.Keyword())
}

// Source produces a price quote for one platform
type Source interface {
	FetchPrice(ctx context.Context, req Request) (model.PriceQuote, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context, req Request) (model.PriceQuote, error)

// FetchPrice calls f
func (f SourceFunc) FetchPrice(ctx context.Context, req Request) (model.PriceQuote, error) {
	return f(ctx, req)
}

// RuleLookup resolves parsing rules by platform
type RuleLookup interface {
	Rule(id platform.ID) (platform.Rule, bool)
}
