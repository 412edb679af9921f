// Package affiliate rewrites platform links into partner links.
package affiliate

import (
	"net/url"
	"strings"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
)

// Template placeholders
const (
	PlaceholderURL        = "{productUrl}"
	PlaceholderEncodedURL = "{encodedProductUrl}"
)

// Generator builds partner links from per-platform templates
type Generator struct {
	templates map[platform.ID]string
}

// NewGenerator creates a generator. Platforms without a template keep their
// original links.
func NewGenerator(templates map[platform.ID]string) *Generator {
	t := make(map[platform.ID]string, len(templates))
	for id, tmpl := range templates {
		if strings.TrimSpace(tmpl) != "" {
			t[id] = tmpl
		}
	}
	return &Generator{templates: t}
}

// Link returns the partner link for productURL on a platform
func (g *Generator) Link(id platform.ID, productURL string) string {
	tmpl, ok := g.templates[id]
	if !ok || productURL == "" {
		return productURL
	}
	return strings.NewReplacer(
		PlaceholderURL, productURL,
		PlaceholderEncodedURL, url.QueryEscape(productURL),
	).Replace(tmpl)
}

// Attach returns copies of quotes with AffiliateURL filled in
func (g *Generator) Attach(quotes []model.PriceQuote) []model.PriceQuote {
	out := make([]model.PriceQuote, len(quotes))
	for i, q := range quotes {
		q.AffiliateURL = g.Link(q.Platform, q.PlatformURL)
		out[i] = q
	}
	return out
}
