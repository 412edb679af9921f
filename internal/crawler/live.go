package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/dealpicker/helpers"
	"sjsage522/dealpicker/internal/model"
	dealerrors "sjsage522/dealpicker/pkg/errors"
)

// LiveSource scrapes the price from the platform page using the rule's
// selectors
type LiveSource struct {
	rules   RuleLookup
	fetcher PageFetcher
	now     func() time.Time
}

// NewLiveSource creates a live price source
func NewLiveSource(rules RuleLookup, fetcher PageFetcher) *LiveSource {
	return &LiveSource{rules: rules, fetcher: fetcher, now: time.Now}
}

// FetchPrice fetches the page and reads the first price selector match
func (s *LiveSource) FetchPrice(ctx context.Context, req Request) (model.PriceQuote, error) {
	name := string(req.Platform)
	rule, ok := s.rules.Rule(req.Platform)
	if !ok {
		return model.PriceQuote{}, dealerrors.NewFetch(name, "no platform rule", nil)
	}
	target := req.TargetURL(rule)

	body, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		return model.PriceQuote{}, dealerrors.NewFetch(name, "failed to fetch page", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.PriceQuote{}, dealerrors.NewFetch(name, "failed to parse page", err)
	}

	priceSel := doc.Find(rule.Selectors.Price).First()
	if priceSel.Length() == 0 {
		return model.PriceQuote{}, dealerrors.NewFetch(name, fmt.Sprintf("price selector %q matched nothing", rule.Selectors.Price), nil)
	}
	text := strings.TrimSpace(priceSel.Text())
	if content, exists := priceSel.Attr("content"); text == "" && exists {
		text = content
	}
	price, err := helpers.ParsePrice(text)
	if err != nil {
		return model.PriceQuote{}, dealerrors.NewFetch(name, fmt.Sprintf("unparseable price %q", helpers.Truncate(text, 40)), err)
	}

	return model.PriceQuote{
		ID:          model.NewID(),
		Platform:    req.Platform,
		PlatformURL: target,
		Price:       price,
		Available:   true,
		ImageURL:    imageURL(doc, rule.Selectors.Image, target),
		Source:      model.SourceLive,
		FetchedAt:   s.now(),
	}, nil
}

// imageURL returns the absolute src of the first image selector match
func imageURL(doc *goquery.Document, selector, base string) string {
	if selector == "" {
		return ""
	}
	sel := doc.Find(selector).First()
	src, exists := sel.Attr("src")
	if !exists {
		src, exists = sel.Attr("content")
	}
	if !exists || strings.TrimSpace(src) == "" {
		return ""
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return src
	}
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return src
	}
	return baseURL.ResolveReference(ref).String()
}
