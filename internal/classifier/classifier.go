// Package classifier turns a product link into a Product on one of the
// supported platforms.
package classifier

import (
	"net/url"
	"strings"
	"time"

	"sjsage522/dealpicker/helpers"
	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
	dealerrors "sjsage522/dealpicker/pkg/errors"
)

// nameLength is how many runes of the raw id the default name keeps
const nameLength = 10

// RuleSource lists the platform rules in match order
type RuleSource interface {
	Rules() []platform.Rule
}

// Classifier matches product links against the platform rules
type Classifier struct {
	rules RuleSource
	now   func() time.Time
}

// New creates a classifier over rules
func New(rules RuleSource) *Classifier {
	return &Classifier{rules: rules, now: time.Now}
}

// Classify parses rawURL and builds the Product it refers to. The first rule
// whose domain occurs in the host wins.
func (c *Classifier) Classify(rawURL string) (model.Product, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return model.Product{}, dealerrors.NewInvalidURL(rawURL, err)
	}
	if !u.IsAbs() || u.Hostname() == "" {
		return model.Product{}, dealerrors.NewInvalidURL(rawURL, nil)
	}

	host := strings.ToLower(u.Hostname())
	for _, rule := range c.rules.Rules() {
		if !rule.MatchesHost(host) {
			continue
		}
		rawID := rule.ExtractID(u)
		return model.Product{
			ID:             model.NewID(),
			RawID:          rawID,
			Name:           "Product " + helpers.Truncate(rawID, nameLength),
			OriginalURL:    u.String(),
			SourcePlatform: rule.ID,
			Keywords:       []string{rawID},
			CreatedAt:      c.now(),
		}, nil
	}

	return model.Product{}, dealerrors.NewUnsupportedPlatform(host, platform.Names())
}
