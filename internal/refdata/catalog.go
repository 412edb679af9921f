// Package refdata loads and validates the platform rules, credit cards and
// affiliate templates the pipeline runs on.
//
// A Catalog is immutable once built. Reloading produces a new Catalog that
// replaces the old one wholesale.
package refdata

import (
	"fmt"
	"math"
	"regexp"

	dealerrors "sjsage522/dealpicker/pkg/errors"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
)

// AffiliateTemplate is a partner link template for one platform
type AffiliateTemplate struct {
	Template string `json:"template"`
}

// Catalog holds the validated reference data
type Catalog struct {
	rules      map[platform.ID]platform.Rule
	cards      []model.CreditCard
	affiliates map[platform.ID]string
}

// NewCatalog validates the given reference data and builds a Catalog.
// Every supported platform must have a rule.
func NewCatalog(rules []platform.Rule, cards []model.CreditCard, affiliates map[platform.ID]string) (*Catalog, error) {
	c := &Catalog{
		rules:      make(map[platform.ID]platform.Rule, len(rules)),
		cards:      make([]model.CreditCard, 0, len(cards)),
		affiliates: make(map[platform.ID]string, len(affiliates)),
	}

	for _, rule := range rules {
		if !platform.IsSupported(rule.ID) {
			return nil, dealerrors.NewConfigLoad(fmt.Sprintf("platform rule for unknown platform %q", rule.ID), nil)
		}
		if rule.Domain == "" || rule.URLPattern == "" {
			return nil, dealerrors.NewConfigLoad(fmt.Sprintf("platform rule %q needs domain and urlPattern", rule.ID), nil)
		}
		if rule.IDPattern != "" {
			if _, err := regexp.Compile(rule.IDPattern); err != nil {
				return nil, dealerrors.NewConfigLoad(fmt.Sprintf("platform rule %q has invalid idPattern", rule.ID), err)
			}
		}
		if _, dup := c.rules[rule.ID]; dup {
			return nil, dealerrors.NewConfigLoad(fmt.Sprintf("duplicate platform rule %q", rule.ID), nil)
		}
		c.rules[rule.ID] = rule
	}
	for _, id := range platform.Supported {
		if _, ok := c.rules[id]; !ok {
			return nil, dealerrors.NewConfigLoad(fmt.Sprintf("missing platform rule %q", id), nil)
		}
	}

	seen := make(map[string]bool, len(cards))
	for _, card := range cards {
		if err := validateCard(card); err != nil {
			return nil, err
		}
		if seen[card.ID] {
			return nil, dealerrors.NewConfigLoad(fmt.Sprintf("duplicate credit card %q", card.ID), nil)
		}
		seen[card.ID] = true
		c.cards = append(c.cards, card)
	}

	for id, tmpl := range affiliates {
		if !platform.IsSupported(id) {
			return nil, dealerrors.NewConfigLoad(fmt.Sprintf("affiliate template for unknown platform %q", id), nil)
		}
		c.affiliates[id] = tmpl
	}

	return c, nil
}

func validateCard(card model.CreditCard) error {
	if card.ID == "" {
		return dealerrors.NewConfigLoad(fmt.Sprintf("credit card %q has no id", card.Name), nil)
	}
	for _, p := range card.Platforms {
		if !platform.IsSupported(p) {
			return dealerrors.NewConfigLoad(fmt.Sprintf("credit card %q lists unknown platform %q", card.ID, p), nil)
		}
	}
	b := card.Benefit
	if b.Type != model.BenefitCashback {
		return dealerrors.NewConfigLoad(fmt.Sprintf("credit card %q has unsupported benefit type %q", card.ID, b.Type), nil)
	}
	if math.IsNaN(b.Rate) || b.Rate < 0 || b.Rate > 100 {
		return dealerrors.NewConfigLoad(fmt.Sprintf("credit card %q has rate %v outside 0-100", card.ID, b.Rate), nil)
	}
	if b.MaxAmount < 0 {
		return dealerrors.NewConfigLoad(fmt.Sprintf("credit card %q has negative maxAmount", card.ID), nil)
	}
	return nil
}

// Rule returns the rule for a platform
func (c *Catalog) Rule(id platform.ID) (platform.Rule, bool) {
	rule, ok := c.rules[id]
	return rule, ok
}

// Rules returns every rule in declaration order
func (c *Catalog) Rules() []platform.Rule {
	rules := make([]platform.Rule, 0, len(platform.Supported))
	for _, id := range platform.Supported {
		rules = append(rules, c.rules[id])
	}
	return rules
}

// PlatformName returns the display name, falling back to the identifier
func (c *Catalog) PlatformName(id platform.ID) string {
	if rule, ok := c.rules[id]; ok && rule.Name != "" {
		return rule.Name
	}
	return string(id)
}

// Cards returns the credit cards in reference order
func (c *Catalog) Cards() []model.CreditCard {
	cards := make([]model.CreditCard, len(c.cards))
	copy(cards, c.cards)
	return cards
}

// AffiliateTemplates returns a copy of the per-platform link templates
func (c *Catalog) AffiliateTemplates() map[platform.ID]string {
	out := make(map[platform.ID]string, len(c.affiliates))
	for k, v := range c.affiliates {
		out[k] = v
	}
	return out
}
