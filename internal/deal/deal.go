// Package deal picks the cheapest way to buy a product across platform
// quotes and credit cards.
package deal

import (
	"sort"
	"time"

	"sjsage522/dealpicker/internal/benefit"
	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
	dealerrors "sjsage522/dealpicker/pkg/errors"
)

// DefaultRecommendLimit is the number of cards BestCards returns by default
const DefaultRecommendLimit = 5

// CardSummary is the part of a card shown alongside a deal
type CardSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Bank        string  `json:"bank"`
	Rate        float64 `json:"rate"`
	MaxAmount   int     `json:"max_amount,omitempty"`
	Description string  `json:"description,omitempty"`
	Conditions  string  `json:"conditions,omitempty"`
	ApplyURL    string  `json:"apply_url,omitempty"`
	Amount      int     `json:"amount"`
}

// Deal is one way of buying the product
type Deal struct {
	Platform      platform.ID  `json:"platform"`
	PlatformName  string       `json:"platform_name"`
	OriginalPrice int          `json:"original_price"`
	FinalPrice    int          `json:"final_price"`
	Savings       int          `json:"savings"`
	Card          *CardSummary `json:"card,omitempty"`
	PurchaseURL   string       `json:"purchase_url"`
}

// CardBenefit pairs a card with its evaluated benefit
type CardBenefit struct {
	Card   model.CreditCard `json:"card"`
	Result benefit.Result   `json:"result"`
}

// PlatformNamer resolves platform display names
type PlatformNamer interface {
	PlatformName(id platform.ID) string
}

// Selector ranks deals. It holds the card list used for recommendations.
type Selector struct {
	names PlatformNamer
	cards []model.CreditCard
	now   func() time.Time
}

// NewSelector creates a selector. A nil clock uses time.Now.
func NewSelector(names PlatformNamer, cards []model.CreditCard, now func() time.Time) *Selector {
	if now == nil {
		now = time.Now
	}
	return &Selector{names: names, cards: cards, now: now}
}

// SelectBest returns the candidate with the lowest final price. Candidates
// are visited quote by quote, the no-card candidate before each applicable
// card, and the first minimum found wins ties.
func (s *Selector) SelectBest(quotes []model.PriceQuote, cards []model.CreditCard) (Deal, error) {
	if len(quotes) == 0 {
		return Deal{}, dealerrors.NewNoDeal()
	}

	now := s.now()
	var best Deal
	found := false

	consider := func(d Deal) {
		if !found || d.FinalPrice < best.FinalPrice {
			best = d
			found = true
		}
	}

	for _, quote := range quotes {
		consider(s.deal(quote, nil, benefit.Result{FinalPrice: quote.Price}))

		for _, card := range cards {
			result := benefit.Evaluate(card, quote.Platform, quote.Price, now)
			if !result.Applicable {
				continue
			}
			c := card
			consider(s.deal(quote, &c, result))
		}
	}

	return best, nil
}

func (s *Selector) deal(quote model.PriceQuote, card *model.CreditCard, result benefit.Result) Deal {
	d := Deal{
		Platform:      quote.Platform,
		PlatformName:  s.platformName(quote.Platform),
		OriginalPrice: quote.Price,
		FinalPrice:    result.FinalPrice,
		Savings:       quote.Price - result.FinalPrice,
		PurchaseURL:   quote.PurchaseURL(),
	}
	if card != nil {
		d.Card = Summarize(*card, result)
	}
	return d
}

func (s *Selector) platformName(id platform.ID) string {
	if s.names == nil {
		return string(id)
	}
	return s.names.PlatformName(id)
}

// BestCards returns the applicable cards for a price, largest benefit
// first. Cards with equal benefit keep their reference order.
func (s *Selector) BestCards(id platform.ID, price int, limit int) []CardBenefit {
	if limit <= 0 {
		limit = DefaultRecommendLimit
	}

	now := s.now()
	applicable := make([]CardBenefit, 0, len(s.cards))
	for _, card := range s.cards {
		result := benefit.Evaluate(card, id, price, now)
		if result.Applicable {
			applicable = append(applicable, CardBenefit{Card: card, Result: result})
		}
	}

	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].Result.Amount > applicable[j].Result.Amount
	})

	if len(applicable) > limit {
		applicable = applicable[:limit]
	}
	return applicable
}

// Summarize builds the card summary for an evaluated benefit
func Summarize(card model.CreditCard, result benefit.Result) *CardSummary {
	return &CardSummary{
		ID:          card.ID,
		Name:        card.Name,
		Bank:        card.Bank,
		Rate:        card.Benefit.Rate,
		MaxAmount:   card.Benefit.MaxAmount,
		Description: card.Benefit.Description,
		Conditions:  card.Conditions,
		ApplyURL:    card.ApplyURL,
		Amount:      result.Amount,
	}
}

// Cheapest returns the quote with the lowest price, the first one on ties
func Cheapest(quotes []model.PriceQuote) (model.PriceQuote, bool) {
	if len(quotes) == 0 {
		return model.PriceQuote{}, false
	}
	cheapest := quotes[0]
	for _, q := range quotes[1:] {
		if q.Price < cheapest.Price {
			cheapest = q
		}
	}
	return cheapest, true
}
