// Package benefit evaluates credit-card cashback against a price.
//
// Evaluate never fails. A card that cannot be applied comes back with
// Applicable false and a Reason.
package benefit

import (
	"fmt"
	"math"
	"time"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
)

// Reason explains why a card does not apply
type Reason string

const (
	ReasonUnsupportedPlatform Reason = "unsupported_platform"
	ReasonExpired             Reason = "expired"
	ReasonCalculationError    Reason = "calculation_error"
)

// epsilon absorbs float error in price*rate so that e.g. 3000 at 2.3%
// floors to 69
const epsilon = 1e-9

// Result is the outcome of one card on one price
type Result struct {
	Applicable  bool    `json:"applicable"`
	Amount      int     `json:"amount"`
	FinalPrice  int     `json:"final_price"`
	Reason      Reason  `json:"reason,omitempty"`
	Rate        float64 `json:"rate"`
	MaxAmount   int     `json:"max_amount,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Evaluate computes the cashback card gives on price at platform, as of now
func Evaluate(card model.CreditCard, id platform.ID, price int, now time.Time) (result Result) {
	result = Result{
		FinalPrice:  price,
		Rate:        card.Benefit.Rate,
		MaxAmount:   card.Benefit.MaxAmount,
		Description: card.Benefit.Description,
	}

	defer func() {
		if r := recover(); r != nil {
			result = inapplicable(result, price, ReasonCalculationError)
		}
	}()

	if !card.Supports(id) {
		return inapplicable(result, price, ReasonUnsupportedPlatform)
	}
	if card.ExpiryDate != nil && card.ExpiryDate.Time.Before(now) {
		return inapplicable(result, price, ReasonExpired)
	}

	amount, err := cashback(card.Benefit, price)
	if err != nil {
		return inapplicable(result, price, ReasonCalculationError)
	}

	result.Applicable = true
	result.Amount = amount
	result.FinalPrice = price - amount
	return result
}

func cashback(rule model.BenefitRule, price int) (int, error) {
	if rule.Type != model.BenefitCashback {
		return 0, fmt.Errorf("unknown benefit type %q", rule.Type)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %d", price)
	}
	if math.IsNaN(rule.Rate) || rule.Rate < 0 || rule.Rate > 100 {
		return 0, fmt.Errorf("rate %v outside 0-100", rule.Rate)
	}
	if rule.MaxAmount < 0 {
		return 0, fmt.Errorf("negative cap %d", rule.MaxAmount)
	}

	amount := int(math.Floor(float64(price)*rule.Rate/100 + epsilon))
	if rule.MaxAmount > 0 && amount > rule.MaxAmount {
		amount = rule.MaxAmount
	}
	if amount > price {
		amount = price
	}
	return amount, nil
}

func inapplicable(result Result, price int, reason Reason) Result {
	result.Applicable = false
	result.Amount = 0
	result.Reason = reason
	result.FinalPrice = price
	if price < 0 {
		result.FinalPrice = 0
	}
	return result
}
