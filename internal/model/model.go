package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"sjsage522/dealpicker/internal/platform"
)

// NewID returns a fresh ULID string. IDs sort by creation time.
func NewID() string {
	return ulid.Make().String()
}

// QuoteSource tells a scraped price apart from an estimated one
type QuoteSource string

const (
	SourceLive     QuoteSource = "live"
	SourceEstimate QuoteSource = "estimate"
)

// Product is a classified product link
type Product struct {
	ID             string      `json:"id"`
	RawID          string      `json:"raw_id"`
	Name           string      `json:"name"`
	ImageURL       string      `json:"image_url,omitempty"`
	OriginalURL    string      `json:"original_url"`
	SourcePlatform platform.ID `json:"source_platform"`
	Keywords       []string    `json:"keywords"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Key returns the identifier history is recorded under. ID is regenerated
// for every query, so history uses the platform and raw identifier instead.
func (p Product) Key() string {
	return string(p.SourcePlatform) + ":" + p.RawID
}

// PriceQuote is one platform's price observation for a product
type PriceQuote struct {
	ID           string      `json:"id"`
	ProductID    string      `json:"product_id"`
	Platform     platform.ID `json:"platform"`
	PlatformURL  string      `json:"platform_url"`
	Price        int         `json:"price"`
	Available    bool        `json:"available"`
	AffiliateURL string      `json:"affiliate_url,omitempty"`
	ImageURL     string      `json:"image_url,omitempty"`
	Source       QuoteSource `json:"source"`
	FetchedAt    time.Time   `json:"fetched_at"`
}

// PurchaseURL prefers the affiliate link when one was generated
func (q PriceQuote) PurchaseURL() string {
	if q.AffiliateURL != "" {
		return q.AffiliateURL
	}
	return q.PlatformURL
}

// BenefitType names the kind of card benefit
type BenefitType string

const BenefitCashback BenefitType = "cashback"

// BenefitRule describes what a card gives back
type BenefitRule struct {
	Type        BenefitType `json:"type"`
	Rate        float64     `json:"rate"`
	MaxAmount   int         `json:"maxAmount,omitempty"`
	Description string      `json:"description"`
}

// CreditCard is static reference data for one card offer
type CreditCard struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Bank       string        `json:"bank"`
	Platforms  []platform.ID `json:"platforms"`
	Benefit    BenefitRule   `json:"benefits"`
	ExpiryDate *Date         `json:"expiryDate,omitempty"`
	Conditions string        `json:"conditions,omitempty"`
	ApplyURL   string        `json:"applyUrl"`
}

// Supports reports whether the card lists the platform
func (c CreditCard) Supports(id platform.ID) bool {
	for _, p := range c.Platforms {
		if p == id {
			return true
		}
	}
	return false
}

// Date is a calendar date or timestamp decoded from reference data.
// Bare dates resolve to midnight UTC.
type Date struct {
	time.Time
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate parses a YYYY-MM-DD or RFC3339 string
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("unrecognised date %q", s)
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}
