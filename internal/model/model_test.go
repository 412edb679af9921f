package model

import (
	"encoding/json"
	"testing"
	"time"

	"sjsage522/dealpicker/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditCardDecode(t *testing.T) {
	raw := `{
		"id": "card-a",
		"name": "Cube",
		"bank": "Cathay",
		"platforms": ["momo", "pchome"],
		"benefits": {"type": "cashback", "rate": 3.5, "maxAmount": 500, "description": "3.5% back"},
		"expiryDate": "2026-12-31",
		"applyUrl": "https://example.com/apply"
	}`

	var card CreditCard
	require.NoError(t, json.Unmarshal([]byte(raw), &card))

	assert.Equal(t, "card-a", card.ID)
	assert.True(t, card.Supports(platform.Momo))
	assert.False(t, card.Supports(platform.Shopee))
	assert.Equal(t, 3.5, card.Benefit.Rate)
	assert.Equal(t, 500, card.Benefit.MaxAmount)
	require.NotNil(t, card.ExpiryDate)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), card.ExpiryDate.Time)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-02T03:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Hour())

	_, err = ParseDate("next tuesday")
	assert.Error(t, err)
}

func TestProductKeyAndPurchaseURL(t *testing.T) {
	p := Product{SourcePlatform: platform.Shopee, RawID: "i.123.456"}
	assert.Equal(t, "shopee:i.123.456", p.Key())

	q := PriceQuote{PlatformURL: "https://shopee.tw/x"}
	assert.Equal(t, "https://shopee.tw/x", q.PurchaseURL())
	q.AffiliateURL = "https://aff.example/x"
	assert.Equal(t, "https://aff.example/x", q.PurchaseURL())
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}
