package deal

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/dealpicker/internal/benefit"
	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
	dealerrors "sjsage522/dealpicker/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

type names map[platform.ID]string

func (n names) PlatformName(id platform.ID) string {
	if name, ok := n[id]; ok {
		return name
	}
	return string(id)
}

func clock() time.Time { return fixedNow }

func exampleQuotes() []model.PriceQuote {
	return []model.PriceQuote{
		{Platform: platform.Shopee, Price: 20000, PlatformURL: "https://shopee.tw/x"},
		{Platform: platform.Momo, Price: 19000, PlatformURL: "https://www.momoshop.com.tw/x", AffiliateURL: "https://aff.example/momo"},
		{Platform: platform.PChome, Price: 21000, PlatformURL: "https://24h.pchome.com.tw/x"},
	}
}

func cashbackCard(id string, rate float64, maxAmount int, platforms ...platform.ID) model.CreditCard {
	return model.CreditCard{
		ID: id, Name: id, Bank: "bank", Platforms: platforms,
		Benefit: model.BenefitRule{Type: model.BenefitCashback, Rate: rate, MaxAmount: maxAmount},
	}
}

func TestSelectBestWithCard(t *testing.T) {
	cards := []model.CreditCard{cashbackCard("momo-5", 5, 1200, platform.Momo)}
	s := NewSelector(names{platform.Momo: "momo購物網"}, cards, clock)

	best, err := s.SelectBest(exampleQuotes(), cards)
	require.NoError(t, err)
	assert.Equal(t, platform.Momo, best.Platform)
	assert.Equal(t, "momo購物網", best.PlatformName)
	assert.Equal(t, 19000, best.OriginalPrice)
	assert.Equal(t, 18050, best.FinalPrice)
	assert.Equal(t, 950, best.Savings)
	require.NotNil(t, best.Card)
	assert.Equal(t, "momo-5", best.Card.ID)
	assert.Equal(t, 950, best.Card.Amount)
	assert.Equal(t, "https://aff.example/momo", best.PurchaseURL)
}

func TestSelectBestWithoutCards(t *testing.T) {
	s := NewSelector(nil, nil, clock)

	best, err := s.SelectBest(exampleQuotes(), nil)
	require.NoError(t, err)
	assert.Equal(t, platform.Momo, best.Platform)
	assert.Equal(t, 19000, best.FinalPrice)
	assert.Equal(t, 0, best.Savings)
	assert.Nil(t, best.Card)

	inapplicable := []model.CreditCard{cashbackCard("pchome-only", 10, 0, platform.PChome)}
	best, err = s.SelectBest(exampleQuotes()[:2], inapplicable)
	require.NoError(t, err)
	assert.Equal(t, platform.Momo, best.Platform)
	assert.Nil(t, best.Card)
}

func TestSelectBestCardCanFlipPlatform(t *testing.T) {
	cards := []model.CreditCard{cashbackCard("shopee-10", 10, 0, platform.Shopee)}

	best, err := NewSelector(nil, cards, clock).SelectBest(exampleQuotes(), cards)
	require.NoError(t, err)
	assert.Equal(t, platform.Shopee, best.Platform)
	assert.Equal(t, 18000, best.FinalPrice)
}

func TestSelectBestTiesKeepFirst(t *testing.T) {
	quotes := []model.PriceQuote{
		{Platform: platform.PChome, Price: 19000},
		{Platform: platform.Momo, Price: 19000},
	}
	zero := []model.CreditCard{cashbackCard("zero", 0, 0, platform.PChome, platform.Momo)}

	best, err := NewSelector(nil, zero, clock).SelectBest(quotes, zero)
	require.NoError(t, err)
	assert.Equal(t, platform.PChome, best.Platform)
	assert.Nil(t, best.Card, "no-card candidate is visited before an equal card")

	a := cashbackCard("a", 5, 0, platform.Momo)
	b := cashbackCard("b", 5, 0, platform.Momo)
	best, err = NewSelector(nil, nil, clock).SelectBest(quotes[1:], []model.CreditCard{a, b})
	require.NoError(t, err)
	assert.Equal(t, "a", best.Card.ID)
}

func TestSelectBestEmpty(t *testing.T) {
	_, err := NewSelector(nil, nil, clock).SelectBest(nil, nil)
	assert.True(t, dealerrors.IsType(err, dealerrors.ErrorTypeNoDeal))
}

func TestSelectBestIsMinimum(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	all := platform.Supported

	for i := 0; i < 200; i++ {
		var quotes []model.PriceQuote
		for j := 0; j < 1+rnd.Intn(5); j++ {
			quotes = append(quotes, model.PriceQuote{Platform: all[rnd.Intn(len(all))], Price: rnd.Intn(50000)})
		}
		var cards []model.CreditCard
		for j := 0; j < rnd.Intn(4); j++ {
			cards = append(cards, cashbackCard("c", float64(rnd.Intn(1000))/100, rnd.Intn(2000), all[rnd.Intn(len(all))]))
		}

		best, err := NewSelector(nil, cards, clock).SelectBest(quotes, cards)
		require.NoError(t, err)

		for _, q := range quotes {
			assert.LessOrEqual(t, best.FinalPrice, q.Price)
			for _, c := range cards {
				if r := benefit.Evaluate(c, q.Platform, q.Price, fixedNow); r.Applicable {
					assert.LessOrEqual(t, best.FinalPrice, r.FinalPrice)
				}
			}
		}
	}
}

func TestSelectBestSkipsExpiredCards(t *testing.T) {
	expired := cashbackCard("expired", 50, 0, platform.Shopee)
	expired.ExpiryDate = &model.Date{Time: fixedNow.Add(-time.Hour)}

	best, err := NewSelector(nil, nil, clock).SelectBest(exampleQuotes(), []model.CreditCard{expired})
	require.NoError(t, err)
	assert.Equal(t, platform.Momo, best.Platform)
	assert.Nil(t, best.Card)
}

func TestBestCards(t *testing.T) {
	cards := []model.CreditCard{
		cashbackCard("all-3", 3, 1000, platform.Shopee, platform.Momo, platform.PChome),
		cashbackCard("momo-5", 5, 1200, platform.Momo),
		cashbackCard("pchome-4", 4, 800, platform.PChome),
		cashbackCard("all-3-again", 3, 0, platform.Shopee, platform.Momo, platform.PChome),
		cashbackCard("all-3.8", 3.8, 0, platform.Shopee, platform.Momo, platform.PChome),
	}
	s := NewSelector(nil, cards, clock)

	got := s.BestCards(platform.Momo, 19000, 0)
	require.Len(t, got, 4)
	var ids []string
	for _, cb := range got {
		ids = append(ids, cb.Card.ID)
	}
	assert.Equal(t, []string{"momo-5", "all-3.8", "all-3", "all-3-again"}, ids)
	assert.Equal(t, 950, got[0].Result.Amount)

	assert.Len(t, s.BestCards(platform.Momo, 19000, 2), 2)
	assert.Empty(t, NewSelector(nil, nil, clock).BestCards(platform.Momo, 19000, 5))
}

func TestBestCardsDefaultLimit(t *testing.T) {
	var cards []model.CreditCard
	for i := 0; i < 8; i++ {
		cards = append(cards, cashbackCard("c", float64(i), 0, platform.Shopee))
	}
	got := NewSelector(nil, cards, clock).BestCards(platform.Shopee, 10000, -1)
	require.Len(t, got, DefaultRecommendLimit)
	assert.Equal(t, 7.0, got[0].Card.Benefit.Rate)
}

func TestCheapest(t *testing.T) {
	q, ok := Cheapest(exampleQuotes())
	require.True(t, ok)
	assert.Equal(t, platform.Momo, q.Platform)

	_, ok = Cheapest(nil)
	assert.False(t, ok)
}
