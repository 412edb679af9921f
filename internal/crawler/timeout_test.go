package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
	dealerrors "sjsage522/dealpicker/pkg/errors"
)

func TestWithTimeoutPassesResult(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, req Request) (model.PriceQuote, error) {
		return model.PriceQuote{Platform: req.Platform, Price: 19000}, nil
	})

	quote, err := WithTimeout(src, time.Second).FetchPrice(context.Background(), Request{Platform: platform.Momo})
	require.NoError(t, err)
	assert.Equal(t, 19000, quote.Price)
}

func TestWithTimeoutCancelsSlowFetch(t *testing.T) {
	slow := &blockingSource{cancelled: make(chan struct{})}

	start := time.Now()
	_, err := WithTimeout(slow, 30*time.Millisecond).FetchPrice(context.Background(), Request{Platform: platform.PChome})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	var dealErr *dealerrors.DealError
	require.True(t, errors.As(err, &dealErr))
	assert.Equal(t, dealerrors.ErrorTypeFetch, dealErr.Type)
	assert.Equal(t, "pchome", dealErr.Platform)
	assert.Contains(t, err.Error(), "timed out")

	select {
	case <-slow.cancelled:
	case <-time.After(time.Second):
		t.Fatal("underlying fetch was not cancelled")
	}
}

func TestWithTimeoutWrapsErrors(t *testing.T) {
	plain := SourceFunc(func(ctx context.Context, req Request) (model.PriceQuote, error) {
		return model.PriceQuote{}, errors.New("connection reset")
	})
	_, err := WithTimeout(plain, time.Second).FetchPrice(context.Background(), Request{Platform: platform.Shopee})
	assert.True(t, dealerrors.IsType(err, dealerrors.ErrorTypeFetch))
	assert.Contains(t, err.Error(), "connection reset")

	typed := SourceFunc(func(ctx context.Context, req Request) (model.PriceQuote, error) {
		return model.PriceQuote{}, dealerrors.NewFetch("shopee", "price selector matched nothing", nil)
	})
	_, err = WithTimeout(typed, time.Second).FetchPrice(context.Background(), Request{Platform: platform.Shopee})
	assert.Equal(t, "[fetch] shopee: price selector matched nothing", err.Error())

	unattributed := SourceFunc(func(ctx context.Context, req Request) (model.PriceQuote, error) {
		return model.PriceQuote{}, dealerrors.NewConfigLoad("rules missing", nil)
	})
	_, err = WithTimeout(unattributed, time.Second).FetchPrice(context.Background(), Request{Platform: platform.Momo})
	assert.True(t, dealerrors.IsType(err, dealerrors.ErrorTypeFetch))
	assert.False(t, dealerrors.IsTerminal(err), "source errors stay per platform")
	assert.Contains(t, err.Error(), "momo")
}

func TestWithTimeoutRecoversPanic(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, req Request) (model.PriceQuote, error) {
		panic("selector exploded")
	})
	_, err := WithTimeout(src, time.Second).FetchPrice(context.Background(), Request{Platform: platform.Momo})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selector exploded")
}

func TestWithTimeoutParentCanceled(t *testing.T) {
	slow := &blockingSource{cancelled: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := WithTimeout(slow, time.Hour).FetchPrice(ctx, Request{Platform: platform.Momo})
	assert.True(t, dealerrors.IsType(err, dealerrors.ErrorTypeFetch))
	assert.ErrorIs(t, err, context.Canceled)
}
