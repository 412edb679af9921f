package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDealErrorMessage(t *testing.T) {
	err := NewFetch("momo", "request timed out", stderrors.New("context deadline exceeded"))
	assert.Equal(t, "[fetch] momo: request timed out - context deadline exceeded", err.Error())

	err = NewNoDeal()
	assert.Equal(t, "[no_deal] no price quotes to choose from", err.Error())
}

func TestUnsupportedPlatformNamesSupportedSet(t *testing.T) {
	err := NewUnsupportedPlatform("www.amazon.com", []string{"shopee", "momo", "pchome"})
	assert.Contains(t, err.Error(), "shopee, momo, pchome")
	assert.Contains(t, err.Error(), "www.amazon.com")
}

func TestIsTypeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("compare: %w", NewInvalidURL("nope", nil))

	assert.True(t, IsType(wrapped, ErrorTypeInvalidURL))
	assert.False(t, IsType(wrapped, ErrorTypeFetch))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeInvalidURL))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, NewFetch("shopee", "boom", nil).IsTerminal())
	assert.True(t, NewFetch("", "no prices could be retrieved", nil).IsTerminal())
	assert.True(t, IsTerminal(fmt.Errorf("compare: %w", NewFetch("", "no prices", nil))))
	assert.False(t, IsTerminal(stderrors.New("plain")))
	assert.True(t, NewNoDeal().IsTerminal())
	assert.True(t, NewConfigLoad("missing rules", nil).IsTerminal())
	assert.True(t, NewUnsupportedPlatform("x", nil).IsTerminal())
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := NewConfigLoad("read credit-cards.json", cause)
	assert.ErrorIs(t, err, cause)
}
