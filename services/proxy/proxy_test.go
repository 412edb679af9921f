package proxy

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/dealpicker/logger"
)

func TestParseRelay(t *testing.T) {
	relay, err := ParseRelay("json:https://api.allorigins.win/get?url=")
	require.NoError(t, err)
	assert.True(t, relay.JSON)
	assert.Equal(t, "https://api.allorigins.win/get?url=", relay.Prefix)
	assert.Equal(t, "json:https://api.allorigins.win/get?url=", relay.String())

	relay, err = ParseRelay(" https://corsproxy.io/? ")
	require.NoError(t, err)
	assert.False(t, relay.JSON)
	assert.Equal(t, "https://corsproxy.io/?https%3A%2F%2Fshopee.tw%2Fi.1.2", relay.URL("https://shopee.tw/i.1.2"))

	_, err = ParseRelay("not a url")
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	raw := Relay{Prefix: "https://corsproxy.io/?"}
	body, err := raw.Decode([]byte("<html></html>"))
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(body))

	wrapped := Relay{Prefix: "https://api.allorigins.win/get?url=", JSON: true}
	body, err = wrapped.Decode([]byte(`{"contents":"<p>NT$ 399</p>","status":{"http_code":200}}`))
	require.NoError(t, err)
	assert.Equal(t, "<p>NT$ 399</p>", string(body))

	_, err = wrapped.Decode([]byte(`{"status":{}}`))
	assert.Error(t, err)
	_, err = wrapped.Decode([]byte(`<html>`))
	assert.Error(t, err)
}

func TestRotatorOrder(t *testing.T) {
	r := NewRotator([]string{"https://a.example/?", "", "bogus", "json:https://b.example/get?url="})
	require.Equal(t, 2, r.Len())

	first := r.Order()
	second := r.Order()
	third := r.Order()

	assert.Equal(t, "https://a.example/?", first[0].Prefix)
	assert.Equal(t, "https://b.example/get?url=", second[0].Prefix)
	assert.Equal(t, first, third)
	assert.Len(t, second, 2)
}

func TestRotatorEmpty(t *testing.T) {
	r := NewRotator(nil)
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Order())
}

func TestRotatorConcurrent(t *testing.T) {
	r := NewRotator([]string{"https://a.example/?", "https://b.example/?", "https://c.example/?"})

	var mu sync.Mutex
	counts := map[string]int{}
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := r.Order()[0].Prefix
			mu.Lock()
			counts[start]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, c := range counts {
		assert.Equal(t, 10, c)
	}
}

func TestRotatorLogsSkippedRelay(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	var buf bytes.Buffer
	logger.InitWithWriter(&buf)

	r := NewRotator([]string{"not a url", "https://corsproxy.io/?"})
	assert.Equal(t, 1, r.Len())

	out := buf.String()
	assert.Contains(t, out, "Skipping relay")
	assert.Contains(t, out, "proxy")
	assert.Contains(t, out, "not a url")
}
