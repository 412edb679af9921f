// Package proxy rotates page fetches across a fixed list of relay endpoints.
//
// A relay is a URL prefix the target URL is appended to, query escaped. Raw
// relays return the target page unchanged. JSON relays (allorigins style)
// wrap it as {"contents": "..."}.
package proxy

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"

	"sjsage522/dealpicker/logger"
)

const jsonPrefix = "json:"

// Relay is one relay endpoint
type Relay struct {
	Prefix string
	JSON   bool
}

// ParseRelay reads a relay spec. A "json:" prefix marks a JSON relay.
func ParseRelay(spec string) (Relay, error) {
	spec = strings.TrimSpace(spec)
	relay := Relay{Prefix: spec}
	if strings.HasPrefix(spec, jsonPrefix) {
		relay = Relay{Prefix: strings.TrimPrefix(spec, jsonPrefix), JSON: true}
	}

	u, err := url.Parse(relay.Prefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Relay{}, fmt.Errorf("invalid relay %q", spec)
	}
	return relay, nil
}

// URL returns the relay URL that fetches target
func (r Relay) URL(target string) string {
	return r.Prefix + url.QueryEscape(target)
}

// Decode unwraps the relay response body into the target page
func (r Relay) Decode(body []byte) ([]byte, error) {
	if !r.JSON {
		return body, nil
	}
	var envelope struct {
		Contents *string `json:"contents"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode relay response: %w", err)
	}
	if envelope.Contents == nil {
		return nil, fmt.Errorf("relay response has no contents")
	}
	return []byte(*envelope.Contents), nil
}

// String returns the relay as it is written in RELAY_URLS
func (r Relay) String() string {
	if r.JSON {
		return jsonPrefix + r.Prefix
	}
	return r.Prefix
}

// RelayProvider hands out relays in the order a fetch should try them
type RelayProvider interface {
	Order() []Relay
	Len() int
}

// Rotator is a round-robin RelayProvider. The rotation index belongs to the
// instance and is safe for concurrent use.
type Rotator struct {
	relays []Relay
	next   atomic.Uint64
}

// NewRotator parses the relay specs. Invalid specs are skipped with a warning.
func NewRotator(specs []string) *Rotator {
	log := logger.ForComponent("proxy")
	r := &Rotator{}
	for _, spec := range specs {
		if strings.TrimSpace(spec) == "" {
			continue
		}
		relay, err := ParseRelay(spec)
		if err != nil {
			log.Warn().Err(err).Str("relay", spec).Msg("Skipping relay")
			continue
		}
		r.relays = append(r.relays, relay)
	}
	log.Debug().Int("count", len(r.relays)).Msg("Relay rotator ready")
	return r
}

// Len returns the number of usable relays
func (r *Rotator) Len() int {
	return len(r.relays)
}

// Order returns every relay, starting one past where the previous call
// started
func (r *Rotator) Order() []Relay {
	n := len(r.relays)
	if n == 0 {
		return nil
	}
	start := int((r.next.Add(1) - 1) % uint64(n))
	out := make([]Relay, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.relays[(start+i)%n])
	}
	return out
}
