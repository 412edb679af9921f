package internal

import (
	"errors"

	"sjsage522/dealpicker/internal/history"
	"sjsage522/dealpicker/services/cache"
	"sjsage522/dealpicker/services/proxy"
	"sjsage522/dealpicker/services/publisher"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Relays    proxy.RelayProvider
	History   history.Store
}

// Close releases the services that hold connections
func (d *Dependencies) Close() error {
	var errs []error
	if d.Publisher != nil {
		errs = append(errs, d.Publisher.Close())
	}
	if d.History != nil {
		errs = append(errs, d.History.Close())
	}
	return errors.Join(errs...)
}
