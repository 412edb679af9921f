// Package history records past searches and observed prices so that repeat
// queries can show a price trend.
package history

import (
	"context"
	"fmt"
	"time"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
	"sjsage522/dealpicker/logger"
)

// RecentLimit is the number of searches kept
const RecentLimit = 10

// Search is one past query
type Search struct {
	Product model.Product `json:"product"`
	At      time.Time     `json:"at"`
}

// Point is one recorded price
type Point struct {
	Price int       `json:"price"`
	At    time.Time `json:"at"`
}

// Direction is the movement between the two latest prices
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Trend summarises the price history of a product on one platform
type Trend struct {
	Platform  platform.ID `json:"platform"`
	Direction Direction   `json:"direction"`
	Latest    int         `json:"latest"`
	Previous  int         `json:"previous,omitempty"`
	Min       int         `json:"min"`
	Max       int         `json:"max"`
	Points    int         `json:"points"`
}

// Store persists searches and prices
type Store interface {
	RecordSearch(ctx context.Context, product model.Product, at time.Time) error
	// RecentSearches returns up to RecentLimit searches, newest first
	RecentSearches(ctx context.Context) ([]Search, error)
	RecordPrice(ctx context.Context, productKey string, id platform.ID, price int, at time.Time) error
	Trend(ctx context.Context, productKey string, id platform.ID) (Trend, error)
	Close() error
}

// ComputeTrend builds a trend from points in chronological order
func ComputeTrend(id platform.ID, points []Point) Trend {
	trend := Trend{Platform: id, Direction: DirectionFlat, Points: len(points)}
	if len(points) == 0 {
		return trend
	}

	trend.Min, trend.Max = points[0].Price, points[0].Price
	for _, p := range points[1:] {
		if p.Price < trend.Min {
			trend.Min = p.Price
		}
		if p.Price > trend.Max {
			trend.Max = p.Price
		}
	}

	trend.Latest = points[len(points)-1].Price
	if len(points) < 2 {
		return trend
	}
	trend.Previous = points[len(points)-2].Price
	switch {
	case trend.Latest > trend.Previous:
		trend.Direction = DirectionUp
	case trend.Latest < trend.Previous:
		trend.Direction = DirectionDown
	}
	return trend
}

// Config controls how the history backend is opened
type Config struct {
	Driver string
	DSN    string
}

// Open constructs a Store based on the given configuration
func Open(ctx context.Context, cfg Config) (Store, error) {
	drv := cfg.Driver
	if drv == "" {
		drv = "memory"
	}
	switch drv {
	case "memory":
		logger.Debug("history: using in-memory backend")
		return NewMemory(), nil
	case "sqlite":
		logger.Debug("history: using sqlite backend at %s", cfg.DSN)
		return OpenSQLite(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported history driver %q", drv)
	}
}
