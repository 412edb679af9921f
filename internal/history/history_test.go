package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/dealpicker/internal/model"
	"sjsage522/dealpicker/internal/platform"
)

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := Open(context.Background(), Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "history.db")})
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	memory, err := Open(context.Background(), Config{})
	require.NoError(t, err)

	return map[string]Store{"memory": memory, "sqlite": sqlite}
}

func TestComputeTrend(t *testing.T) {
	flat := ComputeTrend(platform.Momo, nil)
	assert.Equal(t, DirectionFlat, flat.Direction)
	assert.Equal(t, 0, flat.Points)

	one := ComputeTrend(platform.Momo, []Point{{Price: 19000}})
	assert.Equal(t, DirectionFlat, one.Direction)
	assert.Equal(t, 19000, one.Latest)
	assert.Equal(t, 19000, one.Min)

	down := ComputeTrend(platform.Momo, []Point{{Price: 21000}, {Price: 18000}, {Price: 20000}, {Price: 19000}})
	assert.Equal(t, DirectionDown, down.Direction)
	assert.Equal(t, 19000, down.Latest)
	assert.Equal(t, 20000, down.Previous)
	assert.Equal(t, 18000, down.Min)
	assert.Equal(t, 21000, down.Max)
	assert.Equal(t, 4, down.Points)

	up := ComputeTrend(platform.Momo, []Point{{Price: 100}, {Price: 120}})
	assert.Equal(t, DirectionUp, up.Direction)

	same := ComputeTrend(platform.Momo, []Point{{Price: 100}, {Price: 100}})
	assert.Equal(t, DirectionFlat, same.Direction)
}

func TestRecentSearches(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			empty, err := store.RecentSearches(ctx)
			require.NoError(t, err)
			assert.Empty(t, empty)

			for i := 0; i < 12; i++ {
				p := model.Product{ID: fmt.Sprintf("p%d", i), RawID: fmt.Sprintf("i.%d", i), SourcePlatform: platform.Shopee, Keywords: []string{"k"}}
				require.NoError(t, store.RecordSearch(ctx, p, base.Add(time.Duration(i)*time.Minute)))
			}

			searches, err := store.RecentSearches(ctx)
			require.NoError(t, err)
			require.Len(t, searches, RecentLimit)
			assert.Equal(t, "p11", searches[0].Product.ID)
			assert.Equal(t, "p2", searches[RecentLimit-1].Product.ID)
			assert.True(t, searches[0].At.Equal(base.Add(11*time.Minute)))
			assert.Equal(t, platform.Shopee, searches[0].Product.SourcePlatform)
		})
	}
}

func TestPriceTrend(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := "shopee:i.123.456"

			require.NoError(t, store.RecordPrice(ctx, key, platform.Momo, 19500, base))
			require.NoError(t, store.RecordPrice(ctx, key, platform.Momo, 19000, base.Add(time.Hour)))
			require.NoError(t, store.RecordPrice(ctx, key, platform.PChome, 21000, base))
			require.NoError(t, store.RecordPrice(ctx, "momo:other", platform.Momo, 1, base))

			trend, err := store.Trend(ctx, key, platform.Momo)
			require.NoError(t, err)
			assert.Equal(t, DirectionDown, trend.Direction)
			assert.Equal(t, 19000, trend.Latest)
			assert.Equal(t, 19000, trend.Min)
			assert.Equal(t, 19500, trend.Max)
			assert.Equal(t, 2, trend.Points)

			trend, err = store.Trend(ctx, key, platform.PChome)
			require.NoError(t, err)
			assert.Equal(t, DirectionFlat, trend.Direction)
			assert.Equal(t, 1, trend.Points)

			trend, err = store.Trend(ctx, key, platform.Shopee)
			require.NoError(t, err)
			assert.Equal(t, 0, trend.Points)
		})
	}
}

func TestSQLitePersists(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "persist.db")

	store, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, store.RecordPrice(ctx, "pchome:X", platform.PChome, 500, base))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	defer reopened.Close()

	trend, err := reopened.Trend(ctx, "pchome:X", platform.PChome)
	require.NoError(t, err)
	assert.Equal(t, 500, trend.Latest)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "postgres"})
	assert.Error(t, err)
}
