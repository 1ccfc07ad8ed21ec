package stockapi

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/config"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/redis"
)

type countingUpstream struct {
	calls int
	err   error
	price float64
}

func (u *countingUpstream) GetAllStocksDetailed(ctx context.Context) ([]contracts.StockFundamentals, error) {
	u.calls++
	return []contracts.StockFundamentals{{Symbol: "AGHOL", CurrentPrice: contracts.Float(u.price)}}, u.err
}

func (u *countingUpstream) GetPriceHistory(ctx context.Context, symbol string) ([]contracts.PricePoint, error) {
	u.calls++
	if u.err != nil {
		return nil, u.err
	}
	return []contracts.PricePoint{{Symbol: symbol, Close: contracts.Float(1)}}, nil
}

func (u *countingUpstream) GetLatestPrice(ctx context.Context, symbol string) (contracts.PricePoint, error) {
	u.calls++
	return contracts.PricePoint{Symbol: symbol, Close: contracts.Float(2)}, u.err
}

func (u *countingUpstream) GetAllSectors(ctx context.Context) ([]contracts.Sector, error) {
	u.calls++
	return []contracts.Sector{{ID: 1, Name: "Banking"}}, u.err
}

func (u *countingUpstream) GetStockSector(ctx context.Context, symbol string) (int, error) {
	u.calls++
	return 7, u.err
}

func disabledCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	return redis.NewCache(client, "test")
}

func TestCachedSource_DisabledCachePassesThrough(t *testing.T) {
	up := &countingUpstream{}
	src := NewCachedSource(up, disabledCache(t), logger.Nop())
	ctx := context.Background()

	stocks, err := src.GetAllStocksDetailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AGHOL", stocks[0].Symbol)

	series, err := src.GetPriceHistory(ctx, "aghol")
	require.NoError(t, err)
	assert.Equal(t, "AGHOL", series[0].Symbol)

	p, err := src.GetLatestPrice(ctx, "AGHOL")
	require.NoError(t, err)
	assert.Equal(t, 2.0, *p.Close)

	sectors, err := src.GetAllSectors(ctx)
	require.NoError(t, err)
	assert.Len(t, sectors, 1)

	sectorID, err := src.GetStockSector(ctx, "AGHOL")
	require.NoError(t, err)
	assert.Equal(t, 7, sectorID)

	// every call reached the upstream
	_, _ = src.GetAllSectors(ctx)
	assert.Equal(t, 6, up.calls)
}

func TestCachedSource_UpstreamErrorNotCached(t *testing.T) {
	boom := errors.New("boom")
	src := NewCachedSource(&countingUpstream{err: boom}, disabledCache(t), logger.Nop())

	_, err := src.GetPriceHistory(context.Background(), "X")
	assert.ErrorIs(t, err, boom)
}

func TestCachedSource_HitSkipsUpstream_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewFromRedis(goredis.NewClient(&goredis.Options{Addr: addr}))
	defer client.Close()

	cache := redis.NewCache(client, "stockapi-test-"+time.Now().Format("150405.000"))
	up := &countingUpstream{}
	src := NewCachedSource(up, cache, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		series, err := src.GetPriceHistory(ctx, "AGHOL")
		require.NoError(t, err)
		require.Len(t, series, 1)
		assert.Equal(t, 1.0, *series[0].Close)
	}
	assert.Equal(t, 1, up.calls)
}

func TestCachedSource_StockListAlwaysFresh(t *testing.T) {
	up := &countingUpstream{price: 10}
	src := NewCachedSource(up, disabledCache(t), logger.Nop())
	ctx := context.Background()

	first, err := src.GetAllStocksDetailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, *first[0].CurrentPrice)

	up.price = 12
	second, err := src.GetAllStocksDetailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12.0, *second[0].CurrentPrice)
	assert.Equal(t, 2, up.calls)
}

func TestCachedSource_StockListBypassesCache_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewFromRedis(goredis.NewClient(&goredis.Options{Addr: addr}))
	defer client.Close()

	cache := redis.NewCache(client, "stockapi-test-"+time.Now().Format("150405.000"))
	up := &countingUpstream{price: 10}
	src := NewCachedSource(up, cache, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		up.price = float64(10 + i)
		stocks, err := src.GetAllStocksDetailed(ctx)
		require.NoError(t, err)
		assert.Equal(t, float64(10+i), *stocks[0].CurrentPrice)
	}
	assert.Equal(t, 3, up.calls)
}
