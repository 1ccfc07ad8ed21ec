package stockapi

import (
	"context"
	"strings"
	"time"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/redis"
)

// Upstream is everything CachedSource decorates
type Upstream interface {
	contracts.StockSource
	contracts.PriceHistorySource
	contracts.LatestPriceSource
	contracts.SectorSource
	contracts.StockSectorSource
}

// CachedSource is a read-through Redis cache in front of the stock service's price
// history, latest price and sector lookups. The fundamentals list is never cached.
// Cache failures are logged and fall through to the upstream.
type CachedSource struct {
	upstream Upstream
	cache    *redis.Cache
	logger   *logger.Logger
	now      func() time.Time
}

// NewCachedSource wraps upstream with cache. A disabled Redis client makes every lookup a miss.
func NewCachedSource(upstream Upstream, cache *redis.Cache, log *logger.Logger) *CachedSource {
	return &CachedSource{
		upstream: upstream,
		cache:    cache,
		logger:   log.WithComponent("stockapi-cache"),
		now:      time.Now,
	}
}

// GetAllStocksDetailed always reaches the upstream: every load re-reads fundamentals
func (s *CachedSource) GetAllStocksDetailed(ctx context.Context) ([]contracts.StockFundamentals, error) {
	return s.upstream.GetAllStocksDetailed(ctx)
}

func (s *CachedSource) GetPriceHistory(ctx context.Context, symbol string) ([]contracts.PricePoint, error) {
	symbol = strings.ToUpper(symbol)

	var points []contracts.PricePoint
	err := s.readThrough(ctx, redis.PriceHistoryKey(symbol, s.now()), redis.TTLLong, &points, func() (interface{}, error) {
		fresh, err := s.upstream.GetPriceHistory(ctx, symbol)
		points = fresh
		return fresh, err
	})
	if err != nil {
		return nil, err
	}

	contracts.SortNewestFirst(points)
	return points, nil
}

func (s *CachedSource) GetLatestPrice(ctx context.Context, symbol string) (contracts.PricePoint, error) {
	var point contracts.PricePoint
	err := s.readThrough(ctx, redis.LatestPriceKey(symbol), redis.TTLShort, &point, func() (interface{}, error) {
		fresh, err := s.upstream.GetLatestPrice(ctx, symbol)
		point = fresh
		return fresh, err
	})
	return point, err
}

func (s *CachedSource) GetAllSectors(ctx context.Context) ([]contracts.Sector, error) {
	var sectors []contracts.Sector
	err := s.readThrough(ctx, redis.SectorListKey(), redis.TTLLong, &sectors, func() (interface{}, error) {
		fresh, err := s.upstream.GetAllSectors(ctx)
		sectors = fresh
		return fresh, err
	})
	return sectors, err
}

func (s *CachedSource) GetStockSector(ctx context.Context, symbol string) (int, error) {
	var sectorID int
	err := s.readThrough(ctx, redis.StockSectorKey(symbol), redis.TTLLong, &sectorID, func() (interface{}, error) {
		fresh, err := s.upstream.GetStockSector(ctx, symbol)
		sectorID = fresh
		return fresh, err
	})
	return sectorID, err
}

// readThrough fills dest from the cache, or calls load (which must also fill dest) and
// stores its result
func (s *CachedSource) readThrough(ctx context.Context, key string, ttl time.Duration, dest interface{}, load func() (interface{}, error)) error {
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
	}
	if found {
		return nil
	}

	value, err := load()
	if err != nil {
		return err
	}

	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
	return nil
}
