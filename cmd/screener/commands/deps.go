package commands

import (
	"context"
	"fmt"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/data/repos"
	"github.com/wonny/screener/backend/internal/enrich"
	"github.com/wonny/screener/backend/internal/external/stockapi"
	"github.com/wonny/screener/backend/internal/portfolio"
	"github.com/wonny/screener/backend/pkg/config"
	"github.com/wonny/screener/backend/pkg/database"
	"github.com/wonny/screener/backend/pkg/httputil"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/redis"
)

// priceSource is what the loader, alerts, portfolio valuation and stock endpoints read
// prices and sectors from
type priceSource interface {
	contracts.PriceHistorySource
	contracts.LatestPriceSource
	contracts.SectorSource
	contracts.StockSectorSource
}

// deps holds the collaborators shared by every command
type deps struct {
	cfg    *config.Config
	log    *logger.Logger
	redis  *redis.Client
	db     *database.DB
	stocks *stockapi.Client
	cached *stockapi.CachedSource
	prices priceSource
}

// newDeps loads config and connects to the stock service, Redis and, for the db price
// source, PostgreSQL
func newDeps(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	httpClient := httputil.New(cfg, log).
		Named("stockapi").
		WithLocalLimit(cfg.StockAPI.Rate, cfg.StockAPI.Burst).
		WithRateLimiter(redis.NewRateLimiter(rdb, "screener"), redis.StockAPIRateLimit)

	stocks := stockapi.NewClient(httpClient, cfg.StockAPI.BaseURL, log)
	cached := stockapi.NewCachedSource(stocks, redis.NewCache(rdb, "screener"), log)

	d := &deps{
		cfg:    cfg,
		log:    log,
		redis:  rdb,
		stocks: stocks,
		cached: cached,
		prices: cached,
	}

	if cfg.Screener.PriceSource == config.PriceSourceDB {
		db, err := database.New(ctx, cfg)
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		d.db = db
		d.prices = repos.NewPriceRepository(db.Pool)
		log.Info("Reading prices from the stock service database")
	}

	return d, nil
}

// loader builds the enrichment loader over the configured sources
func (d *deps) loader() *enrich.Loader {
	return enrich.NewLoader(d.cached, d.prices, enrich.Config{Workers: d.cfg.Screener.Workers}, d.log)
}

// valuator values portfolios read from the stock service at the configured prices
func (d *deps) valuator() *portfolio.Valuator {
	return portfolio.NewValuator(portfolio.Sources{
		Portfolios:   d.stocks,
		Prices:       d.prices,
		Sectors:      d.prices,
		StockSectors: d.prices,
	}, d.cfg.Screener.Workers, d.log)
}

// Close releases connections
func (d *deps) Close() {
	if d.db != nil {
		d.db.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}
