package contracts

import (
	"context"

	"github.com/shopspring/decimal"
)

// StockSource returns the detailed stock list
type StockSource interface {
	GetAllStocksDetailed(ctx context.Context) ([]StockFundamentals, error)
}

// PriceHistorySource returns a symbol's price series, newest first
type PriceHistorySource interface {
	GetPriceHistory(ctx context.Context, symbol string) ([]PricePoint, error)
}

// LatestPriceSource returns a symbol's most recent close
type LatestPriceSource interface {
	GetLatestPrice(ctx context.Context, symbol string) (PricePoint, error)
}

// SearchSource looks stocks up by symbol or name fragment
type SearchSource interface {
	SearchStocks(ctx context.Context, query string) ([]StockSummary, error)
}

// SectorSource lists sectors
type SectorSource interface {
	GetAllSectors(ctx context.Context) ([]Sector, error)
}

// StockSummary is the short stock record returned by search
type StockSummary struct {
	Symbol      string   `json:"stock_symbol"`
	Name        string   `json:"name"`
	SectorID    int      `json:"sector_id"`
	MarketCap   *float64 `json:"market_cap"`
	LastUpdated string   `json:"last_updated,omitempty"`
}

// Sector is one industry sector
type Sector struct {
	ID   int    `json:"sector_id"`
	Name string `json:"name"`
}

// Watchlist is a user's named list of symbols
type Watchlist struct {
	ID     int             `json:"watchlist_id"`
	UserID int             `json:"user_id"`
	Name   string          `json:"name"`
	Items  []WatchlistItem `json:"items"`
}

// WatchlistItem is a symbol on a watchlist with an optional target price
type WatchlistItem struct {
	ItemID      int                 `json:"item_id"`
	WatchlistID int                 `json:"watchlist_id"`
	Symbol      string              `json:"stock_symbol"`
	AlertPrice  decimal.NullDecimal `json:"alert_price"`
	AddedAt     string              `json:"added_at"`
}

// WatchlistSource returns every watchlist a user owns
type WatchlistSource interface {
	GetUserWatchlists(ctx context.Context, userID int) ([]Watchlist, error)
}
