package contracts

import (
	"context"

	"github.com/shopspring/decimal"
)

// Portfolio is a user's named set of holdings, without the holdings
type Portfolio struct {
	ID        int    `json:"portfolio_id"`
	UserID    int    `json:"user_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Holding is a position in a portfolio at the price it was bought on average
type Holding struct {
	ID           int                 `json:"holding_id"`
	PortfolioID  int                 `json:"portfolio_id"`
	Symbol       string              `json:"stock_symbol"`
	Name         string              `json:"name,omitempty"`
	Quantity     decimal.Decimal     `json:"quantity"`
	AveragePrice decimal.NullDecimal `json:"average_price"`
}

// PortfolioSource reads portfolios and their holdings
type PortfolioSource interface {
	GetPortfolio(ctx context.Context, portfolioID int) (Portfolio, error)
	GetUserPortfolios(ctx context.Context, userID int) ([]Portfolio, error)
	GetPortfolioHoldings(ctx context.Context, portfolioID int) ([]Holding, error)
}

// StockSectorSource returns the sector id a symbol belongs to
type StockSectorSource interface {
	GetStockSector(ctx context.Context, symbol string) (int, error)
}
