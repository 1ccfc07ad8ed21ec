package stockapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/httputil"
	"github.com/wonny/screener/backend/pkg/logger"
)

// historyPadding widens the price-range request so the longest lookback still finds a
// neighbour when the exact anniversary fell on a non-trading day
const historyPadding = 14 * 24 * time.Hour

// Client talks to the stock-data REST service under /api/stocks
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new stock service client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("stockapi"),
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/stocks",
		now:        time.Now,
	}
}

func (c *Client) url(path ...string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + strings.Join(parts, "/")
}

// GetAllStocksDetailed returns every stock with its fundamentals
func (c *Client) GetAllStocksDetailed(ctx context.Context) ([]contracts.StockFundamentals, error) {
	var stocks []contracts.StockFundamentals
	if err := c.httpClient.GetJSON(ctx, c.url("stocks-all", "x"), &stocks); err != nil {
		return nil, fmt.Errorf("failed to fetch stock list: %w", err)
	}

	for i := range stocks {
		stocks[i].Symbol = strings.ToUpper(strings.TrimSpace(stocks[i].Symbol))
	}

	c.logger.WithField("count", len(stocks)).Debug("Fetched stock list")
	return stocks, nil
}

type priceRangeRequest struct {
	Symbol    string `json:"stock_symbol"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// GetPriceHistory returns the closes covering the longest lookback window, newest first
func (c *Client) GetPriceHistory(ctx context.Context, symbol string) ([]contracts.PricePoint, error) {
	end := c.now()
	start := end.AddDate(0, 0, -contracts.MaxLookbackDays).Add(-historyPadding)

	return c.GetPriceRange(ctx, symbol, start, end)
}

// GetPriceRange returns the closes of symbol between start and end inclusive, newest first
func (c *Client) GetPriceRange(ctx context.Context, symbol string, start, end time.Time) ([]contracts.PricePoint, error) {
	req := priceRangeRequest{
		Symbol:    strings.ToUpper(symbol),
		StartDate: start.Format(contracts.DateLayout),
		EndDate:   end.Format(contracts.DateLayout),
	}

	var points []contracts.PricePoint
	if err := c.httpClient.PostJSONInto(ctx, c.url("prices-range"), req, &points); err != nil {
		return nil, fmt.Errorf("failed to fetch prices for %s: %w", req.Symbol, err)
	}

	contracts.SortNewestFirst(points)
	return points, nil
}

// GetLatestPrice returns the most recent close of symbol
func (c *Client) GetLatestPrice(ctx context.Context, symbol string) (contracts.PricePoint, error) {
	var point contracts.PricePoint
	if err := c.httpClient.GetJSON(ctx, c.url(strings.ToUpper(symbol), "price"), &point); err != nil {
		return contracts.PricePoint{}, fmt.Errorf("failed to fetch latest price for %s: %w", symbol, err)
	}
	return point, nil
}

// SearchStocks matches query against symbols and names. No match is an empty result.
func (c *Client) SearchStocks(ctx context.Context, query string) ([]contracts.StockSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []contracts.StockSummary{}, nil
	}

	var results []contracts.StockSummary
	err := c.httpClient.GetJSON(ctx, c.url("search", query), &results)
	if errors.Is(err, contracts.ErrNotFound) {
		return []contracts.StockSummary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search stocks: %w", err)
	}
	if results == nil {
		results = []contracts.StockSummary{}
	}
	return results, nil
}

// GetAllSectors returns the sector list
func (c *Client) GetAllSectors(ctx context.Context) ([]contracts.Sector, error) {
	var sectors []contracts.Sector
	if err := c.httpClient.GetJSON(ctx, c.url("sectors-all", "x"), &sectors); err != nil {
		return nil, fmt.Errorf("failed to fetch sectors: %w", err)
	}
	return sectors, nil
}

// GetStockSector returns the sector id of symbol
func (c *Client) GetStockSector(ctx context.Context, symbol string) (int, error) {
	var payload struct {
		SectorID int `json:"sector_id"`
	}
	if err := c.httpClient.GetJSON(ctx, c.url("sector", strings.ToUpper(symbol)), &payload); err != nil {
		return 0, fmt.Errorf("failed to fetch sector of %s: %w", symbol, err)
	}
	return payload.SectorID, nil
}

// GetPortfolio returns one portfolio without its holdings
func (c *Client) GetPortfolio(ctx context.Context, portfolioID int) (contracts.Portfolio, error) {
	var p contracts.Portfolio
	if err := c.httpClient.GetJSON(ctx, c.url("portfolios", strconv.Itoa(portfolioID)), &p); err != nil {
		return contracts.Portfolio{}, fmt.Errorf("failed to fetch portfolio %d: %w", portfolioID, err)
	}
	return p, nil
}

// GetUserPortfolios returns every portfolio the user owns
func (c *Client) GetUserPortfolios(ctx context.Context, userID int) ([]contracts.Portfolio, error) {
	var portfolios []contracts.Portfolio
	if err := c.httpClient.GetJSON(ctx, c.url("portfolios", "user", strconv.Itoa(userID)), &portfolios); err != nil {
		return nil, fmt.Errorf("failed to fetch portfolios of user %d: %w", userID, err)
	}
	return portfolios, nil
}

// GetPortfolioHoldings returns the holdings of one portfolio
func (c *Client) GetPortfolioHoldings(ctx context.Context, portfolioID int) ([]contracts.Holding, error) {
	var holdings []contracts.Holding
	if err := c.httpClient.GetJSON(ctx, c.url("portfolios", strconv.Itoa(portfolioID), "holdings"), &holdings); err != nil {
		return nil, fmt.Errorf("failed to fetch holdings of portfolio %d: %w", portfolioID, err)
	}
	for i := range holdings {
		holdings[i].Symbol = strings.ToUpper(strings.TrimSpace(holdings[i].Symbol))
	}
	return holdings, nil
}
