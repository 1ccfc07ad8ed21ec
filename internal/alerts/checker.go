package alerts

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/logger"
)

// Alert is a watchlist item whose latest price is near its target
type Alert struct {
	UserID      int             `json:"user_id"`
	WatchlistID int             `json:"watchlist_id"`
	ItemID      int             `json:"item_id"`
	Symbol      string          `json:"stock_symbol"`
	Target      decimal.Decimal `json:"target_price"`
	Price       decimal.Decimal `json:"current_price"`
}

// Message is the notification text users already receive from the watchlist service
func (a Alert) Message() string {
	return fmt.Sprintf("Stock Alert: %s is near your target price of %s! Current price: %s",
		a.Symbol, a.Target.StringFixed(2), a.Price.StringFixed(2))
}

// Near reports whether price is within tolerance (a fraction) of target
func Near(price, target, tolerance decimal.Decimal) bool {
	if !target.IsPositive() {
		return false
	}
	distance := price.Sub(target).Abs().Div(target)
	return distance.LessThanOrEqual(tolerance)
}

// Checker evaluates a user's watchlist alert prices against latest closes
type Checker struct {
	watchlists contracts.WatchlistSource
	prices     contracts.LatestPriceSource
	tolerance  decimal.Decimal
	logger     *logger.Logger
}

// NewChecker creates a checker. tolerance is a fraction, 0.01 meaning 1%.
func NewChecker(watchlists contracts.WatchlistSource, prices contracts.LatestPriceSource, tolerance float64, log *logger.Logger) *Checker {
	return &Checker{
		watchlists: watchlists,
		prices:     prices,
		tolerance:  decimal.NewFromFloat(tolerance),
		logger:     log.WithComponent("alerts"),
	}
}

// Check returns the alerts currently triggered for userID.
// A symbol whose price cannot be fetched is skipped.
func (c *Checker) Check(ctx context.Context, userID int) ([]Alert, error) {
	lists, err := c.watchlists.GetUserWatchlists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlists: %w", err)
	}

	prices := make(map[string]*decimal.Decimal)
	var alerts []Alert

	for _, list := range lists {
		for _, item := range list.Items {
			if !item.AlertPrice.Valid {
				continue
			}

			price, seen := prices[item.Symbol]
			if !seen {
				price = c.latest(ctx, item.Symbol)
				prices[item.Symbol] = price
			}
			if price == nil {
				continue
			}

			if Near(*price, item.AlertPrice.Decimal, c.tolerance) {
				alerts = append(alerts, Alert{
					UserID:      userID,
					WatchlistID: list.ID,
					ItemID:      item.ItemID,
					Symbol:      item.Symbol,
					Target:      item.AlertPrice.Decimal,
					Price:       *price,
				})
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"user_id":   userID,
		"symbols":   len(prices),
		"triggered": len(alerts),
	}).Debug("Alert check completed")

	return alerts, nil
}

func (c *Checker) latest(ctx context.Context, symbol string) *decimal.Decimal {
	p, err := c.prices.GetLatestPrice(ctx, symbol)
	if err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Latest price unavailable, alert skipped")
		return nil
	}
	if p.Close == nil {
		return nil
	}
	d := decimal.NewFromFloat(*p.Close)
	return &d
}
