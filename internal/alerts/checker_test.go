package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/logger"
)

type fakeWatchlists struct {
	lists []contracts.Watchlist
	err   error
}

func (f fakeWatchlists) GetUserWatchlists(ctx context.Context, userID int) ([]contracts.Watchlist, error) {
	return f.lists, f.err
}

type fakePrices struct {
	closes map[string]float64
	calls  map[string]int
}

func (f *fakePrices) GetLatestPrice(ctx context.Context, symbol string) (contracts.PricePoint, error) {
	f.calls[symbol]++
	c, ok := f.closes[symbol]
	if !ok {
		return contracts.PricePoint{}, contracts.ErrNotFound
	}
	return contracts.PricePoint{Symbol: symbol, Close: contracts.Float(c)}, nil
}

func item(id int, symbol, target string) contracts.WatchlistItem {
	it := contracts.WatchlistItem{ItemID: id, WatchlistID: 1, Symbol: symbol}
	if target != "" {
		it.AlertPrice = decimal.NewNullDecimal(decimal.RequireFromString(target))
	}
	return it
}

func TestNear(t *testing.T) {
	tol := decimal.NewFromFloat(0.01)
	tests := []struct {
		price, target string
		want          bool
	}{
		{"100", "100", true},
		{"100.99", "100", true},
		{"101", "100", true},
		{"101.01", "100", false},
		{"99", "100", true},
		{"98.9", "100", false},
		{"5", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.price+"/"+tt.target, func(t *testing.T) {
			got := Near(decimal.RequireFromString(tt.price), decimal.RequireFromString(tt.target), tol)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecker_Check(t *testing.T) {
	lists := []contracts.Watchlist{
		{ID: 1, UserID: 9, Items: []contracts.WatchlistItem{
			item(1, "THYAO", "312.50"),
			item(2, "ORGE", ""),
			item(3, "ASELS", "50"),
		}},
		{ID: 2, UserID: 9, Items: []contracts.WatchlistItem{
			item(4, "THYAO", "400"),
			item(5, "GONE", "10"),
		}},
	}
	prices := &fakePrices{
		closes: map[string]float64{"THYAO": 314.5, "ASELS": 60, "ORGE": 1},
		calls:  map[string]int{},
	}

	checker := NewChecker(fakeWatchlists{lists: lists}, prices, 0.01, logger.Nop())
	alerts, err := checker.Check(context.Background(), 9)
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, "THYAO", a.Symbol)
	assert.Equal(t, 1, a.ItemID)
	assert.Equal(t, "Stock Alert: THYAO is near your target price of 312.50! Current price: 314.50", a.Message())

	// one fetch per symbol, none for items without a target
	assert.Equal(t, 1, prices.calls["THYAO"])
	assert.Equal(t, 0, prices.calls["ORGE"])
	assert.Equal(t, 1, prices.calls["GONE"])
}

func TestChecker_WatchlistFailure(t *testing.T) {
	boom := errors.New("watchlist service down")
	checker := NewChecker(fakeWatchlists{err: boom}, &fakePrices{calls: map[string]int{}}, 0.01, logger.Nop())

	_, err := checker.Check(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}
