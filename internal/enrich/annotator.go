package enrich

import (
	"math"

	"github.com/wonny/screener/backend/internal/contracts"
)

// Annotate joins one stock with its price series. It is a pure transform:
// neither argument is modified and the series may arrive in any order.
func Annotate(stock contracts.StockFundamentals, series []contracts.PricePoint) contracts.EnrichedStock {
	out := contracts.EnrichedStock{
		StockFundamentals: stock,
		MarketCap:         marketCap(stock),
		DayChangePct:      dayChange(stock),
		Returns:           emptyReturns(),
	}

	if len(series) == 0 {
		return out
	}

	sorted := make([]contracts.PricePoint, len(series))
	copy(sorted, series)
	contracts.SortNewestFirst(sorted)

	current := sorted[0].Close
	if current == nil {
		current = stock.CurrentPrice
	}

	for _, p := range contracts.Periods {
		out.Returns[p.Key] = PercentReturn(current, Lookback(sorted, p.Days))
	}
	return out
}

// AnnotateWithoutPrices builds the degraded record kept when a symbol's history failed to load
func AnnotateWithoutPrices(stock contracts.StockFundamentals, cause error) contracts.EnrichedStock {
	out := Annotate(stock, nil)
	if cause != nil {
		out.PriceError = cause.Error()
	}
	return out
}

func emptyReturns() map[string]*float64 {
	m := make(map[string]*float64, len(contracts.Periods))
	for _, p := range contracts.Periods {
		m[p.Key] = nil
	}
	return m
}

func marketCap(s contracts.StockFundamentals) *float64 {
	if s.SharesOutstanding == nil || s.CurrentPrice == nil {
		return nil
	}
	return finite(*s.SharesOutstanding * *s.CurrentPrice)
}

func dayChange(s contracts.StockFundamentals) *float64 {
	if s.CurrentPrice == nil || s.PreviousClose == nil || *s.PreviousClose == 0 {
		return nil
	}
	return finite((*s.CurrentPrice / *s.PreviousClose - 1) * 100)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
