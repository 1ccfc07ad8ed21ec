package screen

import (
	"github.com/wonny/screener/backend/internal/contracts"
)

func f(v float64) *float64 { return contracts.Float(v) }

func stock(symbol string, price *float64) contracts.EnrichedStock {
	s := contracts.EnrichedStock{Returns: map[string]*float64{}}
	s.Symbol = symbol
	s.Name = symbol + " Holding"
	s.CurrentPrice = price
	return s
}

func symbols(records []contracts.EnrichedStock) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Symbol
	}
	return out
}

func columnKeys(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Key
	}
	return out
}

func columnLabels(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Label
	}
	return out
}
