package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/screener/backend/internal/contracts"
)

// UnknownSector groups holdings whose sector could not be resolved
const UnknownSector = "Unknown"

var hundred = decimal.NewFromInt(100)

// Position is one holding valued at its latest close.
// Every derived amount is null when an operand is missing, never zero.
type Position struct {
	HoldingID     int                 `json:"holding_id"`
	Symbol        string              `json:"stock_symbol"`
	Name          string              `json:"name,omitempty"`
	Quantity      decimal.Decimal     `json:"quantity"`
	AveragePrice  decimal.NullDecimal `json:"average_price"`
	CurrentPrice  decimal.NullDecimal `json:"current_price"`
	PriceDate     string              `json:"price_date,omitempty"`
	MarketValue   decimal.NullDecimal `json:"market_value"`
	Cost          decimal.NullDecimal `json:"cost"`
	ProfitLoss    decimal.NullDecimal `json:"profit_loss"`
	ProfitLossPct *float64            `json:"profit_loss_pct"`
	Weight        *float64            `json:"weight"`
	SectorID      int                 `json:"sector_id"`
	Sector        string              `json:"sector"`
	PriceError    string              `json:"price_error,omitempty"`
}

// Priced reports whether the position has a market value
func (p Position) Priced() bool {
	return p.MarketValue.Valid
}

// SectorAllocation is the share of the portfolio's value held in one sector
type SectorAllocation struct {
	SectorID    int             `json:"sector_id"`
	Sector      string          `json:"sector"`
	Holdings    int             `json:"holdings"`
	MarketValue decimal.Decimal `json:"market_value"`
	Weight      *float64        `json:"weight"`
}

// Summary is a valued portfolio. Totals only cover priced positions; Unpriced counts the rest.
type Summary struct {
	Portfolio          contracts.Portfolio `json:"portfolio"`
	Positions          []Position          `json:"positions"`
	Sectors            []SectorAllocation  `json:"sectors"`
	TotalValue         decimal.Decimal     `json:"total_value"`
	TotalCost          decimal.Decimal     `json:"total_cost"`
	TotalProfitLoss    decimal.Decimal     `json:"total_profit_loss"`
	TotalProfitLossPct *float64            `json:"total_profit_loss_pct"`
	Unpriced           int                 `json:"unpriced"`
	ValuedAt           time.Time           `json:"valued_at"`
}

// Quote is the market data one holding is valued with
type Quote struct {
	Price    *float64
	Date     time.Time
	SectorID int
	Err      error
}

// Compute values holdings with quotes, which must be aligned with holdings by index.
// sectorNames maps sector ids to display names.
func Compute(p contracts.Portfolio, holdings []contracts.Holding, quotes []Quote, sectorNames map[int]string, now time.Time) Summary {
	s := Summary{
		Portfolio: p,
		Positions: make([]Position, len(holdings)),
		Sectors:   []SectorAllocation{},
		ValuedAt:  now,
	}

	for i, h := range holdings {
		var q Quote
		if i < len(quotes) {
			q = quotes[i]
		}
		s.Positions[i] = value(h, q, sectorNames)
	}

	for _, pos := range s.Positions {
		if !pos.Priced() {
			s.Unpriced++
			continue
		}
		s.TotalValue = s.TotalValue.Add(pos.MarketValue.Decimal)
		if pos.ProfitLoss.Valid {
			s.TotalProfitLoss = s.TotalProfitLoss.Add(pos.ProfitLoss.Decimal)
			s.TotalCost = s.TotalCost.Add(pos.Cost.Decimal)
		}
	}
	s.TotalProfitLossPct = percent(s.TotalProfitLoss, s.TotalCost)

	for i := range s.Positions {
		if s.Positions[i].Priced() {
			s.Positions[i].Weight = percent(s.Positions[i].MarketValue.Decimal, s.TotalValue)
		}
	}

	s.Sectors = allocate(s.Positions, s.TotalValue)

	// largest positions first, unpriced last
	sort.SliceStable(s.Positions, func(i, j int) bool {
		a, b := s.Positions[i], s.Positions[j]
		if a.Priced() != b.Priced() {
			return a.Priced()
		}
		return a.MarketValue.Decimal.GreaterThan(b.MarketValue.Decimal)
	})

	return s
}

func value(h contracts.Holding, q Quote, sectorNames map[int]string) Position {
	pos := Position{
		HoldingID:    h.ID,
		Symbol:       h.Symbol,
		Name:         h.Name,
		Quantity:     h.Quantity,
		AveragePrice: h.AveragePrice,
		SectorID:     q.SectorID,
		Sector:       sectorName(q.SectorID, sectorNames),
	}

	if h.AveragePrice.Valid {
		pos.Cost = decimal.NewNullDecimal(h.AveragePrice.Decimal.Mul(h.Quantity))
	}

	if q.Err != nil {
		pos.PriceError = q.Err.Error()
		return pos
	}
	if q.Price == nil || math.IsNaN(*q.Price) || math.IsInf(*q.Price, 0) {
		return pos
	}

	price := decimal.NewFromFloat(*q.Price)
	pos.CurrentPrice = decimal.NewNullDecimal(price)
	if !q.Date.IsZero() {
		pos.PriceDate = q.Date.Format(contracts.DateLayout)
	}
	pos.MarketValue = decimal.NewNullDecimal(price.Mul(h.Quantity))

	if h.AveragePrice.Valid {
		avg := h.AveragePrice.Decimal
		pos.ProfitLoss = decimal.NewNullDecimal(price.Sub(avg).Mul(h.Quantity))
		pos.ProfitLossPct = percent(price.Sub(avg), avg)
	}
	return pos
}

// allocate sums priced market value per sector, largest first
func allocate(positions []Position, total decimal.Decimal) []SectorAllocation {
	index := make(map[string]int)
	out := []SectorAllocation{}

	for _, pos := range positions {
		i, ok := index[pos.Sector]
		if !ok {
			i = len(out)
			index[pos.Sector] = i
			out = append(out, SectorAllocation{SectorID: pos.SectorID, Sector: pos.Sector})
		}
		out[i].Holdings++
		if pos.Priced() {
			out[i].MarketValue = out[i].MarketValue.Add(pos.MarketValue.Decimal)
		}
	}

	for i := range out {
		out[i].Weight = percent(out[i].MarketValue, total)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].MarketValue.Equal(out[j].MarketValue) {
			return out[i].MarketValue.GreaterThan(out[j].MarketValue)
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

func sectorName(id int, names map[int]string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return UnknownSector
}

// percent returns part / whole * 100, or nil when whole is zero
func percent(part, whole decimal.Decimal) *float64 {
	if whole.IsZero() {
		return nil
	}
	f := part.Div(whole).Mul(hundred).InexactFloat64()
	return &f
}
