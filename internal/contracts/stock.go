package contracts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of PricePoint dates
const DateLayout = "2006-01-02"

// StockFundamentals is one row of the detailed stock list.
// JSON names follow the stock service payload. Every numeric is optional.
type StockFundamentals struct {
	Symbol   string `json:"stock_symbol"`
	Name     string `json:"name"`
	SectorID int    `json:"sector_id"`

	SharesOutstanding *float64 `json:"sharesOutstanding"`
	CurrentPrice      *float64 `json:"currentPrice"`
	PreviousClose     *float64 `json:"previousClose"`
	Volume            *float64 `json:"regularMarketVolume"`
	ReportedMarketCap *float64 `json:"marketCap,omitempty"`

	// Valuation
	TrailingPE          *float64 `json:"trailingPE"`
	ForwardPE           *float64 `json:"forwardPE,omitempty"`
	PriceToSales        *float64 `json:"priceToSalesTrailing12Months"`
	PriceToBook         *float64 `json:"priceToBook"`
	EnterpriseToEbitda  *float64 `json:"enterpriseToEbitda"`
	EnterpriseToRevenue *float64 `json:"enterpriseToRevenue,omitempty"`

	// Margins
	ProfitMargins    *float64 `json:"profitMargins"`
	OperatingMargins *float64 `json:"operatingMargins"`
	GrossMargins     *float64 `json:"grossMargins"`
	EbitdaMargins    *float64 `json:"ebitdaMargins,omitempty"`

	// Performance
	ReturnOnAssets *float64 `json:"returnOnAssets"`
	ReturnOnEquity *float64 `json:"returnOnEquity"`

	// Balance sheet
	DebtToEquity *float64 `json:"debtToEquity"`
	CurrentRatio *float64 `json:"currentRatio"`
	QuickRatio   *float64 `json:"quickRatio"`

	// Other
	Beta           *float64 `json:"beta,omitempty"`
	DividendYield  *float64 `json:"dividendYield,omitempty"`
	PayoutRatio    *float64 `json:"payoutRatio,omitempty"`
	EarningsGrowth *float64 `json:"earningsGrowth,omitempty"`
	RevenueGrowth  *float64 `json:"revenueGrowth,omitempty"`
	BookValue      *float64 `json:"bookValue,omitempty"`
	TrailingEps    *float64 `json:"trailingEps,omitempty"`
}

// EnrichedStock is a StockFundamentals row plus the values derived from it and its price series
type EnrichedStock struct {
	StockFundamentals

	MarketCap    *float64            `json:"market_cap"`
	DayChangePct *float64            `json:"regularMarketChangePercent"`
	Returns      map[string]*float64 `json:"returns"`

	// PriceError is set when the price history could not be loaded and every return is blank
	PriceError string `json:"price_error,omitempty"`
}

// Field keys used by columns, filters and sorting
const (
	FieldSymbol       = "stock_symbol"
	FieldName         = "name"
	FieldPrice        = "currentPrice"
	FieldDayChange    = "regularMarketChangePercent"
	FieldVolume       = "regularMarketVolume"
	FieldMarketCap    = "market_cap"
	FieldTrailingPE   = "trailingPE"
	FieldPriceToSales = "priceToSalesTrailing12Months"
	FieldPriceToBook  = "priceToBook"
	FieldEVToEbitda   = "enterpriseToEbitda"
	FieldNetMargin    = "profitMargins"
	FieldOpMargin     = "operatingMargins"
	FieldGrossMargin  = "grossMargins"
	FieldROA          = "returnOnAssets"
	FieldROE          = "returnOnEquity"
	FieldDebtToEquity = "debtToEquity"
	FieldCurrentRatio = "currentRatio"
	FieldQuickRatio   = "quickRatio"
)

// Number returns the numeric value stored under key.
// ok is false when key does not name a numeric field; a nil value with ok=true means "missing".
func (s *EnrichedStock) Number(key string) (v *float64, ok bool) {
	switch key {
	case FieldPrice:
		return s.CurrentPrice, true
	case FieldDayChange:
		return s.DayChangePct, true
	case FieldVolume:
		return s.Volume, true
	case FieldMarketCap:
		return s.MarketCap, true
	case FieldTrailingPE:
		return s.TrailingPE, true
	case FieldPriceToSales:
		return s.PriceToSales, true
	case FieldPriceToBook:
		return s.PriceToBook, true
	case FieldEVToEbitda:
		return s.EnterpriseToEbitda, true
	case FieldNetMargin:
		return s.ProfitMargins, true
	case FieldOpMargin:
		return s.OperatingMargins, true
	case FieldGrossMargin:
		return s.GrossMargins, true
	case FieldROA:
		return s.ReturnOnAssets, true
	case FieldROE:
		return s.ReturnOnEquity, true
	case FieldDebtToEquity:
		return s.DebtToEquity, true
	case FieldCurrentRatio:
		return s.CurrentRatio, true
	case FieldQuickRatio:
		return s.QuickRatio, true
	}

	if p, found := PeriodByKey(key); found {
		return s.Returns[p.Key], true
	}
	return nil, false
}

// Text returns the string value stored under key
func (s *EnrichedStock) Text(key string) (string, bool) {
	switch key {
	case FieldSymbol:
		return s.Symbol, true
	case FieldName:
		return s.Name, true
	}
	return "", false
}

// PricePoint is one close price of a symbol on a date
type PricePoint struct {
	Symbol string
	Date   time.Time // zero when the source did not provide one
	Close  *float64
}

type pricePointJSON struct {
	Symbol string              `json:"stock_symbol"`
	Date   string              `json:"date"`
	Close  decimal.NullDecimal `json:"close_price"`
}

// UnmarshalJSON accepts close_price as a JSON number, a numeric string or null
func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var raw pricePointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Symbol = strings.ToUpper(raw.Symbol)
	p.Date = time.Time{}
	if raw.Date != "" {
		// Accept both "2025-01-24" and full timestamps
		d, err := time.Parse(DateLayout, raw.Date[:min(len(raw.Date), len(DateLayout))])
		if err != nil {
			return fmt.Errorf("price point %s: bad date %q: %w", raw.Symbol, raw.Date, err)
		}
		p.Date = d
	}

	p.Close = nil
	if raw.Close.Valid {
		f := raw.Close.Decimal.InexactFloat64()
		p.Close = &f
	}
	return nil
}

// MarshalJSON writes the stock service shape back out
func (p PricePoint) MarshalJSON() ([]byte, error) {
	raw := pricePointJSON{Symbol: p.Symbol}
	if !p.Date.IsZero() {
		raw.Date = p.Date.Format(DateLayout)
	}
	if p.Close != nil {
		raw.Close = decimal.NewNullDecimal(decimal.NewFromFloat(*p.Close))
	}
	return json.Marshal(raw)
}

// SortNewestFirst orders a series by date descending. Undated points keep their relative order.
func SortNewestFirst(series []PricePoint) {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.After(series[j].Date)
	})
}

// Float returns a pointer to v. Handy for literals in tests and fixtures.
func Float(v float64) *float64 {
	return &v
}
