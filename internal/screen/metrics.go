package screen

import (
	"math"

	"github.com/wonny/screener/backend/internal/contracts"
)

// Category groups metrics the way the filter dialog does
type Category string

const (
	CategoryBasic         Category = "basic"
	CategoryProfitability Category = "profitability"
	CategoryMargins       Category = "margins"
	CategoryPerformance   Category = "performance"
	CategoryBalanceSheet  Category = "balanceSheet"
)

// Metric ties a filterable field to its filter keys and to the column shown while it is filtered
type Metric struct {
	Key      string
	Category Category
	Field    string // EnrichedStock field key
	MinKey   string
	MaxKey   string

	// MinSentinel is the legacy "unset" value of the min key: 0 for naturally non-negative
	// fields, -Inf otherwise. The legacy max sentinel is always +Inf.
	MinSentinel float64

	// Column is shown while the metric is filtered. Base metrics reuse their base column.
	Column Column
}

// Registry is the declarative filter-to-column table, in filter dialog order
var Registry = []Metric{
	{Key: "price", Category: CategoryBasic, Field: contracts.FieldPrice, MinKey: "minPrice", MaxKey: "maxPrice",
		Column: baseColumn(contracts.FieldPrice)},
	{Key: "marketCap", Category: CategoryBasic, Field: contracts.FieldMarketCap, MinKey: "minMarketCap", MaxKey: "maxMarketCap",
		Column: baseColumn(contracts.FieldMarketCap)},
	{Key: "volume", Category: CategoryBasic, Field: contracts.FieldVolume, MinKey: "minVolume", MaxKey: "maxVolume",
		Column: baseColumn(contracts.FieldVolume)},
	{Key: "dayChange", Category: CategoryBasic, Field: contracts.FieldDayChange, MinKey: "minDayChange", MaxKey: "maxDayChange",
		MinSentinel: math.Inf(-1), Column: baseColumn(contracts.FieldDayChange)},

	{Key: "priceToEarnings", Category: CategoryProfitability, Field: contracts.FieldTrailingPE,
		MinKey: "minPriceToEarnings", MaxKey: "maxPriceToEarnings",
		Column: Column{Key: contracts.FieldTrailingPE, Label: "P/E", Numeric: true, Format: FormatRatio}},
	{Key: "priceToSales", Category: CategoryProfitability, Field: contracts.FieldPriceToSales,
		MinKey: "minPriceToSales", MaxKey: "maxPriceToSales", MinSentinel: math.Inf(-1),
		Column: Column{Key: contracts.FieldPriceToSales, Label: "P/S", Numeric: true, Format: FormatRatio}},
	{Key: "priceToBook", Category: CategoryProfitability, Field: contracts.FieldPriceToBook,
		MinKey: "minPriceToBook", MaxKey: "maxPriceToBook", MinSentinel: math.Inf(-1),
		Column: Column{Key: contracts.FieldPriceToBook, Label: "P/B", Numeric: true, Format: FormatRatio}},
	{Key: "priceToEbitda", Category: CategoryProfitability, Field: contracts.FieldEVToEbitda,
		MinKey: "minPriceToEbitda", MaxKey: "maxPriceToEbitda", MinSentinel: math.Inf(-1),
		Column: Column{Key: contracts.FieldEVToEbitda, Label: "EV/EBITDA", Numeric: true, Format: FormatRatio}},

	{Key: "netProfitMargin", Category: CategoryMargins, Field: contracts.FieldNetMargin,
		MinKey: "minNetProfitMargin", MaxKey: "maxNetProfitMargin", MinSentinel: math.Inf(-1),
		Column: Column{Key: contracts.FieldNetMargin, Label: "Net Profit Margin", Numeric: true, Format: FormatFraction}},
	{Key: "operatingMargin", Category: CategoryMargins, Field: contracts.FieldOpMargin,
		MinKey: "minOperatingMargin", MaxKey: "maxOperatingMargin", MinSentinel: math.Inf(-1),
		Column: Column{Key: contracts.FieldOpMargin, Label: "Operating Margin", Numeric: true, Format: FormatFraction}},
	{Key: "grossProfitMargin", Category: CategoryMargins, Field: contracts.FieldGrossMargin,
		MinKey: "minGrossProfitMargin", MaxKey: "maxGrossProfitMargin", MinSentinel: math.Inf(-1),
		Column: Column{Key: contracts.FieldGrossMargin, Label: "Gross Profit Margin", Numeric: true, Format: FormatFraction}},

	{Key: "returnOnAssets", Category: CategoryPerformance, Field: contracts.FieldROA,
		MinKey: "minReturnOnAssets", MaxKey: "maxReturnOnAssets", MinSentinel: math.Inf(-1),
		Column: Column{Key: contracts.FieldROA, Label: "Return on Assets", Numeric: true, Format: FormatFraction}},
	{Key: "returnOnEquity", Category: CategoryPerformance, Field: contracts.FieldROE,
		MinKey: "minReturnOnEquity", MaxKey: "maxReturnOnEquity", MinSentinel: math.Inf(-1),
		Column: Column{Key: contracts.FieldROE, Label: "Return on Equity", Numeric: true, Format: FormatFraction}},

	{Key: "debtToEquity", Category: CategoryBalanceSheet, Field: contracts.FieldDebtToEquity,
		MinKey: "minDebtToEquity", MaxKey: "maxDebtToEquity", MinSentinel: math.Inf(-1),
		Column: Column{Key: contracts.FieldDebtToEquity, Label: "Debt to Equity", Numeric: true, Format: FormatRatio}},
	{Key: "currentRatio", Category: CategoryBalanceSheet, Field: contracts.FieldCurrentRatio,
		MinKey: "minCurrentRatio", MaxKey: "maxCurrentRatio", MinSentinel: math.Inf(-1),
		Column: Column{Key: contracts.FieldCurrentRatio, Label: "Current Ratio", Numeric: true, Format: FormatRatio}},
	{Key: "quickRatio", Category: CategoryBalanceSheet, Field: contracts.FieldQuickRatio,
		MinKey: "minQuickRatio", MaxKey: "maxQuickRatio", MinSentinel: math.Inf(-1),
		Column: Column{Key: contracts.FieldQuickRatio, Label: "Quick Ratio", Numeric: true, Format: FormatRatio}},
}

// MetricByKey finds a registry entry by metric key
func MetricByKey(key string) (Metric, bool) {
	for _, m := range Registry {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// metricForFilterKey resolves a legacy filter key such as "maxDebtToEquity"
func metricForFilterKey(filterKey string) (m Metric, isMin bool, ok bool) {
	for _, m := range Registry {
		switch filterKey {
		case m.MinKey:
			return m, true, true
		case m.MaxKey:
			return m, false, true
		}
	}
	return Metric{}, false, false
}
