package screen

import (
	"github.com/wonny/screener/backend/internal/contracts"
)

// Format tells a renderer how to print a column value
type Format string

const (
	FormatText      Format = "text"
	FormatPrice     Format = "price"
	FormatPercent   Format = "percent"  // already a percentage
	FormatFraction  Format = "fraction" // ratio shown as a percentage
	FormatVolume    Format = "volume"
	FormatMarketCap Format = "marketCap"
	FormatRatio     Format = "ratio"
)

// Column describes one rendered column
type Column struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Numeric bool   `json:"numeric"`
	Format  Format `json:"format"`
}

// anchorColumn is the first period column; optional columns are inserted before it
const anchorColumn = "1_week"

var baseColumns = func() []Column {
	cols := []Column{
		{Key: contracts.FieldSymbol, Label: "Symbol", Format: FormatText},
		{Key: contracts.FieldPrice, Label: "Price", Numeric: true, Format: FormatPrice},
		{Key: contracts.FieldDayChange, Label: "Day Change %", Numeric: true, Format: FormatPercent},
		{Key: contracts.FieldVolume, Label: "Volume", Numeric: true, Format: FormatVolume},
		{Key: contracts.FieldMarketCap, Label: "Market Cap", Numeric: true, Format: FormatMarketCap},
	}
	for _, p := range contracts.Periods {
		cols = append(cols, Column{Key: p.Key, Label: p.Label, Numeric: true, Format: FormatPercent})
	}
	return cols
}()

// BaseColumns returns the always-present columns in display order
func BaseColumns() []Column {
	out := make([]Column, len(baseColumns))
	copy(out, baseColumns)
	return out
}

func baseColumn(key string) Column {
	for _, c := range baseColumns {
		if c.Key == key {
			return c
		}
	}
	return Column{Key: key, Label: key, Numeric: true, Format: FormatRatio}
}

// ColumnByKey looks a column up among the base columns and the registry
func ColumnByKey(key string) (Column, bool) {
	for _, c := range baseColumns {
		if c.Key == key {
			return c, true
		}
	}
	for _, m := range Registry {
		if m.Column.Key == key {
			return m.Column, true
		}
	}
	return Column{}, false
}

// Projector derives the visible column list from the filter state
type Projector struct {
	metrics []Metric
}

// NewProjector creates a projector over the given registry (nil means Registry)
func NewProjector(metrics []Metric) *Projector {
	if metrics == nil {
		metrics = Registry
	}
	return &Projector{metrics: metrics}
}

// Project returns the base columns plus one column per filtered metric, inserted before the
// first period column in registry order. The result depends only on the filter state.
func (p *Projector) Project(state FilterState) []Column {
	cols := BaseColumns()

	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c.Key] = true
	}

	insertAt := len(cols)
	for i, c := range cols {
		if c.Key == anchorColumn {
			insertAt = i
			break
		}
	}

	for _, m := range p.metrics {
		if !state.Get(m.Key).Active() || present[m.Column.Key] {
			continue
		}
		cols = append(cols, Column{})
		copy(cols[insertAt+1:], cols[insertAt:])
		cols[insertAt] = m.Column
		present[m.Column.Key] = true
		insertAt++
	}

	return cols
}
