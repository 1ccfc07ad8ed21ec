package render

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/screen"
)

func col(key string) screen.Column {
	c, ok := screen.ColumnByKey(key)
	if !ok {
		panic("unknown column " + key)
	}
	return c
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		col  screen.Column
		v    *float64
		want string
	}{
		{"missing", col("currentPrice"), nil, "N/A"},
		{"nan", col("currentPrice"), contracts.Float(math.NaN()), "N/A"},
		{"market cap", col("market_cap"), contracts.Float(73_000_000_000), "73.0B"},
		{"small market cap", col("market_cap"), contracts.Float(460_000_000), "0.5B"},
		{"volume grouping", col("regularMarketVolume"), contracts.Float(12345678), "12,345,678"},
		{"price", col("currentPrice"), contracts.Float(1234.5), "1,234.50"},
		{"percent", col("1_week"), contracts.Float(-3.14159), "-3.14%"},
		{"flat percent", col("regularMarketChangePercent"), contracts.Float(0), "0.00%"},
		{"fraction", col("returnOnEquity"), contracts.Float(0.1834), "18.34%"},
		{"ratio", col("debtToEquity"), contracts.Float(1.5), "1.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.col, tt.v))
		})
	}
}

func sampleResult() screen.Result {
	a := contracts.EnrichedStock{Returns: map[string]*float64{"1_week": contracts.Float(2.5)}}
	a.Symbol = "THYAO"
	a.CurrentPrice = contracts.Float(314.5)
	a.MarketCap = contracts.Float(434e9)

	b := contracts.EnrichedStock{Returns: map[string]*float64{}}
	b.Symbol = "ORGE"

	fs := screen.FilterState{"debtToEquity": {Max: contracts.Float(2)}}
	return screen.Result{
		State:   screen.StateReady,
		Columns: screen.NewProjector(nil).Project(fs),
		Rows:    []contracts.EnrichedStock{a, b},
		Total:   5,
		Sort:    screen.DefaultSort(),
		Filters: fs.Values(),
	}
}

func TestCells(t *testing.T) {
	cells := Cells(sampleResult())
	require.Len(t, cells, 2)

	assert.Equal(t, "THYAO", cells[0]["stock_symbol"])
	assert.Equal(t, "314.50", cells[0]["currentPrice"])
	assert.Equal(t, "434.0B", cells[0]["market_cap"])
	assert.Equal(t, "2.50%", cells[0]["1_week"])
	assert.Equal(t, "N/A", cells[0]["debtToEquity"])
	assert.Equal(t, "N/A", cells[1]["5_years"])
	assert.Len(t, cells[0], 12)
}

func TestTableRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableRenderer{}).Render(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "THYAO")
	assert.Contains(t, out, "Debt to Equity")
	assert.Contains(t, out, "Price ▼")
	assert.Contains(t, out, "2 of 5")
	assert.Contains(t, out, "Filters: maxDebtToEquity=2")
	assert.Less(t, strings.Index(out, "Debt to Equity"), strings.Index(out, "1 Week %"))
}

func TestTableRenderer_States(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableRenderer{}).Render(&buf, screen.Result{State: screen.StateError, Error: "stock list unavailable"}))
	assert.Equal(t, "Error: stock list unavailable\n", buf.String())

	buf.Reset()
	require.NoError(t, (&TableRenderer{}).Render(&buf, screen.Result{State: screen.StateLoading}))
	assert.Equal(t, "Loading...\n", buf.String())
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New("json", false).Render(&buf, sampleResult()))

	var got jsonModel
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, screen.StateReady, got.State)
	assert.Len(t, got.Columns, 12)
	assert.Equal(t, "434.0B", got.Rows[0]["market_cap"])
	assert.Equal(t, map[string]float64{"maxDebtToEquity": 2}, got.Filters)
}
