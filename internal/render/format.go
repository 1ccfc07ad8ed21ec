package render

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/screen"
)

// Missing is printed for values that are not available
const Missing = "N/A"

var printer = message.NewPrinter(language.English)

// FormatValue renders a numeric value for a column
func FormatValue(col screen.Column, v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Missing
	}

	switch col.Format {
	case screen.FormatMarketCap:
		return fmt.Sprintf("%.1fB", *v/1e9)
	case screen.FormatVolume:
		return printer.Sprintf("%.0f", *v)
	case screen.FormatPrice:
		return printer.Sprintf("%.2f", *v)
	case screen.FormatPercent:
		return fmt.Sprintf("%.2f%%", *v)
	case screen.FormatFraction:
		return fmt.Sprintf("%.2f%%", *v*100)
	default:
		return fmt.Sprintf("%.2f", *v)
	}
}

// FormatCell renders the value of col for one record
func FormatCell(col screen.Column, rec *contracts.EnrichedStock) string {
	if s, ok := rec.Text(col.Key); ok {
		if s == "" {
			return Missing
		}
		return s
	}
	v, ok := rec.Number(col.Key)
	if !ok {
		return Missing
	}
	return FormatValue(col, v)
}

// Cells renders every row as a column-key to text map
func Cells(res screen.Result) []map[string]string {
	out := make([]map[string]string, len(res.Rows))
	for i := range res.Rows {
		row := make(map[string]string, len(res.Columns))
		for _, col := range res.Columns {
			row[col.Key] = FormatCell(col, &res.Rows[i])
		}
		out[i] = row
	}
	return out
}
