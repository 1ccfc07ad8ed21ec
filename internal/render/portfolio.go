package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/wonny/screener/backend/internal/portfolio"
)

// FormatMoney renders an amount with two decimals and thousands grouping
func FormatMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return Missing
	}
	return printer.Sprintf("%.2f", d.Decimal.InexactFloat64())
}

func formatPct(v *float64) string {
	if v == nil {
		return Missing
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// PortfolioTable prints valued portfolios: a position table and a sector allocation per portfolio
type PortfolioTable struct {
	Color bool
}

// Render prints every summary, or "No portfolios"
func (r *PortfolioTable) Render(w io.Writer, summaries []portfolio.Summary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No portfolios")
		return err
	}

	for i, s := range summaries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (#%d)\n", s.Portfolio.Name, s.Portfolio.ID)
		r.positions(w, s)
		r.sectors(w, s)
	}
	return nil
}

func (r *PortfolioTable) newWriter(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if r.Color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	return tw
}

func (r *PortfolioTable) positions(w io.Writer, s portfolio.Summary) {
	tw := r.newWriter(w)
	tw.AppendHeader(table.Row{"Symbol", "Quantity", "Avg Price", "Price", "Value", "P/L", "P/L %", "Weight", "Sector"})

	cfgs := make([]table.ColumnConfig, 0, 7)
	for n := 2; n <= 8; n++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.SetColumnConfigs(cfgs)

	for _, p := range s.Positions {
		tw.AppendRow(table.Row{
			p.Symbol,
			p.Quantity.String(),
			FormatMoney(p.AveragePrice),
			FormatMoney(p.CurrentPrice),
			FormatMoney(p.MarketValue),
			r.signed(FormatMoney(p.ProfitLoss), p.ProfitLoss),
			r.signed(formatPct(p.ProfitLossPct), p.ProfitLoss),
			formatPct(p.Weight),
			p.Sector,
		})
	}

	total := decimal.NewNullDecimal(s.TotalValue)
	pl := decimal.NewNullDecimal(s.TotalProfitLoss)
	footer := table.Row{"Total", "", "", "", FormatMoney(total), r.signed(FormatMoney(pl), pl), r.signed(formatPct(s.TotalProfitLossPct), pl), "", ""}
	if s.Unpriced > 0 {
		footer[8] = fmt.Sprintf("%d unpriced", s.Unpriced)
	}
	tw.AppendFooter(footer)
	tw.Render()
}

func (r *PortfolioTable) sectors(w io.Writer, s portfolio.Summary) {
	if len(s.Sectors) == 0 {
		return
	}

	tw := r.newWriter(w)
	tw.AppendHeader(table.Row{"Sector", "Holdings", "Value", "Weight"})
	for _, a := range s.Sectors {
		tw.AppendRow(table.Row{a.Sector, a.Holdings, FormatMoney(decimal.NewNullDecimal(a.MarketValue)), formatPct(a.Weight)})
	}
	tw.Render()
}

// signed colors cell by the sign of d when color output is on
func (r *PortfolioTable) signed(cell string, d decimal.NullDecimal) string {
	if !r.Color || !d.Valid {
		return cell
	}
	switch d.Decimal.Sign() {
	case -1:
		return text.Colors{text.FgRed}.Sprint(cell)
	case 1:
		return text.Colors{text.FgGreen}.Sprint(cell)
	}
	return cell
}

// PortfolioJSON writes valued portfolios as indented JSON
func PortfolioJSON(w io.Writer, summaries []portfolio.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}
