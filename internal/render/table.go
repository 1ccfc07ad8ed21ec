package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/wonny/screener/backend/internal/screen"
)

// TableRenderer prints results as a terminal table
type TableRenderer struct {
	Color       bool
	MaxColWidth int
}

func (r *TableRenderer) Render(w io.Writer, res screen.Result) error {
	switch res.State {
	case screen.StateError:
		_, err := fmt.Fprintf(w, "Error: %s\n", res.Error)
		return err
	case screen.StateLoading, screen.StateIdle:
		_, err := fmt.Fprintln(w, "Loading...")
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if r.Color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	maxWidth := r.MaxColWidth
	if maxWidth <= 0 {
		maxWidth = 40
	}

	hdr := make(table.Row, len(res.Columns))
	cfgs := make([]table.ColumnConfig, 0, len(res.Columns))
	for i, c := range res.Columns {
		label := c.Label
		if c.Key == res.Sort.Key {
			label += sortMarker(res.Sort.Direction)
		}
		hdr[i] = label

		cfg := table.ColumnConfig{Number: i + 1, WidthMax: maxWidth}
		if c.Numeric {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	tw.AppendHeader(hdr)
	tw.SetColumnConfigs(cfgs)

	for i := range res.Rows {
		rec := &res.Rows[i]
		row := make(table.Row, len(res.Columns))
		for j, c := range res.Columns {
			cell := FormatCell(c, rec)
			if r.Color && isPercent(c) {
				if v, ok := rec.Number(c.Key); ok && v != nil {
					switch {
					case *v < 0:
						cell = text.Colors{text.FgRed}.Sprint(cell)
					case *v > 0:
						cell = text.Colors{text.FgGreen}.Sprint(cell)
					}
				}
			}
			row[j] = cell
		}
		tw.AppendRow(row)
	}

	tw.AppendFooter(table.Row{fmt.Sprintf("%d of %d", len(res.Rows), res.Total)})
	tw.Render()

	if len(res.Filters) > 0 {
		keys := make([]string, 0, len(res.Filters))
		for _, m := range screen.Registry {
			for _, k := range []string{m.MinKey, m.MaxKey} {
				if v, ok := res.Filters[k]; ok {
					keys = append(keys, fmt.Sprintf("%s=%g", k, v))
				}
			}
		}
		fmt.Fprintf(w, "Filters: %s\n", strings.Join(keys, " "))
	}
	return nil
}

func isPercent(c screen.Column) bool {
	return c.Format == screen.FormatPercent
}

func sortMarker(d screen.Direction) string {
	if d == screen.Desc {
		return " ▼"
	}
	return " ▲"
}
