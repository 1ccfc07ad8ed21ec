package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/render"
	"github.com/wonny/screener/backend/internal/screen"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Load, filter and print the screener table",
	Long: `Load every stock with its price history, apply filters and print the result.

Filters use the query keys of GET /api/screener (minPrice, maxDebtToEquity, ...).
Explicit --filter values override those of --preset. Invalid values are ignored.

Example:
  go run ./cmd/screener screen
  go run ./cmd/screener screen --preset value
  go run ./cmd/screener screen --filter minMarketCap=1e10 --filter maxPriceToEarnings=15
  go run ./cmd/screener screen --sort regularMarketChangePercent --dir desc --limit 20
  go run ./cmd/screener screen --format json -q bank`,
	RunE: runScreenCmd,
}

// screenOptions are the flags of the screen command
type screenOptions struct {
	Preset      string
	PresetsFile string
	ListPresets bool
	Filters     map[string]string
	SortKey     string
	Direction   string
	Query       string
	Format      string
	Color       bool
	Limit       int
	Explain     bool
}

var screenOpts screenOptions

func init() {
	rootCmd.AddCommand(screenCmd)

	f := screenCmd.Flags()
	f.StringVar(&screenOpts.Preset, "preset", "", "named screen from the presets file")
	f.StringVar(&screenOpts.PresetsFile, "presets", "config/screens.yaml", "presets file")
	f.BoolVar(&screenOpts.ListPresets, "list-presets", false, "list the presets and exit")
	f.StringToStringVar(&screenOpts.Filters, "filter", nil, "filter bound, key=value (repeatable)")
	f.StringVar(&screenOpts.SortKey, "sort", "", "sort column key (default currentPrice)")
	f.StringVar(&screenOpts.Direction, "dir", "", "sort direction: asc|desc")
	f.StringVarP(&screenOpts.Query, "query", "q", "", "only symbols or names containing this text")
	f.StringVar(&screenOpts.Format, "format", "table", "output format: table|json")
	f.BoolVar(&screenOpts.Color, "color", true, "colored table output")
	f.IntVar(&screenOpts.Limit, "limit", 0, "print at most this many rows (0 = all)")
	f.BoolVar(&screenOpts.Explain, "explain", false, "print why stocks were filtered out")
}

func runScreenCmd(cmd *cobra.Command, args []string) error {
	if screenOpts.ListPresets {
		return listPresets(cmd.OutOrStdout(), screenOpts.PresetsFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	return runScreen(ctx, d.loader(), screenOpts, cmd.OutOrStdout())
}

// runScreen loads once through a View and renders the result. A failed load is rendered
// and returned so the process exits non-zero.
func runScreen(ctx context.Context, loader screen.RecordLoader, opts screenOptions, w io.Writer) error {
	view := screen.NewView(nil, nil)
	defer view.Close()

	filters := make(screen.FilterState)
	sortState := screen.DefaultSort()

	if opts.Preset != "" {
		presets, err := screen.LoadPresets(opts.PresetsFile)
		if err != nil {
			return err
		}
		p, err := presets.Get(opts.Preset)
		if err != nil {
			return err
		}
		filters = p.FilterState()
		sortState = p.SortState()
	}

	for metric, b := range screen.ParseFilterState(opts.Filters) {
		merged := filters.Get(metric)
		if b.Min != nil {
			merged.Min = b.Min
		}
		if b.Max != nil {
			merged.Max = b.Max
		}
		filters.SetMin(metric, merged.Min)
		filters.SetMax(metric, merged.Max)
	}

	if opts.SortKey != "" {
		if !screen.Sortable(opts.SortKey) {
			return fmt.Errorf("unknown sort key %q", opts.SortKey)
		}
		sortState = screen.SortState{Key: opts.SortKey, Direction: screen.Asc}
	}
	if opts.Direction != "" {
		sortState.Direction = screen.ParseDirection(opts.Direction)
	}

	view.SetFilters(filters)
	view.SetSort(sortState)
	view.SetQuery(opts.Query)

	recorded := &recordedLoader{next: loader}
	loadErr := view.Load(ctx, recorded)

	res := view.Result()
	if opts.Limit > 0 && len(res.Rows) > opts.Limit {
		res.Rows = res.Rows[:opts.Limit]
	}

	if err := render.New(opts.Format, opts.Color).Render(w, res); err != nil {
		return err
	}

	if loadErr != nil {
		return loadErr
	}

	if opts.Explain && filters.Active() {
		printExplain(w, screen.NewEngine(nil).Explain(screen.MatchQuery(recorded.records, opts.Query), filters))
	}
	return nil
}

// recordedLoader keeps the records it loaded so --explain can inspect the full set
type recordedLoader struct {
	next    screen.RecordLoader
	records []contracts.EnrichedStock
}

func (l *recordedLoader) Load(ctx context.Context) ([]contracts.EnrichedStock, error) {
	records, err := l.next.Load(ctx)
	l.records = records
	return records, err
}

func printExplain(w io.Writer, reasons map[string]int) {
	if len(reasons) == 0 {
		return
	}

	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Excluded by", "Stocks"})
	for _, k := range keys {
		tw.AppendRow(table.Row{k, reasons[k]})
	}
	tw.Render()
}

func listPresets(w io.Writer, path string) error {
	presets, err := screen.LoadPresets(path)
	if err != nil {
		return err
	}

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Preset", "Description", "Filters"})
	for _, name := range presets.Names() {
		p := presets.Screens[name]

		keys := make([]string, 0, len(p.Filters))
		for k, v := range p.Filters {
			keys = append(keys, fmt.Sprintf("%s=%g", k, v))
		}
		sort.Strings(keys)

		tw.AppendRow(table.Row{name, p.Description, strings.Join(keys, " ")})
	}
	tw.Render()
	return nil
}
