package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/render"
	"github.com/wonny/screener/backend/internal/screen"
	"github.com/wonny/screener/backend/internal/search"
	"github.com/wonny/screener/backend/pkg/logger"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Look stocks up by symbol or name",
	Long: `Search the stock service by symbol or name fragment.

With --interactive, each line read from stdin is a new query. Lookups are
debounced (SEARCH_DEBOUNCE) and only the latest query's answer is printed.

Example:
  go run ./cmd/screener search thy
  go run ./cmd/screener search --interactive`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

var searchInteractive bool

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolVarP(&searchInteractive, "interactive", "i", false, "read queries from stdin")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if !searchInteractive && len(args) == 0 {
		return fmt.Errorf("a query is required unless --interactive is set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	out := cmd.OutOrStdout()

	if !searchInteractive {
		stocks, err := d.stocks.SearchStocks(ctx, args[0])
		if err != nil {
			return err
		}
		printStocks(out, stocks)
		return nil
	}

	return interactiveSearch(ctx, d.stocks, d.cfg.Screener.SearchDebounce, d.log, cmd.InOrStdin(), out)
}

// interactiveSearch feeds stdin lines to a debouncer. At EOF it waits for the answer to
// the last line, then returns.
func interactiveSearch(ctx context.Context, source contracts.SearchSource, delay time.Duration, log *logger.Logger, in io.Reader, out io.Writer) error {
	results := make(chan search.Result, 1)
	deb := search.NewDebouncer(source, delay, func(r search.Result) {
		if !search.Searchable(r.Query) {
			return
		}
		// a result the loop has not picked up yet is superseded by r
		for {
			select {
			case results <- r:
				return
			default:
			}
			select {
			case <-results:
			default:
			}
		}
	}, log)
	defer deb.Stop()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	last := ""
	eof := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				if !search.Searchable(last) {
					return <-scanErr
				}
				eof = true
				lines = nil
				continue
			}
			last = line
			deb.Submit(line)

		case r := <-results:
			if r.Err != nil {
				fmt.Fprintf(out, "search %q failed: %v\n", r.Query, r.Err)
			} else {
				fmt.Fprintf(out, "> %s\n", r.Query)
				printStocks(out, r.Stocks)
			}
			if eof && r.Query == last {
				return <-scanErr
			}
		}
	}
}

func printStocks(w io.Writer, stocks []contracts.StockSummary) {
	if len(stocks) == 0 {
		fmt.Fprintln(w, "No stocks found")
		return
	}

	capCol, _ := screen.ColumnByKey(contracts.FieldMarketCap)

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Symbol", "Name", "Sector", "Market Cap"})
	for _, s := range stocks {
		tw.AppendRow(table.Row{s.Symbol, s.Name, s.SectorID, render.FormatValue(capCol, s.MarketCap)})
	}
	tw.Render()
}
