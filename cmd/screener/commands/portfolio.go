package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/backend/internal/portfolio"
	"github.com/wonny/screener/backend/internal/render"
)

// portfolioCmd represents the portfolio command
var portfolioCmd = &cobra.Command{
	Use:   "portfolio [id]",
	Short: "Value portfolios at their latest prices",
	Long: `Value one portfolio, or every portfolio of --user-id, at the latest close of
each holding. Prints market value, profit/loss against the average price and the
sector allocation. Holdings without a price are listed but left out of the totals.

Example:
  go run ./cmd/screener portfolio 7
  go run ./cmd/screener portfolio --user-id 4 --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPortfolioCmd,
}

var (
	portfolioUserID int
	portfolioFormat string
	portfolioColor  bool
)

func init() {
	rootCmd.AddCommand(portfolioCmd)

	portfolioCmd.Flags().IntVar(&portfolioUserID, "user-id", 0, "value every portfolio of this user")
	portfolioCmd.Flags().StringVar(&portfolioFormat, "format", "table", "output format: table|json")
	portfolioCmd.Flags().BoolVar(&portfolioColor, "color", true, "colored table output")
}

// portfolioValuator is the part of portfolio.Valuator the command uses
type portfolioValuator interface {
	Value(ctx context.Context, portfolioID int) (*portfolio.Summary, error)
	ValueUser(ctx context.Context, userID int) ([]portfolio.Summary, error)
}

func runPortfolioCmd(cmd *cobra.Command, args []string) error {
	id := 0
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid portfolio id %q", args[0])
		}
		id = n
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	return runPortfolio(ctx, d.valuator(), id, portfolioUserID, portfolioFormat, portfolioColor, cmd.OutOrStdout())
}

// runPortfolio values portfolio id, or every portfolio of userID when id is 0
func runPortfolio(ctx context.Context, v portfolioValuator, id, userID int, format string, color bool, w io.Writer) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q (table|json)", format)
	}

	var summaries []portfolio.Summary
	switch {
	case id > 0:
		s, err := v.Value(ctx, id)
		if err != nil {
			return fmt.Errorf("value portfolio %d: %w", id, err)
		}
		summaries = []portfolio.Summary{*s}
	case userID > 0:
		all, err := v.ValueUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("value portfolios of user %d: %w", userID, err)
		}
		summaries = all
	default:
		return errors.New("give a portfolio id or --user-id")
	}

	if format == "json" {
		return render.PortfolioJSON(w, summaries)
	}
	r := &render.PortfolioTable{Color: color}
	return r.Render(w, summaries)
}
