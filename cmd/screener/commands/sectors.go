package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// sectorsCmd represents the sectors command
var sectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "List sectors",
	Long: `List the sectors known to the stock service, or to its database when
SCREENER_PRICE_SOURCE=db.

Example:
  go run ./cmd/screener sectors`,
	RunE: runSectors,
}

func init() {
	rootCmd.AddCommand(sectorsCmd)
}

func runSectors(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d, err := newDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	sectors, err := d.prices.GetAllSectors(ctx)
	if err != nil {
		return fmt.Errorf("list sectors: %w", err)
	}

	tw := newTable(cmd.OutOrStdout())
	tw.AppendHeader(table.Row{"ID", "Sector"})
	for _, s := range sectors {
		tw.AppendRow(table.Row{s.ID, s.Name})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d sectors", len(sectors))})
	tw.Render()
	return nil
}
