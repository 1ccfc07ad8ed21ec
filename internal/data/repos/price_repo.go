package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/screener/backend/internal/contracts"
)

// historyPadding matches the REST client's price-range window
const historyPadding = 14 * 24 * time.Hour

// PriceRepository reads the stock service's stock_prices, stocks and sectors tables directly.
// It is read-only.
type PriceRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool, now: time.Now}
}

// GetPriceHistory returns the closes covering the longest lookback window, newest first
func (r *PriceRepository) GetPriceHistory(ctx context.Context, symbol string) ([]contracts.PricePoint, error) {
	since := r.now().AddDate(0, 0, -contracts.MaxLookbackDays).Add(-historyPadding)

	query := `
		SELECT stock_symbol, date, close_price::float8
		FROM stock_prices
		WHERE stock_symbol = $1 AND date >= $2
		ORDER BY date DESC
	`

	rows, err := r.pool.Query(ctx, query, strings.ToUpper(symbol), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %s: %w", symbol, err)
	}
	defer rows.Close()

	var series []contracts.PricePoint
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		series = append(series, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return series, nil
}

// GetLatestPrice returns the most recent close of symbol
func (r *PriceRepository) GetLatestPrice(ctx context.Context, symbol string) (contracts.PricePoint, error) {
	query := `
		SELECT stock_symbol, date, close_price::float8
		FROM stock_prices
		WHERE stock_symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`

	var p contracts.PricePoint
	err := r.pool.QueryRow(ctx, query, strings.ToUpper(symbol)).Scan(&p.Symbol, &p.Date, &p.Close)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.PricePoint{}, fmt.Errorf("latest price for %s: %w", symbol, contracts.ErrNotFound)
	}
	if err != nil {
		return contracts.PricePoint{}, fmt.Errorf("failed to query latest price for %s: %w", symbol, err)
	}

	return p, nil
}

// GetAllSectors returns the sector list ordered by name
func (r *PriceRepository) GetAllSectors(ctx context.Context) ([]contracts.Sector, error) {
	rows, err := r.pool.Query(ctx, `SELECT sector_id, name FROM sectors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sectors: %w", err)
	}

	sectors, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (contracts.Sector, error) {
		var s contracts.Sector
		err := row.Scan(&s.ID, &s.Name)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sectors: %w", err)
	}

	return sectors, nil
}

// GetStockSector returns the sector id of symbol
func (r *PriceRepository) GetStockSector(ctx context.Context, symbol string) (int, error) {
	var sectorID int
	err := r.pool.QueryRow(ctx,
		"SELECT sector_id FROM stocks WHERE stock_symbol = $1",
		strings.ToUpper(symbol),
	).Scan(&sectorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("sector of %s: %w", symbol, contracts.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query sector of %s: %w", symbol, err)
	}
	return sectorID, nil
}
