package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/logger"
)

// Sources are the collaborators a Valuator reads from
type Sources struct {
	Portfolios   contracts.PortfolioSource
	Prices       contracts.LatestPriceSource
	Sectors      contracts.SectorSource
	StockSectors contracts.StockSectorSource
}

// Valuator prices a portfolio's holdings and summarizes them
type Valuator struct {
	src     Sources
	workers int
	logger  *logger.Logger
	now     func() time.Time
}

// NewValuator creates a new Valuator. workers bounds the concurrent per-holding lookups.
func NewValuator(src Sources, workers int, log *logger.Logger) *Valuator {
	if workers < 1 {
		workers = 1
	}
	return &Valuator{
		src:     src,
		workers: workers,
		logger:  log.WithComponent("portfolio"),
		now:     time.Now,
	}
}

// Value returns the valuation of one portfolio. Failing to read the portfolio or its
// holdings fails the call; a holding whose price is unavailable is left unpriced.
func (v *Valuator) Value(ctx context.Context, portfolioID int) (*Summary, error) {
	p, err := v.src.Portfolios.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	s, err := v.value(ctx, p, v.sectorNames(ctx))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ValueUser values every portfolio the user owns
func (v *Valuator) ValueUser(ctx context.Context, userID int) ([]Summary, error) {
	portfolios, err := v.src.Portfolios.GetUserPortfolios(ctx, userID)
	if err != nil {
		return nil, err
	}

	names := v.sectorNames(ctx)
	out := make([]Summary, 0, len(portfolios))
	for _, p := range portfolios {
		s, err := v.value(ctx, p, names)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (v *Valuator) value(ctx context.Context, p contracts.Portfolio, names map[int]string) (Summary, error) {
	start := time.Now()

	holdings, err := v.src.Portfolios.GetPortfolioHoldings(ctx, p.ID)
	if err != nil {
		return Summary{}, err
	}

	quotes := v.quotes(ctx, holdings)
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	s := Compute(p, holdings, quotes, names, v.now())

	v.logger.WithFields(map[string]interface{}{
		"portfolio_id": p.ID,
		"holdings":     len(holdings),
		"unpriced":     s.Unpriced,
		"duration":     time.Since(start),
	}).Debug("Portfolio valued")

	return s, nil
}

// sectorNames maps sector ids to names. A failure leaves every holding in UnknownSector.
func (v *Valuator) sectorNames(ctx context.Context) map[int]string {
	sectors, err := v.src.Sectors.GetAllSectors(ctx)
	if err != nil {
		v.logger.WithError(err).Warn("Sector list unavailable, holdings grouped as unknown")
		return map[int]string{}
	}

	names := make(map[int]string, len(sectors))
	for _, s := range sectors {
		names[s.ID] = s.Name
	}
	return names
}

// quotes looks up every holding's latest price and sector, aligned with holdings.
// It returns once every lookup has settled.
func (v *Valuator) quotes(ctx context.Context, holdings []contracts.Holding) []Quote {
	out := make([]Quote, len(holdings))

	jobCh := make(chan int, len(holdings))
	for i := range holdings {
		jobCh <- i
	}
	close(jobCh)

	var wg sync.WaitGroup
	for w := 0; w < v.workers && w < len(holdings); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				out[i] = v.quote(ctx, holdings[i].Symbol)
			}
		}()
	}
	wg.Wait()

	return out
}

func (v *Valuator) quote(ctx context.Context, symbol string) Quote {
	if err := ctx.Err(); err != nil {
		return Quote{Err: err}
	}

	var q Quote

	sectorID, err := v.src.StockSectors.GetStockSector(ctx, symbol)
	if err != nil {
		v.logger.WithError(err).WithField("symbol", symbol).Warn("Sector unavailable")
	} else {
		q.SectorID = sectorID
	}

	price, err := v.src.Prices.GetLatestPrice(ctx, symbol)
	if err != nil {
		v.logger.WithError(err).WithField("symbol", symbol).Warn("Latest price unavailable, holding left unpriced")
		q.Err = fmt.Errorf("latest price: %w", err)
		return q
	}

	q.Price = price.Close
	q.Date = price.Date
	return q
}
