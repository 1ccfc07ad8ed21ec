package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/logger"
)

// Loader fetches the stock list and every symbol's price history, then annotates them
type Loader struct {
	stocks  contracts.StockSource
	prices  contracts.PriceHistorySource
	workers int
	logger  *logger.Logger
}

// Config holds loader configuration
type Config struct {
	Workers int // concurrent price history fetches
}

// NewLoader creates a new Loader
func NewLoader(stocks contracts.StockSource, prices contracts.PriceHistorySource, cfg Config, log *logger.Logger) *Loader {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Loader{
		stocks:  stocks,
		prices:  prices,
		workers: workers,
		logger:  log.WithComponent("loader"),
	}
}

// fetchResult is one settled price history request
type fetchResult struct {
	index  int
	series []contracts.PricePoint
	err    error
}

// Load returns the complete enriched set in stock list order.
// A stock list failure fails the whole load. A price history failure only blanks that
// symbol's returns. Nothing is returned until every fetch has settled.
func (l *Loader) Load(ctx context.Context) ([]contracts.EnrichedStock, error) {
	start := time.Now()

	stocks, err := l.stocks.GetAllStocksDetailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch stock list: %w", err)
	}

	l.logger.WithFields(map[string]interface{}{
		"stock_count": len(stocks),
		"workers":     l.workers,
	}).Info("Starting price history fan-out")

	jobCh := make(chan int, len(stocks))
	resultCh := make(chan fetchResult, len(stocks))

	var wg sync.WaitGroup
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			l.priceWorker(ctx, workerID, stocks, jobCh, resultCh)
		}(i)
	}

	for i := range stocks {
		jobCh <- i
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]fetchResult, len(stocks))
	failCount := 0
	for r := range resultCh {
		results[r.index] = r
		if r.err != nil {
			failCount++
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enriched := make([]contracts.EnrichedStock, len(stocks))
	for i, stock := range stocks {
		if results[i].err != nil {
			enriched[i] = AnnotateWithoutPrices(stock, results[i].err)
			continue
		}
		enriched[i] = Annotate(stock, results[i].series)
	}

	l.logger.WithFields(map[string]interface{}{
		"total":    len(enriched),
		"failed":   failCount,
		"duration": time.Since(start),
	}).Info("Enrichment completed")

	return enriched, nil
}

// priceWorker fetches price histories until jobCh is drained
func (l *Loader) priceWorker(
	ctx context.Context,
	workerID int,
	stocks []contracts.StockFundamentals,
	jobCh <-chan int,
	resultCh chan<- fetchResult,
) {
	for i := range jobCh {
		if err := ctx.Err(); err != nil {
			resultCh <- fetchResult{index: i, err: err}
			continue
		}

		symbol := stocks[i].Symbol
		series, err := l.prices.GetPriceHistory(ctx, symbol)
		if err != nil {
			l.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": symbol,
			}).Warn("Price history unavailable, returns left blank")
			resultCh <- fetchResult{index: i, err: err}
			continue
		}

		resultCh <- fetchResult{index: i, series: series}
	}
}
