package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/screener/backend/internal/alerts"
	"github.com/wonny/screener/backend/internal/api"
	"github.com/wonny/screener/backend/internal/api/handlers"
	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/enrich"
	"github.com/wonny/screener/backend/internal/external/watchlist"
	"github.com/wonny/screener/backend/internal/scheduler"
	"github.com/wonny/screener/backend/internal/scheduler/jobs"
	"github.com/wonny/screener/backend/internal/session"
	"github.com/wonny/screener/backend/pkg/httputil"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the screener HTTP API.

The first snapshot load starts immediately; until it completes the screener
endpoints answer 503. The snapshot is reloaded on SCREENER_REFRESH_SCHEDULE.

Endpoints:
  GET  /health
  GET  /api/screener              - filtered, sorted result (filter keys, sort, dir, q, format=cells)
  GET  /api/screener/columns      - column schema for the given filters
  GET  /api/screener/status       - snapshot status
  POST /api/screener/refresh      - reload the snapshot now
  GET  /api/stocks/search/{query}
  GET  /api/stocks/{symbol}/price
  GET  /api/sectors
  GET  /api/portfolios/{id}/valuation
  GET  /api/portfolios/user/{userID}/valuation
  GET  /api/scheduler/jobs
  POST /api/scheduler/jobs/{name}/run

Example:
  go run ./cmd/screener api
  go run ./cmd/screener api --port 8090 --alerts-token $TOKEN`,
	RunE: runAPIServer,
}

var (
	apiPort        string
	apiAlertsToken string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT or 8090)")
	apiCmd.Flags().StringVar(&apiAlertsToken, "alerts-token", "", "access token; enables the alert_check job for its user")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	cfg, log := d.cfg, d.log
	if apiPort != "" {
		cfg.Port = apiPort
	}

	interval, err := scheduler.Interval(cfg.Screener.RefreshSchedule)
	if err != nil {
		return fmt.Errorf("refresh schedule: %w", err)
	}
	// A snapshot that missed two refreshes is reported stale
	store := enrich.NewStore(d.loader(), 3*interval, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewSnapshotRefreshJob(store, cfg.Screener.RefreshSchedule, log)); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}

	if apiAlertsToken != "" {
		job, err := newAlertJob(ctx, d, apiAlertsToken)
		if err != nil {
			return err
		}
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("schedule alerts: %w", err)
		}
	}

	h := api.Handlers{
		Screener:   handlers.NewScreenerHandler(store, log),
		Stocks:     handlers.NewStockHandler(stockEndpoints{d}, log),
		Scheduler:  handlers.NewSchedulerHandler(sched),
		Portfolios: handlers.NewPortfolioHandler(d.valuator(), log),
	}
	if d.db != nil {
		h.Health = handlers.NewHealthHandler(store, d.db)
	} else {
		h.Health = handlers.NewHealthHandler(store, nil)
	}

	server := api.New(cfg, log, api.NewRouter(h, log))

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// First load runs now rather than at the first cron tick
	go func() {
		if err := store.Refresh(ctx); err != nil {
			log.WithError(err).Error("Initial snapshot load failed")
		}
	}()

	sched.Start()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	<-ctx.Done()

	log.Info("Shutting down...")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// stockEndpoints serves search from the stock service and prices and sectors from the
// configured price source
type stockEndpoints struct {
	*deps
}

func (s stockEndpoints) SearchStocks(ctx context.Context, query string) ([]contracts.StockSummary, error) {
	return s.stocks.SearchStocks(ctx, query)
}

func (s stockEndpoints) GetLatestPrice(ctx context.Context, symbol string) (contracts.PricePoint, error) {
	return s.prices.GetLatestPrice(ctx, symbol)
}

func (s stockEndpoints) GetAllSectors(ctx context.Context) ([]contracts.Sector, error) {
	return s.prices.GetAllSectors(ctx)
}

// newAlertJob restores the session for token and builds the alert_check job over it
func newAlertJob(ctx context.Context, d *deps, token string) (*jobs.AlertCheckJob, error) {
	sessions, checker := newAlertChecker(d)

	s, err := sessions.Restore(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if s.UserID == 0 {
		return nil, fmt.Errorf("could not resolve a user id for %s", s.Username)
	}

	notify := func(a alerts.Alert) {
		d.log.WithFields(map[string]interface{}{
			"symbol": a.Symbol,
			"target": a.Target.StringFixed(2),
			"price":  a.Price.StringFixed(2),
		}).Warn(a.Message())
	}

	return jobs.NewAlertCheckJob(checker, sessions, d.cfg.Screener.AlertSchedule, notify, d.log), nil
}

// newAlertChecker wires a session manager and an alert checker that authenticates with it
func newAlertChecker(d *deps) (*session.Manager, *alerts.Checker) {
	sessions := session.NewManager(
		httputil.New(d.cfg, d.log).Named("auth").DisableRetry(),
		d.cfg.AuthAPI.BaseURL,
		d.log,
	)

	watchlists := watchlist.NewClient(
		httputil.New(d.cfg, d.log).Named("watchlist").WithAuthorizer(sessions),
		d.cfg.WatchlistAPI.BaseURL,
		d.log,
	)

	checker := alerts.NewChecker(watchlists, d.prices, d.cfg.Screener.AlertTolerance, d.log)
	return sessions, checker
}
