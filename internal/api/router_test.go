package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/internal/api/handlers"
	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/internal/enrich"
	"github.com/wonny/screener/backend/internal/portfolio"
	"github.com/wonny/screener/backend/internal/scheduler"
	"github.com/wonny/screener/backend/pkg/database"
	"github.com/wonny/screener/backend/pkg/logger"
)

type fakeStore struct {
	snap      *enrich.Snapshot
	status    enrich.Status
	refreshed chan struct{}
}

func (f *fakeStore) Current() *enrich.Snapshot { return f.snap }
func (f *fakeStore) Status() enrich.Status     { return f.status }

func (f *fakeStore) Refresh(ctx context.Context) error {
	if f.refreshed != nil {
		close(f.refreshed)
	}
	return nil
}

type fakeStocks struct {
	err error
}

func (f fakeStocks) SearchStocks(ctx context.Context, query string) ([]contracts.StockSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []contracts.StockSummary{{Symbol: "THYAO", Name: "Turk Hava Yollari"}}, nil
}

func (f fakeStocks) GetLatestPrice(ctx context.Context, symbol string) (contracts.PricePoint, error) {
	if f.err != nil {
		return contracts.PricePoint{}, f.err
	}
	return contracts.PricePoint{Symbol: symbol, Date: time.Date(2025, 1, 24, 0, 0, 0, 0, time.UTC), Close: contracts.Float(301.25)}, nil
}

func (f fakeStocks) GetAllSectors(ctx context.Context) ([]contracts.Sector, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []contracts.Sector{{ID: 1, Name: "Banking"}, {ID: 2, Name: "Transportation"}}, nil
}

type fakeJobs struct{}

func (fakeJobs) GetJobStats() map[string]scheduler.JobStats {
	return map[string]scheduler.JobStats{"snapshot_refresh": {JobName: "snapshot_refresh", Schedule: "0 */10 * * * *"}}
}

func (fakeJobs) RunJob(name string) error {
	if name != "snapshot_refresh" {
		return errors.New("job " + name + " not found")
	}
	return nil
}

func record(symbol, name string, price, pe *float64) contracts.EnrichedStock {
	return contracts.EnrichedStock{
		StockFundamentals: contracts.StockFundamentals{
			Symbol:       symbol,
			Name:         name,
			CurrentPrice: price,
			TrailingPE:   pe,
		},
	}
}

func readySnapshot() *enrich.Snapshot {
	return &enrich.Snapshot{
		LoadedAt: time.Now(),
		Records: []contracts.EnrichedStock{
			record("AKBNK", "Akbank", contracts.Float(40), contracts.Float(4.1)),
			record("THYAO", "Turk Hava Yollari", contracts.Float(300), contracts.Float(3.2)),
			record("ASELS", "Aselsan", contracts.Float(60), nil),
		},
	}
}

func newTestRouter(store handlers.SnapshotStore, stocks handlers.StockSource) http.Handler {
	return NewRouter(Handlers{
		Screener:  handlers.NewScreenerHandler(store, logger.Nop()),
		Stocks:    handlers.NewStockHandler(stocks, logger.Nop()),
		Scheduler: handlers.NewSchedulerHandler(fakeJobs{}),
	}, logger.Nop())
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, h http.Handler, method, target string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

type screenerData struct {
	State   string `json:"state"`
	Columns []struct {
		Key   string `json:"key"`
		Label string `json:"label"`
	} `json:"columns"`
	Rows  []map[string]interface{} `json:"rows"`
	Total int                      `json:"total"`
	Sort  struct {
		Key       string `json:"key"`
		Direction string `json:"direction"`
	} `json:"sort"`
	Filters map[string]float64 `json:"filters"`
}

func rowSymbols(rows []map[string]interface{}) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i], _ = r["stock_symbol"].(string)
	}
	return out
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&fakeStore{}, fakeStocks{}).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestScreener_DefaultSort(t *testing.T) {
	router := newTestRouter(&fakeStore{snap: readySnapshot()}, fakeStocks{})

	code, env := do(t, router, "GET", "/api/screener")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	var data screenerData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "ready", data.State)
	assert.Equal(t, 3, data.Total)
	assert.Equal(t, []string{"THYAO", "ASELS", "AKBNK"}, rowSymbols(data.Rows))
	assert.Equal(t, "currentPrice", data.Sort.Key)
	assert.Equal(t, "desc", data.Sort.Direction)
	assert.Empty(t, data.Filters)
}

func TestScreener_FiltersSortAndSearch(t *testing.T) {
	router := newTestRouter(&fakeStore{snap: readySnapshot()}, fakeStocks{})

	code, env := do(t, router, "GET", "/api/screener?maxPriceToEarnings=5&sort=name&dir=asc")
	require.Equal(t, http.StatusOK, code)

	var data screenerData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, []string{"AKBNK", "THYAO"}, rowSymbols(data.Rows))
	assert.Equal(t, 3, data.Total)
	assert.Equal(t, map[string]float64{"maxPriceToEarnings": 5}, data.Filters)

	var labels []string
	for _, c := range data.Columns {
		labels = append(labels, c.Label)
	}
	assert.Contains(t, labels, "P/E")

	_, env = do(t, router, "GET", "/api/screener?q=aSeL")
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, []string{"ASELS"}, rowSymbols(data.Rows))
}

func TestScreener_QueryKeys(t *testing.T) {
	router := newTestRouter(&fakeStore{snap: readySnapshot()}, fakeStocks{})

	code, env := do(t, router, "GET", "/api/screener?minPriceToEarnings=3.5&sort=market_cap&dir=desc&q=a")
	require.Equal(t, http.StatusOK, code)

	var data screenerData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, []string{"AKBNK"}, rowSymbols(data.Rows))
	assert.Equal(t, "market_cap", data.Sort.Key)
	assert.Equal(t, map[string]float64{"minPriceToEarnings": 3.5}, data.Filters)

	code, _ = do(t, router, "GET", "/api/screener?sort=marketCap")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestScreener_Cells(t *testing.T) {
	router := newTestRouter(&fakeStore{snap: readySnapshot()}, fakeStocks{})

	code, env := do(t, router, "GET", "/api/screener?format=cells&sort=stock_symbol")
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Rows []map[string]string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Rows, 3)
	assert.Equal(t, "AKBNK", data.Rows[0]["stock_symbol"])
	assert.Equal(t, "40.00", data.Rows[0]["currentPrice"])
	assert.Equal(t, "N/A", data.Rows[0]["market_cap"])
}

func TestScreener_UnknownSortKey(t *testing.T) {
	router := newTestRouter(&fakeStore{snap: readySnapshot()}, fakeStocks{})

	code, env := do(t, router, "GET", "/api/screener?sort=bogus")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "bogus")
}

func TestScreener_NotReady(t *testing.T) {
	tests := []struct {
		name   string
		status enrich.Status
		code   int
		errMsg string
	}{
		{"never loaded", enrich.Status{}, http.StatusServiceUnavailable, "Loading..."},
		{"first load running", enrich.Status{Loading: true}, http.StatusServiceUnavailable, "Loading..."},
		{"first load failed", enrich.Status{LastError: "stock service: status 500"}, http.StatusBadGateway, "stock service: status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakeStore{status: tt.status}, fakeStocks{})
			code, env := do(t, router, "GET", "/api/screener")
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.errMsg, env.Error)
		})
	}
}

func TestScreener_Columns(t *testing.T) {
	router := newTestRouter(&fakeStore{}, fakeStocks{})

	code, env := do(t, router, "GET", "/api/screener/columns?minReturnOnEquity=0.15")
	require.Equal(t, http.StatusOK, code)

	var cols []struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cols))
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}
	assert.Contains(t, keys, "returnOnEquity")
	assert.Contains(t, keys, "1_week")
}

func TestScreener_Refresh(t *testing.T) {
	store := &fakeStore{refreshed: make(chan struct{})}
	router := newTestRouter(store, fakeStocks{})

	code, _ := do(t, router, "POST", "/api/screener/refresh")
	assert.Equal(t, http.StatusAccepted, code)

	select {
	case <-store.refreshed:
	case <-time.After(time.Second):
		t.Fatal("refresh not started")
	}
}

func TestScreener_RefreshAlreadyRunning(t *testing.T) {
	router := newTestRouter(&fakeStore{status: enrich.Status{Loading: true}}, fakeStocks{})

	code, env := do(t, router, "POST", "/api/screener/refresh")
	assert.Equal(t, http.StatusAccepted, code)
	assert.Contains(t, string(env.Data), "already_running")
}

func TestStocks(t *testing.T) {
	router := newTestRouter(&fakeStore{}, fakeStocks{})

	code, env := do(t, router, "GET", "/api/stocks/search/thy")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "THYAO")

	code, env = do(t, router, "GET", "/api/stocks/thyao/price")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"stock_symbol":"THYAO","date":"2025-01-24","close_price":"301.25"}`, string(env.Data))

	code, env = do(t, router, "GET", "/api/sectors")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Transportation")
}

func TestStocks_UpstreamErrors(t *testing.T) {
	notFound := newTestRouter(&fakeStore{}, fakeStocks{err: &contracts.UpstreamError{Service: "stockapi", StatusCode: 404}})
	code, _ := do(t, notFound, "GET", "/api/stocks/XXXX/price")
	assert.Equal(t, http.StatusNotFound, code)

	down := newTestRouter(&fakeStore{}, fakeStocks{err: &contracts.UpstreamError{Service: "stockapi", StatusCode: 500}})
	code, env := do(t, down, "GET", "/api/sectors")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "stockapi: status 500", env.Error)
}

func TestSchedulerJobs(t *testing.T) {
	router := newTestRouter(&fakeStore{}, fakeStocks{})

	code, env := do(t, router, "GET", "/api/scheduler/jobs")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "snapshot_refresh")

	code, _ = do(t, router, "POST", "/api/scheduler/jobs/snapshot_refresh/run")
	assert.Equal(t, http.StatusAccepted, code)

	code, _ = do(t, router, "POST", "/api/scheduler/jobs/missing/run")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	code, env := do(t, h, "GET", "/")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", env.Error)
}

type fakeDB struct{ healthy bool }

func (f fakeDB) HealthCheck(ctx context.Context) database.HealthStatus {
	if !f.healthy {
		return database.HealthStatus{Error: "connection refused"}
	}
	return database.HealthStatus{Healthy: true, MaxConns: 10}
}

func TestHealth_WithSnapshotAndDatabase(t *testing.T) {
	store := &fakeStore{snap: readySnapshot(), status: enrich.Status{Ready: true, Count: 3}}

	for _, tt := range []struct {
		name    string
		healthy bool
		code    int
		status  string
	}{
		{"healthy", true, http.StatusOK, "ok"},
		{"database down", false, http.StatusServiceUnavailable, "degraded"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(Handlers{
				Health:   handlers.NewHealthHandler(store, fakeDB{healthy: tt.healthy}),
				Screener: handlers.NewScreenerHandler(store, logger.Nop()),
				Stocks:   handlers.NewStockHandler(fakeStocks{}, logger.Nop()),
			}, logger.Nop())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
			assert.Equal(t, tt.code, rec.Code)

			var body struct {
				Status   string                 `json:"status"`
				Snapshot enrich.Status          `json:"snapshot"`
				Database map[string]interface{} `json:"database"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, 3, body.Snapshot.Count)
			assert.NotNil(t, body.Database)
		})
	}
}

func TestSchedulerRoutesOptional(t *testing.T) {
	router := NewRouter(Handlers{
		Screener: handlers.NewScreenerHandler(&fakeStore{}, logger.Nop()),
		Stocks:   handlers.NewStockHandler(fakeStocks{}, logger.Nop()),
	}, logger.Nop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/scheduler/jobs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeValuator struct {
	err error
}

func (f fakeValuator) Value(ctx context.Context, id int) (*portfolio.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id != 1 {
		return nil, fmt.Errorf("portfolio %d: %w", id, &contracts.UpstreamError{Service: "stockapi", StatusCode: 404})
	}
	return &portfolio.Summary{
		Portfolio:  contracts.Portfolio{ID: 1, UserID: 4, Name: "Uzun vade"},
		TotalValue: decimal.NewFromInt(13000),
		Positions: []portfolio.Position{
			{Symbol: "THYAO", Quantity: decimal.NewFromInt(10), MarketValue: decimal.NewNullDecimal(decimal.NewFromInt(13000))},
			{Symbol: "NOPE", Quantity: decimal.NewFromInt(3), PriceError: "latest price: not found"},
		},
		Unpriced: 1,
	}, nil
}

func (f fakeValuator) ValueUser(ctx context.Context, userID int) ([]portfolio.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, _ := f.Value(ctx, 1)
	return []portfolio.Summary{*s}, nil
}

func portfolioRouter(v handlers.PortfolioValuator) http.Handler {
	return NewRouter(Handlers{
		Screener:   handlers.NewScreenerHandler(&fakeStore{}, logger.Nop()),
		Stocks:     handlers.NewStockHandler(fakeStocks{}, logger.Nop()),
		Portfolios: handlers.NewPortfolioHandler(v, logger.Nop()),
	}, logger.Nop())
}

func TestPortfolioValuation(t *testing.T) {
	router := portfolioRouter(fakeValuator{})

	code, env := do(t, router, "GET", "/api/portfolios/1/valuation")
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Portfolio  contracts.Portfolio `json:"portfolio"`
		TotalValue string              `json:"total_value"`
		Unpriced   int                 `json:"unpriced"`
		Positions  []struct {
			Symbol      string  `json:"stock_symbol"`
			MarketValue *string `json:"market_value"`
		} `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Uzun vade", data.Portfolio.Name)
	assert.Equal(t, "13000", data.TotalValue)
	assert.Equal(t, 1, data.Unpriced)
	require.Len(t, data.Positions, 2)
	require.NotNil(t, data.Positions[0].MarketValue)
	assert.Nil(t, data.Positions[1].MarketValue, "unpriced holding has no value, not zero")

	code, env = do(t, router, "GET", "/api/portfolios/user/4/valuation")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "Uzun vade")

	code, env = do(t, router, "GET", "/api/portfolios/9/valuation")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Portfolio not found", env.Error)
}

func TestPortfolioValuation_UpstreamDown(t *testing.T) {
	router := portfolioRouter(fakeValuator{err: &contracts.UpstreamError{Service: "stockapi", StatusCode: 503}})

	code, env := do(t, router, "GET", "/api/portfolios/1/valuation")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "stockapi: status 503", env.Error)

	code, _ = do(t, router, "GET", "/api/portfolios/user/4/valuation")
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestPortfolioRoutesOptional(t *testing.T) {
	router := newTestRouter(&fakeStore{}, fakeStocks{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/portfolios/1/valuation", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	portfolioRouter(fakeValuator{}).ServeHTTP(rec, httptest.NewRequest("GET", "/api/portfolios/abc/valuation", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
