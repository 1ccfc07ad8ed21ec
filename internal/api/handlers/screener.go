package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/wonny/screener/backend/internal/enrich"
	"github.com/wonny/screener/backend/internal/render"
	"github.com/wonny/screener/backend/internal/screen"
	"github.com/wonny/screener/backend/pkg/logger"
)

// SnapshotStore is the shared enriched record set
type SnapshotStore interface {
	Current() *enrich.Snapshot
	Status() enrich.Status
	Refresh(ctx context.Context) error
}

// ScreenerHandler serves filtered, sorted views of the current snapshot
type ScreenerHandler struct {
	store     SnapshotStore
	engine    *screen.Engine
	projector *screen.Projector
	logger    *logger.Logger

	refreshTimeout time.Duration
}

// NewScreenerHandler creates a new screener handler
func NewScreenerHandler(store SnapshotStore, log *logger.Logger) *ScreenerHandler {
	return &ScreenerHandler{
		store:          store,
		engine:         screen.NewEngine(nil),
		projector:      screen.NewProjector(nil),
		logger:         log,
		refreshTimeout: 5 * time.Minute,
	}
}

// cellsResult is the format=cells response: every value pre-formatted for display
type cellsResult struct {
	State   screen.State        `json:"state"`
	Columns []screen.Column     `json:"columns"`
	Rows    []map[string]string `json:"rows"`
	Total   int                 `json:"total"`
	Sort    screen.SortState    `json:"sort"`
	Filters map[string]float64  `json:"filters"`
	Query   string              `json:"query,omitempty"`
}

// GetScreener returns the screener result for the query's filters, sort and search
// GET /api/screener?minPriceToEarnings=5&sort=market_cap&dir=desc&q=bank&format=cells
func (h *ScreenerHandler) GetScreener(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	query := r.URL.Query()

	sortState := screen.DefaultSort()
	if key := strings.TrimSpace(query.Get("sort")); key != "" {
		if !screen.Sortable(key) {
			respondError(w, http.StatusBadRequest, "Unknown sort key: "+key)
			return
		}
		sortState = screen.SortState{Key: key, Direction: screen.Asc}
	}
	if dir := query.Get("dir"); dir != "" {
		sortState.Direction = screen.ParseDirection(dir)
	}

	view := screen.NewView(h.engine, h.projector)
	defer view.Close()

	view.Complete(view.Begin(), snap.Records)
	view.SetFilters(screen.ParseFilterQuery(query))
	view.SetSort(sortState)
	view.SetQuery(query.Get("q"))

	res := view.Result()

	if query.Get("format") == "cells" {
		respondData(w, http.StatusOK, cellsResult{
			State:   res.State,
			Columns: res.Columns,
			Rows:    render.Cells(res),
			Total:   res.Total,
			Sort:    res.Sort,
			Filters: res.Filters,
			Query:   res.Query,
		})
		return
	}

	respondData(w, http.StatusOK, res)
}

// GetColumns returns the column schema the given filters produce
// GET /api/screener/columns?minReturnOnEquity=0.15
func (h *ScreenerHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	filters := screen.ParseFilterQuery(r.URL.Query())
	respondData(w, http.StatusOK, h.projector.Project(filters))
}

// GetStatus returns the snapshot status
// GET /api/screener/status
func (h *ScreenerHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.store.Status())
}

// Refresh starts a snapshot reload in the background
// POST /api/screener/refresh
func (h *ScreenerHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.store.Status().Loading {
		respondData(w, http.StatusAccepted, map[string]string{"status": "already_running"})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.refreshTimeout)
		defer cancel()
		if err := h.store.Refresh(ctx); err != nil {
			h.logger.WithError(err).Warn("Manual refresh did not complete")
		}
	}()

	respondData(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// snapshot writes the loading or error response when no snapshot has been published yet
func (h *ScreenerHandler) snapshot(w http.ResponseWriter) (*enrich.Snapshot, bool) {
	if snap := h.store.Current(); snap != nil {
		return snap, true
	}

	status := h.store.Status()
	if status.LastError != "" && !status.Loading {
		respondError(w, http.StatusBadGateway, status.LastError)
		return nil, false
	}

	w.Header().Set("Retry-After", "5")
	respondError(w, http.StatusServiceUnavailable, "Loading...")
	return nil, false
}
