package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/screener/backend/pkg/database"
)

// DBChecker reports database health
type DBChecker interface {
	HealthCheck(ctx context.Context) database.HealthStatus
}

// HealthHandler reports service health including the snapshot and, when configured, the database
type HealthHandler struct {
	store SnapshotStore
	db    DBChecker
}

// NewHealthHandler creates a health handler. db may be nil when prices come from the API.
func NewHealthHandler(store SnapshotStore, db DBChecker) *HealthHandler {
	return &HealthHandler{store: store, db: db}
}

// GetHealth returns server health status
// GET /health
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":   "ok",
		"service":  "screener-api",
		"snapshot": h.store.Status(),
	}

	code := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		dbStatus := h.db.HealthCheck(ctx)
		body["database"] = dbStatus
		if !dbStatus.Healthy {
			body["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	respondJSON(w, code, body)
}
