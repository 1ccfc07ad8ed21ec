package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/screener/backend/internal/api/handlers"
	"github.com/wonny/screener/backend/pkg/logger"
)

// Handlers groups the endpoint handlers the router mounts.
// A nil Scheduler or Portfolios leaves those endpoints out; a nil Health serves a static status.
type Handlers struct {
	Health     *handlers.HealthHandler
	Screener   *handlers.ScreenerHandler
	Stocks     *handlers.StockHandler
	Portfolios *handlers.PortfolioHandler
	Scheduler  *handlers.SchedulerHandler
}

// NewRouter creates and configures the HTTP router
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	if h.Health != nil {
		r.HandleFunc("/health", h.Health.GetHealth).Methods("GET")
	} else {
		r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Screener
	api.HandleFunc("/screener", h.Screener.GetScreener).Methods("GET")
	api.HandleFunc("/screener/columns", h.Screener.GetColumns).Methods("GET")
	api.HandleFunc("/screener/status", h.Screener.GetStatus).Methods("GET")
	api.HandleFunc("/screener/refresh", h.Screener.Refresh).Methods("POST")

	// Stock service passthrough
	api.HandleFunc("/stocks/search/{query}", h.Stocks.Search).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/price", h.Stocks.GetLatestPrice).Methods("GET")
	api.HandleFunc("/sectors", h.Stocks.GetSectors).Methods("GET")

	if h.Portfolios != nil {
		api.HandleFunc("/portfolios/{id:[0-9]+}/valuation", h.Portfolios.GetValuation).Methods("GET")
		api.HandleFunc("/portfolios/user/{userID:[0-9]+}/valuation", h.Portfolios.GetUserValuations).Methods("GET")
	}

	if h.Scheduler != nil {
		api.HandleFunc("/scheduler/jobs", h.Scheduler.GetJobs).Methods("GET")
		api.HandleFunc("/scheduler/jobs/{name}/run", h.Scheduler.RunJob).Methods("POST")
	}

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "screener-api",
	})
}

// statusRecorder captures the response code for the access log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
