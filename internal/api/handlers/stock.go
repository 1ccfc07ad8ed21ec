package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/logger"
)

// StockSource is the slice of the stock service the stock endpoints proxy
type StockSource interface {
	contracts.SearchSource
	contracts.LatestPriceSource
	contracts.SectorSource
}

// StockHandler handles stock lookup endpoints
type StockHandler struct {
	source StockSource
	logger *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(source StockSource, log *logger.Logger) *StockHandler {
	return &StockHandler{
		source: source,
		logger: log,
	}
}

// Search looks stocks up by symbol or name fragment
// GET /api/stocks/search/{query}
func (h *StockHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(mux.Vars(r)["query"])

	stocks, err := h.source.SearchStocks(r.Context(), query)
	if err != nil {
		h.logger.WithError(err).WithField("query", query).Error("Failed to search stocks")
		respondUpstreamError(w, err, "No stocks found")
		return
	}

	respondData(w, http.StatusOK, stocks)
}

// GetLatestPrice returns a symbol's most recent close
// GET /api/stocks/{symbol}/price
func (h *StockHandler) GetLatestPrice(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	price, err := h.source.GetLatestPrice(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get latest price")
		respondUpstreamError(w, err, "No price for "+symbol)
		return
	}

	respondData(w, http.StatusOK, price)
}

// GetSectors lists sectors
// GET /api/sectors
func (h *StockHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.source.GetAllSectors(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get sectors")
		respondUpstreamError(w, err, "No sectors")
		return
	}

	respondData(w, http.StatusOK, sectors)
}
