package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/screener/backend/internal/portfolio"
	"github.com/wonny/screener/backend/pkg/logger"
)

// PortfolioValuator values portfolios at their latest prices
type PortfolioValuator interface {
	Value(ctx context.Context, portfolioID int) (*portfolio.Summary, error)
	ValueUser(ctx context.Context, userID int) ([]portfolio.Summary, error)
}

// PortfolioHandler handles portfolio valuation endpoints
type PortfolioHandler struct {
	valuator PortfolioValuator
	logger   *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(valuator PortfolioValuator, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		valuator: valuator,
		logger:   log,
	}
}

// GetValuation values one portfolio
// GET /api/portfolios/{id}/valuation
func (h *PortfolioHandler) GetValuation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid portfolio id")
		return
	}

	summary, err := h.valuator.Value(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("portfolio_id", id).Error("Failed to value portfolio")
		respondUpstreamError(w, err, "Portfolio not found")
		return
	}

	respondData(w, http.StatusOK, summary)
}

// GetUserValuations values every portfolio of a user
// GET /api/portfolios/user/{userID}/valuation
func (h *PortfolioHandler) GetUserValuations(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(mux.Vars(r)["userID"])
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	summaries, err := h.valuator.ValueUser(r.Context(), userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to value portfolios")
		respondUpstreamError(w, err, "No portfolios for user")
		return
	}

	respondData(w, http.StatusOK, summaries)
}
