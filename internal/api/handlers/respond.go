package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/screener/backend/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondUpstreamError maps a collaborator failure: 404 passes through, the rest is a bad gateway
func respondUpstreamError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, notFound)
		return
	}
	respondError(w, http.StatusBadGateway, err.Error())
}
