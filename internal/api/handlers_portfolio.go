package api

import (
	"net/http"
)

// handleGetPortfolio handles GET /api/portfolio?userId - aggregated summary.
func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondErrorCode(w, http.StatusBadRequest, ErrCodeInvalidInput, "userId parameter required")
		return
	}

	summary, err := s.portfolio.Summary(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
