package api

import (
	"net/http"

	"github.com/copytrade-backend/internal/provider"
	"github.com/copytrade-backend/internal/service"
)

// handleGetAnalytics handles GET /api/analytics?addressId&type&timeframe.
func (s *Server) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	insight, err := s.analytics.Analyze(r.Context(), service.AnalyzeInput{
		AddressID: query.Get("addressId"),
		Kind:      provider.InsightKind(query.Get("type")),
		Timeframe: query.Get("timeframe"),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, insight)
}

// handlePostAnalytics handles POST /api/analytics with the same selection
// in the body.
func (s *Server) handlePostAnalytics(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AddressID string               `json:"addressId"`
		Kind      provider.InsightKind `json:"type"`
		Timeframe string               `json:"timeframe"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondErrorCode(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	insight, err := s.analytics.Analyze(r.Context(), service.AnalyzeInput{
		AddressID: req.AddressID,
		Kind:      req.Kind,
		Timeframe: req.Timeframe,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, insight)
}
