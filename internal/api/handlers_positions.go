package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleListPositions handles GET /api/positions?userId&open.
func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	userID := query.Get("userId")
	if userID == "" {
		respondErrorCode(w, http.StatusBadRequest, ErrCodeInvalidInput, "userId parameter required")
		return
	}

	positions, err := s.positions.ListPositions(r.Context(), userID, boolValue(query, "open"))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, positions)
}

// handleGetPosition handles GET /api/positions/{id}.
func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	position, err := s.positions.GetPosition(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// handleClosePosition handles POST /api/positions/{id}/close.
func (s *Server) handleClosePosition(w http.ResponseWriter, r *http.Request) {
	position, err := s.positions.ClosePosition(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// handlePartialClosePosition handles POST /api/positions/{id}/partial-close.
func (s *Server) handlePartialClosePosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Percentage float64 `json:"percentage"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondErrorCode(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	position, err := s.positions.PartialClosePosition(r.Context(), mux.Vars(r)["id"], req.Percentage)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// handleSetStopLoss handles POST /api/positions/{id}/stop-loss.
func (s *Server) handleSetStopLoss(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TriggerPrice float64 `json:"triggerPrice"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondErrorCode(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	position, err := s.positions.SetStopLoss(r.Context(), mux.Vars(r)["id"], req.TriggerPrice)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// handleSetTakeProfit handles POST /api/positions/{id}/take-profit.
func (s *Server) handleSetTakeProfit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TriggerPrice float64 `json:"triggerPrice"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondErrorCode(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	position, err := s.positions.SetTakeProfit(r.Context(), mux.Vars(r)["id"], req.TriggerPrice)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, position)
}
