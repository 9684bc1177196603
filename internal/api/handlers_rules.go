package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/copytrade-backend/internal/service"
)

// handleCreateRule handles POST /api/rules - follow a target address.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var input service.RuleInput
	if err := parseJSONBody(r, &input); err != nil {
		respondErrorCode(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	result, err := s.rules.CreateRule(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// handleListRules handles GET /api/rules?userId - list a user's rules.
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondErrorCode(w, http.StatusBadRequest, ErrCodeInvalidInput, "userId parameter required")
		return
	}

	results, err := s.rules.ListRules(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// handleGetRule handles GET /api/rules/{id}.
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	result, err := s.rules.GetRule(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleUpdateRule handles PUT /api/rules/{id} - reconfigure a rule.
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var input service.RuleInput
	if err := parseJSONBody(r, &input); err != nil {
		respondErrorCode(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	result, err := s.rules.UpdateRule(r.Context(), mux.Vars(r)["id"], input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleToggleRule handles POST /api/rules/{id}/toggle - flip active flag.
func (s *Server) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.rules.ToggleRule(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

// handleDeleteRule handles DELETE /api/rules/{id}.
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.DeleteRule(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "rule deleted")
}
