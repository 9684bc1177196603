package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/copytrade-backend/internal/service"
	"github.com/copytrade-backend/internal/types"
)

// handleListAddresses handles GET /api/addresses - leaderboard listing.
func (s *Server) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	input := service.ListAddressesInput{
		MinROI:       floatParam(query, "minRoi"),
		MaxROI:       floatParam(query, "maxRoi"),
		MinWinRate:   floatParam(query, "minWinRate"),
		MaxRiskScore: floatParam(query, "maxRiskScore"),
		MinFollowers: intParam(query, "minFollowers"),
		SortBy:       query.Get("sortBy"),
		SortOrder:    types.SortOrder(query.Get("sortOrder")),
		Page:         intValue(query, "page"),
		Limit:        intValue(query, "limit"),
	}
	for _, chain := range splitParam(query.Get("chains")) {
		input.Chains = append(input.Chains, types.ChainID(chain))
	}
	input.Tags = splitParam(query.Get("tags"))

	result, err := s.addresses.ListAddresses(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondPage(w, http.StatusOK, result.Profiles, result.Pagination)
}

// handleCreateAddress handles POST /api/addresses - start tracking an address.
func (s *Server) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	var input service.CreateAddressInput
	if err := parseJSONBody(r, &input); err != nil {
		respondErrorCode(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body")
		return
	}

	profile, err := s.addresses.CreateAddress(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, profile)
}

// handleGetAddress handles GET /api/addresses/{ref} - single profile by id
// or 0x address.
func (s *Server) handleGetAddress(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	profile, err := s.addresses.GetAddress(r.Context(), ref)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// handleDeleteAddress handles DELETE /api/addresses/{ref} - stop tracking.
func (s *Server) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	if err := s.addresses.DeleteAddress(r.Context(), ref); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "address removed")
}

// floatParam parses an optional float query parameter. Malformed values
// are treated as absent.
func floatParam(query url.Values, name string) *float64 {
	raw := query.Get(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

// intParam parses an optional int query parameter.
func intParam(query url.Values, name string) *int {
	raw := query.Get(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}

// intValue parses an int query parameter, returning 0 when absent or
// malformed so the service applies its default.
func intValue(query url.Values, name string) int {
	value, err := strconv.Atoi(query.Get(name))
	if err != nil {
		return 0
	}
	return value
}

// boolValue parses a bool query parameter, defaulting to false.
func boolValue(query url.Values, name string) bool {
	value, err := strconv.ParseBool(query.Get(name))
	if err != nil {
		return false
	}
	return value
}

// splitParam splits a comma-separated query parameter.
func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	var parts []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
