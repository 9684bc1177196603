package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/copytrade-backend/internal/service"
	"github.com/copytrade-backend/internal/types"
)

// handleListTransactions handles GET /api/transactions - filtered trade feed.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	input := service.ListTransactionsInput{
		AddressID:   query.Get("addressId"),
		TokenSymbol: query.Get("tokenSymbol"),
		Type:        types.TradeType(query.Get("type")),
		MinAmount:   floatParam(query, "minAmount"),
		MaxAmount:   floatParam(query, "maxAmount"),
		DateFrom:    timeParam(query, "dateFrom"),
		DateTo:      timeParam(query, "dateTo"),
		Chain:       types.ChainID(query.Get("chain")),
		ProfitOnly:  boolValue(query, "profitOnly"),
		Page:        intValue(query, "page"),
		Limit:       intValue(query, "limit"),
	}

	result, err := s.transactions.ListTransactions(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondPage(w, http.StatusOK, map[string]interface{}{
		"transactions": result.Trades,
		"stats":        result.Stats,
	}, result.Pagination)
}

// timeParam parses an optional RFC 3339 time query parameter.
func timeParam(query url.Values, name string) *time.Time {
	raw := query.Get(name)
	if raw == "" {
		return nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &value
}
