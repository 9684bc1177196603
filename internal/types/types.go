// Package types provides common type definitions for the copy-trade backend.
package types

// CopyMethod represents how a mirrored position is sized
type CopyMethod string

const (
	// CopyFixedAmount copies a fixed USD amount per target trade
	CopyFixedAmount CopyMethod = "FIXED_AMOUNT"
	// CopyPercentage copies a percentage of the follower's portfolio value
	CopyPercentage CopyMethod = "PERCENTAGE"
	// CopyProportional copies proportionally to the target trade size
	CopyProportional CopyMethod = "PROPORTIONAL"
)

// Valid reports whether m is a known copy method
func (m CopyMethod) Valid() bool {
	switch m {
	case CopyFixedAmount, CopyPercentage, CopyProportional:
		return true
	}
	return false
}

// RiskTier represents the qualitative risk level of a copy-trade rule
type RiskTier string

const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

// TradeType represents the direction of an observed target trade
type TradeType string

const (
	TradeBuy      TradeType = "BUY"
	TradeSell     TradeType = "SELL"
	TradeTransfer TradeType = "TRANSFER"
)

// ChainID represents supported blockchain networks
type ChainID string

const (
	// ChainEthereum represents the Ethereum mainnet
	ChainEthereum ChainID = "ethereum"
	// ChainBSC represents the BNB Chain
	ChainBSC ChainID = "bsc"
	// ChainPolygon represents the Polygon network
	ChainPolygon ChainID = "polygon"
	// ChainArbitrum represents the Arbitrum network
	ChainArbitrum ChainID = "arbitrum"
)

// TriggerKind distinguishes automatic position close triggers
type TriggerKind string

const (
	// TriggerStopLoss closes a position when price falls to the trigger
	TriggerStopLoss TriggerKind = "STOP_LOSS"
	// TriggerTakeProfit closes a position when price rises to the trigger
	TriggerTakeProfit TriggerKind = "TAKE_PROFIT"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Pagination describes the page window of a list response
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

// NewPagination computes the pagination envelope for total items
func NewPagination(page, limit, total int) Pagination {
	return Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		HasNext: page*limit < total,
		HasPrev: page > 1,
	}
}

// Bound returns the half-open slice window [start, end) for the page,
// clamped to total
func (p Pagination) Bound() (start, end int) {
	start = (p.Page - 1) * p.Limit
	if start > p.Total {
		start = p.Total
	}
	end = start + p.Limit
	if end > p.Total {
		end = p.Total
	}
	return start, end
}

// SortOrder represents list sort direction
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)
