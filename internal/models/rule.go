package models

import (
	"time"

	"github.com/copytrade-backend/internal/types"
)

// CopyTradeRule binds a user to a target address with sizing and risk
// parameters. Rules are toggled active/inactive, never mutated in place by
// the mirroring path.
type CopyTradeRule struct {
	ID                string           `json:"id" db:"id"`
	UserID            string           `json:"userId" db:"user_id"`
	TargetAddress     string           `json:"targetAddress" db:"target_address"`
	IsActive          bool             `json:"isActive" db:"is_active"`
	CopyMethod        types.CopyMethod `json:"copyMethod" db:"copy_method"`
	CopyAmount        float64          `json:"copyAmount" db:"copy_amount"`
	MaxPositionSize   float64          `json:"maxPositionSize" db:"max_position_size"`
	StopLossPercent   *float64         `json:"stopLossPercent,omitempty" db:"stop_loss_percent"`
	TakeProfitPercent *float64         `json:"takeProfitPercent,omitempty" db:"take_profit_percent"`
	DelaySeconds      int              `json:"delaySeconds" db:"delay_seconds"`
	AllowedTokens     []string         `json:"allowedTokens,omitempty" db:"allowed_tokens"`
	ExcludedTokens    []string         `json:"excludedTokens,omitempty" db:"excluded_tokens"`
	MinLiquidity      float64          `json:"minLiquidity" db:"min_liquidity"`
	SlippageTolerance float64          `json:"slippageTolerance" db:"slippage_tolerance"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time        `json:"updatedAt" db:"updated_at"`
}

// AllowsToken reports whether the rule permits mirroring trades in the given
// token symbol. The deny-list always wins over the allow-list; an empty
// allow-list permits every token not explicitly excluded.
func (r *CopyTradeRule) AllowsToken(symbol string) bool {
	for _, t := range r.ExcludedTokens {
		if t == symbol {
			return false
		}
	}
	if len(r.AllowedTokens) == 0 {
		return true
	}
	for _, t := range r.AllowedTokens {
		if t == symbol {
			return true
		}
	}
	return false
}
