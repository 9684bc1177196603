package models

import (
	"time"

	"github.com/copytrade-backend/internal/types"
)

// Position represents a simulated holding opened when a copy-trade rule
// mirrors a target trade. Value and Profit are derived fields: after every
// price refresh or partial close, Value = Amount * CurrentPrice and
// Profit = Value - Amount * EntryPrice.
type Position struct {
	ID             string        `json:"id" db:"id"`
	UserID         string        `json:"userId" db:"user_id"`
	RuleID         string        `json:"ruleId" db:"rule_id"`
	TargetAddress  string        `json:"targetAddress" db:"target_address"`
	TokenAddress   string        `json:"tokenAddress" db:"token_address"`
	TokenSymbol    string        `json:"tokenSymbol" db:"token_symbol"`
	TokenName      string        `json:"tokenName" db:"token_name"`
	EntryPrice     float64       `json:"entryPrice" db:"entry_price"`
	CurrentPrice   float64       `json:"currentPrice" db:"current_price"`
	Amount         float64       `json:"amount" db:"amount"`
	Value          float64       `json:"value" db:"value"`
	Profit         float64       `json:"profit" db:"profit"`
	ProfitPercent  float64       `json:"profitPercent" db:"profit_percent"`
	OpenedAt       time.Time     `json:"openedAt" db:"opened_at"`
	ClosedAt       *time.Time    `json:"closedAt,omitempty" db:"closed_at"`
	IsOpen         bool          `json:"isOpen" db:"is_open"`
	RealizedProfit float64       `json:"realizedProfit" db:"realized_profit"`
	StopLossPrice  *float64      `json:"stopLossPrice,omitempty" db:"stop_loss_price"`
	TakeProfitAt   *float64      `json:"takeProfitPrice,omitempty" db:"take_profit_price"`
	CloseReason    string        `json:"closeReason,omitempty" db:"close_reason"`
	OriginalTxHash string        `json:"originalTxHash" db:"original_tx_hash"`
	Chain          types.ChainID `json:"chain" db:"chain"`
}

// Recompute rederives Value, Profit and ProfitPercent from Amount,
// CurrentPrice and EntryPrice. Every mutation of those inputs must be
// followed by a Recompute.
func (p *Position) Recompute() {
	p.Value = p.Amount * p.CurrentPrice
	entryValue := p.Amount * p.EntryPrice
	p.Profit = p.Value - entryValue
	if entryValue != 0 {
		p.ProfitPercent = p.Profit / entryValue * 100
	} else {
		p.ProfitPercent = 0
	}
}
