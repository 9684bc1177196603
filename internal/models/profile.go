// Package models provides data models for the copy-trade backend.
package models

import (
	"time"

	"github.com/copytrade-backend/internal/types"
)

// AddressProfile represents a monitored wallet with aggregated trading
// statistics. Performance fields are immutable once derived; Followers and
// LastActive are refreshed by the data provider.
type AddressProfile struct {
	ID          string        `json:"id" db:"id"`
	Address     string        `json:"address" db:"address"`
	Name        string        `json:"name,omitempty" db:"name"`
	IsVerified  bool          `json:"isVerified" db:"is_verified"`
	Followers   int           `json:"followers" db:"followers"`
	TotalProfit float64       `json:"totalProfit" db:"total_profit"`
	ROI         float64       `json:"roi" db:"roi"`
	WinRate     float64       `json:"winRate" db:"win_rate"`
	TotalTrades int           `json:"totalTrades" db:"total_trades"`
	AvgHoldTime float64       `json:"avgHoldTime" db:"avg_hold_time"` // days
	RiskScore   float64       `json:"riskScore" db:"risk_score"`      // 0..10
	Chain       types.ChainID `json:"chain" db:"chain"`
	Tags        []string      `json:"tags,omitempty" db:"tags"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	LastActive  time.Time     `json:"lastActive" db:"last_active"`
}
