package models

import (
	"time"
)

// PortfolioSummary is derived, never stored: a fold over the user's current
// positions and rules, recomputed on each read.
type PortfolioSummary struct {
	UserID            string    `json:"userId"`
	TotalValue        float64   `json:"totalValue"`
	TotalProfit       float64   `json:"totalProfit"`
	DailyPnl          float64   `json:"dailyPnl"`
	ActivePositions   int       `json:"activePositions"`
	WinRate           float64   `json:"winRate"`
	ActiveStrategies  int       `json:"activeStrategies"`
	FollowedAddresses int       `json:"followedAddresses"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
