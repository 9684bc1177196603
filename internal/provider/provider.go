// Package provider abstracts the external data sources behind interfaces so
// business logic never depends on a concrete upstream. Implementations must
// return quickly or fail; callers recover from failures with static
// fallbacks and never retry.
package provider

import (
	"context"
	"time"

	"github.com/copytrade-backend/internal/models"
)

// Quote is a point-in-time price for a token
type Quote struct {
	TokenAddress string    `json:"tokenAddress"`
	TokenSymbol  string    `json:"tokenSymbol"`
	Price        float64   `json:"price"`
	Timestamp    time.Time `json:"timestamp"`
}

// Performance carries the derived trading metrics for a wallet address
type Performance struct {
	Address     string  `json:"address"`
	TotalProfit float64 `json:"totalProfit"`
	ROI         float64 `json:"roi"`
	WinRate     float64 `json:"winRate"`
	TotalTrades int     `json:"totalTrades"`
	AvgHoldTime float64 `json:"avgHoldTime"`
	RiskScore   float64 `json:"riskScore"`
	IsVerified  bool    `json:"isVerified"`
	Followers   int     `json:"followers"`
}

// MarketDataProvider supplies prices, wallet metrics and the observed trade
// feed for monitored addresses
type MarketDataProvider interface {
	// Quote returns the current price for a token address
	Quote(ctx context.Context, tokenAddress string) (*Quote, error)

	// Performance derives trading metrics for a wallet address
	Performance(ctx context.Context, address string) (*Performance, error)

	// RecentTrades returns the newest observed trades of an address,
	// time-descending, at most limit entries
	RecentTrades(ctx context.Context, address string, limit int) ([]models.Trade, error)
}

// InsightKind selects the flavor of AI analysis
type InsightKind string

const (
	InsightPerformance   InsightKind = "performance"
	InsightRisk          InsightKind = "risk"
	InsightPrediction    InsightKind = "prediction"
	InsightStrategy      InsightKind = "strategy"
	InsightComprehensive InsightKind = "comprehensive"
)

// Valid reports whether k is a supported analysis kind
func (k InsightKind) Valid() bool {
	switch k {
	case InsightPerformance, InsightRisk, InsightPrediction, InsightStrategy, InsightComprehensive:
		return true
	}
	return false
}

// InsightRequest describes one analysis call
type InsightRequest struct {
	Kind      InsightKind            `json:"kind"`
	Address   string                 `json:"address"`
	Timeframe string                 `json:"timeframe"`
	Profile   *models.AddressProfile `json:"profile,omitempty"`
	Stats     *models.TradeStats     `json:"stats,omitempty"`
}

// Insight is the analysis payload returned to the caller
type Insight struct {
	Analysis        string   `json:"analysis"`
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
	Confidence      float64  `json:"confidence"`
	Model           string   `json:"model,omitempty"`
	DataPoints      int      `json:"dataPoints"`
}

// InsightProvider produces qualitative analysis for an address
type InsightProvider interface {
	Analyze(ctx context.Context, req InsightRequest) (*Insight, error)
}

// FallbackInsight is the static payload substituted when the upstream
// analysis provider is unavailable
func FallbackInsight() *Insight {
	return &Insight{
		Analysis:        "AI analysis temporarily unavailable. Using historical data patterns.",
		Insights:        []string{"Performance metrics calculated from transaction history"},
		Recommendations: []string{"Consider manual review of recent trades"},
		Confidence:      50,
		Model:           "fallback",
		DataPoints:      0,
	}
}
