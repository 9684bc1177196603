// Package risk derives a qualitative risk tier from a copy-trade rule's
// parameters. Scoring is deterministic and side-effect free.
package risk

import (
	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/types"
)

// Factor records one contribution to a risk score
type Factor struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Detail string `json:"detail"`
}

// Assessment is the result of evaluating a rule
type Assessment struct {
	Score   int            `json:"score"`
	Tier    types.RiskTier `json:"tier"`
	Factors []Factor       `json:"factors"`
}

// Tier thresholds: score >= 5 is High, >= 3 is Medium, else Low
const (
	highThreshold   = 5
	mediumThreshold = 3
)

// Evaluate scores a rule and maps the cumulative score to a tier
func Evaluate(rule *models.CopyTradeRule) Assessment {
	var factors []Factor

	if rule.CopyAmount > 10 {
		factors = append(factors, Factor{
			Name:   "copy_amount",
			Points: 2,
			Detail: "copy amount above 10",
		})
	} else if rule.CopyAmount > 5 {
		factors = append(factors, Factor{
			Name:   "copy_amount",
			Points: 1,
			Detail: "copy amount above 5",
		})
	}

	if rule.StopLossPercent == nil {
		factors = append(factors, Factor{
			Name:   "stop_loss",
			Points: 3,
			Detail: "stop-loss disabled",
		})
	} else if *rule.StopLossPercent > 20 {
		factors = append(factors, Factor{
			Name:   "stop_loss",
			Points: 1,
			Detail: "stop-loss wider than 20%",
		})
	}

	if rule.SlippageTolerance > 3 {
		factors = append(factors, Factor{
			Name:   "slippage",
			Points: 2,
			Detail: "slippage tolerance above 3%",
		})
	} else if rule.SlippageTolerance > 1 {
		factors = append(factors, Factor{
			Name:   "slippage",
			Points: 1,
			Detail: "slippage tolerance above 1%",
		})
	}

	if rule.MinLiquidity < 50000 {
		factors = append(factors, Factor{
			Name:   "liquidity",
			Points: 2,
			Detail: "minimum liquidity below 50000",
		})
	}

	score := 0
	for _, f := range factors {
		score += f.Points
	}

	return Assessment{
		Score:   score,
		Tier:    tierFor(score),
		Factors: factors,
	}
}

func tierFor(score int) types.RiskTier {
	switch {
	case score >= highThreshold:
		return types.RiskHigh
	case score >= mediumThreshold:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}
