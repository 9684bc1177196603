package service

import (
	"context"
	"time"

	apperrors "github.com/copytrade-backend/internal/errors"
	"github.com/copytrade-backend/internal/models"
)

// PortfolioRuleRepository is the slice of rule storage the aggregator needs
type PortfolioRuleRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.CopyTradeRule, error)
}

// PortfolioService folds the position set into summary statistics. The
// summary is derived fresh on every read, never stored.
type PortfolioService struct {
	positionRepo PositionRepository
	ruleRepo     PortfolioRuleRepository
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(positionRepo PositionRepository, ruleRepo PortfolioRuleRepository) *PortfolioService {
	return &PortfolioService{
		positionRepo: positionRepo,
		ruleRepo:     ruleRepo,
	}
}

// Summary computes the portfolio summary for a user
func (s *PortfolioService) Summary(ctx context.Context, userID string) (*models.PortfolioSummary, error) {
	positions, err := s.positionRepo.ListByUser(ctx, userID, false)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list positions", err)
	}

	rules, err := s.ruleRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list rules", err)
	}

	now := time.Now().UTC()
	summary := Aggregate(positions, now)
	summary.UserID = userID
	summary.UpdatedAt = now

	targets := make(map[string]struct{})
	for _, rule := range rules {
		targets[rule.TargetAddress] = struct{}{}
		if rule.IsActive {
			summary.ActiveStrategies++
		}
	}
	summary.FollowedAddresses = len(targets)

	return summary, nil
}

// Aggregate is the pure fold over a position snapshot. An empty set yields
// all zeros; the win rate denominator is the full position count so there
// is never a division by zero.
func Aggregate(positions []*models.Position, now time.Time) *models.PortfolioSummary {
	summary := &models.PortfolioSummary{}
	if len(positions) == 0 {
		return summary
	}

	dayAgo := now.Add(-24 * time.Hour)
	profitable := 0
	for _, p := range positions {
		summary.TotalValue += p.Value
		summary.TotalProfit += p.Profit + p.RealizedProfit
		if p.IsOpen {
			summary.ActivePositions++
		}
		if p.Profit+p.RealizedProfit > 0 {
			profitable++
		}

		// Daily P&L counts unrealized profit of positions opened today and
		// realized profit of positions closed today
		if p.IsOpen && p.OpenedAt.After(dayAgo) {
			summary.DailyPnl += p.Profit
		}
		if p.ClosedAt != nil && p.ClosedAt.After(dayAgo) {
			summary.DailyPnl += p.RealizedProfit
		}
	}

	summary.WinRate = 100 * float64(profitable) / float64(len(positions))
	return summary
}
