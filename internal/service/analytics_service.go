package service

import (
	"context"
	"fmt"

	apperrors "github.com/copytrade-backend/internal/errors"
	"github.com/copytrade-backend/internal/logging"
	"github.com/copytrade-backend/internal/provider"
	"github.com/copytrade-backend/internal/storage"
)

// AnalyticsService delegates analysis requests to the insight provider.
// A failed upstream call is never surfaced: the response degrades to a
// static fallback and the failure is logged. There is no retry.
type AnalyticsService struct {
	insight     provider.InsightProvider
	profileRepo ProfileRepository
	tradeRepo   TradeRepository
	log         *logging.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(insight provider.InsightProvider, profileRepo ProfileRepository, tradeRepo TradeRepository) *AnalyticsService {
	return &AnalyticsService{
		insight:     insight,
		profileRepo: profileRepo,
		tradeRepo:   tradeRepo,
		log:         logging.WithComponent("analytics_service"),
	}
}

// AnalyzeInput selects the address and analysis flavor
type AnalyzeInput struct {
	AddressID string
	Kind      provider.InsightKind
	Timeframe string
}

// Analyze resolves the address, gathers its trade statistics and asks the
// insight provider for an analysis
func (s *AnalyticsService) Analyze(ctx context.Context, input AnalyzeInput) (*provider.Insight, error) {
	if input.AddressID == "" {
		return nil, apperrors.NewValidationError("addressId", "must not be empty")
	}
	if input.Kind == "" {
		input.Kind = provider.InsightPerformance
	}
	if !input.Kind.Valid() {
		return nil, apperrors.NewValidationError("type",
			"must be one of performance, risk, prediction, strategy, comprehensive")
	}
	if input.Timeframe == "" {
		input.Timeframe = "30d"
	}

	profile, err := s.profileRepo.GetByID(ctx, input.AddressID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get profile", err)
	}
	if profile == nil {
		return nil, apperrors.NewNotFoundError("address", input.AddressID)
	}

	stats, err := s.tradeRepo.Stats(ctx, storage.TradeFilter{Address: profile.Address})
	if err != nil {
		// Analysis can proceed on profile data alone
		s.log.WithError(err).WithField("address", profile.Address).Warn("trade stats unavailable for analysis")
		stats = nil
	}

	insight, err := s.insight.Analyze(ctx, provider.InsightRequest{
		Kind:      input.Kind,
		Address:   profile.Address,
		Timeframe: input.Timeframe,
		Profile:   profile,
		Stats:     stats,
	})
	if err != nil {
		s.log.WithError(err).
			WithField("address", profile.Address).
			WithField("kind", string(input.Kind)).
			Warn("insight provider failed, serving fallback")
		return provider.FallbackInsight(), nil
	}

	if input.Kind == provider.InsightComprehensive {
		insight.Insights = append(insight.Insights, comprehensiveInsights(profile.ROI, profile.WinRate, profile.RiskScore)...)
	}
	if stats != nil {
		insight.DataPoints = stats.TotalTrades
	}

	return insight, nil
}

// comprehensiveInsights appends the score breakdown lines the dashboard
// shows for the comprehensive flavor
func comprehensiveInsights(roi, winRate, riskScore float64) []string {
	return []string{
		fmt.Sprintf("ROI: %.1f%%", roi),
		fmt.Sprintf("Win Rate: %.1f%%", winRate),
		fmt.Sprintf("Risk Score: %.1f/10", riskScore),
	}
}
