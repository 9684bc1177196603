package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/copytrade-backend/internal/errors"
	"github.com/copytrade-backend/internal/logging"
	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/provider"
	"github.com/copytrade-backend/internal/types"
)

// MirrorRuleRepository is the slice of rule storage the mirror loop needs
type MirrorRuleRepository interface {
	ListActive(ctx context.Context) ([]*models.CopyTradeRule, error)
}

// MirrorPositionRepository extends position storage with the lookups the
// mirror path needs
type MirrorPositionRepository interface {
	PositionRepository
	ListOpenByRuleAndToken(ctx context.Context, ruleID, tokenAddress string) ([]*models.Position, error)
}

// CopyPlan is a sized, not-yet-executed mirror of one target trade. The
// worker honors Delay before executing.
type CopyPlan struct {
	Rule    *models.CopyTradeRule
	Trade   models.Trade
	USDSize float64
	Delay   time.Duration
}

// MirrorService turns observed target trades into positions according to
// each follower's rule
type MirrorService struct {
	ruleRepo     MirrorRuleRepository
	positionRepo MirrorPositionRepository
	positions    *PositionService
	market       provider.MarketDataProvider
	log          *logging.Logger
}

// NewMirrorService creates a new mirror service
func NewMirrorService(
	ruleRepo MirrorRuleRepository,
	positionRepo MirrorPositionRepository,
	positions *PositionService,
	market provider.MarketDataProvider,
) *MirrorService {
	return &MirrorService{
		ruleRepo:     ruleRepo,
		positionRepo: positionRepo,
		positions:    positions,
		market:       market,
		log:          logging.WithComponent("mirror_service"),
	}
}

// PlanTrade matches a target trade against every active rule and sizes the
// resulting copies. Sell trades produce no plans; they close existing
// positions via HandleSell instead.
func (s *MirrorService) PlanTrade(ctx context.Context, trade models.Trade) ([]*CopyPlan, error) {
	if trade.Type != types.TradeBuy {
		return nil, nil
	}

	rules, err := s.ruleRepo.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list active rules", err)
	}

	from := strings.ToLower(trade.FromAddress)
	var plans []*CopyPlan
	for _, rule := range rules {
		if rule.TargetAddress != from {
			continue
		}
		if !rule.AllowsToken(trade.TokenSymbol) {
			continue
		}

		size, err := s.copySize(ctx, rule, trade)
		if err != nil {
			s.log.WithError(err).WithField("ruleId", rule.ID).Warn("sizing failed, skipping copy")
			continue
		}
		if size <= 0 {
			continue
		}

		plans = append(plans, &CopyPlan{
			Rule:    rule,
			Trade:   trade,
			USDSize: size,
			Delay:   time.Duration(rule.DelaySeconds) * time.Second,
		})
	}
	return plans, nil
}

// copySize converts a rule's copy method into a USD size, clamped to the
// rule's maximum position size
func (s *MirrorService) copySize(ctx context.Context, rule *models.CopyTradeRule, trade models.Trade) (float64, error) {
	var size float64
	switch rule.CopyMethod {
	case types.CopyFixedAmount:
		size = rule.CopyAmount
	case types.CopyPercentage:
		positions, err := s.positionRepo.ListByUser(ctx, rule.UserID, true)
		if err != nil {
			return 0, err
		}
		summary := Aggregate(positions, time.Now().UTC())
		size = summary.TotalValue * rule.CopyAmount / 100
	case types.CopyProportional:
		size = trade.USDValue * rule.CopyAmount
	default:
		return 0, apperrors.NewValidationError("copyMethod", "unknown copy method")
	}

	if size > rule.MaxPositionSize {
		size = rule.MaxPositionSize
	}
	return size, nil
}

// ExecutePlan opens the position for a sized copy. The entry price assumes
// the worst execution the rule tolerates: the quote shifted up by the full
// slippage tolerance.
func (s *MirrorService) ExecutePlan(ctx context.Context, plan *CopyPlan) (*models.Position, error) {
	quote, err := s.market.Quote(ctx, plan.Trade.TokenAddress)
	if err != nil {
		return nil, apperrors.NewProviderError("market", err)
	}

	entryPrice := quote.Price * (1 + plan.Rule.SlippageTolerance/100)
	amount := plan.USDSize / entryPrice

	position := &models.Position{
		ID:             uuid.New().String(),
		UserID:         plan.Rule.UserID,
		RuleID:         plan.Rule.ID,
		TargetAddress:  plan.Rule.TargetAddress,
		TokenAddress:   strings.ToLower(plan.Trade.TokenAddress),
		TokenSymbol:    plan.Trade.TokenSymbol,
		TokenName:      plan.Trade.TokenName,
		EntryPrice:     entryPrice,
		CurrentPrice:   quote.Price,
		Amount:         amount,
		OpenedAt:       time.Now().UTC(),
		IsOpen:         true,
		OriginalTxHash: plan.Trade.Hash,
		Chain:          plan.Trade.Chain,
	}

	if plan.Rule.StopLossPercent != nil {
		price := entryPrice * (1 - *plan.Rule.StopLossPercent/100)
		position.StopLossPrice = &price
	}
	if plan.Rule.TakeProfitPercent != nil {
		price := entryPrice * (1 + *plan.Rule.TakeProfitPercent/100)
		position.TakeProfitAt = &price
	}

	position.Recompute()

	if err := s.positionRepo.Create(ctx, position); err != nil {
		return nil, apperrors.NewDatabaseError("create position", err)
	}

	s.log.WithField("positionId", position.ID).
		WithField("ruleId", plan.Rule.ID).
		WithField("token", position.TokenSymbol).
		WithField("usdSize", plan.USDSize).
		Info("mirrored position opened")
	return position, nil
}

// HandleSell closes the open copies of a token the target just sold
func (s *MirrorService) HandleSell(ctx context.Context, trade models.Trade) error {
	if trade.Type != types.TradeSell {
		return nil
	}

	rules, err := s.ruleRepo.ListActive(ctx)
	if err != nil {
		return apperrors.NewDatabaseError("list active rules", err)
	}

	from := strings.ToLower(trade.FromAddress)
	token := strings.ToLower(trade.TokenAddress)
	for _, rule := range rules {
		if rule.TargetAddress != from {
			continue
		}

		positions, err := s.positionRepo.ListOpenByRuleAndToken(ctx, rule.ID, token)
		if err != nil {
			return apperrors.NewDatabaseError("list rule positions", err)
		}
		for _, position := range positions {
			if _, err := s.positions.CloseTriggered(ctx, position.ID, CloseReasonTargetSold); err != nil {
				s.log.WithError(err).WithField("positionId", position.ID).Warn("failed to close mirrored position")
			}
		}
	}
	return nil
}
