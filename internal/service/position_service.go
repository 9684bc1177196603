package service

import (
	"context"
	"time"

	apperrors "github.com/copytrade-backend/internal/errors"
	"github.com/copytrade-backend/internal/logging"
	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/provider"
)

// Close reasons recorded on terminated positions
const (
	CloseReasonManual     = "manual"
	CloseReasonPartial    = "partial_close"
	CloseReasonStopLoss   = "stop_loss"
	CloseReasonTakeProfit = "take_profit"
	CloseReasonTargetSold = "target_sold"
)

// PositionRepository interface for position data operations
type PositionRepository interface {
	Create(ctx context.Context, position *models.Position) error
	GetByID(ctx context.Context, id string) (*models.Position, error)
	ListByUser(ctx context.Context, userID string, openOnly bool) ([]*models.Position, error)
	Update(ctx context.Context, position *models.Position) error
}

// PositionService drives the position lifecycle state machine
type PositionService struct {
	positionRepo PositionRepository
	market       provider.MarketDataProvider
	log          *logging.Logger
}

// NewPositionService creates a new position service
func NewPositionService(positionRepo PositionRepository, market provider.MarketDataProvider) *PositionService {
	return &PositionService{
		positionRepo: positionRepo,
		market:       market,
		log:          logging.WithComponent("position_service"),
	}
}

// ListPositions returns a user's positions, optionally only open ones
func (s *PositionService) ListPositions(ctx context.Context, userID string, openOnly bool) ([]*models.Position, error) {
	positions, err := s.positionRepo.ListByUser(ctx, userID, openOnly)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list positions", err)
	}
	return positions, nil
}

// GetPosition returns a single position by id
func (s *PositionService) GetPosition(ctx context.Context, id string) (*models.Position, error) {
	position, err := s.positionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get position", err)
	}
	if position == nil {
		return nil, apperrors.NewNotFoundError("position", id)
	}
	return position, nil
}

// ClosePosition fully terminates an open position at the current price,
// realizing the unrealized profit. Closing a closed position fails with an
// invalid-state error.
func (s *PositionService) ClosePosition(ctx context.Context, id string) (*models.Position, error) {
	return s.closeWithReason(ctx, id, CloseReasonManual)
}

// closeWithReason is shared by manual closes, mirrored sells and automatic
// triggers
func (s *PositionService) closeWithReason(ctx context.Context, id, reason string) (*models.Position, error) {
	position, err := s.GetPosition(ctx, id)
	if err != nil {
		return nil, err
	}
	if !position.IsOpen {
		return nil, apperrors.NewInvalidStateError("position", id, "closed")
	}

	s.refreshPrice(ctx, position)
	terminate(position, reason)

	if err := s.positionRepo.Update(ctx, position); err != nil {
		return nil, apperrors.NewDatabaseError("close position", err)
	}

	s.log.WithField("positionId", id).
		WithField("reason", reason).
		WithField("realizedProfit", position.RealizedProfit).
		Info("position closed")
	return position, nil
}

// CloseTriggered closes a position on behalf of the trigger loop
func (s *PositionService) CloseTriggered(ctx context.Context, id, reason string) (*models.Position, error) {
	return s.closeWithReason(ctx, id, reason)
}

// PartialClosePosition realizes a percentage of an open position.
// Percentage must lie in (0,100]; 100 is equivalent to a full close.
func (s *PositionService) PartialClosePosition(ctx context.Context, id string, percentage float64) (*models.Position, error) {
	if percentage <= 0 || percentage > 100 {
		return nil, apperrors.NewInvalidArgumentError("percentage", "must be greater than 0 and at most 100")
	}

	position, err := s.GetPosition(ctx, id)
	if err != nil {
		return nil, err
	}
	if !position.IsOpen {
		return nil, apperrors.NewInvalidStateError("position", id, "closed")
	}

	s.refreshPrice(ctx, position)

	if percentage == 100 {
		terminate(position, CloseReasonPartial)
	} else {
		fraction := percentage / 100
		position.RealizedProfit += position.Profit * fraction
		position.Amount -= position.Amount * fraction
		position.Recompute()
	}

	if err := s.positionRepo.Update(ctx, position); err != nil {
		return nil, apperrors.NewDatabaseError("partial close position", err)
	}

	s.log.WithField("positionId", id).
		WithField("percentage", percentage).
		Info("position partially closed")
	return position, nil
}

// SetStopLoss attaches a stop-loss trigger price to an open position
func (s *PositionService) SetStopLoss(ctx context.Context, id string, triggerPrice float64) (*models.Position, error) {
	return s.setTrigger(ctx, id, triggerPrice, true)
}

// SetTakeProfit attaches a take-profit trigger price to an open position
func (s *PositionService) SetTakeProfit(ctx context.Context, id string, triggerPrice float64) (*models.Position, error) {
	return s.setTrigger(ctx, id, triggerPrice, false)
}

func (s *PositionService) setTrigger(ctx context.Context, id string, triggerPrice float64, stopLoss bool) (*models.Position, error) {
	if triggerPrice <= 0 {
		return nil, apperrors.NewInvalidArgumentError("triggerPrice", "must be positive")
	}

	position, err := s.GetPosition(ctx, id)
	if err != nil {
		return nil, err
	}
	if !position.IsOpen {
		return nil, apperrors.NewInvalidStateError("position", id, "closed")
	}

	if stopLoss {
		if triggerPrice >= position.CurrentPrice {
			return nil, apperrors.NewInvalidArgumentError("triggerPrice", "stop-loss must be below the current price")
		}
		position.StopLossPrice = &triggerPrice
	} else {
		if triggerPrice <= position.CurrentPrice {
			return nil, apperrors.NewInvalidArgumentError("triggerPrice", "take-profit must be above the current price")
		}
		position.TakeProfitAt = &triggerPrice
	}

	if err := s.positionRepo.Update(ctx, position); err != nil {
		return nil, apperrors.NewDatabaseError("set trigger", err)
	}
	return position, nil
}

// ApplyPrice refreshes a position's derived fields from a new price and
// persists it
func (s *PositionService) ApplyPrice(ctx context.Context, position *models.Position, price float64) error {
	position.CurrentPrice = price
	position.Recompute()
	if err := s.positionRepo.Update(ctx, position); err != nil {
		return apperrors.NewDatabaseError("refresh position price", err)
	}
	return nil
}

// refreshPrice pulls a last quote before realizing profit. A provider
// failure leaves the stored price in place, logged only.
func (s *PositionService) refreshPrice(ctx context.Context, position *models.Position) {
	quote, err := s.market.Quote(ctx, position.TokenAddress)
	if err != nil {
		s.log.WithError(err).
			WithField("positionId", position.ID).
			Warn("quote refresh failed, closing at stored price")
		return
	}
	position.CurrentPrice = quote.Price
	position.Recompute()
}

// terminate moves a position to its terminal state, realizing whatever
// profit remains. Amount drops to zero so a full partial close and a close
// end in identical states.
func terminate(position *models.Position, reason string) {
	position.Recompute()
	position.RealizedProfit += position.Profit
	position.Amount = 0
	position.Recompute()
	position.IsOpen = false
	position.CloseReason = reason
	now := time.Now().UTC()
	position.ClosedAt = &now
}
