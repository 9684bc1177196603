package service

import (
	"context"
	"time"

	apperrors "github.com/copytrade-backend/internal/errors"
	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/storage"
	"github.com/copytrade-backend/internal/types"
)

// TradeRepository interface for trade feed operations
type TradeRepository interface {
	List(ctx context.Context, filter storage.TradeFilter) ([]models.Trade, int, error)
	Stats(ctx context.Context, filter storage.TradeFilter) (*models.TradeStats, error)
}

// TransactionService serves the observed trade feed with aggregate metadata
type TransactionService struct {
	tradeRepo   TradeRepository
	profileRepo ProfileRepository
}

// NewTransactionService creates a new transaction service
func NewTransactionService(tradeRepo TradeRepository, profileRepo ProfileRepository) *TransactionService {
	return &TransactionService{
		tradeRepo:   tradeRepo,
		profileRepo: profileRepo,
	}
}

// ListTransactionsInput narrows the trade listing
type ListTransactionsInput struct {
	AddressID   string
	TokenSymbol string
	Type        types.TradeType
	MinAmount   *float64
	MaxAmount   *float64
	DateFrom    *time.Time
	DateTo      *time.Time
	Chain       types.ChainID
	ProfitOnly  bool
	Page        int
	Limit       int
}

// ListTransactionsResult carries one page of trades plus the aggregate
// metadata for the whole filtered feed
type ListTransactionsResult struct {
	Trades     []models.Trade
	Stats      *models.TradeStats
	Pagination types.Pagination
}

// ListTransactions returns the filtered trade feed, time-descending,
// defaulting to 50 entries per page
func (s *TransactionService) ListTransactions(ctx context.Context, input ListTransactionsInput) (*ListTransactionsResult, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 || input.Limit > 500 {
		input.Limit = 50
	}

	filter := storage.TradeFilter{
		TokenSymbol: input.TokenSymbol,
		Type:        input.Type,
		MinAmount:   input.MinAmount,
		MaxAmount:   input.MaxAmount,
		DateFrom:    input.DateFrom,
		DateTo:      input.DateTo,
		Chain:       input.Chain,
		ProfitOnly:  input.ProfitOnly,
		Page:        input.Page,
		Limit:       input.Limit,
	}

	if input.AddressID != "" {
		profile, err := s.profileRepo.GetByID(ctx, input.AddressID)
		if err != nil {
			return nil, apperrors.NewDatabaseError("get profile", err)
		}
		if profile == nil {
			return nil, apperrors.NewNotFoundError("address", input.AddressID)
		}
		filter.Address = profile.Address
	}

	trades, total, err := s.tradeRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list trades", err)
	}

	stats, err := s.tradeRepo.Stats(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseError("aggregate trades", err)
	}

	return &ListTransactionsResult{
		Trades:     trades,
		Stats:      stats,
		Pagination: types.NewPagination(input.Page, input.Limit, total),
	}, nil
}
