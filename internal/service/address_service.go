// Package service implements the business logic of the copy-trading
// backend: address discovery, rule management, position lifecycle,
// portfolio aggregation and trade mirroring.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/copytrade-backend/internal/errors"
	"github.com/copytrade-backend/internal/logging"
	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/provider"
	"github.com/copytrade-backend/internal/storage"
	"github.com/copytrade-backend/internal/types"
)

// ProfileRepository interface for profile data operations
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.AddressProfile) error
	GetByID(ctx context.Context, id string) (*models.AddressProfile, error)
	GetByAddress(ctx context.Context, address string) (*models.AddressProfile, error)
	List(ctx context.Context, filter storage.ProfileFilter) ([]*models.AddressProfile, int, error)
	UpdateActivity(ctx context.Context, id string, followers int, lastActive time.Time) error
	Delete(ctx context.Context, id string) error
}

// AddressService handles address profile discovery and creation
type AddressService struct {
	profileRepo ProfileRepository
	market      provider.MarketDataProvider
	leaderboard *storage.LeaderboardCache
	log         *logging.Logger
}

// NewAddressService creates a new address service. The leaderboard cache
// is optional; without it every listing hits the repository.
func NewAddressService(profileRepo ProfileRepository, market provider.MarketDataProvider, leaderboard *storage.LeaderboardCache) *AddressService {
	return &AddressService{
		profileRepo: profileRepo,
		market:      market,
		leaderboard: leaderboard,
		log:         logging.WithComponent("address_service"),
	}
}

// ListAddressesInput narrows and pages the profile listing
type ListAddressesInput struct {
	MinROI       *float64
	MaxROI       *float64
	MinWinRate   *float64
	MaxRiskScore *float64
	MinFollowers *int
	Chains       []types.ChainID
	Tags         []string
	SortBy       string
	SortOrder    types.SortOrder
	Page         int
	Limit        int
}

// ListAddressesResult carries one page of profiles
type ListAddressesResult struct {
	Profiles   []*models.AddressProfile
	Pagination types.Pagination
}

// ListAddresses returns profiles matching the filter. Defaults: sorted by
// ROI descending, page 1, 20 per page.
func (s *AddressService) ListAddresses(ctx context.Context, input ListAddressesInput) (*ListAddressesResult, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 || input.Limit > 100 {
		input.Limit = 20
	}
	if input.SortBy == "" {
		input.SortBy = "roi"
	}
	if input.SortOrder == "" {
		input.SortOrder = types.SortDesc
	}

	filter := storage.ProfileFilter{
		MinROI:       input.MinROI,
		MaxROI:       input.MaxROI,
		MinWinRate:   input.MinWinRate,
		MaxRiskScore: input.MaxRiskScore,
		MinFollowers: input.MinFollowers,
		Chains:       input.Chains,
		Tags:         input.Tags,
		SortBy:       input.SortBy,
		SortOrder:    input.SortOrder,
		Page:         input.Page,
		Limit:        input.Limit,
	}

	if s.leaderboard != nil {
		cached, total, err := s.leaderboard.GetPage(ctx, filter)
		if err != nil {
			s.log.WithError(err).Warn("leaderboard cache read failed")
		} else if cached != nil {
			return &ListAddressesResult{
				Profiles:   cached,
				Pagination: types.NewPagination(input.Page, input.Limit, total),
			}, nil
		}
	}

	profiles, total, err := s.profileRepo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list profiles", err)
	}

	if s.leaderboard != nil {
		if err := s.leaderboard.PutPage(ctx, filter, profiles, total); err != nil {
			s.log.WithError(err).Warn("leaderboard cache write failed")
		}
	}

	return &ListAddressesResult{
		Profiles:   profiles,
		Pagination: types.NewPagination(input.Page, input.Limit, total),
	}, nil
}

// GetAddress returns a single profile. The reference may be either a
// profile id or a 0x address.
func (s *AddressService) GetAddress(ctx context.Context, ref string) (*models.AddressProfile, error) {
	var profile *models.AddressProfile
	var err error
	if storage.ValidateAddress(ref) == nil {
		profile, err = s.profileRepo.GetByAddress(ctx, strings.ToLower(ref))
	} else {
		profile, err = s.profileRepo.GetByID(ctx, ref)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get profile", err)
	}
	if profile == nil {
		return nil, apperrors.NewNotFoundError("address", ref)
	}
	return profile, nil
}

// DeleteAddress stops tracking a profile
func (s *AddressService) DeleteAddress(ctx context.Context, ref string) error {
	profile, err := s.GetAddress(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.profileRepo.Delete(ctx, profile.ID); err != nil {
		return apperrors.NewDatabaseError("delete profile", err)
	}
	s.log.WithField("address", profile.Address).Info("address profile removed")
	return nil
}

// CreateAddressInput represents a request to start tracking an address
type CreateAddressInput struct {
	Address string        `json:"address"`
	Chain   types.ChainID `json:"chain"`
	Name    string        `json:"name,omitempty"`
	Tags    []string      `json:"tags,omitempty"`
}

// CreateAddress validates the address, rejects duplicates and derives the
// profile's performance metrics from the market provider. A provider
// failure is not fatal: the profile is created with zeroed metrics and the
// failure is logged.
func (s *AddressService) CreateAddress(ctx context.Context, input CreateAddressInput) (*models.AddressProfile, error) {
	if err := storage.ValidateAddress(input.Address); err != nil {
		return nil, err
	}
	address := strings.ToLower(input.Address)

	if input.Chain == "" {
		input.Chain = types.ChainEthereum
	}

	existing, err := s.profileRepo.GetByAddress(ctx, address)
	if err != nil {
		return nil, apperrors.NewDatabaseError("check address", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError(fmt.Sprintf("address already tracked: %s", address))
	}

	now := time.Now().UTC()
	profile := &models.AddressProfile{
		ID:         uuid.New().String(),
		Address:    address,
		Name:       input.Name,
		Chain:      input.Chain,
		Tags:       input.Tags,
		CreatedAt:  now,
		LastActive: now,
	}
	if profile.Name == "" {
		profile.Name = fmt.Sprintf("Trader_%s", address[2:8])
	}

	perf, err := s.market.Performance(ctx, address)
	if err != nil {
		s.log.WithError(err).WithField("address", address).Warn("performance lookup failed, creating profile with empty metrics")
	} else {
		profile.IsVerified = perf.IsVerified
		profile.Followers = perf.Followers
		profile.TotalProfit = perf.TotalProfit
		profile.ROI = perf.ROI
		profile.WinRate = perf.WinRate
		profile.TotalTrades = perf.TotalTrades
		profile.AvgHoldTime = perf.AvgHoldTime
		profile.RiskScore = perf.RiskScore
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, apperrors.NewDatabaseError("create profile", err)
	}

	s.log.WithField("address", address).WithField("id", profile.ID).Info("address profile created")
	return profile, nil
}

// RefreshActivity updates the mutable profile fields from the provider
func (s *AddressService) RefreshActivity(ctx context.Context, id string) error {
	profile, err := s.GetAddress(ctx, id)
	if err != nil {
		return err
	}

	perf, err := s.market.Performance(ctx, profile.Address)
	if err != nil {
		// Logged only; stale activity data is acceptable
		s.log.WithError(err).WithField("address", profile.Address).Warn("activity refresh failed")
		return nil
	}

	if err := s.profileRepo.UpdateActivity(ctx, id, perf.Followers, time.Now().UTC()); err != nil {
		return apperrors.NewDatabaseError("update activity", err)
	}
	return nil
}
