package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/copytrade-backend/internal/errors"
	"github.com/copytrade-backend/internal/logging"
	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/risk"
	"github.com/copytrade-backend/internal/storage"
	"github.com/copytrade-backend/internal/types"
)

// RuleRepository interface for rule data operations
type RuleRepository interface {
	Create(ctx context.Context, rule *models.CopyTradeRule) error
	GetByID(ctx context.Context, id string) (*models.CopyTradeRule, error)
	ListByUser(ctx context.Context, userID string) ([]*models.CopyTradeRule, error)
	Update(ctx context.Context, rule *models.CopyTradeRule) error
	Delete(ctx context.Context, id string) error
}

// RuleService validates and manages copy-trade rules
type RuleService struct {
	ruleRepo    RuleRepository
	profileRepo ProfileRepository
	log         *logging.Logger
}

// NewRuleService creates a new rule service
func NewRuleService(ruleRepo RuleRepository, profileRepo ProfileRepository) *RuleService {
	return &RuleService{
		ruleRepo:    ruleRepo,
		profileRepo: profileRepo,
		log:         logging.WithComponent("rule_service"),
	}
}

// RuleInput represents raw user input for creating or updating a rule
type RuleInput struct {
	UserID            string           `json:"userId"`
	TargetAddress     string           `json:"targetAddress"`
	CopyMethod        types.CopyMethod `json:"copyMethod"`
	CopyAmount        float64          `json:"copyAmount"`
	MaxPositionSize   float64          `json:"maxPositionSize"`
	StopLossPercent   *float64         `json:"stopLossPercent,omitempty"`
	TakeProfitPercent *float64         `json:"takeProfitPercent,omitempty"`
	DelaySeconds      int              `json:"delaySeconds"`
	AllowedTokens     []string         `json:"allowedTokens,omitempty"`
	ExcludedTokens    []string         `json:"excludedTokens,omitempty"`
	MinLiquidity      float64          `json:"minLiquidity"`
	SlippageTolerance float64          `json:"slippageTolerance"`
}

// RuleResult pairs a rule with its risk assessment
type RuleResult struct {
	Rule *models.CopyTradeRule `json:"rule"`
	Risk risk.Assessment       `json:"risk"`
}

// validateRuleInput enforces the parameter bounds; the first offending
// field fails the whole input
func validateRuleInput(input RuleInput) error {
	if err := storage.ValidateAddress(input.TargetAddress); err != nil {
		return err
	}
	if input.UserID == "" {
		return apperrors.NewValidationError("userId", "must not be empty")
	}
	if !input.CopyMethod.Valid() {
		return apperrors.NewValidationError("copyMethod", "must be one of FIXED_AMOUNT, PERCENTAGE, PROPORTIONAL")
	}
	if input.CopyAmount <= 0 {
		return apperrors.NewValidationError("copyAmount", "must be positive")
	}
	if input.MaxPositionSize < 100 {
		return apperrors.NewValidationError("maxPositionSize", "must be at least 100")
	}
	if input.DelaySeconds < 0 || input.DelaySeconds > 300 {
		return apperrors.NewValidationError("delaySeconds", "must be between 0 and 300")
	}
	if input.SlippageTolerance <= 0 || input.SlippageTolerance > 10 {
		return apperrors.NewValidationError("slippageTolerance", "must be greater than 0 and at most 10")
	}
	if input.MinLiquidity < 1000 {
		return apperrors.NewValidationError("minLiquidity", "must be at least 1000")
	}
	if input.StopLossPercent != nil && *input.StopLossPercent <= 0 {
		return apperrors.NewValidationError("stopLossPercent", "must be positive when set")
	}
	if input.TakeProfitPercent != nil && *input.TakeProfitPercent <= 0 {
		return apperrors.NewValidationError("takeProfitPercent", "must be positive when set")
	}
	return nil
}

// CreateRule validates the input and persists a new rule. The target
// address must already be tracked as a profile.
func (s *RuleService) CreateRule(ctx context.Context, input RuleInput) (*RuleResult, error) {
	if err := validateRuleInput(input); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByAddress(ctx, input.TargetAddress)
	if err != nil {
		return nil, apperrors.NewDatabaseError("check target address", err)
	}
	if profile == nil {
		return nil, apperrors.NewNotFoundError("address", input.TargetAddress)
	}

	now := time.Now().UTC()
	rule := &models.CopyTradeRule{
		ID:                uuid.New().String(),
		UserID:            input.UserID,
		TargetAddress:     profile.Address,
		IsActive:          true,
		CopyMethod:        input.CopyMethod,
		CopyAmount:        input.CopyAmount,
		MaxPositionSize:   input.MaxPositionSize,
		StopLossPercent:   input.StopLossPercent,
		TakeProfitPercent: input.TakeProfitPercent,
		DelaySeconds:      input.DelaySeconds,
		AllowedTokens:     input.AllowedTokens,
		ExcludedTokens:    input.ExcludedTokens,
		MinLiquidity:      input.MinLiquidity,
		SlippageTolerance: input.SlippageTolerance,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, apperrors.NewDatabaseError("create rule", err)
	}

	s.log.WithField("ruleId", rule.ID).
		WithField("target", rule.TargetAddress).
		Info("copy-trade rule created")

	return &RuleResult{Rule: rule, Risk: risk.Evaluate(rule)}, nil
}

// GetRule returns a rule with its risk assessment
func (s *RuleService) GetRule(ctx context.Context, id string) (*RuleResult, error) {
	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get rule", err)
	}
	if rule == nil {
		return nil, apperrors.NewNotFoundError("rule", id)
	}
	return &RuleResult{Rule: rule, Risk: risk.Evaluate(rule)}, nil
}

// ListRules returns a user's rules with risk assessments
func (s *RuleService) ListRules(ctx context.Context, userID string) ([]*RuleResult, error) {
	rules, err := s.ruleRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list rules", err)
	}

	results := make([]*RuleResult, 0, len(rules))
	for _, rule := range rules {
		results = append(results, &RuleResult{Rule: rule, Risk: risk.Evaluate(rule)})
	}
	return results, nil
}

// UpdateRule validates and replaces the mutable parameters of a rule
func (s *RuleService) UpdateRule(ctx context.Context, id string, input RuleInput) (*RuleResult, error) {
	if err := validateRuleInput(input); err != nil {
		return nil, err
	}

	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get rule", err)
	}
	if rule == nil {
		return nil, apperrors.NewNotFoundError("rule", id)
	}

	rule.CopyMethod = input.CopyMethod
	rule.CopyAmount = input.CopyAmount
	rule.MaxPositionSize = input.MaxPositionSize
	rule.StopLossPercent = input.StopLossPercent
	rule.TakeProfitPercent = input.TakeProfitPercent
	rule.DelaySeconds = input.DelaySeconds
	rule.AllowedTokens = input.AllowedTokens
	rule.ExcludedTokens = input.ExcludedTokens
	rule.MinLiquidity = input.MinLiquidity
	rule.SlippageTolerance = input.SlippageTolerance
	rule.UpdatedAt = time.Now().UTC()

	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return nil, apperrors.NewDatabaseError("update rule", err)
	}
	return &RuleResult{Rule: rule, Risk: risk.Evaluate(rule)}, nil
}

// ToggleRule flips a rule between active and inactive
func (s *RuleService) ToggleRule(ctx context.Context, id string) (*models.CopyTradeRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get rule", err)
	}
	if rule == nil {
		return nil, apperrors.NewNotFoundError("rule", id)
	}

	rule.IsActive = !rule.IsActive
	rule.UpdatedAt = time.Now().UTC()

	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return nil, apperrors.NewDatabaseError("toggle rule", err)
	}

	s.log.WithField("ruleId", rule.ID).
		WithField("active", rule.IsActive).
		Info("copy-trade rule toggled")
	return rule, nil
}

// DeleteRule removes a rule permanently
func (s *RuleService) DeleteRule(ctx context.Context, id string) error {
	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return apperrors.NewDatabaseError("get rule", err)
	}
	if rule == nil {
		return apperrors.NewNotFoundError("rule", id)
	}

	if err := s.ruleRepo.Delete(ctx, id); err != nil {
		return apperrors.NewDatabaseError("delete rule", err)
	}
	return nil
}
