package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/copytrade-backend/internal/models"
)

// RuleRepository handles copy-trade rule persistence
type RuleRepository struct {
	db *PostgresDB
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *PostgresDB) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `id, user_id, target_address, is_active, copy_method, copy_amount,
	max_position_size, stop_loss_percent, take_profit_percent, delay_seconds,
	allowed_tokens, excluded_tokens, min_liquidity, slippage_tolerance, created_at, updated_at`

// Create inserts a new rule
func (r *RuleRepository) Create(ctx context.Context, rule *models.CopyTradeRule) error {
	if err := ValidateAddress(rule.TargetAddress); err != nil {
		return err
	}
	rule.TargetAddress = strings.ToLower(rule.TargetAddress)

	query := `
		INSERT INTO copy_trade_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		rule.ID,
		rule.UserID,
		rule.TargetAddress,
		rule.IsActive,
		rule.CopyMethod,
		rule.CopyAmount,
		rule.MaxPositionSize,
		rule.StopLossPercent,
		rule.TakeProfitPercent,
		rule.DelaySeconds,
		rule.AllowedTokens,
		rule.ExcludedTokens,
		rule.MinLiquidity,
		rule.SlippageTolerance,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

// GetByID retrieves a rule by id, returning nil when absent
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*models.CopyTradeRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM copy_trade_rules WHERE id = $1`

	rule, err := scanRule(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rule, nil
}

// ListByUser returns all rules owned by a user, newest first
func (r *RuleRepository) ListByUser(ctx context.Context, userID string) ([]*models.CopyTradeRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM copy_trade_rules WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListActive returns every active rule across all users, used by the
// mirroring loop
func (r *RuleRepository) ListActive(ctx context.Context) ([]*models.CopyTradeRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM copy_trade_rules WHERE is_active ORDER BY created_at`
	return r.list(ctx, query)
}

// CountActiveByUser returns the number of active rules for a user
func (r *RuleRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM copy_trade_rules WHERE user_id = $1 AND is_active`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active rules: %w", err)
	}
	return count, nil
}

// Update replaces the mutable fields of a rule
func (r *RuleRepository) Update(ctx context.Context, rule *models.CopyTradeRule) error {
	query := `
		UPDATE copy_trade_rules
		SET is_active = $2, copy_method = $3, copy_amount = $4, max_position_size = $5,
			stop_loss_percent = $6, take_profit_percent = $7, delay_seconds = $8,
			allowed_tokens = $9, excluded_tokens = $10, min_liquidity = $11,
			slippage_tolerance = $12, updated_at = $13
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		rule.ID,
		rule.IsActive,
		rule.CopyMethod,
		rule.CopyAmount,
		rule.MaxPositionSize,
		rule.StopLossPercent,
		rule.TakeProfitPercent,
		rule.DelaySeconds,
		rule.AllowedTokens,
		rule.ExcludedTokens,
		rule.MinLiquidity,
		rule.SlippageTolerance,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("rule not found: %s", rule.ID)
	}
	return nil
}

// Delete removes a rule
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool().Exec(ctx, `DELETE FROM copy_trade_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("rule not found: %s", id)
	}
	return nil
}

func (r *RuleRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.CopyTradeRule, error) {
	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.CopyTradeRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanRule(row rowScanner) (*models.CopyTradeRule, error) {
	var rule models.CopyTradeRule
	err := row.Scan(
		&rule.ID,
		&rule.UserID,
		&rule.TargetAddress,
		&rule.IsActive,
		&rule.CopyMethod,
		&rule.CopyAmount,
		&rule.MaxPositionSize,
		&rule.StopLossPercent,
		&rule.TakeProfitPercent,
		&rule.DelaySeconds,
		&rule.AllowedTokens,
		&rule.ExcludedTokens,
		&rule.MinLiquidity,
		&rule.SlippageTolerance,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}
	return &rule, nil
}
