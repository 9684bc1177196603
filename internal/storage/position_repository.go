package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/copytrade-backend/internal/models"
)

// PositionRepository handles position persistence
type PositionRepository struct {
	db *PostgresDB
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *PostgresDB) *PositionRepository {
	return &PositionRepository{db: db}
}

const positionColumns = `id, user_id, rule_id, target_address, token_address, token_symbol,
	token_name, entry_price, current_price, amount, value, profit, profit_percent,
	opened_at, closed_at, is_open, realized_profit, stop_loss_price, take_profit_price,
	close_reason, original_tx_hash, chain`

// Create inserts a new position
func (r *PositionRepository) Create(ctx context.Context, position *models.Position) error {
	query := `
		INSERT INTO positions (` + positionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		position.ID,
		position.UserID,
		position.RuleID,
		position.TargetAddress,
		position.TokenAddress,
		position.TokenSymbol,
		position.TokenName,
		position.EntryPrice,
		position.CurrentPrice,
		position.Amount,
		position.Value,
		position.Profit,
		position.ProfitPercent,
		position.OpenedAt,
		position.ClosedAt,
		position.IsOpen,
		position.RealizedProfit,
		position.StopLossPrice,
		position.TakeProfitAt,
		position.CloseReason,
		position.OriginalTxHash,
		position.Chain,
	)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

// GetByID retrieves a position by id, returning nil when absent
func (r *PositionRepository) GetByID(ctx context.Context, id string) (*models.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE id = $1`

	position, err := scanPosition(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return position, nil
}

// ListByUser returns a user's positions, optionally only open ones,
// newest first
func (r *PositionRepository) ListByUser(ctx context.Context, userID string, openOnly bool) ([]*models.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE user_id = $1`
	if openOnly {
		query += ` AND is_open`
	}
	query += ` ORDER BY opened_at DESC`
	return r.list(ctx, query, userID)
}

// ListOpenWithTriggers returns open positions carrying a stop-loss or
// take-profit price, oldest first so long-held positions get checked first
func (r *PositionRepository) ListOpenWithTriggers(ctx context.Context, limit int) ([]*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE is_open AND (stop_loss_price IS NOT NULL OR take_profit_price IS NOT NULL)
		ORDER BY opened_at
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

// ListOpenByRuleAndToken returns a rule's open positions in one token,
// used when a mirrored target sells
func (r *PositionRepository) ListOpenByRuleAndToken(ctx context.Context, ruleID, tokenAddress string) ([]*models.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE is_open AND rule_id = $1 AND token_address = $2
		ORDER BY opened_at
	`
	return r.list(ctx, query, ruleID, tokenAddress)
}

// ListOpen returns every open position, used by the price refresher
func (r *PositionRepository) ListOpen(ctx context.Context) ([]*models.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE is_open ORDER BY opened_at`
	return r.list(ctx, query)
}

// Update replaces the mutable fields of a position
func (r *PositionRepository) Update(ctx context.Context, position *models.Position) error {
	query := `
		UPDATE positions
		SET current_price = $2, amount = $3, value = $4, profit = $5, profit_percent = $6,
			closed_at = $7, is_open = $8, realized_profit = $9, stop_loss_price = $10,
			take_profit_price = $11, close_reason = $12
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		position.ID,
		position.CurrentPrice,
		position.Amount,
		position.Value,
		position.Profit,
		position.ProfitPercent,
		position.ClosedAt,
		position.IsOpen,
		position.RealizedProfit,
		position.StopLossPrice,
		position.TakeProfitAt,
		position.CloseReason,
	)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("position not found: %s", position.ID)
	}
	return nil
}

func (r *PositionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Position, error) {
	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}
	return positions, rows.Err()
}

func scanPosition(row rowScanner) (*models.Position, error) {
	var position models.Position
	err := row.Scan(
		&position.ID,
		&position.UserID,
		&position.RuleID,
		&position.TargetAddress,
		&position.TokenAddress,
		&position.TokenSymbol,
		&position.TokenName,
		&position.EntryPrice,
		&position.CurrentPrice,
		&position.Amount,
		&position.Value,
		&position.Profit,
		&position.ProfitPercent,
		&position.OpenedAt,
		&position.ClosedAt,
		&position.IsOpen,
		&position.RealizedProfit,
		&position.StopLossPrice,
		&position.TakeProfitAt,
		&position.CloseReason,
		&position.OriginalTxHash,
		&position.Chain,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}
	return &position, nil
}
