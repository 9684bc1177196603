package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/types"
)

// Chain address pattern: 0x followed by 40 hexadecimal characters
var addressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidateAddress validates a chain address format
func ValidateAddress(address string) error {
	if !addressRegex.MatchString(address) {
		return &types.ServiceError{
			Code:    "INVALID_ADDRESS_FORMAT",
			Message: fmt.Sprintf("invalid address format: %s (must be 0x followed by 40 hexadecimal characters)", address),
			Details: map[string]interface{}{
				"address": address,
				"format":  "0x[a-fA-F0-9]{40}",
			},
		}
	}
	return nil
}

// ProfileFilter narrows and orders a profile listing
type ProfileFilter struct {
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

// profileSortColumns whitelists sortable columns
var profileSortColumns = map[string]string{
	"roi":         "roi",
	"winRate":     "win_rate",
	"totalProfit": "total_profit",
	"followers":   "followers",
	"riskScore":   "risk_score",
	"lastActive":  "last_active",
}

// ProfileRepository handles address profile persistence
type ProfileRepository struct {
	db *PostgresDB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *PostgresDB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, address, name, is_verified, followers, total_profit, roi,
	win_rate, total_trades, avg_hold_time, risk_score, chain, tags, created_at, last_active`

// Create inserts a new address profile
func (r *ProfileRepository) Create(ctx context.Context, profile *models.AddressProfile) error {
	if err := ValidateAddress(profile.Address); err != nil {
		return err
	}
	profile.Address = strings.ToLower(profile.Address)

	query := `
		INSERT INTO address_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		profile.ID,
		profile.Address,
		profile.Name,
		profile.IsVerified,
		profile.Followers,
		profile.TotalProfit,
		profile.ROI,
		profile.WinRate,
		profile.TotalTrades,
		profile.AvgHoldTime,
		profile.RiskScore,
		profile.Chain,
		profile.Tags,
		profile.CreatedAt,
		profile.LastActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by id, returning nil when absent
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.AddressProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM address_profiles WHERE id = $1`
	return r.scanOne(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByAddress retrieves a profile by address, returning nil when absent
func (r *ProfileRepository) GetByAddress(ctx context.Context, address string) (*models.AddressProfile, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	address = strings.ToLower(address)

	query := `SELECT ` + profileColumns + ` FROM address_profiles WHERE address = $1`
	return r.scanOne(r.db.Pool().QueryRow(ctx, query, address))
}

// List returns the profiles matching the filter plus the unpaged total
func (r *ProfileRepository) List(ctx context.Context, filter ProfileFilter) ([]*models.AddressProfile, int, error) {
	where, args := buildProfileWhere(filter)

	countQuery := "SELECT COUNT(*) FROM address_profiles" + where
	var total int
	if err := r.db.Pool().QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count profiles: %w", err)
	}

	column, ok := profileSortColumns[filter.SortBy]
	if !ok {
		column = "roi"
	}
	direction := "DESC"
	if filter.SortOrder == types.SortAsc {
		direction = "ASC"
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(
		"SELECT %s FROM address_profiles%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		profileColumns, where, column, direction, len(args)+1, len(args)+2,
	)
	args = append(args, filter.Limit, offset)

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.AddressProfile
	for rows.Next() {
		profile, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, total, rows.Err()
}

// UpdateActivity refreshes the mutable fields of a profile
func (r *ProfileRepository) UpdateActivity(ctx context.Context, id string, followers int, lastActive time.Time) error {
	query := `UPDATE address_profiles SET followers = $2, last_active = $3 WHERE id = $1`
	result, err := r.db.Pool().Exec(ctx, query, id, followers, lastActive)
	if err != nil {
		return fmt.Errorf("failed to update profile activity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile not found: %s", id)
	}
	return nil
}

// Delete removes a profile
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool().Exec(ctx, `DELETE FROM address_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile not found: %s", id)
	}
	return nil
}

func buildProfileWhere(filter ProfileFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.MinROI != nil {
		add("roi >= $%d", *filter.MinROI)
	}
	if filter.MaxROI != nil {
		add("roi <= $%d", *filter.MaxROI)
	}
	if filter.MinWinRate != nil {
		add("win_rate >= $%d", *filter.MinWinRate)
	}
	if filter.MaxRiskScore != nil {
		add("risk_score <= $%d", *filter.MaxRiskScore)
	}
	if filter.MinFollowers != nil {
		add("followers >= $%d", *filter.MinFollowers)
	}
	if len(filter.Chains) > 0 {
		add("chain = ANY($%d)", filter.Chains)
	}
	if len(filter.Tags) > 0 {
		add("tags && $%d", filter.Tags)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ProfileRepository) scanOne(row pgx.Row) (*models.AddressProfile, error) {
	profile, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found, return nil without error
		}
		return nil, err
	}
	return profile, nil
}

func (r *ProfileRepository) scanRow(row rowScanner) (*models.AddressProfile, error) {
	var profile models.AddressProfile
	err := row.Scan(
		&profile.ID,
		&profile.Address,
		&profile.Name,
		&profile.IsVerified,
		&profile.Followers,
		&profile.TotalProfit,
		&profile.ROI,
		&profile.WinRate,
		&profile.TotalTrades,
		&profile.AvgHoldTime,
		&profile.RiskScore,
		&profile.Chain,
		&profile.Tags,
		&profile.CreatedAt,
		&profile.LastActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return &profile, nil
}
