package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/types"
)

// TradeFilter narrows a trade feed listing
type TradeFilter struct {
	Address     string
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

// TradeRepository stores the observed trade feed in ClickHouse
type TradeRepository struct {
	db *ClickHouseDB
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *ClickHouseDB) *TradeRepository {
	return &TradeRepository{db: db}
}

const tradeColumns = `id, hash, from_address, to_address, token_address, token_symbol,
	token_name, amount, usd_value, type, profit, profit_percent, timestamp,
	block_number, gas_used, gas_price, chain, dex_name`

// BatchInsert appends observed trades to the feed
func (r *TradeRepository) BatchInsert(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `INSERT INTO trades (`+tradeColumns+`)`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, trade := range trades {
		if err := ValidateAddress(trade.FromAddress); err != nil {
			return fmt.Errorf("invalid trade address %s: %w", trade.FromAddress, err)
		}

		err = batch.Append(
			trade.ID,
			trade.Hash,
			strings.ToLower(trade.FromAddress),
			strings.ToLower(trade.ToAddress),
			strings.ToLower(trade.TokenAddress),
			trade.TokenSymbol,
			trade.TokenName,
			trade.Amount,
			trade.USDValue,
			string(trade.Type),
			trade.Profit,
			trade.ProfitPercent,
			trade.Timestamp,
			trade.BlockNumber,
			trade.GasUsed,
			trade.GasPrice,
			string(trade.Chain),
			trade.DexName,
		)
		if err != nil {
			return fmt.Errorf("failed to append trade %s to batch: %w", trade.Hash, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// List returns trades matching the filter, time-descending, plus the
// unpaged total
func (r *TradeRepository) List(ctx context.Context, filter TradeFilter) ([]models.Trade, int, error) {
	where, args := buildTradeWhere(filter)

	var total uint64
	countQuery := "SELECT COUNT(*) FROM trades" + where
	if err := r.db.Conn().QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trades: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(
		"SELECT %s FROM trades%s ORDER BY timestamp DESC LIMIT %d OFFSET %d",
		tradeColumns, where, filter.Limit, offset,
	)

	rows, err := r.db.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var trade models.Trade
		var tradeType, chain string
		err := rows.Scan(
			&trade.ID,
			&trade.Hash,
			&trade.FromAddress,
			&trade.ToAddress,
			&trade.TokenAddress,
			&trade.TokenSymbol,
			&trade.TokenName,
			&trade.Amount,
			&trade.USDValue,
			&tradeType,
			&trade.Profit,
			&trade.ProfitPercent,
			&trade.Timestamp,
			&trade.BlockNumber,
			&trade.GasUsed,
			&trade.GasPrice,
			&chain,
			&trade.DexName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan trade: %w", err)
		}
		trade.Type = types.TradeType(tradeType)
		trade.Chain = types.ChainID(chain)
		trades = append(trades, trade)
	}

	return trades, int(total), rows.Err()
}

// Stats aggregates the win-rate and volume metadata for the filtered feed
func (r *TradeRepository) Stats(ctx context.Context, filter TradeFilter) (*models.TradeStats, error) {
	where, args := buildTradeWhere(filter)

	query := `
		SELECT
			COALESCE(SUM(profit), 0),
			COALESCE(SUM(usd_value), 0),
			countIf(profit > 0),
			COUNT(*)
		FROM trades` + where

	var stats models.TradeStats
	var profitable, total uint64
	err := r.db.Conn().QueryRow(ctx, query, args...).Scan(
		&stats.TotalProfit,
		&stats.TotalVolume,
		&profitable,
		&total,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate trade stats: %w", err)
	}

	stats.ProfitableTrades = int(profitable)
	stats.TotalTrades = int(total)
	if total > 0 {
		stats.WinRate = 100 * float64(profitable) / float64(total)
	}
	return &stats, nil
}

func buildTradeWhere(filter TradeFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.Address != "" {
		clauses = append(clauses, "from_address = ?")
		args = append(args, strings.ToLower(filter.Address))
	}
	if filter.TokenSymbol != "" {
		clauses = append(clauses, "token_symbol = ?")
		args = append(args, filter.TokenSymbol)
	}
	if filter.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.MinAmount != nil {
		clauses = append(clauses, "usd_value >= ?")
		args = append(args, *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		clauses = append(clauses, "usd_value <= ?")
		args = append(args, *filter.MaxAmount)
	}
	if filter.DateFrom != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, *filter.DateTo)
	}
	if filter.Chain != "" {
		clauses = append(clauses, "chain = ?")
		args = append(args, string(filter.Chain))
	}
	if filter.ProfitOnly {
		clauses = append(clauses, "profit > 0")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
