package models

import (
	"time"

	"github.com/copytrade-backend/internal/types"
)

// Trade represents an observed transaction of a monitored address, stored in
// ClickHouse as an append-only feed.
type Trade struct {
	ID            string          `json:"id" ch:"id"`
	Hash          string          `json:"hash" ch:"hash"`
	FromAddress   string          `json:"fromAddress" ch:"from_address"`
	ToAddress     string          `json:"toAddress,omitempty" ch:"to_address"`
	TokenAddress  string          `json:"tokenAddress" ch:"token_address"`
	TokenSymbol   string          `json:"tokenSymbol" ch:"token_symbol"`
	TokenName     string          `json:"tokenName" ch:"token_name"`
	Amount        float64         `json:"amount" ch:"amount"`
	USDValue      float64         `json:"usdValue" ch:"usd_value"`
	Type          types.TradeType `json:"type" ch:"type"`
	Profit        *float64        `json:"profit,omitempty" ch:"profit"`
	ProfitPercent *float64        `json:"profitPercent,omitempty" ch:"profit_percent"`
	Timestamp     time.Time       `json:"timestamp" ch:"timestamp"`
	BlockNumber   uint64          `json:"blockNumber" ch:"block_number"`
	GasUsed       uint64          `json:"gasUsed" ch:"gas_used"`
	GasPrice      float64         `json:"gasPrice" ch:"gas_price"`
	Chain         types.ChainID   `json:"chain" ch:"chain"`
	DexName       string          `json:"dexName,omitempty" ch:"dex_name"`
}

// TradeStats carries the aggregate metadata attached to a trade listing.
type TradeStats struct {
	TotalProfit      float64 `json:"totalProfit"`
	TotalVolume      float64 `json:"totalVolume"`
	WinRate          float64 `json:"winRate"`
	ProfitableTrades int     `json:"profitableTrades"`
	TotalTrades      int     `json:"totalTrades"`
}
