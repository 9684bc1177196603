package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/types"
)

// simToken is one entry of the simulated token universe
type simToken struct {
	address   string
	symbol    string
	name      string
	basePrice float64
}

var simUniverse = []simToken{
	{"0x6982508145454ce325ddbe47a25d4ec3d2311933", "PEPE", "Pepe", 0.0000012},
	{"0x95ad61b0a150d79219dcf64e1e6cc01f0b64c4ce", "SHIB", "Shiba Inu", 0.0000085},
	{"0x514910771af9ca656af840dff83e8264ecf986ca", "LINK", "Chainlink", 14.25},
	{"0x1f9840a85d5af5bf1d1762f925bdaddc4201f984", "UNI", "Uniswap", 6.80},
	{"0x7d1afa7b718fb893db30a3abc0cfc608aacfebb0", "MATIC", "Polygon", 0.52},
	{"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", "WETH", "Wrapped Ether", 2450.0},
}

// SimulatedProvider fabricates market data with a seeded random walk so runs
// are reproducible. It stands in for a real indexer during development and
// in tests.
type SimulatedProvider struct {
	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]float64
}

// NewSimulatedProvider creates a provider seeded for reproducible output.
// A zero seed falls back to the current time.
func NewSimulatedProvider(seed int64) *SimulatedProvider {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedProvider{
		rng:    rand.New(rand.NewSource(seed)),
		prices: make(map[string]float64),
	}
}

// Quote returns the current simulated price for a token. Each call advances
// the token's price by a small random step.
func (p *SimulatedProvider) Quote(ctx context.Context, tokenAddress string) (*Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tok := lookupToken(tokenAddress)
	price, ok := p.prices[tok.address]
	if !ok {
		price = tok.basePrice
	}

	// Walk by up to +-2% per tick
	price *= 1 + (p.rng.Float64()-0.5)*0.04
	p.prices[tok.address] = price

	return &Quote{
		TokenAddress: tok.address,
		TokenSymbol:  tok.symbol,
		Price:        price,
		Timestamp:    time.Now().UTC(),
	}, nil
}

// Performance derives deterministic wallet metrics from the address itself,
// so repeated calls for the same address agree.
func (p *SimulatedProvider) Performance(ctx context.Context, address string) (*Performance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(address))
	seed := h.Sum64()

	// Derived, bounded metrics; the modulus picks each range
	roi := 20 + float64(seed%1500)/10          // 20..170
	winRate := 60 + float64((seed>>8)%400)/10  // 60..100
	trades := 50 + int((seed>>16)%450)         // 50..500
	holdDays := 1 + float64((seed>>24)%100)/10 // 1..11
	risk := 2 + float64((seed>>32)%80)/10      // 2..10
	followers := 500 + int((seed>>40)%1500)

	totalProfit := roi * float64(trades) * 3.5

	return &Performance{
		Address:     address,
		TotalProfit: math.Round(totalProfit*100) / 100,
		ROI:         math.Round(roi*100) / 100,
		WinRate:     math.Round(winRate*100) / 100,
		TotalTrades: trades,
		AvgHoldTime: math.Round(holdDays*10) / 10,
		RiskScore:   math.Round(risk*10) / 10,
		IsVerified:  seed%3 == 0,
		Followers:   followers,
	}, nil
}

// RecentTrades fabricates a time-descending trade feed for the address
func (p *SimulatedProvider) RecentTrades(ctx context.Context, address string, limit int) ([]models.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()
	trades := make([]models.Trade, 0, limit)
	for i := 0; i < limit; i++ {
		tok := simUniverse[p.rng.Intn(len(simUniverse))]
		amount := p.rng.Float64() * 10000
		usdValue := amount * tok.basePrice * (1 + (p.rng.Float64()-0.5)*0.1)

		tradeType := types.TradeBuy
		var profit *float64
		var profitPct *float64
		if p.rng.Float64() < 0.45 {
			tradeType = types.TradeSell
			pct := (p.rng.Float64() - 0.35) * 40
			pr := usdValue * pct / 100
			profit, profitPct = &pr, &pct
		}

		trades = append(trades, models.Trade{
			ID:            uuid.New().String(),
			Hash:          fmt.Sprintf("0x%064x", p.rng.Uint64()),
			FromAddress:   address,
			TokenAddress:  tok.address,
			TokenSymbol:   tok.symbol,
			TokenName:     tok.name,
			Amount:        amount,
			USDValue:      usdValue,
			Type:          tradeType,
			Profit:        profit,
			ProfitPercent: profitPct,
			Timestamp:     now.Add(-time.Duration(i) * 17 * time.Minute),
			BlockNumber:   19000000 - uint64(i)*12,
			GasUsed:       21000 + uint64(p.rng.Intn(180000)),
			GasPrice:      5 + p.rng.Float64()*40,
			Chain:         types.ChainEthereum,
			DexName:       "Uniswap V3",
		})
	}

	return trades, nil
}

// lookupToken resolves a token address against the universe, falling back to
// a synthetic token so unknown addresses still get a stable quote
func lookupToken(tokenAddress string) simToken {
	for _, t := range simUniverse {
		if t.address == tokenAddress {
			return t
		}
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(tokenAddress))
	base := 0.01 + float64(h.Sum64()%10000)/100

	return simToken{
		address:   tokenAddress,
		symbol:    "TKN",
		name:      "Unknown Token",
		basePrice: base,
	}
}
