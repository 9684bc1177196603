package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/provider"
	"github.com/copytrade-backend/internal/storage"
	"github.com/copytrade-backend/internal/types"
)

// Mock repositories and providers for testing

type mockProfileRepo struct {
	profiles map[string]*models.AddressProfile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*models.AddressProfile)}
}

func (m *mockProfileRepo) Create(ctx context.Context, profile *models.AddressProfile) error {
	m.profiles[profile.ID] = profile
	return nil
}

func (m *mockProfileRepo) GetByID(ctx context.Context, id string) (*models.AddressProfile, error) {
	return m.profiles[id], nil
}

func (m *mockProfileRepo) GetByAddress(ctx context.Context, address string) (*models.AddressProfile, error) {
	for _, p := range m.profiles {
		if p.Address == address {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockProfileRepo) List(ctx context.Context, filter storage.ProfileFilter) ([]*models.AddressProfile, int, error) {
	var all []*models.AddressProfile
	for _, p := range m.profiles {
		if filter.MinROI != nil && p.ROI < *filter.MinROI {
			continue
		}
		if filter.MaxRiskScore != nil && p.RiskScore > *filter.MaxRiskScore {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if filter.SortOrder == types.SortAsc {
			return all[i].ROI < all[j].ROI
		}
		return all[i].ROI > all[j].ROI
	})

	total := len(all)
	page := types.Pagination{Page: filter.Page, Limit: filter.Limit, Total: total}
	start, end := page.Bound()
	return all[start:end], total, nil
}

func (m *mockProfileRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.profiles[id]; !ok {
		return fmt.Errorf("profile not found: %s", id)
	}
	delete(m.profiles, id)
	return nil
}

func (m *mockProfileRepo) UpdateActivity(ctx context.Context, id string, followers int, lastActive time.Time) error {
	p, ok := m.profiles[id]
	if !ok {
		return fmt.Errorf("profile not found: %s", id)
	}
	p.Followers = followers
	p.LastActive = lastActive
	return nil
}

type mockRuleRepo struct {
	rules map[string]*models.CopyTradeRule
}

func newMockRuleRepo() *mockRuleRepo {
	return &mockRuleRepo{rules: make(map[string]*models.CopyTradeRule)}
}

func (m *mockRuleRepo) Create(ctx context.Context, rule *models.CopyTradeRule) error {
	m.rules[rule.ID] = rule
	return nil
}

func (m *mockRuleRepo) GetByID(ctx context.Context, id string) (*models.CopyTradeRule, error) {
	return m.rules[id], nil
}

func (m *mockRuleRepo) ListByUser(ctx context.Context, userID string) ([]*models.CopyTradeRule, error) {
	var result []*models.CopyTradeRule
	for _, r := range m.rules {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockRuleRepo) ListActive(ctx context.Context) ([]*models.CopyTradeRule, error) {
	var result []*models.CopyTradeRule
	for _, r := range m.rules {
		if r.IsActive {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockRuleRepo) Update(ctx context.Context, rule *models.CopyTradeRule) error {
	if _, ok := m.rules[rule.ID]; !ok {
		return fmt.Errorf("rule not found: %s", rule.ID)
	}
	m.rules[rule.ID] = rule
	return nil
}

func (m *mockRuleRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.rules[id]; !ok {
		return fmt.Errorf("rule not found: %s", id)
	}
	delete(m.rules, id)
	return nil
}

type mockPositionRepo struct {
	positions map[string]*models.Position
}

func newMockPositionRepo() *mockPositionRepo {
	return &mockPositionRepo{positions: make(map[string]*models.Position)}
}

func (m *mockPositionRepo) Create(ctx context.Context, position *models.Position) error {
	m.positions[position.ID] = position
	return nil
}

func (m *mockPositionRepo) GetByID(ctx context.Context, id string) (*models.Position, error) {
	p, ok := m.positions[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (m *mockPositionRepo) ListByUser(ctx context.Context, userID string, openOnly bool) ([]*models.Position, error) {
	var result []*models.Position
	for _, p := range m.positions {
		if p.UserID != userID {
			continue
		}
		if openOnly && !p.IsOpen {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (m *mockPositionRepo) ListOpenByRuleAndToken(ctx context.Context, ruleID, tokenAddress string) ([]*models.Position, error) {
	var result []*models.Position
	for _, p := range m.positions {
		if p.IsOpen && p.RuleID == ruleID && p.TokenAddress == tokenAddress {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *mockPositionRepo) Update(ctx context.Context, position *models.Position) error {
	if _, ok := m.positions[position.ID]; !ok {
		return fmt.Errorf("position not found: %s", position.ID)
	}
	clone := *position
	m.positions[position.ID] = &clone
	return nil
}

type mockTradeRepo struct {
	trades []models.Trade
	err    error
}

func (m *mockTradeRepo) List(ctx context.Context, filter storage.TradeFilter) ([]models.Trade, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	var matched []models.Trade
	for _, t := range m.trades {
		if filter.Address != "" && t.FromAddress != filter.Address {
			continue
		}
		if filter.ProfitOnly && (t.Profit == nil || *t.Profit <= 0) {
			continue
		}
		matched = append(matched, t)
	}
	total := len(matched)
	page := types.Pagination{Page: filter.Page, Limit: filter.Limit, Total: total}
	start, end := page.Bound()
	return matched[start:end], total, nil
}

func (m *mockTradeRepo) Stats(ctx context.Context, filter storage.TradeFilter) (*models.TradeStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	stats := &models.TradeStats{}
	for _, t := range m.trades {
		if filter.Address != "" && t.FromAddress != filter.Address {
			continue
		}
		stats.TotalTrades++
		stats.TotalVolume += t.USDValue
		if t.Profit != nil {
			stats.TotalProfit += *t.Profit
			if *t.Profit > 0 {
				stats.ProfitableTrades++
			}
		}
	}
	if stats.TotalTrades > 0 {
		stats.WinRate = 100 * float64(stats.ProfitableTrades) / float64(stats.TotalTrades)
	}
	return stats, nil
}

// mockMarket serves fixed prices and performance
type mockMarket struct {
	prices   map[string]float64
	perf     *provider.Performance
	perfErr  error
	quoteErr error
}

func (m *mockMarket) Quote(ctx context.Context, tokenAddress string) (*provider.Quote, error) {
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	price, ok := m.prices[tokenAddress]
	if !ok {
		price = 1.0
	}
	return &provider.Quote{
		TokenAddress: tokenAddress,
		Price:        price,
		Timestamp:    time.Now().UTC(),
	}, nil
}

func (m *mockMarket) Performance(ctx context.Context, address string) (*provider.Performance, error) {
	if m.perfErr != nil {
		return nil, m.perfErr
	}
	if m.perf != nil {
		return m.perf, nil
	}
	return &provider.Performance{Address: address, ROI: 42, WinRate: 65, TotalTrades: 10}, nil
}

func (m *mockMarket) RecentTrades(ctx context.Context, address string, limit int) ([]models.Trade, error) {
	return nil, nil
}

// mockInsight either succeeds with a canned insight or fails
type mockInsight struct {
	insight *provider.Insight
	err     error
	calls   int
}

func (m *mockInsight) Analyze(ctx context.Context, req provider.InsightRequest) (*provider.Insight, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.insight, nil
}
