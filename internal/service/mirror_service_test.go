package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/types"
)

const mirrorToken = "0x514910771af9ca656af840dff83e8264ecf986ca"

func newMirrorFixture(t *testing.T, rules ...*models.CopyTradeRule) (*MirrorService, *mockPositionRepo) {
	t.Helper()

	ruleRepo := newMockRuleRepo()
	for _, r := range rules {
		ruleRepo.rules[r.ID] = r
	}
	positionRepo := newMockPositionRepo()
	market := &mockMarket{prices: map[string]float64{mirrorToken: 10}}

	positions := NewPositionService(positionRepo, market)
	return NewMirrorService(ruleRepo, positionRepo, positions, market), positionRepo
}

func buyTrade(usdValue float64) models.Trade {
	return models.Trade{
		ID:           "trade-1",
		Hash:         "0xabc",
		FromAddress:  testTarget,
		TokenAddress: mirrorToken,
		TokenSymbol:  "LINK",
		TokenName:    "Chainlink",
		Amount:       100,
		USDValue:     usdValue,
		Type:         types.TradeBuy,
		Timestamp:    time.Now().UTC(),
		Chain:        types.ChainEthereum,
	}
}

func activeRule(id string, method types.CopyMethod, amount float64) *models.CopyTradeRule {
	return &models.CopyTradeRule{
		ID:                id,
		UserID:            "user-1",
		TargetAddress:     testTarget,
		IsActive:          true,
		CopyMethod:        method,
		CopyAmount:        amount,
		MaxPositionSize:   1000,
		DelaySeconds:      15,
		MinLiquidity:      50000,
		SlippageTolerance: 2,
	}
}

func TestPlanTradeFixedAmount(t *testing.T) {
	svc, _ := newMirrorFixture(t, activeRule("r1", types.CopyFixedAmount, 200))

	plans, err := svc.PlanTrade(context.Background(), buyTrade(5000))
	if err != nil {
		t.Fatalf("PlanTrade() error = %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("len(plans) = %d, want 1", len(plans))
	}
	if plans[0].USDSize != 200 {
		t.Errorf("USDSize = %v, want 200", plans[0].USDSize)
	}
	if plans[0].Delay != 15*time.Second {
		t.Errorf("Delay = %v, want 15s", plans[0].Delay)
	}
}

func TestPlanTradeProportionalClampedToMax(t *testing.T) {
	// 0.5x of a 5000 USD trade would be 2500, clamped to the 1000 max
	svc, _ := newMirrorFixture(t, activeRule("r1", types.CopyProportional, 0.5))

	plans, err := svc.PlanTrade(context.Background(), buyTrade(5000))
	if err != nil {
		t.Fatalf("PlanTrade() error = %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("len(plans) = %d, want 1", len(plans))
	}
	if plans[0].USDSize != 1000 {
		t.Errorf("USDSize = %v, want clamped 1000", plans[0].USDSize)
	}
}

func TestPlanTradePercentageOfPortfolio(t *testing.T) {
	svc, repo := newMirrorFixture(t, activeRule("r1", types.CopyPercentage, 10))

	// Seed an open position worth 2000 USD
	seeded := newTestPosition("seed", 20, 90, 100)
	if err := repo.Create(context.Background(), seeded); err != nil {
		t.Fatalf("seed error = %v", err)
	}

	plans, err := svc.PlanTrade(context.Background(), buyTrade(500))
	if err != nil {
		t.Fatalf("PlanTrade() error = %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("len(plans) = %d, want 1", len(plans))
	}
	if math.Abs(plans[0].USDSize-200) > 1e-9 {
		t.Errorf("USDSize = %v, want 200 (10%% of 2000)", plans[0].USDSize)
	}
}

func TestPlanTradeFilters(t *testing.T) {
	denied := activeRule("denied", types.CopyFixedAmount, 100)
	denied.ExcludedTokens = []string{"LINK"}

	inactive := activeRule("inactive", types.CopyFixedAmount, 100)
	inactive.IsActive = false

	otherTarget := activeRule("other", types.CopyFixedAmount, 100)
	otherTarget.TargetAddress = "0x1111111111111111111111111111111111111111"

	svc, _ := newMirrorFixture(t, denied, inactive, otherTarget)

	plans, err := svc.PlanTrade(context.Background(), buyTrade(5000))
	if err != nil {
		t.Fatalf("PlanTrade() error = %v", err)
	}
	if len(plans) != 0 {
		t.Errorf("len(plans) = %d, want 0", len(plans))
	}
}

func TestPlanTradeIgnoresSells(t *testing.T) {
	svc, _ := newMirrorFixture(t, activeRule("r1", types.CopyFixedAmount, 100))

	trade := buyTrade(5000)
	trade.Type = types.TradeSell

	plans, err := svc.PlanTrade(context.Background(), trade)
	if err != nil {
		t.Fatalf("PlanTrade() error = %v", err)
	}
	if plans != nil {
		t.Errorf("sell trades should produce no plans, got %d", len(plans))
	}
}

func TestExecutePlan(t *testing.T) {
	sl := 10.0
	tp := 25.0
	rule := activeRule("r1", types.CopyFixedAmount, 500)
	rule.StopLossPercent = &sl
	rule.TakeProfitPercent = &tp

	svc, repo := newMirrorFixture(t, rule)

	plans, err := svc.PlanTrade(context.Background(), buyTrade(5000))
	if err != nil {
		t.Fatalf("PlanTrade() error = %v", err)
	}

	position, err := svc.ExecutePlan(context.Background(), plans[0])
	if err != nil {
		t.Fatalf("ExecutePlan() error = %v", err)
	}

	// Quote is 10, slippage 2% -> entry 10.2
	if math.Abs(position.EntryPrice-10.2) > 1e-9 {
		t.Errorf("EntryPrice = %v, want 10.2", position.EntryPrice)
	}
	if math.Abs(position.Amount-500/10.2) > 1e-9 {
		t.Errorf("Amount = %v, want %v", position.Amount, 500/10.2)
	}
	if position.StopLossPrice == nil || math.Abs(*position.StopLossPrice-10.2*0.9) > 1e-9 {
		t.Errorf("StopLossPrice = %v, want %v", position.StopLossPrice, 10.2*0.9)
	}
	if position.TakeProfitAt == nil || math.Abs(*position.TakeProfitAt-10.2*1.25) > 1e-9 {
		t.Errorf("TakeProfitAt = %v, want %v", position.TakeProfitAt, 10.2*1.25)
	}
	if !position.IsOpen {
		t.Error("new position should be open")
	}
	if math.Abs(position.Value-position.Amount*position.CurrentPrice) > 1e-9 {
		t.Error("value invariant broken on open")
	}

	if len(repo.positions) != 1 {
		t.Errorf("stored positions = %d, want 1", len(repo.positions))
	}
}

func TestHandleSellClosesCopies(t *testing.T) {
	rule := activeRule("r1", types.CopyFixedAmount, 500)
	svc, repo := newMirrorFixture(t, rule)
	ctx := context.Background()

	open := newTestPosition("p1", 10, 9, 10)
	open.RuleID = "r1"
	open.TokenAddress = mirrorToken
	if err := repo.Create(ctx, open); err != nil {
		t.Fatalf("seed error = %v", err)
	}

	trade := buyTrade(5000)
	trade.Type = types.TradeSell

	if err := svc.HandleSell(ctx, trade); err != nil {
		t.Fatalf("HandleSell() error = %v", err)
	}

	stored, _ := repo.GetByID(ctx, "p1")
	if stored.IsOpen {
		t.Error("mirrored position should be closed after target sells")
	}
	if stored.CloseReason != CloseReasonTargetSold {
		t.Errorf("CloseReason = %v, want %v", stored.CloseReason, CloseReasonTargetSold)
	}
}
