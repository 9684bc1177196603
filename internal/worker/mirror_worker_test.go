package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/service"
	"github.com/copytrade-backend/internal/types"
)

const mirrorTarget = "0x742d35cc6b25cc8f2f3b1b5d0d2e0e5c9e1d2c3a"

type stubRuleSource struct {
	rules []*models.CopyTradeRule
}

func (s *stubRuleSource) ListActive(ctx context.Context) ([]*models.CopyTradeRule, error) {
	return s.rules, nil
}

type stubFeed struct {
	mu     sync.Mutex
	trades []models.Trade
}

func (s *stubFeed) RecentTrades(ctx context.Context, address string, limit int) ([]models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Trade, len(s.trades))
	copy(out, s.trades)
	return out, nil
}

func (s *stubFeed) push(trade models.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Newest first, matching the provider contract
	s.trades = append([]models.Trade{trade}, s.trades...)
}

type stubPlanner struct {
	mu       sync.Mutex
	plans    []*service.CopyPlan
	executed chan *service.CopyPlan
	sells    []models.Trade
}

func newStubPlanner() *stubPlanner {
	return &stubPlanner{executed: make(chan *service.CopyPlan, 16)}
}

func (s *stubPlanner) PlanTrade(ctx context.Context, trade models.Trade) ([]*service.CopyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan := &service.CopyPlan{
		Rule:    &models.CopyTradeRule{ID: "rule-1", TargetAddress: mirrorTarget},
		Trade:   trade,
		USDSize: 200,
	}
	s.plans = append(s.plans, plan)
	return []*service.CopyPlan{plan}, nil
}

func (s *stubPlanner) ExecutePlan(ctx context.Context, plan *service.CopyPlan) (*models.Position, error) {
	s.executed <- plan
	return &models.Position{ID: "pos-1", TokenSymbol: plan.Trade.TokenSymbol}, nil
}

func (s *stubPlanner) HandleSell(ctx context.Context, trade models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sells = append(s.sells, trade)
	return nil
}

type stubTradeSink struct {
	mu     sync.Mutex
	trades []models.Trade
}

func (s *stubTradeSink) BatchInsert(ctx context.Context, trades []models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, trades...)
	return nil
}

func feedTrade(id string, tradeType types.TradeType, at time.Time) models.Trade {
	return models.Trade{
		ID:           id,
		FromAddress:  mirrorTarget,
		TokenAddress: "0x1f9840a85d5af5bf1d1762f925bdaddc4201f984",
		TokenSymbol:  "UNI",
		USDValue:     1000,
		Type:         tradeType,
		Timestamp:    at,
	}
}

func newMirrorFixture(t *testing.T) (*MirrorWorker, *stubFeed, *stubPlanner, *stubTradeSink) {
	t.Helper()
	feed := &stubFeed{}
	planner := newStubPlanner()
	sink := &stubTradeSink{}
	rules := &stubRuleSource{rules: []*models.CopyTradeRule{
		{ID: "rule-1", UserID: "user-1", TargetAddress: mirrorTarget, IsActive: true},
	}}

	w, err := NewMirrorWorker(&MirrorWorkerConfig{
		RuleRepo:  rules,
		Feed:      feed,
		Planner:   planner,
		TradeRepo: sink,
	})
	if err != nil {
		t.Fatalf("NewMirrorWorker() error = %v", err)
	}
	return w, feed, planner, sink
}

func TestMirrorWorkerFirstPollOnlyRecords(t *testing.T) {
	w, feed, planner, _ := newMirrorFixture(t)
	feed.push(feedTrade("t-old", types.TradeBuy, time.Now().Add(-time.Hour)))

	processed, err := w.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if processed != 0 {
		t.Fatalf("processed = %d, want 0 on first poll", processed)
	}
	if len(planner.plans) != 0 {
		t.Errorf("historical trades were planned: %d", len(planner.plans))
	}
}

func TestMirrorWorkerCopiesNewBuy(t *testing.T) {
	w, feed, planner, sink := newMirrorFixture(t)
	feed.push(feedTrade("t-old", types.TradeBuy, time.Now().Add(-time.Hour)))

	if _, err := w.Poll(context.Background()); err != nil {
		t.Fatalf("first Poll() error = %v", err)
	}

	feed.push(feedTrade("t-new", types.TradeBuy, time.Now()))

	processed, err := w.Poll(context.Background())
	if err != nil {
		t.Fatalf("second Poll() error = %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}

	select {
	case plan := <-planner.executed:
		if plan.Trade.ID != "t-new" {
			t.Errorf("executed trade = %q, want t-new", plan.Trade.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("copy plan was not executed")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.trades) != 1 || sink.trades[0].ID != "t-new" {
		t.Errorf("persisted trades = %v, want [t-new]", sink.trades)
	}
}

func TestMirrorWorkerSellClosesCopies(t *testing.T) {
	w, feed, planner, _ := newMirrorFixture(t)
	feed.push(feedTrade("t-old", types.TradeBuy, time.Now().Add(-time.Hour)))

	if _, err := w.Poll(context.Background()); err != nil {
		t.Fatalf("first Poll() error = %v", err)
	}

	feed.push(feedTrade("t-sell", types.TradeSell, time.Now()))

	processed, err := w.Poll(context.Background())
	if err != nil {
		t.Fatalf("second Poll() error = %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}

	planner.mu.Lock()
	defer planner.mu.Unlock()
	if len(planner.sells) != 1 || planner.sells[0].ID != "t-sell" {
		t.Errorf("sells = %v, want [t-sell]", planner.sells)
	}
	if len(planner.plans) != 0 {
		t.Errorf("sell produced copy plans: %d", len(planner.plans))
	}
}

func TestMirrorWorkerSeenTradesNotReprocessed(t *testing.T) {
	w, feed, _, _ := newMirrorFixture(t)
	feed.push(feedTrade("t-old", types.TradeBuy, time.Now().Add(-time.Hour)))

	if _, err := w.Poll(context.Background()); err != nil {
		t.Fatalf("first Poll() error = %v", err)
	}

	feed.push(feedTrade("t-new", types.TradeBuy, time.Now()))
	if _, err := w.Poll(context.Background()); err != nil {
		t.Fatalf("second Poll() error = %v", err)
	}

	processed, err := w.Poll(context.Background())
	if err != nil {
		t.Fatalf("third Poll() error = %v", err)
	}
	if processed != 0 {
		t.Fatalf("processed = %d, want 0 on repeat poll", processed)
	}
}

func TestMirrorWorkerDelayedExecution(t *testing.T) {
	w, _, planner, _ := newMirrorFixture(t)

	trade := feedTrade("t-delayed", types.TradeBuy, time.Now())
	plan := &service.CopyPlan{
		Rule:  &models.CopyTradeRule{ID: "rule-1"},
		Trade: trade,
		Delay: 50 * time.Millisecond,
	}

	started := time.Now()
	w.schedule(context.Background(), plan)

	select {
	case <-planner.executed:
		if elapsed := time.Since(started); elapsed < 50*time.Millisecond {
			t.Errorf("executed after %v, want at least the 50ms delay", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delayed plan was not executed")
	}
}
