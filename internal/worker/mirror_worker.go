package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/copytrade-backend/internal/logging"
	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/service"
	"github.com/copytrade-backend/internal/types"
)

// MirrorRuleSource lists the active copy-trade rules.
type MirrorRuleSource interface {
	ListActive(ctx context.Context) ([]*models.CopyTradeRule, error)
}

// TradeFeed supplies the observed trade feed of a target address.
type TradeFeed interface {
	RecentTrades(ctx context.Context, address string, limit int) ([]models.Trade, error)
}

// TradePlanner turns observed trades into executed copies.
type TradePlanner interface {
	PlanTrade(ctx context.Context, trade models.Trade) ([]*service.CopyPlan, error)
	ExecutePlan(ctx context.Context, plan *service.CopyPlan) (*models.Position, error)
	HandleSell(ctx context.Context, trade models.Trade) error
}

// TradeSink persists observed trades for the transaction feed.
type TradeSink interface {
	BatchInsert(ctx context.Context, trades []models.Trade) error
}

// MirrorWorker polls the trade feeds of every followed target address and
// mirrors new trades through the planner. Each copy is executed after its
// rule's configured delay.
type MirrorWorker struct {
	ruleRepo  MirrorRuleSource
	feed      TradeFeed
	planner   TradePlanner
	tradeRepo TradeSink // optional

	pollInterval time.Duration
	feedLimit    int

	// lastSeen tracks the newest trade timestamp handled per target, so
	// a poll only processes trades it has not seen before.
	lastSeen map[string]time.Time

	running      bool
	mu           sync.RWMutex
	stopCh       chan struct{}
	doneCh       chan struct{}
	pending      sync.WaitGroup
	lastPollTime time.Time
	copiedTotal  int

	log *logging.Logger
}

// MirrorWorkerConfig holds configuration for a mirror worker.
type MirrorWorkerConfig struct {
	RuleRepo     MirrorRuleSource
	Feed         TradeFeed
	Planner      TradePlanner
	TradeRepo    TradeSink     // optional
	PollInterval time.Duration // default: 15s
	FeedLimit    int           // default: 20
}

// NewMirrorWorker creates a new mirror worker.
func NewMirrorWorker(cfg *MirrorWorkerConfig) (*MirrorWorker, error) {
	if cfg.RuleRepo == nil {
		return nil, fmt.Errorf("rule repository cannot be nil")
	}
	if cfg.Feed == nil {
		return nil, fmt.Errorf("trade feed cannot be nil")
	}
	if cfg.Planner == nil {
		return nil, fmt.Errorf("planner cannot be nil")
	}

	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 15 * time.Second
	}
	if pollInterval < time.Second {
		return nil, fmt.Errorf("poll interval must be at least 1s, got %v", pollInterval)
	}

	feedLimit := cfg.FeedLimit
	if feedLimit <= 0 {
		feedLimit = 20
	}

	return &MirrorWorker{
		ruleRepo:     cfg.RuleRepo,
		feed:         cfg.Feed,
		planner:      cfg.Planner,
		tradeRepo:    cfg.TradeRepo,
		pollInterval: pollInterval,
		feedLimit:    feedLimit,
		lastSeen:     make(map[string]time.Time),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		log:          logging.WithComponent("mirror_worker"),
	}, nil
}

// Start begins the polling loop.
func (w *MirrorWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.WithField("pollInterval", w.pollInterval.String()).Info("starting mirror worker")

	go w.pollLoop(ctx)

	return nil
}

// Stop gracefully stops the worker, waiting for delayed copies in flight.
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is not running")
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	pendingDone := make(chan struct{})
	go func() {
		w.pending.Wait()
		close(pendingDone)
	}()

	select {
	case <-pendingDone:
		w.log.Info("mirror worker stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

func (w *MirrorWorker) pollLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.mu.Lock()
			w.lastPollTime = time.Now()
			w.mu.Unlock()

			processed, err := w.Poll(ctx)
			if err != nil {
				w.log.WithError(err).Error("mirror poll failed")
				continue
			}
			if processed > 0 {
				w.log.WithField("trades", processed).Info("processed new target trades")
			}
		}
	}
}

// Poll fetches the feed of every followed target and processes trades not
// seen before. The first poll of a target only records its newest trade so
// historical trades are never mirrored. Returns the number of new trades
// processed; per-target failures are logged and skipped.
func (w *MirrorWorker) Poll(ctx context.Context) (int, error) {
	rules, err := w.ruleRepo.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active rules: %w", err)
	}

	targets := make(map[string]struct{})
	for _, rule := range rules {
		targets[strings.ToLower(rule.TargetAddress)] = struct{}{}
	}

	processed := 0
	for target := range targets {
		trades, err := w.feed.RecentTrades(ctx, target, w.feedLimit)
		if err != nil {
			w.log.WithError(err).WithField("target", target).Warn("trade feed fetch failed")
			continue
		}
		if len(trades) == 0 {
			continue
		}

		w.mu.RLock()
		since, tracked := w.lastSeen[target]
		w.mu.RUnlock()

		newest := trades[0].Timestamp
		if !tracked {
			w.mu.Lock()
			w.lastSeen[target] = newest
			w.mu.Unlock()
			continue
		}

		// Feed is time-descending; walk backwards to process oldest first.
		for i := len(trades) - 1; i >= 0; i-- {
			trade := trades[i]
			if !trade.Timestamp.After(since) {
				continue
			}
			if err := w.ProcessTrade(ctx, trade); err != nil {
				w.log.WithError(err).WithField("trade", trade.ID).Warn("trade processing failed")
				continue
			}
			processed++
		}

		if newest.After(since) {
			w.mu.Lock()
			w.lastSeen[target] = newest
			w.mu.Unlock()
		}
	}

	return processed, nil
}

// ProcessTrade records one observed trade and mirrors it: buys are planned
// and executed after each rule's delay, sells close the matching copies.
func (w *MirrorWorker) ProcessTrade(ctx context.Context, trade models.Trade) error {
	if w.tradeRepo != nil {
		if err := w.tradeRepo.BatchInsert(ctx, []models.Trade{trade}); err != nil {
			// Feed persistence is non-fatal for mirroring
			w.log.WithError(err).WithField("trade", trade.ID).Warn("trade persist failed")
		}
	}

	switch trade.Type {
	case types.TradeSell:
		return w.planner.HandleSell(ctx, trade)
	case types.TradeBuy:
		plans, err := w.planner.PlanTrade(ctx, trade)
		if err != nil {
			return err
		}
		for _, plan := range plans {
			w.schedule(ctx, plan)
		}
	}

	return nil
}

// schedule executes a copy plan after its delay, aborting on shutdown.
func (w *MirrorWorker) schedule(ctx context.Context, plan *service.CopyPlan) {
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()

		if plan.Delay > 0 {
			timer := time.NewTimer(plan.Delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case <-timer.C:
			}
		}

		position, err := w.planner.ExecutePlan(ctx, plan)
		if err != nil {
			w.log.WithError(err).WithFields(map[string]interface{}{
				"rule":  plan.Rule.ID,
				"trade": plan.Trade.ID,
			}).Warn("copy execution failed")
			return
		}

		w.mu.Lock()
		w.copiedTotal++
		w.mu.Unlock()

		w.log.WithFields(map[string]interface{}{
			"position": position.ID,
			"rule":     plan.Rule.ID,
			"token":    position.TokenSymbol,
			"usdSize":  plan.USDSize,
		}).Info("copied target trade")
	}()
}

// MirrorWorkerStatus is a point-in-time snapshot of the worker.
type MirrorWorkerStatus struct {
	Running             bool
	LastPollTime        time.Time
	TradesCopied        int
	TargetsTracked      int
	PollIntervalSeconds int
}

// GetStatus returns the current worker status.
func (w *MirrorWorker) GetStatus() *MirrorWorkerStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return &MirrorWorkerStatus{
		Running:             w.running,
		LastPollTime:        w.lastPollTime,
		TradesCopied:        w.copiedTotal,
		TargetsTracked:      len(w.lastSeen),
		PollIntervalSeconds: int(w.pollInterval.Seconds()),
	}
}
