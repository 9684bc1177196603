// Package worker runs the background loops of the copy-trading backend:
// the trigger worker that fires stop-loss/take-profit closes and the
// mirror worker that copies observed target trades into positions.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/copytrade-backend/internal/logging"
	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/provider"
	"github.com/copytrade-backend/internal/service"
	"github.com/copytrade-backend/internal/storage"
)

// TriggerPositionSource lists open positions carrying a trigger price.
type TriggerPositionSource interface {
	ListOpenWithTriggers(ctx context.Context, limit int) ([]*models.Position, error)
}

// PositionTriggerer applies price ticks and fires automatic closes.
type PositionTriggerer interface {
	ApplyPrice(ctx context.Context, position *models.Position, price float64) error
	CloseTriggered(ctx context.Context, id, reason string) (*models.Position, error)
}

// QuoteSource supplies token prices.
type QuoteSource interface {
	Quote(ctx context.Context, tokenAddress string) (*provider.Quote, error)
}

// TriggerWorker polls open positions with stop-loss or take-profit
// triggers, refreshes their prices and closes the ones whose trigger
// crossed.
type TriggerWorker struct {
	positionRepo TriggerPositionSource
	positions    PositionTriggerer
	market       QuoteSource
	quoteCache   *storage.QuoteCache

	pollInterval time.Duration
	batchSize    int

	running      bool
	mu           sync.RWMutex
	stopCh       chan struct{}
	doneCh       chan struct{}
	lastPollTime time.Time
	closedTotal  int

	log *logging.Logger
}

// TriggerWorkerConfig holds configuration for a trigger worker.
type TriggerWorkerConfig struct {
	PositionRepo TriggerPositionSource
	Positions    PositionTriggerer
	Market       QuoteSource
	QuoteCache   *storage.QuoteCache // optional
	PollInterval time.Duration       // default: 10s
	BatchSize    int                 // default: 200
}

// NewTriggerWorker creates a new trigger worker.
func NewTriggerWorker(cfg *TriggerWorkerConfig) (*TriggerWorker, error) {
	if cfg.PositionRepo == nil {
		return nil, fmt.Errorf("position repository cannot be nil")
	}
	if cfg.Positions == nil {
		return nil, fmt.Errorf("position service cannot be nil")
	}
	if cfg.Market == nil {
		return nil, fmt.Errorf("market provider cannot be nil")
	}

	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 10 * time.Second
	}
	if pollInterval < time.Second {
		return nil, fmt.Errorf("poll interval must be at least 1s, got %v", pollInterval)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}

	return &TriggerWorker{
		positionRepo: cfg.PositionRepo,
		positions:    cfg.Positions,
		market:       cfg.Market,
		quoteCache:   cfg.QuoteCache,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		log:          logging.WithComponent("trigger_worker"),
	}, nil
}

// Start begins the polling loop.
func (w *TriggerWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("trigger worker is already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.WithField("pollInterval", w.pollInterval.String()).Info("starting trigger worker")

	go w.pollLoop(ctx)

	return nil
}

// Stop gracefully stops the worker.
func (w *TriggerWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("trigger worker is not running")
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		w.log.Info("trigger worker stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

func (w *TriggerWorker) pollLoop(ctx context.Context) {
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

			closed, err := w.Poll(ctx)
			if err != nil {
				w.log.WithError(err).Error("trigger poll failed")
				continue
			}
			if closed > 0 {
				w.log.WithField("closed", closed).Info("triggered position closes")
			}
		}
	}
}

// Poll refreshes the price of every open triggered position and closes
// the ones whose stop-loss or take-profit crossed. Returns the number of
// positions closed. Per-position failures are logged and skipped.
func (w *TriggerWorker) Poll(ctx context.Context) (int, error) {
	positions, err := w.positionRepo.ListOpenWithTriggers(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list triggered positions: %w", err)
	}

	closed := 0
	for _, position := range positions {
		price, err := w.currentPrice(ctx, position.TokenAddress)
		if err != nil {
			// Stale price, skip until the next cycle
			w.log.WithError(err).WithField("token", position.TokenSymbol).Warn("price refresh failed")
			continue
		}

		if err := w.positions.ApplyPrice(ctx, position, price); err != nil {
			w.log.WithError(err).WithField("position", position.ID).Warn("price apply failed")
			continue
		}

		reason := triggerReason(position)
		if reason == "" {
			continue
		}

		if _, err := w.positions.CloseTriggered(ctx, position.ID, reason); err != nil {
			w.log.WithError(err).WithField("position", position.ID).Warn("triggered close failed")
			continue
		}

		w.log.WithFields(map[string]interface{}{
			"position": position.ID,
			"token":    position.TokenSymbol,
			"price":    price,
			"reason":   reason,
		}).Info("position closed by trigger")
		closed++
	}

	w.mu.Lock()
	w.closedTotal += closed
	w.mu.Unlock()

	return closed, nil
}

// currentPrice reads the cached quote when available, otherwise asks the
// market provider and fills the cache.
func (w *TriggerWorker) currentPrice(ctx context.Context, tokenAddress string) (float64, error) {
	if w.quoteCache != nil {
		if quote, err := w.quoteCache.Get(ctx, tokenAddress); err == nil && quote != nil {
			return quote.Price, nil
		}
	}

	quote, err := w.market.Quote(ctx, tokenAddress)
	if err != nil {
		return 0, err
	}

	if w.quoteCache != nil {
		if err := w.quoteCache.Put(ctx, quote); err != nil {
			w.log.WithError(err).Warn("quote cache write failed")
		}
	}

	return quote.Price, nil
}

// triggerReason reports which trigger the position's current price has
// crossed, or "" when none fired. Stop-loss is checked first.
func triggerReason(position *models.Position) string {
	if position.StopLossPrice != nil && position.CurrentPrice <= *position.StopLossPrice {
		return service.CloseReasonStopLoss
	}
	if position.TakeProfitAt != nil && position.CurrentPrice >= *position.TakeProfitAt {
		return service.CloseReasonTakeProfit
	}
	return ""
}

// TriggerWorkerStatus is a point-in-time snapshot of the worker.
type TriggerWorkerStatus struct {
	Running             bool
	LastPollTime        time.Time
	PositionsClosed     int
	PollIntervalSeconds int
}

// GetStatus returns the current worker status.
func (w *TriggerWorker) GetStatus() *TriggerWorkerStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return &TriggerWorkerStatus{
		Running:             w.running,
		LastPollTime:        w.lastPollTime,
		PositionsClosed:     w.closedTotal,
		PollIntervalSeconds: int(w.pollInterval.Seconds()),
	}
}
