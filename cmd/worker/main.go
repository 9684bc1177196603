// Package main runs the background workers: the stop-loss/take-profit
// trigger loop and the trade mirroring loop.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/copytrade-backend/internal/config"
	"github.com/copytrade-backend/internal/logging"
	"github.com/copytrade-backend/internal/provider"
	"github.com/copytrade-backend/internal/service"
	"github.com/copytrade-backend/internal/storage"
	"github.com/copytrade-backend/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))
	logger := logging.Global()

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Postgres")
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to ClickHouse")
	}
	defer clickhouse.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer redis.Close()

	market := newMarketProvider(cfg, logger)
	quoteCache := storage.NewQuoteCache(redis, cfg.Market.QuoteTTL)

	ruleRepo := storage.NewRuleRepository(postgres)
	positionRepo := storage.NewPositionRepository(postgres)
	tradeRepo := storage.NewTradeRepository(clickhouse)

	positionService := service.NewPositionService(positionRepo, market)
	mirrorService := service.NewMirrorService(ruleRepo, positionRepo, positionService, market)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var workers []stoppable

	if cfg.Trigger.Enabled {
		triggerWorker, err := worker.NewTriggerWorker(&worker.TriggerWorkerConfig{
			PositionRepo: positionRepo,
			Positions:    positionService,
			Market:       market,
			QuoteCache:   quoteCache,
			PollInterval: cfg.Trigger.PollInterval,
			BatchSize:    cfg.Trigger.BatchSize,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to create trigger worker")
		}
		if err := triggerWorker.Start(ctx); err != nil {
			logger.WithError(err).Fatal("failed to start trigger worker")
		}
		workers = append(workers, triggerWorker)
	} else {
		logger.Info("trigger worker disabled")
	}

	if cfg.Mirror.Enabled {
		mirrorWorker, err := worker.NewMirrorWorker(&worker.MirrorWorkerConfig{
			RuleRepo:     ruleRepo,
			Feed:         market,
			Planner:      mirrorService,
			TradeRepo:    tradeRepo,
			PollInterval: cfg.Mirror.PollInterval,
			FeedLimit:    cfg.Mirror.FeedBuffer,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to create mirror worker")
		}
		if err := mirrorWorker.Start(ctx); err != nil {
			logger.WithError(err).Fatal("failed to start mirror worker")
		}
		workers = append(workers, mirrorWorker)
	} else {
		logger.Info("mirror worker disabled")
	}

	if len(workers) == 0 {
		logger.Fatal("no workers enabled, nothing to do")
	}

	logger.WithField("workers", len(workers)).Info("workers started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down workers")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	for _, w := range workers {
		if err := w.Stop(stopCtx); err != nil {
			logger.WithError(err).Error("worker stop failed")
		}
	}

	logger.Info("workers exited")
}

type stoppable interface {
	Stop(ctx context.Context) error
}

func newMarketProvider(cfg *config.Config, logger *logging.Logger) provider.MarketDataProvider {
	if cfg.Market.Provider == "chain" {
		watcher, err := provider.NewChainWatcher(cfg.Market.RPCURL, cfg.Market.Seed)
		if err != nil {
			logger.WithError(err).Warn("chain watcher unavailable, using simulated market data")
		} else {
			return watcher
		}
	}
	return provider.NewSimulatedProvider(cfg.Market.Seed)
}
