// Package main provides the API server entry point for the copy-trading
// backend.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/copytrade-backend/internal/api"
	"github.com/copytrade-backend/internal/config"
	"github.com/copytrade-backend/internal/logging"
	"github.com/copytrade-backend/internal/provider"
	"github.com/copytrade-backend/internal/service"
	"github.com/copytrade-backend/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))
	logger := logging.Global()

	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("structured logging initialized")

	logger.Info("connecting to databases")

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

	logger.Info("database connections established")

	market := newMarketProvider(cfg, logger)
	insight := provider.NewLLMInsightClient(cfg.Insight.Endpoint, cfg.Insight.APIKey, cfg.Insight.Timeout)

	profileRepo := storage.NewProfileRepository(postgres)
	ruleRepo := storage.NewRuleRepository(postgres)
	positionRepo := storage.NewPositionRepository(postgres)
	tradeRepo := storage.NewTradeRepository(clickhouse)
	leaderboard := storage.NewLeaderboardCache(redis, cfg.Market.LeaderboardTTL)

	addressService := service.NewAddressService(profileRepo, market, leaderboard)
	ruleService := service.NewRuleService(ruleRepo, profileRepo)
	positionService := service.NewPositionService(positionRepo, market)
	portfolioService := service.NewPortfolioService(positionRepo, ruleRepo)
	transactionService := service.NewTransactionService(tradeRepo, profileRepo)
	analyticsService := service.NewAnalyticsService(insight, profileRepo, tradeRepo)

	logger.Info("services initialized")

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	if port, err := strconv.Atoi(cfg.Server.Port); err == nil {
		serverConfig.Port = port
	}
	serverConfig.RateLimitPerMinute = cfg.RateLimit.RequestsPerMinute
	serverConfig.RateLimitBurst = cfg.RateLimit.Burst

	server := api.NewServer(serverConfig, addressService, ruleService, positionService,
		portfolioService, transactionService, analyticsService)

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": serverConfig.Host,
		"port": serverConfig.Port,
	}).Info("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("server forced to shutdown")
	}

	logger.Info("server exited")
}

// newMarketProvider selects the market data source. The simulated provider
// is the default; the chain watcher anchors wallet metrics to a live RPC
// endpoint.
func newMarketProvider(cfg *config.Config, logger *logging.Logger) provider.MarketDataProvider {
	if cfg.Market.Provider == "chain" {
		watcher, err := provider.NewChainWatcher(cfg.Market.RPCURL, cfg.Market.Seed)
		if err != nil {
			logger.WithError(err).Warn("chain watcher unavailable, using simulated market data")
		} else {
			logger.WithField("rpc", cfg.Market.RPCURL).Info("chain market provider initialized")
			return watcher
		}
	}
	return provider.NewSimulatedProvider(cfg.Market.Seed)
}
