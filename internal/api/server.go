// Package api provides the HTTP surface of the copy-trading backend.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/copytrade-backend/internal/logging"
	"github.com/copytrade-backend/internal/models"
	"github.com/copytrade-backend/internal/provider"
	"github.com/copytrade-backend/internal/service"
)

// AddressServiceInterface defines the address operations the server needs.
type AddressServiceInterface interface {
	ListAddresses(ctx context.Context, input service.ListAddressesInput) (*service.ListAddressesResult, error)
	GetAddress(ctx context.Context, ref string) (*models.AddressProfile, error)
	CreateAddress(ctx context.Context, input service.CreateAddressInput) (*models.AddressProfile, error)
	DeleteAddress(ctx context.Context, ref string) error
}

// RuleServiceInterface defines the copy-trade rule operations.
type RuleServiceInterface interface {
	CreateRule(ctx context.Context, input service.RuleInput) (*service.RuleResult, error)
	GetRule(ctx context.Context, id string) (*service.RuleResult, error)
	ListRules(ctx context.Context, userID string) ([]*service.RuleResult, error)
	UpdateRule(ctx context.Context, id string, input service.RuleInput) (*service.RuleResult, error)
	ToggleRule(ctx context.Context, id string) (*models.CopyTradeRule, error)
	DeleteRule(ctx context.Context, id string) error
}

// PositionServiceInterface defines the position lifecycle operations.
type PositionServiceInterface interface {
	ListPositions(ctx context.Context, userID string, openOnly bool) ([]*models.Position, error)
	GetPosition(ctx context.Context, id string) (*models.Position, error)
	ClosePosition(ctx context.Context, id string) (*models.Position, error)
	PartialClosePosition(ctx context.Context, id string, percentage float64) (*models.Position, error)
	SetStopLoss(ctx context.Context, id string, triggerPrice float64) (*models.Position, error)
	SetTakeProfit(ctx context.Context, id string, triggerPrice float64) (*models.Position, error)
}

// PortfolioServiceInterface defines the portfolio aggregation operations.
type PortfolioServiceInterface interface {
	Summary(ctx context.Context, userID string) (*models.PortfolioSummary, error)
}

// TransactionServiceInterface defines the trade feed operations.
type TransactionServiceInterface interface {
	ListTransactions(ctx context.Context, input service.ListTransactionsInput) (*service.ListTransactionsResult, error)
}

// AnalyticsServiceInterface defines the insight operations.
type AnalyticsServiceInterface interface {
	Analyze(ctx context.Context, input service.AnalyzeInput) (*provider.Insight, error)
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RateLimitPerMinute int
	RateLimitBurst     int
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       30 * time.Second,
		IdleTimeout:        60 * time.Second,
		ShutdownTimeout:    30 * time.Second,
		RateLimitPerMinute: 600,
		RateLimitBurst:     30,
	}
}

// Server is the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server

	addresses    AddressServiceInterface
	rules        RuleServiceInterface
	positions    PositionServiceInterface
	portfolio    PortfolioServiceInterface
	transactions TransactionServiceInterface
	analytics    AnalyticsServiceInterface

	limiter *RateLimiter
	config  *ServerConfig
	log     *logging.Logger
}

// NewServer creates a server wired to the given services.
func NewServer(
	config *ServerConfig,
	addresses AddressServiceInterface,
	rules RuleServiceInterface,
	positions PositionServiceInterface,
	portfolio PortfolioServiceInterface,
	transactions TransactionServiceInterface,
	analytics AnalyticsServiceInterface,
) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}

	s := &Server{
		router:       mux.NewRouter(),
		addresses:    addresses,
		rules:        rules,
		positions:    positions,
		portfolio:    portfolio,
		transactions: transactions,
		analytics:    analytics,
		limiter:      NewRateLimiter(config.RateLimitPerMinute, config.RateLimitBurst),
		config:       config,
		log:          logging.WithComponent("api"),
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// setupRouter configures middleware and routes.
func (s *Server) setupRouter() {
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(s.limiter))
	s.router.Use(CompressionMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Address leaderboard endpoints
	api.HandleFunc("/addresses", s.handleListAddresses).Methods("GET")
	api.HandleFunc("/addresses", s.handleCreateAddress).Methods("POST")
	api.HandleFunc("/addresses/{ref}", s.handleGetAddress).Methods("GET")
	api.HandleFunc("/addresses/{ref}", s.handleDeleteAddress).Methods("DELETE")

	// Trade feed endpoints
	api.HandleFunc("/transactions", s.handleListTransactions).Methods("GET")

	// Analytics endpoints
	api.HandleFunc("/analytics", s.handleGetAnalytics).Methods("GET")
	api.HandleFunc("/analytics", s.handlePostAnalytics).Methods("POST")

	// Copy-trade rule endpoints
	api.HandleFunc("/rules", s.handleCreateRule).Methods("POST")
	api.HandleFunc("/rules", s.handleListRules).Methods("GET")
	api.HandleFunc("/rules/{id}", s.handleGetRule).Methods("GET")
	api.HandleFunc("/rules/{id}", s.handleUpdateRule).Methods("PUT")
	api.HandleFunc("/rules/{id}/toggle", s.handleToggleRule).Methods("POST")
	api.HandleFunc("/rules/{id}", s.handleDeleteRule).Methods("DELETE")

	// Position endpoints
	api.HandleFunc("/positions", s.handleListPositions).Methods("GET")
	api.HandleFunc("/positions/{id}", s.handleGetPosition).Methods("GET")
	api.HandleFunc("/positions/{id}/close", s.handleClosePosition).Methods("POST")
	api.HandleFunc("/positions/{id}/partial-close", s.handlePartialClosePosition).Methods("POST")
	api.HandleFunc("/positions/{id}/stop-loss", s.handleSetStopLoss).Methods("POST")
	api.HandleFunc("/positions/{id}/take-profit", s.handleSetTakeProfit).Methods("POST")

	// Portfolio endpoints
	api.HandleFunc("/portfolio", s.handleGetPortfolio).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "copytrade-backend",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
