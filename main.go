package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/analyst"
	"github.com/themis-intel/themis-engine/pkg/audit"
	"github.com/themis-intel/themis-engine/pkg/config"
	"github.com/themis-intel/themis-engine/pkg/database"
	"github.com/themis-intel/themis-engine/pkg/handlers"
	"github.com/themis-intel/themis-engine/pkg/llm"
	"github.com/themis-intel/themis-engine/pkg/logging"
	"github.com/themis-intel/themis-engine/pkg/market"
	"github.com/themis-intel/themis-engine/pkg/mcp"
	"github.com/themis-intel/themis-engine/pkg/mcp/tools"
	"github.com/themis-intel/themis-engine/pkg/middleware"
	"github.com/themis-intel/themis-engine/pkg/retry"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("primary_model", cfg.AI.PrimaryModel),
		zap.String("fallback_model", cfg.AI.FallbackModel),
		zap.Int("default_row_limit", cfg.Query.DefaultRowLimit),
		zap.Int("statement_timeout_ms", cfg.Query.StatementTimeoutMS),
	)

	ctx := context.Background()

	// The database may still be starting; retry transient failures only.
	var db *database.DB
	err = retry.DoIfRetryable(ctx, &retry.Config{
		MaxRetries:   5,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}, func() error {
		var connErr error
		db, connErr = database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
			MinConnections: cfg.Database.MinConnections,
		})
		return connErr
	})
	if err != nil {
		logger.Fatal("Failed to connect to analyst database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := runMigrations(cfg, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	auditor := audit.NewSecurityAuditor(logger)

	factory := llm.NewClientFactory(llm.ProviderCredentials{
		OpenRouterAPIKey:    cfg.AI.OpenRouterAPIKey,
		LiteLLMProxyBaseURL: cfg.AI.LiteLLMProxyBaseURL,
		LiteLLMProxyAPIKey:  cfg.AI.LiteLLMProxyAPIKey,
		AnthropicAPIKey:     cfg.AI.AnthropicAPIKey,
		OpenAIAPIKey:        cfg.AI.OpenAIAPIKey,
	}, cfg.AI.Temperature, cfg.AI.MaxTokens, logger)

	executor := analyst.NewQueryExecutor(db, cfg.Query.StatementTimeout(), logger)
	gateway := analyst.NewGateway(factory, executor, auditor, cfg.AI, cfg.Query, logger)

	marketStore := market.NewStore(db, logger)
	marketService := market.NewService(marketStore, auditor, cfg.Market, logger)

	mcpServer := mcp.NewServer("themis-engine", Version)
	tools.RegisterAnalystTools(mcpServer.MCP(), &tools.AnalystToolDeps{
		Gateway: gateway,
		Logger:  logger,
	})
	tools.RegisterMarketTools(mcpServer.MCP(), &tools.MarketToolDeps{
		Service: marketService,
		Logger:  logger,
	})
	tools.RegisterHealthTool(mcpServer.MCP(), Version)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAnalystHandler(gateway, logger).RegisterRoutes(mux)
	handlers.NewMarketHandler(marketService, logger).RegisterRoutes(mux)
	handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: middleware.RequestLogger(logger)(mux),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		var serveErr error
		if cfg.TLSCertPath != "" {
			logger.Info("Starting themis-engine with TLS",
				zap.String("addr", addr),
				zap.String("version", Version))
			serveErr = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			logger.Info("Starting themis-engine",
				zap.String("addr", addr),
				zap.String("version", Version))
			serveErr = server.ListenAndServe()
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(serveErr))
		}
	}()

	sig := <-shutdown
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Give in-flight queries up to 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("Server stopped")
	}
}

// runMigrations applies pending schema migrations. golang-migrate needs a
// database/sql handle, so this opens a short-lived connection through the
// pgx stdlib driver rather than reusing the pool.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer sqlDB.Close()

	return database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger)
}
