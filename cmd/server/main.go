package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/api"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/config"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/database"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/logger"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/repository"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/scheduler"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/service"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/version"
	"github.com/ndewijer/Forecast-Paper-Trader-Backend/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	appLog := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(appLog)

	// Open database connection
	db, err := database.Open(context.Background(), cfg.Database.Path)
	if err != nil {
		appLog.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	appLog.Info().Str("path", cfg.Database.Path).Msg("Connected to database")

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	realizedGainLossRepo := repository.NewRealizedGainLossRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	forecastRepo := repository.NewForecastRepository(db)

	// Create services
	yahooClient := yahoo.NewFinanceClient(cfg.Oracle.BaseURL, cfg.Oracle.Timeout)
	oracle := service.NewYahooPriceOracle(
		yahooClient,
		cfg.Oracle.Timeout,
		appLog,
	)
	systemService := service.NewSystemService(db)
	portfolioService := service.NewPortfolioService(
		db,
		portfolioRepo,
		positionRepo,
		transactionRepo,
		realizedGainLossRepo,
		snapshotRepo,
		oracle,
		service.PortfolioSettings{
			DefaultID:       cfg.Portfolio.DefaultID,
			InitialCash:     decimal.NewFromFloat(cfg.Portfolio.DefaultInitialCash),
			RiskFreeRate:    cfg.Portfolio.RiskFreeRate,
			SnapshotOnTrade: cfg.Portfolio.SnapshotOnTrade,
		},
		appLog,
	)
	forecastService := service.NewForecastService(db, forecastRepo, yahooClient, appLog)
	strategyService := service.NewStrategyService(portfolioService, forecastService, oracle, appLog)

	// Background jobs
	sched := scheduler.New(appLog)
	if err := sched.AddJob(cfg.Scheduler.SnapshotSchedule, scheduler.NewSnapshotJob(portfolioService, appLog)); err != nil {
		appLog.Fatal().Err(err).Msg("Invalid SNAPSHOT_SCHEDULE")
	}
	if len(cfg.Scheduler.AutoStrategyTickers) > 0 {
		job := scheduler.NewAutoStrategyJob(
			strategyService,
			cfg.Scheduler.AutoStrategyPortfolio,
			cfg.Scheduler.AutoStrategy,
			cfg.Scheduler.AutoStrategyTickers,
			appLog,
		)
		if err := sched.AddJob(cfg.Scheduler.AutoStrategySchedule, job); err != nil {
			appLog.Fatal().Err(err).Msg("Invalid AUTO_STRATEGY_SCHEDULE")
		}
	}
	sched.Start()

	// Create router
	router := api.NewRouter(api.Services{
		System:    systemService,
		Portfolio: portfolioService,
		Strategy:  strategyService,
		Forecast:  forecastService,
	}, cfg, appLog)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		appLog.Info().
			Str("addr", cfg.Server.Addr).
			Str("version", version.Version).
			Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sched.Stop(ctx)

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	appLog.Info().Msg("Server exited")
}
