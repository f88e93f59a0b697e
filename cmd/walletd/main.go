package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/port"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/provider"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/app/service"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/infrastructure/bridge"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/infrastructure/configloader"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/infrastructure/restapi"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/pkg/logger"
	"github.com/Emmanuelluxury/vernwallet-sub002/internal/pkg/metrics"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.yml"
	}
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to load configuration from %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	zapLogger, err := buildZapLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	// Route the global slog logger through zap so both APIs log to one sink.
	slogHandler := slogzap.Option{
		Level:  slogLevel(cfg.Logging.Level),
		Logger: zapLogger,
	}.NewZapHandler()
	logger.SetHandler(slogHandler)

	appLogger := logger.NewSlogAdapter()
	appLogger.Info("Wallet dashboard service starting", "config", cfgPath)

	metrics.MustRegisterMetrics()

	catalogProvider := provider.NewCatalogProvider(cfg.Catalog.Dir, appLogger)

	var integration port.WalletIntegration
	var probe restapi.IntegrationProbe
	if cfg.Bridge.BaseURL != "" {
		client := bridge.NewClient(
			cfg.Bridge.BaseURL,
			time.Duration(cfg.Bridge.RequestTimeoutMillis)*time.Millisecond,
			rate.Limit(cfg.Bridge.RateLimitPerSecond),
			cfg.Bridge.RateLimitBurst,
			zapLogger,
		)
		integration = client
		probe = client
		appLogger.Info("Wallet bridge client initialized", "baseURL", cfg.Bridge.BaseURL)
	} else {
		appLogger.Warn("Bridge baseURL not configured, wallet integration not loaded")
	}

	hub := service.NewHub(
		integration,
		catalogProvider,
		appLogger,
		cfg.Data.TransactionsDefaultLimit,
		time.Duration(cfg.Data.SnapshotTTLSeconds)*time.Second,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Staking.ResyncIntervalSeconds > 0 {
		interval := time.Duration(cfg.Staking.ResyncIntervalSeconds) * time.Second
		go hub.RunResyncLoop(ctx, interval)
		appLogger.Info("Periodic position resync enabled", "interval", interval.String())
	}

	walletHandler := restapi.NewWalletHandler(hub, probe, appLogger)
	stakingHandler := restapi.NewStakingHandler(hub, catalogProvider, appLogger)
	router := restapi.SetupRouter(walletHandler, stakingHandler, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		appLogger.Info("Server starting", "addr", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exiting")
}

func buildZapLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func slogLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
