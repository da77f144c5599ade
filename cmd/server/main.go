package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/auth"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/config"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/database"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/export"
	apihandlers "github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/handlers/api"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/middleware"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/snapshot"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/storage"
)

func main() {
	cfg := config.LoadDev()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Saved calculations need Postgres; everything else is stateless.
	var snapshotSvc *snapshot.Service
	if cfg.SnapshotsEnabled {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		slog.Info("database connected")

		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations complete")

		snapshotSvc = snapshot.NewService(pool, logger)
	} else {
		slog.Warn("saved calculations disabled")
	}

	store, err := storage.New(ctx, cfg.Exports.StorageConfig())
	if err != nil {
		slog.Error("failed to initialise export storage", "error", err)
		os.Exit(1)
	}
	exportSvc := export.NewService(store, logger)

	publicHandler := apihandlers.NewPublicHandler(cfg.DefaultCurrency, logger)
	snapshotHandler := apihandlers.NewSnapshotHandler(snapshotSvc, cfg.DefaultCurrency, logger)
	exportHandler := apihandlers.NewExportHandler(exportSvc, snapshotSvc, cfg.DefaultCurrency, cfg.Exports.LinkTTL, logger)

	apiMux := http.NewServeMux()
	publicHandler.RegisterRoutes(apiMux)
	snapshotHandler.RegisterRoutes(apiMux)
	exportHandler.RegisterRoutes(apiMux)

	limiter := middleware.NewLimiter(ctx, cfg.RateLimit, cfg.RateBurst, "/api/v1/health")

	identity := middleware.Identity
	if cfg.IdentitySecret != "" {
		identity = middleware.BearerIdentity(auth.NewTokenVerifier(cfg.IdentitySecret, cfg.IdentityIssuer))
		slog.Info("verifying identity tokens", "issuer", cfg.IdentityIssuer)
	}

	// Outermost last.
	var apiChain http.Handler = apiMux
	apiChain = identity(apiChain)
	apiChain = middleware.SecurityHeaders(apiChain)
	apiChain = middleware.CORS(cfg.AllowedOrigins...)(apiChain)
	apiChain = limiter.Handler(apiChain)
	apiChain = middleware.Recover(logger)(apiChain)
	apiChain = middleware.RequestLogger(logger)(apiChain)
	apiChain = middleware.RequestID(apiChain)

	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      apiChain,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			"port", cfg.Port,
			"currency", cfg.DefaultCurrency,
			"export_storage", cfg.Exports.Storage,
		)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("api server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
