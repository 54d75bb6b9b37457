// Command edge runs the customer-facing edge service: login/refresh/logout
// and the invoice-validation proxy to the scoring service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/riskshield/fraudguard/internal/audit"
	"github.com/riskshield/fraudguard/internal/auth"
	"github.com/riskshield/fraudguard/internal/config"
	"github.com/riskshield/fraudguard/internal/edgeapi"
	"github.com/riskshield/fraudguard/internal/edgeclient"
	"github.com/riskshield/fraudguard/internal/httpserver"
	"github.com/riskshield/fraudguard/internal/kv"
	"github.com/riskshield/fraudguard/internal/platform"
	"github.com/riskshield/fraudguard/internal/store"
	"github.com/riskshield/fraudguard/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "edge: "+err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)

	if len(cfg.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be set and at least 32 bytes long")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisPoolSize)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()

	kvClient := kv.NewRedisClient(rdb)
	postgresStore := store.NewPostgres(pool)

	signer, err := auth.NewTokenSigner(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("initializing token signer: %w", err)
	}

	lifetimes := auth.Lifetimes{
		Access:  cfg.JWTAccessExpiration,
		Refresh: cfg.JWTRefreshExpiration,
	}
	tokenService := auth.NewTokenService(signer, kvClient, postgresStore, lifetimes, logger)
	rateLimiter := auth.NewRateLimiter(kvClient, cfg.LoginRateLimitMaxAttempts, cfg.LoginRateLimitWindow)

	auditWriter := audit.NewWriter(postgresStore, logger)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	authenticator := auth.NewAuthenticator(postgresStore, tokenService, auditWriter, rateLimiter, logger)
	scoringClient := edgeclient.NewClient(cfg.ScoringServiceURL, cfg.APIKey)

	authHandler := edgeapi.NewAuthHandler(authenticator)
	invoiceHandler := edgeapi.NewInvoiceHandler(scoringClient)

	reg := prometheus.NewRegistry()
	for _, c := range telemetry.All() {
		reg.MustRegister(c)
	}

	pingers := map[string]httpserver.Pinger{
		"database": postgresStore,
		"cache":    kvClient,
	}

	server := httpserver.NewServer(httpserver.Config{CORSAllowedOrigins: cfg.CORSAllowedOrigins}, logger, reg, pingers)
	edgeapi.Mount(server.Router, authHandler, invoiceHandler, tokenService)

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("edge service listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down edge service")
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return httpSrv.Shutdown(shutdownCtx)
}
