// Command scoring runs the internal fraud-scoring service: the five-rule
// engine behind a pre-shared-key-protected endpoint.
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

	"github.com/riskshield/fraudguard/internal/config"
	"github.com/riskshield/fraudguard/internal/fraud"
	"github.com/riskshield/fraudguard/internal/httpserver"
	"github.com/riskshield/fraudguard/internal/kv"
	"github.com/riskshield/fraudguard/internal/platform"
	"github.com/riskshield/fraudguard/internal/scoringapi"
	"github.com/riskshield/fraudguard/internal/store"
	"github.com/riskshield/fraudguard/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "scoring: "+err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)

	if cfg.APIKey == "" {
		return errors.New("API_KEY must be set")
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

	ibanValidator := fraud.NewIBANValidator(kvClient, logger)

	rules := []fraud.Rule{
		fraud.NewDuplicateRule(kvClient),
		fraud.NewInvalidIBANRule(ibanValidator),
		fraud.NewRiskyIBANRule(kvClient, postgresStore, logger),
		fraud.NewAmountManipulationRule(),
		fraud.NewVelocityRule(kvClient, postgresStore, logger),
	}

	engine := fraud.NewEngine(rules, kvClient, postgresStore, postgresStore, logger)
	handler := scoringapi.NewHandler(engine)

	reg := prometheus.NewRegistry()
	for _, c := range telemetry.All() {
		reg.MustRegister(c)
	}

	pingers := map[string]httpserver.Pinger{
		"database": postgresStore,
		"cache":    kvClient,
	}

	server := httpserver.NewServer(httpserver.Config{CORSAllowedOrigins: cfg.CORSAllowedOrigins}, logger, reg, pingers)
	scoringapi.Mount(server.Router, handler, cfg.APIKey)

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("scoring service listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down scoring service")
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return httpSrv.Shutdown(shutdownCtx)
}
