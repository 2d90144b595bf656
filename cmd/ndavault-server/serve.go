package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ndavault/ndavault/audit"
	"github.com/ndavault/ndavault/auth"
	"github.com/ndavault/ndavault/boundary"
	"github.com/ndavault/ndavault/config"
	"github.com/ndavault/ndavault/health"
	"github.com/ndavault/ndavault/identity"
	"github.com/ndavault/ndavault/internal/logger"
	"github.com/ndavault/ndavault/internal/metrics"
	"github.com/ndavault/ndavault/ledger"
	"github.com/ndavault/ndavault/pkg/storage"
	"github.com/ndavault/ndavault/pkg/storage/memory"
	"github.com/ndavault/ndavault/pkg/storage/postgres"
	"github.com/ndavault/ndavault/process"
	transporthttp "github.com/ndavault/ndavault/transport/http"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (including /health) and the metrics server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config.yaml", "path to the YAML configuration file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(serveConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewLogger(os.Stdout, levelFromString(cfg.Logging.Level))
	log.Info("starting ndavault-server", logger.String("environment", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Storage.URL)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	registry := auth.NewRegistry(cfg.Revocation.SweepInterval)
	defer registry.Close()

	tokens := auth.New([]byte(cfg.Auth.TokenSigningSecret), cfg.Auth.AccessTokenLifetime, cfg.Auth.RefreshTokenLifetime)
	ledgerClient := ledger.New(cfg.Ledger.Network, cfg.Ledger.RequestTimeout)

	identitySvc := identity.New(store, ledgerClient, tokens, registry)
	processSvc := process.New(store, ledgerClient)
	auditSvc := audit.New(store)
	gate := boundary.New(tokens, registry, store)

	healthRegistry := health.NewRegistry(cfg.Health.Timeout, cfg.Health.CacheTTL,
		health.DefaultChecks(store, registry, ledgerClient)...)

	apiServer := transporthttp.New(identitySvc, processSvc, auditSvc, gate, healthRegistry, log)
	httpServer := &http.Server{Addr: cfg.Server.BindAddress, Handler: apiServer.Handler()}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.BindAddress)
	}

	errc := make(chan error, 2)
	go func() {
		log.Info("http server listening", logger.String("addr", cfg.Server.BindAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()
	if metricsServer != nil {
		go func() {
			log.Info("metrics server listening", logger.String("addr", cfg.Metrics.BindAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errc:
		log.Error("server error", logger.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", logger.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("metrics server shutdown", logger.Error(err))
		}
	}
	return nil
}

// openStore picks the in-memory or PostgreSQL backend per §6.4's
// storage_url convention: "memory://" selects the in-memory store,
// anything else is a PostgreSQL connection URL.
func openStore(ctx context.Context, url string) (storage.Store, error) {
	if url == "" || strings.HasPrefix(url, "memory://") {
		return memory.New(), nil
	}
	return postgres.NewStoreFromDSN(ctx, url)
}

func levelFromString(level string) logger.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	case "fatal":
		return logger.FatalLevel
	default:
		return logger.InfoLevel
	}
}
