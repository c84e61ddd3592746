package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/oslony/internal/catalog"
	"github.com/Simplici0/oslony/internal/config"
	"github.com/Simplici0/oslony/internal/db"
	"github.com/Simplici0/oslony/internal/logging"
	"github.com/Simplici0/oslony/internal/migrations"
	"github.com/Simplici0/oslony/internal/pricing"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var database *sql.DB
	if cfg.Backend == config.BackendSQLite {
		var err error
		database, err = db.Open(ctx, cfg.DBPath, db.Options{PingRetry: cfg.OpenRetry})
		if err != nil {
			return fmt.Errorf("open catalog database: %w", err)
		}
		defer database.Close()

		if cfg.IsDev() {
			version, err := migrations.Up(ctx, database)
			if err != nil {
				return fmt.Errorf("run database migrations: %w", err)
			}
			logger.Info("database migrated", zap.Int64("version", version))
		}
	}

	cats, err := catalog.Open(cfg, database, logger.Named("catalog"))
	if err != nil {
		return err
	}
	go purgeOnHangup(ctx, cats, logger)

	srv := &server{
		evaluator: pricing.NewEvaluator(cats.Sources, logger.Named("pricing")),
		logger:    logger.Named("http"),
		staticDir: cfg.StaticDir,
		origins:   cfg.CORSOrigins,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("backend", cfg.Backend))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// purgeOnHangup drops cached catalogs on SIGHUP, after the workbooks or the
// database were updated.
func purgeOnHangup(ctx context.Context, cats *catalog.Catalogs, logger *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("SIGHUP received, reloading catalogs")
			cats.Purge()
		}
	}
}
