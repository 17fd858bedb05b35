package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/freeseed/exams-tw/internal/common"
	repo "github.com/freeseed/exams-tw/internal/repository"
)

// ConnectLedger opens and migrates the extraction-job database.
func ConnectLedger(ctx context.Context, cfg common.LedgerConfig, logger *slog.Logger) (*repo.Ledger, error) {
	logger.Info("connecting to ledger")
	ledger, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
		DialTimeout:     cfg.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to ledger", "error", err)
		return nil, err
	}
	logger.Info("successfully connected to ledger", "dialect", ledger.Dialect())
	return ledger, nil
}

// ConnectMongo opens the exam document store.
func ConnectMongo(ctx context.Context, cfg common.MongoConfig, logger *slog.Logger) (*repo.MongoStore, error) {
	store, err := repo.OpenMongo(ctx, repo.MongoConfig{
		URI:        cfg.MongoURI(),
		Database:   cfg.Database,
		Collection: cfg.Collection,
		Timeout:    cfg.Timeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to mongo", "error", err)
		return nil, err
	}
	return store, nil
}

// PingLedger checks the ledger answers within timeout.
func PingLedger(ctx context.Context, ledger *repo.Ledger, logger *slog.Logger, timeout time.Duration) error {
	logger.Debug("pinging ledger")
	if err := ledger.HealthCheck(ctx, timeout); err != nil {
		logger.Error("ledger ping failed", "error", err)
		return err
	}
	logger.Debug("ledger ping successful")
	return nil
}

// PingMongo checks the document store answers within timeout.
func PingMongo(ctx context.Context, store *repo.MongoStore, logger *slog.Logger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		logger.Error("mongo ping failed", "error", err)
		return err
	}
	logger.Debug("mongo ping successful")
	return nil
}

// CloseAll closes whichever connections are open.
func CloseAll(ledger *repo.Ledger, store *repo.MongoStore, logger *slog.Logger) {
	logger.Info("closing database connections")
	if ledger != nil {
		if err := ledger.Close(); err != nil {
			logger.Error("failed to close ledger", "error", err)
		}
	}
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			logger.Error("failed to close mongo client", "error", err)
		}
	}
	logger.Info("database connections closed")
}
