package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// Ledger is the SQL database that records extraction jobs. A postgres://
// DSN opens a pgx pool, anything else is a SQLite file.
type Ledger struct {
	drv     *entsql.Driver
	pool    *pgxpool.Pool
	dialect string
	logger  *slog.Logger
}

// Open connects to the ledger and creates its tables when missing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		l   *Ledger
		err error
	)
	if isPostgres(cfg.DSN) {
		l, err = openPostgres(ctx, cfg, logger)
	} else {
		l, err = openSQLite(cfg, logger)
	}
	if err != nil {
		logger.Error("failed to connect to ledger", "error", err)
		return nil, err
	}
	if err := l.Migrate(ctx); err != nil {
		_ = l.Close()
		return nil, err
	}
	logger.Info("successfully connected to ledger", "dialect", l.dialect)
	return l, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*Ledger, error) {
	logger.Info("connecting to ledger", "driver", "pgx")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "exams-tw"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}

	// Wrap pool as *sql.DB for the ent SQL driver
	db := stdlib.OpenDBFromPool(pool)
	return &Ledger{drv: entsql.OpenDB(dialect.Postgres, db), pool: pool, dialect: dialect.Postgres, logger: logger}, nil
}

func openSQLite(cfg Config, logger *slog.Logger) (*Ledger, error) {
	logger.Info("connecting to ledger", "driver", "sqlite", "dsn", cfg.DSN)
	if path := sqlitePath(cfg.DSN); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// one writer; also keeps an in-memory database on a single connection
	db.SetMaxOpenConns(1)
	return &Ledger{drv: entsql.OpenDB(dialect.SQLite, db), dialect: dialect.SQLite, logger: logger}, nil
}

// sqlitePath returns the file behind a SQLite DSN, or "" for memory databases.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.Contains(path, ":memory:") {
		return ""
	}
	return path
}

// Dialect is dialect.SQLite or dialect.Postgres.
func (l *Ledger) Dialect() string { return l.dialect }

// DB exposes the underlying database/sql handle.
func (l *Ledger) DB() *sql.DB { return l.drv.DB() }

func (l *Ledger) Migrate(ctx context.Context) error {
	for _, stmt := range schema(l.dialect) {
		if _, err := l.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate ledger: %w", err)
		}
	}
	return nil
}

func schema(d string) []string {
	idType := "TEXT"
	if d == dialect.Postgres {
		idType = "UUID"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS extract_jobs (
	id ` + idType + ` PRIMARY KEY,
	exam_id TEXT NOT NULL,
	layout TEXT NOT NULL DEFAULT '',
	source_path TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	question_count INTEGER NOT NULL DEFAULT 0,
	image_count INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	started_at BIGINT NOT NULL,
	finished_at BIGINT
)`,
		`CREATE INDEX IF NOT EXISTS extract_jobs_exam_id ON extract_jobs (exam_id)`,
		`CREATE INDEX IF NOT EXISTS extract_jobs_status ON extract_jobs (status)`,
	}
}

// Close closes the database connections gracefully
func (l *Ledger) Close() error {
	l.logger.Info("closing ledger connections")
	err := l.drv.Close()
	if l.pool != nil {
		l.pool.Close()
	}
	return err
}

// HealthCheck pings the database to catch DSN issues early.
func (l *Ledger) HealthCheck(ctx context.Context, timeout time.Duration) error {
	l.logger.Debug("pinging ledger")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if l.pool != nil {
		return l.pool.Ping(ctx)
	}
	return l.DB().PingContext(ctx)
}
