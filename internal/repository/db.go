package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

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

// Dialect selects placeholder syntax.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// DB is a *sql.DB plus the dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
	pool    *pgxpool.Pool
}

// Open connects to Postgres (postgres:// DSNs, through a pgx pool) or SQLite
// (anything else, including ":memory:").
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if isPostgres(cfg.DSN) {
		return openPostgres(ctx, cfg, logger)
	}
	return openSQLite(ctx, cfg, logger)
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", "pgx")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "docextract"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database")
	return &DB{DB: stdlib.OpenDBFromPool(pool), Dialect: Postgres, pool: pool}, nil
}

func openSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}
	logger.Info("connecting to database", "driver", "sqlite", "dsn", dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	// one connection: an in-memory database lives and dies with its connection,
	// and SQLite has a single writer anyway
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	logger.Info("successfully connected to database")
	return &DB{DB: db, Dialect: SQLite}, nil
}

// Close closes the database connections gracefully
func Close(db *DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	logger.Info("closing database connections")
	if err := db.DB.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings using database/sql to catch DSN issues early.
func HealthCheck(ctx context.Context, db *DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS extraction_runs (
		id             TEXT PRIMARY KEY,
		document_id    TEXT NOT NULL,
		source_path    TEXT NOT NULL,
		original_name  TEXT NOT NULL DEFAULT '',
		format         TEXT NOT NULL,
		status         TEXT NOT NULL,
		strategy       TEXT,
		char_count     INTEGER NOT NULL DEFAULT 0,
		confidence     DOUBLE PRECISION,
		fallback_level INTEGER NOT NULL DEFAULT 0,
		processing_ms  BIGINT NOT NULL DEFAULT 0,
		ocr_text       TEXT,
		error_message  TEXT,
		started_at     BIGINT NOT NULL,
		finished_at    BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_runs_document ON extraction_runs (document_id)`,
	`CREATE INDEX IF NOT EXISTS idx_extraction_runs_started ON extraction_runs (started_at)`,
	`CREATE TABLE IF NOT EXISTS extraction_attempts (
		run_id        TEXT NOT NULL REFERENCES extraction_runs (id) ON DELETE CASCADE,
		seq           INTEGER NOT NULL,
		strategy      TEXT NOT NULL,
		outcome       TEXT NOT NULL,
		char_count    INTEGER NOT NULL DEFAULT 0,
		confidence    DOUBLE PRECISION NOT NULL DEFAULT 0,
		duration_ms   BIGINT NOT NULL DEFAULT 0,
		from_cache    INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		PRIMARY KEY (run_id, seq)
	)`,
}

// Migrate creates the tables if they do not exist. The DDL is valid on both dialects.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Error("migration failed", "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	logger.Info("database schema ready")
	return nil
}

// rebind turns ? placeholders into $1..$n for Postgres.
func (db *DB) rebind(q string) string {
	if db.Dialect != Postgres {
		return q
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(q) + 8)
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}
