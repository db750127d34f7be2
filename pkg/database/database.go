package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wz-hub/a-stock-scanner/pkg/config"
)

// DB wraps the sql.DB pool and the dialect it speaks
// ⭐ SSOT: store connections are only created in this package
type DB struct {
	SQL    *sql.DB
	Driver string
}

const sqliteParams = "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"

// New opens the configured store and verifies the connection
// ⭐ SSOT: the only function that calls sql.Open()
func New(cfg *config.Config) (*DB, error) {
	db, err := Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	if db.Driver == config.DriverPostgres {
		db.SQL.SetMaxOpenConns(cfg.Database.MaxConns)
		db.SQL.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	db.SQL.SetConnMaxLifetime(cfg.Database.MaxConnLifetime)
	db.SQL.SetConnMaxIdleTime(cfg.Database.MaxConnIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.SQL.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Open opens a pool for driver ("postgres" or "sqlite") without pinging.
// SQLite paths get WAL mode and a single writer connection.
func Open(driver, url string) (*DB, error) {
	switch driver {
	case config.DriverPostgres:
		pool, err := sql.Open("pgx", url)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return &DB{SQL: pool, Driver: driver}, nil

	case config.DriverSQLite:
		if url != ":memory:" && !strings.HasPrefix(url, "file:") {
			if dir := filepath.Dir(url); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("failed to create data dir: %w", err)
				}
			}
		}
		dsn := url
		if strings.Contains(dsn, "?") {
			dsn += "&" + sqliteParams
		} else {
			dsn += "?" + sqliteParams
		}
		pool, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		pool.SetMaxOpenConns(1)
		return &DB{SQL: pool, Driver: driver}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.SQL != nil {
		_ = db.SQL.Close()
	}
}

// Ping checks if the database is accessible
func (db *DB) Ping(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

// Builder returns a squirrel builder using the dialect's placeholders
func (db *DB) Builder() sq.StatementBuilderType {
	if db.Driver == config.DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// Rebind rewrites '?' placeholders for the active dialect
func (db *DB) Rebind(query string) string {
	if db.Driver != config.DriverPostgres {
		return query
	}
	out, err := sq.Dollar.ReplacePlaceholders(query)
	if err != nil {
		return query
	}
	return out
}

// WithTx runs fn inside a transaction, committing on success
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// HealthCheck returns detailed health information about the database
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		Driver:    db.Driver,
		Timestamp: time.Now(),
	}

	start := time.Now()
	if err := db.SQL.PingContext(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)
	status.Stats = db.Stats()
	status.Healthy = true

	return status, nil
}

// HealthStatus represents the health status of the database
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	Driver       string        `json:"driver"`
	Timestamp    time.Time     `json:"timestamp"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	Stats        PoolStats     `json:"stats"`
}

// PoolStats represents connection pool statistics
type PoolStats struct {
	MaxOpenConns int           `json:"max_open_conns"`
	OpenConns    int           `json:"open_conns"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
}

// Stats returns the current pool statistics
func (db *DB) Stats() PoolStats {
	stats := db.SQL.Stats()
	return PoolStats{
		MaxOpenConns: stats.MaxOpenConnections,
		OpenConns:    stats.OpenConnections,
		InUse:        stats.InUse,
		Idle:         stats.Idle,
		WaitCount:    stats.WaitCount,
		WaitDuration: stats.WaitDuration,
	}
}
