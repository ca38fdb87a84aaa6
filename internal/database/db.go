// Package database provides database connection and initialization functionality.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection holding the portfolio ledger, price
// history, exchange rates and per-portfolio settings.
type DB struct {
	conn *sql.DB
	path string
}

// Config holds database configuration
type Config struct {
	Path string
}

// New creates a new database connection with WAL mode and a conservative
// connection pool, and ensures the schema exists.
func New(cfg Config) (*DB, error) {
	path := cfg.Path
	if !strings.HasPrefix(path, "file:") {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		path = absPath
	}

	connStr := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"

	conn, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles one writer at a time; a small pool avoids lock churn.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}

// Conn exposes the underlying connection for repositories.
func (db *DB) Conn() *sql.DB { return db.conn }

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// Close closes the underlying connection.
func (db *DB) Close() error { return db.conn.Close() }

func (db *DB) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS portfolios (
	name               TEXT PRIMARY KEY,
	reference_currency TEXT NOT NULL,
	benchmark_symbol   TEXT NOT NULL,
	benchmark_name     TEXT NOT NULL,
	benchmark_market   TEXT NOT NULL DEFAULT '',
	day_shift          INTEGER NOT NULL DEFAULT 0,
	period_start       TEXT NOT NULL DEFAULT '',
	period_end         TEXT NOT NULL DEFAULT '',
	years              INTEGER NOT NULL DEFAULT 0,
	num_sim            INTEGER NOT NULL DEFAULT 500,
	time_sim           INTEGER NOT NULL DEFAULT 1300,
	risk_free          REAL NOT NULL DEFAULT 0.0
);

CREATE TABLE IF NOT EXISTS transactions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	portfolio     TEXT NOT NULL REFERENCES portfolios(name),
	operation     TEXT NOT NULL CHECK (operation IN ('Buy','Sell','Dividend')),
	code          TEXT NOT NULL,
	code2         TEXT NOT NULL DEFAULT '',
	name          TEXT NOT NULL,
	type          TEXT NOT NULL,
	industry      TEXT NOT NULL,
	market        TEXT NOT NULL,
	currency      TEXT NOT NULL,
	date          TEXT NOT NULL,
	quantity      INTEGER NOT NULL,
	unit_price    REAL NOT NULL,
	amount        REAL NOT NULL,
	broker_fee    REAL NOT NULL DEFAULT 0,
	tax_fee       REAL NOT NULL DEFAULT 0,
	exchange_rate REAL NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_transactions_portfolio ON transactions(portfolio);
CREATE INDEX IF NOT EXISTS idx_transactions_code ON transactions(portfolio, code);

CREATE TABLE IF NOT EXISTS daily_prices (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	close  REAL NOT NULL,
	PRIMARY KEY (symbol, date)
);

CREATE TABLE IF NOT EXISTS exchange_rates (
	currency TEXT NOT NULL,
	base     TEXT NOT NULL,
	rate     REAL NOT NULL,
	PRIMARY KEY (currency, base)
);
`
	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}
	return nil
}
