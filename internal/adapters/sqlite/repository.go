package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stocksim/internal/domain"
	"stocksim/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.PriceStore and ports.AccountRepository on a
// local SQLite database holding the historical daily bars and, for the
// manual CLI, account state.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/stock_data.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode so independent simulation runs can read concurrently
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// One connection per execution context; writes are serialized through it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS stock_info (
		symbol TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		market TEXT,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS stock_daily (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		open REAL,
		close REAL,
		high REAL,
		low REAL,
		volume REAL,
		amount REAL,
		pct_change REAL,
		UNIQUE(symbol, date)
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		initial_capital REAL NOT NULL,
		cash REAL NOT NULL,
		sim_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS holdings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		avg_cost REAL NOT NULL,
		current_price REAL,
		updated_at TEXT,
		UNIQUE(account_id, symbol)
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		trade_date TEXT NOT NULL,
		trade_type TEXT NOT NULL,
		symbol TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL,
		commission REAL NOT NULL,
		stamp_tax REAL NOT NULL,
		total_amount REAL NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stock_daily_symbol_date ON stock_daily (symbol, date);
	CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions (account_id);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// --- ports.PriceStore ---

// GetPriceOnDate returns the bar for the exact symbol+date, or
// ErrPriceUnavailable when no bar exists (non-trading day or suspension).
func (r *Repository) GetPriceOnDate(ctx context.Context, symbol, date string) (*domain.Bar, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT symbol, date, open, close, high, low, volume, amount, pct_change
		FROM stock_daily WHERE symbol = ? AND date = ?`, symbol, date)
	bar, err := scanBar(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s on %s", ports.ErrPriceUnavailable, symbol, date)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return bar, nil
}

// GetHistory returns up to lookback bars with date <= endDate, ascending.
// The date ceiling is the leakage boundary: nothing after endDate ever
// leaves this query.
func (r *Repository) GetHistory(ctx context.Context, symbol, endDate string, lookback int) ([]*domain.Bar, error) {
	if lookback <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, date, open, close, high, low, volume, amount, pct_change
		FROM stock_daily WHERE symbol = ? AND date <= ?
		ORDER BY date DESC LIMIT ?`, symbol, endDate, lookback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var bars []*domain.Bar
	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}

	// Query is newest-first for the LIMIT; callers want ascending.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// GetTradingCalendar returns every date the reference symbol has a bar,
// ascending.
func (r *Repository) GetTradingCalendar(ctx context.Context, refSymbol string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date FROM stock_daily WHERE symbol = ? ORDER BY date`, refSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// GetStockInfo returns the instrument's static info.
func (r *Repository) GetStockInfo(ctx context.Context, symbol string) (*ports.StockInfo, error) {
	var info ports.StockInfo
	err := r.db.QueryRowContext(ctx,
		`SELECT symbol, name FROM stock_info WHERE symbol = ?`, symbol).
		Scan(&info.Symbol, &info.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ports.ErrUnknownSymbol, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return &info, nil
}

// --- import-side writes ---

// SaveStockInfo inserts or replaces one instrument's static info.
func (r *Repository) SaveStockInfo(ctx context.Context, symbol, name, market string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO stock_info (symbol, name, market, updated_at)
		VALUES (?, ?, ?, ?)`, symbol, name, market, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// SaveBars upserts a batch of daily bars inside one transaction.
func (r *Repository) SaveBars(ctx context.Context, bars []*domain.Bar) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrDBConnection, err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO stock_daily
		(symbol, date, open, close, high, low, volume, amount, pct_change)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, b.Symbol, b.Date, b.Open, b.Close, b.High, b.Low, b.Volume, b.Amount, b.PctChange); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
		}
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBar(s scanner) (*domain.Bar, error) {
	var b domain.Bar
	err := s.Scan(&b.Symbol, &b.Date, &b.Open, &b.Close, &b.High, &b.Low, &b.Volume, &b.Amount, &b.PctChange)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
