package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stocksim/internal/domain"
	"stocksim/internal/ports"
)

// The ports.AccountRepository implementation. Used by the manual trading
// CLI; simulation runs keep their ledger in memory.

// CreateAccount creates a new account row.
func (r *Repository) CreateAccount(ctx context.Context, name string, initialCapital float64, startDate string) (int64, error) {
	var existing int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM accounts WHERE name = ?`, name).Scan(&existing)
	if err == nil {
		return 0, fmt.Errorf("%w: account %q", ports.ErrDuplicateEntry, name)
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (name, initial_capital, cash, sim_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		name, initialCapital, initialCapital, startDate, time.Now().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return res.LastInsertId()
}

// FindAccount retrieves an account by name.
func (r *Repository) FindAccount(ctx context.Context, name string) (*ports.AccountState, error) {
	var st ports.AccountState
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, initial_capital, cash, sim_date
		FROM accounts WHERE name = ?`, name).
		Scan(&st.ID, &st.Name, &st.InitialCapital, &st.Cash, &st.CurrentDate)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: account %q", ports.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return &st, nil
}

// SaveAccountState persists cash and current date after a mutation.
func (r *Repository) SaveAccountState(ctx context.Context, id int64, cash float64, currentDate string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET cash = ?, sim_date = ? WHERE id = ?`, cash, currentDate, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// LoadHoldings retrieves all positions of an account.
func (r *Repository) LoadHoldings(ctx context.Context, accountID int64) ([]*domain.Position, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, name, quantity, avg_cost, current_price
		FROM holdings WHERE account_id = ? ORDER BY symbol`, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		var pos domain.Position
		var current sql.NullFloat64
		if err := rows.Scan(&pos.Symbol, &pos.Name, &pos.Quantity, &pos.AvgCost, &current); err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
		}
		pos.CurrentPrice = pos.AvgCost
		if current.Valid {
			pos.CurrentPrice = current.Float64
		}
		positions = append(positions, &pos)
	}
	return positions, rows.Err()
}

// SaveHolding inserts or replaces one position row.
func (r *Repository) SaveHolding(ctx context.Context, accountID int64, pos *domain.Position) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO holdings
		(account_id, symbol, name, quantity, avg_cost, current_price, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		accountID, pos.Symbol, pos.Name, pos.Quantity, pos.AvgCost, pos.CurrentPrice,
		time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// DeleteHolding removes a position row after a full close.
func (r *Repository) DeleteHolding(ctx context.Context, accountID int64, symbol string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM holdings WHERE account_id = ? AND symbol = ?`, accountID, symbol)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// AppendTransaction appends one executed trade to the account's log.
func (r *Repository) AppendTransaction(ctx context.Context, accountID int64, tx *domain.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
		(account_id, trade_date, trade_type, symbol, quantity, price, commission, stamp_tax, total_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		accountID, tx.Date, string(tx.Side), tx.Symbol, tx.Quantity, tx.Price,
		tx.Commission, tx.StampTax, tx.Total, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// TransactionsOnDate retrieves all trades of one account on one trading
// date, oldest first.
func (r *Repository) TransactionsOnDate(ctx context.Context, accountID int64, date string) ([]*domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT trade_date, trade_type, symbol, quantity, price, commission, stamp_tax, total_amount
		FROM transactions WHERE account_id = ? AND trade_date = ?
		ORDER BY id`, accountID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var side string
		if err := rows.Scan(&tx.Date, &side, &tx.Symbol, &tx.Quantity, &tx.Price, &tx.Commission, &tx.StampTax, &tx.Total); err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
		}
		tx.Side = domain.Side(side)
		txs = append(txs, &tx)
	}
	return txs, rows.Err()
}

// RecentTransactions retrieves the most recent trades, newest first.
func (r *Repository) RecentTransactions(ctx context.Context, accountID int64, limit int) ([]*domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT trade_date, trade_type, symbol, quantity, price, commission, stamp_tax, total_amount
		FROM transactions WHERE account_id = ?
		ORDER BY id DESC LIMIT ?`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var side string
		if err := rows.Scan(&tx.Date, &side, &tx.Symbol, &tx.Quantity, &tx.Price, &tx.Commission, &tx.StampTax, &tx.Total); err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
		}
		tx.Side = domain.Side(side)
		txs = append(txs, &tx)
	}
	return txs, rows.Err()
}
