package ports

import (
	"context"

	"stocksim/internal/domain"
)

// AccountState is the persisted header of a trading account.
type AccountState struct {
	ID             int64
	Name           string
	InitialCapital float64
	Cash           float64
	CurrentDate    string
}

// AccountRepository defines persistence for manual trading accounts:
// the account header, its holdings, and its transaction history.
// A simulation run keeps everything in memory; only the interactive CLI
// needs its session to survive restarts.
type AccountRepository interface {
	// CreateAccount creates a new account and returns its assigned ID.
	// Returns ErrDuplicateEntry if the name is taken.
	CreateAccount(ctx context.Context, name string, initialCapital float64, startDate string) (int64, error)

	// FindAccount retrieves an account by name.
	// Returns ErrNotFound if it does not exist.
	FindAccount(ctx context.Context, name string) (*AccountState, error)

	// SaveAccountState persists the account's cash balance and current date.
	SaveAccountState(ctx context.Context, id int64, cash float64, currentDate string) error

	// LoadHoldings retrieves all positions of an account.
	LoadHoldings(ctx context.Context, accountID int64) ([]*domain.Position, error)

	// SaveHolding inserts or replaces one position row.
	SaveHolding(ctx context.Context, accountID int64, pos *domain.Position) error

	// DeleteHolding removes a position row after a full close.
	DeleteHolding(ctx context.Context, accountID int64, symbol string) error

	// AppendTransaction appends one executed trade to the account's log.
	AppendTransaction(ctx context.Context, accountID int64, tx *domain.Transaction) error

	// RecentTransactions retrieves the most recent trades, newest first.
	RecentTransactions(ctx context.Context, accountID int64, limit int) ([]*domain.Transaction, error)

	// TransactionsOnDate retrieves all of an account's trades for one
	// trading date, oldest first. Used to rebuild the session's T+1 locks
	// when a fresh engine picks up a persisted account mid-day.
	TransactionsOnDate(ctx context.Context, accountID int64, date string) ([]*domain.Transaction, error)
}
