package ports

import (
	"context"

	"stocksim/internal/domain"
)

// StockInfo holds the static description of an instrument.
type StockInfo struct {
	Symbol string
	Name   string
}

// PriceStore defines read access to the historical daily-bar database.
//
// Every query takes an as-of date; implementations must never return bars
// dated after it. That boundary is what keeps simulated decisions from
// peeking at future data.
type PriceStore interface {
	// GetPriceOnDate returns the bar for the instrument on exactly that date.
	// Returns ErrPriceUnavailable if the instrument has no bar on the date
	// (non-trading day, suspension, or missing data).
	GetPriceOnDate(ctx context.Context, symbol, date string) (*domain.Bar, error)

	// GetHistory returns up to lookback bars for the instrument with
	// date <= endDate, in ascending date order.
	GetHistory(ctx context.Context, symbol, endDate string, lookback int) ([]*domain.Bar, error)

	// GetTradingCalendar returns every date on which the reference
	// instrument has a bar, in ascending order. The simulation's trading
	// calendar is derived from it; there is no separate holiday source.
	GetTradingCalendar(ctx context.Context, refSymbol string) ([]string, error)

	// GetStockInfo returns the instrument's static info.
	// Returns ErrUnknownSymbol if the instrument is not listed.
	GetStockInfo(ctx context.Context, symbol string) (*StockInfo, error)
}
