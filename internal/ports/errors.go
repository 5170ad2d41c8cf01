package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrNotFound           = errors.New("resource not found")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Validation Errors (rejected before any state mutation)
	ErrInvalidLotSize  = errors.New("quantity is not a positive multiple of the lot size")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrUnknownSymbol   = errors.New("instrument is not known to the price store")

	// Resource Errors
	ErrPriceUnavailable = errors.New("no bar for the instrument on the requested date")

	// Constraint Errors (business-rule rejections, the run continues)
	ErrInsufficientFunds    = errors.New("insufficient funds for operation")
	ErrNoPosition           = errors.New("instrument is not held")
	ErrInsufficientHoldings = errors.New("held quantity is less than requested")
	ErrSharesLocked         = errors.New("shares bought today settle next session (T+1)")

	// Fatal Errors
	ErrNoTradingDates = errors.New("no trading dates found in the configured range")

	// Collaborator Errors
	ErrDecisionFailed = errors.New("decision source failed to produce a decision")

	// Database Specific Errors
	ErrDuplicateEntry = errors.New("database record already exists")
	ErrDBConnection   = errors.New("database connection error")
	ErrQueryFailed    = errors.New("database query failed")
)
