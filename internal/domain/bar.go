package domain

// Bar represents a single daily OHLCV bar for an instrument.
//
// Dates are YYYY-MM-DD strings throughout the system; lexical order equals
// chronological order, which the as-of queries and the trading calendar
// depend on.
type Bar struct {
	Symbol    string  // Exchange code (e.g., "600519")
	Date      string  // Trading date, YYYY-MM-DD
	Open      float64 // Opening price
	Close     float64 // Closing price
	High      float64 // Highest price
	Low       float64 // Lowest price
	Volume    float64 // Trading volume (shares)
	Amount    float64 // Trading amount (currency)
	PctChange float64 // Percentage change vs previous close
}
