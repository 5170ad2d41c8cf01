package domain

// Side represents the side of a trade (buy or sell).
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Valid reports whether the side is one of the known values.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}
