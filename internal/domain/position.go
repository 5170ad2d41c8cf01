package domain

// Position represents one open holding of one instrument within a portfolio.
// A position exists only while its quantity is positive; reducing it to zero
// removes it from the portfolio entirely.
type Position struct {
	Symbol       string  // Exchange code
	Name         string  // Display name
	Quantity     int64   // Held shares, lot-aligned, always > 0 while the position exists
	AvgCost      float64 // Average cost per share, re-weighted on buys, untouched by sells
	CurrentPrice float64 // Latest mark price; defaults to AvgCost at creation
}

// MarketValue returns the position's value at the current mark price.
func (p *Position) MarketValue() float64 {
	return float64(p.Quantity) * p.CurrentPrice
}

// CostValue returns the position's cost basis.
func (p *Position) CostValue() float64 {
	return float64(p.Quantity) * p.AvgCost
}

// Profit returns the unrealized profit or loss.
func (p *Position) Profit() float64 {
	return p.MarketValue() - p.CostValue()
}

// ProfitRate returns the unrealized P&L as a percentage of the cost basis,
// or 0 when the cost basis is zero.
func (p *Position) ProfitRate() float64 {
	cost := p.CostValue()
	if cost == 0 {
		return 0
	}
	return p.Profit() / cost * 100
}
