package portfolio

import (
	"sort"

	"stocksim/internal/domain"
)

// Portfolio is the ledger of one simulated account: cash plus the open
// positions, keyed by instrument. All trade-driven mutation goes through the
// execution engine, which checks funds and holdings before calling in here;
// the portfolio itself never rejects a mutation it is asked to make.
//
// Not safe for concurrent use: one portfolio is owned by exactly one
// simulation loop (or one CLI session) at a time.
type Portfolio struct {
	AccountName    string
	InitialCapital float64
	Cash           float64
	Positions      map[string]*domain.Position
	CurrentDate    string
}

// Summary is the derived read-only view of the portfolio's state.
type Summary struct {
	AccountName   string  `json:"account_name"`
	CurrentDate   string  `json:"current_date"`
	Cash          float64 `json:"cash"`
	MarketValue   float64 `json:"market_value"`
	TotalAsset    float64 `json:"total_asset"`
	TotalProfit   float64 `json:"total_profit"`
	TotalRate     float64 `json:"total_profit_rate"`
	PositionCount int     `json:"position_count"`
}

// New creates an empty portfolio with the given starting cash.
func New(accountName string, initialCapital float64) *Portfolio {
	return &Portfolio{
		AccountName:    accountName,
		InitialCapital: initialCapital,
		Cash:           initialCapital,
		Positions:      make(map[string]*domain.Position),
	}
}

// AddPosition opens a position or increases an existing one, re-weighting
// the average cost: newAvg = (oldQty*oldAvg + addQty*price) / (oldQty+addQty).
// Funds are not checked here.
func (p *Portfolio) AddPosition(symbol, name string, quantity int64, price float64) {
	if pos, ok := p.Positions[symbol]; ok {
		totalCost := pos.CostValue() + float64(quantity)*price
		pos.Quantity += quantity
		pos.AvgCost = totalCost / float64(pos.Quantity)
		return
	}
	p.Positions[symbol] = &domain.Position{
		Symbol:       symbol,
		Name:         name,
		Quantity:     quantity,
		AvgCost:      price,
		CurrentPrice: price,
	}
}

// ReducePosition decrements a holding. It returns false without mutating
// anything if the instrument is absent or held quantity is insufficient.
// A position reduced to zero is deleted, never kept as a zero row.
// The average cost is untouched by sells.
func (p *Portfolio) ReducePosition(symbol string, quantity int64) bool {
	pos, ok := p.Positions[symbol]
	if !ok || pos.Quantity < quantity {
		return false
	}
	pos.Quantity -= quantity
	if pos.Quantity == 0 {
		delete(p.Positions, symbol)
	}
	return true
}

// MarkPrice updates a held position's valuation price. No-op if the
// instrument is not held.
func (p *Portfolio) MarkPrice(symbol string, price float64) {
	if pos, ok := p.Positions[symbol]; ok {
		pos.CurrentPrice = price
	}
}

// GetPosition returns the held position for the symbol, or nil.
func (p *Portfolio) GetPosition(symbol string) *domain.Position {
	return p.Positions[symbol]
}

// TotalMarketValue sums the market value of all positions.
func (p *Portfolio) TotalMarketValue() float64 {
	var total float64
	for _, pos := range p.Positions {
		total += pos.MarketValue()
	}
	return total
}

// TotalAsset returns cash plus the market value of all positions.
func (p *Portfolio) TotalAsset() float64 {
	return p.Cash + p.TotalMarketValue()
}

// TotalProfit returns the P&L against the initial capital.
func (p *Portfolio) TotalProfit() float64 {
	return p.TotalAsset() - p.InitialCapital
}

// TotalProfitRate returns the P&L as a percentage of the initial capital,
// or 0 when the initial capital is zero.
func (p *Portfolio) TotalProfitRate() float64 {
	if p.InitialCapital == 0 {
		return 0
	}
	return p.TotalProfit() / p.InitialCapital * 100
}

// GetSummary builds the derived account summary. Pure read.
func (p *Portfolio) GetSummary() Summary {
	return Summary{
		AccountName:   p.AccountName,
		CurrentDate:   p.CurrentDate,
		Cash:          p.Cash,
		MarketValue:   p.TotalMarketValue(),
		TotalAsset:    p.TotalAsset(),
		TotalProfit:   p.TotalProfit(),
		TotalRate:     p.TotalProfitRate(),
		PositionCount: len(p.Positions),
	}
}

// SortedPositions returns the positions ordered by symbol, for stable
// display and serialization.
func (p *Portfolio) SortedPositions() []*domain.Position {
	out := make([]*domain.Position, 0, len(p.Positions))
	for _, pos := range p.Positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
