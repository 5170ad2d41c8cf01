package portfolio

import (
	"fmt"

	"stocksim/internal/domain"
	"stocksim/internal/ports"
)

// CostConfig holds the transaction-cost assumptions for one simulation run.
// It is passed by value into the cost calculation and the execution engine,
// so runs with different assumptions can coexist in one process.
type CostConfig struct {
	CommissionRate float64 // Commission rate, both sides (e.g., 0.0003)
	StampTaxRate   float64 // Stamp tax rate, sells only (e.g., 0.001)
	MinCommission  float64 // Commission floor per trade (e.g., 5)
	LotSize        int64   // Minimum tradable multiple (100 shares)
}

// DefaultCostConfig returns the standard A-share cost assumptions.
func DefaultCostConfig() CostConfig {
	return CostConfig{
		CommissionRate: 0.0003,
		StampTaxRate:   0.001,
		MinCommission:  5,
		LotSize:        100,
	}
}

// TradeCost is the cost breakdown of one prospective trade.
// Net is the total cash required on a buy and the total cash received on a
// sell, commission and tax included.
type TradeCost struct {
	Commission float64
	StampTax   float64
	Net        float64
}

// Cost computes commission, stamp tax, and the net cash amount for a trade.
// It is a pure function: business constraints (funds, lot size, holdings)
// are the execution engine's job, not checked here. Negative price or
// quantity is a caller bug and reported as a configuration error.
func (c CostConfig) Cost(price float64, quantity int64, side domain.Side) (TradeCost, error) {
	if price < 0 || quantity < 0 {
		return TradeCost{}, fmt.Errorf("%w: negative price (%f) or quantity (%d)", ports.ErrConfigurationError, price, quantity)
	}
	if !side.Valid() {
		return TradeCost{}, fmt.Errorf("%w: unknown trade side %q", ports.ErrConfigurationError, side)
	}

	amount := price * float64(quantity)

	commission := amount * c.CommissionRate
	if commission < c.MinCommission {
		commission = c.MinCommission
	}

	var tax float64
	if side == domain.Sell {
		tax = amount * c.StampTaxRate
	}

	cost := TradeCost{Commission: commission, StampTax: tax}
	if side == domain.Buy {
		cost.Net = amount + commission
	} else {
		cost.Net = amount - commission - tax
	}
	return cost, nil
}
