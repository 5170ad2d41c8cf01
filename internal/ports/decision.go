package ports

import (
	"context"

	"stocksim/internal/domain"
)

// PositionView is the read-only per-holding slice of a decision request.
type PositionView struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Quantity     int64   `json:"quantity"`
	AvgCost      float64 `json:"avg_cost"`
	CurrentPrice float64 `json:"current_price"`
	ProfitRate   float64 `json:"profit_rate"`
}

// DecisionRequest carries everything a decision source may look at for one
// simulated day: the date, a snapshot of the portfolio, and the instrument
// pool it is allowed to trade.
type DecisionRequest struct {
	Date        string
	Cash        float64
	MarketValue float64
	TotalAsset  float64
	ProfitRate  float64
	Positions   []PositionView
	StockPool   []string
}

// DecisionSource produces the day's trade intents. Implementations include
// the LLM agent and the rule-based strategy source; both see only the
// request snapshot plus historical data through a PriceStore.
//
// An error return or a Decision with Success=false is treated by the
// simulation loop as zero intents for the day, never as a run failure.
type DecisionSource interface {
	Decide(ctx context.Context, req DecisionRequest) (*domain.Decision, error)
}
