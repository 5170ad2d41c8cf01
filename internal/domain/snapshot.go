package domain

// Snapshot is a point-in-time summary of the portfolio, taken once per
// simulated trading day. Snapshots are append-only; the report's return
// series and drawdown are computed from them.
type Snapshot struct {
	Date        string  `json:"date"`
	Cash        float64 `json:"cash"`
	MarketValue float64 `json:"market_value"`
	TotalAsset  float64 `json:"total_asset"`
	Profit      float64 `json:"profit"`
	ProfitRate  float64 `json:"profit_rate"`
}
