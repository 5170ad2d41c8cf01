package sim

import (
	"fmt"

	"stocksim/internal/domain"
	"stocksim/internal/portfolio"
)

// FinalPosition is one open holding at the end of a run.
type FinalPosition struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Quantity   int64   `json:"quantity"`
	ProfitRate float64 `json:"profit_rate"`
}

// Report is the durable artifact of a simulation run. The JSON field names
// are the serialization contract consumed by the surrounding presentation
// layers and must round-trip losslessly.
type Report struct {
	Period         string                `json:"period"`
	TradingDays    int                   `json:"trading_days"`
	InitialCapital float64               `json:"initial_capital"`
	FinalAsset     float64               `json:"final_asset"`
	TotalProfit    float64               `json:"total_profit"`
	TotalReturnPct float64               `json:"total_return_pct"`
	MaxReturnPct   float64               `json:"max_return_pct"`
	MinReturnPct   float64               `json:"min_return_pct"`
	MaxDrawdownPct float64               `json:"max_drawdown_pct"`
	TotalTrades    int                   `json:"total_trades"`
	BuyTrades      int                   `json:"buy_trades"`
	SellTrades     int                   `json:"sell_trades"`
	FinalPositions []FinalPosition       `json:"final_positions"`
	DailySnapshots []domain.Snapshot     `json:"daily_snapshots"`
	TradeLog       []*domain.Transaction `json:"trade_log"`
}

// MaxDrawdownPct computes the maximum peak-to-trough decline of the
// total-asset series as a percentage of the running peak. The peak starts at
// the first snapshot's total asset and only ever increases.
func MaxDrawdownPct(snapshots []domain.Snapshot) float64 {
	if len(snapshots) == 0 {
		return 0
	}
	peak := snapshots[0].TotalAsset
	var maxDrawdown float64
	for _, s := range snapshots {
		if s.TotalAsset > peak {
			peak = s.TotalAsset
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - s.TotalAsset) / peak * 100
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// buildReport assembles the final report from the run's accumulated state.
func buildReport(pf *portfolio.Portfolio, startDate, endDate string, snapshots []domain.Snapshot, txLog []*domain.Transaction) *Report {
	report := &Report{
		Period:         fmt.Sprintf("%s to %s", startDate, endDate),
		TradingDays:    len(snapshots),
		InitialCapital: pf.InitialCapital,
		FinalAsset:     pf.TotalAsset(),
		TotalProfit:    pf.TotalProfit(),
		TotalReturnPct: pf.TotalProfitRate(),
		MaxDrawdownPct: MaxDrawdownPct(snapshots),
		TotalTrades:    len(txLog),
		FinalPositions: []FinalPosition{},
		DailySnapshots: snapshots,
		TradeLog:       txLog,
	}
	if report.DailySnapshots == nil {
		report.DailySnapshots = []domain.Snapshot{}
	}
	if report.TradeLog == nil {
		report.TradeLog = []*domain.Transaction{}
	}

	for i, s := range snapshots {
		if i == 0 || s.ProfitRate > report.MaxReturnPct {
			report.MaxReturnPct = s.ProfitRate
		}
		if i == 0 || s.ProfitRate < report.MinReturnPct {
			report.MinReturnPct = s.ProfitRate
		}
	}

	for _, tx := range txLog {
		if tx.Side == domain.Buy {
			report.BuyTrades++
		} else {
			report.SellTrades++
		}
	}

	for _, pos := range pf.SortedPositions() {
		report.FinalPositions = append(report.FinalPositions, FinalPosition{
			Symbol:     pos.Symbol,
			Name:       pos.Name,
			Quantity:   pos.Quantity,
			ProfitRate: pos.ProfitRate(),
		})
	}

	return report
}
