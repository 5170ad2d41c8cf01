package indicators

import (
	"fmt"

	"stocksim/internal/domain"
)

// Snapshot bundles the indicator set served to decision sources for one
// instrument as of one date: short moving averages, MACD(12,26,9) with cross
// flags, and RSI(14).
type Snapshot struct {
	Symbol       string   `json:"symbol"`
	Date         string   `json:"date"`
	CurrentPrice float64  `json:"current_price"`
	MA5          *float64 `json:"ma5"`
	MA10         *float64 `json:"ma10"`
	MA20         *float64 `json:"ma20"`
	MACD         *float64 `json:"macd"`
	MACDSignal   *float64 `json:"macd_signal"`
	MACDHist     *float64 `json:"macd_hist"`
	GoldenCross  bool     `json:"macd_golden_cross"`
	DeathCross   bool     `json:"macd_death_cross"`
	RSI          *float64 `json:"rsi"`
	RSIState     string   `json:"rsi_state"`
	Volume       float64  `json:"volume"`
	PctChange    float64  `json:"pct_change"`
}

// BuildSnapshot computes the snapshot from an ascending bar series ending at
// the as-of date. Indicators without enough history are left nil rather than
// failing the whole snapshot.
func BuildSnapshot(bars []*domain.Bar) (*Snapshot, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars to build indicator snapshot from")
	}

	last := bars[len(bars)-1]
	snap := &Snapshot{
		Symbol:       last.Symbol,
		Date:         last.Date,
		CurrentPrice: last.Close,
		RSIState:     "unknown",
		Volume:       last.Volume,
		PctChange:    last.PctChange,
	}

	if v, err := SMA(bars, 5); err == nil {
		snap.MA5 = &v
	}
	if v, err := SMA(bars, 10); err == nil {
		snap.MA10 = &v
	}
	if v, err := SMA(bars, 20); err == nil {
		snap.MA20 = &v
	}

	if m, err := MACD(bars, 12, 26, 9); err == nil {
		snap.MACD = &m.MACD
		snap.MACDSignal = &m.Signal
		snap.MACDHist = &m.Hist
		snap.GoldenCross = m.GoldenCross()
		snap.DeathCross = m.DeathCross()
	}

	if v, err := RSI(bars, 14); err == nil {
		snap.RSI = &v
		switch {
		case v > 70:
			snap.RSIState = "overbought"
		case v < 30:
			snap.RSIState = "oversold"
		default:
			snap.RSIState = "normal"
		}
	}

	return snap, nil
}
