package indicators

import (
	"fmt"

	"stocksim/internal/domain"
)

// SMA computes the Simple Moving Average of the closes over the last period bars.
func SMA(bars []*domain.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("not enough data (%d) to calculate SMA for period %d", len(bars), period)
	}

	total := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		total += bars[i].Close
	}
	return total / float64(period), nil
}

// EMA computes the Exponential Moving Average of the closes, seeded with the
// SMA of the first period bars.
func EMA(bars []*domain.Bar, period int) (float64, error) {
	if len(bars) < period {
		return 0, fmt.Errorf("not enough data (%d) to calculate EMA for period %d", len(bars), period)
	}

	multiplier := 2.0 / float64(period+1)

	ema, err := SMA(bars[:period], period)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate initial SMA for EMA: %w", err)
	}

	for i := period; i < len(bars); i++ {
		ema = (bars[i].Close-ema)*multiplier + ema
	}
	return ema, nil
}

// emaSeries returns the EMA at every index from period-1 onward, aligned to
// the input (values before period-1 are zero and must not be read).
func emaSeries(bars []*domain.Bar, period int) ([]float64, error) {
	if len(bars) < period {
		return nil, fmt.Errorf("not enough data (%d) for EMA series of period %d", len(bars), period)
	}
	out := make([]float64, len(bars))
	seed, err := SMA(bars[:period], period)
	if err != nil {
		return nil, err
	}
	out[period-1] = seed
	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(bars); i++ {
		out[i] = (bars[i].Close-out[i-1])*multiplier + out[i-1]
	}
	return out, nil
}

// RSI computes the Relative Strength Index using Wilder's smoothing method.
func RSI(bars []*domain.Bar, period int) (float64, error) {
	if len(bars) <= period {
		return 0, fmt.Errorf("not enough data (%d) to calculate RSI for period %d", len(bars), period)
	}

	// Calculate price changes
	changes := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		changes = append(changes, bars[i].Close-bars[i-1].Close)
	}

	// Calculate initial average gain and loss
	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		if changes[i] > 0 {
			avgGain += changes[i]
		} else {
			avgLoss -= changes[i]
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Smoothed averages, Wilder's method
	for i := period; i < len(changes); i++ {
		if changes[i] > 0 {
			avgGain = (avgGain*float64(period-1) + changes[i]) / float64(period)
			avgLoss = (avgLoss * float64(period-1)) / float64(period)
		} else {
			avgGain = (avgGain * float64(period-1)) / float64(period)
			avgLoss = (avgLoss*float64(period-1) - changes[i]) / float64(period)
		}
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil // Neutral if no change
		}
		return 100, nil // Max RSI if only gains
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))

	if rsi > 100 {
		rsi = 100
	} else if rsi < 0 {
		rsi = 0
	}
	return rsi, nil
}

// MACDValue holds the MACD line, its signal line, and the histogram for the
// last two bars of a series, enough to detect crosses.
type MACDValue struct {
	MACD       float64
	Signal     float64
	Hist       float64
	PrevMACD   float64
	PrevSignal float64
}

// MACD computes MACD(fast, slow, signal) over the closes. It needs at least
// slow+signal bars.
func MACD(bars []*domain.Bar, fast, slow, signal int) (*MACDValue, error) {
	if fast >= slow {
		return nil, fmt.Errorf("fast period (%d) must be less than slow period (%d)", fast, slow)
	}
	if len(bars) < slow+signal {
		return nil, fmt.Errorf("not enough data (%d) to calculate MACD(%d,%d,%d)", len(bars), fast, slow, signal)
	}

	fastSeries, err := emaSeries(bars, fast)
	if err != nil {
		return nil, err
	}
	slowSeries, err := emaSeries(bars, slow)
	if err != nil {
		return nil, err
	}

	// MACD line exists from index slow-1 onward.
	macdLine := make([]*domain.Bar, 0, len(bars)-slow+1)
	for i := slow - 1; i < len(bars); i++ {
		macdLine = append(macdLine, &domain.Bar{Close: fastSeries[i] - slowSeries[i]})
	}

	signalSeries, err := emaSeries(macdLine, signal)
	if err != nil {
		return nil, err
	}

	last := len(macdLine) - 1
	v := &MACDValue{
		MACD:   macdLine[last].Close,
		Signal: signalSeries[last],
		Hist:   macdLine[last].Close - signalSeries[last],
	}
	if last > signal-1 {
		v.PrevMACD = macdLine[last-1].Close
		v.PrevSignal = signalSeries[last-1]
	} else {
		v.PrevMACD = v.MACD
		v.PrevSignal = v.Signal
	}
	return v, nil
}

// GoldenCross reports whether the MACD line crossed above the signal line on
// the last bar.
func (v *MACDValue) GoldenCross() bool {
	return v.PrevMACD < v.PrevSignal && v.MACD > v.Signal
}

// DeathCross reports whether the MACD line crossed below the signal line on
// the last bar.
func (v *MACDValue) DeathCross() bool {
	return v.PrevMACD > v.PrevSignal && v.MACD < v.Signal
}
