package strategy

import (
	"context"
	"fmt"
	"math"
	"strings"

	"stocksim/internal/domain"
	"stocksim/internal/indicators"
	"stocksim/internal/ports"
)

// Config holds parameters for the MA-crossover decision source.
type Config struct {
	FastPeriod   int     // e.g., 5
	SlowPeriod   int     // e.g., 20
	CashFraction float64 // Fraction of current cash committed per buy, e.g., 0.3
	LotSize      int64   // Lot alignment for generated buy quantities
}

// MACrossover is a no-network ports.DecisionSource: it buys a stock on a
// golden cross of its fast over slow moving average and sells the whole
// holding on a death cross. Mostly useful as a deterministic stand-in for
// the LLM agent in simulations and tests.
type MACrossover struct {
	cfg    Config
	prices ports.PriceStore
	logger ports.Logger
}

// New creates a new MA-crossover decision source.
func New(cfg Config, prices ports.PriceStore, log ports.Logger) (*MACrossover, error) {
	if prices == nil || log == nil {
		return nil, fmt.Errorf("%w: price store and logger are required", ports.ErrConfigurationError)
	}
	if cfg.FastPeriod <= 0 || cfg.SlowPeriod <= 0 {
		return nil, fmt.Errorf("%w: MA periods must be positive", ports.ErrConfigurationError)
	}
	if cfg.FastPeriod >= cfg.SlowPeriod {
		return nil, fmt.Errorf("%w: fast MA period must be less than slow MA period", ports.ErrConfigurationError)
	}
	if cfg.CashFraction <= 0 || cfg.CashFraction > 1 {
		return nil, fmt.Errorf("%w: cash fraction must be in (0, 1]", ports.ErrConfigurationError)
	}
	if cfg.LotSize <= 0 {
		cfg.LotSize = 100
	}
	return &MACrossover{cfg: cfg, prices: prices, logger: log}, nil
}

// Decide implements ports.DecisionSource.
func (m *MACrossover) Decide(ctx context.Context, req ports.DecisionRequest) (*domain.Decision, error) {
	held := make(map[string]int64, len(req.Positions))
	for _, p := range req.Positions {
		held[p.Symbol] = p.Quantity
	}

	decision := &domain.Decision{Success: true}
	var notes []string
	cash := req.Cash

	for _, symbol := range req.StockPool {
		// One extra bar so the previous day's averages are available.
		bars, err := m.prices.GetHistory(ctx, symbol, req.Date, m.cfg.SlowPeriod+1)
		if err != nil || len(bars) <= m.cfg.SlowPeriod {
			notes = append(notes, fmt.Sprintf("%s: not enough history", symbol))
			continue
		}

		fastNow, err1 := indicators.SMA(bars, m.cfg.FastPeriod)
		slowNow, err2 := indicators.SMA(bars, m.cfg.SlowPeriod)
		fastPrev, err3 := indicators.SMA(bars[:len(bars)-1], m.cfg.FastPeriod)
		slowPrev, err4 := indicators.SMA(bars[:len(bars)-1], m.cfg.SlowPeriod)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}

		price := bars[len(bars)-1].Close
		goldenCross := fastPrev <= slowPrev && fastNow > slowNow
		deathCross := fastPrev >= slowPrev && fastNow < slowNow

		switch {
		case goldenCross && held[symbol] == 0:
			qty := m.buyQuantity(cash, price)
			if qty == 0 {
				notes = append(notes, fmt.Sprintf("%s: golden cross but insufficient cash", symbol))
				continue
			}
			decision.Intents = append(decision.Intents, domain.Intent{Side: domain.Buy, Symbol: symbol, Quantity: qty})
			cash -= price * float64(qty)
			notes = append(notes, fmt.Sprintf("%s: golden cross, buy %d", symbol, qty))

		case deathCross && held[symbol] > 0:
			decision.Intents = append(decision.Intents, domain.Intent{Side: domain.Sell, Symbol: symbol, Quantity: held[symbol]})
			notes = append(notes, fmt.Sprintf("%s: death cross, sell %d", symbol, held[symbol]))

		default:
			notes = append(notes, fmt.Sprintf("%s: no signal", symbol))
		}
	}

	decision.Analysis = strings.Join(notes, "; ")
	if len(decision.Intents) == 0 {
		decision.Reasoning = "no crossover signals, holding"
	} else {
		decision.Reasoning = fmt.Sprintf("acting on %d crossover signal(s)", len(decision.Intents))
	}
	return decision, nil
}

// buyQuantity sizes a buy at the configured cash fraction, rounded down to
// whole lots. Leaves headroom for commission by never committing the full
// fraction to shares alone.
func (m *MACrossover) buyQuantity(cash, price float64) int64 {
	if price <= 0 {
		return 0
	}
	budget := cash * m.cfg.CashFraction
	lots := int64(math.Floor(budget / (price * float64(m.cfg.LotSize))))
	return lots * m.cfg.LotSize
}
