package sim

import (
	"context"
	"fmt"

	"stocksim/internal/domain"
	"stocksim/internal/engine"
	"stocksim/internal/portfolio"
	"stocksim/internal/ports"
)

// Config holds the parameters of one simulation run.
type Config struct {
	AccountName    string
	InitialCapital float64
	StockPool      []string // First symbol doubles as the calendar reference
	StartDate      string   // YYYY-MM-DD, inclusive
	EndDate        string   // YYYY-MM-DD, inclusive
	Costs          portfolio.CostConfig
}

// DayResult summarizes one completed simulated day, for observers such as
// the background runner's status surface.
type DayResult struct {
	Index    int // 0-based day index within the run
	Total    int
	Date     string
	Decision *domain.Decision
	Applied  []*domain.Transaction
	Summary  portfolio.Summary
}

// Stepper drives the day-by-day simulation: for every trading date it marks
// positions to market, asks the decision source for intents, executes them,
// and snapshots the portfolio. A single stepper owns its portfolio for the
// whole run and must not be driven from two goroutines.
type Stepper struct {
	cfg      Config
	pf       *portfolio.Portfolio
	eng      *engine.Engine
	prices   ports.PriceStore
	decider  ports.DecisionSource
	logger   ports.Logger
	onDayEnd func(DayResult)

	snapshots []domain.Snapshot
}

// NewStepper wires a simulation run. onDayEnd is optional; when set, it is
// invoked after each day's snapshot with that day's result.
func NewStepper(cfg Config, prices ports.PriceStore, decider ports.DecisionSource, log ports.Logger, onDayEnd func(DayResult)) (*Stepper, error) {
	if prices == nil || decider == nil || log == nil {
		return nil, fmt.Errorf("%w: price store, decision source and logger are required", ports.ErrConfigurationError)
	}
	if len(cfg.StockPool) == 0 {
		return nil, fmt.Errorf("%w: stock pool is empty", ports.ErrConfigurationError)
	}
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("%w: initial capital must be positive", ports.ErrConfigurationError)
	}

	pf := portfolio.New(cfg.AccountName, cfg.InitialCapital)
	eng, err := engine.New(pf, prices, cfg.Costs, log)
	if err != nil {
		return nil, err
	}
	return &Stepper{
		cfg:      cfg,
		pf:       pf,
		eng:      eng,
		prices:   prices,
		decider:  decider,
		logger:   log,
		onDayEnd: onDayEnd,
	}, nil
}

// Portfolio exposes the run's ledger for read-only inspection.
func (s *Stepper) Portfolio() *portfolio.Portfolio {
	return s.pf
}

// tradingDates resolves the run's calendar: the reference instrument's bar
// dates intersected with [StartDate, EndDate].
func (s *Stepper) tradingDates(ctx context.Context) ([]string, error) {
	all, err := s.prices.GetTradingCalendar(ctx, s.cfg.StockPool[0])
	if err != nil {
		return nil, err
	}
	var dates []string
	for _, d := range all {
		if d >= s.cfg.StartDate && d <= s.cfg.EndDate {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

// Run executes the whole simulation and returns the final report.
//
// Calendar-resolution failure is the only fatal error: it aborts before any
// day is processed and yields an empty report alongside the error. All
// per-day failures (decision errors, rejected intents) are logged and the
// run continues. Context cancellation is honored at day boundaries.
func (s *Stepper) Run(ctx context.Context) (*Report, error) {
	dates, err := s.tradingDates(ctx)
	if err != nil {
		return buildReport(s.pf, s.cfg.StartDate, s.cfg.EndDate, nil, nil), err
	}
	if len(dates) == 0 {
		err := fmt.Errorf("%w: %s to %s", ports.ErrNoTradingDates, s.cfg.StartDate, s.cfg.EndDate)
		s.logger.Error(ctx, err, "simulation aborted")
		return buildReport(s.pf, s.cfg.StartDate, s.cfg.EndDate, nil, nil), err
	}

	s.logger.Info(ctx, "simulation started", map[string]interface{}{
		"days": len(dates), "capital": s.cfg.InitialCapital, "pool": s.cfg.StockPool,
	})

	for i, date := range dates {
		if ctx.Err() != nil {
			s.logger.Warn(ctx, "simulation stopped", map[string]interface{}{"completed_days": i})
			break
		}
		s.runDay(ctx, i, len(dates), date)
	}

	report := buildReport(s.pf, s.cfg.StartDate, s.cfg.EndDate, s.snapshots, s.eng.Transactions())
	s.logger.Info(ctx, "simulation completed", map[string]interface{}{
		"final_asset": report.FinalAsset, "return_pct": report.TotalReturnPct, "trades": report.TotalTrades,
	})
	return report, nil
}

// runDay performs one day's MarkPrices / Decide / Execute / Snapshot cycle.
func (s *Stepper) runDay(ctx context.Context, idx, total int, date string) {
	s.eng.BeginDay(date)
	s.markPrices(ctx, date)

	decision := s.decide(ctx, date)

	var applied []*domain.Transaction
	if decision.Success && len(decision.Intents) > 0 {
		applied = s.eng.Apply(ctx, date, decision.Intents)
	}

	summary := s.pf.GetSummary()
	s.snapshots = append(s.snapshots, domain.Snapshot{
		Date:        date,
		Cash:        summary.Cash,
		MarketValue: summary.MarketValue,
		TotalAsset:  summary.TotalAsset,
		Profit:      summary.TotalProfit,
		ProfitRate:  summary.TotalRate,
	})

	s.logger.Debug(ctx, "day completed", map[string]interface{}{
		"date": date, "total_asset": summary.TotalAsset, "trades": len(applied),
	})

	if s.onDayEnd != nil {
		s.onDayEnd(DayResult{
			Index:    idx,
			Total:    total,
			Date:     date,
			Decision: decision,
			Applied:  applied,
			Summary:  summary,
		})
	}
}

// markPrices updates every held position to its close on date. An instrument
// without a bar (suspension) keeps its previous mark; that is not an error.
func (s *Stepper) markPrices(ctx context.Context, date string) {
	for symbol := range s.pf.Positions {
		bar, err := s.prices.GetPriceOnDate(ctx, symbol, date)
		if err != nil {
			s.logger.Debug(ctx, "no bar for held instrument, mark left stale", map[string]interface{}{
				"symbol": symbol, "date": date,
			})
			continue
		}
		s.pf.MarkPrice(symbol, bar.Close)
	}
}

// decide asks the decision source for the day's intents. Any failure is
// downgraded to an unsuccessful decision with zero intents; one bad day must
// never abort the run.
func (s *Stepper) decide(ctx context.Context, date string) *domain.Decision {
	summary := s.pf.GetSummary()
	req := ports.DecisionRequest{
		Date:        date,
		Cash:        summary.Cash,
		MarketValue: summary.MarketValue,
		TotalAsset:  summary.TotalAsset,
		ProfitRate:  summary.TotalRate,
		StockPool:   s.cfg.StockPool,
	}
	for _, pos := range s.pf.SortedPositions() {
		req.Positions = append(req.Positions, ports.PositionView{
			Symbol:       pos.Symbol,
			Name:         pos.Name,
			Quantity:     pos.Quantity,
			AvgCost:      pos.AvgCost,
			CurrentPrice: pos.CurrentPrice,
			ProfitRate:   pos.ProfitRate(),
		})
	}

	decision, err := s.decider.Decide(ctx, req)
	if err != nil || decision == nil {
		s.logger.Warn(ctx, "decision failed, trading skipped for the day", map[string]interface{}{
			"date": date, "error": fmt.Sprintf("%v", err),
		})
		return &domain.Decision{Success: false, Reasoning: fmt.Sprintf("decision failed: %v", err)}
	}
	return decision
}
