package sim

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksim/internal/domain"
	"stocksim/internal/portfolio"
	"stocksim/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// fakePriceStore serves a fixed calendar and per-(symbol, date) closes.
type fakePriceStore struct {
	calendar []string
	closes   map[string]float64 // key "symbol/date"
}

func (f *fakePriceStore) GetPriceOnDate(ctx context.Context, symbol, date string) (*domain.Bar, error) {
	price, ok := f.closes[symbol+"/"+date]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ports.ErrPriceUnavailable, symbol, date)
	}
	return &domain.Bar{Symbol: symbol, Date: date, Close: price}, nil
}

func (f *fakePriceStore) GetHistory(ctx context.Context, symbol, endDate string, lookback int) ([]*domain.Bar, error) {
	return nil, ports.ErrPriceUnavailable
}

func (f *fakePriceStore) GetTradingCalendar(ctx context.Context, refSymbol string) ([]string, error) {
	return f.calendar, nil
}

func (f *fakePriceStore) GetStockInfo(ctx context.Context, symbol string) (*ports.StockInfo, error) {
	return &ports.StockInfo{Symbol: symbol, Name: symbol}, nil
}

// scriptedDecider replays one canned response per day, in order.
type scriptedDecider struct {
	responses []func(req ports.DecisionRequest) (*domain.Decision, error)
	calls     int
	requests  []ports.DecisionRequest
}

func (s *scriptedDecider) Decide(ctx context.Context, req ports.DecisionRequest) (*domain.Decision, error) {
	s.requests = append(s.requests, req)
	if s.calls >= len(s.responses) {
		return &domain.Decision{Success: true}, nil
	}
	fn := s.responses[s.calls]
	s.calls++
	return fn(req)
}

func hold() func(ports.DecisionRequest) (*domain.Decision, error) {
	return func(ports.DecisionRequest) (*domain.Decision, error) {
		return &domain.Decision{Success: true}, nil
	}
}

func buy(symbol string, qty int64) func(ports.DecisionRequest) (*domain.Decision, error) {
	return func(ports.DecisionRequest) (*domain.Decision, error) {
		return &domain.Decision{
			Success: true,
			Intents: []domain.Intent{{Side: domain.Buy, Symbol: symbol, Quantity: qty}},
		}, nil
	}
}

func testConfig() Config {
	return Config{
		AccountName:    "test",
		InitialCapital: 1000000,
		StockPool:      []string{"600519"},
		StartDate:      "2023-01-01",
		EndDate:        "2023-12-31",
		Costs:          portfolio.DefaultCostConfig(),
	}
}

func TestRunCalendarIntersection(t *testing.T) {
	store := &fakePriceStore{
		calendar: []string{"2022-12-30", "2023-01-03", "2023-01-04", "2024-01-02"},
		closes: map[string]float64{
			"600519/2023-01-03": 100.0,
			"600519/2023-01-04": 100.0,
		},
	}
	decider := &scriptedDecider{}
	stepper, err := NewStepper(testConfig(), store, decider, &mockLogger{}, nil)
	require.NoError(t, err)

	report, err := stepper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.TradingDays)
	require.Len(t, decider.requests, 2)
	assert.Equal(t, "2023-01-03", decider.requests[0].Date)
	assert.Equal(t, "2023-01-04", decider.requests[1].Date)
}

func TestRunEmptyCalendarIsFatal(t *testing.T) {
	store := &fakePriceStore{calendar: []string{"2022-01-03"}}
	stepper, err := NewStepper(testConfig(), store, &scriptedDecider{}, &mockLogger{}, nil)
	require.NoError(t, err)

	report, err := stepper.Run(context.Background())
	assert.ErrorIs(t, err, ports.ErrNoTradingDates)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.TradingDays)
	assert.InDelta(t, 1000000.0, report.FinalAsset, 1e-9)
}

func TestRunDecisionFailureSkipsDayOnly(t *testing.T) {
	store := &fakePriceStore{
		calendar: []string{"2023-01-03", "2023-01-04"},
		closes: map[string]float64{
			"600519/2023-01-03": 100.0,
			"600519/2023-01-04": 100.0,
		},
	}
	decider := &scriptedDecider{responses: []func(ports.DecisionRequest) (*domain.Decision, error){
		func(ports.DecisionRequest) (*domain.Decision, error) {
			return nil, fmt.Errorf("%w: model unavailable", ports.ErrDecisionFailed)
		},
		buy("600519", 100),
	}}
	stepper, err := NewStepper(testConfig(), store, decider, &mockLogger{}, nil)
	require.NoError(t, err)

	report, err := stepper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.TradingDays)
	assert.Equal(t, 1, report.TotalTrades)
	assert.Equal(t, 2, decider.calls)
}

func TestRunSnapshotsTrackAsset(t *testing.T) {
	store := &fakePriceStore{
		calendar: []string{"2023-01-03", "2023-01-04"},
		closes: map[string]float64{
			"600519/2023-01-03": 100.0,
			"600519/2023-01-04": 110.0,
		},
	}
	decider := &scriptedDecider{responses: []func(ports.DecisionRequest) (*domain.Decision, error){
		buy("600519", 1000),
		hold(),
	}}
	stepper, err := NewStepper(testConfig(), store, decider, &mockLogger{}, nil)
	require.NoError(t, err)

	report, err := stepper.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.DailySnapshots, 2)

	// Day 1: bought 1000 at 100, cost 100030, still marked at 100.
	day1 := report.DailySnapshots[0]
	assert.InDelta(t, 899970.0, day1.Cash, 1e-6)
	assert.InDelta(t, 100000.0, day1.MarketValue, 1e-6)
	assert.InDelta(t, 999970.0, day1.TotalAsset, 1e-6)

	// Day 2: mark moves to 110.
	day2 := report.DailySnapshots[1]
	assert.InDelta(t, 110000.0, day2.MarketValue, 1e-6)
	assert.InDelta(t, 1009970.0, day2.TotalAsset, 1e-6)

	// The bar on day 2 must be visible to the decision source.
	assert.InDelta(t, 110.0, decider.requests[1].Positions[0].CurrentPrice, 1e-9)
}

func TestRunStaleMarkOnMissingBar(t *testing.T) {
	store := &fakePriceStore{
		calendar: []string{"2023-01-03", "2023-01-04"},
		closes: map[string]float64{
			"600519/2023-01-03": 100.0,
			// Suspended on 01-04: no bar.
		},
	}
	decider := &scriptedDecider{responses: []func(ports.DecisionRequest) (*domain.Decision, error){
		buy("600519", 1000),
		hold(),
	}}
	stepper, err := NewStepper(testConfig(), store, decider, &mockLogger{}, nil)
	require.NoError(t, err)

	report, err := stepper.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.DailySnapshots, 2)
	assert.InDelta(t, 100000.0, report.DailySnapshots[1].MarketValue, 1e-6)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	store := &fakePriceStore{
		calendar: []string{"2023-01-03", "2023-01-04", "2023-01-05"},
		closes:   map[string]float64{"600519/2023-01-03": 100.0},
	}
	ctx, cancel := context.WithCancel(context.Background())
	decider := &scriptedDecider{responses: []func(ports.DecisionRequest) (*domain.Decision, error){
		func(ports.DecisionRequest) (*domain.Decision, error) {
			cancel()
			return &domain.Decision{Success: true}, nil
		},
	}}
	stepper, err := NewStepper(testConfig(), store, decider, &mockLogger{}, nil)
	require.NoError(t, err)

	report, err := stepper.Run(ctx)
	require.NoError(t, err)
	// The day in flight completes; later days do not start.
	assert.Equal(t, 1, report.TradingDays)
	assert.Equal(t, 1, decider.calls)
}

func TestNewStepperValidation(t *testing.T) {
	store := &fakePriceStore{}
	log := &mockLogger{}

	cfg := testConfig()
	cfg.StockPool = nil
	_, err := NewStepper(cfg, store, &scriptedDecider{}, log, nil)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	cfg = testConfig()
	cfg.InitialCapital = 0
	_, err = NewStepper(cfg, store, &scriptedDecider{}, log, nil)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	_, err = NewStepper(testConfig(), nil, &scriptedDecider{}, log, nil)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}
