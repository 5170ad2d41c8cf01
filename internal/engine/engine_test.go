package engine

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

// stubPriceStore serves closes from a (symbol, date) map.
type stubPriceStore struct {
	closes map[string]float64 // key "symbol/date"
	names  map[string]string
}

func (s *stubPriceStore) GetPriceOnDate(ctx context.Context, symbol, date string) (*domain.Bar, error) {
	price, ok := s.closes[symbol+"/"+date]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ports.ErrPriceUnavailable, symbol, date)
	}
	return &domain.Bar{Symbol: symbol, Date: date, Close: price}, nil
}

func (s *stubPriceStore) GetHistory(ctx context.Context, symbol, endDate string, lookback int) ([]*domain.Bar, error) {
	return nil, ports.ErrPriceUnavailable
}

func (s *stubPriceStore) GetTradingCalendar(ctx context.Context, refSymbol string) ([]string, error) {
	return nil, ports.ErrNoTradingDates
}

func (s *stubPriceStore) GetStockInfo(ctx context.Context, symbol string) (*ports.StockInfo, error) {
	name, ok := s.names[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrUnknownSymbol, symbol)
	}
	return &ports.StockInfo{Symbol: symbol, Name: name}, nil
}

func newTestEngine(t *testing.T, capital float64, closes map[string]float64) (*Engine, *portfolio.Portfolio) {
	t.Helper()
	pf := portfolio.New("test", capital)
	store := &stubPriceStore{closes: closes, names: map[string]string{"600519": "贵州茅台"}}
	eng, err := New(pf, store, portfolio.DefaultCostConfig(), &mockLogger{})
	require.NoError(t, err)
	return eng, pf
}

func TestBuyThenSellRoundTrip(t *testing.T) {
	ctx := context.Background()
	eng, pf := newTestEngine(t, 1000000, map[string]float64{
		"600519/2023-01-03": 120.0,
		"600519/2023-01-04": 130.0,
	})

	eng.BeginDay("2023-01-03")
	buyTx, err := eng.ExecuteBuy(ctx, "2023-01-03", "600519", 1000)
	require.NoError(t, err)
	assert.InDelta(t, 36.0, buyTx.Commission, 1e-9)
	assert.InDelta(t, 0.0, buyTx.StampTax, 1e-9)
	assert.InDelta(t, 120036.0, buyTx.Total, 1e-9)
	assert.InDelta(t, 879964.0, pf.Cash, 1e-9)

	pos := pf.GetPosition("600519")
	require.NotNil(t, pos)
	assert.Equal(t, int64(1000), pos.Quantity)
	assert.Equal(t, "贵州茅台", pos.Name)
	assert.InDelta(t, 120.0, pos.AvgCost, 1e-9)

	eng.BeginDay("2023-01-04")
	sellTx, err := eng.ExecuteSell(ctx, "2023-01-04", "600519", 1000)
	require.NoError(t, err)
	assert.InDelta(t, 39.0, sellTx.Commission, 1e-9)
	assert.InDelta(t, 130.0, sellTx.StampTax, 1e-9)
	assert.InDelta(t, 129831.0, sellTx.Total, 1e-9)

	// 1000000 - 120036 + 129831
	assert.InDelta(t, 1009795.0, pf.Cash, 1e-6)
	assert.Nil(t, pf.GetPosition("600519"))
	assert.Len(t, eng.Transactions(), 2)
}

func TestBuyRejectsOddLot(t *testing.T) {
	ctx := context.Background()
	eng, pf := newTestEngine(t, 1000000, map[string]float64{"600519/2023-01-03": 120.0})
	eng.BeginDay("2023-01-03")

	_, err := eng.ExecuteBuy(ctx, "2023-01-03", "600519", 150)
	assert.ErrorIs(t, err, ports.ErrInvalidLotSize)
	assert.InDelta(t, 1000000.0, pf.Cash, 1e-9)
	assert.Empty(t, eng.Transactions())
}

func TestBuyRejectsInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	eng, pf := newTestEngine(t, 1000, map[string]float64{"600519/2023-01-03": 120.0})
	eng.BeginDay("2023-01-03")

	_, err := eng.ExecuteBuy(ctx, "2023-01-03", "600519", 100)
	assert.ErrorIs(t, err, ports.ErrInsufficientFunds)
	assert.InDelta(t, 1000.0, pf.Cash, 1e-9)
	assert.Nil(t, pf.GetPosition("600519"))
}

func TestBuyRejectsMissingPrice(t *testing.T) {
	ctx := context.Background()
	eng, pf := newTestEngine(t, 1000000, map[string]float64{})
	eng.BeginDay("2023-01-03")

	_, err := eng.ExecuteBuy(ctx, "2023-01-03", "600519", 100)
	assert.ErrorIs(t, err, ports.ErrPriceUnavailable)
	assert.InDelta(t, 1000000.0, pf.Cash, 1e-9)
}

func TestSellRejectsSameDayShares(t *testing.T) {
	ctx := context.Background()
	eng, pf := newTestEngine(t, 1000000, map[string]float64{
		"600519/2023-01-03": 120.0,
		"600519/2023-01-04": 125.0,
	})

	eng.BeginDay("2023-01-03")
	_, err := eng.ExecuteBuy(ctx, "2023-01-03", "600519", 1000)
	require.NoError(t, err)

	// Same session: everything is locked.
	_, err = eng.ExecuteSell(ctx, "2023-01-03", "600519", 100)
	assert.ErrorIs(t, err, ports.ErrSharesLocked)
	require.NotNil(t, pf.GetPosition("600519"))
	assert.Equal(t, int64(1000), pf.GetPosition("600519").Quantity)

	// Next session the lock is released.
	eng.BeginDay("2023-01-04")
	_, err = eng.ExecuteSell(ctx, "2023-01-04", "600519", 100)
	assert.NoError(t, err)
}

func TestSellLocksOnlyTodaysShares(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, 1000000, map[string]float64{
		"600519/2023-01-03": 100.0,
		"600519/2023-01-04": 100.0,
	})

	eng.BeginDay("2023-01-03")
	_, err := eng.ExecuteBuy(ctx, "2023-01-03", "600519", 200)
	require.NoError(t, err)

	eng.BeginDay("2023-01-04")
	_, err = eng.ExecuteBuy(ctx, "2023-01-04", "600519", 100)
	require.NoError(t, err)

	// Held 300, 100 bought today: 200 settled.
	_, err = eng.ExecuteSell(ctx, "2023-01-04", "600519", 300)
	assert.ErrorIs(t, err, ports.ErrSharesLocked)

	_, err = eng.ExecuteSell(ctx, "2023-01-04", "600519", 200)
	assert.NoError(t, err)
}

func TestSellRejections(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, 1000000, map[string]float64{
		"600519/2023-01-03": 100.0,
		"600519/2023-01-04": 100.0,
	})

	_, err := eng.ExecuteSell(ctx, "2023-01-03", "600519", 100)
	assert.ErrorIs(t, err, ports.ErrNoPosition)

	_, err = eng.ExecuteSell(ctx, "2023-01-03", "600519", 0)
	assert.ErrorIs(t, err, ports.ErrInvalidQuantity)

	eng.BeginDay("2023-01-03")
	_, err = eng.ExecuteBuy(ctx, "2023-01-03", "600519", 200)
	require.NoError(t, err)

	eng.BeginDay("2023-01-04")
	_, err = eng.ExecuteSell(ctx, "2023-01-04", "600519", 300)
	assert.ErrorIs(t, err, ports.ErrInsufficientHoldings)

	// Odd-lot sell that is not a full close-out.
	_, err = eng.ExecuteSell(ctx, "2023-01-04", "600519", 150)
	assert.ErrorIs(t, err, ports.ErrInvalidLotSize)
}

func TestSellOddLotFullCloseAllowed(t *testing.T) {
	ctx := context.Background()
	eng, pf := newTestEngine(t, 1000000, map[string]float64{
		"600519/2023-01-03": 100.0,
		"600519/2023-01-04": 100.0,
	})

	// An odd holding can arise from corporate actions in imported data;
	// model it directly on the ledger.
	pf.AddPosition("600519", "贵州茅台", 150, 100.0)

	eng.BeginDay("2023-01-04")
	_, err := eng.ExecuteSell(ctx, "2023-01-04", "600519", 150)
	assert.NoError(t, err)
	assert.Nil(t, pf.GetPosition("600519"))
}

func TestSeedLocksSurvivesEngineRebuild(t *testing.T) {
	ctx := context.Background()
	closes := map[string]float64{
		"600519/2023-01-03": 120.0,
		"600519/2023-01-04": 125.0,
	}

	// First session: buy, then persist the trade log.
	eng1, pf := newTestEngine(t, 1000000, closes)
	eng1.BeginDay("2023-01-03")
	_, err := eng1.ExecuteBuy(ctx, "2023-01-03", "600519", 1000)
	require.NoError(t, err)
	dayLog := eng1.Transactions()

	// Second session over the same account state, same date: a fresh
	// engine knows nothing until the log is replayed into it.
	store := &stubPriceStore{closes: closes, names: map[string]string{}}
	eng2, err := New(pf, store, portfolio.DefaultCostConfig(), &mockLogger{})
	require.NoError(t, err)
	eng2.BeginDay("2023-01-03")
	eng2.SeedLocks(dayLog)

	_, err = eng2.ExecuteSell(ctx, "2023-01-03", "600519", 100)
	assert.ErrorIs(t, err, ports.ErrSharesLocked)
	assert.Equal(t, int64(1000), pf.GetPosition("600519").Quantity)

	// The next day the same seed is inert and the shares are settled.
	eng3, err := New(pf, store, portfolio.DefaultCostConfig(), &mockLogger{})
	require.NoError(t, err)
	eng3.BeginDay("2023-01-04")
	eng3.SeedLocks(dayLog)
	_, err = eng3.ExecuteSell(ctx, "2023-01-04", "600519", 100)
	assert.NoError(t, err)
}

func TestSellRejectsNegativeNetBeyondCash(t *testing.T) {
	ctx := context.Background()
	// 100 shares at 0.04: amount 4, commission floored at 5, net -1.004.
	eng, pf := newTestEngine(t, 0.5, map[string]float64{"600519/2023-01-04": 0.04})
	pf.AddPosition("600519", "", 100, 0.05)

	eng.BeginDay("2023-01-04")
	_, err := eng.ExecuteSell(ctx, "2023-01-04", "600519", 100)
	assert.ErrorIs(t, err, ports.ErrInsufficientFunds)
	assert.InDelta(t, 0.5, pf.Cash, 1e-9)
	assert.Equal(t, int64(100), pf.GetPosition("600519").Quantity)

	// With cash to absorb the shortfall the sell goes through.
	pf.Cash = 10
	_, err = eng.ExecuteSell(ctx, "2023-01-04", "600519", 100)
	require.NoError(t, err)
	assert.InDelta(t, 8.996, pf.Cash, 1e-9)
	assert.Nil(t, pf.GetPosition("600519"))
}

func TestApplyContinuesAfterRejection(t *testing.T) {
	ctx := context.Background()
	eng, pf := newTestEngine(t, 1000000, map[string]float64{
		"600519/2023-01-03": 100.0,
		"600036/2023-01-03": 35.0,
	})
	eng.BeginDay("2023-01-03")

	applied := eng.Apply(ctx, "2023-01-03", []domain.Intent{
		{Side: domain.Buy, Symbol: "600519", Quantity: 100},
		{Side: domain.Sell, Symbol: "000002", Quantity: 100}, // no position
		{Side: domain.Buy, Symbol: "600036", Quantity: 150},  // odd lot
		{Side: domain.Buy, Symbol: "600036", Quantity: 200},
	})

	require.Len(t, applied, 2)
	assert.Equal(t, "600519", applied[0].Symbol)
	assert.Equal(t, "600036", applied[1].Symbol)
	assert.NotNil(t, pf.GetPosition("600519"))
	assert.NotNil(t, pf.GetPosition("600036"))
}

func TestApplySequentialFundsDepletion(t *testing.T) {
	ctx := context.Background()
	// Enough cash for one buy but not two.
	eng, pf := newTestEngine(t, 15000, map[string]float64{
		"600519/2023-01-03": 100.0,
	})
	eng.BeginDay("2023-01-03")

	applied := eng.Apply(ctx, "2023-01-03", []domain.Intent{
		{Side: domain.Buy, Symbol: "600519", Quantity: 100},
		{Side: domain.Buy, Symbol: "600519", Quantity: 100},
	})

	require.Len(t, applied, 1)
	assert.Equal(t, int64(100), pf.GetPosition("600519").Quantity)
}
