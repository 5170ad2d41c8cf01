package portfolio

import (
	"errors"
	"math"
	"testing"

	"stocksim/internal/domain"
	"stocksim/internal/ports"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCostBuyMinimumCommission(t *testing.T) {
	cfg := DefaultCostConfig()

	// 100 shares at 100.0: amount 10000, rate commission 3 < floor 5.
	cost, err := cfg.Cost(100.0, 100, domain.Buy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(cost.Commission, 5) {
		t.Errorf("expected commission 5, got %f", cost.Commission)
	}
	if cost.StampTax != 0 {
		t.Errorf("expected no stamp tax on buy, got %f", cost.StampTax)
	}
	if !almostEqual(cost.Net, 10005) {
		t.Errorf("expected net 10005, got %f", cost.Net)
	}
}

func TestCostSellStampTax(t *testing.T) {
	cfg := DefaultCostConfig()

	// 100 shares at 100.0: tax 10, commission floored at 5, net 9985.
	cost, err := cfg.Cost(100.0, 100, domain.Sell)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(cost.Commission, 5) {
		t.Errorf("expected commission 5, got %f", cost.Commission)
	}
	if !almostEqual(cost.StampTax, 10) {
		t.Errorf("expected stamp tax 10, got %f", cost.StampTax)
	}
	if !almostEqual(cost.Net, 9985) {
		t.Errorf("expected net 9985, got %f", cost.Net)
	}
}

func TestCostAboveCommissionFloor(t *testing.T) {
	cfg := DefaultCostConfig()

	// 1000 shares at 120.0: amount 120000, commission 36 > floor.
	cost, err := cfg.Cost(120.0, 1000, domain.Buy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(cost.Commission, 36) {
		t.Errorf("expected commission 36, got %f", cost.Commission)
	}
	if !almostEqual(cost.Net, 120036) {
		t.Errorf("expected net 120036, got %f", cost.Net)
	}

	// Selling the same lot at 130.0: commission 39, tax 130.
	cost, err = cfg.Cost(130.0, 1000, domain.Sell)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(cost.Commission, 39) {
		t.Errorf("expected commission 39, got %f", cost.Commission)
	}
	if !almostEqual(cost.StampTax, 130) {
		t.Errorf("expected stamp tax 130, got %f", cost.StampTax)
	}
	if !almostEqual(cost.Net, 129831) {
		t.Errorf("expected net 129831, got %f", cost.Net)
	}
}

func TestCostRejectsNegativeInput(t *testing.T) {
	cfg := DefaultCostConfig()

	if _, err := cfg.Cost(-1, 100, domain.Buy); !errors.Is(err, ports.ErrConfigurationError) {
		t.Errorf("expected configuration error for negative price, got %v", err)
	}
	if _, err := cfg.Cost(100, -1, domain.Sell); !errors.Is(err, ports.ErrConfigurationError) {
		t.Errorf("expected configuration error for negative quantity, got %v", err)
	}
	if _, err := cfg.Cost(100, 100, domain.Side("short")); !errors.Is(err, ports.ErrConfigurationError) {
		t.Errorf("expected configuration error for unknown side, got %v", err)
	}
}

func TestCostZeroQuantityStillPaysFloor(t *testing.T) {
	cfg := DefaultCostConfig()

	cost, err := cfg.Cost(100, 0, domain.Buy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(cost.Commission, cfg.MinCommission) {
		t.Errorf("expected floor commission %f, got %f", cfg.MinCommission, cost.Commission)
	}
}
