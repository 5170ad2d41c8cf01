package engine

import (
	"context"
	"fmt"

	"stocksim/internal/domain"
	"stocksim/internal/portfolio"
	"stocksim/internal/ports"
)

// Engine validates and applies trade intents against a portfolio, producing
// a transaction record for every applied trade. Every check runs before the
// first mutation; there is no rollback, so an intent is either applied in
// full (cash, position, transaction log together) or rejected untouched.
//
// T+1 is enforced structurally: shares bought during the current session day
// are locked until BeginDay advances the date. Sell quantities must be
// lot-aligned like buys, except a sell of the entire remaining holding,
// which closes out odd lots.
type Engine struct {
	pf          *portfolio.Portfolio
	prices      ports.PriceStore
	costs       portfolio.CostConfig
	logger      ports.Logger
	txLog       []*domain.Transaction
	boughtToday map[string]int64
}

// New creates an execution engine bound to one portfolio.
func New(pf *portfolio.Portfolio, prices ports.PriceStore, costs portfolio.CostConfig, log ports.Logger) (*Engine, error) {
	if pf == nil || prices == nil || log == nil {
		return nil, fmt.Errorf("%w: portfolio, price store and logger are required", ports.ErrConfigurationError)
	}
	if costs.LotSize <= 0 {
		return nil, fmt.Errorf("%w: lot size must be positive", ports.ErrConfigurationError)
	}
	return &Engine{
		pf:          pf,
		prices:      prices,
		costs:       costs,
		logger:      log,
		boughtToday: make(map[string]int64),
	}, nil
}

// BeginDay advances the engine's session date and releases the previous
// day's T+1 locks. The day-stepper calls it once per simulated day; the CLI
// calls it on set-date.
func (e *Engine) BeginDay(date string) {
	if date == e.pf.CurrentDate {
		return
	}
	e.pf.CurrentDate = date
	e.boughtToday = make(map[string]int64)
}

// SeedLocks replays executed trades into the current session's T+1 lock
// table. A simulation run never needs this (one engine lives for the whole
// run), but the CLI builds a fresh engine per invocation and must restore
// the locks from the persisted log or same-day buys would become sellable.
// Only buys dated the current session day count.
func (e *Engine) SeedLocks(txs []*domain.Transaction) {
	for _, tx := range txs {
		if tx.Side == domain.Buy && tx.Date == e.pf.CurrentDate {
			e.boughtToday[tx.Symbol] += tx.Quantity
		}
	}
}

// Transactions returns the ordered log of executed trades.
func (e *Engine) Transactions() []*domain.Transaction {
	return e.txLog
}

// ExecuteBuy validates and applies one buy intent. The execution price is
// the instrument's official close on date. Rejections leave the portfolio
// untouched.
func (e *Engine) ExecuteBuy(ctx context.Context, date, symbol string, quantity int64) (*domain.Transaction, error) {
	if quantity <= 0 || quantity%e.costs.LotSize != 0 {
		return nil, fmt.Errorf("%w: got %d, lot size %d", ports.ErrInvalidLotSize, quantity, e.costs.LotSize)
	}

	bar, err := e.prices.GetPriceOnDate(ctx, symbol, date)
	if err != nil {
		return nil, err
	}
	price := bar.Close

	cost, err := e.costs.Cost(price, quantity, domain.Buy)
	if err != nil {
		return nil, err
	}

	if e.pf.Cash < cost.Net {
		return nil, fmt.Errorf("%w: need %.2f, available %.2f", ports.ErrInsufficientFunds, cost.Net, e.pf.Cash)
	}

	name := symbol
	if info, ierr := e.prices.GetStockInfo(ctx, symbol); ierr == nil {
		name = info.Name
	}

	// All checks passed: debit, open/increase, record. No failure may occur
	// past this point.
	e.pf.Cash -= cost.Net
	e.pf.AddPosition(symbol, name, quantity, price)
	e.boughtToday[symbol] += quantity

	tx := &domain.Transaction{
		Date:       date,
		Side:       domain.Buy,
		Symbol:     symbol,
		Quantity:   quantity,
		Price:      price,
		Commission: cost.Commission,
		StampTax:   0,
		Total:      cost.Net,
	}
	e.txLog = append(e.txLog, tx)

	e.logger.Info(ctx, "buy executed", map[string]interface{}{
		"symbol": symbol, "quantity": quantity, "price": price, "total": cost.Net,
	})
	return tx, nil
}

// ExecuteSell validates and applies one sell intent. Rejections leave the
// portfolio untouched.
func (e *Engine) ExecuteSell(ctx context.Context, date, symbol string, quantity int64) (*domain.Transaction, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ports.ErrInvalidQuantity, quantity)
	}

	pos := e.pf.GetPosition(symbol)
	if pos == nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrNoPosition, symbol)
	}
	if pos.Quantity < quantity {
		return nil, fmt.Errorf("%w: held %d, requested %d", ports.ErrInsufficientHoldings, pos.Quantity, quantity)
	}

	// Lot alignment, unless the sell closes out the whole holding.
	if quantity != pos.Quantity && quantity%e.costs.LotSize != 0 {
		return nil, fmt.Errorf("%w: got %d, lot size %d", ports.ErrInvalidLotSize, quantity, e.costs.LotSize)
	}

	if settled := pos.Quantity - e.boughtToday[symbol]; quantity > settled {
		return nil, fmt.Errorf("%w: settled %d, requested %d", ports.ErrSharesLocked, settled, quantity)
	}

	bar, err := e.prices.GetPriceOnDate(ctx, symbol, date)
	if err != nil {
		return nil, err
	}
	price := bar.Close

	cost, err := e.costs.Cost(price, quantity, domain.Sell)
	if err != nil {
		return nil, err
	}

	// Net proceeds go negative when the commission floor exceeds the sale
	// amount. Cash must stay non-negative, so such a sell needs enough cash
	// to absorb the shortfall.
	if e.pf.Cash+cost.Net < 0 {
		return nil, fmt.Errorf("%w: sale nets %.2f, available %.2f", ports.ErrInsufficientFunds, cost.Net, e.pf.Cash)
	}

	e.pf.Cash += cost.Net
	e.pf.ReducePosition(symbol, quantity)

	tx := &domain.Transaction{
		Date:       date,
		Side:       domain.Sell,
		Symbol:     symbol,
		Quantity:   quantity,
		Price:      price,
		Commission: cost.Commission,
		StampTax:   cost.StampTax,
		Total:      cost.Net,
	}
	e.txLog = append(e.txLog, tx)

	e.logger.Info(ctx, "sell executed", map[string]interface{}{
		"symbol": symbol, "quantity": quantity, "price": price, "total": cost.Net,
	})
	return tx, nil
}

// Apply runs a day's intents sequentially. Each intent is validated against
// the portfolio as already mutated by earlier intents in the same batch.
// Failures are logged per intent and do not stop the batch; the returned
// transactions cover only the applied intents.
func (e *Engine) Apply(ctx context.Context, date string, intents []domain.Intent) []*domain.Transaction {
	var applied []*domain.Transaction
	for _, in := range intents {
		var tx *domain.Transaction
		var err error
		switch in.Side {
		case domain.Buy:
			tx, err = e.ExecuteBuy(ctx, date, in.Symbol, in.Quantity)
		case domain.Sell:
			tx, err = e.ExecuteSell(ctx, date, in.Symbol, in.Quantity)
		default:
			err = fmt.Errorf("%w: unknown intent side %q", ports.ErrConfigurationError, in.Side)
		}
		if err != nil {
			e.logger.Warn(ctx, "intent rejected", map[string]interface{}{
				"side": in.Side, "symbol": in.Symbol, "quantity": in.Quantity, "reason": err.Error(),
			})
			continue
		}
		applied = append(applied, tx)
	}
	return applied
}
