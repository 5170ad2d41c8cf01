package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"stocksim/internal/adapters/logger"
	"stocksim/internal/adapters/sqlite"
	"stocksim/internal/domain"
	"stocksim/internal/engine"
	"stocksim/internal/portfolio"
	"stocksim/internal/ports"
)

// trader is a manual trading CLI against a persisted account. Trades
// execute at the stored closing price of the account's current date, so the
// price store must already hold that date's bars.
//
// Usage:
//
//	trader create  -account NAME -capital 1000000 -date 2023-01-03
//	trader set-date -account NAME -date 2023-01-04
//	trader buy     -account NAME -symbol 600519 -quantity 100
//	trader sell    -account NAME -symbol 600519 -quantity 100
//	trader portfolio -account NAME
//	trader log     -account NAME [-limit 20]
func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	dbPath := fs.String("db", "./data/stock_data.db", "path to the SQLite database")
	account := fs.String("account", "default", "account name")
	capital := fs.Float64("capital", 1000000, "initial capital (create only)")
	date := fs.String("date", "", "trading date YYYY-MM-DD (create, set-date)")
	symbol := fs.String("symbol", "", "stock symbol (buy, sell)")
	quantity := fs.Int64("quantity", 0, "share quantity (buy, sell)")
	limit := fs.Int("limit", 20, "number of entries (log only)")
	fs.Parse(os.Args[2:])

	log := logger.NewStdLogger(logger.LevelWarn)
	ctx := context.Background()

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: *dbPath, Logger: log})
	if err != nil {
		fatal("open database: %v", err)
	}
	defer repo.Close()

	switch os.Args[1] {
	case "create":
		if *date == "" {
			fatal("create requires -date")
		}
		id, err := repo.CreateAccount(ctx, *account, *capital, *date)
		if err != nil {
			fatal("create account: %v", err)
		}
		fmt.Printf("created account %q (id %d) with capital %.2f on %s\n", *account, id, *capital, *date)

	case "set-date":
		if *date == "" {
			fatal("set-date requires -date")
		}
		state := mustFindAccount(ctx, repo, *account)
		if *date < state.CurrentDate {
			fatal("cannot move account date backwards (%s -> %s)", state.CurrentDate, *date)
		}
		if err := repo.SaveAccountState(ctx, state.ID, state.Cash, *date); err != nil {
			fatal("save account: %v", err)
		}
		fmt.Printf("account %q advanced to %s\n", *account, *date)

	case "buy", "sell":
		if *symbol == "" || *quantity <= 0 {
			fatal("%s requires -symbol and a positive -quantity", os.Args[1])
		}
		runTrade(ctx, repo, log, os.Args[1], *account, *symbol, *quantity)

	case "portfolio":
		state := mustFindAccount(ctx, repo, *account)
		pf := mustLoadPortfolio(ctx, repo, state)
		printJSON(pf.GetSummary())
		for _, pos := range pf.SortedPositions() {
			printJSON(pos)
		}

	case "log":
		state := mustFindAccount(ctx, repo, *account)
		txs, err := repo.RecentTransactions(ctx, state.ID, *limit)
		if err != nil {
			fatal("load transactions: %v", err)
		}
		for _, tx := range txs {
			printJSON(tx)
		}

	default:
		usage()
		os.Exit(2)
	}
}

func runTrade(ctx context.Context, repo *sqlite.Repository, log ports.Logger, side, account, symbol string, quantity int64) {
	state := mustFindAccount(ctx, repo, account)
	pf := mustLoadPortfolio(ctx, repo, state)

	eng, err := engine.New(pf, repo, portfolio.DefaultCostConfig(), log)
	if err != nil {
		fatal("build engine: %v", err)
	}
	eng.BeginDay(state.CurrentDate)

	// Each invocation builds a fresh engine, so today's T+1 locks must be
	// rebuilt from the persisted trade log.
	dayTxs, err := repo.TransactionsOnDate(ctx, state.ID, state.CurrentDate)
	if err != nil {
		fatal("load today's trades: %v", err)
	}
	eng.SeedLocks(dayTxs)

	var tx *domain.Transaction
	if side == "buy" {
		tx, err = eng.ExecuteBuy(ctx, state.CurrentDate, symbol, quantity)
	} else {
		tx, err = eng.ExecuteSell(ctx, state.CurrentDate, symbol, quantity)
	}
	if err != nil {
		fatal("%s failed: %v", side, err)
	}

	// Persist the mutated state: cash, the touched holding, and the trade.
	if err := repo.SaveAccountState(ctx, state.ID, pf.Cash, state.CurrentDate); err != nil {
		fatal("save account: %v", err)
	}
	if pos := pf.GetPosition(symbol); pos != nil {
		err = repo.SaveHolding(ctx, state.ID, pos)
	} else {
		err = repo.DeleteHolding(ctx, state.ID, symbol)
	}
	if err != nil {
		fatal("save holding: %v", err)
	}
	if err := repo.AppendTransaction(ctx, state.ID, tx); err != nil {
		fatal("record transaction: %v", err)
	}

	printJSON(tx)
}

func mustFindAccount(ctx context.Context, repo *sqlite.Repository, name string) *ports.AccountState {
	state, err := repo.FindAccount(ctx, name)
	if errors.Is(err, ports.ErrNotFound) {
		fatal("account %q does not exist, run create first", name)
	}
	if err != nil {
		fatal("find account: %v", err)
	}
	return state
}

func mustLoadPortfolio(ctx context.Context, repo *sqlite.Repository, state *ports.AccountState) *portfolio.Portfolio {
	pf := portfolio.New(state.Name, state.InitialCapital)
	pf.Cash = state.Cash
	pf.CurrentDate = state.CurrentDate
	holdings, err := repo.LoadHoldings(ctx, state.ID)
	if err != nil {
		fatal("load holdings: %v", err)
	}
	for _, pos := range holdings {
		pf.Positions[pos.Symbol] = pos
	}
	return pf
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("encode output: %v", err)
	}
	fmt.Println(string(data))
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: trader <create|set-date|buy|sell|portfolio|log> [flags]")
}
