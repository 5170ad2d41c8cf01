package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"stocksim/internal/adapters/logger"
	"stocksim/internal/adapters/sqlite"
	"stocksim/internal/utils"
)

// importer loads daily bar history from a CSV file into the SQLite price
// store. The CSV layout matches utils.WriteBarsToCSV: symbol, date, open,
// close, high, low, volume, amount, pct_change with a header row.
func main() {
	dbPath := flag.String("db", "./data/stock_data.db", "path to the SQLite database")
	csvPath := flag.String("file", "", "CSV file with daily bars (required)")
	name := flag.String("name", "", "display name for the stock, e.g. 贵州茅台")
	market := flag.String("market", "A股", "market label for the stock")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	log := logger.NewStdLogger(logger.LevelInfo)
	ctx := context.Background()

	bars, err := utils.ReadBarsFromCSV(*csvPath)
	if err != nil {
		log.Error(ctx, err, "failed to read CSV file", map[string]interface{}{"file": *csvPath})
		os.Exit(1)
	}
	if len(bars) == 0 {
		log.Warn(ctx, "CSV file contains no bars", map[string]interface{}{"file": *csvPath})
		return
	}

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: *dbPath, Logger: log})
	if err != nil {
		log.Error(ctx, err, "failed to open database", map[string]interface{}{"db": *dbPath})
		os.Exit(1)
	}
	defer repo.Close()

	symbol := bars[0].Symbol
	displayName := *name
	if displayName == "" {
		displayName = symbol
	}
	if err := repo.SaveStockInfo(ctx, symbol, displayName, *market); err != nil {
		log.Error(ctx, err, "failed to save stock info", map[string]interface{}{"symbol": symbol})
		os.Exit(1)
	}
	if err := repo.SaveBars(ctx, bars); err != nil {
		log.Error(ctx, err, "failed to save bars", map[string]interface{}{"symbol": symbol})
		os.Exit(1)
	}

	fmt.Printf("imported %d bars for %s (%s)\n", len(bars), symbol, displayName)
}
