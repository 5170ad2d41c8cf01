package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stocksim/config"
	"stocksim/internal/adapters/llm"
	"stocksim/internal/adapters/logger"
	"stocksim/internal/adapters/sqlite"
	"stocksim/internal/adapters/strategy"
	"stocksim/internal/portfolio"
	"stocksim/internal/ports"
	"stocksim/internal/sim"
)

// Headless simulation run: steps through the configured date range with the
// LLM agent (or the rule-based strategy when no API key is configured) and
// prints the final report as JSON.
func main() {
	useStrategy := flag.Bool("strategy", false, "use the MA-crossover strategy instead of the LLM agent")
	reportPath := flag.String("report", "", "also write the report JSON to this file")
	flag.Parse()

	log := logger.NewStdLogger(logger.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error(ctx, err, "failed to load configuration")
		os.Exit(1)
	}
	log = logger.NewStdLogger(cfg.LogLevel)

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: log})
	if err != nil {
		log.Error(ctx, err, "failed to open price store", map[string]interface{}{"db": cfg.DBPath})
		os.Exit(1)
	}
	defer repo.Close()

	decider, err := buildDecider(cfg, repo, log, *useStrategy)
	if err != nil {
		log.Error(ctx, err, "failed to build decision source")
		os.Exit(1)
	}

	simCfg := sim.Config{
		AccountName:    "headless",
		InitialCapital: cfg.InitialCapital,
		StockPool:      cfg.StockPool,
		StartDate:      cfg.StartDate,
		EndDate:        cfg.EndDate,
		Costs: portfolio.CostConfig{
			CommissionRate: cfg.CommissionRate,
			StampTaxRate:   cfg.StampTaxRate,
			MinCommission:  cfg.MinCommission,
			LotSize:        cfg.LotSize,
		},
	}

	stepper, err := sim.NewStepper(simCfg, repo, decider, log, func(day sim.DayResult) {
		log.Info(ctx, "day complete", map[string]interface{}{
			"day":         fmt.Sprintf("%d/%d", day.Index+1, day.Total),
			"date":        day.Date,
			"trades":      len(day.Applied),
			"total_asset": day.Summary.TotalAsset,
		})
	})
	if err != nil {
		log.Error(ctx, err, "failed to build simulation")
		os.Exit(1)
	}

	report, err := stepper.Run(ctx)
	if err != nil {
		log.Error(ctx, err, "simulation aborted")
		os.Exit(1)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Error(ctx, err, "failed to encode report")
		os.Exit(1)
	}
	fmt.Println(string(data))

	if *reportPath != "" {
		if err := os.WriteFile(*reportPath, data, 0o644); err != nil {
			log.Error(ctx, err, "failed to write report file", map[string]interface{}{"path": *reportPath})
			os.Exit(1)
		}
	}
}

func buildDecider(cfg *config.Config, repo *sqlite.Repository, log ports.Logger, forceStrategy bool) (ports.DecisionSource, error) {
	if forceStrategy || cfg.LLMAPIKey == "" {
		return strategy.New(strategy.Config{
			FastPeriod:   5,
			SlowPeriod:   20,
			CashFraction: 0.3,
			LotSize:      cfg.LotSize,
		}, repo, log)
	}
	return llm.New(llm.Config{
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxRounds:   cfg.MaxToolRounds,
		MinInterval: cfg.APICallInterval,
		Prices:      repo,
		Logger:      log,
	})
}
