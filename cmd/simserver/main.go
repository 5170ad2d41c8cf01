package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stocksim/config"
	"stocksim/internal/adapters/llm"
	"stocksim/internal/adapters/logger"
	"stocksim/internal/adapters/sqlite"
	"stocksim/internal/api"
	"stocksim/internal/portfolio"
	"stocksim/internal/sim"
)

// simserver exposes the simulation over HTTP: start/pause/resume/stop the
// run and poll its status and final report. One run configuration per
// process, taken from the environment.
func main() {
	log := logger.NewStdLogger(logger.LevelInfo)
	ctx := context.Background()

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

	agent, err := llm.New(llm.Config{
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxRounds:   cfg.MaxToolRounds,
		MinInterval: cfg.APICallInterval,
		Prices:      repo,
		Logger:      log,
	})
	if err != nil {
		log.Error(ctx, err, "failed to build LLM agent")
		os.Exit(1)
	}

	simCfg := sim.Config{
		AccountName:    "simserver",
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

	runner := sim.NewRunner(log)
	handler := api.NewHandler(runner, simCfg, repo, agent, log)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": cfg.HTTPAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, err, "HTTP server failed")
			stop()
		}
	}()

	<-sigCtx.Done()
	log.Info(ctx, "shutting down")

	// Abort any in-flight run so the worker does not outlive the server.
	_ = runner.Stop()
	runner.Wait()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, err, "forced shutdown")
	}
	log.Info(ctx, "server stopped")
}
