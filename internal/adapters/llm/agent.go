package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"stocksim/internal/domain"
	"stocksim/internal/ports"
)

// Agent is a ports.DecisionSource backed by an OpenAI-compatible chat API
// with function calling. Each Decide runs a bounded tool-calling loop: the
// model may query history, indicators, and the portfolio, then queue trades
// through the buy/sell tools; the resulting intents are handed back to the
// simulation for real validation and execution.
type Agent struct {
	client      openai.Client
	model       string
	temperature float64
	maxRounds   int
	minInterval time.Duration
	prices      ports.PriceStore
	logger      ports.Logger

	lastCallEnd time.Time
}

// Config holds configuration for the LLM agent.
type Config struct {
	APIKey      string
	BaseURL     string // Optional OpenAI-compatible endpoint
	Model       string // e.g., "qwen-plus"
	Temperature float64
	MaxRounds   int           // Cap on tool-calling rounds per decision
	MinInterval time.Duration // Minimum gap between API calls, measured from the end of the previous call
	Prices      ports.PriceStore
	Logger      ports.Logger
}

// New creates a new LLM agent.
func New(cfg Config) (*Agent, error) {
	if cfg.Prices == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("%w: price store and logger are required for LLM agent", ports.ErrConfigurationError)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name is required", ports.ErrConfigurationError)
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 10
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Agent{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRounds:   cfg.MaxRounds,
		minInterval: cfg.MinInterval,
		prices:      cfg.Prices,
		logger:      cfg.Logger,
	}, nil
}

// Decide implements ports.DecisionSource.
func (a *Agent) Decide(ctx context.Context, req ports.DecisionRequest) (*domain.Decision, error) {
	session := &toolSession{prices: a.prices, req: req}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(a.model),
		Temperature: openai.Float(a.temperature),
		Tools:       toolDefinitions(req.StockPool),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(fmt.Sprintf(dailyPromptFormat,
				req.Date, req.Cash, req.MarketValue, req.TotalAsset, req.ProfitRate,
				strings.Join(req.StockPool, ", "))),
		},
	}

	for round := 0; round < a.maxRounds; round++ {
		if err := a.throttle(ctx); err != nil {
			return nil, err
		}
		resp, err := a.client.Chat.Completions.New(ctx, params)
		a.lastCallEnd = time.Now()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ports.ErrDecisionFailed, err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("%w: empty response", ports.ErrDecisionFailed)
		}

		message := resp.Choices[0].Message
		params.Messages = append(params.Messages, message.ToParam())

		if len(message.ToolCalls) == 0 {
			// No more tool calls: the model has finished its decision.
			decision := parseDecision(message.Content)
			decision.Intents = session.intents
			decision.Success = true
			return decision, nil
		}

		for _, call := range message.ToolCalls {
			result := session.execute(ctx, call.Function.Name, call.Function.Arguments)
			a.logger.Debug(ctx, "tool call", map[string]interface{}{
				"date": req.Date, "tool": call.Function.Name, "args": call.Function.Arguments,
			})
			params.Messages = append(params.Messages, openai.ToolMessage(result, call.ID))
		}
	}

	return nil, fmt.Errorf("%w: tool-calling round limit (%d) reached", ports.ErrDecisionFailed, a.maxRounds)
}

// throttle enforces the minimum inter-call interval, measured from the end
// of the previous API call.
func (a *Agent) throttle(ctx context.Context) error {
	if a.minInterval <= 0 || a.lastCallEnd.IsZero() {
		return nil
	}
	wait := a.minInterval - time.Since(a.lastCallEnd)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ports.ErrContextCanceled, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// parseDecision extracts the Analysis/Reasoning sections from the model's
// final reply, best effort. When neither marker is present the whole reply
// is kept as both, so nothing the model said is silently dropped.
func parseDecision(content string) *domain.Decision {
	d := &domain.Decision{}

	analysis, aok := extractSection(content, "Analysis:")
	reasoning, rok := extractSection(content, "Reasoning:")
	if !aok && !rok {
		d.Analysis = strings.TrimSpace(content)
		d.Reasoning = strings.TrimSpace(content)
		return d
	}
	d.Analysis = analysis
	d.Reasoning = reasoning
	return d
}

// extractSection returns the text following the marker, up to the next
// known section marker or end of text.
func extractSection(content, marker string) (string, bool) {
	idx := strings.Index(content, marker)
	if idx < 0 {
		return "", false
	}
	rest := content[idx+len(marker):]
	for _, stop := range []string{"Analysis:", "Reasoning:"} {
		if stop == marker {
			continue
		}
		if j := strings.Index(rest, stop); j >= 0 {
			rest = rest[:j]
		}
	}
	return strings.TrimSpace(rest), true
}
