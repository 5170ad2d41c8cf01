package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"

	"stocksim/internal/domain"
	"stocksim/internal/indicators"
	"stocksim/internal/ports"
)

const (
	toolGetStockHistory  = "get_stock_history"
	toolGetIndicators    = "get_technical_indicators"
	toolGetPortfolio     = "get_portfolio"
	toolBuyStock         = "buy_stock"
	toolSellStock        = "sell_stock"
	historyToolMaxReturn = 10
)

// toolDefinitions builds the function-tool schemas offered to the model.
// Buy/sell tool calls do not execute trades; they record intents that the
// execution engine validates after the decision completes.
func toolDefinitions(stockPool []string) []openai.ChatCompletionToolUnionParam {
	pool := make([]interface{}, len(stockPool))
	for i, s := range stockPool {
		pool[i] = s
	}

	symbolProp := map[string]interface{}{
		"type":        "string",
		"description": "Stock exchange code",
		"enum":        pool,
	}

	return []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        toolGetStockHistory,
			Description: openai.String("Get recent daily OHLCV bars for a stock, up to the current simulation date"),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"symbol": symbolProp,
					"days": map[string]interface{}{
						"type":        "integer",
						"description": "Number of recent trading days, default 30",
					},
				},
				"required": []string{"symbol"},
			},
		}),
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        toolGetIndicators,
			Description: openai.String("Get technical indicators (MA5/10/20, MACD, RSI) for a stock as of the current simulation date"),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"symbol": symbolProp,
				},
				"required": []string{"symbol"},
			},
		}),
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        toolGetPortfolio,
			Description: openai.String("Get the current cash balance and open positions"),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		}),
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        toolBuyStock,
			Description: openai.String("Buy shares. Quantity must be a positive multiple of 100. Requires sufficient cash including commission."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"symbol": symbolProp,
					"quantity": map[string]interface{}{
						"type":        "integer",
						"description": "Shares to buy, multiple of 100",
						"minimum":     100,
					},
				},
				"required": []string{"symbol", "quantity"},
			},
		}),
		openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        toolSellStock,
			Description: openai.String("Sell held shares. Shares bought today cannot be sold (T+1)."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]interface{}{
					"symbol": symbolProp,
					"quantity": map[string]interface{}{
						"type":        "integer",
						"description": "Shares to sell",
						"minimum":     100,
					},
				},
				"required": []string{"symbol", "quantity"},
			},
		}),
	}
}

// toolSession accumulates the intents recorded by buy/sell tool calls over
// one decision's tool rounds.
type toolSession struct {
	prices  ports.PriceStore
	req     ports.DecisionRequest
	intents []domain.Intent
}

type toolArgs struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
	Days     int    `json:"days"`
}

// execute runs one tool call and returns its JSON result. Errors are
// reported inside the JSON payload so the model can react to them; only the
// encoding itself can fail.
func (t *toolSession) execute(ctx context.Context, name, rawArgs string) string {
	var args toolArgs
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return errJSON(fmt.Sprintf("invalid tool arguments: %v", err))
		}
	}

	switch name {
	case toolGetStockHistory:
		return t.stockHistory(ctx, args)
	case toolGetIndicators:
		return t.technicalIndicators(ctx, args)
	case toolGetPortfolio:
		return t.portfolio()
	case toolBuyStock:
		return t.recordIntent(domain.Buy, args)
	case toolSellStock:
		return t.recordIntent(domain.Sell, args)
	default:
		return errJSON(fmt.Sprintf("unknown tool %q", name))
	}
}

func (t *toolSession) stockHistory(ctx context.Context, args toolArgs) string {
	days := args.Days
	if days <= 0 {
		days = 30
	}
	bars, err := t.prices.GetHistory(ctx, args.Symbol, t.req.Date, days)
	if err != nil || len(bars) == 0 {
		return errJSON(fmt.Sprintf("no history for %s", args.Symbol))
	}

	recent := bars
	if len(recent) > historyToolMaxReturn {
		recent = recent[len(recent)-historyToolMaxReturn:]
	}
	type dayRow struct {
		Date      string  `json:"date"`
		Open      float64 `json:"open"`
		High      float64 `json:"high"`
		Low       float64 `json:"low"`
		Close     float64 `json:"close"`
		Volume    float64 `json:"volume"`
		PctChange float64 `json:"pct_change"`
	}
	rows := make([]dayRow, 0, len(recent))
	for _, b := range recent {
		rows = append(rows, dayRow{b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, b.PctChange})
	}
	return marshalJSON(map[string]interface{}{
		"symbol":      args.Symbol,
		"data_points": len(bars),
		"recent_days": rows,
	})
}

func (t *toolSession) technicalIndicators(ctx context.Context, args toolArgs) string {
	bars, err := t.prices.GetHistory(ctx, args.Symbol, t.req.Date, 60)
	if err != nil || len(bars) == 0 {
		return errJSON(fmt.Sprintf("no data to compute indicators for %s", args.Symbol))
	}
	snap, err := indicators.BuildSnapshot(bars)
	if err != nil {
		return errJSON(err.Error())
	}
	return marshalJSON(snap)
}

func (t *toolSession) portfolio() string {
	return marshalJSON(map[string]interface{}{
		"date":         t.req.Date,
		"cash":         t.req.Cash,
		"market_value": t.req.MarketValue,
		"total_asset":  t.req.TotalAsset,
		"profit_rate":  t.req.ProfitRate,
		"positions":    t.req.Positions,
	})
}

// recordIntent validates the obvious (pool membership, positive quantity)
// and records the intent. Full validation against funds, holdings, and T+1
// happens in the execution engine after the decision is returned.
func (t *toolSession) recordIntent(side domain.Side, args toolArgs) string {
	if !t.inPool(args.Symbol) {
		return errJSON(fmt.Sprintf("%s is not in the tradable stock pool", args.Symbol))
	}
	if args.Quantity <= 0 {
		return errJSON("quantity must be positive")
	}
	t.intents = append(t.intents, domain.Intent{Side: side, Symbol: args.Symbol, Quantity: args.Quantity})
	return marshalJSON(map[string]interface{}{
		"action":   string(side),
		"symbol":   args.Symbol,
		"quantity": args.Quantity,
		"status":   "queued for execution at today's close",
	})
}

func (t *toolSession) inPool(symbol string) bool {
	for _, s := range t.req.StockPool {
		if s == symbol {
			return true
		}
	}
	return false
}

func marshalJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return errJSON(err.Error())
	}
	return string(b)
}

func errJSON(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
