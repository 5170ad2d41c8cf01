package domain

// Intent is an unvalidated trade request produced by a decision source.
// The execution engine checks it against the portfolio and the price store
// before anything is applied.
type Intent struct {
	Side     Side   `json:"side"`
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

// Decision is the outcome of one day's decision pass. A failed decision
// (Success=false) carries zero intents and only its reasoning text; the
// simulation treats it as "no trades today" and continues.
type Decision struct {
	Intents   []Intent `json:"intents"`
	Analysis  string   `json:"analysis"`
	Reasoning string   `json:"reasoning"`
	Success   bool     `json:"success"`
}
