package domain

// Transaction is an immutable record of one executed trade. It is only ever
// created after a successful portfolio mutation and never for a rejected
// intent. The JSON field names are part of the report serialization contract.
type Transaction struct {
	Date       string  `json:"date"`       // Trading date, YYYY-MM-DD
	Side       Side    `json:"type"`       // buy or sell
	Symbol     string  `json:"symbol"`     // Exchange code
	Quantity   int64   `json:"quantity"`   // Traded shares
	Price      float64 `json:"price"`      // Execution price (official close of Date)
	Commission float64 `json:"commission"` // Broker commission
	StampTax   float64 `json:"stamp_tax"`  // Stamp tax, zero on buys
	Total      float64 `json:"total"`      // Cash outflow on buy, inflow on sell
}
