package models

import "time"

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// Transaction is an append-only ledger entry for a portfolio position.
// Prices are stored in BRL; USD-quoted assets are converted on entry.
type Transaction struct {
	Seq         uint64          `badgerhold:"key" json:"id"`
	PortfolioID uint64          `json:"portfolio_id"`
	Ticker      string          `json:"ticker"`
	Type        TransactionType `json:"tx_type"`
	Shares      float64         `json:"shares"`
	Price       float64         `json:"price"`
	Date        time.Time       `json:"date"`
}

// TotalValue returns shares × unit price.
func (t *Transaction) TotalValue() float64 {
	return t.Shares * t.Price
}

// IncomeType classifies a cash income event.
type IncomeType string

const (
	IncomeDividend IncomeType = "dividend"
	IncomeJCP      IncomeType = "jcp" // juros sobre capital próprio
	IncomeRent     IncomeType = "rent"
)

// Income is an append-only cash income entry (dividends, JCP, FII rent).
type Income struct {
	Seq         uint64     `badgerhold:"key" json:"id"`
	PortfolioID uint64     `json:"portfolio_id"`
	Ticker      string     `json:"ticker"`
	Type        IncomeType `json:"income_type"`
	Amount      float64    `json:"amount"`
	Date        time.Time  `json:"date"`
}
