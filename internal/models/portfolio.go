package models

// Portfolio groups ledger entries under a user-chosen name. At least one
// portfolio always exists; the last one cannot be deleted, nor can one that
// still owns transactions or incomes.
type Portfolio struct {
	Seq  uint64 `badgerhold:"key" json:"id"`
	Name string `json:"name"`
}

// Category buckets a position for allocation and monthly summaries.
type Category string

const (
	CategoryBRStocks Category = "br_stocks"
	CategoryUSStocks Category = "us_stocks"
	CategoryCrypto   Category = "crypto"
	CategoryFIIs     Category = "fiis"
)

// Categories lists all buckets in display order.
var Categories = []Category{CategoryBRStocks, CategoryUSStocks, CategoryCrypto, CategoryFIIs}

// PositionSummary is the replayed state of one ticker across the selected
// portfolios: moving weighted-average cost basis plus market valuation.
type PositionSummary struct {
	Shares       float64 `json:"shares"`
	AvgPrice     float64 `json:"avg_price"`
	TotalValue   float64 `json:"total_value"`
	MarketValue  float64 `json:"market_value"`
	OpenPnLValue float64 `json:"open_pnl_value"`
	OpenPnLPct   float64 `json:"open_pnl_pct"`
	TotalIncomes float64 `json:"total_incomes"`
}

// Position is one row of a portfolio snapshot.
type Position struct {
	Ticker        string   `json:"ticker"`
	Name          string   `json:"name"`
	Sector        string   `json:"sector"`
	Shares        float64  `json:"shares"`
	Price         float64  `json:"price"`
	Value         float64  `json:"value"`
	InvestedValue float64  `json:"invested_value"`
	AvgPrice      float64  `json:"avg_price"`
	OpenPnLValue  float64  `json:"open_pnl_value"`
	OpenPnLPct    float64  `json:"open_pnl_pct"`
	TotalIncomes  float64  `json:"total_incomes"`
	Weight        float64  `json:"weight"`
	Category      Category `json:"category"`
}

// GroupSummary aggregates one category bucket inside a snapshot.
type GroupSummary struct {
	TotalValue    float64 `json:"total_value"`
	InvestedValue float64 `json:"invested_value"`
	OpenPnLValue  float64 `json:"open_pnl_value"`
	OpenPnLPct    float64 `json:"open_pnl_pct"`
	TotalIncomes  float64 `json:"total_incomes"`
}

// Snapshot is the full portfolio view: open positions grouped by category
// with per-group and whole-portfolio totals. It is produced on demand from
// the ledgers and never written back to storage.
type Snapshot struct {
	TotalValue       float64                   `json:"total_value"`
	InvestedValue    float64                   `json:"invested_value"`
	MonthlyDividends float64                   `json:"monthly_dividends"`
	TotalIncomes     float64                   `json:"total_incomes"`
	OpenPnLValue     float64                   `json:"open_pnl_value"`
	OpenPnLPct       float64                   `json:"open_pnl_pct"`
	Positions        []*Position               `json:"positions"`
	Grouped          map[Category][]*Position  `json:"grouped_positions"`
	GroupTotals      map[Category]float64      `json:"group_totals"`
	GroupSummaries   map[Category]GroupSummary `json:"group_summaries"`
	SortBy           string                    `json:"sort_by"`
	SortDir          string                    `json:"sort_dir"`
}

// MonthlyRow is one (year, month) bucket of invested amounts and incomes per
// category, used for charting. US equities are excluded from this view.
type MonthlyRow struct {
	Label           string  `json:"label"`
	BRInvested      float64 `json:"br_invested"`
	BRIncomes       float64 `json:"br_incomes"`
	FIIInvested     float64 `json:"fii_invested"`
	FIIIncomes      float64 `json:"fii_incomes"`
	FixedInvested   float64 `json:"fixa_invested"`
	FixedIncomes    float64 `json:"fixa_incomes"`
	CryptoInvested  float64 `json:"cripto_invested"`
	CryptoIncomes   float64 `json:"cripto_incomes"`
	TotalInvested   float64 `json:"total_invested"`
	TotalIncomes    float64 `json:"total_incomes"`
}

// SectorSummary aggregates tracked assets by sector.
type SectorSummary struct {
	Sector      string  `json:"sector"`
	AssetsCount int     `json:"assets_count"`
	AvgDY       float64 `json:"avg_dy"`
	MarketCapB  float64 `json:"market_cap_bi"`
}
