// Package models holds the domain types shared across Carteira services.
package models

// Asset is a tracked instrument (equity, FII, crypto pair or US stock).
// Assets are created on first-seen transactions and mutated only by market
// data refreshes; they are never deleted.
type Asset struct {
	Ticker        string  `badgerhold:"key" json:"ticker"`
	Name          string  `json:"name"`
	Sector        string  `json:"sector"`
	Price         float64 `json:"price"`
	DividendYield float64 `json:"dy"`
	PriceEarnings float64 `json:"pl"`
	PriceToBook   float64 `json:"pvp"`
	VariationDay  float64 `json:"variation_day"`
	Variation7d   float64 `json:"variation_7d"`
	Variation30d  float64 `json:"variation_30d"`
	MarketCapB    float64 `json:"market_cap_bi"`
}

// SectorUnknown is the placeholder sector for assets the provider could not
// classify.
const SectorUnknown = "Nao informado"
