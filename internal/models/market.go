package models

// QuoteMetrics carries the market metrics a provider returned for a ticker.
// Nil fields mean the provider had no value; the refresh orchestrator keeps
// the previously stored value for those.
type QuoteMetrics struct {
	Price         *float64 `json:"price"`
	PriceEarnings *float64 `json:"pl"`
	PriceToBook   *float64 `json:"pvp"`
	DividendYield *float64 `json:"dy"`
	VariationDay  *float64 `json:"variation_day"`
	Variation7d   *float64 `json:"variation_7d"`
	Variation30d  *float64 `json:"variation_30d"`
	MarketCapB    *float64 `json:"market_cap_bi"`

	// Source records which provider strategy produced the metrics.
	Source string `json:"-"`
}

// HasMarketData reports whether at least one market metric was received.
// A profile-only update (name/sector) does not count as a successful sync.
func (m *QuoteMetrics) HasMarketData() bool {
	if m == nil {
		return false
	}
	for _, v := range []*float64{
		m.Price, m.DividendYield, m.PriceEarnings, m.PriceToBook,
		m.VariationDay, m.Variation7d, m.Variation30d, m.MarketCapB,
	} {
		if v != nil {
			return true
		}
	}
	return false
}

// AssetProfile is the issuer name and sector for a ticker. Profiles are
// never currency-converted.
type AssetProfile struct {
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

// Empty reports whether the provider returned neither name nor sector.
func (p *AssetProfile) Empty() bool {
	return p == nil || (p.Name == "" && p.Sector == "")
}

// PriceHistory is a chart-ready close-price series for one ticker.
type PriceHistory struct {
	RangeKey  string    `json:"range_key"`
	Labels    []string  `json:"labels"`
	Prices    []float64 `json:"prices"`
	ChangePct *float64  `json:"change_pct"`
}
