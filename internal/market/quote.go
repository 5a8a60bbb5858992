package market

import (
	"context"
	"fmt"

	"github.com/carteiralab/carteira/internal/models"
)

// fetchQuote retrieves the v7 quote object for one symbol. Returns nil when
// the provider has nothing for it.
func (c *Client) fetchQuote(ctx context.Context, symbol string) map[string]interface{} {
	var payload struct {
		QuoteResponse struct {
			Result []map[string]interface{} `json:"result"`
		} `json:"quoteResponse"`
	}
	url := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, symbol)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		c.logger.Debug().Str("symbol", symbol).Err(err).Msg("quote fetch failed")
		return nil
	}
	if len(payload.QuoteResponse.Result) == 0 {
		return nil
	}
	return payload.QuoteResponse.Result[0]
}

// fetchQuoteSummary retrieves the v10 quoteSummary modules for one symbol.
func (c *Client) fetchQuoteSummary(ctx context.Context, symbol string) map[string]interface{} {
	var payload struct {
		QuoteSummary struct {
			Result []map[string]interface{} `json:"result"`
		} `json:"quoteSummary"`
	}
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile,summaryDetail,defaultKeyStatistics,price",
		c.baseURL, symbol)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		c.logger.Debug().Str("symbol", symbol).Err(err).Msg("quoteSummary fetch failed")
		return nil
	}
	if len(payload.QuoteSummary.Result) == 0 {
		return nil
	}
	return payload.QuoteSummary.Result[0]
}

// QuotePrice returns the current price of a raw provider symbol from the v7
// quote endpoint. Used by the fx cache for the FX pair symbols.
func (c *Client) QuotePrice(ctx context.Context, symbol string) (float64, bool) {
	quote := c.fetchQuote(ctx, symbol)
	if quote == nil {
		return 0, false
	}
	price := firstNum(num(quote["regularMarketPrice"]), num(quote["postMarketPrice"]))
	if price == nil || *price <= 0 {
		return 0, false
	}
	return *price, true
}

// normalizeDY converts a dividend yield that may be a fraction into a
// percentage. Raw ratios at or below 1.5 are treated as fractions.
func normalizeDY(raw *float64) *float64 {
	if raw == nil {
		return nil
	}
	v := *raw
	if v <= 1.5 {
		v *= 100
	}
	return &v
}

// metricsFromQuote maps a v7 quote object into metrics. Returns nil unless
// at least one of price, P/E, P/B or dividend yield came back.
func metricsFromQuote(quote map[string]interface{}) *models.QuoteMetrics {
	if quote == nil {
		return nil
	}

	price := firstNum(num(quote["regularMarketPrice"]), num(quote["postMarketPrice"]))
	prevClose := num(quote["regularMarketPreviousClose"])
	changePct := num(quote["regularMarketChangePercent"])
	pl := firstNum(num(quote["trailingPE"]), num(quote["forwardPE"]))
	pvp := num(quote["priceToBook"])
	cap := num(quote["marketCap"])
	dy := normalizeDY(firstNum(num(quote["trailingAnnualDividendYield"]), num(quote["dividendYield"])))

	var variation *float64
	if price != nil && prevClose != nil && *prevClose != 0 {
		v := (*price / *prevClose - 1) * 100
		variation = &v
	} else if changePct != nil {
		variation = changePct
	}

	if price == nil && pl == nil && pvp == nil && dy == nil {
		return nil
	}

	m := &models.QuoteMetrics{
		Price:         price,
		PriceEarnings: pl,
		PriceToBook:   pvp,
		DividendYield: dy,
		VariationDay:  variation,
		Source:        "quote",
	}
	if cap != nil {
		capB := *cap / 1_000_000_000
		m.MarketCapB = &capB
	}
	return m
}
