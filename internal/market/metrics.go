package market

import (
	"context"

	"github.com/carteiralab/carteira/internal/models"
)

// summaryMetrics maps the quoteSummary modules into metrics. Returns nil
// unless at least one of price, P/E, P/B or dividend yield came back.
func summaryMetrics(summary map[string]interface{}) *models.QuoteMetrics {
	if summary == nil {
		return nil
	}
	priceMod := sub(summary, "price")
	detail := sub(summary, "summaryDetail")
	stats := sub(summary, "defaultKeyStatistics")
	if priceMod == nil && detail == nil && stats == nil {
		return nil
	}

	price := firstNum(num(priceMod["regularMarketPrice"]), num(priceMod["postMarketPrice"]))
	prevClose := firstNum(num(priceMod["regularMarketPreviousClose"]), num(detail["previousClose"]))
	pl := firstNum(num(detail["trailingPE"]), num(stats["forwardPE"]))
	pvp := num(stats["priceToBook"])
	cap := firstNum(num(priceMod["marketCap"]), num(detail["marketCap"]))
	dy := normalizeDY(firstNum(num(detail["dividendYield"]), num(detail["trailingAnnualDividendYield"])))

	var variation *float64
	if price != nil && prevClose != nil && *prevClose != 0 {
		v := (*price / *prevClose - 1) * 100
		variation = &v
	} else if raw := num(priceMod["regularMarketChangePercent"]); raw != nil {
		// quoteSummary reports the change as a fraction.
		v := *raw
		if v >= -1 && v <= 1 {
			v *= 100
		}
		variation = &v
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
		Source:        "summary",
	}
	if cap != nil {
		capB := *cap / 1_000_000_000
		m.MarketCapB = &capB
	}
	return m
}

// toBRL converts the USD-denominated monetary fields of metrics in place
// when the ticker is USD-quoted and a rate is available.
func (c *Client) toBRL(ctx context.Context, ticker string, m *models.QuoteMetrics) *models.QuoteMetrics {
	if m == nil {
		return nil
	}
	rate, ok := c.usdBrl(ctx, ticker)
	if !ok {
		return m
	}
	if m.Price != nil {
		v := *m.Price * rate
		m.Price = &v
	}
	if m.MarketCapB != nil {
		v := *m.MarketCapB * rate
		m.MarketCapB = &v
	}
	return m
}

// FetchMetrics fetches market metrics for a ticker, trying each candidate
// symbol against an ordered list of sources: the quoteSummary modules, the
// v7 quote endpoint, then the most recent daily close as a last resort. The
// first source yielding at least one of price, P/E, P/B or dividend yield
// wins. Returns (nil, nil) on total provider failure.
func (c *Client) FetchMetrics(ctx context.Context, ticker string) (*models.QuoteMetrics, error) {
	for _, symbol := range CandidateSymbols(ticker) {
		summary := c.fetchQuoteSummary(ctx, symbol)

		if m := summaryMetrics(summary); m != nil {
			closes := c.lastCloses(ctx, symbol, "3mo")
			m.Variation7d, m.Variation30d = historyVariations(closes, m.Price)
			c.logger.Debug().Str("ticker", ticker).Str("symbol", symbol).Str("source", m.Source).Msg("metrics fetched")
			return c.toBRL(ctx, ticker, m), nil
		}

		if m := metricsFromQuote(c.fetchQuote(ctx, symbol)); m != nil {
			c.logger.Debug().Str("ticker", ticker).Str("symbol", symbol).Str("source", m.Source).Msg("metrics fetched")
			return c.toBRL(ctx, ticker, m), nil
		}

		// Some symbols return nothing on the quote endpoints but still
		// carry history.
		closes := c.lastCloses(ctx, symbol, "5d")
		if len(closes) > 0 && closes[len(closes)-1] != 0 {
			price := closes[len(closes)-1]
			m := &models.QuoteMetrics{Price: &price, Source: "chart"}
			m.Variation7d, m.Variation30d = historyVariations(closes, &price)
			c.logger.Debug().Str("ticker", ticker).Str("symbol", symbol).Str("source", m.Source).Msg("metrics fetched")
			return c.toBRL(ctx, ticker, m), nil
		}
	}

	c.logger.Debug().Str("ticker", ticker).Msg("no metrics from any source")
	return nil, nil
}
