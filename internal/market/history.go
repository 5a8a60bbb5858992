package market

import (
	"context"
	"fmt"
	"time"

	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/models"
)

// historyConfig maps a chart range key to the provider (range, interval)
// pair and the label layout for that granularity.
type historyConfig struct {
	rangeParam string
	interval   string
	labelFmt   string
}

var historyConfigs = map[string]historyConfig{
	"1d":  {"5d", "30m", "15:04"},
	"7d":  {"10d", "1h", "02/01"},
	"30d": {"1mo", "1d", "02/01"},
	"6m":  {"6mo", "1d", "02/01"},
	"1y":  {"1y", "1d", "02/01/06"},
	"5y":  {"5y", "1wk", "02/01/06"},
}

// normalizeRangeKey falls back to 1y for unknown keys.
func normalizeRangeKey(rangeKey string) (string, historyConfig) {
	if cfg, ok := historyConfigs[rangeKey]; ok {
		return rangeKey, cfg
	}
	return "1y", historyConfigs["1y"]
}

type chartPoint struct {
	at    time.Time
	close float64
}

// fetchChartPoints retrieves the (timestamp, close) points of a v8 chart for
// one symbol. Null closes are skipped.
func (c *Client) fetchChartPoints(ctx context.Context, symbol, rangeParam, interval string) []chartPoint {
	var payload struct {
		Chart struct {
			Result []struct {
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Close []*float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
		} `json:"chart"`
	}
	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s", c.baseURL, symbol, rangeParam, interval)
	if err := c.getJSON(ctx, url, &payload); err != nil {
		c.logger.Debug().Str("symbol", symbol).Err(err).Msg("chart fetch failed")
		return nil
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil
	}
	result := payload.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	points := make([]chartPoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, chartPoint{at: time.Unix(ts, 0), close: *closes[i]})
	}
	return points
}

// lastCloses returns the close series of a short daily chart.
func (c *Client) lastCloses(ctx context.Context, symbol, rangeParam string) []float64 {
	points := c.fetchChartPoints(ctx, symbol, rangeParam, "1d")
	closes := make([]float64, 0, len(points))
	for _, p := range points {
		closes = append(closes, p.close)
	}
	return closes
}

// LastClose returns the most recent daily close of a raw provider symbol.
// Used by the fx cache as the final fallback for the FX pair symbols.
func (c *Client) LastClose(ctx context.Context, symbol string) (float64, bool) {
	closes := c.lastCloses(ctx, symbol, "5d")
	if len(closes) == 0 {
		return 0, false
	}
	last := closes[len(closes)-1]
	if last <= 0 {
		return 0, false
	}
	return last, true
}

// historyVariations computes the 7-day and 30-day variation percentages from
// a daily close series: the observations 8 and 31 entries back against the
// latest close (or the live price when available). Trading observations, not
// calendar days; holiday gaps are deliberately not compensated.
func historyVariations(closes []float64, currentPrice *float64) (var7d, var30d *float64) {
	if len(closes) == 0 {
		return nil, nil
	}
	last := closes[len(closes)-1]
	if currentPrice != nil && *currentPrice != 0 {
		last = *currentPrice
	}
	if last == 0 {
		return nil, nil
	}
	if len(closes) >= 8 {
		if base := closes[len(closes)-8]; base != 0 {
			v := (last/base - 1) * 100
			var7d = &v
		}
	}
	if len(closes) >= 31 {
		if base := closes[len(closes)-31]; base != 0 {
			v := (last/base - 1) * 100
			var30d = &v
		}
	}
	return var7d, var30d
}

// FetchPriceHistory returns a chart-ready close series for a ticker over one
// of the supported range keys. USD-quoted tickers are converted to BRL when
// a rate is available. On total provider failure the series is empty.
func (c *Client) FetchPriceHistory(ctx context.Context, ticker, rangeKey string) (*models.PriceHistory, error) {
	key, cfg := normalizeRangeKey(rangeKey)
	result := &models.PriceHistory{RangeKey: key, Labels: []string{}, Prices: []float64{}}

	var usdbrl float64
	if rate, ok := c.usdBrl(ctx, ticker); ok {
		usdbrl = rate
	}

	for _, symbol := range CandidateSymbols(ticker) {
		points := c.fetchChartPoints(ctx, symbol, cfg.rangeParam, cfg.interval)
		if len(points) == 0 {
			continue
		}

		labels := make([]string, 0, len(points))
		prices := make([]float64, 0, len(points))
		for _, p := range points {
			price := p.close
			if usdbrl > 0 {
				price *= usdbrl
			}
			prices = append(prices, common.Round2(price))
			labels = append(labels, p.at.Format(cfg.labelFmt))
		}

		result.Labels = labels
		result.Prices = prices
		if first := prices[0]; first != 0 {
			change := (prices[len(prices)-1]/first - 1) * 100
			result.ChangePct = &change
		}
		return result, nil
	}

	return result, nil
}
