// Package market adapts the Yahoo Finance public endpoints into the
// QuoteProvider contract. Provider failures are routine here: every fetch
// degrades to "no data" instead of propagating transport errors.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cast"

	"github.com/carteiralab/carteira/internal/common"
)

// UsdBrlRater supplies the USD/BRL conversion rate. Implemented by the fx
// cache; nil means conversion is unavailable and USD values pass through.
type UsdBrlRater interface {
	Rate(ctx context.Context) (float64, bool)
}

// Client fetches quotes, profiles and price history from Yahoo Finance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *common.Logger
	rater      UsdBrlRater
}

// NewClient creates a market data client from configuration.
func NewClient(cfg *common.YahooConfig, logger *common.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.GetTimeout()},
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
}

// SetRater wires the USD/BRL rate source. Set after construction because the
// fx cache itself quotes through this client.
func (c *Client) SetRater(rater UsdBrlRater) {
	c.rater = rater
}

// getJSON fetches a URL and decodes the JSON body into out. Transient
// failures (transport errors, non-200, empty or malformed bodies) are
// retried up to twice with a short constant delay.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("provider returned %d", resp.StatusCode)
		}
		if len(body) == 0 {
			return fmt.Errorf("provider returned empty body")
		}
		return json.Unmarshal(body, out)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(150*time.Millisecond), 2), ctx)
	return backoff.Retry(operation, policy)
}

// usdBrl returns the conversion rate when the ticker is USD-quoted and a
// rate source is wired and responding.
func (c *Client) usdBrl(ctx context.Context, ticker string) (float64, bool) {
	if !IsUSDQuoted(ticker) || c.rater == nil {
		return 0, false
	}
	return c.rater.Rate(ctx)
}

// num extracts an optional float from a provider JSON value. Yahoo wraps
// some numbers as {"raw": x, "fmt": "..."}; both layouts are accepted.
func num(v interface{}) *float64 {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]interface{}); ok {
		v = m["raw"]
		if v == nil {
			return nil
		}
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}

// str extracts an optional string from a provider JSON value.
func str(v interface{}) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

// sub returns a nested object field, or nil.
func sub(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	child, _ := m[key].(map[string]interface{})
	return child
}

// firstNum returns the first non-nil numeric among candidates.
func firstNum(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
