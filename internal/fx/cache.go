// Package fx caches the USD/BRL exchange rate behind an ordered chain of
// providers.
package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cast"

	"github.com/carteiralab/carteira/internal/common"
)

// QuoteSource supplies FX pair prices from the quote provider. Implemented
// by the market client.
type QuoteSource interface {
	QuotePrice(ctx context.Context, symbol string) (float64, bool)
	LastClose(ctx context.Context, symbol string) (float64, bool)
}

// fxSymbols are the provider symbols tried for the USD/BRL pair, in order.
var fxSymbols = []string{"BRL=X", "USDBRL=X"}

// Cache resolves and caches the USD/BRL rate. On total provider failure the
// last known value is returned, possibly expired, so batch refreshes degrade
// instead of failing wholesale.
type Cache struct {
	mu        sync.RWMutex
	rate      float64
	expiresAt time.Time

	quotes     QuoteSource
	httpClient *http.Client
	cfg        *common.FXConfig
	logger     *common.Logger
	now        func() time.Time
}

// NewCache creates an FX cache using the given quote source and fallback
// endpoints.
func NewCache(cfg *common.FXConfig, quotes QuoteSource, logger *common.Logger) *Cache {
	return &Cache{
		quotes:     quotes,
		httpClient: &http.Client{Timeout: cfg.GetTimeout()},
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Rate returns the USD/BRL rate. ok is false only when no provider ever
// responded; callers must treat that as "cannot convert", never as zero.
func (c *Cache) Rate(ctx context.Context) (float64, bool) {
	c.mu.RLock()
	rate, expiresAt := c.rate, c.expiresAt
	c.mu.RUnlock()

	now := c.now()
	if rate > 0 && now.Before(expiresAt) {
		return rate, true
	}

	if fresh, ok := c.resolve(ctx); ok {
		c.mu.Lock()
		c.rate = fresh
		c.expiresAt = now.Add(common.FreshnessFXRate)
		c.mu.Unlock()
		return fresh, true
	}

	// Every provider failed; fall back to the last known value.
	if rate > 0 {
		c.logger.Warn().Float64("rate", rate).Msg("all FX providers failed, reusing stale rate")
		return rate, true
	}
	return 0, false
}

// resolve queries the provider chain in strict order until one yields a
// positive rate.
func (c *Cache) resolve(ctx context.Context) (float64, bool) {
	for _, symbol := range fxSymbols {
		if rate, ok := c.quotes.QuotePrice(ctx, symbol); ok {
			c.logger.Debug().Str("source", "quote").Str("symbol", symbol).Float64("rate", rate).Msg("FX rate resolved")
			return rate, true
		}
	}

	if rate, ok := c.fetchAwesomeAPI(ctx); ok {
		c.logger.Debug().Str("source", "awesomeapi").Float64("rate", rate).Msg("FX rate resolved")
		return rate, true
	}

	if rate, ok := c.fetchERAPI(ctx); ok {
		c.logger.Debug().Str("source", "er-api").Float64("rate", rate).Msg("FX rate resolved")
		return rate, true
	}

	for _, symbol := range fxSymbols {
		if rate, ok := c.quotes.LastClose(ctx, symbol); ok {
			c.logger.Debug().Str("source", "chart").Str("symbol", symbol).Float64("rate", rate).Msg("FX rate resolved")
			return rate, true
		}
	}

	return 0, false
}

// fetchAwesomeAPI reads the bid price from the AwesomeAPI last-quote
// endpoint.
func (c *Cache) fetchAwesomeAPI(ctx context.Context) (float64, bool) {
	var payload map[string]struct {
		Bid string `json:"bid"`
	}
	if err := c.getJSON(ctx, c.cfg.AwesomeAPIURL, &payload); err != nil {
		c.logger.Debug().Err(err).Msg("awesomeapi fetch failed")
		return 0, false
	}
	rate, err := cast.ToFloat64E(payload["USDBRL"].Bid)
	if err != nil || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// fetchERAPI reads the BRL rate from the open.er-api.com latest-USD
// endpoint.
func (c *Cache) fetchERAPI(ctx context.Context) (float64, bool) {
	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.getJSON(ctx, c.cfg.ERAPIURL, &payload); err != nil {
		c.logger.Debug().Err(err).Msg("er-api fetch failed")
		return 0, false
	}
	rate := payload.Rates["BRL"]
	if rate <= 0 {
		return 0, false
	}
	return rate, true
}

func (c *Cache) getJSON(ctx context.Context, url string, out interface{}) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
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
