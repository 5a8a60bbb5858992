// Package sync refreshes stored assets from the market data provider, both
// on a fixed schedule and on demand.
package sync

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/interfaces"
)

const (
	// jitter between tickers inside a round, to stay under provider rate
	// limits during batch refreshes.
	jitterBase = 120 * time.Millisecond
	jitterSpan = 120 * time.Millisecond

	// linear backoff between rounds.
	roundBackoff = 500 * time.Millisecond
)

// Orchestrator refreshes asset records from the quote provider. Provider
// failures never escape; they only mark tickers as still failing.
type Orchestrator struct {
	assets   interfaces.AssetStore
	provider interfaces.QuoteProvider
	logger   *common.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewOrchestrator creates a refresh orchestrator.
func NewOrchestrator(assets interfaces.AssetStore, provider interfaces.QuoteProvider, logger *common.Logger) *Orchestrator {
	return &Orchestrator{
		assets:   assets,
		provider: provider,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// RefreshOne refreshes a single tracked asset. The provider profile always
// wins over the stored name/sector when non-empty; metric fields are written
// only when the provider returned a value, keeping the stored value
// otherwise. Success means at least one market metric was received; a
// profile-only update does not count.
func (o *Orchestrator) RefreshOne(ctx context.Context, ticker string) (bool, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	asset, err := o.assets.Get(ctx, ticker)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, err
	}

	profile, _ := o.provider.FetchProfile(ctx, ticker)
	metrics, _ := o.provider.FetchMetrics(ctx, ticker)
	if profile.Empty() && metrics == nil {
		return false, nil
	}

	if !profile.Empty() {
		if profile.Name != "" {
			asset.Name = profile.Name
		}
		if profile.Sector != "" {
			asset.Sector = profile.Sector
		}
	}
	if metrics != nil {
		if metrics.Price != nil {
			asset.Price = *metrics.Price
		}
		if metrics.DividendYield != nil {
			asset.DividendYield = *metrics.DividendYield
		}
		if metrics.PriceEarnings != nil {
			asset.PriceEarnings = *metrics.PriceEarnings
		}
		if metrics.PriceToBook != nil {
			asset.PriceToBook = *metrics.PriceToBook
		}
		if metrics.VariationDay != nil {
			asset.VariationDay = *metrics.VariationDay
		}
		if metrics.Variation7d != nil {
			asset.Variation7d = *metrics.Variation7d
		}
		if metrics.Variation30d != nil {
			asset.Variation30d = *metrics.Variation30d
		}
		if metrics.MarketCapB != nil {
			asset.MarketCapB = *metrics.MarketCapB
		}
	}

	if err := o.assets.Upsert(ctx, asset); err != nil {
		return false, err
	}
	return metrics.HasMarketData(), nil
}

// refreshOneSafe absorbs panics from provider code so a single bad ticker
// cannot take down a batch.
func (o *Orchestrator) refreshOneSafe(ctx context.Context, ticker string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn().Str("ticker", ticker).Msgf("refresh panicked: %v", r)
			ok = false
		}
	}()
	ok, err := o.RefreshOne(ctx, ticker)
	if err != nil {
		o.logger.Warn().Str("ticker", ticker).Err(err).Msg("refresh failed")
		return false
	}
	return ok
}

// RefreshMany refreshes a set of tickers in up to attempts rounds. Each
// round retries every still-failing ticker once, with per-ticker jitter and
// a linearly growing delay between rounds. Returns the sorted tickers still
// failing after the final round.
func (o *Orchestrator) RefreshMany(ctx context.Context, tickers []string, attempts int) []string {
	var unique []string
	seen := make(map[string]bool)
	for _, t := range tickers {
		clean := strings.ToUpper(strings.TrimSpace(t))
		if clean != "" && !seen[clean] {
			unique = append(unique, clean)
			seen[clean] = true
		}
	}
	if len(unique) == 0 {
		return nil
	}

	failed := make(map[string]bool, len(unique))
	for _, t := range unique {
		failed[t] = true
	}

	for round := 0; round < attempts && len(failed) > 0; round++ {
		for _, ticker := range unique {
			if !failed[ticker] {
				continue
			}
			if ctx.Err() != nil {
				break
			}
			if o.refreshOneSafe(ctx, ticker) {
				delete(failed, ticker)
			}
			o.sleep(jitterBase + time.Duration(rand.Int63n(int64(jitterSpan))))
		}
		if len(failed) > 0 && round < attempts-1 {
			o.sleep(roundBackoff * time.Duration(round+1))
		}
	}

	result := make([]string, 0, len(failed))
	for ticker := range failed {
		result = append(result, ticker)
	}
	sort.Strings(result)
	return result
}

// RefreshAll refreshes every stored asset.
func (o *Orchestrator) RefreshAll(ctx context.Context, attempts int) ([]string, error) {
	tickers, err := o.assets.Tickers(ctx)
	if err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		return nil, nil
	}
	return o.RefreshMany(ctx, tickers, attempts), nil
}
