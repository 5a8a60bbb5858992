package interfaces

import (
	"context"
	"time"

	"github.com/carteiralab/carteira/internal/models"
)

// QuoteProvider fetches market data for one ticker from an external source.
type QuoteProvider interface {
	FetchMetrics(ctx context.Context, ticker string) (*models.QuoteMetrics, error)
	FetchProfile(ctx context.Context, ticker string) (*models.AssetProfile, error)
	FetchPriceHistory(ctx context.Context, ticker, rangeKey string) (*models.PriceHistory, error)
}

// SeriesCompounder compounds an official daily/monthly percentage series over
// a date window. ok is false when the series could not be obtained, in which
// case callers fall back to a flat annualized estimate.
type SeriesCompounder interface {
	Compound(ctx context.Context, series int, start, end time.Time, multiplier float64, stepDays int) (factor float64, ok bool)
}
