// Package fixedincome projects fixed-income positions over time using the
// official CDI and IPCA series.
package fixedincome

import (
	"context"
	"math"
	"time"

	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/interfaces"
	"github.com/carteiralab/carteira/internal/models"
)

// Engine computes fixed-income projections. Series failures degrade to a
// flat annualized factor, never to an error.
type Engine struct {
	series          interfaces.SeriesCompounder
	overnightSeries int
	inflationSeries int
	logger          *common.Logger
}

// NewEngine creates a projection engine using the given series compounder
// and SGS series codes.
func NewEngine(series interfaces.SeriesCompounder, cfg *common.BCBConfig, logger *common.Logger) *Engine {
	return &Engine{
		series:          series,
		overnightSeries: cfg.OvernightSeries,
		inflationSeries: cfg.InflationSeries,
		logger:          logger,
	}
}

// componentRates resolves the effective per-component rates of a record,
// applying the legacy single-rate layout when all components are zero.
func componentRates(rec *models.FixedIncome) (fixed, inflation, overnight float64) {
	fixed = math.Max(rec.RateFixed, 0)
	inflation = math.Max(rec.RateInflation, 0)
	overnight = math.Max(rec.RateOvernight, 0)

	if fixed == 0 && inflation == 0 && overnight == 0 {
		legacy := math.Max(rec.AnnualRate, 0)
		if legacy > 0 {
			switch rec.RateType {
			case models.RateOvernight:
				overnight = legacy
			case models.RateInflation:
				inflation = legacy
			default:
				// FIXED and the hybrid types read the legacy rate as the
				// fixed component.
				fixed = legacy
			}
		}
	}
	return fixed, inflation, overnight
}

// annualizedFactor is the flat compounding factor (1+r/100)^(days/365).
func annualizedFactor(rate float64, days int) float64 {
	if days <= 0 || rate <= 0 {
		return 1.0
	}
	return math.Pow(1+rate/100.0, float64(days)/365.0)
}

// seriesFactor compounds one series-linked component over [start, end],
// falling back to the flat annualized factor when the series yields nothing.
func (e *Engine) seriesFactor(ctx context.Context, series int, rate float64, start, end time.Time, stepDays int) float64 {
	if rate <= 0 || start.After(end) {
		return 1.0
	}
	factor, ok := e.series.Compound(ctx, series, start, end, rate/100.0, stepDays)
	if ok {
		return factor
	}
	days := common.DaysBetween(start, end)
	if days < 0 {
		days = 0
	}
	return annualizedFactor(rate, days)
}

// periodFactor is the combined compounding factor over [start, end] for the
// components the record's rate type activates.
func (e *Engine) periodFactor(ctx context.Context, rec *models.FixedIncome, start, end time.Time, days int) float64 {
	fixed, inflation, overnight := componentRates(rec)

	factors := map[models.RateComponent]func() float64{
		models.ComponentFixed:     func() float64 { return annualizedFactor(fixed, days) },
		models.ComponentInflation: func() float64 { return e.seriesFactor(ctx, e.inflationSeries, inflation, start, end, 30) },
		models.ComponentOvernight: func() float64 { return e.seriesFactor(ctx, e.overnightSeries, overnight, start, end, 1) },
	}

	components := rec.RateType.Components()
	if components == nil {
		// Unknown rate type: multiply every populated component.
		components = []models.RateComponent{
			models.ComponentFixed, models.ComponentInflation, models.ComponentOvernight,
		}
	}

	combined := 1.0
	for _, component := range components {
		combined *= factors[component]()
	}
	return combined
}

// Project computes the valuation of a record at asOf. Monetary outputs are
// rounded to 2 decimal places here; everything upstream stays full
// precision.
func (e *Engine) Project(ctx context.Context, rec *models.FixedIncome, asOf time.Time) *models.FixedIncomeProjection {
	principal := rec.Principal()

	totalDays := common.DaysBetween(rec.Contribution, rec.Maturity)
	if totalDays < 1 {
		totalDays = 1
	}
	elapsedDays := common.DaysBetween(rec.Contribution, asOf)
	if elapsedDays > totalDays {
		elapsedDays = totalDays
	}
	if elapsedDays < 0 {
		elapsedDays = 0
	}

	currentEnd := rec.Contribution.AddDate(0, 0, elapsedDays)
	finalEnd := rec.Contribution.AddDate(0, 0, totalDays)

	currentFactor := e.periodFactor(ctx, rec, rec.Contribution, currentEnd, elapsedDays)
	finalFactor := e.periodFactor(ctx, rec, rec.Contribution, finalEnd, totalDays)

	currentValue := principal * currentFactor
	finalValue := principal * finalFactor
	isMatured := common.DaysBetween(rec.Contribution, asOf) >= totalDays ||
		!asOf.Before(rec.Maturity)

	activeApplied := principal
	activeCurrent := currentValue
	activeIncome := currentValue - principal
	totalReceived := 0.0
	realized := 0.0
	if isMatured {
		activeApplied, activeCurrent, activeIncome = 0, 0, 0
		totalReceived = finalValue
		realized = finalValue - principal
	}

	return &models.FixedIncomeProjection{
		Record:             *rec,
		AppliedValue:       common.Round2(principal),
		ActiveAppliedValue: common.Round2(activeApplied),
		ElapsedDays:        elapsedDays,
		TotalDays:          totalDays,
		IsMatured:          isMatured,
		CurrentGrossValue:  common.Round2(activeCurrent),
		CurrentIncome:      common.Round2(activeIncome),
		FinalGrossValue:    common.Round2(finalValue),
		FinalIncome:        common.Round2(finalValue - principal),
		TotalReceived:      common.Round2(totalReceived),
		RealizedIncome:     common.Round2(realized),
	}
}

// Summary aggregates projections: open positions feed the applied/current/
// income/final totals, matured ones the received/realized totals.
func (e *Engine) Summary(items []*models.FixedIncomeProjection) *models.FixedIncomeSummary {
	summary := &models.FixedIncomeSummary{Count: len(items)}
	for _, item := range items {
		summary.AppliedTotal += item.ActiveAppliedValue
		summary.CurrentTotal += item.CurrentGrossValue
		summary.IncomeTotal += item.CurrentIncome
		if !item.IsMatured {
			summary.FinalTotal += item.FinalGrossValue
		}
		summary.TotalReceived += item.TotalReceived
		summary.RealizedTotal += item.RealizedIncome
	}
	summary.AppliedTotal = common.Round2(summary.AppliedTotal)
	summary.CurrentTotal = common.Round2(summary.CurrentTotal)
	summary.IncomeTotal = common.Round2(summary.IncomeTotal)
	summary.FinalTotal = common.Round2(summary.FinalTotal)
	summary.TotalReceived = common.Round2(summary.TotalReceived)
	summary.RealizedTotal = common.Round2(summary.RealizedTotal)
	return summary
}
