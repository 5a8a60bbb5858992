package fixedincome

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/models"
)

// stubCompounder returns a scripted factor per series and records the calls.
type stubCompounder struct {
	factors map[int]float64
	calls   []int
}

func (s *stubCompounder) Compound(_ context.Context, series int, _, _ time.Time, _ float64, _ int) (float64, bool) {
	s.calls = append(s.calls, series)
	f, ok := s.factors[series]
	if !ok {
		return 1.0, false
	}
	return f, true
}

const (
	overnightSeries = 11
	inflationSeries = 433
)

func newTestEngine(stub *stubCompounder) *Engine {
	cfg := &common.BCBConfig{OvernightSeries: overnightSeries, InflationSeries: inflationSeries}
	return NewEngine(stub, cfg, common.NewSilentLogger())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProject_FixedRate(t *testing.T) {
	engine := newTestEngine(&stubCompounder{})
	rec := &models.FixedIncome{
		RateType:     models.RateFixed,
		RateFixed:    6,
		Contribution: day(2024, 1, 1),
		Amount:       1000,
		Maturity:     day(2025, 1, 1), // 366 days in 2024, but factor uses days/365
	}

	// Exactly at maturity the full annualized factor applies.
	p := engine.Project(context.Background(), rec, day(2025, 1, 1))
	wantFinal := common.Round2(1000 * math.Pow(1.06, 366.0/365.0))
	if p.FinalGrossValue != wantFinal {
		t.Errorf("FinalGrossValue = %v, want %v", p.FinalGrossValue, wantFinal)
	}
	if !p.IsMatured {
		t.Error("expected matured at the maturity date")
	}
	if p.ActiveAppliedValue != 0 || p.CurrentGrossValue != 0 || p.CurrentIncome != 0 {
		t.Errorf("matured record must zero open fields: %+v", p)
	}
	if p.TotalReceived != wantFinal {
		t.Errorf("TotalReceived = %v, want %v", p.TotalReceived, wantFinal)
	}
	if p.RealizedIncome != common.Round2(wantFinal-1000) {
		t.Errorf("RealizedIncome = %v", p.RealizedIncome)
	}
}

func TestProject_OpenPosition(t *testing.T) {
	engine := newTestEngine(&stubCompounder{})
	rec := &models.FixedIncome{
		RateType:     models.RateFixed,
		RateFixed:    12,
		Contribution: day(2024, 1, 1),
		Amount:       2000,
		Reinvested:   500,
		Maturity:     day(2026, 1, 1),
	}

	asOf := day(2025, 1, 1)
	p := engine.Project(context.Background(), rec, asOf)
	if p.IsMatured {
		t.Fatal("position should still be open")
	}
	if p.AppliedValue != 2500 || p.ActiveAppliedValue != 2500 {
		t.Errorf("applied = %v / %v, want 2500", p.AppliedValue, p.ActiveAppliedValue)
	}
	if p.ElapsedDays != 366 || p.TotalDays != 731 {
		t.Errorf("days = %d/%d, want 366/731", p.ElapsedDays, p.TotalDays)
	}
	wantCurrent := common.Round2(2500 * math.Pow(1.12, 366.0/365.0))
	if p.CurrentGrossValue != wantCurrent {
		t.Errorf("CurrentGrossValue = %v, want %v", p.CurrentGrossValue, wantCurrent)
	}
	if p.CurrentIncome != common.Round2(wantCurrent-2500) {
		t.Errorf("CurrentIncome = %v", p.CurrentIncome)
	}
	if p.TotalReceived != 0 || p.RealizedIncome != 0 {
		t.Errorf("open position must not report received values: %+v", p)
	}
	// The projection grows monotonically toward maturity.
	later := engine.Project(context.Background(), rec, day(2025, 7, 1))
	if later.CurrentGrossValue <= p.CurrentGrossValue {
		t.Errorf("projection not monotonic: %v then %v", p.CurrentGrossValue, later.CurrentGrossValue)
	}
}

func TestProject_HybridCombinesComponents(t *testing.T) {
	stub := &stubCompounder{factors: map[int]float64{inflationSeries: 1.04}}
	engine := newTestEngine(stub)
	rec := &models.FixedIncome{
		RateType:      models.RateFixedInflation,
		RateFixed:     6,
		RateInflation: 100,
		Contribution:  day(2024, 1, 1),
		Amount:        1000,
		Maturity:      day(2024, 12, 31),
	}

	p := engine.Project(context.Background(), rec, day(2024, 12, 31))
	totalDays := common.DaysBetween(rec.Contribution, rec.Maturity)
	want := common.Round2(1000 * math.Pow(1.06, float64(totalDays)/365.0) * 1.04)
	if p.FinalGrossValue != want {
		t.Errorf("FinalGrossValue = %v, want %v", p.FinalGrossValue, want)
	}

	for _, series := range stub.calls {
		if series == overnightSeries {
			t.Error("FIXED+INFLATION must not touch the overnight series")
		}
	}
}

func TestProject_SeriesFailureFallsBackToFlat(t *testing.T) {
	// The stub has no factor for the overnight series, so Compound reports
	// no data and the engine uses the flat annualized estimate.
	engine := newTestEngine(&stubCompounder{})
	rec := &models.FixedIncome{
		RateType:      models.RateOvernight,
		RateOvernight: 10,
		Contribution:  day(2024, 1, 1),
		Amount:        1000,
		Maturity:      day(2025, 1, 1),
	}

	p := engine.Project(context.Background(), rec, day(2024, 1, 1))
	totalDays := common.DaysBetween(rec.Contribution, rec.Maturity)
	want := common.Round2(1000 * math.Pow(1.10, float64(totalDays)/365.0))
	if p.FinalGrossValue != want {
		t.Errorf("FinalGrossValue = %v, want %v", p.FinalGrossValue, want)
	}
}

func TestProject_LegacySingleRate(t *testing.T) {
	stub := &stubCompounder{factors: map[int]float64{overnightSeries: 1.08}}
	engine := newTestEngine(stub)

	// Legacy records carry only AnnualRate; for OVERNIGHT it routes to the
	// overnight series.
	rec := &models.FixedIncome{
		RateType:     models.RateOvernight,
		AnnualRate:   110,
		Contribution: day(2024, 1, 1),
		Amount:       1000,
		Maturity:     day(2025, 1, 1),
	}

	p := engine.Project(context.Background(), rec, day(2025, 1, 1))
	if p.FinalGrossValue != common.Round2(1000*1.08) {
		t.Errorf("FinalGrossValue = %v, want 1080", p.FinalGrossValue)
	}
	if len(stub.calls) == 0 {
		t.Fatal("expected the overnight series to be consulted")
	}
	for _, series := range stub.calls {
		if series != overnightSeries {
			t.Errorf("unexpected series %d consulted", series)
		}
	}
}

func TestProject_ContributionBeforeToday(t *testing.T) {
	engine := newTestEngine(&stubCompounder{})
	rec := &models.FixedIncome{
		RateType:     models.RateFixed,
		RateFixed:    6,
		Contribution: day(2030, 1, 1),
		Amount:       1000,
		Maturity:     day(2031, 1, 1),
	}

	// A future contribution clamps elapsed days to zero.
	p := engine.Project(context.Background(), rec, day(2024, 1, 1))
	if p.ElapsedDays != 0 {
		t.Errorf("ElapsedDays = %d, want 0", p.ElapsedDays)
	}
	if p.CurrentGrossValue != 1000 {
		t.Errorf("CurrentGrossValue = %v, want principal", p.CurrentGrossValue)
	}
}

func TestSummary(t *testing.T) {
	engine := newTestEngine(&stubCompounder{})
	items := []*models.FixedIncomeProjection{
		{
			ActiveAppliedValue: 1000, CurrentGrossValue: 1100, CurrentIncome: 100,
			FinalGrossValue: 1200, IsMatured: false,
		},
		{
			FinalGrossValue: 2200, IsMatured: true,
			TotalReceived: 2200, RealizedIncome: 200,
		},
	}

	s := engine.Summary(items)
	if s.Count != 2 {
		t.Errorf("Count = %d, want 2", s.Count)
	}
	if s.AppliedTotal != 1000 || s.CurrentTotal != 1100 || s.IncomeTotal != 100 {
		t.Errorf("open totals wrong: %+v", s)
	}
	// Matured records stay out of the projected final total.
	if s.FinalTotal != 1200 {
		t.Errorf("FinalTotal = %v, want 1200", s.FinalTotal)
	}
	if s.TotalReceived != 2200 || s.RealizedTotal != 200 {
		t.Errorf("received totals wrong: %+v", s)
	}
}
