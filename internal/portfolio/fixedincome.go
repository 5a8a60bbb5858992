package portfolio

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/carteiralab/carteira/internal/models"
)

// FixedIncomeInput is a fixed-income mutation before validation. Either the
// per-component rates or, for the simple rate types, the legacy single
// AnnualRate must be supplied.
type FixedIncomeInput struct {
	PortfolioID    uint64
	Distributor    string
	Issuer         string
	InvestmentType string
	RateType       string
	AnnualRate     float64
	RateFixed      float64
	RateInflation  float64
	RateOvernight  float64
	Contribution   time.Time
	Amount         float64
	Reinvested     float64
	Maturity       time.Time
}

// componentLabel names a rate component in validation messages.
var componentLabel = map[models.RateComponent]string{
	models.ComponentFixed:     "FIXED",
	models.ComponentInflation: "INFLATION",
	models.ComponentOvernight: "OVERNIGHT",
}

// AddFixedIncome validates and stores a fixed-income record. Exactly the
// components implied by the rate type may be positive; the legacy
// single-rate layout is accepted only for the non-hybrid types.
func (s *Service) AddFixedIncome(ctx context.Context, input FixedIncomeInput) error {
	portfolioID, err := s.ResolvePortfolioID(ctx, input.PortfolioID)
	if err != nil {
		return err
	}

	distributor := strings.TrimSpace(input.Distributor)
	issuer := strings.TrimSpace(input.Issuer)
	investmentType := strings.ToUpper(strings.TrimSpace(input.InvestmentType))
	if distributor == "" {
		return validationf("Distribuidor e obrigatorio.")
	}
	if issuer == "" {
		return validationf("Emissor e obrigatorio.")
	}
	if investmentType == "" {
		return validationf("Investimento e obrigatorio.")
	}

	rateType := models.RateType(strings.ToUpper(strings.TrimSpace(input.RateType)))
	if !rateType.Valid() {
		return validationf("Tipo de taxa invalido.")
	}

	expected := rateType.Components()
	var positive []models.RateComponent
	if input.RateFixed > 0 {
		positive = append(positive, models.ComponentFixed)
	}
	if input.RateInflation > 0 {
		positive = append(positive, models.ComponentInflation)
	}
	if input.RateOvernight > 0 {
		positive = append(positive, models.ComponentOvernight)
	}

	annualRate := 0.0
	if len(positive) > 0 {
		if !sameComponents(positive, expected) {
			labels := make([]string, len(expected))
			for i, c := range expected {
				labels[i] = componentLabel[c]
			}
			sort.Strings(labels)
			return validationf("Para o tipo %s, preencha somente: %s.", rateType, strings.Join(labels, ", "))
		}
		annualRate = input.RateFixed + input.RateInflation + input.RateOvernight
	} else {
		if rateType.Hybrid() {
			return validationf("Para o tipo %s, informe os percentuais de cada componente.", rateType)
		}
		if input.AnnualRate < 0 {
			return validationf("Taxa anual invalida.")
		}
		annualRate = input.AnnualRate
	}

	if input.Amount <= 0 {
		return validationf("Aporte invalido.")
	}
	if input.Reinvested < 0 {
		return validationf("Reinvestido nao pode ser negativo.")
	}
	if input.Contribution.IsZero() {
		return validationf("Data de aporte invalida.")
	}
	if input.Maturity.IsZero() {
		return validationf("Data final invalida.")
	}
	if input.Maturity.Before(input.Contribution) {
		return validationf("Data final nao pode ser menor que data de aporte.")
	}

	record := &models.FixedIncome{
		PortfolioID:    portfolioID,
		Distributor:    distributor,
		Issuer:         issuer,
		InvestmentType: investmentType,
		RateType:       rateType,
		AnnualRate:     annualRate,
		RateFixed:      input.RateFixed,
		RateInflation:  input.RateInflation,
		RateOvernight:  input.RateOvernight,
		Contribution:   input.Contribution,
		Amount:         input.Amount,
		Reinvested:     input.Reinvested,
		Maturity:       input.Maturity,
	}

	duplicate, err := s.store.FixedIncomes().Exists(ctx, record)
	if err != nil {
		return err
	}
	if duplicate {
		return validationf("Registro duplicado: ja existe uma renda fixa com os mesmos dados.")
	}

	if err := s.store.FixedIncomes().Insert(ctx, record); err != nil {
		return err
	}
	s.logger.Info().Str("issuer", issuer).Str("rate_type", string(rateType)).Int("portfolio", int(portfolioID)).Msg("fixed income recorded")
	return nil
}

func sameComponents(a, b []models.RateComponent) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[models.RateComponent]bool, len(a))
	for _, c := range a {
		set[c] = true
	}
	for _, c := range b {
		if !set[c] {
			return false
		}
	}
	return true
}

// fixedIncomeSortKeys are the accepted ListFixedIncomes sort keys.
var fixedIncomeSortKeys = map[string]bool{
	"portfolio_name": true, "distributor": true, "issuer": true,
	"investment_type": true, "rate_type": true, "annual_rate": true,
	"date_aporte": true, "maturity_date": true, "active_applied_value": true,
	"elapsed_days": true, "total_days": true, "current_gross_value": true,
	"total_received": true, "rendimento": true, "final_gross_value": true,
}

// ListFixedIncomes projects and sorts the fixed-income records of the
// selected portfolios. Unknown sort keys fall back to the contribution
// date, descending.
func (s *Service) ListFixedIncomes(ctx context.Context, portfolioIDs []uint64, sortBy, sortDir string) ([]*models.FixedIncomeProjection, error) {
	pids, err := s.NormalizePortfolioIDs(ctx, portfolioIDs)
	if err != nil {
		return nil, err
	}
	records, err := s.store.FixedIncomes().ListByPortfolios(ctx, pids)
	if err != nil {
		return nil, err
	}

	names := make(map[uint64]string)
	portfolios, err := s.store.Portfolios().All(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range portfolios {
		names[p.Seq] = p.Name
	}

	now := time.Now()
	items := make([]*models.FixedIncomeProjection, 0, len(records))
	for _, rec := range records {
		projection := s.engine.Project(ctx, rec, now)
		projection.PortfolioName = names[rec.PortfolioID]
		items = append(items, projection)
	}

	key := strings.TrimSpace(sortBy)
	if !fixedIncomeSortKeys[key] {
		key = "date_aporte"
	}
	ascending := strings.EqualFold(sortDir, "asc")

	sort.SliceStable(items, func(i, j int) bool {
		less := fixedIncomeLess(items[i], items[j], key)
		if ascending {
			return less
		}
		return fixedIncomeLess(items[j], items[i], key)
	})
	return items, nil
}

func fixedIncomeLess(a, b *models.FixedIncomeProjection, key string) bool {
	switch key {
	case "portfolio_name":
		return strings.ToLower(a.PortfolioName) < strings.ToLower(b.PortfolioName)
	case "distributor":
		return strings.ToLower(a.Record.Distributor) < strings.ToLower(b.Record.Distributor)
	case "issuer":
		return strings.ToLower(a.Record.Issuer) < strings.ToLower(b.Record.Issuer)
	case "investment_type":
		return strings.ToLower(a.Record.InvestmentType) < strings.ToLower(b.Record.InvestmentType)
	case "rate_type":
		return a.Record.RateType < b.Record.RateType
	case "annual_rate":
		return a.Record.AnnualRate < b.Record.AnnualRate
	case "maturity_date":
		return a.Record.Maturity.Before(b.Record.Maturity)
	case "active_applied_value":
		return a.ActiveAppliedValue < b.ActiveAppliedValue
	case "elapsed_days":
		return a.ElapsedDays < b.ElapsedDays
	case "total_days":
		return a.TotalDays < b.TotalDays
	case "current_gross_value":
		return a.CurrentGrossValue < b.CurrentGrossValue
	case "total_received":
		return a.TotalReceived < b.TotalReceived
	case "rendimento":
		return a.RealizedIncome < b.RealizedIncome
	case "final_gross_value":
		return a.FinalGrossValue < b.FinalGrossValue
	default:
		return a.Record.Contribution.Before(b.Record.Contribution)
	}
}

// FixedIncomeSummary aggregates the projected fixed-income totals of the
// selected portfolios.
func (s *Service) FixedIncomeSummary(ctx context.Context, portfolioIDs []uint64) (*models.FixedIncomeSummary, error) {
	items, err := s.ListFixedIncomes(ctx, portfolioIDs, "", "")
	if err != nil {
		return nil, err
	}
	return s.engine.Summary(items), nil
}

// DeleteFixedIncomes removes the given records from the selected portfolios
// and returns how many were removed.
func (s *Service) DeleteFixedIncomes(ctx context.Context, ids []uint64, portfolioIDs []uint64) (int, error) {
	seqs := dedupePositive(ids)
	if len(seqs) == 0 {
		return 0, nil
	}
	pids, err := s.NormalizePortfolioIDs(ctx, portfolioIDs)
	if err != nil {
		return 0, err
	}
	return s.store.FixedIncomes().Delete(ctx, seqs, pids)
}
