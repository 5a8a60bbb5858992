package badger

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// FixedIncomeStore implements interfaces.FixedIncomeStore using BadgerDB.
type FixedIncomeStore struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewFixedIncomeStore creates a new fixed-income store backed by BadgerDB.
func NewFixedIncomeStore(db *BadgerDB, logger *common.Logger) *FixedIncomeStore {
	return &FixedIncomeStore{
		db:     db,
		logger: logger,
	}
}

// Insert appends a fixed-income record, assigning the next insertion sequence.
func (s *FixedIncomeStore) Insert(_ context.Context, fi *models.FixedIncome) error {
	if err := s.db.Store().Insert(badgerhold.NextSequence(), fi); err != nil {
		return fmt.Errorf("failed to insert fixed income: %w", err)
	}
	return nil
}

// ListByPortfolios retrieves fixed-income records for the given portfolios
// ordered by (contribution date, insertion sequence). An empty portfolio list
// means all portfolios.
func (s *FixedIncomeStore) ListByPortfolios(_ context.Context, portfolioIDs []uint64) ([]*models.FixedIncome, error) {
	var records []*models.FixedIncome
	if err := s.db.Store().Find(&records, portfolioQuery(portfolioIDs)); err != nil {
		return nil, fmt.Errorf("failed to list fixed incomes: %w", err)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Contribution.Equal(records[j].Contribution) {
			return records[i].Contribution.Before(records[j].Contribution)
		}
		return records[i].Seq < records[j].Seq
	})
	return records, nil
}

// Exists reports whether an identical fixed-income record is already stored.
// Rates and amounts compare within a small epsilon.
func (s *FixedIncomeStore) Exists(_ context.Context, fi *models.FixedIncome) (bool, error) {
	query := badgerhold.Where("PortfolioID").Eq(fi.PortfolioID).
		And("Distributor").Eq(fi.Distributor).
		And("Issuer").Eq(fi.Issuer).
		And("InvestmentType").Eq(fi.InvestmentType).
		And("RateType").Eq(fi.RateType)
	var candidates []*models.FixedIncome
	if err := s.db.Store().Find(&candidates, query); err != nil {
		return false, fmt.Errorf("failed to check fixed income existence: %w", err)
	}
	for _, c := range candidates {
		if math.Abs(c.AnnualRate-fi.AnnualRate) < 1e-6 &&
			math.Abs(c.RateFixed-fi.RateFixed) < 1e-6 &&
			math.Abs(c.RateInflation-fi.RateInflation) < 1e-6 &&
			math.Abs(c.RateOvernight-fi.RateOvernight) < 1e-6 &&
			math.Abs(c.Amount-fi.Amount) < 1e-6 &&
			math.Abs(c.Reinvested-fi.Reinvested) < 1e-6 &&
			sameDay(c.Contribution, fi.Contribution) &&
			sameDay(c.Maturity, fi.Maturity) {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the fixed-income records with the given sequences, restricted
// to the given portfolios, and returns how many were removed.
func (s *FixedIncomeStore) Delete(_ context.Context, seqs []uint64, portfolioIDs []uint64) (int, error) {
	query := badgerhold.Where(badgerhold.Key).In(toKeys(seqs)...)
	if len(portfolioIDs) > 0 {
		query = query.And("PortfolioID").In(toKeys(portfolioIDs)...)
	}
	count, err := s.db.Store().Count(&models.FixedIncome{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count fixed incomes for delete: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.db.Store().DeleteMatching(&models.FixedIncome{}, query); err != nil {
		return 0, fmt.Errorf("failed to delete fixed incomes: %w", err)
	}
	return int(count), nil
}
