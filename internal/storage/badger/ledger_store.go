package badger

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// sameDay compares two ledger dates as civil dates.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// toKeys converts uint64 identifiers into the []interface{} badgerhold
// queries expect.
func toKeys(ids []uint64) []interface{} {
	keys := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id)
	}
	return keys
}

// portfolioQuery builds a query restricted to the given portfolios. An empty
// slice means no restriction.
func portfolioQuery(portfolioIDs []uint64) *badgerhold.Query {
	if len(portfolioIDs) == 0 {
		return nil
	}
	return badgerhold.Where("PortfolioID").In(toKeys(portfolioIDs)...)
}

// TransactionStore implements interfaces.TransactionStore using BadgerDB.
type TransactionStore struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewTransactionStore creates a new transaction ledger store backed by BadgerDB.
func NewTransactionStore(db *BadgerDB, logger *common.Logger) *TransactionStore {
	return &TransactionStore{
		db:     db,
		logger: logger,
	}
}

// Insert appends a transaction, assigning the next insertion sequence.
func (s *TransactionStore) Insert(_ context.Context, tx *models.Transaction) error {
	tx.Ticker = strings.ToUpper(tx.Ticker)
	if err := s.db.Store().Insert(badgerhold.NextSequence(), tx); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ListByPortfolios retrieves transactions for the given portfolios ordered by
// (date, insertion sequence). An empty portfolio list means all portfolios.
func (s *TransactionStore) ListByPortfolios(_ context.Context, portfolioIDs []uint64) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	if err := s.db.Store().Find(&txs, portfolioQuery(portfolioIDs)); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	sortTransactions(txs)
	return txs, nil
}

// ListByTicker retrieves one ticker's transactions for the given portfolios
// ordered by (date, insertion sequence).
func (s *TransactionStore) ListByTicker(ctx context.Context, ticker string, portfolioIDs []uint64) ([]*models.Transaction, error) {
	ticker = strings.ToUpper(ticker)
	query := badgerhold.Where("Ticker").Eq(ticker)
	if len(portfolioIDs) > 0 {
		query = query.And("PortfolioID").In(toKeys(portfolioIDs)...)
	}
	var txs []*models.Transaction
	if err := s.db.Store().Find(&txs, query); err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s: %w", ticker, err)
	}
	sortTransactions(txs)
	return txs, nil
}

// Exists reports whether an identical transaction is already recorded. Used
// to skip duplicates on entry and import. Floating quantities compare within
// a small epsilon since imported values go through decimal parsing.
func (s *TransactionStore) Exists(_ context.Context, tx *models.Transaction) (bool, error) {
	query := badgerhold.Where("PortfolioID").Eq(tx.PortfolioID).
		And("Ticker").Eq(strings.ToUpper(tx.Ticker)).
		And("Type").Eq(tx.Type)
	var candidates []*models.Transaction
	if err := s.db.Store().Find(&candidates, query); err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}
	for _, c := range candidates {
		if math.Abs(c.Shares-tx.Shares) < 1e-9 &&
			math.Abs(c.Price-tx.Price) < 1e-6 &&
			sameDay(c.Date, tx.Date) {
			return true, nil
		}
	}
	return false, nil
}

// CountByPortfolio returns how many transactions a portfolio owns.
func (s *TransactionStore) CountByPortfolio(_ context.Context, portfolioID uint64) (int, error) {
	count, err := s.db.Store().Count(&models.Transaction{}, badgerhold.Where("PortfolioID").Eq(portfolioID))
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return int(count), nil
}

// Delete removes the transactions with the given sequences, restricted to the
// given portfolios, and returns how many were removed.
func (s *TransactionStore) Delete(_ context.Context, seqs []uint64, portfolioIDs []uint64) (int, error) {
	query := badgerhold.Where(badgerhold.Key).In(toKeys(seqs)...)
	if len(portfolioIDs) > 0 {
		query = query.And("PortfolioID").In(toKeys(portfolioIDs)...)
	}
	count, err := s.db.Store().Count(&models.Transaction{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions for delete: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.db.Store().DeleteMatching(&models.Transaction{}, query); err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}
	return int(count), nil
}

func sortTransactions(txs []*models.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].Seq < txs[j].Seq
	})
}

// IncomeStore implements interfaces.IncomeStore using BadgerDB.
type IncomeStore struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewIncomeStore creates a new income ledger store backed by BadgerDB.
func NewIncomeStore(db *BadgerDB, logger *common.Logger) *IncomeStore {
	return &IncomeStore{
		db:     db,
		logger: logger,
	}
}

// Insert appends an income entry, assigning the next insertion sequence.
func (s *IncomeStore) Insert(_ context.Context, in *models.Income) error {
	in.Ticker = strings.ToUpper(in.Ticker)
	if err := s.db.Store().Insert(badgerhold.NextSequence(), in); err != nil {
		return fmt.Errorf("failed to insert income: %w", err)
	}
	return nil
}

// ListByPortfolios retrieves incomes for the given portfolios ordered by
// (date, insertion sequence). An empty portfolio list means all portfolios.
func (s *IncomeStore) ListByPortfolios(_ context.Context, portfolioIDs []uint64) ([]*models.Income, error) {
	var incomes []*models.Income
	if err := s.db.Store().Find(&incomes, portfolioQuery(portfolioIDs)); err != nil {
		return nil, fmt.Errorf("failed to list incomes: %w", err)
	}
	sortIncomes(incomes)
	return incomes, nil
}

// ListByTicker retrieves one ticker's incomes for the given portfolios.
func (s *IncomeStore) ListByTicker(_ context.Context, ticker string, portfolioIDs []uint64) ([]*models.Income, error) {
	ticker = strings.ToUpper(ticker)
	query := badgerhold.Where("Ticker").Eq(ticker)
	if len(portfolioIDs) > 0 {
		query = query.And("PortfolioID").In(toKeys(portfolioIDs)...)
	}
	var incomes []*models.Income
	if err := s.db.Store().Find(&incomes, query); err != nil {
		return nil, fmt.Errorf("failed to list incomes for %s: %w", ticker, err)
	}
	sortIncomes(incomes)
	return incomes, nil
}

// TotalsByTicker sums income amounts per ticker across the given portfolios.
func (s *IncomeStore) TotalsByTicker(ctx context.Context, portfolioIDs []uint64) (map[string]float64, error) {
	incomes, err := s.ListByPortfolios(ctx, portfolioIDs)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for _, in := range incomes {
		totals[in.Ticker] += in.Amount
	}
	return totals, nil
}

// Exists reports whether an identical income entry is already recorded.
func (s *IncomeStore) Exists(_ context.Context, in *models.Income) (bool, error) {
	query := badgerhold.Where("PortfolioID").Eq(in.PortfolioID).
		And("Ticker").Eq(strings.ToUpper(in.Ticker)).
		And("Type").Eq(in.Type)
	var candidates []*models.Income
	if err := s.db.Store().Find(&candidates, query); err != nil {
		return false, fmt.Errorf("failed to check income existence: %w", err)
	}
	for _, c := range candidates {
		if math.Abs(c.Amount-in.Amount) < 1e-6 && sameDay(c.Date, in.Date) {
			return true, nil
		}
	}
	return false, nil
}

// CountByPortfolio returns how many income entries a portfolio owns.
func (s *IncomeStore) CountByPortfolio(_ context.Context, portfolioID uint64) (int, error) {
	count, err := s.db.Store().Count(&models.Income{}, badgerhold.Where("PortfolioID").Eq(portfolioID))
	if err != nil {
		return 0, fmt.Errorf("failed to count incomes: %w", err)
	}
	return int(count), nil
}

// Delete removes the incomes with the given sequences, restricted to the
// given portfolios, and returns how many were removed.
func (s *IncomeStore) Delete(_ context.Context, seqs []uint64, portfolioIDs []uint64) (int, error) {
	query := badgerhold.Where(badgerhold.Key).In(toKeys(seqs)...)
	if len(portfolioIDs) > 0 {
		query = query.And("PortfolioID").In(toKeys(portfolioIDs)...)
	}
	count, err := s.db.Store().Count(&models.Income{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count incomes for delete: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.db.Store().DeleteMatching(&models.Income{}, query); err != nil {
		return 0, fmt.Errorf("failed to delete incomes: %w", err)
	}
	return int(count), nil
}

func sortIncomes(incomes []*models.Income) {
	sort.Slice(incomes, func(i, j int) bool {
		if !incomes[i].Date.Equal(incomes[j].Date) {
			return incomes[i].Date.Before(incomes[j].Date)
		}
		return incomes[i].Seq < incomes[j].Seq
	})
}
