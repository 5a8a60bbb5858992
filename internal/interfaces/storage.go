// Package interfaces defines the collaborator contracts of the Carteira core.
package interfaces

import (
	"context"

	"github.com/carteiralab/carteira/internal/models"
)

// StorageManager provides access to domain-specific storage interfaces.
// Implementations can be swapped (BadgerDB now, centralised DB later).
type StorageManager interface {
	Assets() AssetStore
	Transactions() TransactionStore
	Incomes() IncomeStore
	FixedIncomes() FixedIncomeStore
	Portfolios() PortfolioStore
	KeyValue() KeyValueStorage
	Close() error
}

// AssetStore persists tracked assets keyed by upper-case ticker.
type AssetStore interface {
	Get(ctx context.Context, ticker string) (*models.Asset, error)
	Upsert(ctx context.Context, asset *models.Asset) error
	All(ctx context.Context) ([]*models.Asset, error)
	Tickers(ctx context.Context) ([]string, error)
}

// TransactionStore persists the append-only buy/sell ledger. Listings are
// ordered by (date, insertion sequence) so same-day entries replay in the
// order they were recorded.
type TransactionStore interface {
	Insert(ctx context.Context, tx *models.Transaction) error
	ListByPortfolios(ctx context.Context, portfolioIDs []uint64) ([]*models.Transaction, error)
	ListByTicker(ctx context.Context, ticker string, portfolioIDs []uint64) ([]*models.Transaction, error)
	Exists(ctx context.Context, tx *models.Transaction) (bool, error)
	CountByPortfolio(ctx context.Context, portfolioID uint64) (int, error)
	Delete(ctx context.Context, seqs []uint64, portfolioIDs []uint64) (int, error)
}

// IncomeStore persists the append-only income ledger.
type IncomeStore interface {
	Insert(ctx context.Context, in *models.Income) error
	ListByPortfolios(ctx context.Context, portfolioIDs []uint64) ([]*models.Income, error)
	ListByTicker(ctx context.Context, ticker string, portfolioIDs []uint64) ([]*models.Income, error)
	TotalsByTicker(ctx context.Context, portfolioIDs []uint64) (map[string]float64, error)
	Exists(ctx context.Context, in *models.Income) (bool, error)
	CountByPortfolio(ctx context.Context, portfolioID uint64) (int, error)
	Delete(ctx context.Context, seqs []uint64, portfolioIDs []uint64) (int, error)
}

// FixedIncomeStore persists fixed-income records.
type FixedIncomeStore interface {
	Insert(ctx context.Context, fi *models.FixedIncome) error
	ListByPortfolios(ctx context.Context, portfolioIDs []uint64) ([]*models.FixedIncome, error)
	Exists(ctx context.Context, fi *models.FixedIncome) (bool, error)
	Delete(ctx context.Context, seqs []uint64, portfolioIDs []uint64) (int, error)
}

// PortfolioStore persists portfolios keyed by insertion sequence.
type PortfolioStore interface {
	Create(ctx context.Context, p *models.Portfolio) error
	Get(ctx context.Context, id uint64) (*models.Portfolio, error)
	ByName(ctx context.Context, name string) (*models.Portfolio, error)
	All(ctx context.Context) ([]*models.Portfolio, error)
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int, error)
}

// KeyValueStorage provides basic key-value operations for runtime settings.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]string, error)
}
