package badger

import (
	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger.
type Manager struct {
	db           *BadgerDB
	assets       interfaces.AssetStore
	transactions interfaces.TransactionStore
	incomes      interfaces.IncomeStore
	fixedIncomes interfaces.FixedIncomeStore
	portfolios   interfaces.PortfolioStore
	kv           interfaces.KeyValueStorage
	logger       *common.Logger
}

// NewManager creates a new Badger storage manager.
func NewManager(logger *common.Logger, cfg *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, cfg)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:           db,
		assets:       NewAssetStore(db, logger),
		transactions: NewTransactionStore(db, logger),
		incomes:      NewIncomeStore(db, logger),
		fixedIncomes: NewFixedIncomeStore(db, logger),
		portfolios:   NewPortfolioStore(db, logger),
		kv:           NewKVStorage(db, logger),
		logger:       logger,
	}

	logger.Debug().Msg("Badger storage manager initialized")

	return manager, nil
}

// Assets returns the asset storage interface.
func (m *Manager) Assets() interfaces.AssetStore {
	return m.assets
}

// Transactions returns the transaction ledger storage interface.
func (m *Manager) Transactions() interfaces.TransactionStore {
	return m.transactions
}

// Incomes returns the income ledger storage interface.
func (m *Manager) Incomes() interfaces.IncomeStore {
	return m.incomes
}

// FixedIncomes returns the fixed-income storage interface.
func (m *Manager) FixedIncomes() interfaces.FixedIncomeStore {
	return m.fixedIncomes
}

// Portfolios returns the portfolio storage interface.
func (m *Manager) Portfolios() interfaces.PortfolioStore {
	return m.portfolios
}

// KeyValue returns the key-value storage interface.
func (m *Manager) KeyValue() interfaces.KeyValueStorage {
	return m.kv
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
