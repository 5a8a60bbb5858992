package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// PortfolioStore implements interfaces.PortfolioStore using BadgerDB.
type PortfolioStore struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewPortfolioStore creates a new portfolio store backed by BadgerDB.
func NewPortfolioStore(db *BadgerDB, logger *common.Logger) *PortfolioStore {
	return &PortfolioStore{
		db:     db,
		logger: logger,
	}
}

// Create stores a new portfolio, assigning the next insertion sequence.
func (s *PortfolioStore) Create(_ context.Context, p *models.Portfolio) error {
	p.Name = strings.TrimSpace(p.Name)
	if err := s.db.Store().Insert(badgerhold.NextSequence(), p); err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}
	return nil
}

// Get retrieves a portfolio by identifier. Returns badgerhold.ErrNotFound
// when absent.
func (s *PortfolioStore) Get(_ context.Context, id uint64) (*models.Portfolio, error) {
	var p models.Portfolio
	err := s.db.Store().Get(id, &p)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get portfolio %d: %w", id, err)
	}
	return &p, nil
}

// ByName retrieves a portfolio by exact name. Returns badgerhold.ErrNotFound
// when absent.
func (s *PortfolioStore) ByName(_ context.Context, name string) (*models.Portfolio, error) {
	var p models.Portfolio
	err := s.db.Store().FindOne(&p, badgerhold.Where("Name").Eq(strings.TrimSpace(name)))
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find portfolio %q: %w", name, err)
	}
	return &p, nil
}

// All retrieves every portfolio ordered by insertion sequence.
func (s *PortfolioStore) All(_ context.Context) ([]*models.Portfolio, error) {
	var portfolios []*models.Portfolio
	if err := s.db.Store().Find(&portfolios, nil); err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	sort.Slice(portfolios, func(i, j int) bool { return portfolios[i].Seq < portfolios[j].Seq })
	return portfolios, nil
}

// Delete removes a portfolio. Ownership checks (last portfolio, non-empty
// ledgers) belong to the service layer.
func (s *PortfolioStore) Delete(_ context.Context, id uint64) error {
	if err := s.db.Store().Delete(id, models.Portfolio{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return err
		}
		return fmt.Errorf("failed to delete portfolio %d: %w", id, err)
	}
	return nil
}

// Count returns how many portfolios exist.
func (s *PortfolioStore) Count(_ context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Portfolio{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count portfolios: %w", err)
	}
	return int(count), nil
}
