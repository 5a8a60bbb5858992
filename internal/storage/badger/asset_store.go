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

// AssetStore implements interfaces.AssetStore using BadgerDB.
// Tickers are normalized to upper case on every operation.
type AssetStore struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewAssetStore creates a new asset store backed by BadgerDB.
func NewAssetStore(db *BadgerDB, logger *common.Logger) *AssetStore {
	return &AssetStore{
		db:     db,
		logger: logger,
	}
}

// Get retrieves an asset by ticker. Returns badgerhold.ErrNotFound when the
// ticker is not tracked.
func (s *AssetStore) Get(_ context.Context, ticker string) (*models.Asset, error) {
	var asset models.Asset
	err := s.db.Store().Get(strings.ToUpper(ticker), &asset)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get asset %s: %w", ticker, err)
	}
	return &asset, nil
}

// Upsert creates or replaces an asset record.
func (s *AssetStore) Upsert(_ context.Context, asset *models.Asset) error {
	asset.Ticker = strings.ToUpper(asset.Ticker)
	if err := s.db.Store().Upsert(asset.Ticker, asset); err != nil {
		return fmt.Errorf("failed to upsert asset %s: %w", asset.Ticker, err)
	}
	return nil
}

// All retrieves every tracked asset ordered by ticker.
func (s *AssetStore) All(_ context.Context) ([]*models.Asset, error) {
	var assets []*models.Asset
	if err := s.db.Store().Find(&assets, nil); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Ticker < assets[j].Ticker })
	return assets, nil
}

// Tickers retrieves the sorted tickers of every tracked asset.
func (s *AssetStore) Tickers(ctx context.Context) ([]string, error) {
	assets, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(assets))
	for _, a := range assets {
		tickers = append(tickers, a.Ticker)
	}
	return tickers, nil
}
