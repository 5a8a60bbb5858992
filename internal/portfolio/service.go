// Package portfolio implements the aggregation engine and the validated
// mutations over the transaction, income and fixed-income ledgers.
package portfolio

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/timshannon/badgerhold/v4"

	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/fixedincome"
	"github.com/carteiralab/carteira/internal/interfaces"
	"github.com/carteiralab/carteira/internal/market"
	"github.com/carteiralab/carteira/internal/models"
)

// Service aggregates ledgers into portfolio views and applies validated
// mutations. Validation rejections come back as *ValidationError; anything
// else is an internal failure.
type Service struct {
	store    interfaces.StorageManager
	provider interfaces.QuoteProvider
	fx       market.UsdBrlRater
	engine   *fixedincome.Engine
	logger   *common.Logger
}

// NewService creates the portfolio service.
func NewService(store interfaces.StorageManager, provider interfaces.QuoteProvider, fx market.UsdBrlRater, engine *fixedincome.Engine, logger *common.Logger) *Service {
	return &Service{
		store:    store,
		provider: provider,
		fx:       fx,
		engine:   engine,
		logger:   logger,
	}
}

// Portfolios lists every portfolio ordered by id.
func (s *Service) Portfolios(ctx context.Context) ([]*models.Portfolio, error) {
	return s.store.Portfolios().All(ctx)
}

// defaultPortfolioKey stores the user's preferred default portfolio id.
const defaultPortfolioKey = "default_portfolio"

// DefaultPortfolioID returns the configured default portfolio, the fallback
// whenever a caller supplies no usable selection. Without a stored preference,
// or when the preference points at a removed portfolio, the lowest id wins.
func (s *Service) DefaultPortfolioID(ctx context.Context) (uint64, error) {
	portfolios, err := s.store.Portfolios().All(ctx)
	if err != nil {
		return 0, err
	}
	if len(portfolios) == 0 {
		return 0, fmt.Errorf("no portfolios exist")
	}

	if raw, err := s.store.KeyValue().Get(ctx, defaultPortfolioKey); err == nil {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			for _, p := range portfolios {
				if p.Seq == id {
					return id, nil
				}
			}
		}
	}
	return portfolios[0].Seq, nil
}

// SetDefaultPortfolio records which portfolio backs empty selections.
func (s *Service) SetDefaultPortfolio(ctx context.Context, id uint64) error {
	if _, err := s.store.Portfolios().Get(ctx, id); err != nil {
		if err == badgerhold.ErrNotFound {
			return validationf("Carteira nao encontrada.")
		}
		return err
	}
	return s.store.KeyValue().Set(ctx, defaultPortfolioKey, strconv.FormatUint(id, 10))
}

// NormalizePortfolioIDs filters a raw selection down to existing portfolios,
// preserving order and dropping duplicates. An empty result falls back to
// the default portfolio.
func (s *Service) NormalizePortfolioIDs(ctx context.Context, raw []uint64) ([]uint64, error) {
	portfolios, err := s.store.Portfolios().All(ctx)
	if err != nil {
		return nil, err
	}
	valid := make(map[uint64]bool, len(portfolios))
	for _, p := range portfolios {
		valid[p.Seq] = true
	}

	var result []uint64
	seen := make(map[uint64]bool)
	for _, id := range raw {
		if valid[id] && !seen[id] {
			result = append(result, id)
			seen[id] = true
		}
	}
	if len(result) == 0 {
		fallback, err := s.DefaultPortfolioID(ctx)
		if err != nil {
			return nil, err
		}
		result = []uint64{fallback}
	}
	return result, nil
}

// ResolvePortfolioID maps a raw portfolio id onto an existing portfolio,
// falling back to the default when the id is zero or unknown.
func (s *Service) ResolvePortfolioID(ctx context.Context, raw uint64) (uint64, error) {
	if raw == 0 {
		return s.DefaultPortfolioID(ctx)
	}
	if _, err := s.store.Portfolios().Get(ctx, raw); err != nil {
		if err == badgerhold.ErrNotFound {
			return s.DefaultPortfolioID(ctx)
		}
		return 0, err
	}
	return raw, nil
}

// CreatePortfolio creates a portfolio with a unique, non-empty name.
func (s *Service) CreatePortfolio(ctx context.Context, name string) (*models.Portfolio, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return nil, validationf("Nome da carteira e obrigatorio.")
	}

	existing, err := s.store.Portfolios().All(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if strings.EqualFold(p.Name, clean) {
			return nil, validationf("Ja existe uma carteira com esse nome.")
		}
	}

	p := &models.Portfolio{Name: clean}
	if err := s.store.Portfolios().Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info().Str("name", clean).Int("id", int(p.Seq)).Msg("portfolio created")
	return p, nil
}

// DeletePortfolio removes a portfolio and returns its name. The last
// portfolio and portfolios still owning transactions or incomes cannot be
// deleted.
func (s *Service) DeletePortfolio(ctx context.Context, id uint64) (string, error) {
	p, err := s.store.Portfolios().Get(ctx, id)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return "", validationf("Carteira nao encontrada.")
		}
		return "", err
	}

	total, err := s.store.Portfolios().Count(ctx)
	if err != nil {
		return "", err
	}
	if total <= 1 {
		return "", validationf("Nao e possivel remover a unica carteira. Crie outra primeiro.")
	}

	txCount, err := s.store.Transactions().CountByPortfolio(ctx, id)
	if err != nil {
		return "", err
	}
	inCount, err := s.store.Incomes().CountByPortfolio(ctx, id)
	if err != nil {
		return "", err
	}
	if txCount > 0 || inCount > 0 {
		return "", validationf("Carteira com lancamentos nao pode ser removida. Remova transacoes/proventos primeiro.")
	}

	if err := s.store.Portfolios().Delete(ctx, id); err != nil {
		return "", err
	}
	if raw, err := s.store.KeyValue().Get(ctx, defaultPortfolioKey); err == nil && raw == strconv.FormatUint(id, 10) {
		if err := s.store.KeyValue().Delete(ctx, defaultPortfolioKey); err != nil {
			s.logger.Warn().Err(err).Msg("failed to clear default portfolio setting")
		}
	}
	s.logger.Info().Str("name", p.Name).Int("id", int(id)).Msg("portfolio deleted")
	return p.Name, nil
}

// Assets lists every tracked asset ordered by market cap, largest first.
func (s *Service) Assets(ctx context.Context) ([]*models.Asset, error) {
	assets, err := s.store.Assets().All(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].MarketCapB > assets[j].MarketCapB
	})
	return assets, nil
}

// SectorSummary aggregates tracked assets per sector ordered by total market
// cap, largest first.
func (s *Service) SectorSummary(ctx context.Context) ([]*models.SectorSummary, error) {
	assets, err := s.store.Assets().All(ctx)
	if err != nil {
		return nil, err
	}

	type sectorAgg struct {
		count int
		dySum float64
		capB  float64
	}
	aggregates := make(map[string]*sectorAgg)
	for _, a := range assets {
		agg := aggregates[a.Sector]
		if agg == nil {
			agg = &sectorAgg{}
			aggregates[a.Sector] = agg
		}
		agg.count++
		agg.dySum += a.DividendYield
		agg.capB += a.MarketCapB
	}

	summaries := make([]*models.SectorSummary, 0, len(aggregates))
	for sector, agg := range aggregates {
		summaries = append(summaries, &models.SectorSummary{
			Sector:      sector,
			AssetsCount: agg.count,
			AvgDY:       common.Round2(agg.dySum / float64(agg.count)),
			MarketCapB:  common.Round2(agg.capB),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].MarketCapB > summaries[j].MarketCapB
	})
	return summaries, nil
}
