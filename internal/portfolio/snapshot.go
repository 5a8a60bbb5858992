package portfolio

import (
	"context"
	"sort"
	"strings"

	"github.com/timshannon/badgerhold/v4"

	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/models"
)

// PositionSummary replays one ticker's ledger across the selected
// portfolios into its moving weighted-average state plus market valuation.
// An untracked ticker yields the zero summary.
func (s *Service) PositionSummary(ctx context.Context, ticker string, portfolioIDs []uint64) (*models.PositionSummary, error) {
	pids, err := s.NormalizePortfolioIDs(ctx, portfolioIDs)
	if err != nil {
		return nil, err
	}

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	asset, err := s.store.Assets().Get(ctx, ticker)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return &models.PositionSummary{}, nil
		}
		return nil, err
	}

	txs, err := s.store.Transactions().ListByTicker(ctx, ticker, pids)
	if err != nil {
		return nil, err
	}
	state := replay(txs)

	avgPrice := 0.0
	if state.Shares > 0 {
		avgPrice = state.Cost / state.Shares
	}
	marketValue := state.Shares * asset.Price
	openPnL := marketValue - state.Cost
	openPnLPct := 0.0
	if state.Cost > 0 {
		openPnLPct = openPnL / state.Cost * 100
	}

	incomes, err := s.store.Incomes().ListByTicker(ctx, ticker, pids)
	if err != nil {
		return nil, err
	}
	totalIncomes := 0.0
	for _, in := range incomes {
		totalIncomes += in.Amount
	}

	return &models.PositionSummary{
		Shares:       state.Shares,
		AvgPrice:     common.Round2(avgPrice),
		TotalValue:   common.Round2(state.Cost),
		MarketValue:  common.Round2(marketValue),
		OpenPnLValue: common.Round2(openPnL),
		OpenPnLPct:   common.Round2(openPnLPct),
		TotalIncomes: common.Round2(totalIncomes),
	}, nil
}

// snapshotSortKeys are the accepted Snapshot sort keys.
var snapshotSortKeys = map[string]bool{
	"ticker": true, "name": true, "shares": true, "price": true,
	"avg_price": true, "invested_value": true, "value": true,
	"total_incomes": true, "open_pnl_value": true, "open_pnl_pct": true,
	"weight": true,
}

// Snapshot builds the full portfolio view: open positions grouped by
// category with per-group and whole-portfolio totals, plus an estimated
// monthly dividend run-rate. Sorting applies independently within each
// category group; unknown keys fall back to market value, descending.
func (s *Service) Snapshot(ctx context.Context, portfolioIDs []uint64, sortBy, sortDir string) (*models.Snapshot, error) {
	pids, err := s.NormalizePortfolioIDs(ctx, portfolioIDs)
	if err != nil {
		return nil, err
	}

	txs, err := s.store.Transactions().ListByPortfolios(ctx, pids)
	if err != nil {
		return nil, err
	}
	states := replayByTicker(txs)

	incomesByTicker, err := s.store.Incomes().TotalsByTicker(ctx, pids)
	if err != nil {
		return nil, err
	}

	var (
		positions        []*models.Position
		totalValue       float64
		investedTotal    float64
		monthlyDividends float64
		incomesTotal     float64
	)
	for _, amount := range incomesByTicker {
		incomesTotal += amount
	}

	tickers := make([]string, 0, len(states))
	for ticker := range states {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		state := states[ticker]
		if state.Shares <= 0 {
			continue
		}
		asset, err := s.store.Assets().Get(ctx, ticker)
		if err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return nil, err
		}

		value := state.Shares * asset.Price
		totalValue += value
		investedTotal += state.Cost
		monthlyDividends += value * (asset.DividendYield / 100) / 12

		openPnL := value - state.Cost
		openPnLPct := 0.0
		if state.Cost > 0 {
			openPnLPct = openPnL / state.Cost * 100
		}
		avgPrice := 0.0
		if state.Shares > 0 {
			avgPrice = state.Cost / state.Shares
		}

		positions = append(positions, &models.Position{
			Ticker:        ticker,
			Name:          asset.Name,
			Sector:        asset.Sector,
			Shares:        state.Shares,
			Price:         asset.Price,
			Value:         value,
			InvestedValue: common.Round2(state.Cost),
			AvgPrice:      common.Round2(avgPrice),
			OpenPnLValue:  common.Round2(openPnL),
			OpenPnLPct:    common.Round2(openPnLPct),
			TotalIncomes:  common.Round2(incomesByTicker[ticker]),
			Category:      Categorize(ticker, asset.Name, asset.Sector),
		})
	}

	grouped := make(map[models.Category][]*models.Position, len(models.Categories))
	for _, category := range models.Categories {
		grouped[category] = []*models.Position{}
	}
	for _, p := range positions {
		if totalValue != 0 {
			p.Weight = common.Round2(p.Value / totalValue * 100)
		}
		grouped[p.Category] = append(grouped[p.Category], p)
	}

	key := strings.ToLower(strings.TrimSpace(sortBy))
	if !snapshotSortKeys[key] {
		key = "value"
	}
	direction := "desc"
	if strings.EqualFold(strings.TrimSpace(sortDir), "asc") {
		direction = "asc"
	}
	for _, items := range grouped {
		sortPositions(items, key, direction == "asc")
	}

	openPnL := totalValue - investedTotal
	openPnLPct := 0.0
	if investedTotal > 0 {
		openPnLPct = openPnL / investedTotal * 100
	}

	groupTotals := make(map[models.Category]float64, len(grouped))
	groupSummaries := make(map[models.Category]models.GroupSummary, len(grouped))
	for category, items := range grouped {
		var groupValue, groupInvested, groupIncomes float64
		for _, p := range items {
			groupValue += p.Value
			groupInvested += p.InvestedValue
			groupIncomes += p.TotalIncomes
		}
		groupPnL := groupValue - groupInvested
		groupPnLPct := 0.0
		if groupInvested > 0 {
			groupPnLPct = groupPnL / groupInvested * 100
		}
		groupTotals[category] = common.Round2(groupValue)
		groupSummaries[category] = models.GroupSummary{
			TotalValue:    common.Round2(groupValue),
			InvestedValue: common.Round2(groupInvested),
			OpenPnLValue:  common.Round2(groupPnL),
			OpenPnLPct:    common.Round2(groupPnLPct),
			TotalIncomes:  common.Round2(groupIncomes),
		}
	}

	return &models.Snapshot{
		TotalValue:       common.Round2(totalValue),
		InvestedValue:    common.Round2(investedTotal),
		MonthlyDividends: common.Round2(monthlyDividends),
		TotalIncomes:     common.Round2(incomesTotal),
		OpenPnLValue:     common.Round2(openPnL),
		OpenPnLPct:       common.Round2(openPnLPct),
		Positions:        positions,
		Grouped:          grouped,
		GroupTotals:      groupTotals,
		GroupSummaries:   groupSummaries,
		SortBy:           key,
		SortDir:          direction,
	}, nil
}

// sortPositions sorts one category group in place. The sort is stable so
// tied keys keep their ticker order.
func sortPositions(items []*models.Position, key string, ascending bool) {
	sort.SliceStable(items, func(i, j int) bool {
		less := positionLess(items[i], items[j], key)
		if ascending {
			return less
		}
		return positionLess(items[j], items[i], key)
	})
}

func positionLess(a, b *models.Position, key string) bool {
	switch key {
	case "ticker":
		return a.Ticker < b.Ticker
	case "name":
		return strings.ToUpper(a.Name) < strings.ToUpper(b.Name)
	case "shares":
		return a.Shares < b.Shares
	case "price":
		return a.Price < b.Price
	case "avg_price":
		return a.AvgPrice < b.AvgPrice
	case "invested_value":
		return a.InvestedValue < b.InvestedValue
	case "total_incomes":
		return a.TotalIncomes < b.TotalIncomes
	case "open_pnl_value":
		return a.OpenPnLValue < b.OpenPnLValue
	case "open_pnl_pct":
		return a.OpenPnLPct < b.OpenPnLPct
	case "weight":
		return a.Weight < b.Weight
	default:
		return a.Value < b.Value
	}
}
