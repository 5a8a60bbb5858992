package portfolio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/models"
)

// monthNames are the Portuguese month abbreviations used in chart labels.
var monthNames = [13]string{"", "jan", "fev", "mar", "abr", "mai", "jun",
	"jul", "ago", "set", "out", "nov", "dez"}

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) label() string {
	return fmt.Sprintf("%s/%02d", monthNames[k.month], k.year%100)
}

type monthlyBucket struct {
	brInvested     float64
	brIncomes      float64
	fiiInvested    float64
	fiiIncomes     float64
	fixedInvested  float64
	fixedIncomes   float64
	cryptoInvested float64
	cryptoIncomes  float64
}

// MonthlySummary walks the transaction, income and fixed-income ledgers once
// and buckets invested amounts and incomes per (year, month) and category.
// US equities are excluded from this view. Fixed-income principal lands in
// its contribution month and its full projected final income in the maturity
// month; there is no amortized monthly accrual.
func (s *Service) MonthlySummary(ctx context.Context, portfolioIDs []uint64) ([]*models.MonthlyRow, error) {
	pids, err := s.NormalizePortfolioIDs(ctx, portfolioIDs)
	if err != nil {
		return nil, err
	}

	buckets := make(map[monthKey]*monthlyBucket)
	ensure := func(date time.Time) *monthlyBucket {
		key := monthKey{year: date.Year(), month: date.Month()}
		bucket := buckets[key]
		if bucket == nil {
			bucket = &monthlyBucket{}
			buckets[key] = bucket
		}
		return bucket
	}

	// Asset profiles drive categorization; tickers without a stored asset
	// are skipped, matching the ledger-to-asset join.
	categories := make(map[string]models.Category)
	categoryOf := func(ticker string) (models.Category, bool) {
		if c, ok := categories[ticker]; ok {
			return c, c != ""
		}
		asset, err := s.store.Assets().Get(ctx, ticker)
		if err != nil {
			if err == badgerhold.ErrNotFound {
				categories[ticker] = ""
				return "", false
			}
			return "", false
		}
		c := Categorize(ticker, asset.Name, asset.Sector)
		categories[ticker] = c
		return c, true
	}

	txs, err := s.store.Transactions().ListByPortfolios(ctx, pids)
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		category, ok := categoryOf(tx.Ticker)
		if !ok || category == models.CategoryUSStocks {
			continue
		}
		bucket := ensure(tx.Date)
		if tx.Type != models.TransactionBuy {
			continue
		}
		switch category {
		case models.CategoryBRStocks:
			bucket.brInvested += tx.TotalValue()
		case models.CategoryFIIs:
			bucket.fiiInvested += tx.TotalValue()
		case models.CategoryCrypto:
			bucket.cryptoInvested += tx.TotalValue()
		}
	}

	incomes, err := s.store.Incomes().ListByPortfolios(ctx, pids)
	if err != nil {
		return nil, err
	}
	for _, in := range incomes {
		category, ok := categoryOf(in.Ticker)
		if !ok || category == models.CategoryUSStocks {
			continue
		}
		bucket := ensure(in.Date)
		switch category {
		case models.CategoryBRStocks:
			bucket.brIncomes += in.Amount
		case models.CategoryFIIs:
			bucket.fiiIncomes += in.Amount
		case models.CategoryCrypto:
			bucket.cryptoIncomes += in.Amount
		}
	}

	fixed, err := s.store.FixedIncomes().ListByPortfolios(ctx, pids)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, rec := range fixed {
		ensure(rec.Contribution).fixedInvested += rec.Principal()
		projection := s.engine.Project(ctx, rec, now)
		ensure(rec.Maturity).fixedIncomes += projection.FinalIncome
	}

	keys := make([]monthKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	rows := make([]*models.MonthlyRow, 0, len(keys))
	for _, key := range keys {
		bucket := buckets[key]
		totalInvested := bucket.brInvested + bucket.fiiInvested + bucket.fixedInvested + bucket.cryptoInvested
		totalIncomes := bucket.brIncomes + bucket.fiiIncomes + bucket.fixedIncomes + bucket.cryptoIncomes
		rows = append(rows, &models.MonthlyRow{
			Label:          key.label(),
			BRInvested:     common.Round2(bucket.brInvested),
			BRIncomes:      common.Round2(bucket.brIncomes),
			FIIInvested:    common.Round2(bucket.fiiInvested),
			FIIIncomes:     common.Round2(bucket.fiiIncomes),
			FixedInvested:  common.Round2(bucket.fixedInvested),
			FixedIncomes:   common.Round2(bucket.fixedIncomes),
			CryptoInvested: common.Round2(bucket.cryptoInvested),
			CryptoIncomes:  common.Round2(bucket.cryptoIncomes),
			TotalInvested:  common.Round2(totalInvested),
			TotalIncomes:   common.Round2(totalIncomes),
		})
	}
	return rows, nil
}
