package portfolio

import (
	"context"
	"strings"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/carteiralab/carteira/internal/market"
	"github.com/carteiralab/carteira/internal/models"
)

// TransactionInput is a transaction mutation before validation. Name and
// Sector are optional hints used only when the ticker is seen for the first
// time and the provider has no profile for it.
type TransactionInput struct {
	PortfolioID uint64
	Ticker      string
	Type        string
	Shares      float64
	Price       float64
	Date        time.Time
	Name        string
	Sector      string
}

// IncomeInput is an income mutation before validation.
type IncomeInput struct {
	PortfolioID uint64
	Ticker      string
	Type        string
	Amount      float64
	Date        time.Time
}

// convertUSD converts a US-equity amount to BRL. Failing to obtain a rate is
// a validation error: the operation must fail explicitly, never record a
// silent zero.
func (s *Service) convertUSD(ctx context.Context, ticker string, amount float64) (float64, error) {
	if !market.IsUSTicker(ticker) {
		return amount, nil
	}
	rate, ok := s.fx.Rate(ctx)
	if !ok {
		return 0, validationf("Nao foi possivel obter cotacao USD/BRL para converter ativo dos EUA.")
	}
	return amount * rate, nil
}

// currentShares sums the signed share quantity of a ticker in one portfolio.
func (s *Service) currentShares(ctx context.Context, ticker string, portfolioID uint64) (float64, error) {
	txs, err := s.store.Transactions().ListByTicker(ctx, ticker, []uint64{portfolioID})
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, tx := range txs {
		if tx.Type == models.TransactionBuy {
			total += tx.Shares
		} else {
			total -= tx.Shares
		}
	}
	return total, nil
}

// AddTransaction validates and appends a buy/sell entry. First-seen tickers
// create the asset record, fetching its profile from the provider; assets
// stuck with placeholder profiles are refreshed on the way.
func (s *Service) AddTransaction(ctx context.Context, input TransactionInput) error {
	portfolioID, err := s.ResolvePortfolioID(ctx, input.PortfolioID)
	if err != nil {
		return err
	}

	ticker := strings.ToUpper(strings.TrimSpace(input.Ticker))
	if ticker == "" {
		return validationf("Ticker e obrigatorio.")
	}
	txType := models.TransactionType(strings.ToLower(strings.TrimSpace(input.Type)))
	if txType != models.TransactionBuy && txType != models.TransactionSell {
		return validationf("Tipo de transacao invalido.")
	}
	if input.Shares <= 0 {
		return validationf("Quantidade precisa ser maior que zero.")
	}
	if input.Price <= 0 {
		return validationf("Preco precisa ser numerico e maior que zero.")
	}
	if input.Date.IsZero() {
		return validationf("Data invalida. Use o formato YYYY-MM-DD.")
	}

	price, err := s.convertUSD(ctx, ticker, input.Price)
	if err != nil {
		return err
	}

	tx := &models.Transaction{
		PortfolioID: portfolioID,
		Ticker:      ticker,
		Type:        txType,
		Shares:      input.Shares,
		Price:       price,
		Date:        input.Date,
	}

	duplicate, err := s.store.Transactions().Exists(ctx, tx)
	if err != nil {
		return err
	}
	if duplicate {
		return validationf("Transacao duplicada: ja existe um registro com esses mesmos dados.")
	}

	if txType == models.TransactionSell {
		held, err := s.currentShares(ctx, ticker, portfolioID)
		if err != nil {
			return err
		}
		if input.Shares-held > 1e-9 {
			return validationf("Venda maior que a quantidade em carteira.")
		}
	}

	if err := s.ensureAsset(ctx, ticker, txType, price, input.Name, input.Sector); err != nil {
		return err
	}

	if err := s.store.Transactions().Insert(ctx, tx); err != nil {
		return err
	}
	s.logger.Info().Str("ticker", ticker).Str("type", string(txType)).Int("portfolio", int(portfolioID)).Msg("transaction recorded")
	return nil
}

// ensureAsset creates the asset record on a ticker's first buy, or refreshes
// the profile of an asset stuck with placeholder name/sector.
func (s *Service) ensureAsset(ctx context.Context, ticker string, txType models.TransactionType, price float64, nameHint, sectorHint string) error {
	asset, err := s.store.Assets().Get(ctx, ticker)
	if err != nil && err != badgerhold.ErrNotFound {
		return err
	}

	if asset == nil {
		if txType == models.TransactionSell {
			return validationf("Nao existe posicao para esse ticker.")
		}
		profile, _ := s.provider.FetchProfile(ctx, ticker)
		name := firstNonEmpty(profileName(profile), strings.TrimSpace(nameHint), ticker)
		sector := firstNonEmpty(profileSector(profile), strings.TrimSpace(sectorHint), models.SectorUnknown)
		return s.store.Assets().Upsert(ctx, &models.Asset{
			Ticker: ticker,
			Name:   name,
			Sector: sector,
			Price:  price,
		})
	}

	if asset.Name == ticker || asset.Sector == models.SectorUnknown {
		profile, _ := s.provider.FetchProfile(ctx, ticker)
		if name := profileName(profile); name != "" {
			asset.Name = name
		}
		if sector := profileSector(profile); sector != "" {
			asset.Sector = sector
		}
		return s.store.Assets().Upsert(ctx, asset)
	}
	return nil
}

func profileName(p *models.AssetProfile) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Name)
}

func profileSector(p *models.AssetProfile) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Sector)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// AddIncome validates and appends a cash income entry. The asset must
// already be tracked.
func (s *Service) AddIncome(ctx context.Context, input IncomeInput) error {
	portfolioID, err := s.ResolvePortfolioID(ctx, input.PortfolioID)
	if err != nil {
		return err
	}

	ticker := strings.ToUpper(strings.TrimSpace(input.Ticker))
	if ticker == "" {
		return validationf("Ticker e obrigatorio.")
	}
	incomeType := models.IncomeType(strings.ToLower(strings.TrimSpace(input.Type)))
	switch incomeType {
	case models.IncomeDividend, models.IncomeJCP, models.IncomeRent:
	default:
		return validationf("Tipo de provento invalido.")
	}
	if input.Amount <= 0 {
		return validationf("Valor do provento precisa ser numerico e maior que zero.")
	}
	if input.Date.IsZero() {
		return validationf("Data invalida. Use o formato YYYY-MM-DD.")
	}

	amount, err := s.convertUSD(ctx, ticker, input.Amount)
	if err != nil {
		return err
	}

	income := &models.Income{
		PortfolioID: portfolioID,
		Ticker:      ticker,
		Type:        incomeType,
		Amount:      amount,
		Date:        input.Date,
	}

	duplicate, err := s.store.Incomes().Exists(ctx, income)
	if err != nil {
		return err
	}
	if duplicate {
		return validationf("Provento duplicado: ja existe um registro com esses mesmos dados.")
	}

	if _, err := s.store.Assets().Get(ctx, ticker); err != nil {
		if err == badgerhold.ErrNotFound {
			return validationf("Ticker nao cadastrado. Lance uma transacao primeiro.")
		}
		return err
	}

	if err := s.store.Incomes().Insert(ctx, income); err != nil {
		return err
	}
	s.logger.Info().Str("ticker", ticker).Str("type", string(incomeType)).Int("portfolio", int(portfolioID)).Msg("income recorded")
	return nil
}

// DeleteTransactions removes the given entries from the selected portfolios
// and returns how many were removed.
func (s *Service) DeleteTransactions(ctx context.Context, ids []uint64, portfolioIDs []uint64) (int, error) {
	seqs := dedupePositive(ids)
	if len(seqs) == 0 {
		return 0, nil
	}
	pids, err := s.NormalizePortfolioIDs(ctx, portfolioIDs)
	if err != nil {
		return 0, err
	}
	return s.store.Transactions().Delete(ctx, seqs, pids)
}

// DeleteIncomes removes the given entries from the selected portfolios and
// returns how many were removed.
func (s *Service) DeleteIncomes(ctx context.Context, ids []uint64, portfolioIDs []uint64) (int, error) {
	seqs := dedupePositive(ids)
	if len(seqs) == 0 {
		return 0, nil
	}
	pids, err := s.NormalizePortfolioIDs(ctx, portfolioIDs)
	if err != nil {
		return 0, err
	}
	return s.store.Incomes().Delete(ctx, seqs, pids)
}

// Transactions lists the ledger entries of the selected portfolios.
func (s *Service) Transactions(ctx context.Context, portfolioIDs []uint64) ([]*models.Transaction, error) {
	pids, err := s.NormalizePortfolioIDs(ctx, portfolioIDs)
	if err != nil {
		return nil, err
	}
	return s.store.Transactions().ListByPortfolios(ctx, pids)
}

// Incomes lists the income entries of the selected portfolios.
func (s *Service) Incomes(ctx context.Context, portfolioIDs []uint64) ([]*models.Income, error) {
	pids, err := s.NormalizePortfolioIDs(ctx, portfolioIDs)
	if err != nil {
		return nil, err
	}
	return s.store.Incomes().ListByPortfolios(ctx, pids)
}

// dedupePositive keeps the positive, first-seen identifiers.
func dedupePositive(ids []uint64) []uint64 {
	var result []uint64
	seen := make(map[uint64]bool)
	for _, id := range ids {
		if id > 0 && !seen[id] {
			result = append(result, id)
			seen[id] = true
		}
	}
	return result
}
