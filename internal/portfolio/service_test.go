package portfolio

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/carteiralab/carteira/internal/common"
	"github.com/carteiralab/carteira/internal/fixedincome"
	"github.com/carteiralab/carteira/internal/interfaces"
	"github.com/carteiralab/carteira/internal/market"
	"github.com/carteiralab/carteira/internal/models"
	"github.com/carteiralab/carteira/internal/storage/badger"
)

// fakeProvider serves canned profiles and never returns market metrics.
type fakeProvider struct {
	profiles map[string]*models.AssetProfile
}

func (p *fakeProvider) FetchMetrics(context.Context, string) (*models.QuoteMetrics, error) {
	return nil, nil
}

func (p *fakeProvider) FetchProfile(_ context.Context, ticker string) (*models.AssetProfile, error) {
	if profile, ok := p.profiles[strings.ToUpper(ticker)]; ok {
		return profile, nil
	}
	return &models.AssetProfile{}, nil
}

func (p *fakeProvider) FetchPriceHistory(_ context.Context, _, rangeKey string) (*models.PriceHistory, error) {
	return &models.PriceHistory{RangeKey: rangeKey, Labels: []string{}, Prices: []float64{}}, nil
}

type fakeRater struct {
	rate float64
	ok   bool
}

func (r fakeRater) Rate(context.Context) (float64, bool) { return r.rate, r.ok }

// flatCompounder always reports no series data, so projections use the flat
// annualized fallback.
type flatCompounder struct{}

func (flatCompounder) Compound(context.Context, int, time.Time, time.Time, float64, int) (float64, bool) {
	return 1.0, false
}

func testProfiles() map[string]*models.AssetProfile {
	return map[string]*models.AssetProfile{
		"PETR4":   {Name: "Petrobras", Sector: "Energy"},
		"MXRF11":  {Name: "Maxi Renda FII", Sector: ""},
		"AAPL":    {Name: "Apple Inc.", Sector: "Technology"},
		"BTC-USD": {Name: "Bitcoin USD", Sector: ""},
	}
}

func newTestService(t *testing.T, rater market.UsdBrlRater) (*Service, interfaces.StorageManager) {
	t.Helper()

	logger := common.NewSilentLogger()
	store, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine := fixedincome.NewEngine(flatCompounder{}, &common.BCBConfig{OvernightSeries: 11, InflationSeries: 433}, logger)
	svc := NewService(store, &fakeProvider{profiles: testProfiles()}, rater, engine, logger)

	if _, err := svc.CreatePortfolio(context.Background(), "Principal"); err != nil {
		t.Fatalf("failed to create default portfolio: %v", err)
	}
	return svc, store
}

func mustAddTx(t *testing.T, svc *Service, input TransactionInput) {
	t.Helper()
	if err := svc.AddTransaction(context.Background(), input); err != nil {
		t.Fatalf("AddTransaction(%+v) failed: %v", input, err)
	}
}

func wantValidation(t *testing.T, err error, message string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected validation error %q, got nil", message)
	}
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != message {
		t.Fatalf("error = %q, want %q", err.Error(), message)
	}
}

func TestCreatePortfolio_Rules(t *testing.T) {
	svc, _ := newTestService(t, fakeRater{5, true})
	ctx := context.Background()

	if _, err := svc.CreatePortfolio(ctx, "  "); !IsValidationError(err) {
		t.Errorf("blank name: got %v", err)
	}
	// Names are unique case-insensitively.
	_, err := svc.CreatePortfolio(ctx, "principal")
	wantValidation(t, err, "Ja existe uma carteira com esse nome.")

	p, err := svc.CreatePortfolio(ctx, "Aposentadoria")
	if err != nil {
		t.Fatalf("CreatePortfolio failed: %v", err)
	}
	if p.Seq == 0 || p.Name != "Aposentadoria" {
		t.Errorf("unexpected portfolio %+v", p)
	}
}

func TestDeletePortfolio_Rules(t *testing.T) {
	svc, _ := newTestService(t, fakeRater{5, true})
	ctx := context.Background()

	def, err := svc.DefaultPortfolioID(ctx)
	if err != nil {
		t.Fatalf("DefaultPortfolioID failed: %v", err)
	}

	_, err = svc.DeletePortfolio(ctx, def)
	wantValidation(t, err, "Nao e possivel remover a unica carteira. Crie outra primeiro.")

	second, err := svc.CreatePortfolio(ctx, "Segunda")
	if err != nil {
		t.Fatalf("CreatePortfolio failed: %v", err)
	}

	mustAddTx(t, svc, TransactionInput{
		PortfolioID: second.Seq, Ticker: "PETR4", Type: "buy",
		Shares: 10, Price: 30, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	_, err = svc.DeletePortfolio(ctx, second.Seq)
	wantValidation(t, err, "Carteira com lancamentos nao pode ser removida. Remova transacoes/proventos primeiro.")

	empty, err := svc.CreatePortfolio(ctx, "Vazia")
	if err != nil {
		t.Fatalf("CreatePortfolio failed: %v", err)
	}
	name, err := svc.DeletePortfolio(ctx, empty.Seq)
	if err != nil {
		t.Fatalf("DeletePortfolio failed: %v", err)
	}
	if name != "Vazia" {
		t.Errorf("deleted name = %q, want Vazia", name)
	}
}

func TestSetDefaultPortfolio(t *testing.T) {
	svc, _ := newTestService(t, fakeRater{5, true})
	ctx := context.Background()

	first, err := svc.DefaultPortfolioID(ctx)
	if err != nil {
		t.Fatalf("DefaultPortfolioID failed: %v", err)
	}

	err = svc.SetDefaultPortfolio(ctx, 999)
	wantValidation(t, err, "Carteira nao encontrada.")

	second, err := svc.CreatePortfolio(ctx, "Segunda")
	if err != nil {
		t.Fatalf("CreatePortfolio failed: %v", err)
	}
	if err := svc.SetDefaultPortfolio(ctx, second.Seq); err != nil {
		t.Fatalf("SetDefaultPortfolio failed: %v", err)
	}
	if got, _ := svc.DefaultPortfolioID(ctx); got != second.Seq {
		t.Errorf("default = %d, want %d", got, second.Seq)
	}

	// Deleting the preferred portfolio reverts the default to the lowest id.
	if _, err := svc.DeletePortfolio(ctx, second.Seq); err != nil {
		t.Fatalf("DeletePortfolio failed: %v", err)
	}
	if got, _ := svc.DefaultPortfolioID(ctx); got != first {
		t.Errorf("default after delete = %d, want %d", got, first)
	}
}

func TestAddTransaction_Validations(t *testing.T) {
	svc, _ := newTestService(t, fakeRater{5, true})
	ctx := context.Background()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	err := svc.AddTransaction(ctx, TransactionInput{Ticker: " ", Type: "buy", Shares: 1, Price: 1, Date: date})
	wantValidation(t, err, "Ticker e obrigatorio.")

	err = svc.AddTransaction(ctx, TransactionInput{Ticker: "PETR4", Type: "short", Shares: 1, Price: 1, Date: date})
	wantValidation(t, err, "Tipo de transacao invalido.")

	err = svc.AddTransaction(ctx, TransactionInput{Ticker: "PETR4", Type: "buy", Shares: 0, Price: 1, Date: date})
	wantValidation(t, err, "Quantidade precisa ser maior que zero.")

	err = svc.AddTransaction(ctx, TransactionInput{Ticker: "PETR4", Type: "buy", Shares: 1, Price: -2, Date: date})
	wantValidation(t, err, "Preco precisa ser numerico e maior que zero.")

	err = svc.AddTransaction(ctx, TransactionInput{Ticker: "PETR4", Type: "buy", Shares: 1, Price: 1})
	wantValidation(t, err, "Data invalida. Use o formato YYYY-MM-DD.")

	err = svc.AddTransaction(ctx, TransactionInput{Ticker: "PETR4", Type: "sell", Shares: 5, Price: 30, Date: date})
	wantValidation(t, err, "Venda maior que a quantidade em carteira.")
}

func TestAddTransaction_CreatesAssetAndDetectsDuplicates(t *testing.T) {
	svc, store := newTestService(t, fakeRater{5, true})
	ctx := context.Background()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	input := TransactionInput{Ticker: "petr4", Type: "buy", Shares: 10, Price: 30, Date: date}
	mustAddTx(t, svc, input)

	asset, err := store.Assets().Get(ctx, "PETR4")
	if err != nil {
		t.Fatalf("asset not created: %v", err)
	}
	if asset.Name != "Petrobras" || asset.Sector != "Energy" || asset.Price != 30 {
		t.Errorf("unexpected asset %+v", asset)
	}

	err = svc.AddTransaction(ctx, input)
	wantValidation(t, err, "Transacao duplicada: ja existe um registro com esses mesmos dados.")

	// Selling exactly the held quantity is allowed; one share more is not.
	err = svc.AddTransaction(ctx, TransactionInput{Ticker: "PETR4", Type: "sell", Shares: 11, Price: 35, Date: date.AddDate(0, 1, 0)})
	wantValidation(t, err, "Venda maior que a quantidade em carteira.")
	mustAddTx(t, svc, TransactionInput{Ticker: "PETR4", Type: "sell", Shares: 10, Price: 35, Date: date.AddDate(0, 1, 0)})
}

func TestAddTransaction_ConvertsUSD(t *testing.T) {
	svc, store := newTestService(t, fakeRater{5, true})
	ctx := context.Background()
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	mustAddTx(t, svc, TransactionInput{Ticker: "AAPL", Type: "buy", Shares: 2, Price: 100, Date: date})

	txs, err := svc.Transactions(ctx, nil)
	if err != nil {
		t.Fatalf("Transactions failed: %v", err)
	}
	if len(txs) != 1 || txs[0].Price != 500 {
		t.Fatalf("expected stored price 500 BRL, got %+v", txs)
	}
	asset, err := store.Assets().Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("asset not created: %v", err)
	}
	if asset.Price != 500 {
		t.Errorf("asset price = %v, want 500", asset.Price)
	}

	// Crypto pairs are USD-quoted on the provider side but ledger entries
	// pass through unconverted.
	mustAddTx(t, svc, TransactionInput{Ticker: "BTC-USD", Type: "buy", Shares: 0.1, Price: 200000, Date: date})
	txs, err = svc.Transactions(ctx, nil)
	if err != nil {
		t.Fatalf("Transactions failed: %v", err)
	}
	for _, tx := range txs {
		if tx.Ticker == "BTC-USD" && tx.Price != 200000 {
			t.Errorf("BTC-USD price = %v, want 200000", tx.Price)
		}
	}
}

func TestAddTransaction_USDWithoutRateFails(t *testing.T) {
	svc, _ := newTestService(t, fakeRater{0, false})
	ctx := context.Background()

	err := svc.AddTransaction(ctx, TransactionInput{
		Ticker: "AAPL", Type: "buy", Shares: 1, Price: 100,
		Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	wantValidation(t, err, "Nao foi possivel obter cotacao USD/BRL para converter ativo dos EUA.")
}

func TestAddIncome_Rules(t *testing.T) {
	svc, _ := newTestService(t, fakeRater{5, true})
	ctx := context.Background()
	date := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)

	err := svc.AddIncome(ctx, IncomeInput{Ticker: "PETR4", Type: "bonus", Amount: 10, Date: date})
	wantValidation(t, err, "Tipo de provento invalido.")

	err = svc.AddIncome(ctx, IncomeInput{Ticker: "PETR4", Type: "dividend", Amount: 10, Date: date})
	wantValidation(t, err, "Ticker nao cadastrado. Lance uma transacao primeiro.")

	mustAddTx(t, svc, TransactionInput{Ticker: "PETR4", Type: "buy", Shares: 10, Price: 30, Date: date.AddDate(0, -1, 0)})

	input := IncomeInput{Ticker: "PETR4", Type: "dividend", Amount: 50, Date: date}
	if err := svc.AddIncome(ctx, input); err != nil {
		t.Fatalf("AddIncome failed: %v", err)
	}
	err = svc.AddIncome(ctx, input)
	wantValidation(t, err, "Provento duplicado: ja existe um registro com esses mesmos dados.")
}

func TestAddFixedIncome_ComponentRules(t *testing.T) {
	svc, _ := newTestService(t, fakeRater{5, true})
	ctx := context.Background()

	base := FixedIncomeInput{
		Distributor: "XP", Issuer: "Tesouro Nacional", InvestmentType: "TESOURO",
		Contribution: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Amount:       2000,
		Maturity:     time.Date(2029, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	// Populating a component the rate type does not use is rejected with the
	// expected component list.
	input := base
	input.RateType = "FIXED+INFLATION"
	input.RateFixed = 6
	input.RateOvernight = 100
	err := svc.AddFixedIncome(ctx, input)
	wantValidation(t, err, "Para o tipo FIXED+INFLATION, preencha somente: FIXED, INFLATION.")

	// Hybrid types cannot use the legacy single-rate layout.
	input = base
	input.RateType = "FIXED+INFLATION"
	input.AnnualRate = 8
	err = svc.AddFixedIncome(ctx, input)
	wantValidation(t, err, "Para o tipo FIXED+INFLATION, informe os percentuais de cada componente.")

	// Legacy layout is fine for the simple types.
	input = base
	input.RateType = "OVERNIGHT"
	input.AnnualRate = 110
	if err := svc.AddFixedIncome(ctx, input); err != nil {
		t.Fatalf("legacy layout rejected: %v", err)
	}

	// Proper hybrid layout.
	input = base
	input.Issuer = "Banco Master"
	input.RateType = "FIXED+INFLATION"
	input.RateFixed = 6
	input.RateInflation = 100
	if err := svc.AddFixedIncome(ctx, input); err != nil {
		t.Fatalf("hybrid layout rejected: %v", err)
	}

	items, err := svc.ListFixedIncomes(ctx, nil, "", "")
	if err != nil {
		t.Fatalf("ListFixedIncomes failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 records, got %d", len(items))
	}
	// The hybrid record stores the component sum as its annual rate.
	for _, item := range items {
		if item.Record.RateType == models.RateFixedInflation && item.Record.AnnualRate != 106 {
			t.Errorf("hybrid annual rate = %v, want 106", item.Record.AnnualRate)
		}
	}

	summary, err := svc.FixedIncomeSummary(ctx, nil)
	if err != nil {
		t.Fatalf("FixedIncomeSummary failed: %v", err)
	}
	if summary.Count != 2 || summary.AppliedTotal != 4000 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestSnapshot(t *testing.T) {
	svc, store := newTestService(t, fakeRater{5, true})
	ctx := context.Background()

	mustAddTx(t, svc, TransactionInput{Ticker: "PETR4", Type: "buy", Shares: 10, Price: 30, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)})
	mustAddTx(t, svc, TransactionInput{Ticker: "MXRF11", Type: "buy", Shares: 100, Price: 10, Date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)})
	mustAddTx(t, svc, TransactionInput{Ticker: "AAPL", Type: "buy", Shares: 2, Price: 100, Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)})
	mustAddTx(t, svc, TransactionInput{Ticker: "BTC-USD", Type: "buy", Shares: 0.1, Price: 200000, Date: time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)})

	if err := svc.AddIncome(ctx, IncomeInput{Ticker: "PETR4", Type: "dividend", Amount: 50, Date: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("AddIncome failed: %v", err)
	}
	if err := svc.AddIncome(ctx, IncomeInput{Ticker: "MXRF11", Type: "rent", Amount: 12, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("AddIncome failed: %v", err)
	}

	// Simulate a market refresh moving PETR4 and MXRF11.
	asset, err := store.Assets().Get(ctx, "PETR4")
	if err != nil {
		t.Fatal(err)
	}
	asset.Price = 40
	asset.DividendYield = 12
	if err := store.Assets().Upsert(ctx, asset); err != nil {
		t.Fatal(err)
	}
	asset, err = store.Assets().Get(ctx, "MXRF11")
	if err != nil {
		t.Fatal(err)
	}
	asset.Price = 10.5
	if err := store.Assets().Upsert(ctx, asset); err != nil {
		t.Fatal(err)
	}

	snap, err := svc.Snapshot(ctx, nil, "", "")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	// PETR4 400 + MXRF11 1050 + AAPL 1000 + BTC 20000.
	if snap.TotalValue != 22450 {
		t.Errorf("TotalValue = %v, want 22450", snap.TotalValue)
	}
	if snap.InvestedValue != 22300 {
		t.Errorf("InvestedValue = %v, want 22300", snap.InvestedValue)
	}
	if snap.TotalIncomes != 62 {
		t.Errorf("TotalIncomes = %v, want 62", snap.TotalIncomes)
	}
	if snap.OpenPnLValue != 150 {
		t.Errorf("OpenPnLValue = %v, want 150", snap.OpenPnLValue)
	}

	for category, want := range map[models.Category]int{
		models.CategoryBRStocks: 1,
		models.CategoryFIIs:     1,
		models.CategoryUSStocks: 1,
		models.CategoryCrypto:   1,
	} {
		if got := len(snap.Grouped[category]); got != want {
			t.Errorf("group %s has %d positions, want %d", category, got, want)
		}
	}
	if snap.GroupTotals[models.CategoryFIIs] != 1050 {
		t.Errorf("FII group total = %v, want 1050", snap.GroupTotals[models.CategoryFIIs])
	}
	fii := snap.GroupSummaries[models.CategoryFIIs]
	if fii.InvestedValue != 1000 || fii.OpenPnLValue != 50 || fii.TotalIncomes != 12 {
		t.Errorf("FII group summary = %+v", fii)
	}

	btc := snap.Grouped[models.CategoryCrypto][0]
	if btc.Weight != common.Round2(20000.0/22450*100) {
		t.Errorf("BTC weight = %v", btc.Weight)
	}

	// Only PETR4 carries a dividend yield: 400 * 12% / 12 = 4 per month.
	if snap.MonthlyDividends != 4 {
		t.Errorf("MonthlyDividends = %v, want 4", snap.MonthlyDividends)
	}
	if snap.SortBy != "value" || snap.SortDir != "desc" {
		t.Errorf("sort echo = %s/%s, want value/desc", snap.SortBy, snap.SortDir)
	}
}

func TestSnapshot_ClosedPositionsExcluded(t *testing.T) {
	svc, _ := newTestService(t, fakeRater{5, true})
	ctx := context.Background()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mustAddTx(t, svc, TransactionInput{Ticker: "PETR4", Type: "buy", Shares: 10, Price: 30, Date: date})
	mustAddTx(t, svc, TransactionInput{Ticker: "PETR4", Type: "sell", Shares: 10, Price: 35, Date: date.AddDate(0, 1, 0)})

	snap, err := svc.Snapshot(ctx, nil, "", "")
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Positions) != 0 {
		t.Errorf("closed position leaked into snapshot: %+v", snap.Positions)
	}
	if snap.TotalValue != 0 {
		t.Errorf("TotalValue = %v, want 0", snap.TotalValue)
	}
}

func TestPositionSummary(t *testing.T) {
	svc, store := newTestService(t, fakeRater{5, true})
	ctx := context.Background()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	// Unknown ticker yields the zero summary, not an error.
	zero, err := svc.PositionSummary(ctx, "GHOST3", nil)
	if err != nil {
		t.Fatalf("PositionSummary failed: %v", err)
	}
	if zero.Shares != 0 || zero.MarketValue != 0 {
		t.Errorf("expected zero summary, got %+v", zero)
	}

	mustAddTx(t, svc, TransactionInput{Ticker: "PETR4", Type: "buy", Shares: 10, Price: 30, Date: date})
	if err := svc.AddIncome(ctx, IncomeInput{Ticker: "PETR4", Type: "dividend", Amount: 50, Date: date.AddDate(0, 1, 0)}); err != nil {
		t.Fatalf("AddIncome failed: %v", err)
	}
	asset, err := store.Assets().Get(ctx, "PETR4")
	if err != nil {
		t.Fatal(err)
	}
	asset.Price = 40
	if err := store.Assets().Upsert(ctx, asset); err != nil {
		t.Fatal(err)
	}

	summary, err := svc.PositionSummary(ctx, "petr4", nil)
	if err != nil {
		t.Fatalf("PositionSummary failed: %v", err)
	}
	if summary.Shares != 10 || summary.AvgPrice != 30 || summary.TotalValue != 300 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.MarketValue != 400 || summary.OpenPnLValue != 100 {
		t.Errorf("unexpected valuation %+v", summary)
	}
	if summary.OpenPnLPct != common.Round2(100.0/300*100) {
		t.Errorf("OpenPnLPct = %v", summary.OpenPnLPct)
	}
	if summary.TotalIncomes != 50 {
		t.Errorf("TotalIncomes = %v, want 50", summary.TotalIncomes)
	}
}

func TestMonthlySummary(t *testing.T) {
	svc, _ := newTestService(t, fakeRater{5, true})
	ctx := context.Background()

	mustAddTx(t, svc, TransactionInput{Ticker: "PETR4", Type: "buy", Shares: 10, Price: 30, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)})
	mustAddTx(t, svc, TransactionInput{Ticker: "MXRF11", Type: "buy", Shares: 100, Price: 10, Date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)})
	// US equities stay out of the monthly view.
	mustAddTx(t, svc, TransactionInput{Ticker: "AAPL", Type: "buy", Shares: 2, Price: 100, Date: time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)})

	if err := svc.AddIncome(ctx, IncomeInput{Ticker: "PETR4", Type: "dividend", Amount: 50, Date: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("AddIncome failed: %v", err)
	}

	rows, err := svc.MonthlySummary(ctx, nil)
	if err != nil {
		t.Fatalf("MonthlySummary failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}

	jan := rows[0]
	if jan.Label != "jan/24" {
		t.Errorf("label = %q, want jan/24", jan.Label)
	}
	if jan.BRInvested != 300 || jan.TotalInvested != 300 {
		t.Errorf("january row = %+v", jan)
	}

	fev := rows[1]
	if fev.Label != "fev/24" {
		t.Errorf("label = %q, want fev/24", fev.Label)
	}
	if fev.FIIInvested != 1000 || fev.BRIncomes != 50 {
		t.Errorf("february row = %+v", fev)
	}
	if fev.TotalInvested != 1000 || fev.TotalIncomes != 50 {
		t.Errorf("february totals = %+v", fev)
	}
}

func TestDeleteTransactionsAndIncomes(t *testing.T) {
	svc, _ := newTestService(t, fakeRater{5, true})
	ctx := context.Background()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mustAddTx(t, svc, TransactionInput{Ticker: "PETR4", Type: "buy", Shares: 10, Price: 30, Date: date})
	if err := svc.AddIncome(ctx, IncomeInput{Ticker: "PETR4", Type: "jcp", Amount: 20, Date: date}); err != nil {
		t.Fatalf("AddIncome failed: %v", err)
	}

	txs, err := svc.Transactions(ctx, nil)
	if err != nil {
		t.Fatalf("Transactions failed: %v", err)
	}
	// Duplicated and zero ids are tolerated.
	removed, err := svc.DeleteTransactions(ctx, []uint64{txs[0].Seq, txs[0].Seq, 0}, nil)
	if err != nil {
		t.Fatalf("DeleteTransactions failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	incomes, err := svc.Incomes(ctx, nil)
	if err != nil {
		t.Fatalf("Incomes failed: %v", err)
	}
	removed, err = svc.DeleteIncomes(ctx, []uint64{incomes[0].Seq}, nil)
	if err != nil {
		t.Fatalf("DeleteIncomes failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if removed, err = svc.DeleteTransactions(ctx, nil, nil); err != nil || removed != 0 {
		t.Errorf("empty delete = (%d, %v), want (0, nil)", removed, err)
	}
}

func TestNormalizePortfolioIDs(t *testing.T) {
	svc, _ := newTestService(t, fakeRater{5, true})
	ctx := context.Background()

	def, err := svc.DefaultPortfolioID(ctx)
	if err != nil {
		t.Fatalf("DefaultPortfolioID failed: %v", err)
	}
	second, err := svc.CreatePortfolio(ctx, "Segunda")
	if err != nil {
		t.Fatalf("CreatePortfolio failed: %v", err)
	}

	ids, err := svc.NormalizePortfolioIDs(ctx, []uint64{second.Seq, 999, second.Seq, def})
	if err != nil {
		t.Fatalf("NormalizePortfolioIDs failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != second.Seq || ids[1] != def {
		t.Errorf("ids = %v, want [%d %d]", ids, second.Seq, def)
	}

	// Nothing valid falls back to the default portfolio.
	ids, err = svc.NormalizePortfolioIDs(ctx, []uint64{999})
	if err != nil {
		t.Fatalf("NormalizePortfolioIDs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != def {
		t.Errorf("fallback ids = %v, want [%d]", ids, def)
	}
}
