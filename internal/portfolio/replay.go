package portfolio

import "github.com/carteiralab/carteira/internal/models"

// costState is the replayed moving weighted-average position of one ticker:
// held shares and the open cost basis.
type costState struct {
	Shares float64
	Cost   float64
}

// apply replays one ledger entry. Buys add shares at their cost; sells
// reduce the cost basis at the current average price. Sells beyond the held
// quantity are clamped so shares and cost never go negative.
func (s *costState) apply(tx *models.Transaction) {
	if tx.Type == models.TransactionBuy {
		s.Cost += tx.Shares * tx.Price
		s.Shares += tx.Shares
		return
	}

	if s.Shares <= 0 {
		return
	}
	avg := s.Cost / s.Shares
	sold := tx.Shares
	if sold > s.Shares {
		sold = s.Shares
	}
	s.Shares -= sold
	s.Cost -= avg * sold
	if s.Shares == 0 {
		s.Cost = 0
	}
}

// replay folds a (date, seq)-ordered ledger into one position state.
func replay(txs []*models.Transaction) costState {
	var state costState
	for _, tx := range txs {
		state.apply(tx)
	}
	return state
}

// replayByTicker folds a (date, seq)-ordered ledger into per-ticker
// position states.
func replayByTicker(txs []*models.Transaction) map[string]costState {
	states := make(map[string]costState)
	for _, tx := range txs {
		state := states[tx.Ticker]
		state.apply(tx)
		states[tx.Ticker] = state
	}
	return states
}
