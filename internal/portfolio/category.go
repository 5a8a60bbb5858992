package portfolio

import (
	"strings"

	"github.com/carteiralab/carteira/internal/market"
	"github.com/carteiralab/carteira/internal/models"
)

// fiiSectors are the provider sectors that mark a B3 "11" ticker as a real
// estate fund.
var fiiSectors = map[string]bool{
	"REAL ESTATE":         true,
	"FUNDOS IMOBILIARIOS": true,
}

// Categorize buckets a position. Rules are mutually exclusive, first match
// wins: crypto, then B3 real estate funds, then US equities, then the
// default local equity bucket.
func Categorize(ticker, name, sector string) models.Category {
	tickerUp := strings.ToUpper(ticker)
	nameUp := strings.ToUpper(name)
	sectorUp := strings.ToUpper(sector)

	if strings.Contains(tickerUp, "-USD") || strings.HasSuffix(tickerUp, "USDT") ||
		strings.Contains(sectorUp, "CRYPTO") || strings.Contains(nameUp, "CRYPTO") {
		return models.CategoryCrypto
	}

	if strings.HasSuffix(tickerUp, "11") &&
		(strings.Contains(nameUp, "FII") || strings.Contains(nameUp, "IMOBILI") ||
			strings.Contains(nameUp, "REIT") || fiiSectors[sectorUp]) {
		return models.CategoryFIIs
	}

	if market.IsUSTicker(tickerUp) {
		return models.CategoryUSStocks
	}

	return models.CategoryBRStocks
}
