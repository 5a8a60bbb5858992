package market

import (
	"context"
	"strings"

	"github.com/carteiralab/carteira/internal/models"
)

// FetchProfile fetches the display name and sector for a ticker. The sector
// fallback classifies obvious ETFs and B3 funds when the provider leaves the
// sector blank. Returns an empty profile on total provider failure.
func (c *Client) FetchProfile(ctx context.Context, ticker string) (*models.AssetProfile, error) {
	var name, sector string

	for _, symbol := range CandidateSymbols(ticker) {
		summary := c.fetchQuoteSummary(ctx, symbol)
		priceMod := sub(summary, "price")
		assetProfile := sub(summary, "assetProfile")

		if name == "" {
			name = strings.TrimSpace(firstStr(str(priceMod["longName"]), str(priceMod["shortName"])))
		}
		if sector == "" {
			sector = strings.TrimSpace(firstStr(str(assetProfile["sectorDisp"]), str(assetProfile["sector"])))
		}

		if name == "" || sector == "" {
			quote := c.fetchQuote(ctx, symbol)
			if quote != nil {
				if name == "" {
					name = strings.TrimSpace(firstStr(str(quote["longName"]), str(quote["shortName"])))
				}
				if sector == "" {
					sector = strings.TrimSpace(firstStr(str(quote["sectorDisp"]), str(quote["sector"])))
				}
			}
		}

		if name != "" && sector != "" {
			break
		}
	}

	// Some ETFs and B3 funds come back without a sector.
	if sector == "" {
		if strings.Contains(strings.ToUpper(name), "ETF") {
			sector = "ETF"
		} else if strings.HasSuffix(strings.ToUpper(ticker), "11") {
			sector = "Fundos/ETFs"
		}
	}

	return &models.AssetProfile{Name: name, Sector: sector}, nil
}

// firstStr returns the first non-empty string among candidates.
func firstStr(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
