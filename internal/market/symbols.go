package market

import "strings"

// IsUSTicker reports whether a ticker looks like a US-listed equity: short
// alphabetic symbol without the B3 fund suffix and not a crypto pair.
func IsUSTicker(ticker string) bool {
	up := strings.ToUpper(strings.TrimSpace(ticker))
	if up == "" {
		return false
	}
	if strings.HasSuffix(up, "11") {
		return false
	}
	if strings.HasSuffix(up, "USDT") || strings.HasSuffix(up, "-USD") {
		return false
	}
	clean := strings.ReplaceAll(up, ".", "")
	if len(clean) == 0 || len(clean) > 6 {
		return false
	}
	for _, r := range clean {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// IsUSDQuoted reports whether the provider quotes this ticker in USD, so its
// price and market cap need BRL conversion.
func IsUSDQuoted(ticker string) bool {
	up := strings.ToUpper(strings.TrimSpace(ticker))
	return strings.HasSuffix(up, "-USD") || IsUSTicker(up)
}

// ToYahooSymbol maps a bare B3 ticker to its provider symbol. Symbols that
// already carry a suffix or a crypto pair separator pass through unchanged.
func ToYahooSymbol(ticker string) string {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if strings.Contains(symbol, ".") || strings.Contains(symbol, "-") {
		return symbol
	}
	return symbol + ".SA"
}

// CandidateSymbols returns the provider symbols to try for a ticker, in
// order. US equities and crypto pairs query the original symbol only; B3
// tickers try the suffixed symbol first and the bare ticker second.
func CandidateSymbols(ticker string) []string {
	raw := strings.ToUpper(strings.TrimSpace(ticker))
	if raw == "" {
		return nil
	}
	if IsUSTicker(raw) || strings.HasSuffix(raw, "-USD") {
		return []string{raw}
	}
	symbols := []string{ToYahooSymbol(raw)}
	if !strings.Contains(raw, ".") && raw != symbols[0] {
		symbols = append(symbols, raw)
	}
	return symbols
}
