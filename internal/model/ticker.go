package model

import "strings"

// NormalizeTicker converts a raw exchange symbol into the form the market data provider expects.
// "BRK/A " becomes "BRK.A".
func NormalizeTicker(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "/", "."))
}

// UniqueTickers normalizes raw symbols and drops empty and repeated ones. First-seen order is kept.
func UniqueTickers(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	res := make([]string, 0, len(raw))

	for _, r := range raw {
		ticker := NormalizeTicker(r)
		if ticker == "" {
			continue
		}
		if _, ok := seen[ticker]; ok {
			continue
		}
		seen[ticker] = struct{}{}
		res = append(res, ticker)
	}

	return res
}

// ListedTicker is a universe member together with the exchange that lists it.
type ListedTicker struct {
	Ticker   string `json:"ticker"`
	Exchange string `json:"exchange"`
}

// Symbols returns the tickers of listed, normalized and de-duplicated.
func Symbols(listed []ListedTicker) []string {
	raw := make([]string, 0, len(listed))
	for _, l := range listed {
		raw = append(raw, l.Ticker)
	}
	return UniqueTickers(raw)
}
