package utils

import "github.com/shopspring/decimal"

// FormatFloat renders f rounded to places, dropping trailing zeros.
func FormatFloat(f float64, places int32) string {
	return decimal.NewFromFloat(f).Round(places).String()
}

func FormatPercent(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(1) + "%"
}

// FormatCompact shortens large magnitudes with K, M, B and T suffixes.
func FormatCompact(f float64) string {
	d := decimal.NewFromFloat(f)
	abs := d.Abs()

	units := []struct {
		suffix string
		size   decimal.Decimal
	}{
		{"T", decimal.New(1, 12)},
		{"B", decimal.New(1, 9)},
		{"M", decimal.New(1, 6)},
		{"K", decimal.New(1, 3)},
	}
	for _, u := range units {
		if abs.GreaterThanOrEqual(u.size) {
			return d.Div(u.size).Round(2).String() + u.suffix
		}
	}
	return d.Round(2).String()
}
