package domain

import "github.com/shopspring/decimal"

// DefaultCurrency is the only currency the store charges in.
const DefaultCurrency = "MXN"

// MinorToMajor converts centavos into the decimal amount expected by APIs that
// take major units.
func MinorToMajor(minor int64) float64 {
	return decimal.New(minor, -2).InexactFloat64()
}

// MajorToMinor converts a major-unit amount into centavos, rounding half away from zero.
func MajorToMinor(major float64) int64 {
	return decimal.NewFromFloat(major).Shift(2).Round(0).IntPart()
}

// FormatMoney renders centavos as "1234.50 MXN".
func FormatMoney(minor int64, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return decimal.New(minor, -2).StringFixed(2) + " " + currency
}
