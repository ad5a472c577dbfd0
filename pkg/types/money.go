package types

import "github.com/shopspring/decimal"

// CentsToDecimal converts an integer cent amount to a currency decimal.
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatCents renders a cent amount as a fixed two-decimal string, e.g. "11.00".
func FormatCents(cents int64) string {
	return CentsToDecimal(cents).StringFixed(2)
}

// AverageCents returns the mean of total cents over count, rounded to a cent.
// Returns zero when count is zero.
func AverageCents(totalCents int64, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return CentsToDecimal(totalCents).Div(decimal.NewFromInt(count)).Round(2)
}
