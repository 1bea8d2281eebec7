package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Monetary values are persisted as 2-decimal strings (BRL semantics) and all
// arithmetic runs through shopspring/decimal, never float64.

// ParseAmount parses a stored or user-supplied monetary string.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: bad amount %q", ErrInvalidInput, s)
	}
	return d, nil
}

// ParsePositiveAmount parses an amount that must be strictly greater than zero.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidInput, s)
	}
	return d, nil
}

// FormatAmount renders an amount the way it is stored: fixed two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// SplitEven divides total into n two-decimal parts. The last part absorbs
// the rounding remainder so the parts always sum back to total exactly.
func SplitEven(total decimal.Decimal, n int) []decimal.Decimal {
	if n < 1 {
		return nil
	}
	base := total.Div(decimal.NewFromInt(int64(n))).RoundBank(2)
	parts := make([]decimal.Decimal, n)
	running := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = base
		running = running.Add(base)
	}
	parts[n-1] = total.Sub(running)
	return parts
}

// SumAmounts adds a list of stored amount strings. Malformed entries are a
// persistence-level defect, so they are reported rather than skipped.
func SumAmounts(amounts []string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range amounts {
		d, err := ParseAmount(a)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(d)
	}
	return sum, nil
}
