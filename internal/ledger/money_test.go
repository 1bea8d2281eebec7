package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositiveAmount(t *testing.T) {
	d, err := ParsePositiveAmount("10.50")
	require.NoError(t, err)
	assert.Equal(t, "10.50", FormatAmount(d))

	_, err = ParsePositiveAmount("0")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParsePositiveAmount("-3.10")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParsePositiveAmount("abc")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSplitEven_LastPartAbsorbsRemainder(t *testing.T) {
	parts := SplitEven(decimal.RequireFromString("100.00"), 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "33.33", FormatAmount(parts[0]))
	assert.Equal(t, "33.33", FormatAmount(parts[1]))
	assert.Equal(t, "33.34", FormatAmount(parts[2]))

	parts = SplitEven(decimal.RequireFromString("0.01"), 3)
	assert.Equal(t, "0.00", FormatAmount(parts[0]))
	assert.Equal(t, "0.00", FormatAmount(parts[1]))
	assert.Equal(t, "0.01", FormatAmount(parts[2]))
}

func TestSumAmounts(t *testing.T) {
	sum, err := SumAmounts([]string{"30.00", "45.00"})
	require.NoError(t, err)
	assert.Equal(t, "75.00", FormatAmount(sum))

	_, err = SumAmounts([]string{"30.00", "not-money"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
