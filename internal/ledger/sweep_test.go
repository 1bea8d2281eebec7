package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balcao-system/internal/database/models"
)

func TestSweepOverdue_FlipsOnlyPastOpenInstallments(t *testing.T) {
	insts, err := ScheduleInstallments(1, decimal.RequireFromString("100.00"), 3,
		date(2024, time.January, 15), date(2024, time.January, 1))
	require.NoError(t, err)

	now := date(2024, time.February, 20)
	flipped := SweepOverdue(insts, now)

	require.Len(t, flipped, 2)
	assert.Equal(t, models.InstallmentOverdue, insts[0].Status)
	assert.Equal(t, models.InstallmentOverdue, insts[1].Status)
	assert.Equal(t, models.InstallmentToPay, insts[2].Status)
}

func TestSweepOverdue_Idempotent(t *testing.T) {
	insts, err := ScheduleInstallments(1, decimal.RequireFromString("100.00"), 3,
		date(2024, time.January, 15), date(2024, time.January, 1))
	require.NoError(t, err)

	now := date(2024, time.February, 20)
	first := SweepOverdue(insts, now)
	second := SweepOverdue(insts, now)

	assert.Len(t, first, 2)
	assert.Empty(t, second)
}

func TestSweepOverdue_PaidIsTerminal(t *testing.T) {
	paidAt := date(2024, time.January, 20)
	insts := []models.BillInstallment{
		{Status: models.InstallmentPaid, DueDate: date(2024, time.January, 15), PaymentDate: &paidAt},
	}

	flipped := SweepOverdue(insts, date(2024, time.June, 1))
	assert.Empty(t, flipped)
	assert.Equal(t, models.InstallmentPaid, insts[0].Status)
}

func TestSweepOverdue_DueTodayIsNotOverdue(t *testing.T) {
	due := date(2024, time.March, 1)
	insts := []models.BillInstallment{{Status: models.InstallmentToPay, DueDate: due}}

	flipped := SweepOverdue(insts, due)
	assert.Empty(t, flipped)
	assert.Equal(t, models.InstallmentToPay, insts[0].Status)
}
