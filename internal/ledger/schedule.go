package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"balcao-system/internal/database/models"
)

// ScheduleInstallments expands a bill into its installment records. The bill
// total is split evenly with the last installment absorbing the rounding
// remainder, and due dates advance one calendar month at a time from the
// first due date. The returned records carry no IDs; the caller persists
// them alongside the bill in the same transaction.
func ScheduleInstallments(billID int64, totalValue decimal.Decimal, count int, firstDue time.Time, now time.Time) ([]models.BillInstallment, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: installments_count must be >= 1, got %d", ErrInvalidInput, count)
	}
	if !totalValue.IsPositive() {
		return nil, fmt.Errorf("%w: total_value must be positive, got %s", ErrInvalidInput, totalValue)
	}

	values := SplitEven(totalValue, count)
	installments := make([]models.BillInstallment, count)
	for i := 0; i < count; i++ {
		due := AddMonthsClamped(firstDue, i)
		status := models.InstallmentToPay
		if due.Before(now) {
			status = models.InstallmentOverdue
		}
		installments[i] = models.BillInstallment{
			BillID:            billID,
			Number:            int32(i + 1),
			TotalInstallments: int32(count),
			Value:             FormatAmount(values[i]),
			DueDate:           due,
			Status:            status,
		}
	}
	return installments, nil
}

// AddMonthsClamped advances t by the given number of calendar months,
// clamping the day to the last valid day of the target month. A due date on
// the 31st therefore lands on the 30th (or 28th/29th) in shorter months
// instead of spilling into the following month, which is what time.AddDate
// would do.
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := lastDayOfMonth(firstOfTarget); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
