package ledger

import (
	"time"

	"balcao-system/internal/database/models"
)

// SweepOverdue reclassifies open installments whose due date has passed.
// Only to_pay flips to overdue; paid is terminal and overdue stays overdue,
// so sweeping twice with the same clock is a no-op. The input slice is
// mutated in place and the flipped installments are returned for the caller
// to persist and announce.
func SweepOverdue(installments []models.BillInstallment, now time.Time) []models.BillInstallment {
	var flipped []models.BillInstallment
	for i := range installments {
		if installments[i].Status != models.InstallmentToPay {
			continue
		}
		if installments[i].DueDate.Before(now) {
			installments[i].Status = models.InstallmentOverdue
			flipped = append(flipped, installments[i])
		}
	}
	return flipped
}
