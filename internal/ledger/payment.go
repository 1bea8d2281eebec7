package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"balcao-system/internal/database/models"
)

// SaleStatusFor derives a sale's status from its total and the payments
// recorded against it. Status is never stored independently of this rule.
// Overpayment simply clamps to settled; there is no credit-balance concept.
func SaleStatusFor(total decimal.Decimal, paid decimal.Decimal) models.SaleStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return models.SaleStatusSettled
	case paid.IsPositive():
		return models.SaleStatusPartial
	default:
		return models.SaleStatusPending
	}
}

// ApplySalePayment appends a payment to the sale and rederives its status.
// The payment amount must be positive; the payments list is append-only.
func ApplySalePayment(sale *models.Sale, payment models.SalePayment) error {
	amount, err := ParsePositiveAmount(payment.Amount)
	if err != nil {
		return err
	}
	total, err := ParseAmount(sale.TotalValue)
	if err != nil {
		return err
	}

	paid := amount
	for _, p := range sale.Payments {
		d, err := ParseAmount(p.Amount)
		if err != nil {
			return err
		}
		paid = paid.Add(d)
	}

	sale.Payments = append(sale.Payments, payment)
	sale.Status = SaleStatusFor(total, paid)
	return nil
}

// PayInstallment marks an installment paid and stamps the payment date.
// Paid is terminal: a second attempt fails with ErrAlreadyPaid.
func PayInstallment(inst *models.BillInstallment, now time.Time) error {
	if inst.Status == models.InstallmentPaid {
		return ErrAlreadyPaid
	}
	inst.Status = models.InstallmentPaid
	paidAt := now
	inst.PaymentDate = &paidAt
	return nil
}
