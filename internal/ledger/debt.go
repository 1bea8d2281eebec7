package ledger

import "github.com/shopspring/decimal"

// The debt accumulator keeps each customer's running balance in step with
// sales and payments instead of recomputing it from scratch. Any divergence
// between the stored balance and the sum of unsettled sales is a defect.

// AccrueDebt grows the balance when a sale is created. Debt accrues at sale
// time, not on delivery.
func AccrueDebt(current, saleTotal decimal.Decimal) decimal.Decimal {
	return current.Add(saleTotal)
}

// SettleDebt reduces the balance by a customer payment, floored at zero.
// Overpayment is absorbed; no credit note is produced.
func SettleDebt(current, payment decimal.Decimal) decimal.Decimal {
	next := current.Sub(payment)
	if next.IsNegative() {
		return decimal.Zero
	}
	return next
}

// ReverseDebt rolls back the unpaid remainder of a deleted sale. Payments
// already applied to the sale stay settled, so only total − paid comes off
// the balance, floored at zero.
func ReverseDebt(current, saleTotal, alreadyPaid decimal.Decimal) decimal.Decimal {
	outstanding := saleTotal.Sub(alreadyPaid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	return SettleDebt(current, outstanding)
}
