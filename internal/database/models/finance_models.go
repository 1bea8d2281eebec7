package models

import "time"

type SaleStatus string

const (
	SaleStatusPending SaleStatus = "pending"
	SaleStatusPartial SaleStatus = "partial"
	SaleStatusSettled SaleStatus = "settled"
)

type PaymentType string

const (
	PaymentTypeSingle      PaymentType = "single"
	PaymentTypeInstallment PaymentType = "installment"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodDebit    PaymentMethod = "debit"
	PaymentMethodCredit   PaymentMethod = "credit"
	PaymentMethodPix      PaymentMethod = "pix"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodDebit, PaymentMethodCredit,
		PaymentMethodPix, PaymentMethodTransfer:
		return true
	}
	return false
}

type InstallmentStatus string

const (
	InstallmentToPay   InstallmentStatus = "to_pay"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue"
)

type Sale struct {
	ID         int64       `gorm:"primaryKey;autoIncrement"`
	CustomerID int64       `gorm:"index;not null"`
	TotalValue string      `gorm:"type:decimal(18,2);not null"`
	Profit     string      `gorm:"type:decimal(18,2);not null"`
	SaleDate   time.Time   `gorm:"not null"`
	Type       PaymentType `gorm:"type:varchar(16);not null"`

	// Installments is informational for installment sales; payments against
	// the sale remain free-form amounts.
	Installments int32      `gorm:"not null;default:1"`
	Status       SaleStatus `gorm:"type:varchar(16);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Customer *Customer     `gorm:"foreignKey:CustomerID"`
	Items    []SaleItem    `gorm:"foreignKey:SaleID"`
	Payments []SalePayment `gorm:"foreignKey:SaleID"`
}

type SaleItem struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	SaleID    int64 `gorm:"index;not null"`
	ProductID int64 `gorm:"not null"`

	// ProductName and UnitPrice are snapshots taken at sale time so later
	// product edits do not rewrite history.
	ProductName string `gorm:"type:varchar(128);not null"`
	Quantity    int32  `gorm:"not null"`
	UnitPrice   string `gorm:"type:decimal(18,2);not null"`
	TotalPrice  string `gorm:"type:decimal(18,2);not null"`
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

type SalePayment struct {
	ID          int64         `gorm:"primaryKey;autoIncrement"`
	SaleID      int64         `gorm:"index;not null"`
	Amount      string        `gorm:"type:decimal(18,2);not null"`
	PaymentDate time.Time     `gorm:"not null"`
	Method      PaymentMethod `gorm:"type:varchar(16);not null"`
	CreatedAt   time.Time
}

type CustomerPayment struct {
	ID          int64         `gorm:"primaryKey;autoIncrement"`
	CustomerID  int64         `gorm:"index;not null"`
	Amount      string        `gorm:"type:decimal(18,2);not null"`
	PaymentDate time.Time     `gorm:"not null"`
	Method      PaymentMethod `gorm:"type:varchar(16);not null"`
	CreatedAt   time.Time
}

type Bill struct {
	ID                int64     `gorm:"primaryKey;autoIncrement"`
	SupplierID        int64     `gorm:"index;not null"`
	Description       string    `gorm:"type:varchar(256);not null"`
	TotalValue        string    `gorm:"type:decimal(18,2);not null"`
	IssueDate         time.Time `gorm:"not null"`
	FirstDueDate      time.Time `gorm:"not null"`
	InstallmentsCount int32     `gorm:"not null"`
	CreatedAt         time.Time

	Supplier     *Supplier         `gorm:"foreignKey:SupplierID"`
	Installments []BillInstallment `gorm:"foreignKey:BillID"`
}

type BillInstallment struct {
	ID                int64             `gorm:"primaryKey;autoIncrement"`
	BillID            int64             `gorm:"index;not null"`
	Number            int32             `gorm:"not null"`
	TotalInstallments int32             `gorm:"not null"`
	Value             string            `gorm:"type:decimal(18,2);not null"`
	DueDate           time.Time         `gorm:"index;not null"`
	Status            InstallmentStatus `gorm:"type:varchar(16);not null"`
	PaymentDate       *time.Time
	CreatedAt         time.Time
}
