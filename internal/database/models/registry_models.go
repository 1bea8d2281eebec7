package models

import "time"

type Customer struct {
	ID      int64   `gorm:"primaryKey;autoIncrement"`
	Name    string  `gorm:"type:varchar(128);not null"`
	Phone   string  `gorm:"type:varchar(32)"`
	Email   *string `gorm:"type:varchar(128)"`
	Address *string `gorm:"type:varchar(256)"`

	// CurrentDebt is maintained incrementally by the sales service and
	// never goes negative.
	CurrentDebt string `gorm:"type:decimal(18,2);not null;default:'0.00'"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Sales    []Sale            `gorm:"foreignKey:CustomerID"`
	Payments []CustomerPayment `gorm:"foreignKey:CustomerID"`
}

type Product struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Name          string `gorm:"type:varchar(128);not null"`
	Barcode       string `gorm:"type:varchar(64);uniqueIndex;not null"`
	SalePrice     string `gorm:"type:decimal(18,2);not null"`
	CostPrice     string `gorm:"type:decimal(18,2);not null"`
	StockQuantity int32  `gorm:"not null"`
	MinimumStock  int32  `gorm:"not null;default:0"`
	IsActive      bool   `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LowStock reports whether the product is at or below its reorder threshold.
func (p Product) LowStock() bool {
	return p.MinimumStock > 0 && p.StockQuantity <= p.MinimumStock
}

type Supplier struct {
	ID    int64   `gorm:"primaryKey;autoIncrement"`
	Name  string  `gorm:"type:varchar(128);not null"`
	CNPJ  *string `gorm:"type:varchar(32)"`
	Phone *string `gorm:"type:varchar(32)"`
	Email *string `gorm:"type:varchar(128)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Bills []Bill `gorm:"foreignKey:SupplierID"`
}
