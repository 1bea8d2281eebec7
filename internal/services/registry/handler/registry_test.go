package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"balcao-system/internal/database"
	"balcao-system/internal/database/models"
	"balcao-system/internal/ledger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestCreateProductRejectsDuplicateBarcode(t *testing.T) {
	db := newTestDB(t)
	h := NewRegistryHandler(db, nil)
	ctx := context.Background()

	_, err := h.CreateProduct(ctx, CreateProductRequest{
		Name:      "Cafe 500g",
		Barcode:   "789000111",
		SalePrice: "18.90",
		CostPrice: "12.00",
	})
	require.NoError(t, err)

	_, err = h.CreateProduct(ctx, CreateProductRequest{
		Name:      "Outro cafe",
		Barcode:   "789000111",
		SalePrice: "20.00",
		CostPrice: "13.00",
	})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestCreateProductRejectsBadAmounts(t *testing.T) {
	db := newTestDB(t)
	h := NewRegistryHandler(db, nil)
	ctx := context.Background()

	_, err := h.CreateProduct(ctx, CreateProductRequest{
		Name:      "Preco zero",
		Barcode:   "789000112",
		SalePrice: "0.00",
		CostPrice: "1.00",
	})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = h.CreateProduct(ctx, CreateProductRequest{
		Name:      "Custo negativo",
		Barcode:   "789000113",
		SalePrice: "10.00",
		CostPrice: "-1.00",
	})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestGetProductByBarcode(t *testing.T) {
	db := newTestDB(t)
	h := NewRegistryHandler(db, nil)
	ctx := context.Background()

	created, err := h.CreateProduct(ctx, CreateProductRequest{
		Name:      "Arroz 5kg",
		Barcode:   "789000200",
		SalePrice: "32.50",
		CostPrice: "24.00",
	})
	require.NoError(t, err)

	found, err := h.GetProductByBarcode(ctx, "789000200")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = h.GetProductByBarcode(ctx, "000000000")
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestListLowStock(t *testing.T) {
	db := newTestDB(t)
	h := NewRegistryHandler(db, nil)
	ctx := context.Background()

	_, err := h.CreateProduct(ctx, CreateProductRequest{
		Name: "Abaixo do minimo", Barcode: "789000301",
		SalePrice: "5.00", CostPrice: "2.00",
		StockQuantity: 2, MinimumStock: 5,
	})
	require.NoError(t, err)
	_, err = h.CreateProduct(ctx, CreateProductRequest{
		Name: "Estoque saudavel", Barcode: "789000302",
		SalePrice: "5.00", CostPrice: "2.00",
		StockQuantity: 50, MinimumStock: 5,
	})
	require.NoError(t, err)
	_, err = h.CreateProduct(ctx, CreateProductRequest{
		Name: "Sem minimo definido", Barcode: "789000303",
		SalePrice: "5.00", CostPrice: "2.00",
		StockQuantity: 0, MinimumStock: 0,
	})
	require.NoError(t, err)

	low, err := h.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "789000301", low[0].Barcode)
}

func TestDeleteCustomerBlockedByDebt(t *testing.T) {
	db := newTestDB(t)
	h := NewRegistryHandler(db, nil)
	ctx := context.Background()

	customer, err := h.CreateCustomer(ctx, CreateCustomerRequest{Name: "Joao Devedor"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Update("current_debt", "120.00").Error)

	err = h.DeleteCustomer(ctx, customer.ID)
	require.ErrorIs(t, err, ledger.ErrCascadeBlocked)

	// Once the balance clears, the delete cascades through sales history.
	require.NoError(t, db.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Update("current_debt", "0.00").Error)

	sale := models.Sale{
		CustomerID: customer.ID,
		TotalValue: "10.00",
		Profit:     "4.00",
		SaleDate:   time.Now(),
		Type:       models.PaymentTypeSingle,
		Status:     models.SaleStatusSettled,
	}
	require.NoError(t, db.Create(&sale).Error)
	require.NoError(t, db.Create(&models.SaleItem{
		SaleID: sale.ID, ProductID: 1, ProductName: "Item", Quantity: 1,
		UnitPrice: "10.00", TotalPrice: "10.00",
	}).Error)
	require.NoError(t, db.Create(&models.SalePayment{
		SaleID: sale.ID, Amount: "10.00", PaymentDate: time.Now(), Method: models.PaymentMethodCash,
	}).Error)

	require.NoError(t, h.DeleteCustomer(ctx, customer.ID))

	var sales, items, payments int64
	require.NoError(t, db.Model(&models.Sale{}).Count(&sales).Error)
	require.NoError(t, db.Model(&models.SaleItem{}).Count(&items).Error)
	require.NoError(t, db.Model(&models.SalePayment{}).Count(&payments).Error)
	assert.Zero(t, sales)
	assert.Zero(t, items)
	assert.Zero(t, payments)
}

func TestDeleteSupplierBlockedByBills(t *testing.T) {
	db := newTestDB(t)
	h := NewRegistryHandler(db, nil)
	ctx := context.Background()

	supplier, err := h.CreateSupplier(ctx, CreateSupplierRequest{Name: "Atacado Sul"})
	require.NoError(t, err)

	bill := models.Bill{
		SupplierID: supplier.ID, Description: "Pedido 42",
		TotalValue: "100.00", IssueDate: time.Now(),
		FirstDueDate: time.Now().AddDate(0, 1, 0), InstallmentsCount: 1,
	}
	require.NoError(t, db.Create(&bill).Error)

	err = h.DeleteSupplier(ctx, supplier.ID)
	require.ErrorIs(t, err, ledger.ErrCascadeBlocked)

	require.NoError(t, db.Delete(&models.Bill{}, bill.ID).Error)
	require.NoError(t, h.DeleteSupplier(ctx, supplier.ID))
}

func TestDeleteProductBlockedBySaleHistory(t *testing.T) {
	db := newTestDB(t)
	h := NewRegistryHandler(db, nil)
	ctx := context.Background()

	product, err := h.CreateProduct(ctx, CreateProductRequest{
		Name: "Vendido uma vez", Barcode: "789000400",
		SalePrice: "10.00", CostPrice: "5.00", StockQuantity: 3,
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.SaleItem{
		SaleID: 1, ProductID: product.ID, ProductName: product.Name,
		Quantity: 1, UnitPrice: "10.00", TotalPrice: "10.00",
	}).Error)

	err = h.DeleteProduct(ctx, product.ID)
	require.ErrorIs(t, err, ledger.ErrCascadeBlocked)
}
