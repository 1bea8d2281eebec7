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

func seedSupplier(t *testing.T, db *gorm.DB) models.Supplier {
	t.Helper()
	supplier := models.Supplier{Name: "Distribuidora Central"}
	require.NoError(t, db.Create(&supplier).Error)
	return supplier
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCreateBillSchedulesInstallments(t *testing.T) {
	db := newTestDB(t)
	h := NewPayablesHandler(db, nil)
	ctx := context.Background()

	supplier := seedSupplier(t, db)
	firstDue := date(2030, time.January, 15)

	bill, err := h.CreateBill(ctx, CreateBillRequest{
		SupplierID:        supplier.ID,
		Description:       "Mercadoria de janeiro",
		TotalValue:        "100.00",
		FirstDueDate:      firstDue,
		InstallmentsCount: 3,
	})
	require.NoError(t, err)
	require.Len(t, bill.Installments, 3)

	assert.Equal(t, "33.33", bill.Installments[0].Value)
	assert.Equal(t, "33.33", bill.Installments[1].Value)
	assert.Equal(t, "33.34", bill.Installments[2].Value)

	assert.Equal(t, firstDue, bill.Installments[0].DueDate.UTC())
	assert.Equal(t, date(2030, time.February, 15), bill.Installments[1].DueDate.UTC())
	assert.Equal(t, date(2030, time.March, 15), bill.Installments[2].DueDate.UTC())

	for i, inst := range bill.Installments {
		assert.Equal(t, int32(i+1), inst.Number)
		assert.Equal(t, int32(3), inst.TotalInstallments)
		assert.Equal(t, models.InstallmentToPay, inst.Status)
	}
}

func TestCreateBillValidation(t *testing.T) {
	db := newTestDB(t)
	h := NewPayablesHandler(db, nil)
	ctx := context.Background()

	supplier := seedSupplier(t, db)

	_, err := h.CreateBill(ctx, CreateBillRequest{
		SupplierID:        supplier.ID,
		Description:       "Sem parcelas",
		TotalValue:        "100.00",
		FirstDueDate:      date(2030, time.January, 15),
		InstallmentsCount: 0,
	})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = h.CreateBill(ctx, CreateBillRequest{
		SupplierID:        supplier.ID,
		Description:       "Valor invalido",
		TotalValue:        "-10.00",
		FirstDueDate:      date(2030, time.January, 15),
		InstallmentsCount: 2,
	})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = h.CreateBill(ctx, CreateBillRequest{
		SupplierID:        9999,
		Description:       "Fornecedor fantasma",
		TotalValue:        "10.00",
		FirstDueDate:      date(2030, time.January, 15),
		InstallmentsCount: 1,
	})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)

	var billCount int64
	require.NoError(t, db.Model(&models.Bill{}).Count(&billCount).Error)
	assert.Zero(t, billCount)
}

func TestPayInstallmentIsTerminal(t *testing.T) {
	db := newTestDB(t)
	h := NewPayablesHandler(db, nil)
	ctx := context.Background()

	supplier := seedSupplier(t, db)
	bill, err := h.CreateBill(ctx, CreateBillRequest{
		SupplierID:        supplier.ID,
		Description:       "Conta unica",
		TotalValue:        "200.00",
		FirstDueDate:      date(2030, time.June, 10),
		InstallmentsCount: 2,
	})
	require.NoError(t, err)

	paidAt := date(2030, time.June, 9)
	inst, err := h.PayInstallment(ctx, bill.Installments[0].ID, paidAt)
	require.NoError(t, err)
	assert.Equal(t, models.InstallmentPaid, inst.Status)
	require.NotNil(t, inst.PaymentDate)
	assert.Equal(t, paidAt, inst.PaymentDate.UTC())

	_, err = h.PayInstallment(ctx, bill.Installments[0].ID, paidAt)
	require.ErrorIs(t, err, ledger.ErrAlreadyPaid)

	_, err = h.PayInstallment(ctx, 9999, paidAt)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestSweepOverdueIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	h := NewPayablesHandler(db, nil)
	ctx := context.Background()

	supplier := seedSupplier(t, db)
	bill, err := h.CreateBill(ctx, CreateBillRequest{
		SupplierID:        supplier.ID,
		Description:       "Tres vencimentos",
		TotalValue:        "300.00",
		FirstDueDate:      date(2024, time.January, 15),
		InstallmentsCount: 3,
	})
	require.NoError(t, err)

	// CreateBill already marks past-due installments overdue, so reset the
	// schedule to exercise the sweep on its own.
	require.NoError(t, db.Model(&models.BillInstallment{}).
		Where("bill_id = ?", bill.ID).
		Update("status", models.InstallmentToPay).Error)
	require.NoError(t, h.db.Model(&models.BillInstallment{}).
		Where("id = ?", bill.Installments[0].ID).
		Update("status", models.InstallmentPaid).Error)

	now := date(2024, time.February, 20)
	flipped, err := h.SweepOverdue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)

	var installments []models.BillInstallment
	require.NoError(t, db.Where("bill_id = ?", bill.ID).Order("number").Find(&installments).Error)
	assert.Equal(t, models.InstallmentPaid, installments[0].Status)
	assert.Equal(t, models.InstallmentOverdue, installments[1].Status)
	assert.Equal(t, models.InstallmentToPay, installments[2].Status)

	flipped, err = h.SweepOverdue(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, flipped)
}

func TestDeleteBillRemovesSchedule(t *testing.T) {
	db := newTestDB(t)
	h := NewPayablesHandler(db, nil)
	ctx := context.Background()

	supplier := seedSupplier(t, db)
	bill, err := h.CreateBill(ctx, CreateBillRequest{
		SupplierID:        supplier.ID,
		Description:       "Para excluir",
		TotalValue:        "90.00",
		FirstDueDate:      date(2030, time.March, 5),
		InstallmentsCount: 3,
	})
	require.NoError(t, err)

	require.NoError(t, h.DeleteBill(ctx, bill.ID))

	var instCount int64
	require.NoError(t, db.Model(&models.BillInstallment{}).Count(&instCount).Error)
	assert.Zero(t, instCount)

	err = h.DeleteBill(ctx, bill.ID)
	require.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestSummaryAggregatesInstallments(t *testing.T) {
	db := newTestDB(t)
	h := NewPayablesHandler(db, nil)
	ctx := context.Background()

	supplier := seedSupplier(t, db)
	now := date(2030, time.May, 10)

	bill, err := h.CreateBill(ctx, CreateBillRequest{
		SupplierID:        supplier.ID,
		Description:       "Tres meses a partir de maio",
		TotalValue:        "300.00",
		FirstDueDate:      date(2030, time.May, 20),
		InstallmentsCount: 3,
	})
	require.NoError(t, err)

	_, err = h.CreateBill(ctx, CreateBillRequest{
		SupplierID:        supplier.ID,
		Description:       "Vencida em abril",
		TotalValue:        "40.00",
		FirstDueDate:      date(2030, time.April, 1),
		InstallmentsCount: 1,
	})
	require.NoError(t, err)

	_, err = h.SweepOverdue(ctx, now)
	require.NoError(t, err)

	_, err = h.PayInstallment(ctx, bill.Installments[0].ID, now)
	require.NoError(t, err)

	summary, err := h.Summary(ctx, now)
	require.NoError(t, err)

	assert.Equal(t, "0.00", summary.MonthToPay)
	assert.Equal(t, "100.00", summary.MonthPaid)
	assert.Equal(t, "240.00", summary.TotalOpen)
	assert.Equal(t, int64(1), summary.OverdueCount)
}
