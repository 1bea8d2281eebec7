package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"balcao-system/internal/database/models"
	"balcao-system/internal/ledger"
)

const SALES_EVENT_CHANNEL_PREFIX = "balcao:events:"

// SalesHandler records sales, their payments and the customer debt balance
// they drive. All multi-row writes run inside a single transaction.
type SalesHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewSalesHandler(db *gorm.DB, redisClient *redis.Client) *SalesHandler {
	return &SalesHandler{
		db:    db,
		redis: redisClient,
	}
}

type SaleEvent struct {
	Type       string    `json:"type"`
	SaleID     int64     `json:"sale_id,omitempty"`
	CustomerID int64     `json:"customer_id"`
	Amount     string    `json:"amount,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s *SalesHandler) publishEvent(ctx context.Context, event SaleEvent) {
	if s.redis == nil {
		return
	}
	event.Timestamp = time.Now()
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.redis.Publish(ctx, SALES_EVENT_CHANNEL_PREFIX+event.Type, payload).Err(); err != nil {
		log.Warn().Err(err).Str("event", event.Type).Msg("failed to publish sale event")
	}
}

type SaleItemRequest struct {
	ProductID int64
	Quantity  int32
}

type CreateSaleRequest struct {
	CustomerID   int64
	Type         models.PaymentType
	Installments int32
	SaleDate     *time.Time
	Items        []SaleItemRequest
}

// CreateSale validates the cart, decrements stock, computes total and profit
// from price snapshots and accrues the sale total onto the customer's debt.
// Everything commits or nothing does: a stock shortage on the last item
// leaves stock, sales and debt untouched.
func (s *SalesHandler) CreateSale(ctx context.Context, req CreateSaleRequest) (*models.Sale, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: sale needs at least one item", ledger.ErrInvalidInput)
	}
	switch req.Type {
	case models.PaymentTypeSingle, models.PaymentTypeInstallment:
	default:
		return nil, fmt.Errorf("%w: unknown payment type %q", ledger.ErrInvalidInput, req.Type)
	}
	if req.Installments < 1 {
		req.Installments = 1
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for product %d", ledger.ErrInvalidInput, item.ProductID)
		}
	}

	saleDate := time.Now()
	if req.SaleDate != nil {
		saleDate = *req.SaleDate
	}

	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, req.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown customer %d", ledger.ErrInvalidInput, req.CustomerID)
		}
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	total := decimal.Zero
	profit := decimal.Zero
	items := make([]models.SaleItem, 0, len(req.Items))
	for _, item := range req.Items {
		var product models.Product
		if err := tx.First(&product, item.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: unknown product %d", ledger.ErrInvalidInput, item.ProductID)
			}
			return nil, err
		}
		if !product.IsActive {
			tx.Rollback()
			return nil, fmt.Errorf("%w: product %s is inactive", ledger.ErrInvalidInput, product.Name)
		}
		if product.StockQuantity < item.Quantity {
			tx.Rollback()
			return nil, fmt.Errorf("%w: product %s has %d in stock, %d requested",
				ledger.ErrInsufficientStock, product.Name, product.StockQuantity, item.Quantity)
		}

		unitPrice, err := ledger.ParseAmount(product.SalePrice)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		costPrice, err := ledger.ParseAmount(product.CostPrice)
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		qty := decimal.NewFromInt(int64(item.Quantity))
		lineTotal := unitPrice.Mul(qty)
		total = total.Add(lineTotal)
		profit = profit.Add(unitPrice.Sub(costPrice).Mul(qty))

		if err := tx.Model(&models.Product{}).
			Where("id = ?", product.ID).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity)).Error; err != nil {
			tx.Rollback()
			return nil, err
		}

		items = append(items, models.SaleItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   ledger.FormatAmount(unitPrice),
			TotalPrice:  ledger.FormatAmount(lineTotal),
		})
	}

	sale := models.Sale{
		CustomerID:   customer.ID,
		TotalValue:   ledger.FormatAmount(total),
		Profit:       ledger.FormatAmount(profit),
		SaleDate:     saleDate,
		Type:         req.Type,
		Installments: req.Installments,
		Status:       models.SaleStatusPending,
	}
	if err := tx.Create(&sale).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range items {
		items[i].SaleID = sale.ID
	}
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	debt, err := ledger.ParseAmount(customer.CurrentDebt)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	newDebt := ledger.AccrueDebt(debt, total)
	if err := tx.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Update("current_debt", ledger.FormatAmount(newDebt)).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.publishEvent(ctx, SaleEvent{Type: "sale.created", SaleID: sale.ID, CustomerID: customer.ID, Amount: sale.TotalValue})
	return s.GetSale(ctx, sale.ID)
}

type RecordPaymentRequest struct {
	Amount      string
	Method      models.PaymentMethod
	PaymentDate *time.Time
}

// RecordSalePayment appends a payment to a sale, rederives the sale status
// and settles the paid amount against the customer's debt balance.
func (s *SalesHandler) RecordSalePayment(ctx context.Context, saleID int64, req RecordPaymentRequest) (*models.Sale, error) {
	if !models.ValidPaymentMethod(req.Method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ledger.ErrInvalidInput, req.Method)
	}
	amount, err := ledger.ParsePositiveAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	paymentDate := time.Now()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var sale models.Sale
	if err := tx.Preload("Payments").First(&sale, saleID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: sale %d", ledger.ErrNotFound, saleID)
		}
		return nil, err
	}

	payment := models.SalePayment{
		SaleID:      sale.ID,
		Amount:      ledger.FormatAmount(amount),
		PaymentDate: paymentDate,
		Method:      req.Method,
	}
	if err := ledger.ApplySalePayment(&sale, payment); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(&models.Sale{}).Where("id = ?", sale.ID).Update("status", sale.Status).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	var customer models.Customer
	if err := tx.First(&customer, sale.CustomerID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	debt, err := ledger.ParseAmount(customer.CurrentDebt)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Update("current_debt", ledger.FormatAmount(ledger.SettleDebt(debt, amount))).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.publishEvent(ctx, SaleEvent{Type: "sale.payment_recorded", SaleID: sale.ID, CustomerID: sale.CustomerID, Amount: payment.Amount})
	return s.GetSale(ctx, sale.ID)
}

// RecordCustomerPayment settles a standalone payment against the customer's
// debt balance, floored at zero. It is not tied to any particular sale.
func (s *SalesHandler) RecordCustomerPayment(ctx context.Context, customerID int64, req RecordPaymentRequest) (*models.Customer, error) {
	if !models.ValidPaymentMethod(req.Method) {
		return nil, fmt.Errorf("%w: unknown payment method %q", ledger.ErrInvalidInput, req.Method)
	}
	amount, err := ledger.ParsePositiveAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	paymentDate := time.Now()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var customer models.Customer
	if err := tx.First(&customer, customerID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %d", ledger.ErrNotFound, customerID)
		}
		return nil, err
	}

	payment := models.CustomerPayment{
		CustomerID:  customer.ID,
		Amount:      ledger.FormatAmount(amount),
		PaymentDate: paymentDate,
		Method:      req.Method,
	}
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	debt, err := ledger.ParseAmount(customer.CurrentDebt)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	customer.CurrentDebt = ledger.FormatAmount(ledger.SettleDebt(debt, amount))
	if err := tx.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Update("current_debt", customer.CurrentDebt).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.publishEvent(ctx, SaleEvent{Type: "customer.payment_recorded", CustomerID: customer.ID, Amount: payment.Amount})
	return &customer, nil
}

// DeleteSale removes a sale with its items and payments, restores the stock
// it consumed and reverses the unpaid remainder of the customer's debt.
func (s *SalesHandler) DeleteSale(ctx context.Context, id int64) error {
	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var sale models.Sale
	if err := tx.Preload("Items").Preload("Payments").First(&sale, id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: sale %d", ledger.ErrNotFound, id)
		}
		return err
	}

	for _, item := range sale.Items {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	amounts := make([]string, 0, len(sale.Payments))
	for _, p := range sale.Payments {
		amounts = append(amounts, p.Amount)
	}
	paid, err := ledger.SumAmounts(amounts)
	if err != nil {
		tx.Rollback()
		return err
	}
	total, err := ledger.ParseAmount(sale.TotalValue)
	if err != nil {
		tx.Rollback()
		return err
	}

	var customer models.Customer
	if err := tx.First(&customer, sale.CustomerID).Error; err != nil {
		tx.Rollback()
		return err
	}
	debt, err := ledger.ParseAmount(customer.CurrentDebt)
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Update("current_debt", ledger.FormatAmount(ledger.ReverseDebt(debt, total, paid))).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SalePayment{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&models.Sale{}, sale.ID).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.publishEvent(ctx, SaleEvent{Type: "sale.deleted", SaleID: sale.ID, CustomerID: sale.CustomerID, Amount: sale.TotalValue})
	return nil
}

func (s *SalesHandler) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Payments").
		First(&sale, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: sale %d", ledger.ErrNotFound, id)
		}
		return nil, err
	}
	return &sale, nil
}

type ListSalesRequest struct {
	CustomerID *int64
	Status     *models.SaleStatus
	DateFrom   *time.Time
	DateTo     *time.Time
}

func (s *SalesHandler) ListSales(ctx context.Context, req ListSalesRequest) ([]models.Sale, error) {
	query := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Payments").
		Order("sale_date DESC")
	if req.CustomerID != nil {
		query = query.Where("customer_id = ?", *req.CustomerID)
	}
	if req.Status != nil {
		query = query.Where("status = ?", *req.Status)
	}
	if req.DateFrom != nil {
		query = query.Where("sale_date >= ?", *req.DateFrom)
	}
	if req.DateTo != nil {
		query = query.Where("sale_date < ?", *req.DateTo)
	}

	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}
