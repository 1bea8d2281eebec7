package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"balcao-system/internal/database/models"
	"balcao-system/internal/ledger"
)

const (
	PRODUCT_BARCODE_CACHE_PREFIX = "registry:product:barcode:"
	PRODUCT_LIST_CACHE_KEY       = "registry:product:list"
	CACHE_TTL_SHORT              = 5 * time.Minute
	CACHE_TTL_MEDIUM             = 30 * time.Minute
)

// RegistryHandler owns the customer, product and supplier registries.
type RegistryHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewRegistryHandler(db *gorm.DB, redisClient *redis.Client) *RegistryHandler {
	return &RegistryHandler{
		db:    db,
		redis: redisClient,
	}
}

func (s *RegistryHandler) InvalidateProductCaches(ctx context.Context, barcodes ...string) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, PRODUCT_LIST_CACHE_KEY)
	for _, code := range barcodes {
		_ = s.redis.Del(ctx, PRODUCT_BARCODE_CACHE_PREFIX+code)
	}
}

// --- Customers ---

type CreateCustomerRequest struct {
	Name    string
	Phone   string
	Email   *string
	Address *string
}

func (s *RegistryHandler) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ledger.ErrInvalidInput)
	}

	customer := models.Customer{
		Name:        req.Name,
		Phone:       strings.TrimSpace(req.Phone),
		Email:       req.Email,
		Address:     req.Address,
		CurrentDebt: "0.00",
	}
	if err := s.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *RegistryHandler) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %d", ledger.ErrNotFound, id)
		}
		return nil, err
	}
	return &customer, nil
}

func (s *RegistryHandler) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := s.db.WithContext(ctx).Order("name").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// DeleteCustomer hard-deletes a customer and everything that references it:
// sales with their items and payments, plus the customer's own payments.
// Customers still carrying debt cannot be removed.
func (s *RegistryHandler) DeleteCustomer(ctx context.Context, id int64) error {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: customer %d", ledger.ErrNotFound, id)
		}
		return err
	}

	debt, err := ledger.ParseAmount(customer.CurrentDebt)
	if err != nil {
		return err
	}
	if debt.IsPositive() {
		return fmt.Errorf("%w: customer has outstanding debt of %s", ledger.ErrCascadeBlocked, customer.CurrentDebt)
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var saleIDs []int64
	if err := tx.Model(&models.Sale{}).Where("customer_id = ?", id).Pluck("id", &saleIDs).Error; err != nil {
		tx.Rollback()
		return err
	}
	if len(saleIDs) > 0 {
		if err := tx.Where("sale_id IN ?", saleIDs).Delete(&models.SalePayment{}).Error; err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Where("sale_id IN ?", saleIDs).Delete(&models.SaleItem{}).Error; err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Where("customer_id = ?", id).Delete(&models.Sale{}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Where("customer_id = ?", id).Delete(&models.CustomerPayment{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&models.Customer{}, id).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// --- Products ---

type CreateProductRequest struct {
	Name          string
	Barcode       string
	SalePrice     string
	CostPrice     string
	StockQuantity int32
	MinimumStock  int32
}

type UpdateProductRequest struct {
	Name          *string
	SalePrice     *string
	CostPrice     *string
	StockQuantity *int32
	MinimumStock  *int32
	IsActive      *bool
}

func (s *RegistryHandler) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Barcode = strings.TrimSpace(req.Barcode)
	if req.Name == "" || req.Barcode == "" {
		return nil, fmt.Errorf("%w: name and barcode required", ledger.ErrInvalidInput)
	}
	if req.StockQuantity < 0 || req.MinimumStock < 0 {
		return nil, fmt.Errorf("%w: stock quantities must not be negative", ledger.ErrInvalidInput)
	}

	salePrice, err := ledger.ParsePositiveAmount(req.SalePrice)
	if err != nil {
		return nil, err
	}
	costPrice, err := ledger.ParseAmount(req.CostPrice)
	if err != nil {
		return nil, err
	}
	if costPrice.IsNegative() {
		return nil, fmt.Errorf("%w: cost_price must not be negative", ledger.ErrInvalidInput)
	}

	var existing models.Product
	err = s.db.WithContext(ctx).Where("barcode = ?", req.Barcode).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: barcode %s already registered", ledger.ErrInvalidInput, req.Barcode)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	product := models.Product{
		Name:          req.Name,
		Barcode:       req.Barcode,
		SalePrice:     ledger.FormatAmount(salePrice),
		CostPrice:     ledger.FormatAmount(costPrice),
		StockQuantity: req.StockQuantity,
		MinimumStock:  req.MinimumStock,
		IsActive:      true,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}

	s.InvalidateProductCaches(ctx, product.Barcode)
	return &product, nil
}

func (s *RegistryHandler) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ledger.ErrNotFound, id)
		}
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ledger.ErrInvalidInput)
		}
		product.Name = name
	}
	if req.SalePrice != nil {
		d, err := ledger.ParsePositiveAmount(*req.SalePrice)
		if err != nil {
			return nil, err
		}
		product.SalePrice = ledger.FormatAmount(d)
	}
	if req.CostPrice != nil {
		d, err := ledger.ParseAmount(*req.CostPrice)
		if err != nil {
			return nil, err
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("%w: cost_price must not be negative", ledger.ErrInvalidInput)
		}
		product.CostPrice = ledger.FormatAmount(d)
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return nil, fmt.Errorf("%w: stock_quantity must not be negative", ledger.ErrInvalidInput)
		}
		product.StockQuantity = *req.StockQuantity
	}
	if req.MinimumStock != nil {
		if *req.MinimumStock < 0 {
			return nil, fmt.Errorf("%w: minimum_stock must not be negative", ledger.ErrInvalidInput)
		}
		product.MinimumStock = *req.MinimumStock
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Save(&product).Error; err != nil {
		return nil, err
	}

	s.InvalidateProductCaches(ctx, product.Barcode)
	return &product, nil
}

func (s *RegistryHandler) DeleteProduct(ctx context.Context, id int64) error {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %d", ledger.ErrNotFound, id)
		}
		return err
	}

	var refs int64
	if err := s.db.WithContext(ctx).Model(&models.SaleItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: product appears in %d recorded sales", ledger.ErrCascadeBlocked, refs)
	}

	if err := s.db.WithContext(ctx).Delete(&models.Product{}, id).Error; err != nil {
		return err
	}

	s.InvalidateProductCaches(ctx, product.Barcode)
	return nil
}

// GetProductByBarcode is the hot POS lookup, so it is served from redis when
// possible.
func (s *RegistryHandler) GetProductByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode required", ledger.ErrInvalidInput)
	}

	cacheKey := PRODUCT_BARCODE_CACHE_PREFIX + barcode
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(cached), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	if err := s.db.WithContext(ctx).Where("barcode = ?", barcode).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: barcode %s", ledger.ErrNotFound, barcode)
		}
		return nil, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(product); err == nil {
			_ = s.redis.Set(ctx, cacheKey, payload, CACHE_TTL_MEDIUM)
		}
	}
	return &product, nil
}

func (s *RegistryHandler) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Order("name")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListLowStock returns active products at or below their reorder threshold.
func (s *RegistryHandler) ListLowStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND minimum_stock > 0 AND stock_quantity <= minimum_stock", true).
		Order("name").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// --- Suppliers ---

type CreateSupplierRequest struct {
	Name  string
	CNPJ  *string
	Phone *string
	Email *string
}

func (s *RegistryHandler) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*models.Supplier, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ledger.ErrInvalidInput)
	}

	supplier := models.Supplier{
		Name:  req.Name,
		CNPJ:  req.CNPJ,
		Phone: req.Phone,
		Email: req.Email,
	}
	if err := s.db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *RegistryHandler) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	if err := s.db.WithContext(ctx).Order("name").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// DeleteSupplier refuses to remove a supplier while bills reference it; the
// bills must be deleted first.
func (s *RegistryHandler) DeleteSupplier(ctx context.Context, id int64) error {
	var supplier models.Supplier
	if err := s.db.WithContext(ctx).First(&supplier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: supplier %d", ledger.ErrNotFound, id)
		}
		return err
	}

	var bills int64
	if err := s.db.WithContext(ctx).Model(&models.Bill{}).Where("supplier_id = ?", id).Count(&bills).Error; err != nil {
		return err
	}
	if bills > 0 {
		return fmt.Errorf("%w: supplier has %d registered bills", ledger.ErrCascadeBlocked, bills)
	}

	return s.db.WithContext(ctx).Delete(&models.Supplier{}, id).Error
}
