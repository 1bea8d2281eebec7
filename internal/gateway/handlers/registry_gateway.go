package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	registryhandler "balcao-system/internal/services/registry/handler"
)

type RegistryHTTPHandler struct {
	registry *registryhandler.RegistryHandler
}

func NewRegistryHTTPHandler(registry *registryhandler.RegistryHandler) *RegistryHTTPHandler {
	return &RegistryHTTPHandler{registry: registry}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid id"})
		return 0, false
	}
	return id, true
}

// --- Customers ---

type CreateCustomerRequest struct {
	Name    string  `json:"name" binding:"required"`
	Phone   string  `json:"phone"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

func (h *RegistryHTTPHandler) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	customer, err := h.registry.CreateCustomer(c.Request.Context(), registryhandler.CreateCustomerRequest{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, customer)
}

func (h *RegistryHTTPHandler) GetCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	customer, err := h.registry.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, customer)
}

func (h *RegistryHTTPHandler) ListCustomers(c *gin.Context) {
	customers, err := h.registry.ListCustomers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, customers)
}

func (h *RegistryHTTPHandler) DeleteCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.registry.DeleteCustomer(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "customer deleted"})
}

// --- Products ---

type CreateProductRequest struct {
	Name          string `json:"name" binding:"required"`
	Barcode       string `json:"barcode" binding:"required"`
	SalePrice     string `json:"sale_price" binding:"required"`
	CostPrice     string `json:"cost_price" binding:"required"`
	StockQuantity int32  `json:"stock_quantity"`
	MinimumStock  int32  `json:"minimum_stock"`
}

type UpdateProductRequest struct {
	Name          *string `json:"name,omitempty"`
	SalePrice     *string `json:"sale_price,omitempty"`
	CostPrice     *string `json:"cost_price,omitempty"`
	StockQuantity *int32  `json:"stock_quantity,omitempty"`
	MinimumStock  *int32  `json:"minimum_stock,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

func (h *RegistryHTTPHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	product, err := h.registry.CreateProduct(c.Request.Context(), registryhandler.CreateProductRequest{
		Name:          req.Name,
		Barcode:       req.Barcode,
		SalePrice:     req.SalePrice,
		CostPrice:     req.CostPrice,
		StockQuantity: req.StockQuantity,
		MinimumStock:  req.MinimumStock,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, product)
}

func (h *RegistryHTTPHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	product, err := h.registry.UpdateProduct(c.Request.Context(), id, registryhandler.UpdateProductRequest{
		Name:          req.Name,
		SalePrice:     req.SalePrice,
		CostPrice:     req.CostPrice,
		StockQuantity: req.StockQuantity,
		MinimumStock:  req.MinimumStock,
		IsActive:      req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

func (h *RegistryHTTPHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.registry.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "product deleted"})
}

func (h *RegistryHTTPHandler) ListProducts(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	products, err := h.registry.ListProducts(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, products)
}

func (h *RegistryHTTPHandler) GetProductByBarcode(c *gin.Context) {
	product, err := h.registry.GetProductByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

func (h *RegistryHTTPHandler) ListLowStock(c *gin.Context) {
	products, err := h.registry.ListLowStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, products)
}

// --- Suppliers ---

type CreateSupplierRequest struct {
	Name  string  `json:"name" binding:"required"`
	CNPJ  *string `json:"cnpj,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (h *RegistryHTTPHandler) CreateSupplier(c *gin.Context) {
	var req CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	supplier, err := h.registry.CreateSupplier(c.Request.Context(), registryhandler.CreateSupplierRequest{
		Name:  req.Name,
		CNPJ:  req.CNPJ,
		Phone: req.Phone,
		Email: req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, supplier)
}

func (h *RegistryHTTPHandler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.registry.ListSuppliers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, suppliers)
}

func (h *RegistryHTTPHandler) DeleteSupplier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.registry.DeleteSupplier(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "supplier deleted"})
}
