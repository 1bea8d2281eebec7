package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"balcao-system/internal/database/models"
	saleshandler "balcao-system/internal/services/sales/handler"
)

type SalesHTTPHandler struct {
	sales *saleshandler.SalesHandler
}

func NewSalesHTTPHandler(sales *saleshandler.SalesHandler) *SalesHTTPHandler {
	return &SalesHTTPHandler{sales: sales}
}

type SaleItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int32 `json:"quantity" binding:"required,min=1"`
}

type CreateSaleRequest struct {
	CustomerID   int64             `json:"customer_id" binding:"required"`
	Type         string            `json:"type" binding:"required"`
	Installments int32             `json:"installments,omitempty"`
	SaleDate     *time.Time        `json:"sale_date,omitempty"`
	Items        []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

type RecordPaymentRequest struct {
	Amount      string     `json:"amount" binding:"required"`
	Method      string     `json:"method" binding:"required"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
}

func (h *SalesHTTPHandler) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	items := make([]saleshandler.SaleItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = saleshandler.SaleItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	sale, err := h.sales.CreateSale(c.Request.Context(), saleshandler.CreateSaleRequest{
		CustomerID:   req.CustomerID,
		Type:         models.PaymentType(req.Type),
		Installments: req.Installments,
		SaleDate:     req.SaleDate,
		Items:        items,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, sale)
}

func (h *SalesHTTPHandler) GetSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sale, err := h.sales.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sale)
}

func (h *SalesHTTPHandler) ListSales(c *gin.Context) {
	var req saleshandler.ListSalesRequest
	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid customer_id"})
			return
		}
		req.CustomerID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := models.SaleStatus(raw)
		req.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "from must be YYYY-MM-DD"})
			return
		}
		req.DateFrom = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "to must be YYYY-MM-DD"})
			return
		}
		req.DateTo = &parsed
	}

	sales, err := h.sales.ListSales(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sales)
}

func (h *SalesHTTPHandler) DeleteSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.sales.DeleteSale(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "sale deleted"})
}

func (h *SalesHTTPHandler) RecordSalePayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	sale, err := h.sales.RecordSalePayment(c.Request.Context(), id, saleshandler.RecordPaymentRequest{
		Amount:      req.Amount,
		Method:      models.PaymentMethod(req.Method),
		PaymentDate: req.PaymentDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, sale)
}

func (h *SalesHTTPHandler) RecordCustomerPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	customer, err := h.sales.RecordCustomerPayment(c.Request.Context(), id, saleshandler.RecordPaymentRequest{
		Amount:      req.Amount,
		Method:      models.PaymentMethod(req.Method),
		PaymentDate: req.PaymentDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, customer)
}
