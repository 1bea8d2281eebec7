package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"balcao-system/internal/database/models"
	payableshandler "balcao-system/internal/services/payables/handler"
)

type PayablesHTTPHandler struct {
	payables *payableshandler.PayablesHandler
}

func NewPayablesHTTPHandler(payables *payableshandler.PayablesHandler) *PayablesHTTPHandler {
	return &PayablesHTTPHandler{payables: payables}
}

type CreateBillRequest struct {
	SupplierID        int64      `json:"supplier_id" binding:"required"`
	Description       string     `json:"description" binding:"required"`
	TotalValue        string     `json:"total_value" binding:"required"`
	IssueDate         *time.Time `json:"issue_date,omitempty"`
	FirstDueDate      time.Time  `json:"first_due_date" binding:"required"`
	InstallmentsCount int32      `json:"installments_count" binding:"required,min=1"`
}

func (h *PayablesHTTPHandler) CreateBill(c *gin.Context) {
	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	bill, err := h.payables.CreateBill(c.Request.Context(), payableshandler.CreateBillRequest{
		SupplierID:        req.SupplierID,
		Description:       req.Description,
		TotalValue:        req.TotalValue,
		IssueDate:         req.IssueDate,
		FirstDueDate:      req.FirstDueDate,
		InstallmentsCount: req.InstallmentsCount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, bill)
}

func (h *PayablesHTTPHandler) GetBill(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	bill, err := h.payables.GetBill(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, bill)
}

func (h *PayablesHTTPHandler) ListBills(c *gin.Context) {
	bills, err := h.payables.ListBills(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, bills)
}

func (h *PayablesHTTPHandler) DeleteBill(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.payables.DeleteBill(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "bill deleted"})
}

func (h *PayablesHTTPHandler) ListInstallments(c *gin.Context) {
	var req payableshandler.ListInstallmentsRequest
	if raw := c.Query("status"); raw != "" {
		status := models.InstallmentStatus(raw)
		req.Status = &status
	}

	installments, err := h.payables.ListInstallments(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, installments)
}

func (h *PayablesHTTPHandler) PayInstallment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	inst, err := h.payables.PayInstallment(c.Request.Context(), id, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, inst)
}

func (h *PayablesHTTPHandler) SweepOverdue(c *gin.Context) {
	flipped, err := h.payables.SweepOverdue(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "flipped": flipped})
}

func (h *PayablesHTTPHandler) Summary(c *gin.Context) {
	summary, err := h.payables.Summary(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, summary)
}
