package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	reportshandler "balcao-system/internal/services/reports/handler"
)

type ReportsHTTPHandler struct {
	reports *reportshandler.ReportsHandler
}

func NewReportsHTTPHandler(reports *reportshandler.ReportsHandler) *ReportsHTTPHandler {
	return &ReportsHTTPHandler{reports: reports}
}

func (h *ReportsHTTPHandler) CashFlow(c *gin.Context) {
	period := reportshandler.PeriodType(c.DefaultQuery("period", string(reportshandler.PeriodMonthly)))

	ref := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "date must be YYYY-MM-DD"})
			return
		}
		ref = parsed
	}

	summary, err := h.reports.CashFlow(c.Request.Context(), period, ref)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, summary)
}
