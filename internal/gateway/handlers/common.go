package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"balcao-system/internal/ledger"
	userhandler "balcao-system/internal/services/user/handler"
)

// statusFromError maps ledger error categories onto HTTP status codes.
// Anything unrecognized is treated as an internal error.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientStock),
		errors.Is(err, ledger.ErrAlreadyPaid),
		errors.Is(err, ledger.ErrCascadeBlocked):
		return http.StatusConflict
	case errors.Is(err, userhandler.ErrBadCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFromError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}
