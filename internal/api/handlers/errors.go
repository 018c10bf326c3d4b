package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalogsync/internal/apperror"
)

// respondError writes err with the status apperror maps it to. Upstream and
// internal details stay in the logs.
func respondError(c *gin.Context, err error) {
	status := apperror.StatusCode(err)

	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
	case status == http.StatusBadGateway:
		c.JSON(status, gin.H{"error": "Upstream service failed", "code": "BAD_GATEWAY"})
	default:
		c.JSON(status, gin.H{"error": "An unexpected error occurred", "code": "INTERNAL_ERROR"})
	}
}
