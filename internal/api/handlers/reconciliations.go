package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"catalogsync/internal/apperror"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
)

type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]models.Reconciliation, error)
	ForProduct(ctx context.Context, productID string, limit int) ([]models.Reconciliation, error)
}

type ReconciliationHandler struct {
	journal JournalReader
	logger  *logger.Logger
}

func NewReconciliationHandler(journal JournalReader, logger *logger.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{
		journal: journal,
		logger:  logger,
	}
}

// List returns recent journal rows, optionally for one product_id.
func (h *ReconciliationHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, apperror.BadRequest("limit must be a positive integer"))
			return
		}
		limit = n
	}

	var rows []models.Reconciliation
	var err error
	if productID := c.Query("product_id"); productID != "" {
		rows, err = h.journal.ForProduct(c.Request.Context(), productID, limit)
	} else {
		rows, err = h.journal.Recent(c.Request.Context(), limit)
	}
	if err != nil {
		h.logger.Error("Failed to list reconciliations: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  rows,
		"count": len(rows),
	})
}
