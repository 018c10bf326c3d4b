package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalogsync/internal/apperror"
	"catalogsync/internal/logger"
	"catalogsync/internal/metrics"
	"catalogsync/internal/models"
	"catalogsync/internal/services/shopify"
)

// Ingestor accepts inventory events for asynchronous reconciliation.
type Ingestor interface {
	IngestAsync(event models.InventoryEvent) bool
}

type WebhookHandler struct {
	ingestor Ingestor
	secret   string
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewWebhookHandler(ingestor Ingestor, secret string, metrics *metrics.Metrics, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		ingestor: ingestor,
		secret:   secret,
		metrics:  metrics,
		logger:   logger,
	}
}

// Inventory acknowledges an inventory_levels/update notification and hands
// it to the reconciler.
func (h *WebhookHandler) Inventory(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, apperror.BadRequest("Failed to read request body"))
		return
	}

	if h.secret != "" && !shopify.VerifyWebhook(body, c.GetHeader(shopify.HMACHeader), h.secret) {
		h.logger.Warn("Rejected webhook with invalid signature from %s", c.ClientIP())
		respondError(c, apperror.Unauthorized("Invalid webhook signature"))
		return
	}

	var event models.InventoryEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondError(c, apperror.BadRequest("Invalid JSON payload"))
		return
	}
	if event.InventoryItemID == "" {
		respondError(c, apperror.BadRequest("inventory_item_id is required"))
		return
	}

	h.logger.Info("Received webhook data for inventory item %s", event.InventoryItemID)
	h.metrics.EventReceived("webhook")

	if !h.ingestor.IngestAsync(event) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Shutting down"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
