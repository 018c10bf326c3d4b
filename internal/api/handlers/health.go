package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type PendingCounter interface {
	Pending() int
}

type HealthHandler struct {
	reconciler PendingCounter
}

func NewHealthHandler(reconciler PendingCounter) *HealthHandler {
	return &HealthHandler{reconciler: reconciler}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                  "ok",
		"pending_reconciliations": h.reconciler.Pending(),
	})
}
