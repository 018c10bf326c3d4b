package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"catalogsync/internal/logger"
)

type IgnoreStore interface {
	Add(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	Names() []string
}

type IgnoreHandler struct {
	store  IgnoreStore
	logger *logger.Logger
}

func NewIgnoreHandler(store IgnoreStore, logger *logger.Logger) *IgnoreHandler {
	return &IgnoreHandler{
		store:  store,
		logger: logger,
	}
}

func (h *IgnoreHandler) List(c *gin.Context) {
	c.Negotiate(http.StatusOK, gin.Negotiate{
		Offered:  []string{binding.MIMEHTML, binding.MIMEJSON},
		HTMLName: "ignore.html",
		HTMLData: gin.H{"IgnoredProducts": h.store.Names()},
		JSONData: gin.H{"ignored_products": h.store.Names()},
	})
}

func (h *IgnoreHandler) Add(c *gin.Context) {
	if name := strings.TrimSpace(c.PostForm("product_name")); name != "" {
		if err := h.store.Add(c.Request.Context(), name); err != nil {
			respondError(c, err)
			return
		}
	}
	c.Redirect(http.StatusSeeOther, "/ignore")
}

func (h *IgnoreHandler) Remove(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("product_name"), "/")
	if name != "" {
		if err := h.store.Remove(c.Request.Context(), name); err != nil {
			respondError(c, err)
			return
		}
	}
	c.Redirect(http.StatusSeeOther, "/ignore")
}
