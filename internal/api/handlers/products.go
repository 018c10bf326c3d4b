package handlers

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"catalogsync/internal/apperror"
	"catalogsync/internal/bulk"
	"catalogsync/internal/logger"
)

// ContentWorkflow is the bulk content generation and apply flow.
type ContentWorkflow interface {
	Generate(ctx context.Context, vendor string, minInventory int) (*bulk.Review, error)
	Apply(ctx context.Context, edits []bulk.Edit) bulk.ApplyReport
}

type ProductHandler struct {
	workflow ContentWorkflow
	logger   *logger.Logger
}

func NewProductHandler(workflow ContentWorkflow, logger *logger.Logger) *ProductHandler {
	return &ProductHandler{
		workflow: workflow,
		logger:   logger,
	}
}

func (h *ProductHandler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", nil)
}

// GenerateForVendor renders generated content for review.
func (h *ProductHandler) GenerateForVendor(c *gin.Context) {
	vendor := c.PostForm("vendor")
	if vendor == "" {
		respondError(c, apperror.BadRequest("Vendor not specified"))
		return
	}

	minInventory, err := bulk.ParseMinInventory(c.PostForm("min_inventory_level"))
	if err != nil {
		respondError(c, err)
		return
	}

	review, err := h.workflow.Generate(c.Request.Context(), vendor, minInventory)
	if err != nil {
		h.logger.Error("Failed to generate content for vendor %s: %v", vendor, err)
		respondError(c, err)
		return
	}

	// Candidates whose generation failed still render, with a skipped count.
	if len(review.Items) == 0 && review.Skipped == 0 {
		respondError(c, apperror.NotFound(fmt.Sprintf("No products found for vendor %s below the minimum inventory level", vendor)))
		return
	}

	c.Negotiate(http.StatusOK, gin.Negotiate{
		Offered:  []string{binding.MIMEHTML, binding.MIMEJSON},
		HTMLName: "review_content.html",
		Data:     review,
	})
}

// UploadContent applies the reviewed form and redirects to the success page.
func (h *ProductHandler) UploadContent(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		respondError(c, apperror.BadRequest("Invalid form"))
		return
	}

	ids := c.PostFormArray("product_ids[]")
	if len(ids) == 0 {
		ids = c.PostFormArray("product_ids")
	}

	edits := make([]bulk.Edit, 0, len(ids))
	for _, id := range ids {
		missing := c.PostFormArray("missing_" + id + "[]")
		edit := bulk.Edit{
			ProductID:   id,
			Description: reviewedField(c, "description", id, missing),
			Tags:        reviewedField(c, "tags", id, missing),
			Category:    reviewedField(c, "category", id, missing),
			Images:      c.PostFormArray("selected_images_" + id + "[]"),
		}
		if len(edit.Images) == 0 {
			edit.Images = c.PostFormArray("selected_images_" + id)
		}
		h.logger.Info("Processing product %s with %d selected images", id, len(edit.Images))
		edits = append(edits, edit)
	}

	// The batch finishes even if the operator's browser goes away.
	report := h.workflow.Apply(context.WithoutCancel(c.Request.Context()), edits)
	h.logger.Info("Upload finished: %+v", report)

	c.Redirect(http.StatusSeeOther, "/upload_success")
}

func (h *ProductHandler) UploadSuccess(c *gin.Context) {
	c.HTML(http.StatusOK, "success.html", nil)
}

// reviewedField returns nil when the field was not posted, or when it was
// not generated and the operator left it empty.
func reviewedField(c *gin.Context, field, id string, missing []string) *string {
	v, ok := c.GetPostForm(field + "_" + id)
	if !ok {
		return nil
	}
	if strings.TrimSpace(v) == "" && slices.Contains(missing, field) {
		return nil
	}
	return &v
}
