package bulk

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"catalogsync/internal/apperror"
	"catalogsync/internal/logger"
	"catalogsync/internal/metrics"
	"catalogsync/internal/services/ai"
	"catalogsync/internal/services/images"
	"catalogsync/internal/services/shopify"
)

const DefaultConcurrency = 4

type ProductSource interface {
	VendorProducts(ctx context.Context, vendor string, maxTotalInventory int) iter.Seq2[shopify.Product, error]
}

type ProductWriter interface {
	UpdateProductContent(ctx context.Context, productID string, description, tags, category *string) error
	UploadProductImage(ctx context.Context, productID string, data []byte, filename string) error
}

type ContentGenerator interface {
	Generate(ctx context.Context, productTitle string) (string, error)
}

type ImageFinder interface {
	Search(ctx context.Context, query string) []string
	Download(ctx context.Context, imageURL string) ([]byte, error)
}

type IgnoreList interface {
	Contains(name string) bool
}

// ReviewItem is one product proposed to the operator. A nil text field was
// not produced by the generator and is left for the operator to fill in.
type ReviewItem struct {
	ProductID   string   `json:"product_id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Tags        *string  `json:"tags"`
	Category    *string  `json:"category"`
	Images      []string `json:"images"`
}

// Missing names the text fields the generator did not produce.
func (i ReviewItem) Missing() []string {
	var missing []string
	if i.Description == nil {
		missing = append(missing, "description")
	}
	if i.Tags == nil {
		missing = append(missing, "tags")
	}
	if i.Category == nil {
		missing = append(missing, "category")
	}
	return missing
}

type Review struct {
	Vendor  string       `json:"vendor"`
	Items   []ReviewItem `json:"items"`
	Skipped int          `json:"skipped"`
}

// Edit is the operator-confirmed content of one product.
type Edit struct {
	ProductID   string
	Description *string
	Tags        *string
	Category    *string
	Images      []string
}

type ApplyReport struct {
	ProductsUpdated int `json:"products_updated"`
	ProductsFailed  int `json:"products_failed"`
	ImagesUploaded  int `json:"images_uploaded"`
	ImagesFailed    int `json:"images_failed"`
}

type Workflow struct {
	products    ProductSource
	writer      ProductWriter
	generator   ContentGenerator
	images      ImageFinder
	ignored     IgnoreList
	metrics     *metrics.Metrics
	logger      *logger.Logger
	concurrency int
}

type Options struct {
	Concurrency int
	Metrics     *metrics.Metrics
}

func New(products ProductSource, writer ProductWriter, generator ContentGenerator, finder ImageFinder, ignored IgnoreList, logger *logger.Logger, opts Options) *Workflow {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Workflow{
		products:    products,
		writer:      writer,
		generator:   generator,
		images:      finder,
		ignored:     ignored,
		metrics:     opts.Metrics,
		logger:      logger.WithField("component", "bulk"),
		concurrency: opts.Concurrency,
	}
}

// Generate builds the review list for the vendor's products whose total
// inventory is below minInventory. An empty review means no eligible products.
func (w *Workflow) Generate(ctx context.Context, vendor string, minInventory int) (*Review, error) {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		return nil, apperror.BadRequest("vendor is required")
	}

	var candidates []shopify.Product
	for product, err := range w.products.VendorProducts(ctx, vendor, minInventory) {
		if err != nil {
			if len(candidates) == 0 {
				return nil, err
			}
			w.logger.Warn("Product listing for vendor %s stopped early, continuing with %d products: %v", vendor, len(candidates), err)
			break
		}
		if w.ignored != nil && w.ignored.Contains(product.Title) {
			w.logger.Info("Skipping ignored product '%s'", product.Title)
			continue
		}
		candidates = append(candidates, product)
	}

	review := &Review{Vendor: vendor, Items: []ReviewItem{}}
	if len(candidates) == 0 {
		w.logger.Info("No products found for vendor %s below inventory %d", vendor, minInventory)
		return review, nil
	}

	results := make([]*ReviewItem, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, product := range candidates {
		g.Go(func() error {
			results[i] = w.prepare(gctx, product)
			return nil
		})
	}
	_ = g.Wait()

	for _, item := range results {
		if item == nil {
			review.Skipped++
			continue
		}
		review.Items = append(review.Items, *item)
	}

	w.logger.Info("Prepared %d products for review (%d skipped) for vendor %s", len(review.Items), review.Skipped, vendor)
	return review, nil
}

// prepare generates text and looks up images for one product. Both run
// concurrently; a failed generation drops the product.
func (w *Workflow) prepare(ctx context.Context, product shopify.Product) *ReviewItem {
	found := make(chan []string, 1)
	go func() {
		found <- w.images.Search(ctx, product.Title)
	}()

	text, err := w.generator.Generate(ctx, product.Title)
	w.metrics.GenerationFinished(err)
	imgs := <-found

	if err != nil || text == "" {
		w.logger.Error("Skipping product '%s': content generation failed: %v", product.Title, err)
		return nil
	}

	content := ai.ParseContent(text)
	if content.Description == nil || content.Tags == nil || content.Category == nil {
		w.logger.Warn("Generated content for '%s' is incomplete; the operator must fill in the missing fields", product.Title)
	}
	if imgs == nil {
		imgs = []string{}
	}

	return &ReviewItem{
		ProductID:   product.IDString(),
		Title:       product.Title,
		Description: content.Description,
		Tags:        content.Tags,
		Category:    content.Category,
		Images:      imgs,
	}
}

// Apply writes the confirmed edits. Failures are counted and never stop the
// remaining images or products. Edits not reached before ctx is done count
// as failed.
func (w *Workflow) Apply(ctx context.Context, edits []Edit) ApplyReport {
	var report ApplyReport

	for i, edit := range edits {
		if err := ctx.Err(); err != nil {
			for _, dropped := range edits[i:] {
				report.ProductsFailed++
				report.ImagesFailed += len(dropped.Images)
			}
			w.logger.Error("Apply cancelled, %d products left unchanged: %v", len(edits)-i, err)
			break
		}

		err := w.writer.UpdateProductContent(ctx, edit.ProductID, edit.Description, edit.Tags, edit.Category)
		w.metrics.BulkApplied("product", err)
		if err != nil {
			report.ProductsFailed++
			w.logger.Error("Failed to update product %s: %v", edit.ProductID, err)
		} else {
			report.ProductsUpdated++
		}

		for _, imageURL := range edit.Images {
			err := w.uploadImage(ctx, edit.ProductID, imageURL)
			w.metrics.BulkApplied("image", err)
			if err != nil {
				report.ImagesFailed++
				w.logger.Error("Failed to upload image %s to product %s: %v", imageURL, edit.ProductID, err)
				continue
			}
			report.ImagesUploaded++
		}
	}

	w.logger.Info("Applied content: %d products updated, %d failed, %d images uploaded, %d failed",
		report.ProductsUpdated, report.ProductsFailed, report.ImagesUploaded, report.ImagesFailed)
	return report
}

func (w *Workflow) uploadImage(ctx context.Context, productID, imageURL string) error {
	data, err := w.images.Download(ctx, imageURL)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("empty image")
	}
	return w.writer.UploadProductImage(ctx, productID, data, images.FilenameFromURL(imageURL))
}

// ParseMinInventory reads the optional threshold form value.
func ParseMinInventory(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.BadRequest("min_inventory_level must be an integer")
	}
	return n, nil
}
