package shopify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"catalogsync/internal/apperror"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
)

const (
	// PageSize is the number of products requested per listing page.
	PageSize = 50

	defaultAPIVersion = "2023-07"
	serviceName       = "shopify"
)

type Client struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	baseURL     string
	httpClient  *http.Client
	logger      *logger.Logger
}

type Option func(*Client)

// WithAPIVersion pins the Admin API version, e.g. "2023-07".
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.apiVersion = version
		}
	}
}

// WithBaseURL overrides https://{shop}/admin/api/{version}.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func NewClient(shopDomain, accessToken string, logger *logger.Logger, opts ...Option) *Client {
	c := &Client{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		apiVersion:  defaultAPIVersion,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.WithField("component", "shopify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = fmt.Sprintf("https://%s/admin/api/%s", c.shopDomain, c.apiVersion)
	}
	return c
}

// VendorProducts lazily pages through the vendor's products and yields the
// ones whose total inventory is strictly below maxTotalInventory. A failed
// page yields an *apperror.UpstreamError and ends the sequence; products
// already yielded stay valid.
func (c *Client) VendorProducts(ctx context.Context, vendor string, maxTotalInventory int) iter.Seq2[Product, error] {
	return func(yield func(Product, error) bool) {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(PageSize))
		query.Set("vendor", vendor)

		for {
			products, cursor, err := c.getProductsPage(ctx, vendor, query)
			if err != nil {
				yield(Product{}, err)
				return
			}

			c.logger.Info("Fetched %d products from the Shopify API.", len(products))

			for _, product := range products {
				total := TotalInventory(&product)
				if total >= maxTotalInventory {
					c.logger.Debug("Skipping product '%s' with total inventory: %d (above threshold).", product.Title, total)
					continue
				}
				c.logger.Debug("Product '%s' has total inventory: %d", product.Title, total)
				if !yield(product, nil) {
					return
				}
			}

			if cursor == "" {
				return
			}
			c.logger.Debug("Fetching next page with page_info: %s", cursor)

			// Shopify rejects filter parameters alongside page_info.
			query = url.Values{}
			query.Set("limit", strconv.Itoa(PageSize))
			query.Set("page_info", cursor)
		}
	}
}

// ListVendorProducts collects VendorProducts. On error it returns the
// products gathered so far together with the error.
func (c *Client) ListVendorProducts(ctx context.Context, vendor string, maxTotalInventory int) ([]Product, error) {
	var products []Product
	for product, err := range c.VendorProducts(ctx, vendor, maxTotalInventory) {
		if err != nil {
			return products, err
		}
		products = append(products, product)
	}
	c.logger.Info("Total products after filtering: %d", len(products))
	return products, nil
}

func (c *Client) getProductsPage(ctx context.Context, vendor string, query url.Values) ([]Product, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/products.json", nil)
	if err != nil {
		return nil, "", err
	}
	req.URL.RawQuery = query.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch products for vendor %s: %v", vendor, err)
		return nil, "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Failed to fetch products for vendor %s. Status code: %d, body: %s", vendor, resp.StatusCode, string(body))
		return nil, "", &apperror.UpstreamError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var productsResp ProductsResponse
	if err := json.NewDecoder(resp.Body).Decode(&productsResp); err != nil {
		return nil, "", fmt.Errorf("failed to decode response: %w", err)
	}

	return productsResp.Products, nextPageInfo(resp.Header.Get("Link")), nil
}

const inventoryItemQuery = `query InventoryItemParent($id: ID!) {
  inventoryItem(id: $id) {
    id
    variant {
      title
      product {
        id
        title
        variants(first: 100) {
          edges {
            node {
              inventoryQuantity
            }
          }
        }
      }
    }
  }
}`

// ResolveInventoryItem finds the parent product of an inventory item and
// sums the inventory of all its variants. When the item is unknown or the
// lookup fails it returns models.UnresolvedProduct() and an error wrapping
// apperror.ErrResolutionMiss.
func (c *Client) ResolveInventoryItem(ctx context.Context, inventoryItemID string) (models.ParentProductInfo, error) {
	miss := func(format string, args ...interface{}) (models.ParentProductInfo, error) {
		msg := fmt.Sprintf(format, args...)
		c.logger.Error("%s", msg)
		return models.UnresolvedProduct(), fmt.Errorf("%w: %s", apperror.ErrResolutionMiss, msg)
	}

	payload := graphQLRequest{
		Query:     inventoryItemQuery,
		Variables: map[string]interface{}{"id": InventoryItemGID(inventoryItemID)},
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/graphql.json", payload)
	if err != nil {
		return miss("Failed to build inventory item query: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return miss("Failed to fetch inventory item %s: %v", inventoryItemID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return miss("Failed to fetch inventory item %s. Status code: %d, body: %s", inventoryItemID, resp.StatusCode, string(body))
	}

	var out inventoryItemResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return miss("Failed to decode inventory item %s: %v", inventoryItemID, err)
	}
	if len(out.Errors) > 0 {
		return miss("GraphQL error for inventory item %s: %s", inventoryItemID, out.Errors[0].Message)
	}

	item := out.Data.InventoryItem
	if item == nil || item.Variant == nil || item.Variant.Product.ID == "" {
		return miss("No product found for inventory item ID: %s", inventoryItemID)
	}

	total := 0
	for _, edge := range item.Variant.Product.Variants.Edges {
		if edge.Node.InventoryQuantity != nil {
			total += *edge.Node.InventoryQuantity
		}
	}

	return models.ParentProductInfo{
		ProductID:      item.Variant.Product.ID,
		DisplayName:    displayName(item.Variant.Product.Title, item.Variant.Title),
		TotalInventory: total,
	}, nil
}

// UpdateProductContent writes description, tags and category. Nil fields
// are not sent.
func (c *Client) UpdateProductContent(ctx context.Context, productID string, description, tags, category *string) error {
	id, err := parseProductID(productID)
	if err != nil {
		return err
	}

	update := productUpdate{
		ID:          id,
		BodyHTML:    description,
		Tags:        tags,
		ProductType: category,
	}
	if err := c.putProduct(ctx, update); err != nil {
		c.logger.Error("Failed to update product %d: %v", id, err)
		return err
	}

	c.logger.Info("Successfully updated product %d.", id)
	return nil
}

// SetProductStatus publishes (active) or hides (draft) a product. GIDs are
// normalized to the numeric id the REST endpoint expects.
func (c *Client) SetProductStatus(ctx context.Context, productID string, status models.ProductStatus) error {
	if status != models.ProductStatusActive && status != models.ProductStatusDraft {
		return apperror.BadRequest(fmt.Sprintf("unsupported product status %q", status))
	}

	id, err := parseProductID(productID)
	if err != nil {
		return err
	}

	s := string(status)
	if err := c.putProduct(ctx, productUpdate{ID: id, Status: &s}); err != nil {
		c.logger.Error("Failed to update product %d to %s: %v", id, status, err)
		return err
	}

	c.logger.Info("Successfully updated product %d to %s.", id, status)
	return nil
}

// UploadProductImage attaches base64-encoded image data to a product.
func (c *Client) UploadProductImage(ctx context.Context, productID string, data []byte, filename string) error {
	id, err := parseProductID(productID)
	if err != nil {
		return err
	}

	payload := struct {
		Image imageUpload `json:"image"`
	}{
		Image: imageUpload{
			Attachment: base64.StdEncoding.EncodeToString(data),
			Filename:   filename,
		},
	}

	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/products/%d/images.json", id), payload)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to upload image to product %d: %v", id, err)
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Failed to upload image to product %d. Status code: %d, response: %s", id, resp.StatusCode, string(body))
		return &apperror.UpstreamError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(body)}
	}

	c.logger.Info("Successfully uploaded image to product %d", id)
	return nil
}

func (c *Client) putProduct(ctx context.Context, update productUpdate) error {
	payload := struct {
		Product productUpdate `json:"product"`
	}{
		Product: update,
	}

	req, err := c.newRequest(ctx, http.MethodPut, fmt.Sprintf("/products/%d.json", update.ID), payload)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &apperror.UpstreamError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload interface{}) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func parseProductID(productID string) (int64, error) {
	id, err := strconv.ParseInt(NumericID(productID), 10, 64)
	if err != nil {
		return 0, apperror.BadRequest(fmt.Sprintf("invalid product id %q", productID))
	}
	return id, nil
}
