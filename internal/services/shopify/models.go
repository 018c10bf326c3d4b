package shopify

import (
	"strconv"
	"time"
)

// Product represents a Shopify product
type Product struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	BodyHTML    string     `json:"body_html"`
	Vendor      string     `json:"vendor"`
	ProductType string     `json:"product_type"`
	Handle      string     `json:"handle"`
	Status      string     `json:"status"`
	Tags        string     `json:"tags"`
	Variants    []Variant  `json:"variants"`
	Images      []Image    `json:"images"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
}

// IDString returns the numeric product id as a string.
func (p *Product) IDString() string {
	return strconv.FormatInt(p.ID, 10)
}

// Variant represents a product variant
type Variant struct {
	ID                int64  `json:"id"`
	ProductID         int64  `json:"product_id"`
	Title             string `json:"title"`
	Sku               string `json:"sku"`
	InventoryItemID   int64  `json:"inventory_item_id"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

// Image represents a product image
type Image struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Position  int    `json:"position"`
	Src       string `json:"src"`
}

// ProductsResponse represents the response from products API
type ProductsResponse struct {
	Products []Product `json:"products"`
}

// productUpdate is the partial body of PUT /products/{id}.json. Nil fields
// are left untouched upstream.
type productUpdate struct {
	ID          int64   `json:"id"`
	BodyHTML    *string `json:"body_html,omitempty"`
	Tags        *string `json:"tags,omitempty"`
	ProductType *string `json:"product_type,omitempty"`
	Status      *string `json:"status,omitempty"`
}

type imageUpload struct {
	Attachment string `json:"attachment"`
	Filename   string `json:"filename"`
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type inventoryItemResponse struct {
	Data struct {
		InventoryItem *struct {
			ID      string `json:"id"`
			Variant *struct {
				Title   string `json:"title"`
				Product struct {
					ID       string `json:"id"`
					Title    string `json:"title"`
					Variants struct {
						Edges []struct {
							Node struct {
								InventoryQuantity *int `json:"inventoryQuantity"`
							} `json:"node"`
						} `json:"edges"`
					} `json:"variants"`
				} `json:"product"`
			} `json:"variant"`
		} `json:"inventoryItem"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}
