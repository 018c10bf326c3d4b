package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnknownProductName is the display name of an unresolved inventory item.
const UnknownProductName = "Unknown Product"

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

// StatusForInventory is the publish/hide rule: no stock hides the product.
func StatusForInventory(totalInventory int) ProductStatus {
	if totalInventory <= 0 {
		return ProductStatusDraft
	}
	return ProductStatusActive
}

// ItemID is an opaque identifier that Shopify may send as a JSON number or string.
type ItemID string

func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("inventory_item_id must be a number or string: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

// InventoryEvent is the body of an inventory_levels/update notification.
type InventoryEvent struct {
	InventoryItemID ItemID `json:"inventory_item_id"`
	LocationID      ItemID `json:"location_id,omitempty"`
	Available       *int   `json:"available,omitempty"`
}

// ParentProductInfo is the product an inventory item belongs to, with the
// inventory summed over every variant at resolution time.
type ParentProductInfo struct {
	ProductID      string `json:"product_id"`
	DisplayName    string `json:"display_name"`
	TotalInventory int    `json:"total_inventory"`
}

// UnresolvedProduct is returned when an inventory item cannot be resolved.
func UnresolvedProduct() ParentProductInfo {
	return ParentProductInfo{DisplayName: UnknownProductName}
}

func (p ParentProductInfo) Resolved() bool {
	return p.ProductID != ""
}
