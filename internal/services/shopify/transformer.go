package shopify

import (
	"fmt"
	"strings"
)

const inventoryItemGIDPrefix = "gid://shopify/InventoryItem/"

// TotalInventory sums inventory_quantity over every variant of the product.
func TotalInventory(p *Product) int {
	total := 0
	for _, variant := range p.Variants {
		total += variant.InventoryQuantity
	}
	return total
}

// NumericID strips the GID prefix from a Shopify id:
// "gid://shopify/Product/123" -> "123". Plain ids are returned unchanged.
func NumericID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// InventoryItemGID turns a numeric inventory item id into its GraphQL id.
func InventoryItemGID(id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return inventoryItemGIDPrefix + id
}

func displayName(productTitle, variantTitle string) string {
	return fmt.Sprintf("%s (%s)", productTitle, variantTitle)
}
