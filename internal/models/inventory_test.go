package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForInventory(t *testing.T) {
	assert.Equal(t, ProductStatusDraft, StatusForInventory(-3))
	assert.Equal(t, ProductStatusDraft, StatusForInventory(0))
	assert.Equal(t, ProductStatusActive, StatusForInventory(1))
	assert.Equal(t, ProductStatusActive, StatusForInventory(250))
}

func TestInventoryEventAcceptsNumberAndString(t *testing.T) {
	var numeric InventoryEvent
	require.NoError(t, json.Unmarshal([]byte(`{"inventory_item_id": 271878346596884, "location_id": 905684977, "available": 6}`), &numeric))
	assert.Equal(t, ItemID("271878346596884"), numeric.InventoryItemID)
	assert.Equal(t, ItemID("905684977"), numeric.LocationID)
	require.NotNil(t, numeric.Available)
	assert.Equal(t, 6, *numeric.Available)

	var text InventoryEvent
	require.NoError(t, json.Unmarshal([]byte(`{"inventory_item_id": "X"}`), &text))
	assert.Equal(t, ItemID("X"), text.InventoryItemID)

	var missing InventoryEvent
	require.NoError(t, json.Unmarshal([]byte(`{"inventory_item_id": null}`), &missing))
	assert.Empty(t, missing.InventoryItemID)

	var bad InventoryEvent
	assert.Error(t, json.Unmarshal([]byte(`{"inventory_item_id": {"id": 1}}`), &bad))
}

func TestUnresolvedProduct(t *testing.T) {
	info := UnresolvedProduct()
	assert.False(t, info.Resolved())
	assert.Equal(t, "Unknown Product", info.DisplayName)
	assert.Zero(t, info.TotalInventory)
}
