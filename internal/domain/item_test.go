package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		itemName    string
		itemType    ItemType
		details     ItemDetails
		expectError error
	}{
		{
			name:     "stock item",
			code:     "ITM001",
			itemName: "Hydraulic Pump",
			itemType: ItemTypeStock,
			details:  ItemDetails{Unit: "EA", StandardCost: MustMoney("25000")},
		},
		{
			name:     "loanable asset",
			code:     "AST001",
			itemName: "Torque Wrench",
			itemType: ItemTypeAsset,
			details:  ItemDetails{Unit: "EA", IsLoanable: true, RequiresReturn: true, MaxLoanDurationDays: 14},
		},
		{
			name:        "missing code",
			code:        "",
			itemName:    "Nameless",
			itemType:    ItemTypeStock,
			expectError: ErrItemCodeRequired,
		},
		{
			name:        "missing name",
			code:        "ITM002",
			itemName:    "",
			itemType:    ItemTypeStock,
			expectError: ErrItemCodeRequired,
		},
		{
			name:        "unknown type",
			code:        "ITM003",
			itemName:    "Mystery",
			itemType:    ItemType("VIRTUAL"),
			expectError: ErrInvalidItemType,
		},
		{
			name:        "negative loan duration",
			code:        "AST002",
			itemName:    "Caliper",
			itemType:    ItemTypeAsset,
			details:     ItemDetails{MaxLoanDurationDays: -1},
			expectError: ErrInvalidLoanDuration,
		},
		{
			name:        "negative standard cost",
			code:        "ITM004",
			itemName:    "Gasket",
			itemType:    ItemTypeStock,
			details:     ItemDetails{StandardCost: MustMoney("-1")},
			expectError: ErrInvalidCost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewItem(tt.code, tt.itemName, tt.itemType, tt.details, "user1")

			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.code, item.Code)
				assert.Equal(t, StatusActive, item.Status)
				assert.True(t, item.IsActive())
				require.Len(t, item.GetDomainEvents(), 1)
				created, ok := item.GetDomainEvents()[0].(*ItemCreatedEvent)
				require.True(t, ok)
				assert.Equal(t, tt.code, created.ItemCode)
			}
		})
	}
}

func TestItem_Deactivate(t *testing.T) {
	item, err := NewItem("ITM001", "Hydraulic Pump", ItemTypeStock, ItemDetails{Unit: "EA"}, "user1")
	require.NoError(t, err)
	item.ClearDomainEvents()

	item.Deactivate("user2")
	assert.False(t, item.IsActive())
	assert.Equal(t, "user2", item.UpdatedBy)
	require.Len(t, item.GetDomainEvents(), 1)

	// Deactivating twice is a no-op.
	item.Deactivate("user3")
	assert.Len(t, item.GetDomainEvents(), 1)

	err = item.Update("New Name", ItemDetails{}, "user2")
	assert.ErrorIs(t, err, ErrItemInactive)

	item.Activate("user2")
	assert.True(t, item.IsActive())
	assert.NoError(t, item.Update("New Name", ItemDetails{Unit: "EA"}, "user2"))
	assert.Equal(t, "New Name", item.Name)
}

func TestNewWarehouse(t *testing.T) {
	tests := []struct {
		name          string
		code          string
		warehouseName string
		expectError   error
	}{
		{
			name:          "valid warehouse",
			code:          "WH001",
			warehouseName: "Central Depot",
		},
		{
			name:        "missing code",
			code:        "",
			expectError: ErrWarehouseCodeRequired,
		},
		{
			name:        "missing name",
			code:        "WH002",
			expectError: ErrWarehouseCodeRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWarehouse(tt.code, tt.warehouseName, "", "", "user1")

			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.code, w.Code)
				assert.True(t, w.IsActive())
				require.Len(t, w.GetDomainEvents(), 1)
			}
		})
	}
}

func TestWarehouse_Deactivate(t *testing.T) {
	w, err := NewWarehouse("WH001", "Central Depot", "", "", "user1")
	require.NoError(t, err)
	w.ClearDomainEvents()

	w.Deactivate("user2")
	assert.False(t, w.IsActive())
	require.Len(t, w.GetDomainEvents(), 1)
	deactivated, ok := w.GetDomainEvents()[0].(*WarehouseDeactivatedEvent)
	require.True(t, ok)
	assert.Equal(t, "WH001", deactivated.WarehouseCode)

	err = w.Update("Renamed", "", "", "user2")
	assert.ErrorIs(t, err, ErrWarehouseInactive)
}
