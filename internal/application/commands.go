package application

import "github.com/lsf-services/warehouse-system/internal/domain"

// ReceiveStockCommand represents the command to receive stock into a warehouse
type ReceiveStockCommand struct {
	ItemCode      string
	WarehouseCode string
	Quantity      domain.Quantity
	UnitCost      domain.Money
	Actor         string
	Reference     string
}

// ReserveStockCommand represents the command to reserve available stock
type ReserveStockCommand struct {
	ItemCode      string
	WarehouseCode string
	Quantity      domain.Quantity
	Actor         string
	Reference     string
}

// ReleaseReservationCommand represents the command to return reserved stock
// to the available pool
type ReleaseReservationCommand struct {
	ItemCode      string
	WarehouseCode string
	Quantity      domain.Quantity
	Actor         string
	Reference     string
}

// CommitIssueCommand represents the command to issue previously reserved
// stock out of the warehouse
type CommitIssueCommand struct {
	ItemCode      string
	WarehouseCode string
	Quantity      domain.Quantity
	Actor         string
	Reference     string
}

// AdjustStockCommand represents the command to correct an on-hand balance
// to a counted value
type AdjustStockCommand struct {
	ItemCode      string
	WarehouseCode string
	NewOnHand     domain.Quantity
	Reason        string
	Actor         string
}

// TransferStockCommand represents the command to move stock between two
// warehouses
type TransferStockCommand struct {
	ItemCode      string
	FromWarehouse string
	ToWarehouse   string
	Quantity      domain.Quantity
	Actor         string
	Reference     string
}

// SetStockLevelsCommand represents the command to configure replenishment
// thresholds for a stock record
type SetStockLevelsCommand struct {
	ItemCode      string
	WarehouseCode string
	MinLevel      domain.Quantity
	MaxLevel      domain.Quantity
	ReorderPoint  domain.Quantity
	Actor         string
}

// DeactivateStockCommand represents the command to soft-delete a stock
// record
type DeactivateStockCommand struct {
	ItemCode      string
	WarehouseCode string
	Actor         string
}

// CreateItemCommand represents the command to register a catalog item
type CreateItemCommand struct {
	Code                string
	Name                string
	Type                string
	Description         string
	UsageType           string
	Category            string
	Brand               string
	Model               string
	Unit                string
	IsLoanable          bool
	RequiresReturn      bool
	MaxLoanDurationDays int
	StandardCost        domain.Money
	Actor               string
}

// UpdateItemCommand represents the command to update a catalog item
type UpdateItemCommand struct {
	Code                string
	Name                string
	Description         string
	UsageType           string
	Category            string
	Brand               string
	Model               string
	Unit                string
	IsLoanable          bool
	RequiresReturn      bool
	MaxLoanDurationDays int
	StandardCost        domain.Money
	Actor               string
}

// DeactivateItemCommand represents the command to soft-delete a catalog item
type DeactivateItemCommand struct {
	Code  string
	Actor string
}

// CreateWarehouseCommand represents the command to register a warehouse
type CreateWarehouseCommand struct {
	Code        string
	Name        string
	Description string
	Address     string
	Actor       string
}

// UpdateWarehouseCommand represents the command to update a warehouse
type UpdateWarehouseCommand struct {
	Code        string
	Name        string
	Description string
	Address     string
	Actor       string
}

// DeactivateWarehouseCommand represents the command to soft-delete a
// warehouse
type DeactivateWarehouseCommand struct {
	Code  string
	Actor string
}

// GetStockQuery represents the query to fetch one stock record
type GetStockQuery struct {
	ItemCode      string
	WarehouseCode string
}

// ListStockQuery represents the query to list stock records with pagination
type ListStockQuery struct {
	ItemCode        string
	WarehouseCode   string
	LowStockOnly    bool
	IncludeInactive bool
	Limit           int
	Offset          int
}

// MovementHistoryQuery represents the query to page through the movement
// history of one stock record, newest first. MovementType narrows the page
// to one entry type when non-empty.
type MovementHistoryQuery struct {
	ItemCode      string
	WarehouseCode string
	MovementType  string
	Limit         int
	Offset        int
}

// ReplayQuery represents the query to rebuild a record's balances from its
// movement history and compare them against the live record
type ReplayQuery struct {
	ItemCode      string
	WarehouseCode string
}

// LowStockScanQuery represents one page of the low stock scan. Cursor is
// the opaque resume token returned by the previous page, empty for the
// first page.
type LowStockScanQuery struct {
	WarehouseCode string
	Cursor        string
	Limit         int
}

// GetItemQuery represents the query to fetch a catalog item by code
type GetItemQuery struct {
	Code string
}

// ListItemsQuery represents the query to list catalog items
type ListItemsQuery struct {
	IncludeInactive bool
	Limit           int
	Offset          int
}

// GetWarehouseQuery represents the query to fetch a warehouse by code
type GetWarehouseQuery struct {
	Code string
}

// ListWarehousesQuery represents the query to list warehouses
type ListWarehousesQuery struct {
	IncludeInactive bool
	Limit           int
	Offset          int
}
