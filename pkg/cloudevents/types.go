package cloudevents

import (
	"time"
)

// EventType constants for warehouse domain events
const (
	// Stock movement events
	StockReceived       = "warehouse.stock.received"
	StockReserved       = "warehouse.stock.reserved"
	ReservationReleased = "warehouse.stock.released"
	StockIssued         = "warehouse.stock.issued"
	StockAdjusted       = "warehouse.stock.adjusted"

	// Stock monitoring events
	LowStockAlert      = "warehouse.stock.low-stock-alert"
	StockLevelsChanged = "warehouse.stock.levels-changed"

	// Catalog events
	ItemCreated          = "warehouse.catalog.item-created"
	ItemDeactivated      = "warehouse.catalog.item-deactivated"
	WarehouseCreated     = "warehouse.catalog.warehouse-created"
	WarehouseDeactivated = "warehouse.catalog.warehouse-deactivated"
)

// Source constants for event sources
const (
	SourceStockAPI     = "/warehouse/stock-api"
	SourceStockMonitor = "/warehouse/stock-monitor"
)

// StockSubject returns the canonical event subject for a stock record key
func StockSubject(warehouseCode, itemCode string) string {
	return "stock/" + warehouseCode + "/" + itemCode
}

// ItemSubject returns the canonical event subject for a catalog item
func ItemSubject(itemCode string) string {
	return "item/" + itemCode
}

// WarehouseSubject returns the canonical event subject for a warehouse
func WarehouseSubject(warehouseCode string) string {
	return "warehouse/" + warehouseCode
}

// WarehouseCloudEvent represents a CloudEvents v1.0 compliant event
type WarehouseCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// Warehouse-specific extensions
	CorrelationID string `json:"whcorrelationid,omitempty"`
	WarehouseCode string `json:"whwarehousecode,omitempty"`
	ItemCode      string `json:"whitemcode,omitempty"`
	Actor         string `json:"whactor,omitempty"`
	TraceParent   string `json:"traceparent,omitempty"`
	TraceState    string `json:"tracestate,omitempty"`
}

// StockReceivedData represents the data payload for StockReceived events.
// Quantity and cost fields carry fixed four decimal place strings.
type StockReceivedData struct {
	ItemCode      string    `json:"itemCode"`
	WarehouseCode string    `json:"warehouseCode"`
	Quantity      string    `json:"quantity"`
	UnitCost      string    `json:"unitCost"`
	AverageCost   string    `json:"averageCost"`
	OnHandAfter   string    `json:"onHandAfter"`
	Actor         string    `json:"actor"`
	Reference     string    `json:"reference,omitempty"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

// StockReservedData represents the data payload for StockReserved events
type StockReservedData struct {
	ItemCode       string    `json:"itemCode"`
	WarehouseCode  string    `json:"warehouseCode"`
	Quantity       string    `json:"quantity"`
	ReservedAfter  string    `json:"reservedAfter"`
	AvailableAfter string    `json:"availableAfter"`
	Actor          string    `json:"actor"`
	Reference      string    `json:"reference,omitempty"`
	ReservedAt     time.Time `json:"reservedAt"`
}

// ReservationReleasedData represents the data payload for ReservationReleased events
type ReservationReleasedData struct {
	ItemCode       string    `json:"itemCode"`
	WarehouseCode  string    `json:"warehouseCode"`
	Quantity       string    `json:"quantity"`
	ReservedAfter  string    `json:"reservedAfter"`
	AvailableAfter string    `json:"availableAfter"`
	Actor          string    `json:"actor"`
	Reference      string    `json:"reference,omitempty"`
	ReleasedAt     time.Time `json:"releasedAt"`
}

// StockIssuedData represents the data payload for StockIssued events
type StockIssuedData struct {
	ItemCode      string    `json:"itemCode"`
	WarehouseCode string    `json:"warehouseCode"`
	Quantity      string    `json:"quantity"`
	OnHandAfter   string    `json:"onHandAfter"`
	ReservedAfter string    `json:"reservedAfter"`
	Actor         string    `json:"actor"`
	Reference     string    `json:"reference,omitempty"`
	IssuedAt      time.Time `json:"issuedAt"`
}

// StockAdjustedData represents the data payload for StockAdjusted events
type StockAdjustedData struct {
	ItemCode      string    `json:"itemCode"`
	WarehouseCode string    `json:"warehouseCode"`
	OldOnHand     string    `json:"oldOnHand"`
	NewOnHand     string    `json:"newOnHand"`
	Reason        string    `json:"reason"`
	Actor         string    `json:"actor"`
	AdjustedAt    time.Time `json:"adjustedAt"`
}

// StockLevelsChangedData represents the data payload for StockLevelsChanged events
type StockLevelsChangedData struct {
	ItemCode      string    `json:"itemCode"`
	WarehouseCode string    `json:"warehouseCode"`
	MinLevel      string    `json:"minLevel"`
	MaxLevel      string    `json:"maxLevel"`
	ReorderPoint  string    `json:"reorderPoint"`
	Actor         string    `json:"actor"`
	ChangedAt     time.Time `json:"changedAt"`
}

// LowStockAlertData represents the data payload for LowStockAlert events
type LowStockAlertData struct {
	ItemCode          string    `json:"itemCode"`
	WarehouseCode     string    `json:"warehouseCode"`
	QuantityAvailable string    `json:"quantityAvailable"`
	ReorderPoint      string    `json:"reorderPoint"`
	Deficit           string    `json:"deficit"`
	AlertedAt         time.Time `json:"alertedAt"`
}

// ItemCreatedData represents the data payload for ItemCreated events
type ItemCreatedData struct {
	ItemCode  string    `json:"itemCode"`
	ItemName  string    `json:"itemName"`
	ItemType  string    `json:"itemType"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// ItemDeactivatedData represents the data payload for ItemDeactivated events
type ItemDeactivatedData struct {
	ItemCode      string    `json:"itemCode"`
	DeactivatedBy string    `json:"deactivatedBy"`
	DeactivatedAt time.Time `json:"deactivatedAt"`
}

// WarehouseCreatedData represents the data payload for WarehouseCreated events
type WarehouseCreatedData struct {
	WarehouseCode string    `json:"warehouseCode"`
	WarehouseName string    `json:"warehouseName"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// WarehouseDeactivatedData represents the data payload for WarehouseDeactivated events
type WarehouseDeactivatedData struct {
	WarehouseCode string    `json:"warehouseCode"`
	DeactivatedBy string    `json:"deactivatedBy"`
	DeactivatedAt time.Time `json:"deactivatedAt"`
}
