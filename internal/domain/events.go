package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// StockReceivedEvent is published when stock is received into a warehouse
type StockReceivedEvent struct {
	ItemCode      string    `json:"itemCode"`
	WarehouseCode string    `json:"warehouseCode"`
	Quantity      Quantity  `json:"quantity"`
	UnitCost      Money     `json:"unitCost"`
	AverageCost   Money     `json:"averageCost"`
	OnHandAfter   Quantity  `json:"onHandAfter"`
	Actor         string    `json:"actor"`
	Reference     string    `json:"reference,omitempty"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

func (e *StockReceivedEvent) EventType() string     { return "warehouse.stock.received" }
func (e *StockReceivedEvent) OccurredAt() time.Time { return e.ReceivedAt }

// StockReservedEvent is published when available stock is set aside
type StockReservedEvent struct {
	ItemCode       string    `json:"itemCode"`
	WarehouseCode  string    `json:"warehouseCode"`
	Quantity       Quantity  `json:"quantity"`
	ReservedAfter  Quantity  `json:"reservedAfter"`
	AvailableAfter Quantity  `json:"availableAfter"`
	Actor          string    `json:"actor"`
	Reference      string    `json:"reference,omitempty"`
	ReservedAt     time.Time `json:"reservedAt"`
}

func (e *StockReservedEvent) EventType() string     { return "warehouse.stock.reserved" }
func (e *StockReservedEvent) OccurredAt() time.Time { return e.ReservedAt }

// ReservationReleasedEvent is published when a reservation is returned to
// the available pool
type ReservationReleasedEvent struct {
	ItemCode       string    `json:"itemCode"`
	WarehouseCode  string    `json:"warehouseCode"`
	Quantity       Quantity  `json:"quantity"`
	ReservedAfter  Quantity  `json:"reservedAfter"`
	AvailableAfter Quantity  `json:"availableAfter"`
	Actor          string    `json:"actor"`
	Reference      string    `json:"reference,omitempty"`
	ReleasedAt     time.Time `json:"releasedAt"`
}

func (e *ReservationReleasedEvent) EventType() string     { return "warehouse.stock.released" }
func (e *ReservationReleasedEvent) OccurredAt() time.Time { return e.ReleasedAt }

// StockIssuedEvent is published when reserved stock physically leaves
type StockIssuedEvent struct {
	ItemCode      string    `json:"itemCode"`
	WarehouseCode string    `json:"warehouseCode"`
	Quantity      Quantity  `json:"quantity"`
	OnHandAfter   Quantity  `json:"onHandAfter"`
	ReservedAfter Quantity  `json:"reservedAfter"`
	Actor         string    `json:"actor"`
	Reference     string    `json:"reference,omitempty"`
	IssuedAt      time.Time `json:"issuedAt"`
}

func (e *StockIssuedEvent) EventType() string     { return "warehouse.stock.issued" }
func (e *StockIssuedEvent) OccurredAt() time.Time { return e.IssuedAt }

// StockAdjustedEvent is published when an on-hand count is corrected
type StockAdjustedEvent struct {
	ItemCode      string    `json:"itemCode"`
	WarehouseCode string    `json:"warehouseCode"`
	OldOnHand     Quantity  `json:"oldOnHand"`
	NewOnHand     Quantity  `json:"newOnHand"`
	Reason        string    `json:"reason"`
	Actor         string    `json:"actor"`
	AdjustedAt    time.Time `json:"adjustedAt"`
}

func (e *StockAdjustedEvent) EventType() string     { return "warehouse.stock.adjusted" }
func (e *StockAdjustedEvent) OccurredAt() time.Time { return e.AdjustedAt }

// LowStockAlertEvent is published when available stock falls to or below
// the reorder point
type LowStockAlertEvent struct {
	ItemCode          string    `json:"itemCode"`
	WarehouseCode     string    `json:"warehouseCode"`
	QuantityAvailable Quantity  `json:"quantityAvailable"`
	ReorderPoint      Quantity  `json:"reorderPoint"`
	Deficit           Quantity  `json:"deficit"`
	AlertedAt         time.Time `json:"alertedAt"`
}

func (e *LowStockAlertEvent) EventType() string     { return "warehouse.stock.low-stock-alert" }
func (e *LowStockAlertEvent) OccurredAt() time.Time { return e.AlertedAt }

// StockLevelsChangedEvent is published when min/max/reorder levels change
type StockLevelsChangedEvent struct {
	ItemCode      string    `json:"itemCode"`
	WarehouseCode string    `json:"warehouseCode"`
	MinLevel      Quantity  `json:"minLevel"`
	MaxLevel      Quantity  `json:"maxLevel"`
	ReorderPoint  Quantity  `json:"reorderPoint"`
	Actor         string    `json:"actor"`
	ChangedAt     time.Time `json:"changedAt"`
}

func (e *StockLevelsChangedEvent) EventType() string     { return "warehouse.stock.levels-changed" }
func (e *StockLevelsChangedEvent) OccurredAt() time.Time { return e.ChangedAt }

// ItemCreatedEvent is published when a catalog item is registered
type ItemCreatedEvent struct {
	ItemCode  string    `json:"itemCode"`
	ItemName  string    `json:"itemName"`
	ItemType  string    `json:"itemType"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e *ItemCreatedEvent) EventType() string     { return "warehouse.catalog.item-created" }
func (e *ItemCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// ItemDeactivatedEvent is published when a catalog item is soft-deleted
type ItemDeactivatedEvent struct {
	ItemCode      string    `json:"itemCode"`
	DeactivatedBy string    `json:"deactivatedBy"`
	DeactivatedAt time.Time `json:"deactivatedAt"`
}

func (e *ItemDeactivatedEvent) EventType() string     { return "warehouse.catalog.item-deactivated" }
func (e *ItemDeactivatedEvent) OccurredAt() time.Time { return e.DeactivatedAt }

// WarehouseCreatedEvent is published when a warehouse is registered
type WarehouseCreatedEvent struct {
	WarehouseCode string    `json:"warehouseCode"`
	WarehouseName string    `json:"warehouseName"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (e *WarehouseCreatedEvent) EventType() string     { return "warehouse.catalog.warehouse-created" }
func (e *WarehouseCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// WarehouseDeactivatedEvent is published when a warehouse is soft-deleted
type WarehouseDeactivatedEvent struct {
	WarehouseCode string    `json:"warehouseCode"`
	DeactivatedBy string    `json:"deactivatedBy"`
	DeactivatedAt time.Time `json:"deactivatedAt"`
}

func (e *WarehouseDeactivatedEvent) EventType() string     { return "warehouse.catalog.warehouse-deactivated" }
func (e *WarehouseDeactivatedEvent) OccurredAt() time.Time { return e.DeactivatedAt }
