package domain

import "context"

// StockRecordFilter narrows stock record listings.
type StockRecordFilter struct {
	ItemCode        string
	WarehouseCode   string
	LowStockOnly    bool
	IncludeInactive bool
}

// ScanCursor marks a position in the low-stock ordering so a scan can
// resume after the last row it returned. The ordering is ascending deficit
// (available - reorderPoint), then warehouse code, then item code.
type ScanCursor struct {
	Deficit       Quantity `json:"deficit"`
	WarehouseCode string   `json:"warehouse_code"`
	ItemCode      string   `json:"item_code"`
}

// LowStockQuery selects records whose available quantity is at or below
// their reorder point.
type LowStockQuery struct {
	// WarehouseCode restricts the scan to one warehouse when non-empty.
	WarehouseCode string
	// After resumes the scan from a previous cursor position.
	After *ScanCursor
	// Limit caps the batch size; the repository applies its default when
	// zero.
	Limit int
}

// StockAlert is one row of a low-stock scan.
type StockAlert struct {
	ItemCode          string   `bson:"item_code" json:"item_code"`
	WarehouseCode     string   `bson:"warehouse_code" json:"warehouse_code"`
	QuantityOnHand    Quantity `bson:"quantity_on_hand" json:"quantity_on_hand"`
	QuantityReserved  Quantity `bson:"quantity_reserved" json:"quantity_reserved"`
	QuantityAvailable Quantity `bson:"quantity_available" json:"quantity_available"`
	ReorderPoint      Quantity `bson:"reorder_point" json:"reorder_point"`
	// Deficit is available - reorderPoint, zero or negative for every row
	// the scan returns. The most negative rows sort first.
	Deficit Quantity `bson:"deficit" json:"deficit"`
}

// Cursor returns the resume marker for the row.
func (a *StockAlert) Cursor() ScanCursor {
	return ScanCursor{Deficit: a.Deficit, WarehouseCode: a.WarehouseCode, ItemCode: a.ItemCode}
}

// StockRecordRepository persists stock records together with their movement
// history.
type StockRecordRepository interface {
	// FindByKey loads the record for one (item, warehouse) pair, returning
	// ErrStockRecordNotFound when it does not exist.
	FindByKey(ctx context.Context, itemCode, warehouseCode string) (*StockRecord, error)

	// Create inserts a brand-new record. A unique index on the key makes
	// concurrent creates collide; the loser gets ErrConcurrentModification
	// and should re-read.
	Create(ctx context.Context, record *StockRecord) error

	// Save persists a mutated record together with the movement entry the
	// mutation produced, in one transaction. The write is guarded by the
	// record's version; a concurrent writer causes ErrConcurrentModification
	// and no change. The movement may be nil for mutations that do not move
	// quantity, such as level changes. Accumulated domain events are staged
	// for publication in the same transaction and cleared on success.
	Save(ctx context.Context, record *StockRecord, movement *MovementEntry) error

	// List returns records matching the filter, newest first, with the
	// total count for pagination.
	List(ctx context.Context, filter StockRecordFilter, limit, offset int) ([]*StockRecord, int64, error)

	// FindLowStock returns one batch of the low-stock ordering described on
	// ScanCursor.
	FindLowStock(ctx context.Context, query LowStockQuery) ([]StockAlert, error)
}

// MovementRepository reads the append-only movement history. Entries are
// written only through StockRecordRepository.Save, never directly.
type MovementRepository interface {
	// FindByKey returns movements for one key, newest first, with the
	// total count. A non-empty movementType restricts the page to that
	// type; the count follows the restriction.
	FindByKey(ctx context.Context, itemCode, warehouseCode string, movementType MovementType, limit, offset int) ([]MovementEntry, int64, error)

	// FindAllByKey returns the full history for one key in ascending
	// sequence order, for replay.
	FindAllByKey(ctx context.Context, itemCode, warehouseCode string) ([]MovementEntry, error)
}

// ItemRepository persists catalog items.
type ItemRepository interface {
	Save(ctx context.Context, item *Item) error
	FindByCode(ctx context.Context, code string) (*Item, error)
	List(ctx context.Context, includeInactive bool, limit, offset int) ([]*Item, int64, error)
}

// WarehouseRepository persists warehouses.
type WarehouseRepository interface {
	Save(ctx context.Context, warehouse *Warehouse) error
	FindByCode(ctx context.Context, code string) (*Warehouse, error)
	List(ctx context.Context, includeInactive bool, limit, offset int) ([]*Warehouse, int64, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	PublishAll(ctx context.Context, events []DomainEvent) error
}
