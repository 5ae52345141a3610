package application

import (
	"time"

	"github.com/lsf-services/warehouse-system/internal/domain"
)

// StockRecordDTO represents a stock record in responses. Available quantity
// and total value are derived from the stored balances at mapping time.
type StockRecordDTO struct {
	ItemCode          string          `json:"itemCode"`
	WarehouseCode     string          `json:"warehouseCode"`
	QuantityOnHand    domain.Quantity `json:"quantityOnHand"`
	QuantityReserved  domain.Quantity `json:"quantityReserved"`
	QuantityAvailable domain.Quantity `json:"quantityAvailable"`
	MinLevel          domain.Quantity `json:"minLevel"`
	MaxLevel          domain.Quantity `json:"maxLevel"`
	ReorderPoint      domain.Quantity `json:"reorderPoint"`
	UnitCost          domain.Money    `json:"unitCost"`
	AverageCost       domain.Money    `json:"averageCost"`
	TotalValue        domain.Money    `json:"totalValue"`
	IsLowStock        bool            `json:"isLowStock"`
	Active            bool            `json:"active"`
	LastMovementAt    *time.Time      `json:"lastMovementAt,omitempty"`
	LastReceiptAt     *time.Time      `json:"lastReceiptAt,omitempty"`
	LastIssueAt       *time.Time      `json:"lastIssueAt,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// MovementEntryDTO represents one movement ledger entry in responses
type MovementEntryDTO struct {
	MovementID       string          `json:"movementId"`
	ItemCode         string          `json:"itemCode"`
	WarehouseCode    string          `json:"warehouseCode"`
	Type             string          `json:"movementType"`
	OnHandDelta      domain.Quantity `json:"onHandDelta"`
	ReservedDelta    domain.Quantity `json:"reservedDelta"`
	OnHandAfter      domain.Quantity `json:"onHandAfter"`
	ReservedAfter    domain.Quantity `json:"reservedAfter"`
	AvailableAfter   domain.Quantity `json:"availableAfter"`
	UnitCost         *domain.Money   `json:"unitCost,omitempty"`
	AverageCostAfter domain.Money    `json:"averageCostAfter"`
	Actor            string          `json:"actor"`
	Reference        string          `json:"reference,omitempty"`
	Sequence         int64           `json:"sequence"`
	OccurredAt       time.Time       `json:"occurredAt"`
}

// StockOperationResultDTO is the response of a successful stock mutation:
// the updated record plus the movement entry the mutation wrote.
type StockOperationResultDTO struct {
	Record   StockRecordDTO   `json:"record"`
	Movement MovementEntryDTO `json:"movement"`
}

// TransferResultDTO is the response of a successful warehouse transfer
type TransferResultDTO struct {
	ItemCode      string           `json:"itemCode"`
	FromWarehouse string           `json:"fromWarehouse"`
	ToWarehouse   string           `json:"toWarehouse"`
	Quantity      domain.Quantity  `json:"quantity"`
	UnitCost      domain.Money     `json:"unitCost"`
	Issue         MovementEntryDTO `json:"issue"`
	Receipt       MovementEntryDTO `json:"receipt"`
}

// StockAlertDTO represents one row of a low stock scan
type StockAlertDTO struct {
	ItemCode          string          `json:"itemCode"`
	WarehouseCode     string          `json:"warehouseCode"`
	QuantityOnHand    domain.Quantity `json:"quantityOnHand"`
	QuantityReserved  domain.Quantity `json:"quantityReserved"`
	QuantityAvailable domain.Quantity `json:"quantityAvailable"`
	ReorderPoint      domain.Quantity `json:"reorderPoint"`
	Deficit           domain.Quantity `json:"deficit"`
}

// LowStockScanDTO is one page of the low stock scan. Cursor resumes the
// scan after the last returned row and is empty when the scan is done.
type LowStockScanDTO struct {
	Alerts  []StockAlertDTO `json:"alerts"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"hasMore"`
}

// ReplayResultDTO compares balances rebuilt from the movement history
// against the live record
type ReplayResultDTO struct {
	ItemCode            string          `json:"itemCode"`
	WarehouseCode       string          `json:"warehouseCode"`
	ReplayedOnHand      domain.Quantity `json:"replayedOnHand"`
	ReplayedReserved    domain.Quantity `json:"replayedReserved"`
	ReplayedAverageCost domain.Money    `json:"replayedAverageCost"`
	LiveOnHand          domain.Quantity `json:"liveOnHand"`
	LiveReserved        domain.Quantity `json:"liveReserved"`
	LiveAverageCost     domain.Money    `json:"liveAverageCost"`
	InSync              bool            `json:"inSync"`
	EntryCount          int             `json:"entryCount"`
	LastSequence        int64           `json:"lastSequence"`
}

// ItemDTO represents a catalog item in responses
type ItemDTO struct {
	Code                string       `json:"itemCode"`
	Name                string       `json:"itemName"`
	Type                string       `json:"itemType"`
	Description         string       `json:"description,omitempty"`
	UsageType           string       `json:"usageType,omitempty"`
	Category            string       `json:"category,omitempty"`
	Brand               string       `json:"brand,omitempty"`
	Model               string       `json:"model,omitempty"`
	Unit                string       `json:"unit,omitempty"`
	IsLoanable          bool         `json:"isLoanable"`
	RequiresReturn      bool         `json:"requiresReturn"`
	MaxLoanDurationDays int          `json:"maxLoanDurationDays,omitempty"`
	StandardCost        domain.Money `json:"standardCost"`
	Status              string       `json:"status"`
	CreatedBy           string       `json:"createdBy"`
	UpdatedBy           string       `json:"updatedBy"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// WarehouseDTO represents a warehouse in responses
type WarehouseDTO struct {
	Code        string    `json:"warehouseCode"`
	Name        string    `json:"warehouseName"`
	Description string    `json:"description,omitempty"`
	Address     string    `json:"address,omitempty"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"createdBy"`
	UpdatedBy   string    `json:"updatedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
