package application

import (
	"github.com/lsf-services/warehouse-system/internal/domain"
)

// ToStockRecordDTO converts a domain stock record to its DTO, deriving the
// available quantity and total value.
func ToStockRecordDTO(record *domain.StockRecord) *StockRecordDTO {
	if record == nil {
		return nil
	}
	return &StockRecordDTO{
		ItemCode:          record.ItemCode,
		WarehouseCode:     record.WarehouseCode,
		QuantityOnHand:    record.QuantityOnHand,
		QuantityReserved:  record.QuantityReserved,
		QuantityAvailable: record.AvailableQuantity(),
		MinLevel:          record.MinLevel,
		MaxLevel:          record.MaxLevel,
		ReorderPoint:      record.ReorderPoint,
		UnitCost:          record.UnitCost,
		AverageCost:       record.AverageCost,
		TotalValue:        record.TotalValue(),
		IsLowStock:        record.IsLowStock(),
		Active:            record.Active,
		LastMovementAt:    record.LastMovementAt,
		LastReceiptAt:     record.LastReceiptAt,
		LastIssueAt:       record.LastIssueAt,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
}

// ToStockRecordDTOs converts a slice of stock records
func ToStockRecordDTOs(records []*domain.StockRecord) []StockRecordDTO {
	dtos := make([]StockRecordDTO, len(records))
	for i, record := range records {
		dtos[i] = *ToStockRecordDTO(record)
	}
	return dtos
}

// ToMovementEntryDTO converts a movement entry to its DTO
func ToMovementEntryDTO(entry *domain.MovementEntry) *MovementEntryDTO {
	if entry == nil {
		return nil
	}
	return &MovementEntryDTO{
		MovementID:       entry.MovementID,
		ItemCode:         entry.ItemCode,
		WarehouseCode:    entry.WarehouseCode,
		Type:             string(entry.Type),
		OnHandDelta:      entry.OnHandDelta,
		ReservedDelta:    entry.ReservedDelta,
		OnHandAfter:      entry.OnHandAfter,
		ReservedAfter:    entry.ReservedAfter,
		AvailableAfter:   entry.AvailableAfter(),
		UnitCost:         entry.UnitCost,
		AverageCostAfter: entry.AverageCostAfter,
		Actor:            entry.Actor,
		Reference:        entry.Reference,
		Sequence:         entry.Sequence,
		OccurredAt:       entry.OccurredAt,
	}
}

// ToMovementEntryDTOs converts a slice of movement entries
func ToMovementEntryDTOs(entries []domain.MovementEntry) []MovementEntryDTO {
	dtos := make([]MovementEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = *ToMovementEntryDTO(&entries[i])
	}
	return dtos
}

// ToStockAlertDTOs converts low stock scan rows
func ToStockAlertDTOs(alerts []domain.StockAlert) []StockAlertDTO {
	dtos := make([]StockAlertDTO, len(alerts))
	for i, alert := range alerts {
		dtos[i] = StockAlertDTO{
			ItemCode:          alert.ItemCode,
			WarehouseCode:     alert.WarehouseCode,
			QuantityOnHand:    alert.QuantityOnHand,
			QuantityReserved:  alert.QuantityReserved,
			QuantityAvailable: alert.QuantityAvailable,
			ReorderPoint:      alert.ReorderPoint,
			Deficit:           alert.Deficit,
		}
	}
	return dtos
}

// ToItemDTO converts a catalog item to its DTO
func ToItemDTO(item *domain.Item) *ItemDTO {
	if item == nil {
		return nil
	}
	return &ItemDTO{
		Code:                item.Code,
		Name:                item.Name,
		Type:                string(item.Type),
		Description:         item.Details.Description,
		UsageType:           item.Details.UsageType,
		Category:            item.Details.Category,
		Brand:               item.Details.Brand,
		Model:               item.Details.Model,
		Unit:                item.Details.Unit,
		IsLoanable:          item.Details.IsLoanable,
		RequiresReturn:      item.Details.RequiresReturn,
		MaxLoanDurationDays: item.Details.MaxLoanDurationDays,
		StandardCost:        item.Details.StandardCost,
		Status:              item.Status,
		CreatedBy:           item.CreatedBy,
		UpdatedBy:           item.UpdatedBy,
		CreatedAt:           item.CreatedAt,
		UpdatedAt:           item.UpdatedAt,
	}
}

// ToItemDTOs converts a slice of catalog items
func ToItemDTOs(items []*domain.Item) []ItemDTO {
	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = *ToItemDTO(item)
	}
	return dtos
}

// ToWarehouseDTO converts a warehouse to its DTO
func ToWarehouseDTO(w *domain.Warehouse) *WarehouseDTO {
	if w == nil {
		return nil
	}
	return &WarehouseDTO{
		Code:        w.Code,
		Name:        w.Name,
		Description: w.Description,
		Address:     w.Address,
		Status:      w.Status,
		CreatedBy:   w.CreatedBy,
		UpdatedBy:   w.UpdatedBy,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

// ToWarehouseDTOs converts a slice of warehouses
func ToWarehouseDTOs(warehouses []*domain.Warehouse) []WarehouseDTO {
	dtos := make([]WarehouseDTO, len(warehouses))
	for i, w := range warehouses {
		dtos[i] = *ToWarehouseDTO(w)
	}
	return dtos
}
