package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/lsf-services/warehouse-system/internal/domain"
	"github.com/lsf-services/warehouse-system/pkg/logging"
)

// maxSaveRetries bounds the optimistic-concurrency retry loop. A conflict
// means another writer committed between our read and our write; the record
// is reloaded and the mutation re-applied against fresh balances.
const maxSaveRetries = 3

// StockApplicationService handles stock ledger mutations. Every mutation
// loads the record, applies one aggregate operation and persists record plus
// movement entry atomically, retrying on version conflicts.
type StockApplicationService struct {
	stockRepo     domain.StockRecordRepository
	itemRepo      domain.ItemRepository
	warehouseRepo domain.WarehouseRepository
	logger        *logging.Logger
}

// NewStockApplicationService creates a new stock application service
func NewStockApplicationService(
	stockRepo domain.StockRecordRepository,
	itemRepo domain.ItemRepository,
	warehouseRepo domain.WarehouseRepository,
	logger *logging.Logger,
) *StockApplicationService {
	return &StockApplicationService{
		stockRepo:     stockRepo,
		itemRepo:      itemRepo,
		warehouseRepo: warehouseRepo,
		logger:        logger,
	}
}

// withRecord runs mutate against the stock record for the given key under
// optimistic concurrency control. When the save hits a version conflict the
// record is reloaded and mutate runs again on fresh state, so mutate must
// confine its effects to the record it is handed. With createIfMissing the
// key is created on first use; a create race falls through to a reload.
func (s *StockApplicationService) withRecord(
	ctx context.Context,
	itemCode, warehouseCode string,
	createIfMissing bool,
	mutate func(record *domain.StockRecord) (*domain.MovementEntry, error),
) (*domain.StockRecord, *domain.MovementEntry, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		record, err := s.stockRepo.FindByKey(ctx, itemCode, warehouseCode)
		if err != nil {
			if !errors.Is(err, domain.ErrStockRecordNotFound) || !createIfMissing {
				return nil, nil, err
			}
			record = domain.NewStockRecord(itemCode, warehouseCode)
			if err := s.stockRepo.Create(ctx, record); err != nil {
				if errors.Is(err, domain.ErrConcurrentModification) {
					lastErr = err
					continue
				}
				return nil, nil, err
			}
		}

		movement, err := mutate(record)
		if err != nil {
			return nil, nil, err
		}

		if err := s.stockRepo.Save(ctx, record, movement); err != nil {
			if errors.Is(err, domain.ErrConcurrentModification) {
				lastErr = err
				continue
			}
			return nil, nil, err
		}
		return record, movement, nil
	}
	return nil, nil, fmt.Errorf("stock update for %s/%s did not settle after %d attempts: %w",
		warehouseCode, itemCode, maxSaveRetries, lastErr)
}

// checkItem verifies the catalog item exists and is active
func (s *StockApplicationService) checkItem(ctx context.Context, itemCode string) error {
	item, err := s.itemRepo.FindByCode(ctx, itemCode)
	if err != nil {
		return err
	}
	if !item.IsActive() {
		return domain.ErrItemInactive
	}
	return nil
}

// checkWarehouse verifies the warehouse exists and is active
func (s *StockApplicationService) checkWarehouse(ctx context.Context, warehouseCode string) error {
	warehouse, err := s.warehouseRepo.FindByCode(ctx, warehouseCode)
	if err != nil {
		return err
	}
	if !warehouse.IsActive() {
		return domain.ErrWarehouseInactive
	}
	return nil
}

// ReceiveStock records an inbound receipt, creating the stock record on
// first use and folding the unit cost into the moving average.
func (s *StockApplicationService) ReceiveStock(ctx context.Context, cmd ReceiveStockCommand) (*StockOperationResultDTO, error) {
	// validate before the get-or-create path so a bad command cannot leave
	// an empty record behind
	if !cmd.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if cmd.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidCost
	}
	if err := s.checkItem(ctx, cmd.ItemCode); err != nil {
		return nil, err
	}
	if err := s.checkWarehouse(ctx, cmd.WarehouseCode); err != nil {
		return nil, err
	}

	record, movement, err := s.withRecord(ctx, cmd.ItemCode, cmd.WarehouseCode, true,
		func(record *domain.StockRecord) (*domain.MovementEntry, error) {
			return record.Receive(cmd.Quantity, cmd.UnitCost, cmd.Actor, cmd.Reference)
		})
	if err != nil {
		s.logger.Error("Failed to receive stock",
			"item_code", cmd.ItemCode, "warehouse_code", cmd.WarehouseCode, "error", err)
		return nil, fmt.Errorf("failed to receive stock: %w", err)
	}

	s.logger.Info("Stock received",
		"item_code", cmd.ItemCode,
		"warehouse_code", cmd.WarehouseCode,
		"quantity", cmd.Quantity,
		"unit_cost", cmd.UnitCost,
		"average_cost", record.AverageCost)
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "stock.received",
		EntityType: "stock_record",
		EntityID:   cmd.ItemCode,
		Action:     "receive",
		RelatedIDs: map[string]string{
			"warehouse_code": cmd.WarehouseCode,
			"movement_id":    movement.MovementID,
		},
	})

	return &StockOperationResultDTO{
		Record:   *ToStockRecordDTO(record),
		Movement: *ToMovementEntryDTO(movement),
	}, nil
}

// ReserveStock sets available stock aside for a pending issue
func (s *StockApplicationService) ReserveStock(ctx context.Context, cmd ReserveStockCommand) (*StockOperationResultDTO, error) {
	record, movement, err := s.withRecord(ctx, cmd.ItemCode, cmd.WarehouseCode, false,
		func(record *domain.StockRecord) (*domain.MovementEntry, error) {
			return record.Reserve(cmd.Quantity, cmd.Actor, cmd.Reference)
		})
	if err != nil {
		s.logger.Error("Failed to reserve stock",
			"item_code", cmd.ItemCode, "warehouse_code", cmd.WarehouseCode, "error", err)
		return nil, fmt.Errorf("failed to reserve stock: %w", err)
	}

	s.logger.Info("Stock reserved",
		"item_code", cmd.ItemCode,
		"warehouse_code", cmd.WarehouseCode,
		"quantity", cmd.Quantity,
		"available_after", record.AvailableQuantity())
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "stock.reserved",
		EntityType: "stock_record",
		EntityID:   cmd.ItemCode,
		Action:     "reserve",
		RelatedIDs: map[string]string{
			"warehouse_code": cmd.WarehouseCode,
			"movement_id":    movement.MovementID,
		},
	})

	return &StockOperationResultDTO{
		Record:   *ToStockRecordDTO(record),
		Movement: *ToMovementEntryDTO(movement),
	}, nil
}

// ReleaseReservation returns reserved stock to the available pool
func (s *StockApplicationService) ReleaseReservation(ctx context.Context, cmd ReleaseReservationCommand) (*StockOperationResultDTO, error) {
	record, movement, err := s.withRecord(ctx, cmd.ItemCode, cmd.WarehouseCode, false,
		func(record *domain.StockRecord) (*domain.MovementEntry, error) {
			return record.Release(cmd.Quantity, cmd.Actor, cmd.Reference)
		})
	if err != nil {
		s.logger.Error("Failed to release reservation",
			"item_code", cmd.ItemCode, "warehouse_code", cmd.WarehouseCode, "error", err)
		return nil, fmt.Errorf("failed to release reservation: %w", err)
	}

	s.logger.Info("Reservation released",
		"item_code", cmd.ItemCode,
		"warehouse_code", cmd.WarehouseCode,
		"quantity", cmd.Quantity,
		"reserved_after", record.QuantityReserved)
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "stock.released",
		EntityType: "stock_record",
		EntityID:   cmd.ItemCode,
		Action:     "release",
		RelatedIDs: map[string]string{
			"warehouse_code": cmd.WarehouseCode,
			"movement_id":    movement.MovementID,
		},
	})

	return &StockOperationResultDTO{
		Record:   *ToStockRecordDTO(record),
		Movement: *ToMovementEntryDTO(movement),
	}, nil
}

// CommitIssue issues previously reserved stock out of the warehouse
func (s *StockApplicationService) CommitIssue(ctx context.Context, cmd CommitIssueCommand) (*StockOperationResultDTO, error) {
	record, movement, err := s.withRecord(ctx, cmd.ItemCode, cmd.WarehouseCode, false,
		func(record *domain.StockRecord) (*domain.MovementEntry, error) {
			return record.CommitIssue(cmd.Quantity, cmd.Actor, cmd.Reference)
		})
	if err != nil {
		s.logger.Error("Failed to commit issue",
			"item_code", cmd.ItemCode, "warehouse_code", cmd.WarehouseCode, "error", err)
		return nil, fmt.Errorf("failed to commit issue: %w", err)
	}

	s.logger.Info("Stock issued",
		"item_code", cmd.ItemCode,
		"warehouse_code", cmd.WarehouseCode,
		"quantity", cmd.Quantity,
		"on_hand_after", record.QuantityOnHand)
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "stock.issued",
		EntityType: "stock_record",
		EntityID:   cmd.ItemCode,
		Action:     "issue",
		RelatedIDs: map[string]string{
			"warehouse_code": cmd.WarehouseCode,
			"movement_id":    movement.MovementID,
		},
	})

	return &StockOperationResultDTO{
		Record:   *ToStockRecordDTO(record),
		Movement: *ToMovementEntryDTO(movement),
	}, nil
}

// AdjustStock corrects the on-hand balance to a counted value
func (s *StockApplicationService) AdjustStock(ctx context.Context, cmd AdjustStockCommand) (*StockOperationResultDTO, error) {
	record, movement, err := s.withRecord(ctx, cmd.ItemCode, cmd.WarehouseCode, false,
		func(record *domain.StockRecord) (*domain.MovementEntry, error) {
			return record.Adjust(cmd.NewOnHand, cmd.Reason, cmd.Actor)
		})
	if err != nil {
		s.logger.Error("Failed to adjust stock",
			"item_code", cmd.ItemCode, "warehouse_code", cmd.WarehouseCode, "error", err)
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	s.logger.Info("Stock adjusted",
		"item_code", cmd.ItemCode,
		"warehouse_code", cmd.WarehouseCode,
		"new_on_hand", cmd.NewOnHand,
		"reason", cmd.Reason)
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "stock.adjusted",
		EntityType: "stock_record",
		EntityID:   cmd.ItemCode,
		Action:     "adjust",
		RelatedIDs: map[string]string{
			"warehouse_code": cmd.WarehouseCode,
			"movement_id":    movement.MovementID,
		},
	})

	return &StockOperationResultDTO{
		Record:   *ToStockRecordDTO(record),
		Movement: *ToMovementEntryDTO(movement),
	}, nil
}

// TransferStock moves stock between warehouses as two independent single-key
// operations: an issue from the source followed by a receipt into the
// destination at the source's carrying cost. When the destination credit
// fails the source is re-credited, so stock is never silently lost; if that
// compensation fails too the discrepancy is logged for reconciliation.
func (s *StockApplicationService) TransferStock(ctx context.Context, cmd TransferStockCommand) (*TransferResultDTO, error) {
	if cmd.FromWarehouse == cmd.ToWarehouse {
		return nil, domain.ErrSameWarehouse
	}
	if !cmd.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if err := s.checkItem(ctx, cmd.ItemCode); err != nil {
		return nil, err
	}
	if err := s.checkWarehouse(ctx, cmd.ToWarehouse); err != nil {
		return nil, err
	}

	reference := cmd.Reference
	if reference == "" {
		reference = fmt.Sprintf("TRANSFER:%s->%s", cmd.FromWarehouse, cmd.ToWarehouse)
	}

	// The transfer moves value at the source's carrying cost, captured from
	// the same record state the withdrawal is applied to.
	var transferCost domain.Money
	_, issue, err := s.withRecord(ctx, cmd.ItemCode, cmd.FromWarehouse, false,
		func(record *domain.StockRecord) (*domain.MovementEntry, error) {
			available := record.AvailableQuantity()
			if cmd.Quantity.GreaterThan(available) {
				return nil, &domain.InsufficientAvailableError{
					ItemCode:      record.ItemCode,
					WarehouseCode: record.WarehouseCode,
					Requested:     cmd.Quantity,
					Available:     available,
					OnHand:        record.QuantityOnHand,
					Reserved:      record.QuantityReserved,
				}
			}
			transferCost = record.AverageCost
			if transferCost.IsZero() {
				transferCost = record.UnitCost
			}
			return record.ApplyDelta(cmd.Quantity.Neg(), domain.ZeroQuantity(), domain.MovementIssue, cmd.Actor, reference)
		})
	if err != nil {
		s.logger.Error("Failed to withdraw stock for transfer",
			"item_code", cmd.ItemCode, "from_warehouse", cmd.FromWarehouse,
			"to_warehouse", cmd.ToWarehouse, "error", err)
		return nil, fmt.Errorf("failed to withdraw stock for transfer: %w", err)
	}

	_, receipt, err := s.withRecord(ctx, cmd.ItemCode, cmd.ToWarehouse, true,
		func(record *domain.StockRecord) (*domain.MovementEntry, error) {
			return record.Receive(cmd.Quantity, transferCost, cmd.Actor, reference)
		})
	if err != nil {
		s.logger.Error("Failed to credit transfer destination, re-crediting source",
			"item_code", cmd.ItemCode, "from_warehouse", cmd.FromWarehouse,
			"to_warehouse", cmd.ToWarehouse, "error", err)
		if _, _, compErr := s.withRecord(ctx, cmd.ItemCode, cmd.FromWarehouse, false,
			func(record *domain.StockRecord) (*domain.MovementEntry, error) {
				return record.Receive(cmd.Quantity, transferCost, cmd.Actor, reference+":REVERSAL")
			}); compErr != nil {
			s.logger.Error("Transfer compensation failed, run reconcile for this key",
				"item_code", cmd.ItemCode, "from_warehouse", cmd.FromWarehouse,
				"quantity", cmd.Quantity, "error", compErr)
		}
		return nil, fmt.Errorf("failed to credit transfer destination: %w", err)
	}

	s.logger.Info("Stock transferred",
		"item_code", cmd.ItemCode,
		"from_warehouse", cmd.FromWarehouse,
		"to_warehouse", cmd.ToWarehouse,
		"quantity", cmd.Quantity,
		"unit_cost", transferCost)
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "stock.transferred",
		EntityType: "stock_record",
		EntityID:   cmd.ItemCode,
		Action:     "transfer",
		RelatedIDs: map[string]string{
			"from_warehouse": cmd.FromWarehouse,
			"to_warehouse":   cmd.ToWarehouse,
		},
	})

	return &TransferResultDTO{
		ItemCode:      cmd.ItemCode,
		FromWarehouse: cmd.FromWarehouse,
		ToWarehouse:   cmd.ToWarehouse,
		Quantity:      cmd.Quantity,
		UnitCost:      transferCost,
		Issue:         *ToMovementEntryDTO(issue),
		Receipt:       *ToMovementEntryDTO(receipt),
	}, nil
}

// SetStockLevels configures the replenishment thresholds for a key, creating
// the stock record when it does not exist yet.
func (s *StockApplicationService) SetStockLevels(ctx context.Context, cmd SetStockLevelsCommand) (*StockRecordDTO, error) {
	if err := domain.ValidateStockLevels(cmd.MinLevel, cmd.MaxLevel, cmd.ReorderPoint); err != nil {
		return nil, err
	}
	if err := s.checkItem(ctx, cmd.ItemCode); err != nil {
		return nil, err
	}
	if err := s.checkWarehouse(ctx, cmd.WarehouseCode); err != nil {
		return nil, err
	}

	record, _, err := s.withRecord(ctx, cmd.ItemCode, cmd.WarehouseCode, true,
		func(record *domain.StockRecord) (*domain.MovementEntry, error) {
			return nil, record.SetLevels(cmd.MinLevel, cmd.MaxLevel, cmd.ReorderPoint, cmd.Actor)
		})
	if err != nil {
		s.logger.Error("Failed to set stock levels",
			"item_code", cmd.ItemCode, "warehouse_code", cmd.WarehouseCode, "error", err)
		return nil, fmt.Errorf("failed to set stock levels: %w", err)
	}

	s.logger.Info("Stock levels updated",
		"item_code", cmd.ItemCode,
		"warehouse_code", cmd.WarehouseCode,
		"min_level", cmd.MinLevel,
		"max_level", cmd.MaxLevel,
		"reorder_point", cmd.ReorderPoint)

	return ToStockRecordDTO(record), nil
}

// DeactivateStock soft-deletes a stock record. Balances and movement history
// stay readable; further mutations are rejected.
func (s *StockApplicationService) DeactivateStock(ctx context.Context, cmd DeactivateStockCommand) (*StockRecordDTO, error) {
	record, _, err := s.withRecord(ctx, cmd.ItemCode, cmd.WarehouseCode, false,
		func(record *domain.StockRecord) (*domain.MovementEntry, error) {
			record.Deactivate()
			return nil, nil
		})
	if err != nil {
		s.logger.Error("Failed to deactivate stock record",
			"item_code", cmd.ItemCode, "warehouse_code", cmd.WarehouseCode, "error", err)
		return nil, fmt.Errorf("failed to deactivate stock record: %w", err)
	}

	s.logger.Info("Stock record deactivated",
		"item_code", cmd.ItemCode,
		"warehouse_code", cmd.WarehouseCode,
		"actor", cmd.Actor)

	return ToStockRecordDTO(record), nil
}
