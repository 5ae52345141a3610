package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/lsf-services/warehouse-system/internal/domain"
	"github.com/lsf-services/warehouse-system/pkg/logging"
)

// CatalogApplicationService manages the item catalog and warehouse registry
// the stock ledger validates against.
type CatalogApplicationService struct {
	itemRepo      domain.ItemRepository
	warehouseRepo domain.WarehouseRepository
	logger        *logging.Logger
}

// NewCatalogApplicationService creates a new catalog application service
func NewCatalogApplicationService(
	itemRepo domain.ItemRepository,
	warehouseRepo domain.WarehouseRepository,
	logger *logging.Logger,
) *CatalogApplicationService {
	return &CatalogApplicationService{
		itemRepo:      itemRepo,
		warehouseRepo: warehouseRepo,
		logger:        logger,
	}
}

// CreateItem registers a new catalog item
func (s *CatalogApplicationService) CreateItem(ctx context.Context, cmd CreateItemCommand) (*ItemDTO, error) {
	existing, err := s.itemRepo.FindByCode(ctx, cmd.Code)
	if err != nil && !errors.Is(err, domain.ErrItemNotFound) {
		return nil, fmt.Errorf("failed to check item code: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrItemAlreadyExists
	}

	item, err := domain.NewItem(cmd.Code, cmd.Name, domain.ItemType(cmd.Type), domain.ItemDetails{
		Description:         cmd.Description,
		UsageType:           cmd.UsageType,
		Category:            cmd.Category,
		Brand:               cmd.Brand,
		Model:               cmd.Model,
		Unit:                cmd.Unit,
		IsLoanable:          cmd.IsLoanable,
		RequiresReturn:      cmd.RequiresReturn,
		MaxLoanDurationDays: cmd.MaxLoanDurationDays,
		StandardCost:        cmd.StandardCost,
	}, cmd.Actor)
	if err != nil {
		return nil, err
	}

	if err := s.itemRepo.Save(ctx, item); err != nil {
		s.logger.Error("Failed to save item", "item_code", cmd.Code, "error", err)
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	s.logger.Info("Item created", "item_code", cmd.Code, "item_type", cmd.Type)
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "catalog.item.created",
		EntityType: "item",
		EntityID:   cmd.Code,
		Action:     "create",
	})

	return ToItemDTO(item), nil
}

// UpdateItem replaces the mutable attributes of an item
func (s *CatalogApplicationService) UpdateItem(ctx context.Context, cmd UpdateItemCommand) (*ItemDTO, error) {
	item, err := s.itemRepo.FindByCode(ctx, cmd.Code)
	if err != nil {
		return nil, err
	}

	if err := item.Update(cmd.Name, domain.ItemDetails{
		Description:         cmd.Description,
		UsageType:           cmd.UsageType,
		Category:            cmd.Category,
		Brand:               cmd.Brand,
		Model:               cmd.Model,
		Unit:                cmd.Unit,
		IsLoanable:          cmd.IsLoanable,
		RequiresReturn:      cmd.RequiresReturn,
		MaxLoanDurationDays: cmd.MaxLoanDurationDays,
		StandardCost:        cmd.StandardCost,
	}, cmd.Actor); err != nil {
		return nil, err
	}

	if err := s.itemRepo.Save(ctx, item); err != nil {
		s.logger.Error("Failed to save item", "item_code", cmd.Code, "error", err)
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	s.logger.Info("Item updated", "item_code", cmd.Code)
	return ToItemDTO(item), nil
}

// DeactivateItem soft-deletes an item; its stock records and movement
// history stay readable.
func (s *CatalogApplicationService) DeactivateItem(ctx context.Context, cmd DeactivateItemCommand) (*ItemDTO, error) {
	item, err := s.itemRepo.FindByCode(ctx, cmd.Code)
	if err != nil {
		return nil, err
	}

	item.Deactivate(cmd.Actor)

	if err := s.itemRepo.Save(ctx, item); err != nil {
		s.logger.Error("Failed to save item", "item_code", cmd.Code, "error", err)
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	s.logger.Info("Item deactivated", "item_code", cmd.Code, "actor", cmd.Actor)
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "catalog.item.deactivated",
		EntityType: "item",
		EntityID:   cmd.Code,
		Action:     "deactivate",
	})

	return ToItemDTO(item), nil
}

// GetItem returns one catalog item by code
func (s *CatalogApplicationService) GetItem(ctx context.Context, query GetItemQuery) (*ItemDTO, error) {
	item, err := s.itemRepo.FindByCode(ctx, query.Code)
	if err != nil {
		return nil, err
	}
	return ToItemDTO(item), nil
}

// ListItems returns catalog items with the total count
func (s *CatalogApplicationService) ListItems(ctx context.Context, query ListItemsQuery) ([]ItemDTO, int64, error) {
	items, total, err := s.itemRepo.List(ctx, query.IncludeInactive, query.Limit, query.Offset)
	if err != nil {
		s.logger.Error("Failed to list items", "error", err)
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	return ToItemDTOs(items), total, nil
}

// CreateWarehouse registers a new warehouse
func (s *CatalogApplicationService) CreateWarehouse(ctx context.Context, cmd CreateWarehouseCommand) (*WarehouseDTO, error) {
	existing, err := s.warehouseRepo.FindByCode(ctx, cmd.Code)
	if err != nil && !errors.Is(err, domain.ErrWarehouseNotFound) {
		return nil, fmt.Errorf("failed to check warehouse code: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrWarehouseAlreadyExists
	}

	warehouse, err := domain.NewWarehouse(cmd.Code, cmd.Name, cmd.Description, cmd.Address, cmd.Actor)
	if err != nil {
		return nil, err
	}

	if err := s.warehouseRepo.Save(ctx, warehouse); err != nil {
		s.logger.Error("Failed to save warehouse", "warehouse_code", cmd.Code, "error", err)
		return nil, fmt.Errorf("failed to save warehouse: %w", err)
	}

	s.logger.Info("Warehouse created", "warehouse_code", cmd.Code)
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "catalog.warehouse.created",
		EntityType: "warehouse",
		EntityID:   cmd.Code,
		Action:     "create",
	})

	return ToWarehouseDTO(warehouse), nil
}

// UpdateWarehouse replaces the mutable attributes of a warehouse
func (s *CatalogApplicationService) UpdateWarehouse(ctx context.Context, cmd UpdateWarehouseCommand) (*WarehouseDTO, error) {
	warehouse, err := s.warehouseRepo.FindByCode(ctx, cmd.Code)
	if err != nil {
		return nil, err
	}

	if err := warehouse.Update(cmd.Name, cmd.Description, cmd.Address, cmd.Actor); err != nil {
		return nil, err
	}

	if err := s.warehouseRepo.Save(ctx, warehouse); err != nil {
		s.logger.Error("Failed to save warehouse", "warehouse_code", cmd.Code, "error", err)
		return nil, fmt.Errorf("failed to save warehouse: %w", err)
	}

	s.logger.Info("Warehouse updated", "warehouse_code", cmd.Code)
	return ToWarehouseDTO(warehouse), nil
}

// DeactivateWarehouse soft-deletes a warehouse. Existing stock records keep
// their balances; receipts into the warehouse are rejected while it is
// inactive, but reservations can still be worked down.
func (s *CatalogApplicationService) DeactivateWarehouse(ctx context.Context, cmd DeactivateWarehouseCommand) (*WarehouseDTO, error) {
	warehouse, err := s.warehouseRepo.FindByCode(ctx, cmd.Code)
	if err != nil {
		return nil, err
	}

	warehouse.Deactivate(cmd.Actor)

	if err := s.warehouseRepo.Save(ctx, warehouse); err != nil {
		s.logger.Error("Failed to save warehouse", "warehouse_code", cmd.Code, "error", err)
		return nil, fmt.Errorf("failed to save warehouse: %w", err)
	}

	s.logger.Info("Warehouse deactivated", "warehouse_code", cmd.Code, "actor", cmd.Actor)
	s.logger.LogBusinessEvent(ctx, logging.BusinessEvent{
		EventType:  "catalog.warehouse.deactivated",
		EntityType: "warehouse",
		EntityID:   cmd.Code,
		Action:     "deactivate",
	})

	return ToWarehouseDTO(warehouse), nil
}

// GetWarehouse returns one warehouse by code
func (s *CatalogApplicationService) GetWarehouse(ctx context.Context, query GetWarehouseQuery) (*WarehouseDTO, error) {
	warehouse, err := s.warehouseRepo.FindByCode(ctx, query.Code)
	if err != nil {
		return nil, err
	}
	return ToWarehouseDTO(warehouse), nil
}

// ListWarehouses returns warehouses with the total count
func (s *CatalogApplicationService) ListWarehouses(ctx context.Context, query ListWarehousesQuery) ([]WarehouseDTO, int64, error) {
	warehouses, total, err := s.warehouseRepo.List(ctx, query.IncludeInactive, query.Limit, query.Offset)
	if err != nil {
		s.logger.Error("Failed to list warehouses", "error", err)
		return nil, 0, fmt.Errorf("failed to list warehouses: %w", err)
	}
	return ToWarehouseDTOs(warehouses), total, nil
}
