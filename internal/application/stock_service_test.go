package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/lsf-services/warehouse-system/internal/domain"
	"github.com/lsf-services/warehouse-system/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fake repositories for testing

func stockKey(itemCode, warehouseCode string) string {
	return warehouseCode + "/" + itemCode
}

type fakeStockRepository struct {
	mu        sync.Mutex
	records   map[string]*domain.StockRecord
	movements []domain.MovementEntry
	sequences map[string]int64
	events    []domain.DomainEvent

	findErr       error
	createErr     error
	saveErr       error
	lowStockErr   error
	conflictsLeft int
}

func newFakeStockRepository() *fakeStockRepository {
	return &fakeStockRepository{
		records:   make(map[string]*domain.StockRecord),
		sequences: make(map[string]int64),
	}
}

func (f *fakeStockRepository) FindByKey(ctx context.Context, itemCode, warehouseCode string) (*domain.StockRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	record, ok := f.records[stockKey(itemCode, warehouseCode)]
	if !ok {
		return nil, domain.ErrStockRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (f *fakeStockRepository) Create(ctx context.Context, record *domain.StockRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	key := stockKey(record.ItemCode, record.WarehouseCode)
	if _, exists := f.records[key]; exists {
		return domain.ErrConcurrentModification
	}
	clone := *record
	f.records[key] = &clone
	return nil
}

// Save mimics the versioned write of the Mongo repository: it succeeds only
// when the stored version still matches the version the caller loaded.
func (f *fakeStockRepository) Save(ctx context.Context, record *domain.StockRecord, movement *domain.MovementEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return domain.ErrConcurrentModification
	}
	key := stockKey(record.ItemCode, record.WarehouseCode)
	stored, ok := f.records[key]
	if !ok {
		return domain.ErrStockRecordNotFound
	}
	if stored.Version != record.Version {
		return domain.ErrConcurrentModification
	}
	record.Version++
	if movement != nil {
		f.sequences[key]++
		movement.Sequence = f.sequences[key]
		f.movements = append(f.movements, *movement)
	}
	f.events = append(f.events, record.GetDomainEvents()...)
	record.ClearDomainEvents()
	clone := *record
	f.records[key] = &clone
	return nil
}

func (f *fakeStockRepository) List(ctx context.Context, filter domain.StockRecordFilter, limit, offset int) ([]*domain.StockRecord, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, 0, f.findErr
	}
	var matched []*domain.StockRecord
	for _, record := range f.records {
		if filter.ItemCode != "" && record.ItemCode != filter.ItemCode {
			continue
		}
		if filter.WarehouseCode != "" && record.WarehouseCode != filter.WarehouseCode {
			continue
		}
		if !filter.IncludeInactive && !record.Active {
			continue
		}
		if filter.LowStockOnly && !record.IsLowStock() {
			continue
		}
		clone := *record
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].WarehouseCode != matched[j].WarehouseCode {
			return matched[i].WarehouseCode < matched[j].WarehouseCode
		}
		return matched[i].ItemCode < matched[j].ItemCode
	})
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeStockRepository) FindLowStock(ctx context.Context, query domain.LowStockQuery) ([]domain.StockAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lowStockErr != nil {
		return nil, f.lowStockErr
	}
	var alerts []domain.StockAlert
	for _, record := range f.records {
		if !record.Active || !record.IsLowStock() {
			continue
		}
		if query.WarehouseCode != "" && record.WarehouseCode != query.WarehouseCode {
			continue
		}
		alerts = append(alerts, domain.StockAlert{
			ItemCode:          record.ItemCode,
			WarehouseCode:     record.WarehouseCode,
			QuantityOnHand:    record.QuantityOnHand,
			QuantityReserved:  record.QuantityReserved,
			QuantityAvailable: record.AvailableQuantity(),
			ReorderPoint:      record.ReorderPoint,
			Deficit:           record.AvailableQuantity().Sub(record.ReorderPoint),
		})
	}
	sort.Slice(alerts, func(i, j int) bool { return alertLess(alerts[i], alerts[j]) })
	if query.After != nil {
		var resumed []domain.StockAlert
		for _, alert := range alerts {
			if alertAfterCursor(alert, *query.After) {
				resumed = append(resumed, alert)
			}
		}
		alerts = resumed
	}
	if query.Limit > 0 && len(alerts) > query.Limit {
		alerts = alerts[:query.Limit]
	}
	return alerts, nil
}

func alertLess(a, b domain.StockAlert) bool {
	if !a.Deficit.Equal(b.Deficit) {
		return a.Deficit.LessThan(b.Deficit)
	}
	if a.WarehouseCode != b.WarehouseCode {
		return a.WarehouseCode < b.WarehouseCode
	}
	return a.ItemCode < b.ItemCode
}

func alertAfterCursor(a domain.StockAlert, c domain.ScanCursor) bool {
	if !a.Deficit.Equal(c.Deficit) {
		return c.Deficit.LessThan(a.Deficit)
	}
	if a.WarehouseCode != c.WarehouseCode {
		return a.WarehouseCode > c.WarehouseCode
	}
	return a.ItemCode > c.ItemCode
}

type fakeMovementRepository struct {
	entries []domain.MovementEntry
	findErr error
}

func (f *fakeMovementRepository) FindByKey(ctx context.Context, itemCode, warehouseCode string, movementType domain.MovementType, limit, offset int) ([]domain.MovementEntry, int64, error) {
	if f.findErr != nil {
		return nil, 0, f.findErr
	}
	matched := f.forKey(itemCode, warehouseCode)
	if movementType != "" {
		filtered := matched[:0]
		for _, entry := range matched {
			if entry.Type == movementType {
				filtered = append(filtered, entry)
			}
		}
		matched = filtered
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Sequence > matched[j].Sequence })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeMovementRepository) FindAllByKey(ctx context.Context, itemCode, warehouseCode string) ([]domain.MovementEntry, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	matched := f.forKey(itemCode, warehouseCode)
	sort.Slice(matched, func(i, j int) bool { return matched[i].Sequence < matched[j].Sequence })
	return matched, nil
}

func (f *fakeMovementRepository) forKey(itemCode, warehouseCode string) []domain.MovementEntry {
	var matched []domain.MovementEntry
	for _, entry := range f.entries {
		if entry.ItemCode == itemCode && entry.WarehouseCode == warehouseCode {
			matched = append(matched, entry)
		}
	}
	return matched
}

type fakeItemRepository struct {
	items   map[string]*domain.Item
	saveErr error
	findErr error
}

func newFakeItemRepository() *fakeItemRepository {
	return &fakeItemRepository{items: make(map[string]*domain.Item)}
}

func (f *fakeItemRepository) Save(ctx context.Context, item *domain.Item) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	item.ClearDomainEvents()
	clone := *item
	f.items[item.Code] = &clone
	return nil
}

func (f *fakeItemRepository) FindByCode(ctx context.Context, code string) (*domain.Item, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	item, ok := f.items[code]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	clone := *item
	return &clone, nil
}

func (f *fakeItemRepository) List(ctx context.Context, includeInactive bool, limit, offset int) ([]*domain.Item, int64, error) {
	if f.findErr != nil {
		return nil, 0, f.findErr
	}
	var matched []*domain.Item
	for _, item := range f.items {
		if !includeInactive && !item.IsActive() {
			continue
		}
		clone := *item
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

type fakeWarehouseRepository struct {
	warehouses map[string]*domain.Warehouse
	saveErr    error
	findErr    error
}

func newFakeWarehouseRepository() *fakeWarehouseRepository {
	return &fakeWarehouseRepository{warehouses: make(map[string]*domain.Warehouse)}
}

func (f *fakeWarehouseRepository) Save(ctx context.Context, warehouse *domain.Warehouse) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	warehouse.ClearDomainEvents()
	clone := *warehouse
	f.warehouses[warehouse.Code] = &clone
	return nil
}

func (f *fakeWarehouseRepository) FindByCode(ctx context.Context, code string) (*domain.Warehouse, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	warehouse, ok := f.warehouses[code]
	if !ok {
		return nil, domain.ErrWarehouseNotFound
	}
	clone := *warehouse
	return &clone, nil
}

func (f *fakeWarehouseRepository) List(ctx context.Context, includeInactive bool, limit, offset int) ([]*domain.Warehouse, int64, error) {
	if f.findErr != nil {
		return nil, 0, f.findErr
	}
	var matched []*domain.Warehouse
	for _, warehouse := range f.warehouses {
		if !includeInactive && !warehouse.IsActive() {
			continue
		}
		clone := *warehouse
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

// Test helpers

func newTestStockService() (*StockApplicationService, *fakeStockRepository, *fakeItemRepository, *fakeWarehouseRepository) {
	stockRepo := newFakeStockRepository()
	itemRepo := newFakeItemRepository()
	warehouseRepo := newFakeWarehouseRepository()
	logger := logging.New(logging.DefaultConfig("test"))
	service := NewStockApplicationService(stockRepo, itemRepo, warehouseRepo, logger)
	return service, stockRepo, itemRepo, warehouseRepo
}

func seedCatalog(itemRepo *fakeItemRepository, warehouseRepo *fakeWarehouseRepository, itemCode string, warehouseCodes ...string) {
	item, _ := domain.NewItem(itemCode, "Test item", domain.ItemTypeStock, domain.ItemDetails{Unit: "EA"}, "tester")
	item.ClearDomainEvents()
	itemRepo.items[itemCode] = item
	for _, code := range warehouseCodes {
		warehouse, _ := domain.NewWarehouse(code, "Warehouse "+code, "", "", "tester")
		warehouse.ClearDomainEvents()
		warehouseRepo.warehouses[code] = warehouse
	}
}

func seedStock(repo *fakeStockRepository, itemCode, warehouseCode, onHand, reserved, reorderPoint string) *domain.StockRecord {
	record := domain.NewStockRecord(itemCode, warehouseCode)
	record.QuantityOnHand = domain.MustQuantity(onHand)
	record.QuantityReserved = domain.MustQuantity(reserved)
	record.ReorderPoint = domain.MustQuantity(reorderPoint)
	repo.records[stockKey(itemCode, warehouseCode)] = record
	return record
}

// Tests

func TestReceiveStockCreatesRecordOnFirstReceipt(t *testing.T) {
	service, stockRepo, itemRepo, warehouseRepo := newTestStockService()
	seedCatalog(itemRepo, warehouseRepo, "ITM001", "WH001")

	result, err := service.ReceiveStock(context.Background(), ReceiveStockCommand{
		ItemCode:      "ITM001",
		WarehouseCode: "WH001",
		Quantity:      domain.MustQuantity("10"),
		UnitCost:      domain.MustMoney("50000"),
		Actor:         "tester",
		Reference:     "PO-1001",
	})

	require.NoError(t, err)
	assert.Equal(t, "10.0000", result.Record.QuantityOnHand.String())
	assert.Equal(t, "50000.0000", result.Record.UnitCost.String())
	assert.Equal(t, "50000.0000", result.Record.AverageCost.String())
	assert.Equal(t, "500000.0000", result.Record.TotalValue.String())
	assert.Equal(t, string(domain.MovementReceipt), result.Movement.Type)
	assert.Equal(t, int64(1), result.Movement.Sequence)
	require.NotNil(t, result.Movement.UnitCost)
	assert.Equal(t, "50000.0000", result.Movement.UnitCost.String())

	stored, err := stockRepo.FindByKey(context.Background(), "ITM001", "WH001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
}

func TestReceiveStockKeepsAverageWhenCostUnchanged(t *testing.T) {
	service, _, itemRepo, warehouseRepo := newTestStockService()
	seedCatalog(itemRepo, warehouseRepo, "ITM001", "WH001")
	ctx := context.Background()

	_, err := service.ReceiveStock(ctx, ReceiveStockCommand{
		ItemCode: "ITM001", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("1000"), UnitCost: domain.MustMoney("25000"),
		Actor: "tester",
	})
	require.NoError(t, err)

	result, err := service.ReceiveStock(ctx, ReceiveStockCommand{
		ItemCode: "ITM001", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("5"), UnitCost: domain.MustMoney("25000"),
		Actor: "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, "1005.0000", result.Record.QuantityOnHand.String())
	assert.Equal(t, "25000.0000", result.Record.AverageCost.String())
}

func TestReceiveStockBlendsAverage(t *testing.T) {
	service, _, itemRepo, warehouseRepo := newTestStockService()
	seedCatalog(itemRepo, warehouseRepo, "ITM001", "WH001")
	ctx := context.Background()

	_, err := service.ReceiveStock(ctx, ReceiveStockCommand{
		ItemCode: "ITM001", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("100"), UnitCost: domain.MustMoney("10"),
		Actor: "tester",
	})
	require.NoError(t, err)

	result, err := service.ReceiveStock(ctx, ReceiveStockCommand{
		ItemCode: "ITM001", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("100"), UnitCost: domain.MustMoney("20"),
		Actor: "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, "15.0000", result.Record.AverageCost.String())
	assert.Equal(t, "20.0000", result.Record.UnitCost.String())
}

func TestReceiveStockValidation(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(itemRepo *fakeItemRepository, warehouseRepo *fakeWarehouseRepository)
		cmd     ReceiveStockCommand
		errorIs error
	}{
		{
			name:  "unknown item",
			setup: func(itemRepo *fakeItemRepository, warehouseRepo *fakeWarehouseRepository) {},
			cmd: ReceiveStockCommand{
				ItemCode: "MISSING", WarehouseCode: "WH001",
				Quantity: domain.MustQuantity("1"), UnitCost: domain.MustMoney("1"), Actor: "tester",
			},
			errorIs: domain.ErrItemNotFound,
		},
		{
			name: "inactive item",
			setup: func(itemRepo *fakeItemRepository, warehouseRepo *fakeWarehouseRepository) {
				seedCatalog(itemRepo, warehouseRepo, "ITM001", "WH001")
				itemRepo.items["ITM001"].Status = domain.StatusInactive
			},
			cmd: ReceiveStockCommand{
				ItemCode: "ITM001", WarehouseCode: "WH001",
				Quantity: domain.MustQuantity("1"), UnitCost: domain.MustMoney("1"), Actor: "tester",
			},
			errorIs: domain.ErrItemInactive,
		},
		{
			name: "unknown warehouse",
			setup: func(itemRepo *fakeItemRepository, warehouseRepo *fakeWarehouseRepository) {
				seedCatalog(itemRepo, warehouseRepo, "ITM001")
			},
			cmd: ReceiveStockCommand{
				ItemCode: "ITM001", WarehouseCode: "MISSING",
				Quantity: domain.MustQuantity("1"), UnitCost: domain.MustMoney("1"), Actor: "tester",
			},
			errorIs: domain.ErrWarehouseNotFound,
		},
		{
			name: "inactive warehouse",
			setup: func(itemRepo *fakeItemRepository, warehouseRepo *fakeWarehouseRepository) {
				seedCatalog(itemRepo, warehouseRepo, "ITM001", "WH001")
				warehouseRepo.warehouses["WH001"].Status = domain.StatusInactive
			},
			cmd: ReceiveStockCommand{
				ItemCode: "ITM001", WarehouseCode: "WH001",
				Quantity: domain.MustQuantity("1"), UnitCost: domain.MustMoney("1"), Actor: "tester",
			},
			errorIs: domain.ErrWarehouseInactive,
		},
		{
			name: "zero quantity",
			setup: func(itemRepo *fakeItemRepository, warehouseRepo *fakeWarehouseRepository) {
				seedCatalog(itemRepo, warehouseRepo, "ITM001", "WH001")
			},
			cmd: ReceiveStockCommand{
				ItemCode: "ITM001", WarehouseCode: "WH001",
				Quantity: domain.ZeroQuantity(), UnitCost: domain.MustMoney("1"), Actor: "tester",
			},
			errorIs: domain.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, stockRepo, itemRepo, warehouseRepo := newTestStockService()
			tt.setup(itemRepo, warehouseRepo)

			_, err := service.ReceiveStock(context.Background(), tt.cmd)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.errorIs)
			assert.Empty(t, stockRepo.movements)
		})
	}
}

func TestReserveStockReducesAvailability(t *testing.T) {
	service, stockRepo, _, _ := newTestStockService()
	seedStock(stockRepo, "ITM002", "WH001", "1000", "100", "200")

	result, err := service.ReserveStock(context.Background(), ReserveStockCommand{
		ItemCode:      "ITM002",
		WarehouseCode: "WH001",
		Quantity:      domain.MustQuantity("750"),
		Actor:         "picker-7",
		Reference:     "ORD-445",
	})

	require.NoError(t, err)
	assert.Equal(t, "1000.0000", result.Record.QuantityOnHand.String())
	assert.Equal(t, "850.0000", result.Record.QuantityReserved.String())
	assert.Equal(t, "150.0000", result.Record.QuantityAvailable.String())
	assert.True(t, result.Record.IsLowStock)
	assert.Equal(t, string(domain.MovementReserve), result.Movement.Type)
	assert.Equal(t, "750.0000", result.Movement.ReservedDelta.String())

	// dropping below the reorder point stages a low stock alert
	var alerted bool
	for _, event := range stockRepo.events {
		if _, ok := event.(*domain.LowStockAlertEvent); ok {
			alerted = true
		}
	}
	assert.True(t, alerted)
}

func TestReserveStockInsufficientAvailable(t *testing.T) {
	service, stockRepo, _, _ := newTestStockService()
	seedStock(stockRepo, "ITM002", "WH001", "1000", "850", "200")

	_, err := service.ReserveStock(context.Background(), ReserveStockCommand{
		ItemCode:      "ITM002",
		WarehouseCode: "WH001",
		Quantity:      domain.MustQuantity("200"),
		Actor:         "picker-7",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailable)

	var insufficient *domain.InsufficientAvailableError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "200.0000", insufficient.Requested.String())
	assert.Equal(t, "150.0000", insufficient.Available.String())
	assert.Equal(t, "1000.0000", insufficient.OnHand.String())
	assert.Equal(t, "850.0000", insufficient.Reserved.String())

	// the failed attempt leaves no trace
	record, findErr := stockRepo.FindByKey(context.Background(), "ITM002", "WH001")
	require.NoError(t, findErr)
	assert.Equal(t, "850.0000", record.QuantityReserved.String())
	assert.Equal(t, int64(0), record.Version)
	assert.Empty(t, stockRepo.movements)
	assert.Empty(t, stockRepo.events)
}

func TestReserveStockRecordNotFound(t *testing.T) {
	service, _, _, _ := newTestStockService()

	_, err := service.ReserveStock(context.Background(), ReserveStockCommand{
		ItemCode:      "ITM404",
		WarehouseCode: "WH001",
		Quantity:      domain.MustQuantity("1"),
		Actor:         "tester",
	})

	assert.ErrorIs(t, err, domain.ErrStockRecordNotFound)
}

func TestReleaseRestoresAvailability(t *testing.T) {
	service, stockRepo, _, _ := newTestStockService()
	seedStock(stockRepo, "ITM002", "WH001", "1000", "100", "0")
	ctx := context.Background()

	_, err := service.ReserveStock(ctx, ReserveStockCommand{
		ItemCode: "ITM002", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("750"), Actor: "picker-7",
	})
	require.NoError(t, err)

	result, err := service.ReleaseReservation(ctx, ReleaseReservationCommand{
		ItemCode: "ITM002", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("750"), Actor: "picker-7",
	})
	require.NoError(t, err)

	assert.Equal(t, "100.0000", result.Record.QuantityReserved.String())
	assert.Equal(t, "900.0000", result.Record.QuantityAvailable.String())
	require.Len(t, stockRepo.movements, 2)
	assert.Equal(t, int64(1), stockRepo.movements[0].Sequence)
	assert.Equal(t, int64(2), stockRepo.movements[1].Sequence)
	assert.Equal(t, domain.MovementRelease, stockRepo.movements[1].Type)
}

func TestReleaseOverRelease(t *testing.T) {
	service, stockRepo, _, _ := newTestStockService()
	seedStock(stockRepo, "ITM002", "WH001", "1000", "100", "0")

	_, err := service.ReleaseReservation(context.Background(), ReleaseReservationCommand{
		ItemCode: "ITM002", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("150"), Actor: "picker-7",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOverRelease)

	var overRelease *domain.OverReleaseError
	require.ErrorAs(t, err, &overRelease)
	assert.Equal(t, "150.0000", overRelease.Requested.String())
	assert.Equal(t, "100.0000", overRelease.Reserved.String())
	assert.Empty(t, stockRepo.movements)
}

func TestCommitIssueConsumesReservation(t *testing.T) {
	service, stockRepo, _, _ := newTestStockService()
	record := seedStock(stockRepo, "ITM002", "WH001", "1000", "300", "0")
	record.AverageCost = domain.MustMoney("25000")

	result, err := service.CommitIssue(context.Background(), CommitIssueCommand{
		ItemCode: "ITM002", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("200"), Actor: "shipper-2", Reference: "ORD-445",
	})

	require.NoError(t, err)
	assert.Equal(t, "800.0000", result.Record.QuantityOnHand.String())
	assert.Equal(t, "100.0000", result.Record.QuantityReserved.String())
	// issuing reserved stock leaves availability untouched
	assert.Equal(t, "700.0000", result.Record.QuantityAvailable.String())
	// issues never move the average
	assert.Equal(t, "25000.0000", result.Record.AverageCost.String())
	assert.Equal(t, string(domain.MovementIssue), result.Movement.Type)
	assert.Equal(t, "-200.0000", result.Movement.OnHandDelta.String())
	assert.Equal(t, "-200.0000", result.Movement.ReservedDelta.String())
}

func TestCommitIssueReservationMismatch(t *testing.T) {
	service, stockRepo, _, _ := newTestStockService()
	seedStock(stockRepo, "ITM002", "WH001", "1000", "300", "0")

	_, err := service.CommitIssue(context.Background(), CommitIssueCommand{
		ItemCode: "ITM002", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("400"), Actor: "shipper-2",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReservationMismatch)

	var mismatch *domain.ReservationMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "400.0000", mismatch.Requested.String())
	assert.Equal(t, "300.0000", mismatch.Reserved.String())
	assert.Empty(t, stockRepo.movements)
}

func TestAdjustStock(t *testing.T) {
	tests := []struct {
		name       string
		cmd        AdjustStockCommand
		wantErr    error
		wantDelta  string
		wantOnHand string
	}{
		{
			name: "count below book value",
			cmd: AdjustStockCommand{
				ItemCode: "ITM001", WarehouseCode: "WH001",
				NewOnHand: domain.MustQuantity("100"), Reason: "cycle count", Actor: "counter-1",
			},
			wantDelta:  "-20.0000",
			wantOnHand: "100.0000",
		},
		{
			name: "count above book value",
			cmd: AdjustStockCommand{
				ItemCode: "ITM001", WarehouseCode: "WH001",
				NewOnHand: domain.MustQuantity("130"), Reason: "cycle count", Actor: "counter-1",
			},
			wantDelta:  "10.0000",
			wantOnHand: "130.0000",
		},
		{
			name: "count confirms book value",
			cmd: AdjustStockCommand{
				ItemCode: "ITM001", WarehouseCode: "WH001",
				NewOnHand: domain.MustQuantity("120"), Reason: "cycle count", Actor: "counter-1",
			},
			wantDelta:  "0.0000",
			wantOnHand: "120.0000",
		},
		{
			name: "missing reason",
			cmd: AdjustStockCommand{
				ItemCode: "ITM001", WarehouseCode: "WH001",
				NewOnHand: domain.MustQuantity("100"), Actor: "counter-1",
			},
			wantErr: domain.ErrReasonRequired,
		},
		{
			name: "count below reserved",
			cmd: AdjustStockCommand{
				ItemCode: "ITM001", WarehouseCode: "WH001",
				NewOnHand: domain.MustQuantity("20"), Reason: "cycle count", Actor: "counter-1",
			},
			wantErr: domain.ErrInvariantViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, stockRepo, _, _ := newTestStockService()
			seedStock(stockRepo, "ITM001", "WH001", "120", "30", "0")

			result, err := service.AdjustStock(context.Background(), tt.cmd)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, stockRepo.movements)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOnHand, result.Record.QuantityOnHand.String())
			assert.Equal(t, tt.wantDelta, result.Movement.OnHandDelta.String())
			assert.Equal(t, string(domain.MovementAdjustment), result.Movement.Type)
			assert.Equal(t, "cycle count", result.Movement.Reference)
		})
	}
}

func TestReserveRetriesOnVersionConflict(t *testing.T) {
	service, stockRepo, _, _ := newTestStockService()
	seedStock(stockRepo, "ITM002", "WH001", "1000", "100", "0")
	stockRepo.conflictsLeft = 1

	result, err := service.ReserveStock(context.Background(), ReserveStockCommand{
		ItemCode: "ITM002", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("750"), Actor: "picker-7",
	})

	require.NoError(t, err)
	// the retry re-reads and re-applies, so the reservation lands exactly once
	assert.Equal(t, "850.0000", result.Record.QuantityReserved.String())
	assert.Len(t, stockRepo.movements, 1)

	record, findErr := stockRepo.FindByKey(context.Background(), "ITM002", "WH001")
	require.NoError(t, findErr)
	assert.Equal(t, int64(1), record.Version)
}

func TestReserveGivesUpAfterRepeatedConflicts(t *testing.T) {
	service, stockRepo, _, _ := newTestStockService()
	seedStock(stockRepo, "ITM002", "WH001", "1000", "100", "0")
	stockRepo.conflictsLeft = maxSaveRetries

	_, err := service.ReserveStock(context.Background(), ReserveStockCommand{
		ItemCode: "ITM002", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("750"), Actor: "picker-7",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.Empty(t, stockRepo.movements)

	record, findErr := stockRepo.FindByKey(context.Background(), "ITM002", "WH001")
	require.NoError(t, findErr)
	assert.Equal(t, "100.0000", record.QuantityReserved.String())
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	service, stockRepo, _, _ := newTestStockService()
	seedStock(stockRepo, "ITM001", "WH001", "100", "0", "0")

	const workers = 6
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := service.ReserveStock(context.Background(), ReserveStockCommand{
				ItemCode:      "ITM001",
				WarehouseCode: "WH001",
				Quantity:      domain.MustQuantity("30"),
				Actor:         fmt.Sprintf("worker-%d", i),
			})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t,
			errors.Is(err, domain.ErrInsufficientAvailable) || errors.Is(err, domain.ErrConcurrentModification),
			"unexpected error: %v", err)
	}

	// 100 on hand fits exactly three reservations of 30
	record, err := stockRepo.FindByKey(context.Background(), "ITM001", "WH001")
	require.NoError(t, err)
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, "90.0000", record.QuantityReserved.String())
	assert.Equal(t, "100.0000", record.QuantityOnHand.String())
	assert.False(t, record.QuantityReserved.GreaterThan(record.QuantityOnHand))
	assert.Len(t, stockRepo.movements, 3)
}

func TestTransferStockMovesValueAtCarryingCost(t *testing.T) {
	service, stockRepo, itemRepo, warehouseRepo := newTestStockService()
	seedCatalog(itemRepo, warehouseRepo, "ITM001", "WH001", "WH002")
	ctx := context.Background()

	_, err := service.ReceiveStock(ctx, ReceiveStockCommand{
		ItemCode: "ITM001", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("100"), UnitCost: domain.MustMoney("10"),
		Actor: "tester",
	})
	require.NoError(t, err)

	result, err := service.TransferStock(ctx, TransferStockCommand{
		ItemCode:      "ITM001",
		FromWarehouse: "WH001",
		ToWarehouse:   "WH002",
		Quantity:      domain.MustQuantity("30"),
		Actor:         "mover-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "30.0000", result.Quantity.String())
	assert.Equal(t, "10.0000", result.UnitCost.String())
	assert.Equal(t, string(domain.MovementIssue), result.Issue.Type)
	assert.Equal(t, "WH001", result.Issue.WarehouseCode)
	assert.Equal(t, "-30.0000", result.Issue.OnHandDelta.String())
	assert.Equal(t, string(domain.MovementReceipt), result.Receipt.Type)
	assert.Equal(t, "WH002", result.Receipt.WarehouseCode)

	source, err := stockRepo.FindByKey(ctx, "ITM001", "WH001")
	require.NoError(t, err)
	destination, err := stockRepo.FindByKey(ctx, "ITM001", "WH002")
	require.NoError(t, err)
	assert.Equal(t, "70.0000", source.QuantityOnHand.String())
	assert.Equal(t, "30.0000", destination.QuantityOnHand.String())
	assert.Equal(t, "10.0000", destination.AverageCost.String())
	// value is conserved across the pair of movements
	total := source.TotalValue().Add(destination.TotalValue())
	assert.Equal(t, "1000.0000", total.String())
}

func TestTransferStockValidation(t *testing.T) {
	service, stockRepo, itemRepo, warehouseRepo := newTestStockService()
	seedCatalog(itemRepo, warehouseRepo, "ITM001", "WH001", "WH002")
	record := seedStock(stockRepo, "ITM001", "WH001", "100", "80", "0")
	record.AverageCost = domain.MustMoney("10")
	ctx := context.Background()

	_, err := service.TransferStock(ctx, TransferStockCommand{
		ItemCode: "ITM001", FromWarehouse: "WH001", ToWarehouse: "WH001",
		Quantity: domain.MustQuantity("10"), Actor: "mover-1",
	})
	assert.ErrorIs(t, err, domain.ErrSameWarehouse)

	_, err = service.TransferStock(ctx, TransferStockCommand{
		ItemCode: "ITM001", FromWarehouse: "WH001", ToWarehouse: "WH002",
		Quantity: domain.MustQuantity("30"), Actor: "mover-1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailable)

	var insufficient *domain.InsufficientAvailableError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "20.0000", insufficient.Available.String())
}

func TestTransferStockCompensatesWhenCreditFails(t *testing.T) {
	service, stockRepo, itemRepo, warehouseRepo := newTestStockService()
	seedCatalog(itemRepo, warehouseRepo, "ITM001", "WH001", "WH002")
	ctx := context.Background()

	_, err := service.ReceiveStock(ctx, ReceiveStockCommand{
		ItemCode: "ITM001", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("100"), UnitCost: domain.MustMoney("10"),
		Actor: "tester",
	})
	require.NoError(t, err)

	// the destination record does not exist, so its creation fails
	stockRepo.createErr = errors.New("insert failed")

	_, err = service.TransferStock(ctx, TransferStockCommand{
		ItemCode: "ITM001", FromWarehouse: "WH001", ToWarehouse: "WH002",
		Quantity: domain.MustQuantity("30"), Actor: "mover-1",
	})
	require.Error(t, err)

	// the source was re-credited at the same cost
	source, findErr := stockRepo.FindByKey(ctx, "ITM001", "WH001")
	require.NoError(t, findErr)
	assert.Equal(t, "100.0000", source.QuantityOnHand.String())
	assert.Equal(t, "10.0000", source.AverageCost.String())

	_, findErr = stockRepo.FindByKey(ctx, "ITM001", "WH002")
	assert.ErrorIs(t, findErr, domain.ErrStockRecordNotFound)

	// the journal shows the withdrawal and its reversal
	require.Len(t, stockRepo.movements, 3)
	assert.Equal(t, domain.MovementIssue, stockRepo.movements[1].Type)
	assert.Equal(t, domain.MovementReceipt, stockRepo.movements[2].Type)
	assert.Contains(t, stockRepo.movements[2].Reference, "REVERSAL")
}

func TestSetStockLevelsCreatesRecord(t *testing.T) {
	service, _, itemRepo, warehouseRepo := newTestStockService()
	seedCatalog(itemRepo, warehouseRepo, "ITM001", "WH001")

	result, err := service.SetStockLevels(context.Background(), SetStockLevelsCommand{
		ItemCode:      "ITM001",
		WarehouseCode: "WH001",
		MinLevel:      domain.MustQuantity("10"),
		MaxLevel:      domain.MustQuantity("500"),
		ReorderPoint:  domain.MustQuantity("20"),
		Actor:         "planner-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "10.0000", result.MinLevel.String())
	assert.Equal(t, "500.0000", result.MaxLevel.String())
	assert.Equal(t, "20.0000", result.ReorderPoint.String())
	assert.Equal(t, "0.0000", result.QuantityOnHand.String())
	// a brand-new record with a reorder point above zero is low on stock
	assert.True(t, result.IsLowStock)
}

func TestSetStockLevelsRejectsInvalidBounds(t *testing.T) {
	service, _, itemRepo, warehouseRepo := newTestStockService()
	seedCatalog(itemRepo, warehouseRepo, "ITM001", "WH001")

	_, err := service.SetStockLevels(context.Background(), SetStockLevelsCommand{
		ItemCode:      "ITM001",
		WarehouseCode: "WH001",
		MinLevel:      domain.MustQuantity("30"),
		ReorderPoint:  domain.MustQuantity("20"),
		Actor:         "planner-1",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidLevels)
}

func TestDeactivateStockBlocksFurtherMutations(t *testing.T) {
	service, stockRepo, _, _ := newTestStockService()
	seedStock(stockRepo, "ITM001", "WH001", "50", "0", "0")
	ctx := context.Background()

	result, err := service.DeactivateStock(ctx, DeactivateStockCommand{
		ItemCode: "ITM001", WarehouseCode: "WH001", Actor: "admin-1",
	})
	require.NoError(t, err)
	assert.False(t, result.Active)
	// balances survive deactivation
	assert.Equal(t, "50.0000", result.QuantityOnHand.String())

	_, err = service.ReserveStock(ctx, ReserveStockCommand{
		ItemCode: "ITM001", WarehouseCode: "WH001",
		Quantity: domain.MustQuantity("10"), Actor: "picker-7",
	})
	assert.ErrorIs(t, err, domain.ErrStockRecordInactive)
}
