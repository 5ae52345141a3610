package application

import (
	"context"
	"fmt"

	"github.com/lsf-services/warehouse-system/internal/domain"
	"github.com/lsf-services/warehouse-system/pkg/logging"
)

// StockQueryService handles read-only stock queries
type StockQueryService struct {
	stockRepo    domain.StockRecordRepository
	movementRepo domain.MovementRepository
	logger       *logging.Logger
}

// NewStockQueryService creates a new stock query service
func NewStockQueryService(
	stockRepo domain.StockRecordRepository,
	movementRepo domain.MovementRepository,
	logger *logging.Logger,
) *StockQueryService {
	return &StockQueryService{
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		logger:       logger,
	}
}

// GetStock returns one stock record with its derived balances
func (s *StockQueryService) GetStock(ctx context.Context, query GetStockQuery) (*StockRecordDTO, error) {
	record, err := s.stockRepo.FindByKey(ctx, query.ItemCode, query.WarehouseCode)
	if err != nil {
		return nil, err
	}
	return ToStockRecordDTO(record), nil
}

// ListStock returns stock records matching the filter with the total count
func (s *StockQueryService) ListStock(ctx context.Context, query ListStockQuery) ([]StockRecordDTO, int64, error) {
	filter := domain.StockRecordFilter{
		ItemCode:        query.ItemCode,
		WarehouseCode:   query.WarehouseCode,
		LowStockOnly:    query.LowStockOnly,
		IncludeInactive: query.IncludeInactive,
	}
	records, total, err := s.stockRepo.List(ctx, filter, query.Limit, query.Offset)
	if err != nil {
		s.logger.Error("Failed to list stock records", "error", err)
		return nil, 0, fmt.Errorf("failed to list stock records: %w", err)
	}
	return ToStockRecordDTOs(records), total, nil
}

// GetMovementHistory returns one page of the movement ledger for a key,
// newest first. The stock record must exist.
func (s *StockQueryService) GetMovementHistory(ctx context.Context, query MovementHistoryQuery) ([]MovementEntryDTO, int64, error) {
	if _, err := s.stockRepo.FindByKey(ctx, query.ItemCode, query.WarehouseCode); err != nil {
		return nil, 0, err
	}

	entries, total, err := s.movementRepo.FindByKey(ctx,
		query.ItemCode, query.WarehouseCode, domain.MovementType(query.MovementType), query.Limit, query.Offset)
	if err != nil {
		s.logger.Error("Failed to load movement history",
			"item_code", query.ItemCode, "warehouse_code", query.WarehouseCode, "error", err)
		return nil, 0, fmt.Errorf("failed to load movement history: %w", err)
	}
	return ToMovementEntryDTOs(entries), total, nil
}

// ReplayMovements folds the full movement history of a key back into
// balances and compares the reconstruction with the live record. InSync is
// false when the history and the record disagree, which points at a write
// that bypassed the ledger.
func (s *StockQueryService) ReplayMovements(ctx context.Context, query ReplayQuery) (*ReplayResultDTO, error) {
	record, err := s.stockRepo.FindByKey(ctx, query.ItemCode, query.WarehouseCode)
	if err != nil {
		return nil, err
	}

	entries, err := s.movementRepo.FindAllByKey(ctx, query.ItemCode, query.WarehouseCode)
	if err != nil {
		s.logger.Error("Failed to load movements for replay",
			"item_code", query.ItemCode, "warehouse_code", query.WarehouseCode, "error", err)
		return nil, fmt.Errorf("failed to load movements for replay: %w", err)
	}

	replayed := domain.ReplayMovements(query.ItemCode, query.WarehouseCode, entries)
	inSync := replayed.OnHand.Equal(record.QuantityOnHand) &&
		replayed.Reserved.Equal(record.QuantityReserved) &&
		replayed.AverageCost.Equal(record.AverageCost)

	if !inSync {
		s.logger.Warn("Ledger replay does not match live record",
			"item_code", query.ItemCode,
			"warehouse_code", query.WarehouseCode,
			"replayed_on_hand", replayed.OnHand,
			"live_on_hand", record.QuantityOnHand)
	}

	return &ReplayResultDTO{
		ItemCode:            query.ItemCode,
		WarehouseCode:       query.WarehouseCode,
		ReplayedOnHand:      replayed.OnHand,
		ReplayedReserved:    replayed.Reserved,
		ReplayedAverageCost: replayed.AverageCost,
		LiveOnHand:          record.QuantityOnHand,
		LiveReserved:        record.QuantityReserved,
		LiveAverageCost:     record.AverageCost,
		InSync:              inSync,
		EntryCount:          replayed.EntryCount,
		LastSequence:        replayed.LastSequence,
	}, nil
}
