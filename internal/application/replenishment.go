package application

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lsf-services/warehouse-system/internal/domain"
	"github.com/lsf-services/warehouse-system/pkg/logging"
)

// ErrInvalidCursor reports a scan cursor that did not come from a previous
// scan page.
var ErrInvalidCursor = errors.New("invalid low stock scan cursor")

// defaultScanBatchSize is the page size used when a scan query does not set
// its own limit.
const defaultScanBatchSize = 50

// ReplenishmentService runs the low stock scan: every record whose available
// quantity sits at or below its reorder point, most starved first. Pages
// resume from an opaque cursor, so callers can walk a large result set
// lazily; rows reflect the balances at the time each page was read.
type ReplenishmentService struct {
	stockRepo domain.StockRecordRepository
	publisher domain.EventPublisher
	logger    *logging.Logger
}

// NewReplenishmentService creates a new replenishment service. The publisher
// may be nil when alert publication is not needed.
func NewReplenishmentService(
	stockRepo domain.StockRecordRepository,
	publisher domain.EventPublisher,
	logger *logging.Logger,
) *ReplenishmentService {
	return &ReplenishmentService{
		stockRepo: stockRepo,
		publisher: publisher,
		logger:    logger,
	}
}

func encodeScanCursor(cursor domain.ScanCursor) string {
	raw, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(raw)
}

func decodeScanCursor(token string) (*domain.ScanCursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var cursor domain.ScanCursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return nil, ErrInvalidCursor
	}
	return &cursor, nil
}

// ScanLowStock returns one page of the scan. The returned cursor resumes
// after the last row of this page and is empty once the scan is exhausted.
func (s *ReplenishmentService) ScanLowStock(ctx context.Context, query LowStockScanQuery) (*LowStockScanDTO, error) {
	after, err := decodeScanCursor(query.Cursor)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultScanBatchSize
	}

	// Fetch one extra row to learn whether another page exists.
	alerts, err := s.stockRepo.FindLowStock(ctx, domain.LowStockQuery{
		WarehouseCode: query.WarehouseCode,
		After:         after,
		Limit:         limit + 1,
	})
	if err != nil {
		s.logger.Error("Low stock scan failed", "warehouse_code", query.WarehouseCode, "error", err)
		return nil, fmt.Errorf("low stock scan failed: %w", err)
	}

	hasMore := len(alerts) > limit
	if hasMore {
		alerts = alerts[:limit]
	}

	dto := &LowStockScanDTO{
		Alerts:  ToStockAlertDTOs(alerts),
		HasMore: hasMore,
	}
	if hasMore {
		dto.Cursor = encodeScanCursor(alerts[len(alerts)-1].Cursor())
	}
	return dto, nil
}

// ForEachLowStock walks the entire scan in batches and calls fn for every
// row, stopping early when fn returns an error.
func (s *ReplenishmentService) ForEachLowStock(ctx context.Context, warehouseCode string, fn func(domain.StockAlert) error) error {
	var after *domain.ScanCursor
	for {
		alerts, err := s.stockRepo.FindLowStock(ctx, domain.LowStockQuery{
			WarehouseCode: warehouseCode,
			After:         after,
			Limit:         defaultScanBatchSize,
		})
		if err != nil {
			return fmt.Errorf("low stock scan failed: %w", err)
		}
		for i := range alerts {
			if err := fn(alerts[i]); err != nil {
				return err
			}
		}
		if len(alerts) < defaultScanBatchSize {
			return nil
		}
		cursor := alerts[len(alerts)-1].Cursor()
		after = &cursor
	}
}

// PublishAlerts runs one full scan and publishes a low stock alert event per
// row. Returns the number of alerts published.
func (s *ReplenishmentService) PublishAlerts(ctx context.Context, warehouseCode string) (int, error) {
	if s.publisher == nil {
		return 0, errors.New("no event publisher configured")
	}

	published := 0
	err := s.ForEachLowStock(ctx, warehouseCode, func(alert domain.StockAlert) error {
		event := &domain.LowStockAlertEvent{
			ItemCode:          alert.ItemCode,
			WarehouseCode:     alert.WarehouseCode,
			QuantityAvailable: alert.QuantityAvailable,
			ReorderPoint:      alert.ReorderPoint,
			Deficit:           alert.ReorderPoint.Sub(alert.QuantityAvailable),
			AlertedAt:         time.Now(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			return fmt.Errorf("failed to publish low stock alert for %s/%s: %w",
				alert.WarehouseCode, alert.ItemCode, err)
		}
		published++
		return nil
	})
	if err != nil {
		return published, err
	}

	s.logger.Info("Low stock alerts published",
		"warehouse_code", warehouseCode, "count", published)
	return published, nil
}
