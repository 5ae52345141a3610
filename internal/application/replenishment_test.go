package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lsf-services/warehouse-system/internal/domain"
	"github.com/lsf-services/warehouse-system/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	events     []domain.DomainEvent
	publishErr error
}

func (f *fakePublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) PublishAll(ctx context.Context, events []domain.DomainEvent) error {
	for _, event := range events {
		if err := f.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func newTestReplenishmentService(stockRepo *fakeStockRepository, publisher *fakePublisher) *ReplenishmentService {
	logger := logging.New(logging.DefaultConfig("test"))
	if publisher == nil {
		return NewReplenishmentService(stockRepo, nil, logger)
	}
	return NewReplenishmentService(stockRepo, publisher, logger)
}

func seedLowStockSet(stockRepo *fakeStockRepository) {
	// deficits: ITM003/WH002 -50, ITM001/WH001 -15, ITM002/WH001 -2
	seedStock(stockRepo, "ITM001", "WH001", "5", "0", "20")
	seedStock(stockRepo, "ITM002", "WH001", "10", "0", "12")
	seedStock(stockRepo, "ITM003", "WH002", "0", "0", "50")
	// comfortably stocked, never scanned
	seedStock(stockRepo, "ITM004", "WH001", "100", "0", "10")
}

func TestScanLowStockOrdersByDeficit(t *testing.T) {
	stockRepo := newFakeStockRepository()
	seedLowStockSet(stockRepo)
	service := newTestReplenishmentService(stockRepo, nil)

	page, err := service.ScanLowStock(context.Background(), LowStockScanQuery{})

	require.NoError(t, err)
	require.Len(t, page.Alerts, 3)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.Cursor)
	assert.Equal(t, "ITM003", page.Alerts[0].ItemCode)
	assert.Equal(t, "-50.0000", page.Alerts[0].Deficit.String())
	assert.Equal(t, "ITM001", page.Alerts[1].ItemCode)
	assert.Equal(t, "-15.0000", page.Alerts[1].Deficit.String())
	assert.Equal(t, "ITM002", page.Alerts[2].ItemCode)
	assert.Equal(t, "-2.0000", page.Alerts[2].Deficit.String())
}

func TestScanLowStockWarehouseFilter(t *testing.T) {
	stockRepo := newFakeStockRepository()
	seedLowStockSet(stockRepo)
	service := newTestReplenishmentService(stockRepo, nil)

	page, err := service.ScanLowStock(context.Background(), LowStockScanQuery{WarehouseCode: "WH001"})

	require.NoError(t, err)
	require.Len(t, page.Alerts, 2)
	assert.Equal(t, "ITM001", page.Alerts[0].ItemCode)
	assert.Equal(t, "ITM002", page.Alerts[1].ItemCode)
}

func TestScanLowStockResumesFromCursor(t *testing.T) {
	stockRepo := newFakeStockRepository()
	seedLowStockSet(stockRepo)
	service := newTestReplenishmentService(stockRepo, nil)
	ctx := context.Background()

	first, err := service.ScanLowStock(ctx, LowStockScanQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Alerts, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.Cursor)

	second, err := service.ScanLowStock(ctx, LowStockScanQuery{Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Alerts, 1)
	assert.Equal(t, "ITM002", second.Alerts[0].ItemCode)
	assert.False(t, second.HasMore)
	assert.Empty(t, second.Cursor)
}

func TestScanLowStockRejectsBadCursor(t *testing.T) {
	service := newTestReplenishmentService(newFakeStockRepository(), nil)

	_, err := service.ScanLowStock(context.Background(), LowStockScanQuery{Cursor: "not a cursor"})

	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestForEachLowStockWalksAllBatches(t *testing.T) {
	stockRepo := newFakeStockRepository()
	// more rows than one batch so the walk has to chain cursors
	for i := 0; i < 120; i++ {
		seedStock(stockRepo, fmt.Sprintf("ITM%03d", i), "WH001", "0", "0", fmt.Sprintf("%d", i+1))
	}
	service := newTestReplenishmentService(stockRepo, nil)

	var seen []domain.StockAlert
	err := service.ForEachLowStock(context.Background(), "", func(alert domain.StockAlert) error {
		seen = append(seen, alert)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, seen, 120)
	// most starved rows come first and the ordering never regresses
	for i := 1; i < len(seen); i++ {
		assert.False(t, seen[i].Deficit.LessThan(seen[i-1].Deficit))
	}
	assert.Equal(t, "ITM119", seen[0].ItemCode)
	assert.Equal(t, "ITM000", seen[len(seen)-1].ItemCode)
}

func TestForEachLowStockStopsOnCallbackError(t *testing.T) {
	stockRepo := newFakeStockRepository()
	seedLowStockSet(stockRepo)
	service := newTestReplenishmentService(stockRepo, nil)

	wantErr := errors.New("stop")
	calls := 0
	err := service.ForEachLowStock(context.Background(), "", func(alert domain.StockAlert) error {
		calls++
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestPublishAlerts(t *testing.T) {
	stockRepo := newFakeStockRepository()
	seedLowStockSet(stockRepo)
	publisher := &fakePublisher{}
	service := newTestReplenishmentService(stockRepo, publisher)

	published, err := service.PublishAlerts(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, 3, published)
	require.Len(t, publisher.events, 3)

	alert, ok := publisher.events[0].(*domain.LowStockAlertEvent)
	require.True(t, ok)
	assert.Equal(t, "ITM003", alert.ItemCode)
	assert.Equal(t, "warehouse.stock.low-stock-alert", alert.EventType())
	// the alert carries the shortfall as a positive quantity
	assert.Equal(t, "50.0000", alert.Deficit.String())
}

func TestPublishAlertsRequiresPublisher(t *testing.T) {
	stockRepo := newFakeStockRepository()
	seedLowStockSet(stockRepo)
	service := newTestReplenishmentService(stockRepo, nil)

	_, err := service.PublishAlerts(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no event publisher")
}
