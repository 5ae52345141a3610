package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRecord builds an active record with the given balances.
func testRecord(onHand, reserved, reorderPoint string) *StockRecord {
	r := NewStockRecord("ITM001", "WH001")
	r.QuantityOnHand = MustQuantity(onHand)
	r.QuantityReserved = MustQuantity(reserved)
	r.ReorderPoint = MustQuantity(reorderPoint)
	return r
}

func TestNewStockRecord(t *testing.T) {
	r := NewStockRecord("ITM001", "WH001")

	require.NotNil(t, r)
	assert.Equal(t, "ITM001", r.ItemCode)
	assert.Equal(t, "WH001", r.WarehouseCode)
	assert.True(t, r.QuantityOnHand.IsZero())
	assert.True(t, r.QuantityReserved.IsZero())
	assert.True(t, r.AvailableQuantity().IsZero())
	assert.True(t, r.AverageCost.IsZero())
	assert.True(t, r.Active)
	assert.Nil(t, r.LastMovementAt)
	assert.NotZero(t, r.CreatedAt)
}

func TestStockRecord_Receive(t *testing.T) {
	tests := []struct {
		name            string
		setupRecord     func() *StockRecord
		quantity        Quantity
		unitCost        Money
		expectError     error
		expectedOnHand  string
		expectedAverage string
	}{
		{
			name: "first receipt sets average to unit cost",
			setupRecord: func() *StockRecord {
				return NewStockRecord("ITM001", "WH001")
			},
			quantity:        MustQuantity("10"),
			unitCost:        MustMoney("50000"),
			expectedOnHand:  "10.0000",
			expectedAverage: "50000.0000",
		},
		{
			name: "receipt at current average keeps it",
			setupRecord: func() *StockRecord {
				r := NewStockRecord("ITM001", "WH001")
				_, err := r.Receive(MustQuantity("1000"), MustMoney("25000"), "user1", "PO-001")
				if err != nil {
					panic(err)
				}
				return r
			},
			quantity:        MustQuantity("5"),
			unitCost:        MustMoney("25000"),
			expectedOnHand:  "1005.0000",
			expectedAverage: "25000.0000",
		},
		{
			name: "receipt at higher cost blends the average",
			setupRecord: func() *StockRecord {
				r := NewStockRecord("ITM001", "WH001")
				_, err := r.Receive(MustQuantity("100"), MustMoney("10"), "user1", "PO-001")
				if err != nil {
					panic(err)
				}
				return r
			},
			quantity:        MustQuantity("100"),
			unitCost:        MustMoney("20"),
			expectedOnHand:  "200.0000",
			expectedAverage: "15.0000",
		},
		{
			name: "zero quantity rejected",
			setupRecord: func() *StockRecord {
				return NewStockRecord("ITM001", "WH001")
			},
			quantity:    ZeroQuantity(),
			unitCost:    MustMoney("10"),
			expectError: ErrInvalidQuantity,
		},
		{
			name: "negative quantity rejected",
			setupRecord: func() *StockRecord {
				return NewStockRecord("ITM001", "WH001")
			},
			quantity:    MustQuantity("-5"),
			unitCost:    MustMoney("10"),
			expectError: ErrInvalidQuantity,
		},
		{
			name: "negative cost rejected",
			setupRecord: func() *StockRecord {
				return NewStockRecord("ITM001", "WH001")
			},
			quantity:    MustQuantity("5"),
			unitCost:    MustMoney("-1"),
			expectError: ErrInvalidCost,
		},
		{
			name: "inactive record rejected",
			setupRecord: func() *StockRecord {
				r := NewStockRecord("ITM001", "WH001")
				r.Deactivate()
				return r
			},
			quantity:    MustQuantity("5"),
			unitCost:    MustMoney("10"),
			expectError: ErrStockRecordInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.setupRecord()
			before := *r
			entry, err := r.Receive(tt.quantity, tt.unitCost, "user1", "PO-002")

			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, entry)
				// Failed operations leave the balances untouched.
				assert.True(t, r.QuantityOnHand.Equal(before.QuantityOnHand))
				assert.True(t, r.AverageCost.Equal(before.AverageCost))
			} else {
				require.NoError(t, err)
				require.NotNil(t, entry)
				assert.Equal(t, tt.expectedOnHand, r.QuantityOnHand.String())
				assert.Equal(t, tt.expectedAverage, r.AverageCost.String())
				assert.True(t, r.UnitCost.Equal(tt.unitCost))
				assert.Equal(t, MovementReceipt, entry.Type)
				assert.True(t, entry.OnHandDelta.Equal(tt.quantity))
				assert.True(t, entry.OnHandAfter.Equal(r.QuantityOnHand))
				require.NotNil(t, entry.UnitCost)
				assert.True(t, entry.UnitCost.Equal(tt.unitCost))
				assert.Equal(t, tt.expectedAverage, entry.AverageCostAfter.String())
				assert.NotNil(t, r.LastReceiptAt)
				assert.NotNil(t, r.LastMovementAt)
			}
		})
	}
}

func TestStockRecord_Reserve(t *testing.T) {
	tests := []struct {
		name        string
		setupRecord func() *StockRecord
		quantity    Quantity
		expectError error
	}{
		{
			name: "reserve within available",
			setupRecord: func() *StockRecord {
				return testRecord("1000", "100", "200")
			},
			quantity: MustQuantity("750"),
		},
		{
			name: "reserve exactly the available quantity",
			setupRecord: func() *StockRecord {
				return testRecord("100", "40", "0")
			},
			quantity: MustQuantity("60"),
		},
		{
			name: "reserve more than available",
			setupRecord: func() *StockRecord {
				return testRecord("100", "80", "0")
			},
			quantity:    MustQuantity("30"),
			expectError: ErrInsufficientAvailable,
		},
		{
			name: "zero quantity rejected",
			setupRecord: func() *StockRecord {
				return testRecord("100", "0", "0")
			},
			quantity:    ZeroQuantity(),
			expectError: ErrInvalidQuantity,
		},
		{
			name: "negative quantity rejected",
			setupRecord: func() *StockRecord {
				return testRecord("100", "0", "0")
			},
			quantity:    MustQuantity("-10"),
			expectError: ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.setupRecord()
			beforeReserved := r.QuantityReserved
			beforeOnHand := r.QuantityOnHand
			entry, err := r.Reserve(tt.quantity, "user1", "ORD-001")

			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, entry)
				assert.True(t, r.QuantityReserved.Equal(beforeReserved))
			} else {
				require.NoError(t, err)
				require.NotNil(t, entry)
				assert.True(t, r.QuantityReserved.Equal(beforeReserved.Add(tt.quantity)))
				assert.True(t, r.QuantityOnHand.Equal(beforeOnHand))
				assert.Equal(t, MovementReserve, entry.Type)
				assert.True(t, entry.OnHandDelta.IsZero())
				assert.True(t, entry.ReservedDelta.Equal(tt.quantity))
			}
		})
	}
}

func TestStockRecord_Reserve_ErrorCarriesBalances(t *testing.T) {
	r := testRecord("1000", "850", "200")

	_, err := r.Reserve(MustQuantity("200"), "user1", "ORD-002")
	require.Error(t, err)

	var insufficient *InsufficientAvailableError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "ITM001", insufficient.ItemCode)
	assert.Equal(t, "WH001", insufficient.WarehouseCode)
	assert.Equal(t, "200.0000", insufficient.Requested.String())
	assert.Equal(t, "150.0000", insufficient.Available.String())
	assert.Equal(t, "1000.0000", insufficient.OnHand.String())
	assert.Equal(t, "850.0000", insufficient.Reserved.String())
}

func TestStockRecord_Release(t *testing.T) {
	tests := []struct {
		name        string
		setupRecord func() *StockRecord
		quantity    Quantity
		expectError error
	}{
		{
			name: "release part of the reservation",
			setupRecord: func() *StockRecord {
				return testRecord("100", "60", "0")
			},
			quantity: MustQuantity("20"),
		},
		{
			name: "release the whole reservation",
			setupRecord: func() *StockRecord {
				return testRecord("100", "60", "0")
			},
			quantity: MustQuantity("60"),
		},
		{
			name: "release more than reserved",
			setupRecord: func() *StockRecord {
				return testRecord("100", "60", "0")
			},
			quantity:    MustQuantity("61"),
			expectError: ErrOverRelease,
		},
		{
			name: "zero quantity rejected",
			setupRecord: func() *StockRecord {
				return testRecord("100", "60", "0")
			},
			quantity:    ZeroQuantity(),
			expectError: ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.setupRecord()
			beforeReserved := r.QuantityReserved
			beforeOnHand := r.QuantityOnHand
			entry, err := r.Release(tt.quantity, "user1", "ORD-001")

			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
				assert.True(t, r.QuantityReserved.Equal(beforeReserved))
			} else {
				require.NoError(t, err)
				require.NotNil(t, entry)
				assert.True(t, r.QuantityReserved.Equal(beforeReserved.Sub(tt.quantity)))
				assert.True(t, r.QuantityOnHand.Equal(beforeOnHand))
				assert.Equal(t, MovementRelease, entry.Type)
			}
		})
	}
}

func TestStockRecord_ReserveReleaseRoundTrip(t *testing.T) {
	r := testRecord("1000", "100", "200")

	_, err := r.Reserve(MustQuantity("750"), "user1", "ORD-001")
	require.NoError(t, err)
	assert.Equal(t, "150.0000", r.AvailableQuantity().String())

	_, err = r.Release(MustQuantity("750"), "user1", "ORD-001")
	require.NoError(t, err)

	assert.Equal(t, "1000.0000", r.QuantityOnHand.String())
	assert.Equal(t, "100.0000", r.QuantityReserved.String())
	assert.Equal(t, "900.0000", r.AvailableQuantity().String())
}

func TestStockRecord_CommitIssue(t *testing.T) {
	tests := []struct {
		name        string
		setupRecord func() *StockRecord
		quantity    Quantity
		expectError error
	}{
		{
			name: "issue part of the reservation",
			setupRecord: func() *StockRecord {
				return testRecord("100", "60", "0")
			},
			quantity: MustQuantity("40"),
		},
		{
			name: "issue the whole reservation",
			setupRecord: func() *StockRecord {
				return testRecord("100", "60", "0")
			},
			quantity: MustQuantity("60"),
		},
		{
			name: "issue more than reserved",
			setupRecord: func() *StockRecord {
				return testRecord("100", "60", "0")
			},
			quantity:    MustQuantity("70"),
			expectError: ErrReservationMismatch,
		},
		{
			name: "zero quantity rejected",
			setupRecord: func() *StockRecord {
				return testRecord("100", "60", "0")
			},
			quantity:    ZeroQuantity(),
			expectError: ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.setupRecord()
			beforeOnHand := r.QuantityOnHand
			beforeReserved := r.QuantityReserved
			beforeAvailable := r.AvailableQuantity()
			beforeAverage := r.AverageCost
			entry, err := r.CommitIssue(tt.quantity, "user1", "ORD-001")

			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
				assert.True(t, r.QuantityOnHand.Equal(beforeOnHand))
				assert.True(t, r.QuantityReserved.Equal(beforeReserved))
			} else {
				require.NoError(t, err)
				require.NotNil(t, entry)
				assert.True(t, r.QuantityOnHand.Equal(beforeOnHand.Sub(tt.quantity)))
				assert.True(t, r.QuantityReserved.Equal(beforeReserved.Sub(tt.quantity)))
				// Issuing reserved stock leaves availability unchanged.
				assert.True(t, r.AvailableQuantity().Equal(beforeAvailable))
				// Issues never move the average cost.
				assert.True(t, r.AverageCost.Equal(beforeAverage))
				assert.Equal(t, MovementIssue, entry.Type)
				assert.NotNil(t, r.LastIssueAt)
			}
		})
	}
}

func TestStockRecord_Adjust(t *testing.T) {
	tests := []struct {
		name        string
		setupRecord func() *StockRecord
		newOnHand   Quantity
		reason      string
		expectError error
	}{
		{
			name: "count above book balance",
			setupRecord: func() *StockRecord {
				return testRecord("100", "0", "0")
			},
			newOnHand: MustQuantity("105"),
			reason:    "cycle count",
		},
		{
			name: "count below book balance",
			setupRecord: func() *StockRecord {
				return testRecord("100", "0", "0")
			},
			newOnHand: MustQuantity("90"),
			reason:    "damaged goods",
		},
		{
			name: "count below reserved balance",
			setupRecord: func() *StockRecord {
				return testRecord("100", "50", "0")
			},
			newOnHand:   MustQuantity("40"),
			reason:      "cycle count",
			expectError: ErrInvariantViolation,
		},
		{
			name: "negative count rejected",
			setupRecord: func() *StockRecord {
				return testRecord("100", "0", "0")
			},
			newOnHand:   MustQuantity("-1"),
			reason:      "cycle count",
			expectError: ErrInvalidQuantity,
		},
		{
			name: "missing reason rejected",
			setupRecord: func() *StockRecord {
				return testRecord("100", "0", "0")
			},
			newOnHand:   MustQuantity("90"),
			expectError: ErrReasonRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.setupRecord()
			before := r.QuantityOnHand
			entry, err := r.Adjust(tt.newOnHand, tt.reason, "user1")

			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
				assert.True(t, r.QuantityOnHand.Equal(before))
			} else {
				require.NoError(t, err)
				require.NotNil(t, entry)
				assert.True(t, r.QuantityOnHand.Equal(tt.newOnHand))
				assert.Equal(t, MovementAdjustment, entry.Type)
				assert.True(t, entry.OnHandDelta.Equal(tt.newOnHand.Sub(before)))
				assert.Equal(t, tt.reason, entry.Reference)
			}
		})
	}
}

func TestStockRecord_ApplyDelta(t *testing.T) {
	tests := []struct {
		name          string
		setupRecord   func() *StockRecord
		onHandDelta   Quantity
		reservedDelta Quantity
		movementType  MovementType
		expectError   error
	}{
		{
			name: "negative on-hand result rejected",
			setupRecord: func() *StockRecord {
				return testRecord("10", "0", "0")
			},
			onHandDelta:   MustQuantity("-11"),
			reservedDelta: ZeroQuantity(),
			movementType:  MovementAdjustment,
			expectError:   ErrInvariantViolation,
		},
		{
			name: "reserved above on-hand rejected",
			setupRecord: func() *StockRecord {
				return testRecord("10", "0", "0")
			},
			onHandDelta:   ZeroQuantity(),
			reservedDelta: MustQuantity("11"),
			movementType:  MovementReserve,
			expectError:   ErrInvariantViolation,
		},
		{
			name: "negative reserved result rejected",
			setupRecord: func() *StockRecord {
				return testRecord("10", "5", "0")
			},
			onHandDelta:   ZeroQuantity(),
			reservedDelta: MustQuantity("-6"),
			movementType:  MovementRelease,
			expectError:   ErrInvariantViolation,
		},
		{
			name: "receipt type must go through Receive",
			setupRecord: func() *StockRecord {
				return testRecord("10", "0", "0")
			},
			onHandDelta:   MustQuantity("5"),
			reservedDelta: ZeroQuantity(),
			movementType:  MovementReceipt,
			expectError:   ErrReceiptRequiresCost,
		},
		{
			name: "unknown movement type rejected",
			setupRecord: func() *StockRecord {
				return testRecord("10", "0", "0")
			},
			onHandDelta:   MustQuantity("1"),
			reservedDelta: ZeroQuantity(),
			movementType:  MovementType("TRANSFER"),
			expectError:   ErrInvalidMovementType,
		},
		{
			name: "valid combined delta",
			setupRecord: func() *StockRecord {
				return testRecord("10", "5", "0")
			},
			onHandDelta:   MustQuantity("-5"),
			reservedDelta: MustQuantity("-5"),
			movementType:  MovementIssue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.setupRecord()
			beforeOnHand := r.QuantityOnHand
			beforeReserved := r.QuantityReserved
			entry, err := r.ApplyDelta(tt.onHandDelta, tt.reservedDelta, tt.movementType, "user1", "")

			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, entry)
				assert.True(t, r.QuantityOnHand.Equal(beforeOnHand))
				assert.True(t, r.QuantityReserved.Equal(beforeReserved))
			} else {
				require.NoError(t, err)
				require.NotNil(t, entry)
				assert.True(t, r.QuantityOnHand.Equal(beforeOnHand.Add(tt.onHandDelta)))
				assert.True(t, r.QuantityReserved.Equal(beforeReserved.Add(tt.reservedDelta)))
			}
		})
	}
}

func TestStockRecord_InvariantErrorCarriesBalances(t *testing.T) {
	r := testRecord("10", "5", "0")

	_, err := r.ApplyDelta(MustQuantity("-20"), ZeroQuantity(), MovementAdjustment, "user1", "count")
	require.Error(t, err)

	var violation *InvariantViolationError
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, "ITM001", violation.ItemCode)
	assert.Equal(t, "WH001", violation.WarehouseCode)
	assert.Equal(t, "-20.0000", violation.OnHandDelta.String())
	assert.Equal(t, "10.0000", violation.OnHand.String())
	assert.Equal(t, "5.0000", violation.Reserved.String())
}

func TestStockRecord_LowStockAlert(t *testing.T) {
	t.Run("reservation crossing the reorder point raises an alert", func(t *testing.T) {
		r := testRecord("1000", "100", "200")

		_, err := r.Reserve(MustQuantity("750"), "user1", "ORD-001")
		require.NoError(t, err)

		var alert *LowStockAlertEvent
		for _, event := range r.GetDomainEvents() {
			if a, ok := event.(*LowStockAlertEvent); ok {
				alert = a
			}
		}
		require.NotNil(t, alert, "expected a low stock alert event")
		assert.Equal(t, "150.0000", alert.QuantityAvailable.String())
		assert.Equal(t, "200.0000", alert.ReorderPoint.String())
		assert.Equal(t, "50.0000", alert.Deficit.String())
	})

	t.Run("reservation staying above the reorder point stays quiet", func(t *testing.T) {
		r := testRecord("1000", "100", "200")

		_, err := r.Reserve(MustQuantity("100"), "user1", "ORD-001")
		require.NoError(t, err)

		for _, event := range r.GetDomainEvents() {
			if _, ok := event.(*LowStockAlertEvent); ok {
				t.Fatalf("unexpected low stock alert at available %s", r.AvailableQuantity())
			}
		}
	})

	t.Run("receipt never raises an alert", func(t *testing.T) {
		r := testRecord("0", "0", "200")

		_, err := r.Receive(MustQuantity("50"), MustMoney("10"), "user1", "PO-001")
		require.NoError(t, err)

		for _, event := range r.GetDomainEvents() {
			if _, ok := event.(*LowStockAlertEvent); ok {
				t.Fatal("receipts must not raise low stock alerts")
			}
		}
	})

	t.Run("issue landing exactly on the reorder point raises an alert", func(t *testing.T) {
		r := testRecord("300", "100", "200")

		_, err := r.CommitIssue(MustQuantity("100"), "user1", "ORD-001")
		require.NoError(t, err)
		require.Equal(t, "200.0000", r.AvailableQuantity().String())

		found := false
		for _, event := range r.GetDomainEvents() {
			if _, ok := event.(*LowStockAlertEvent); ok {
				found = true
			}
		}
		assert.True(t, found, "expected an alert at available == reorder point")
	})
}

func TestStockRecord_TotalValue(t *testing.T) {
	tests := []struct {
		name     string
		setup    func() *StockRecord
		expected string
	}{
		{
			name: "average cost preferred",
			setup: func() *StockRecord {
				r := testRecord("10", "0", "0")
				r.AverageCost = MustMoney("15")
				r.UnitCost = MustMoney("20")
				return r
			},
			expected: "150.0000",
		},
		{
			name: "falls back to unit cost",
			setup: func() *StockRecord {
				r := testRecord("10", "0", "0")
				r.UnitCost = MustMoney("20")
				return r
			},
			expected: "200.0000",
		},
		{
			name: "zero when no costs known",
			setup: func() *StockRecord {
				return testRecord("10", "0", "0")
			},
			expected: "0.0000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.setup().TotalValue().String())
		})
	}
}

func TestStockRecord_SetLevels(t *testing.T) {
	tests := []struct {
		name         string
		minLevel     string
		maxLevel     string
		reorderPoint string
		expectError  error
	}{
		{
			name:         "ordered levels accepted",
			minLevel:     "10",
			maxLevel:     "500",
			reorderPoint: "50",
		},
		{
			name:         "zero max means unbounded",
			minLevel:     "10",
			maxLevel:     "0",
			reorderPoint: "50",
		},
		{
			name:         "reorder below min rejected",
			minLevel:     "100",
			maxLevel:     "500",
			reorderPoint: "50",
			expectError:  ErrInvalidLevels,
		},
		{
			name:         "reorder above max rejected",
			minLevel:     "10",
			maxLevel:     "40",
			reorderPoint: "50",
			expectError:  ErrInvalidLevels,
		},
		{
			name:         "negative level rejected",
			minLevel:     "-1",
			maxLevel:     "0",
			reorderPoint: "0",
			expectError:  ErrInvalidLevels,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRecord("100", "0", "0")
			err := r.SetLevels(MustQuantity(tt.minLevel), MustQuantity(tt.maxLevel), MustQuantity(tt.reorderPoint), "user1")

			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				require.NoError(t, err)
				assert.True(t, r.MinLevel.Equal(MustQuantity(tt.minLevel)))
				assert.True(t, r.MaxLevel.Equal(MustQuantity(tt.maxLevel)))
				assert.True(t, r.ReorderPoint.Equal(MustQuantity(tt.reorderPoint)))
			}
		})
	}
}

func TestStockRecord_DeactivateBlocksMutations(t *testing.T) {
	r := testRecord("100", "10", "0")
	r.Deactivate()
	require.False(t, r.Active)

	_, err := r.Reserve(MustQuantity("5"), "user1", "")
	assert.ErrorIs(t, err, ErrStockRecordInactive)

	_, err = r.Release(MustQuantity("5"), "user1", "")
	assert.ErrorIs(t, err, ErrStockRecordInactive)

	_, err = r.CommitIssue(MustQuantity("5"), "user1", "")
	assert.ErrorIs(t, err, ErrStockRecordInactive)

	err = r.SetLevels(ZeroQuantity(), ZeroQuantity(), ZeroQuantity(), "user1")
	assert.ErrorIs(t, err, ErrStockRecordInactive)

	// Balances survive deactivation.
	assert.Equal(t, "100.0000", r.QuantityOnHand.String())
	assert.Equal(t, "10.0000", r.QuantityReserved.String())

	r.Activate()
	_, err = r.Reserve(MustQuantity("5"), "user1", "")
	assert.NoError(t, err)
}

func TestStockRecord_DomainEvents(t *testing.T) {
	r := NewStockRecord("ITM001", "WH001")

	_, err := r.Receive(MustQuantity("100"), MustMoney("10"), "user1", "PO-001")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(r.GetDomainEvents()), 1)

	_, err = r.Reserve(MustQuantity("20"), "user1", "ORD-001")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(r.GetDomainEvents()), 2)

	r.ClearDomainEvents()
	assert.Len(t, r.GetDomainEvents(), 0)
}
