package domain

import (
	"strings"
	"testing"
)

func TestMovementType_IsValid(t *testing.T) {
	valid := []MovementType{MovementReceipt, MovementIssue, MovementReserve, MovementRelease, MovementAdjustment}
	for _, mt := range valid {
		if !mt.IsValid() {
			t.Errorf("expected %s to be valid", mt)
		}
	}
	if MovementType("TRANSFER").IsValid() {
		t.Errorf("expected TRANSFER to be invalid")
	}
	if MovementType("").IsValid() {
		t.Errorf("expected empty type to be invalid")
	}
}

func TestNewMovementID(t *testing.T) {
	id := NewMovementID()
	if !strings.HasPrefix(id, "MOV-") {
		t.Errorf("expected MOV- prefix, got %s", id)
	}
	if id == NewMovementID() {
		t.Errorf("expected distinct ids")
	}
}

func TestMovementEntry_AvailableAfter(t *testing.T) {
	entry := MovementEntry{
		OnHandAfter:   MustQuantity("100"),
		ReservedAfter: MustQuantity("30"),
	}
	if entry.AvailableAfter().String() != "70.0000" {
		t.Errorf("expected 70.0000, got %s", entry.AvailableAfter())
	}
}

// drive runs a record through a sequence of operations and returns the
// movement entries with sequences assigned the way the store does.
func drive(t *testing.T, r *StockRecord, ops []func(*StockRecord) (*MovementEntry, error)) []MovementEntry {
	t.Helper()
	var entries []MovementEntry
	for i, op := range ops {
		entry, err := op(r)
		if err != nil {
			t.Fatalf("operation %d: %v", i, err)
		}
		entry.Sequence = int64(i + 1)
		entries = append(entries, *entry)
	}
	return entries
}

func TestReplayMovements(t *testing.T) {
	t.Run("empty history yields zero state", func(t *testing.T) {
		result := ReplayMovements("ITM001", "WH001", nil)
		if !result.OnHand.IsZero() || !result.Reserved.IsZero() || !result.AverageCost.IsZero() {
			t.Errorf("expected zero state, got onHand=%s reserved=%s avg=%s",
				result.OnHand, result.Reserved, result.AverageCost)
		}
		if result.EntryCount != 0 || result.LastSequence != 0 {
			t.Errorf("expected empty counters, got count=%d seq=%d",
				result.EntryCount, result.LastSequence)
		}
	})

	t.Run("full history reconstructs the live record", func(t *testing.T) {
		r := NewStockRecord("ITM001", "WH001")
		entries := drive(t, r, []func(*StockRecord) (*MovementEntry, error){
			func(r *StockRecord) (*MovementEntry, error) {
				return r.Receive(MustQuantity("1000"), MustMoney("25000"), "user1", "PO-001")
			},
			func(r *StockRecord) (*MovementEntry, error) {
				return r.Receive(MustQuantity("5"), MustMoney("25000"), "user1", "PO-002")
			},
			func(r *StockRecord) (*MovementEntry, error) {
				return r.Reserve(MustQuantity("200"), "user2", "ORD-001")
			},
			func(r *StockRecord) (*MovementEntry, error) {
				return r.CommitIssue(MustQuantity("150"), "user2", "ORD-001")
			},
			func(r *StockRecord) (*MovementEntry, error) {
				return r.Release(MustQuantity("50"), "user2", "ORD-001")
			},
			func(r *StockRecord) (*MovementEntry, error) {
				return r.Adjust(MustQuantity("860"), "cycle count", "user3")
			},
			func(r *StockRecord) (*MovementEntry, error) {
				return r.Receive(MustQuantity("140"), MustMoney("30000"), "user1", "PO-003")
			},
		})

		result := ReplayMovements("ITM001", "WH001", entries)

		if !result.OnHand.Equal(r.QuantityOnHand) {
			t.Errorf("onHand: replay %s, record %s", result.OnHand, r.QuantityOnHand)
		}
		if !result.Reserved.Equal(r.QuantityReserved) {
			t.Errorf("reserved: replay %s, record %s", result.Reserved, r.QuantityReserved)
		}
		if !result.AverageCost.Equal(r.AverageCost) {
			t.Errorf("averageCost: replay %s, record %s", result.AverageCost, r.AverageCost)
		}
		if !result.Available().Equal(r.AvailableQuantity()) {
			t.Errorf("available: replay %s, record %s", result.Available(), r.AvailableQuantity())
		}
		if result.EntryCount != len(entries) {
			t.Errorf("expected %d entries, got %d", len(entries), result.EntryCount)
		}
		if result.LastSequence != int64(len(entries)) {
			t.Errorf("expected last sequence %d, got %d", len(entries), result.LastSequence)
		}
	})

	t.Run("average cost rebuilds from receipt costs alone", func(t *testing.T) {
		r := NewStockRecord("ITM001", "WH001")
		entries := drive(t, r, []func(*StockRecord) (*MovementEntry, error){
			func(r *StockRecord) (*MovementEntry, error) {
				return r.Receive(MustQuantity("100"), MustMoney("10"), "user1", "PO-001")
			},
			func(r *StockRecord) (*MovementEntry, error) {
				return r.Reserve(MustQuantity("100"), "user2", "ORD-001")
			},
			func(r *StockRecord) (*MovementEntry, error) {
				return r.CommitIssue(MustQuantity("100"), "user2", "ORD-001")
			},
			func(r *StockRecord) (*MovementEntry, error) {
				// Stock is empty again, so this receipt resets the average.
				return r.Receive(MustQuantity("10"), MustMoney("99"), "user1", "PO-002")
			},
		})

		result := ReplayMovements("ITM001", "WH001", entries)

		if result.AverageCost.String() != "99.0000" {
			t.Errorf("expected average 99.0000, got %s", result.AverageCost)
		}
		if !result.AverageCost.Equal(r.AverageCost) {
			t.Errorf("averageCost: replay %s, record %s", result.AverageCost, r.AverageCost)
		}
	})
}
