package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MovementType classifies a ledger entry.
type MovementType string

const (
	MovementReceipt    MovementType = "RECEIPT"
	MovementIssue      MovementType = "ISSUE"
	MovementReserve    MovementType = "RESERVE"
	MovementRelease    MovementType = "RELEASE"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// IsValid reports whether the movement type is one of the known values.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementReceipt, MovementIssue, MovementReserve, MovementRelease, MovementAdjustment:
		return true
	}
	return false
}

// MovementEntry is an immutable audit record of a single balance change.
// Entries are append-only; corrections happen through new ADJUSTMENT
// entries, never by editing history.
type MovementEntry struct {
	MovementID    string       `bson:"movement_id" json:"movement_id"`
	ItemCode      string       `bson:"item_code" json:"item_code"`
	WarehouseCode string       `bson:"warehouse_code" json:"warehouse_code"`
	Type          MovementType `bson:"movement_type" json:"movement_type"`

	// Signed deltas applied by this movement.
	OnHandDelta   Quantity `bson:"on_hand_delta" json:"on_hand_delta"`
	ReservedDelta Quantity `bson:"reserved_delta" json:"reserved_delta"`

	// Balances after the movement was applied.
	OnHandAfter   Quantity `bson:"on_hand_after" json:"on_hand_after"`
	ReservedAfter Quantity `bson:"reserved_after" json:"reserved_after"`

	// UnitCost is set on receipts only.
	UnitCost         *Money `bson:"unit_cost,omitempty" json:"unit_cost,omitempty"`
	AverageCostAfter Money  `bson:"average_cost_after" json:"average_cost_after"`

	Actor      string    `bson:"actor" json:"actor"`
	Reference  string    `bson:"reference,omitempty" json:"reference,omitempty"`
	Sequence   int64     `bson:"sequence" json:"sequence"`
	OccurredAt time.Time `bson:"occurred_at" json:"occurred_at"`
}

// NewMovementID generates a movement identifier of the form
// MOV-<unix-nanos>-<short-uuid>.
func NewMovementID() string {
	return fmt.Sprintf("MOV-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

// AvailableAfter returns the available quantity implied by the post-movement
// balances.
func (e *MovementEntry) AvailableAfter() Quantity {
	return e.OnHandAfter.Sub(e.ReservedAfter)
}

// ReplayResult holds the balances reconstructed by folding a movement
// history in sequence order.
type ReplayResult struct {
	ItemCode      string   `json:"item_code"`
	WarehouseCode string   `json:"warehouse_code"`
	OnHand        Quantity `json:"quantity_on_hand"`
	Reserved      Quantity `json:"quantity_reserved"`
	AverageCost   Money    `json:"average_cost"`
	EntryCount    int      `json:"entry_count"`
	LastSequence  int64    `json:"last_sequence"`
}

// Available returns the derived available quantity of the replayed state.
func (r *ReplayResult) Available() Quantity {
	return r.OnHand.Sub(r.Reserved)
}

// ReplayMovements folds a movement history into the balances it implies.
// Entries must be ordered by sequence; the fold applies each delta and
// recomputes the moving average from receipt costs, so the result matches
// the live record whenever history and record agree.
func ReplayMovements(itemCode, warehouseCode string, entries []MovementEntry) ReplayResult {
	result := ReplayResult{
		ItemCode:      itemCode,
		WarehouseCode: warehouseCode,
		OnHand:        ZeroQuantity(),
		Reserved:      ZeroQuantity(),
		AverageCost:   ZeroMoney(),
	}
	for i := range entries {
		entry := &entries[i]
		if entry.Type == MovementReceipt && entry.UnitCost != nil {
			result.AverageCost = WeightedAverageCost(
				result.OnHand, result.AverageCost, entry.OnHandDelta, *entry.UnitCost)
		}
		result.OnHand = result.OnHand.Add(entry.OnHandDelta)
		result.Reserved = result.Reserved.Add(entry.ReservedDelta)
		result.EntryCount++
		result.LastSequence = entry.Sequence
	}
	return result
}
