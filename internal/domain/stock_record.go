package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StockRecord is the ledger aggregate for one item in one warehouse. All
// balance changes go through its methods so the invariants hold at every
// commit:
//
//	quantityOnHand >= 0
//	0 <= quantityReserved <= quantityOnHand
//
// Available quantity is always derived as onHand - reserved and never
// stored.
type StockRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ItemCode      string             `bson:"item_code" json:"item_code"`
	WarehouseCode string             `bson:"warehouse_code" json:"warehouse_code"`

	QuantityOnHand   Quantity `bson:"quantity_on_hand" json:"quantity_on_hand"`
	QuantityReserved Quantity `bson:"quantity_reserved" json:"quantity_reserved"`

	MinLevel     Quantity `bson:"min_level" json:"min_level"`
	MaxLevel     Quantity `bson:"max_level" json:"max_level"`
	ReorderPoint Quantity `bson:"reorder_point" json:"reorder_point"`

	// UnitCost is the cost of the most recent receipt; AverageCost is the
	// moving weighted average across all receipts.
	UnitCost    Money `bson:"unit_cost" json:"unit_cost"`
	AverageCost Money `bson:"average_cost" json:"average_cost"`

	Active  bool  `bson:"active" json:"active"`
	Version int64 `bson:"version" json:"version"`

	LastMovementAt *time.Time `bson:"last_movement_at,omitempty" json:"last_movement_at,omitempty"`
	LastReceiptAt  *time.Time `bson:"last_receipt_at,omitempty" json:"last_receipt_at,omitempty"`
	LastIssueAt    *time.Time `bson:"last_issue_at,omitempty" json:"last_issue_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	// DomainEvents collects events raised by operations until the record is
	// persisted; they are not part of the stored document.
	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewStockRecord creates an empty, active record for the given key. Used by
// the get-or-create path when a key is seen for the first time.
func NewStockRecord(itemCode, warehouseCode string) *StockRecord {
	now := time.Now()
	return &StockRecord{
		ItemCode:         itemCode,
		WarehouseCode:    warehouseCode,
		QuantityOnHand:   ZeroQuantity(),
		QuantityReserved: ZeroQuantity(),
		MinLevel:         ZeroQuantity(),
		MaxLevel:         ZeroQuantity(),
		ReorderPoint:     ZeroQuantity(),
		UnitCost:         ZeroMoney(),
		AverageCost:      ZeroMoney(),
		Active:           true,
		Version:          0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// AvailableQuantity returns onHand - reserved. Derived on every read so it
// can never drift from the stored balances.
func (r *StockRecord) AvailableQuantity() Quantity {
	return r.QuantityOnHand.Sub(r.QuantityReserved)
}

// TotalValue returns onHand times the average cost, falling back to the
// unit cost when no receipt has established an average yet.
func (r *StockRecord) TotalValue() Money {
	cost := r.AverageCost
	if cost.IsZero() {
		cost = r.UnitCost
	}
	return cost.MulQuantity(r.QuantityOnHand)
}

// IsLowStock reports whether the available quantity has fallen to or below
// the reorder point.
func (r *StockRecord) IsLowStock() bool {
	return r.AvailableQuantity().LessThanOrEqual(r.ReorderPoint)
}

// applyDelta is the single mutation primitive. It validates the balance
// invariants against the prospective balances, applies both deltas, stamps
// the movement timestamps and returns the movement entry describing the
// change. On any error the record is left untouched.
//
// The entry's sequence is zero here; the repository assigns the per-key
// sequence number when it persists record and entry together.
func (r *StockRecord) applyDelta(onHandDelta, reservedDelta Quantity, movementType MovementType, actor, reference string, unitCost *Money) (*MovementEntry, error) {
	if !r.Active {
		return nil, ErrStockRecordInactive
	}
	if !movementType.IsValid() {
		return nil, ErrInvalidMovementType
	}

	newOnHand := r.QuantityOnHand.Add(onHandDelta)
	newReserved := r.QuantityReserved.Add(reservedDelta)
	if newOnHand.IsNegative() || newReserved.IsNegative() || newReserved.GreaterThan(newOnHand) {
		return nil, &InvariantViolationError{
			ItemCode:      r.ItemCode,
			WarehouseCode: r.WarehouseCode,
			OnHandDelta:   onHandDelta,
			ReservedDelta: reservedDelta,
			OnHand:        r.QuantityOnHand,
			Reserved:      r.QuantityReserved,
		}
	}

	availableBefore := r.AvailableQuantity()
	now := time.Now()

	r.QuantityOnHand = newOnHand
	r.QuantityReserved = newReserved
	r.LastMovementAt = &now
	switch movementType {
	case MovementReceipt:
		r.LastReceiptAt = &now
	case MovementIssue:
		r.LastIssueAt = &now
	}
	r.UpdatedAt = now

	entry := &MovementEntry{
		MovementID:       NewMovementID(),
		ItemCode:         r.ItemCode,
		WarehouseCode:    r.WarehouseCode,
		Type:             movementType,
		OnHandDelta:      onHandDelta,
		ReservedDelta:    reservedDelta,
		OnHandAfter:      r.QuantityOnHand,
		ReservedAfter:    r.QuantityReserved,
		UnitCost:         unitCost,
		AverageCostAfter: r.AverageCost,
		Actor:            actor,
		Reference:        reference,
		OccurredAt:       now,
	}

	availableAfter := r.AvailableQuantity()
	if availableAfter.LessThan(availableBefore) && r.IsLowStock() {
		r.AddDomainEvent(&LowStockAlertEvent{
			ItemCode:          r.ItemCode,
			WarehouseCode:     r.WarehouseCode,
			QuantityAvailable: availableAfter,
			ReorderPoint:      r.ReorderPoint,
			Deficit:           r.ReorderPoint.Sub(availableAfter),
			AlertedAt:         now,
		})
	}

	return entry, nil
}

// ApplyDelta applies an arbitrary pair of balance deltas under invariant
// validation. Receipts are rejected here because they must carry a unit
// cost; use Receive instead.
func (r *StockRecord) ApplyDelta(onHandDelta, reservedDelta Quantity, movementType MovementType, actor, reference string) (*MovementEntry, error) {
	if movementType == MovementReceipt {
		return nil, ErrReceiptRequiresCost
	}
	return r.applyDelta(onHandDelta, reservedDelta, movementType, actor, reference, nil)
}

// Receive adds stock at a unit cost, folding the cost into the moving
// weighted average before the balance changes.
func (r *StockRecord) Receive(quantity Quantity, unitCost Money, actor, reference string) (*MovementEntry, error) {
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if unitCost.IsNegative() {
		return nil, ErrInvalidCost
	}

	newAverage := WeightedAverageCost(r.QuantityOnHand, r.AverageCost, quantity, unitCost)

	entry, err := r.applyDelta(quantity, ZeroQuantity(), MovementReceipt, actor, reference, &unitCost)
	if err != nil {
		return nil, err
	}

	r.UnitCost = unitCost
	r.AverageCost = newAverage
	entry.AverageCostAfter = newAverage

	r.AddDomainEvent(&StockReceivedEvent{
		ItemCode:      r.ItemCode,
		WarehouseCode: r.WarehouseCode,
		Quantity:      quantity,
		UnitCost:      unitCost,
		AverageCost:   newAverage,
		OnHandAfter:   r.QuantityOnHand,
		Actor:         actor,
		Reference:     reference,
		ReceivedAt:    entry.OccurredAt,
	})
	return entry, nil
}

// Reserve sets quantity aside for a pending issue. The availability check
// runs against the same balances the delta is applied to, so a concurrent
// reservation can never overdraw once the repository write succeeds.
func (r *StockRecord) Reserve(quantity Quantity, actor, reference string) (*MovementEntry, error) {
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	available := r.AvailableQuantity()
	if quantity.GreaterThan(available) {
		return nil, &InsufficientAvailableError{
			ItemCode:      r.ItemCode,
			WarehouseCode: r.WarehouseCode,
			Requested:     quantity,
			Available:     available,
			OnHand:        r.QuantityOnHand,
			Reserved:      r.QuantityReserved,
		}
	}

	entry, err := r.applyDelta(ZeroQuantity(), quantity, MovementReserve, actor, reference, nil)
	if err != nil {
		return nil, err
	}

	r.AddDomainEvent(&StockReservedEvent{
		ItemCode:       r.ItemCode,
		WarehouseCode:  r.WarehouseCode,
		Quantity:       quantity,
		ReservedAfter:  r.QuantityReserved,
		AvailableAfter: r.AvailableQuantity(),
		Actor:          actor,
		Reference:      reference,
		ReservedAt:     entry.OccurredAt,
	})
	return entry, nil
}

// Release returns reserved quantity to the available pool.
func (r *StockRecord) Release(quantity Quantity, actor, reference string) (*MovementEntry, error) {
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if quantity.GreaterThan(r.QuantityReserved) {
		return nil, &OverReleaseError{
			ItemCode:      r.ItemCode,
			WarehouseCode: r.WarehouseCode,
			Requested:     quantity,
			Reserved:      r.QuantityReserved,
		}
	}

	entry, err := r.applyDelta(ZeroQuantity(), quantity.Neg(), MovementRelease, actor, reference, nil)
	if err != nil {
		return nil, err
	}

	r.AddDomainEvent(&ReservationReleasedEvent{
		ItemCode:       r.ItemCode,
		WarehouseCode:  r.WarehouseCode,
		Quantity:       quantity,
		ReservedAfter:  r.QuantityReserved,
		AvailableAfter: r.AvailableQuantity(),
		Actor:          actor,
		Reference:      reference,
		ReleasedAt:     entry.OccurredAt,
	})
	return entry, nil
}

// CommitIssue consumes a reservation: both onHand and reserved drop by the
// issued quantity. Issues never touch the average cost.
func (r *StockRecord) CommitIssue(quantity Quantity, actor, reference string) (*MovementEntry, error) {
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if quantity.GreaterThan(r.QuantityReserved) {
		return nil, &ReservationMismatchError{
			ItemCode:      r.ItemCode,
			WarehouseCode: r.WarehouseCode,
			Requested:     quantity,
			Reserved:      r.QuantityReserved,
		}
	}

	entry, err := r.applyDelta(quantity.Neg(), quantity.Neg(), MovementIssue, actor, reference, nil)
	if err != nil {
		return nil, err
	}

	r.AddDomainEvent(&StockIssuedEvent{
		ItemCode:      r.ItemCode,
		WarehouseCode: r.WarehouseCode,
		Quantity:      quantity,
		OnHandAfter:   r.QuantityOnHand,
		ReservedAfter: r.QuantityReserved,
		Actor:         actor,
		Reference:     reference,
		IssuedAt:      entry.OccurredAt,
	})
	return entry, nil
}

// Adjust corrects the on-hand balance to a counted value, recording the
// signed difference as an ADJUSTMENT movement. A reason is mandatory. The
// reserved quantity is unchanged, so a count below the reserved balance is
// rejected as an invariant violation.
func (r *StockRecord) Adjust(newOnHand Quantity, reason, actor string) (*MovementEntry, error) {
	if newOnHand.IsNegative() {
		return nil, ErrInvalidQuantity
	}
	if reason == "" {
		return nil, ErrReasonRequired
	}

	oldOnHand := r.QuantityOnHand
	delta := newOnHand.Sub(oldOnHand)

	entry, err := r.applyDelta(delta, ZeroQuantity(), MovementAdjustment, actor, reason, nil)
	if err != nil {
		return nil, err
	}

	r.AddDomainEvent(&StockAdjustedEvent{
		ItemCode:      r.ItemCode,
		WarehouseCode: r.WarehouseCode,
		OldOnHand:     oldOnHand,
		NewOnHand:     newOnHand,
		Reason:        reason,
		Actor:         actor,
		AdjustedAt:    entry.OccurredAt,
	})
	return entry, nil
}

// ValidateStockLevels checks the replenishment threshold bounds: none may be
// negative, the reorder point sits at or above the minimum, and a non-zero
// maximum caps the reorder point. A zero maximum means no upper bound.
func ValidateStockLevels(minLevel, maxLevel, reorderPoint Quantity) error {
	if minLevel.IsNegative() || maxLevel.IsNegative() || reorderPoint.IsNegative() {
		return ErrInvalidLevels
	}
	if reorderPoint.LessThan(minLevel) {
		return ErrInvalidLevels
	}
	if maxLevel.IsPositive() && maxLevel.LessThan(reorderPoint) {
		return ErrInvalidLevels
	}
	return nil
}

// SetLevels updates the replenishment thresholds.
func (r *StockRecord) SetLevels(minLevel, maxLevel, reorderPoint Quantity, actor string) error {
	if !r.Active {
		return ErrStockRecordInactive
	}
	if err := ValidateStockLevels(minLevel, maxLevel, reorderPoint); err != nil {
		return err
	}

	r.MinLevel = minLevel
	r.MaxLevel = maxLevel
	r.ReorderPoint = reorderPoint
	now := time.Now()
	r.UpdatedAt = now

	r.AddDomainEvent(&StockLevelsChangedEvent{
		ItemCode:      r.ItemCode,
		WarehouseCode: r.WarehouseCode,
		MinLevel:      minLevel,
		MaxLevel:      maxLevel,
		ReorderPoint:  reorderPoint,
		Actor:         actor,
		ChangedAt:     now,
	})
	return nil
}

// Deactivate soft-deletes the record. Balances and history are preserved;
// further mutations are rejected until it is activated again.
func (r *StockRecord) Deactivate() {
	if !r.Active {
		return
	}
	r.Active = false
	r.UpdatedAt = time.Now()
}

// Activate re-enables a deactivated record.
func (r *StockRecord) Activate() {
	if r.Active {
		return
	}
	r.Active = true
	r.UpdatedAt = time.Now()
}

// AddDomainEvent registers a domain event for publication after persistence
func (r *StockRecord) AddDomainEvent(event DomainEvent) {
	r.DomainEvents = append(r.DomainEvents, event)
}

// GetDomainEvents returns the accumulated domain events
func (r *StockRecord) GetDomainEvents() []DomainEvent {
	return r.DomainEvents
}

// ClearDomainEvents removes all accumulated domain events
func (r *StockRecord) ClearDomainEvents() {
	r.DomainEvents = nil
}
