package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuantityScale is the number of decimal places every quantity is held at.
// Matches the schema precision of the stock columns.
const QuantityScale = 4

// Quantity represents a stock quantity with fixed 4-decimal precision.
// Quantities may be negative only when expressing a delta; stored balances
// are validated against the ledger invariants before persistence.
type Quantity struct {
	dec decimal.Decimal
}

var (
	ErrInvalidQuantityString = errors.New("quantity is not a valid decimal")
)

// NewQuantity creates a Quantity from a decimal string such as "12.5000".
func NewQuantity(value string) (Quantity, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Quantity{}, fmt.Errorf("%w: %q", ErrInvalidQuantityString, value)
	}
	return Quantity{dec: d.Round(QuantityScale)}, nil
}

// NewQuantityFromInt creates a Quantity from a whole number of units.
func NewQuantityFromInt(units int64) Quantity {
	return Quantity{dec: decimal.NewFromInt(units)}
}

// NewQuantityFromDecimal wraps an existing decimal, normalizing its scale.
func NewQuantityFromDecimal(d decimal.Decimal) Quantity {
	return Quantity{dec: d.Round(QuantityScale)}
}

// ZeroQuantity returns the zero quantity.
func ZeroQuantity() Quantity {
	return Quantity{dec: decimal.Zero}
}

// MustQuantity parses a quantity string and panics on failure. Test helper.
func MustQuantity(value string) Quantity {
	q, err := NewQuantity(value)
	if err != nil {
		panic(err)
	}
	return q
}

// Add returns q + other.
func (q Quantity) Add(other Quantity) Quantity {
	return Quantity{dec: q.dec.Add(other.dec)}
}

// Sub returns q - other.
func (q Quantity) Sub(other Quantity) Quantity {
	return Quantity{dec: q.dec.Sub(other.dec)}
}

// Neg returns the negated quantity.
func (q Quantity) Neg() Quantity {
	return Quantity{dec: q.dec.Neg()}
}

// IsZero reports whether the quantity is exactly zero.
func (q Quantity) IsZero() bool {
	return q.dec.IsZero()
}

// IsNegative reports whether the quantity is below zero.
func (q Quantity) IsNegative() bool {
	return q.dec.IsNegative()
}

// IsPositive reports whether the quantity is above zero.
func (q Quantity) IsPositive() bool {
	return q.dec.IsPositive()
}

// Equal reports whether two quantities are numerically equal.
func (q Quantity) Equal(other Quantity) bool {
	return q.dec.Equal(other.dec)
}

// LessThan reports whether q < other.
func (q Quantity) LessThan(other Quantity) bool {
	return q.dec.LessThan(other.dec)
}

// LessThanOrEqual reports whether q <= other.
func (q Quantity) LessThanOrEqual(other Quantity) bool {
	return q.dec.LessThanOrEqual(other.dec)
}

// GreaterThan reports whether q > other.
func (q Quantity) GreaterThan(other Quantity) bool {
	return q.dec.GreaterThan(other.dec)
}

// Cmp compares two quantities, returning -1, 0 or 1.
func (q Quantity) Cmp(other Quantity) int {
	return q.dec.Cmp(other.dec)
}

// Decimal exposes the underlying decimal value.
func (q Quantity) Decimal() decimal.Decimal {
	return q.dec
}

// String renders the quantity at fixed scale, e.g. "1000.0000".
func (q Quantity) String() string {
	return q.dec.StringFixed(QuantityScale)
}

// MarshalJSON implements json.Marshaler, emitting the fixed-scale string so
// no precision is lost in transport.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + q.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting both quoted and bare
// decimal literals.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := NewQuantity(s)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// MarshalBSONValue implements bson.ValueMarshaler, persisting the quantity
// as Decimal128 so aggregation pipelines can compare and subtract natively.
func (q Quantity) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(q.String())
	if err != nil {
		return 0, nil, err
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (q *Quantity) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Decimal128:
		var d128 primitive.Decimal128
		if err := bson.UnmarshalValue(t, data, &d128); err != nil {
			return err
		}
		parsed, err := NewQuantity(d128.String())
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	case bsontype.Double:
		var f float64
		if err := bson.UnmarshalValue(t, data, &f); err != nil {
			return err
		}
		*q = Quantity{dec: decimal.NewFromFloat(f).Round(QuantityScale)}
		return nil
	case bsontype.Int32:
		var i int32
		if err := bson.UnmarshalValue(t, data, &i); err != nil {
			return err
		}
		*q = Quantity{dec: decimal.NewFromInt32(i)}
		return nil
	case bsontype.Int64:
		var i int64
		if err := bson.UnmarshalValue(t, data, &i); err != nil {
			return err
		}
		*q = Quantity{dec: decimal.NewFromInt(i)}
		return nil
	case bsontype.String:
		var s string
		if err := bson.UnmarshalValue(t, data, &s); err != nil {
			return err
		}
		parsed, err := NewQuantity(s)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	default:
		return fmt.Errorf("cannot decode quantity from BSON type %s", t)
	}
}
