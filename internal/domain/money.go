package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MoneyScale is the number of decimal places every monetary amount is held
// at, matching the precision of the cost columns.
const MoneyScale = 4

var (
	ErrInvalidMoneyString = errors.New("money amount is not a valid decimal")
	ErrNegativeMoney      = errors.New("money amount cannot be negative")
	ErrDivisionByZero     = errors.New("cannot divide money by zero quantity")
)

// Money represents a monetary amount with fixed 4-decimal precision.
// Amounts are currency-less; conversion between currencies is out of scope
// for the ledger.
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates a Money value from a decimal string such as "25000.0000".
func NewMoney(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidMoneyString, value)
	}
	return Money{amount: d.Round(MoneyScale)}, nil
}

// NewMoneyFromInt creates a Money value from a whole amount.
func NewMoneyFromInt(amount int64) Money {
	return Money{amount: decimal.NewFromInt(amount)}
}

// NewMoneyFromDecimal wraps an existing decimal, normalizing its scale.
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{amount: d.Round(MoneyScale)}
}

// ZeroMoney returns the zero amount.
func ZeroMoney() Money {
	return Money{amount: decimal.Zero}
}

// MustMoney parses a money string and panics on failure. Test helper.
func MustMoney(value string) Money {
	m, err := NewMoney(value)
	if err != nil {
		panic(err)
	}
	return m
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns m - other, failing when the result would be negative.
func (m Money) Sub(other Money) (Money, error) {
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrNegativeMoney,
			m.String(), other.String())
	}
	return Money{amount: result}, nil
}

// MulQuantity returns m multiplied by a quantity, rounded to scale.
func (m Money) MulQuantity(q Quantity) Money {
	return Money{amount: m.amount.Mul(q.Decimal()).Round(MoneyScale)}
}

// DivQuantity returns m divided by a quantity, rounded to scale.
func (m Money) DivQuantity(q Quantity) (Money, error) {
	if q.IsZero() {
		return Money{}, ErrDivisionByZero
	}
	return Money{amount: m.amount.Div(q.Decimal()).Round(MoneyScale)}, nil
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Equal reports whether two amounts are numerically equal.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// String renders the amount at fixed scale, e.g. "25000.0000".
func (m Money) String() string {
	return m.amount.StringFixed(MoneyScale)
}

// MarshalJSON implements json.Marshaler, emitting the fixed-scale string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := NewMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalBSONValue implements bson.ValueMarshaler, persisting the amount as
// Decimal128.
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.String())
	if err != nil {
		return 0, nil, err
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Decimal128:
		var d128 primitive.Decimal128
		if err := bson.UnmarshalValue(t, data, &d128); err != nil {
			return err
		}
		parsed, err := NewMoney(d128.String())
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case bsontype.Double:
		var f float64
		if err := bson.UnmarshalValue(t, data, &f); err != nil {
			return err
		}
		*m = Money{amount: decimal.NewFromFloat(f).Round(MoneyScale)}
		return nil
	case bsontype.Int32:
		var i int32
		if err := bson.UnmarshalValue(t, data, &i); err != nil {
			return err
		}
		*m = Money{amount: decimal.NewFromInt32(i)}
		return nil
	case bsontype.Int64:
		var i int64
		if err := bson.UnmarshalValue(t, data, &i); err != nil {
			return err
		}
		*m = Money{amount: decimal.NewFromInt(i)}
		return nil
	case bsontype.String:
		var s string
		if err := bson.UnmarshalValue(t, data, &s); err != nil {
			return err
		}
		parsed, err := NewMoney(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	default:
		return fmt.Errorf("cannot decode money from BSON type %s", t)
	}
}

// WeightedAverageCost computes the moving average cost after a receipt.
// When nothing was on hand before, the receipt's unit cost becomes the
// average outright.
func WeightedAverageCost(onHandBefore Quantity, averageBefore Money, received Quantity, unitCost Money) Money {
	if onHandBefore.IsZero() || onHandBefore.IsNegative() {
		return unitCost
	}
	priorValue := averageBefore.amount.Mul(onHandBefore.Decimal())
	receivedValue := unitCost.amount.Mul(received.Decimal())
	totalQty := onHandBefore.Decimal().Add(received.Decimal())
	return Money{amount: priorValue.Add(receivedValue).Div(totalQty).Round(MoneyScale)}
}
