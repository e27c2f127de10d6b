/**
 * @description
 * This file defines the Money value type used for every balance and transfer
 * amount in the system.
 *
 * @notes
 * - Amounts are held as `int64` in the smallest currency unit (cents), which
 *   avoids floating-point inaccuracies with financial data.
 * - Money is immutable: every arithmetic operation returns a new value and an
 *   amount can never go negative.
 */

package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrNegativeAmount is returned when an operation would produce or accept a
// negative monetary amount.
var ErrNegativeAmount = errors.New("amount cannot be negative")

// Money is a non-negative amount in cents.
type Money struct {
	cents int64
}

// NewMoney creates a Money value from an amount in cents.
func NewMoney(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{cents: cents}, nil
}

// MoneyFromFloat converts an amount in whole currency units (e.g. 100.50)
// into Money, rounding to the nearest cent. Used at the HTTP boundary, where
// clients submit decimal values.
func MoneyFromFloat(value float64) (Money, error) {
	return NewMoney(int64(math.Round(value * 100)))
}

// ZeroMoney returns the zero amount.
func ZeroMoney() Money {
	return Money{}
}

// Cents returns the amount in cents.
func (m Money) Cents() int64 {
	return m.cents
}

// Add returns the sum of the two amounts.
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// Subtract returns the difference, or ErrNegativeAmount if the result would
// drop below zero.
func (m Money) Subtract(other Money) (Money, error) {
	result := m.cents - other.cents
	if result < 0 {
		return Money{}, fmt.Errorf("subtracting %d from %d cents: %w", other.cents, m.cents, ErrNegativeAmount)
	}
	return Money{cents: result}, nil
}

// GreaterOrEqual reports whether m is at least other.
func (m Money) GreaterOrEqual(other Money) bool {
	return m.cents >= other.cents
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.cents > 0
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m.cents/100, m.cents%100)
}
