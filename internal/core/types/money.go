// Package types provides value types shared by the ledger: money, quantities and calendar dates.
package types

import (
	"github.com/shopspring/decimal"
)

// Money is a tax-exclusive or tax-inclusive monetary amount with full precision.
// Uses decimal.Decimal to avoid floating-point errors in cost math.
type Money = decimal.Decimal

// NewMoneyFromString parses a monetary value. Preferred over float construction.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney parses a monetary value and panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money.
func Zero() Money {
	return decimal.Zero
}

// Rate is a percentage (e.g. 11 for 11% VAT).
type Rate = decimal.Decimal

var hundred = decimal.NewFromInt(100)

// AddTax returns amount * (1 + rate/100).
func AddTax(amount Money, rate Rate) Money {
	return amount.Mul(decimal.NewFromInt(1).Add(rate.Div(hundred)))
}

// StripTax returns amount / (1 + rate/100).
func StripTax(amount Money, rate Rate) Money {
	factor := decimal.NewFromInt(1).Add(rate.Div(hundred))
	if factor.IsZero() {
		return amount
	}
	return amount.Div(factor)
}

// Cost returns q * unitCost.
func Cost(q Quantity, unitCost Money) Money {
	return q.Decimal().Mul(unitCost)
}

// UnitCost returns total / q, or zero when q is zero.
func UnitCost(total Money, q Quantity) Money {
	if q.IsZero() {
		return decimal.Zero
	}
	return total.Div(q.Decimal())
}
