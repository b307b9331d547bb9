package models

import (
	"errors"
	"fmt"
)

// MaxAmount caps any single price, payment or visit total (minor units).
// Sums across a tenant's visits must stay within int64.
const MaxAmount int64 = 1_000_000_000_000

var (
	// ErrNonPositiveAmount is returned for prices and payments that are zero or negative.
	ErrNonPositiveAmount = errors.New("amount must be greater than 0")
	ErrAmountTooLarge    = fmt.Errorf("amount must not exceed %d", MaxAmount)
)

// Amount is a strictly positive money value in the clinic's smallest currency unit.
type Amount int64

// NewAmount validates v and returns it as an Amount.
func NewAmount(v int64) (Amount, error) {
	if v <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrNonPositiveAmount, v)
	}
	if v > MaxAmount {
		return 0, fmt.Errorf("%w: got %d", ErrAmountTooLarge, v)
	}
	return Amount(v), nil
}

func (a Amount) Int64() int64 {
	return int64(a)
}
