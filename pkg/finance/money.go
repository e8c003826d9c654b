package finance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const centsExponent = 2

// AmountCents is a signed amount in minor units.
type AmountCents int64

// AmountCentsFromDecimal converts a decimal amount with at most two fractional digits.
func AmountCentsFromDecimal(amount decimal.Decimal) (AmountCents, error) {
	shifted := amount.Shift(centsExponent)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amount.String(), centsExponent)
	}
	if shifted.Abs().GreaterThan(decimal.NewFromInt(maxAbsAmountCents)) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, amount.String())
	}
	return AmountCents(shifted.IntPart()), nil
}

// ParseAmount parses a decimal string such as "12.50" or "-3".
func ParseAmount(raw string) (AmountCents, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return AmountCentsFromDecimal(parsed)
}

// Validate checks the amount range.
func (amount AmountCents) Validate() error {
	if amount > maxAbsAmountCents || amount < -maxAbsAmountCents {
		return fmt.Errorf("%w: %d cents is out of range", ErrInvalidAmount, int64(amount))
	}
	return nil
}

// Int64 returns the raw cents value.
func (amount AmountCents) Int64() int64 {
	return int64(amount)
}

// Decimal returns the amount in major units.
func (amount AmountCents) Decimal() decimal.Decimal {
	return decimal.New(int64(amount), -centsExponent)
}

// String formats the amount with two decimal places.
func (amount AmountCents) String() string {
	return amount.Decimal().StringFixed(centsExponent)
}
