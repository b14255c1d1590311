package valueobjects

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxMajorAmount is the largest major-unit amount whose minor units fit in an int64.
const MaxMajorAmount = math.MaxInt64 / 100

// ErrAmountOutOfRange is returned for amounts that cannot be stored as minor units.
var ErrAmountOutOfRange = errors.New("amount out of range")

// Money is an amount in minor units (cents) of a currency.
type Money struct {
	amountInCents int64
	currency      string
}

func NewMoney(amountInCents int64, currency string) Money {
	return Money{
		amountInCents: amountInCents,
		currency:      strings.ToUpper(currency),
	}
}

// NewMoneyFromMajor converts a gateway amount such as 400.5 into minor units. NaN, infinities
// and amounts past MaxMajorAmount are rejected instead of wrapping.
func NewMoneyFromMajor(amount float64, currency string) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, fmt.Errorf("%w: %v", ErrAmountOutOfRange, amount)
	}
	cents := math.Round(amount * 100)
	// float64(math.MaxInt64) rounds up to 2^63, which no longer fits.
	if cents >= float64(math.MaxInt64) || cents < float64(math.MinInt64) || math.Abs(amount) > MaxMajorAmount {
		return Money{}, fmt.Errorf("%w: %v", ErrAmountOutOfRange, amount)
	}
	return NewMoney(int64(cents), currency), nil
}

func (m Money) AmountInCents() int64 {
	return m.amountInCents
}

func (m Money) Currency() string {
	return m.currency
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.amountInCents/100, abs(m.amountInCents%100), m.currency)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
