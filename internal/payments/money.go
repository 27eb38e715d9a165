package payments

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// ToMinorUnits converts a major-unit amount such as "100.00" into cents,
// truncating anything below one cent.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(hundred).Truncate(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(maxMinor.Neg()) {
		return 0, ErrAmountOutOfRange
	}
	return minor.IntPart(), nil
}

// FromMinorUnits renders cents back as a two-place major-unit amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
