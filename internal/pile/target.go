package pile

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultMaxTarget bounds how many bags are ever requested.
// The curve is logarithmic so this is only reached with absurd incomes.
const DefaultMaxTarget = 300

// Curve describes how (income, price) map to a bag count.
type Curve struct {
	// LogBase is the base of the logarithm applied to income.
	// Zero (or any value <= 1) means the natural logarithm.
	LogBase float64
	// Multiplier scales the logarithm before flooring.
	Multiplier float64
	// Max clamps the result. Zero means DefaultMaxTarget.
	Max int
}

// DefaultCurve is the multiplicative-dampening curve used by TargetCount.
func DefaultCurve() Curve {
	return Curve{Multiplier: 2, Max: DefaultMaxTarget}
}

// TargetCount returns the number of bags that should be visible for the
// given income and price using DefaultCurve.
func TargetCount(income, price float64) int {
	return DefaultCurve().Target(income, price)
}

// Target computes floor(base * reduction) where base grows with log(income)
// and reduction = 1 - price/income. Out-of-range or non-finite inputs yield
// 0 and a negative price does not inflate the pile.
func (c Curve) Target(income, price float64) int {
	if !isFinite(income) || !isFinite(price) || income <= 0 {
		return 0
	}
	if price < 0 {
		price = 0
	}

	mult := c.Multiplier
	if mult <= 0 {
		mult = 2
	}

	logIncome := math.Log(income)
	if c.LogBase > 1 {
		logIncome /= math.Log(c.LogBase)
	}
	base := math.Floor(logIncome * mult)
	if base <= 0 {
		return 0
	}

	limit := c.Max
	if limit <= 0 {
		limit = DefaultMaxTarget
	}

	reduction := math.Max(0, 1-price/income)
	// Clamp in float space so an oversized base cannot overflow the int.
	scaled := math.Floor(base * reduction)
	if math.IsNaN(scaled) || scaled <= 0 {
		return 0
	}
	if scaled >= float64(limit) {
		return limit
	}
	return int(scaled)
}

// ParseAmount converts user-entered text into a number. Blank or malformed
// input yields 0. A leading currency sign and thousands separators are
// accepted ("$1,200.50"). Values too large for a float64 come back as ±Inf
// so the curve treats them as out of range rather than as zero.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
