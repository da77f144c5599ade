package currency

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round converts d to whole minor units, rounding half away from zero.
// It is the only rounding rule used for money in this module.
func Round(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// Percent returns pct percent of base, rounded to the nearest minor unit.
// pct must be finite.
func Percent(base int64, pct float64) int64 {
	return Round(decimal.NewFromInt(base).Mul(decimal.NewFromFloat(pct)).Div(hundred))
}

// Adjust applies a relative change of delta percent to amount:
// amount × (1 + delta/100), rounded. delta must be finite.
func Adjust(amount int64, delta float64) int64 {
	factor := hundred.Add(decimal.NewFromFloat(delta))
	return Round(decimal.NewFromInt(amount).Mul(factor).Div(hundred))
}

// ExcludeVAT extracts the net amount from a VAT-inclusive gross amount:
// gross / (1 + rate/100), rounded. rate must be finite and greater than -100.
func ExcludeVAT(gross int64, rate float64) int64 {
	divisor := hundred.Add(decimal.NewFromFloat(rate))
	return Round(decimal.NewFromInt(gross).Mul(hundred).Div(divisor))
}

// Ratio returns numerator/denominator rounded to a whole minor unit.
// It returns 0 when denominator is 0.
func Ratio(numerator, denominator int64) int64 {
	if denominator == 0 {
		return 0
	}
	return Round(decimal.NewFromInt(numerator).Div(decimal.NewFromInt(denominator)))
}

// Percentage returns part/whole × 100, or 0 when whole is 0. The division is
// done in decimal so that 923/2000 yields exactly 46.15.
func Percentage(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(whole)).InexactFloat64()
}
