package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnreachable is returned when no sale price reaches the requested margin.
// It wraps ErrInvalidInput.
var ErrUnreachable = fmt.Errorf("%w: target margin is unreachable", ErrInvalidInput)

// maxSolvablePrice bounds the price search (about 11 billion major units).
const maxSolvablePrice int64 = 1 << 40

var hundred = decimal.NewFromInt(100)

// BreakEvenPrice returns the smallest per-unit sale price at which in makes
// no loss. See TargetPrice for the method. It returns ErrUnreachable when the
// fee percentages leave nothing for the seller at any price.
func BreakEvenPrice(in Input) (int64, error) {
	price, err := TargetPrice(in, 0)
	if errors.Is(err, ErrUnreachable) {
		return 0, fmt.Errorf("%w: fees leave no price at which the item breaks even", err)
	}
	return price, err
}

// TargetPrice returns the smallest per-unit sale price whose profit is
// non-negative and whose margin is at least margin percent.
//
// Fees are rounded per term, so profit is a step function of price rather
// than a line, and there is no closed form once fixed and percentage terms
// mix. The price is found by integer bisection over minor units. Fees never
// fall as price rises, so profit rises by at most one minor unit per unit of
// price: at the break-even price profit is 0 (order-based terms can add one
// unit of rounding), and at a target price profit exceeds the target by at
// most one minor unit plus fee rounding.
func TargetPrice(in Input, margin float64) (int64, error) {
	if err := Validate(in); err != nil {
		return 0, err
	}
	if err := ValidPercent("target margin", margin); err != nil {
		return 0, err
	}
	if margin >= 100 {
		return 0, fmt.Errorf("%w: %v%% margin", ErrUnreachable, margin)
	}
	s, err := schedule(in)
	if err != nil {
		return 0, err
	}
	return unit{in: in, schedule: s}.solve(margin)
}

// solve finds the price for margin, or ErrUnreachable.
func (u unit) solve(margin float64) (int64, error) {
	target := decimal.NewFromFloat(margin)
	reaches := func(price int64) (bool, error) {
		base, profit, err := u.profit(price)
		if err != nil {
			return false, err
		}
		if profit < 0 || (margin > 0 && base == 0) {
			return false, nil
		}
		return decimal.NewFromInt(profit).Mul(hundred).GreaterThanOrEqual(target.Mul(decimal.NewFromInt(base))), nil
	}

	return search(reaches)
}

// search returns the smallest price in [0, maxSolvablePrice] for which ok
// holds, assuming ok flips from false to true once.
func search(ok func(int64) (bool, error)) (int64, error) {
	found, err := ok(0)
	if err != nil || found {
		return 0, err
	}

	// Grow the upper bound until it satisfies ok.
	lo, hi := int64(0), int64(1)
	for {
		found, err = ok(hi)
		if err != nil {
			return 0, err
		}
		if found {
			break
		}
		if hi >= maxSolvablePrice {
			return 0, ErrUnreachable
		}
		lo, hi = hi, hi*2
	}

	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		found, err = ok(mid)
		if err != nil {
			return 0, err
		}
		if found {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, nil
}
