// Package calculator is the core profit calculator: it combines product cost,
// sale price, a platform fee schedule, payment-processor fees and VAT
// treatment into a profit and margin breakdown, and solves for break-even and
// target-margin prices.
//
// Fees are computed once per unit and multiplied by quantity; they are never
// computed against the aggregate order.
package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/fees"
)

// ErrInvalidInput is returned for negative money, a non-positive quantity, or
// a malformed percentage.
var ErrInvalidInput = errors.New("invalid input")

// Validate checks in without evaluating it. Calculate calls it; it is exported
// so stored inputs can be re-checked before they are replayed.
func Validate(in Input) error {
	switch {
	case in.ProductCost < 0:
		return fmt.Errorf("%w: product cost must not be negative", ErrInvalidInput)
	case in.SalePrice < 0:
		return fmt.Errorf("%w: sale price must not be negative", ErrInvalidInput)
	case in.ShippingCost < 0:
		return fmt.Errorf("%w: shipping cost must not be negative", ErrInvalidInput)
	case in.Quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1, got %d", ErrInvalidInput, in.Quantity)
	}
	if err := ValidPercent("VAT rate", in.VATRate); err != nil {
		return err
	}
	if err := ValidPercent("target margin", in.TargetMargin); err != nil {
		return err
	}
	if in.TargetMargin >= 100 {
		return fmt.Errorf("%w: target margin must be below 100%%", ErrInvalidInput)
	}
	if in.PaymentMethod == "" {
		return fmt.Errorf("%w: payment method is required", ErrInvalidInput)
	}
	if _, err := fees.LookupPaymentMethod(in.PaymentMethod); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if _, err := schedule(in); err != nil {
		return err
	}
	return nil
}

// ValidPercent rejects NaN, infinities and values outside [0, 100].
func ValidPercent(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
		return fmt.Errorf("%w: %s must be between 0 and 100, got %v", ErrInvalidInput, name, v)
	}
	return nil
}

// schedule resolves the fee schedule for in. Unknown platforms surface as
// fees.ErrUnknownPlatform; malformed custom terms as ErrInvalidInput.
func schedule(in Input) (fees.Schedule, error) {
	s, err := fees.ScheduleFor(in.Platform, in.CustomFees)
	if err != nil {
		if errors.Is(err, fees.ErrInvalidFeeTerm) {
			return fees.Schedule{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return fees.Schedule{}, err
	}
	return s, nil
}

// Calculate prices in and returns the full breakdown.
func Calculate(in Input) (Result, error) {
	if err := Validate(in); err != nil {
		return Result{}, err
	}
	s, err := schedule(in)
	if err != nil {
		return Result{}, err
	}

	u := unit{in: in, schedule: s}
	qty := int64(in.Quantity)

	platform, payment, err := u.fees(in.SalePrice)
	if err != nil {
		return Result{}, err
	}
	platform = platform.Scale(qty)
	payment = payment.Scale(qty)
	all := platform.Add(payment)

	res := Result{
		Revenue:      in.SalePrice * qty,
		TotalCost:    u.cost() * qty,
		TotalFees:    all.Total,
		PlatformFees: platform.Total,
		PaymentFees:  payment.Total,
		Fees:         all.Lines,
		TargetMargin: in.TargetMargin,
	}

	base := res.Revenue
	if in.VATRegistered {
		res.ReceiptsExVAT = currency.ExcludeVAT(res.Revenue, in.VATRate)
		res.VATAmount = res.Revenue - res.ReceiptsExVAT
		base = res.ReceiptsExVAT

		if s.VATOnShipping && !in.SellerPaysShipping {
			shipping := in.ShippingCost * qty
			res.ShippingVAT = shipping - currency.ExcludeVAT(shipping, in.VATRate)
		}
	}

	res.Profit = base - res.TotalCost - res.TotalFees
	res.ProfitPerUnit = currency.Ratio(res.Profit, qty)
	res.Margin = currency.Percentage(res.Profit, base)

	// With no break-even price no target margin is reachable either.
	res.BreakEvenPrice, err = u.solve(0)
	switch {
	case errors.Is(err, ErrUnreachable):
		res.BreakEvenPrice = 0
		return res, nil
	case err != nil:
		return Result{}, err
	}
	res.BreakEvenReachable = true

	if in.TargetMargin == 0 {
		price := res.BreakEvenPrice
		res.TargetPrice = &price
	} else if price, err := u.solve(in.TargetMargin); err == nil {
		res.TargetPrice = &price
	} else if !errors.Is(err, ErrUnreachable) {
		return Result{}, err
	}

	return res, nil
}

// unit evaluates the per-unit economics of an input at arbitrary prices.
type unit struct {
	in       Input
	schedule fees.Schedule
}

// cost is the seller's per-unit cost.
func (u unit) cost() int64 {
	if u.in.SellerPaysShipping {
		return u.in.ProductCost + u.in.ShippingCost
	}
	return u.in.ProductCost
}

// fees returns the per-unit platform and payment fees at price. Payment
// processors charge on everything the buyer pays, item plus shipping.
func (u unit) fees(price int64) (fees.Breakdown, fees.Breakdown, error) {
	ctx := fees.NewOrderContext(price, u.in.ShippingCost)

	platform, err := fees.Evaluate(u.schedule.Terms, ctx)
	if err != nil {
		return fees.Breakdown{}, fees.Breakdown{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	payment, err := fees.CalculatePaymentFees(ctx.Subtotal, u.in.PaymentMethod)
	if err != nil {
		return fees.Breakdown{}, fees.Breakdown{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return platform, payment, nil
}

// profit returns the per-unit revenue base (receipts ex VAT for registered
// sellers) and profit at price.
func (u unit) profit(price int64) (base, profit int64, err error) {
	platform, payment, err := u.fees(price)
	if err != nil {
		return 0, 0, err
	}
	base = price
	if u.in.VATRegistered {
		base = currency.ExcludeVAT(price, u.in.VATRate)
	}
	return base, base - u.cost() - platform.Total - payment.Total, nil
}
