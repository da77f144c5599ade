// Package fees evaluates marketplace fee schedules and payment-processor fees
// against a single order. All amounts are minor units.
package fees

import (
	"errors"
	"fmt"
	"math"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
)

// Sentinel errors returned by the fees package.
var (
	// ErrUnknownPlatform is returned for a platform key that has no schedule,
	// or for the custom platform when no fee terms are supplied.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrUnknownPaymentMethod is returned for a payment method outside the
	// configured set.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")

	// ErrInvalidFeeTerm is returned when a fee term is malformed.
	ErrInvalidFeeTerm = errors.New("invalid fee term")
)

// FeeType says how a term's value is interpreted.
type FeeType string

const (
	FeeTypePercentage FeeType = "percentage"
	FeeTypeFixed      FeeType = "fixed"
)

// FeeBase is the amount a percentage term is charged against.
type FeeBase string

const (
	BaseItem     FeeBase = "item"     // item price only
	BaseShipping FeeBase = "shipping" // shipping cost only
	BaseSubtotal FeeBase = "subtotal" // item + shipping
	BaseOrder    FeeBase = "order"    // subtotal less the fees charged before this term
)

// FeeTerm is a single named charge in a fee schedule.
type FeeTerm struct {
	Label string  `json:"label"`
	Type  FeeType `json:"type"`
	Base  FeeBase `json:"base"`
	// Value is a percentage for percentage terms and a minor-unit amount for
	// fixed terms.
	Value float64 `json:"value"`
}

// Validate reports whether t can be evaluated.
func (t FeeTerm) Validate() error {
	if math.IsNaN(t.Value) || math.IsInf(t.Value, 0) || t.Value < 0 {
		return fmt.Errorf("%w: %q has value %v", ErrInvalidFeeTerm, t.Label, t.Value)
	}
	switch t.Base {
	case BaseItem, BaseShipping, BaseSubtotal, BaseOrder:
	default:
		return fmt.Errorf("%w: %q has unknown base %q", ErrInvalidFeeTerm, t.Label, t.Base)
	}
	switch t.Type {
	case FeeTypePercentage:
		if t.Value > 100 {
			return fmt.Errorf("%w: %q percentage %v exceeds 100", ErrInvalidFeeTerm, t.Label, t.Value)
		}
	case FeeTypeFixed:
		if t.Value != math.Trunc(t.Value) {
			return fmt.Errorf("%w: %q fixed amount %v is not a whole minor unit", ErrInvalidFeeTerm, t.Label, t.Value)
		}
	default:
		return fmt.Errorf("%w: %q has unknown type %q", ErrInvalidFeeTerm, t.Label, t.Type)
	}
	return nil
}

// OrderContext carries the per-order amounts fee terms are evaluated against.
type OrderContext struct {
	ItemPrice    int64 `json:"item_price"`
	ShippingCost int64 `json:"shipping_cost"`
	Subtotal     int64 `json:"subtotal"`
}

// NewOrderContext builds an OrderContext with Subtotal = item + shipping.
func NewOrderContext(itemPrice, shippingCost int64) OrderContext {
	return OrderContext{
		ItemPrice:    itemPrice,
		ShippingCost: shippingCost,
		Subtotal:     itemPrice + shippingCost,
	}
}

// Line is one itemised fee.
type Line struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// Breakdown is the result of evaluating a set of fees.
type Breakdown struct {
	Total int64  `json:"total"`
	Lines []Line `json:"lines"`
}

// Add appends other's lines to b and returns the combined breakdown.
func (b Breakdown) Add(other Breakdown) Breakdown {
	lines := make([]Line, 0, len(b.Lines)+len(other.Lines))
	lines = append(lines, b.Lines...)
	lines = append(lines, other.Lines...)
	return Breakdown{Total: b.Total + other.Total, Lines: lines}
}

// Scale multiplies every amount in b by n.
func (b Breakdown) Scale(n int64) Breakdown {
	lines := make([]Line, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = Line{Label: l.Label, Amount: l.Amount * n}
	}
	return Breakdown{Total: b.Total * n, Lines: lines}
}

// Evaluate applies terms to ctx in declared order. Order-based terms see the
// subtotal less every fee accumulated before them, so the evaluation is a
// left-to-right fold rather than an independent sum. Zero-amount terms are
// left out of the breakdown but still evaluated.
func Evaluate(terms []FeeTerm, ctx OrderContext) (Breakdown, error) {
	out := Breakdown{Lines: make([]Line, 0, len(terms))}

	for _, term := range terms {
		if err := term.Validate(); err != nil {
			return Breakdown{}, err
		}

		var amount int64
		switch term.Type {
		case FeeTypeFixed:
			amount = int64(term.Value)
		case FeeTypePercentage:
			amount = currency.Percent(baseAmount(term.Base, ctx, out.Total), term.Value)
		}

		out.Total += amount
		if amount != 0 {
			out.Lines = append(out.Lines, Line{Label: term.Label, Amount: amount})
		}
	}

	return out, nil
}

func baseAmount(base FeeBase, ctx OrderContext, feesSoFar int64) int64 {
	switch base {
	case BaseItem:
		return ctx.ItemPrice
	case BaseShipping:
		return ctx.ShippingCost
	case BaseSubtotal:
		return ctx.Subtotal
	case BaseOrder:
		return ctx.Subtotal - feesSoFar
	}
	return 0
}
