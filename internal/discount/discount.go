// Package discount sweeps a range of discount percentages over a sale price
// and reports where the sale stops being profitable.
package discount

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/calculator"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
)

// Range is an inclusive sweep of discount percentages.
type Range struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
	Step float64 `json:"step"`
}

// DefaultRange is 0% to 90% in 5% steps.
var DefaultRange = Range{From: 0, To: 90, Step: 5}

// maxSteps caps the sweep so a tiny step cannot run away.
const maxSteps = 1000

// Step is the outcome at one discount.
type Step struct {
	Discount     float64 `json:"discount"`
	Price        int64   `json:"price"`
	Fees         int64   `json:"fees"`
	Profit       int64   `json:"profit"`
	Margin       float64 `json:"margin"`
	IsProfitable bool    `json:"is_profitable"`
}

// Analysis is the full sweep.
type Analysis struct {
	Steps []Step `json:"steps"`

	// BreakEvenDiscount is the largest swept discount that still makes no
	// loss, or 0 when the undiscounted price already loses money.
	BreakEvenDiscount float64 `json:"break_even_discount"`
	// MaxProfitableDiscount is the largest swept discount whose margin is at
	// least the caller's minimum margin.
	MaxProfitableDiscount float64 `json:"max_profitable_discount"`
	// BoundaryIndex is the first step that is not profitable, or -1.
	BoundaryIndex int `json:"boundary_index"`

	// ExactBreakEvenDiscount is the discount that lands on the break-even
	// price, independent of the step size.
	ExactBreakEvenDiscount float64 `json:"exact_break_even_discount"`
	BreakEvenPrice         int64   `json:"break_even_price"`
	BreakEvenReachable     bool    `json:"break_even_reachable"`
	MinimumMargin          float64 `json:"minimum_margin"`
}

// Validate checks the range bounds.
func (r Range) Validate() error {
	for _, v := range []float64{r.From, r.To, r.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: discount range must be finite", calculator.ErrInvalidInput)
		}
	}
	switch {
	case r.From < 0 || r.To > 100 || r.From > r.To:
		return fmt.Errorf("%w: discount range must satisfy 0 <= from <= to <= 100", calculator.ErrInvalidInput)
	case r.Step <= 0:
		return fmt.Errorf("%w: discount step must be positive", calculator.ErrInvalidInput)
	case (r.To-r.From)/r.Step >= maxSteps:
		return fmt.Errorf("%w: discount range has more than %d steps", calculator.ErrInvalidInput, maxSteps)
	}
	return nil
}

// discounts lists each discount in the range. Values are accumulated in
// decimal so 0.1 steps do not drift.
func (r Range) discounts() []float64 {
	from := decimal.NewFromFloat(r.From)
	to := decimal.NewFromFloat(r.To)
	step := decimal.NewFromFloat(r.Step)

	var out []float64
	for d := from; d.LessThanOrEqual(to); d = d.Add(step) {
		out = append(out, d.InexactFloat64())
	}
	return out
}

// Analyze runs the calculator at in.SalePrice discounted by each step of rng.
// minMargin is the margin, in percent, below which a discount is not
// recommended.
func Analyze(in calculator.Input, rng Range, minMargin float64) (Analysis, error) {
	if err := rng.Validate(); err != nil {
		return Analysis{}, err
	}
	if err := calculator.ValidPercent("minimum margin", minMargin); err != nil {
		return Analysis{}, err
	}
	in.TargetMargin = 0

	base, err := calculator.Calculate(in)
	if err != nil {
		return Analysis{}, err
	}

	a := Analysis{
		BoundaryIndex:      -1,
		BreakEvenPrice:     base.BreakEvenPrice,
		BreakEvenReachable: base.BreakEvenReachable,
		MinimumMargin:      minMargin,
	}
	if base.BreakEvenReachable && in.SalePrice > 0 && base.BreakEvenPrice <= in.SalePrice {
		a.ExactBreakEvenDiscount = 100 - currency.Percentage(base.BreakEvenPrice, in.SalePrice)
	}

	profitableRun, marginRun := true, true
	for _, d := range rng.discounts() {
		stepIn := in
		stepIn.SalePrice = currency.Adjust(in.SalePrice, -d)

		res, err := calculator.Calculate(stepIn)
		if err != nil {
			return Analysis{}, fmt.Errorf("discount %v%%: %w", d, err)
		}

		s := Step{
			Discount:     d,
			Price:        stepIn.SalePrice,
			Fees:         res.TotalFees,
			Profit:       res.Profit,
			Margin:       res.Margin,
			IsProfitable: res.Profit >= 0,
		}

		if !s.IsProfitable && a.BoundaryIndex < 0 {
			a.BoundaryIndex = len(a.Steps)
		}
		profitableRun = profitableRun && s.IsProfitable
		if profitableRun {
			a.BreakEvenDiscount = d
		}
		marginRun = marginRun && s.IsProfitable && s.Margin >= minMargin
		if marginRun {
			a.MaxProfitableDiscount = d
		}

		a.Steps = append(a.Steps, s)
	}
	return a, nil
}
