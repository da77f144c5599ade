// Package batch compares profit across a supplier's quantity-break tiers.
package batch

import (
	"fmt"
	"sort"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/calculator"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/costing"
)

// Tier is the outcome of buying stock at one quantity break and selling each
// unit at the input's sale price.
type Tier struct {
	Quantity      int     `json:"quantity"`
	UnitCost      int64   `json:"unit_cost"` // supplier cost plus fixed costs per unit
	ProfitPerUnit int64   `json:"profit_per_unit"`
	TotalProfit   int64   `json:"total_profit"`
	Margin        float64 `json:"margin"`
	Fees          int64   `json:"fees"` // per unit
}

// Report lists every tier in ascending quantity order and the recommended one.
type Report struct {
	Tiers []Tier `json:"tiers"`
	Best  Tier   `json:"best"`
}

// Compute prices one unit of in at each break's unit cost plus
// fixedCostsPerUnit. in.ProductCost and in.Quantity are ignored.
//
// Best is the tier with the highest margin; among equal margins the smallest
// quantity wins.
func Compute(in calculator.Input, breaks []costing.QuantityBreak, fixedCostsPerUnit int64) (Report, error) {
	if len(breaks) == 0 {
		return Report{}, fmt.Errorf("%w: at least one quantity break is required", calculator.ErrInvalidInput)
	}
	if fixedCostsPerUnit < 0 {
		return Report{}, fmt.Errorf("%w: fixed costs per unit must not be negative", calculator.ErrInvalidInput)
	}
	if err := costing.ValidateBreaks(breaks); err != nil {
		return Report{}, fmt.Errorf("%w: %w", calculator.ErrInvalidInput, err)
	}

	sorted := append([]costing.QuantityBreak(nil), breaks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinQuantity < sorted[j].MinQuantity })

	rep := Report{Tiers: make([]Tier, 0, len(sorted))}
	for i, b := range sorted {
		unitIn := in
		unitIn.ProductCost = b.UnitCost + fixedCostsPerUnit
		unitIn.Quantity = 1
		unitIn.TargetMargin = 0

		res, err := calculator.Calculate(unitIn)
		if err != nil {
			return Report{}, fmt.Errorf("tier %d: %w", b.MinQuantity, err)
		}

		t := Tier{
			Quantity:      b.MinQuantity,
			UnitCost:      unitIn.ProductCost,
			ProfitPerUnit: res.Profit,
			TotalProfit:   res.Profit * int64(b.MinQuantity),
			Margin:        res.Margin,
			Fees:          res.TotalFees,
		}
		rep.Tiers = append(rep.Tiers, t)

		// Ascending order means a strict comparison keeps the smallest
		// quantity on ties.
		if i == 0 || t.Margin > rep.Best.Margin {
			rep.Best = t
		}
	}
	return rep, nil
}

// ComputeSourced runs Compute over a sourced product's full price table,
// adding its packaging to the fixed costs.
func ComputeSourced(in calculator.Input, p costing.Sourced, fixedCostsPerUnit int64) (Report, error) {
	if err := p.Validate(); err != nil {
		return Report{}, fmt.Errorf("%w: %w", calculator.ErrInvalidInput, err)
	}
	return Compute(in, p.PriceTable(), fixedCostsPerUnit+p.Packaging)
}
