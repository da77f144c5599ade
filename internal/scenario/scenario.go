// Package scenario answers what-if questions: how profit and margin move when
// costs or the sale price change by a percentage.
package scenario

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/calculator"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
)

// Baseline is the starting point for a scenario. The product cost used is
// MaterialCost + LabourCost; when both are zero Input.ProductCost is treated
// as material cost.
type Baseline struct {
	Input        calculator.Input `json:"input"`
	MaterialCost int64            `json:"material_cost"`
	LabourCost   int64            `json:"labour_cost"`
}

// Deltas are relative changes in percent. -20 means a 20% reduction.
type Deltas struct {
	MaterialCost float64 `json:"material_cost"`
	LabourCost   float64 `json:"labour_cost"`
	ShippingCost float64 `json:"shipping_cost"`
	SalePrice    float64 `json:"sale_price"`
}

// IsZero reports whether d changes nothing.
func (d Deltas) IsZero() bool {
	return d == Deltas{}
}

// Validate rejects non-finite deltas and reductions beyond 100%.
func (d Deltas) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"material cost", d.MaterialCost},
		{"labour cost", d.LabourCost},
		{"shipping cost", d.ShippingCost},
		{"sale price", d.SalePrice},
	} {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) || c.v < -100 {
			return fmt.Errorf("%w: %s change must be a number no lower than -100, got %v", calculator.ErrInvalidInput, c.name, c.v)
		}
	}
	return nil
}

// Result compares a perturbed calculation with its baseline.
type Result struct {
	Calculation calculator.Result `json:"calculation"`

	NewSalePrice    int64 `json:"new_sale_price"`
	NewProductCost  int64 `json:"new_product_cost"`
	NewShippingCost int64 `json:"new_shipping_cost"`

	Profit     int64   `json:"profit"`
	Margin     float64 `json:"margin"`
	BaseProfit int64   `json:"base_profit"`
	BaseMargin float64 `json:"base_margin"`

	ProfitChange int64   `json:"profit_change"`
	MarginChange float64 `json:"margin_change"` // percentage points
}

// costs returns the baseline material and labour split.
func (b Baseline) costs() (material, labour int64) {
	if b.MaterialCost == 0 && b.LabourCost == 0 {
		return b.Input.ProductCost, 0
	}
	return b.MaterialCost, b.LabourCost
}

// Validate checks the cost split; the input itself is checked by the
// calculator.
func (b Baseline) Validate() error {
	if b.MaterialCost < 0 || b.LabourCost < 0 {
		return fmt.Errorf("%w: material and labour costs must not be negative", calculator.ErrInvalidInput)
	}
	return nil
}

// Evaluate applies d to base and recalculates.
func Evaluate(base Baseline, d Deltas) (Result, error) {
	if err := base.Validate(); err != nil {
		return Result{}, err
	}
	if err := d.Validate(); err != nil {
		return Result{}, err
	}

	material, labour := base.costs()
	baseIn := base.Input
	baseIn.ProductCost = material + labour

	baseRes, err := calculator.Calculate(baseIn)
	if err != nil {
		return Result{}, err
	}

	in := baseIn
	in.ProductCost = currency.Adjust(material, d.MaterialCost) + currency.Adjust(labour, d.LabourCost)
	in.ShippingCost = currency.Adjust(baseIn.ShippingCost, d.ShippingCost)
	in.SalePrice = currency.Adjust(baseIn.SalePrice, d.SalePrice)

	res, err := calculator.Calculate(in)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Calculation:     res,
		NewSalePrice:    in.SalePrice,
		NewProductCost:  in.ProductCost,
		NewShippingCost: in.ShippingCost,
		Profit:          res.Profit,
		Margin:          res.Margin,
		BaseProfit:      baseRes.Profit,
		BaseMargin:      baseRes.Margin,
		ProfitChange:    res.Profit - baseRes.Profit,
		MarginChange:    decimal.NewFromFloat(res.Margin).Sub(decimal.NewFromFloat(baseRes.Margin)).InexactFloat64(),
	}, nil
}
