// Package costing works out what a product costs the seller to make or buy.
//
// A product is either handmade (materials plus labour) or sourced from a
// supplier (a unit cost, possibly with quantity breaks). The two are kept as
// distinct types behind the Product interface and handled exhaustively in
// CalculateCost.
package costing

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
)

// ErrInvalidProduct is returned for negative costs, quantities or rates.
var ErrInvalidProduct = errors.New("invalid product")

// Product is implemented by Handmade and Sourced only.
type Product interface {
	product()
}

// MaterialUse is a quantity of one raw material consumed per unit made.
type MaterialUse struct {
	Name     string  `json:"name"`
	UnitCost int64   `json:"unit_cost"` // per unit of material, minor units
	Quantity float64 `json:"quantity"`
}

// Handmade is a product the seller makes themselves.
type Handmade struct {
	Materials     []MaterialUse `json:"materials"`
	LabourMinutes float64       `json:"labour_minutes"`
	HourlyRate    int64         `json:"hourly_rate"`
	Packaging     int64         `json:"packaging"`
}

// QuantityBreak is a supplier price that applies from MinQuantity units up.
type QuantityBreak struct {
	MinQuantity int   `json:"min_quantity"`
	UnitCost    int64 `json:"unit_cost"`
}

// Sourced is a product bought in from a supplier.
type Sourced struct {
	Supplier       string          `json:"supplier"`
	UnitCost       int64           `json:"unit_cost"`
	QuantityBreaks []QuantityBreak `json:"quantity_breaks,omitempty"`
	Packaging      int64           `json:"packaging"`
}

func (Handmade) product() {}
func (Sourced) product()  {}

// Cost is the per-unit cost of a product split by source.
type Cost struct {
	Material  int64 `json:"material"`
	Labour    int64 `json:"labour"`
	Packaging int64 `json:"packaging"`
	Total     int64 `json:"total"`
}

var sixty = decimal.NewFromInt(60)

// CalculateCost returns the per-unit cost of p. Sourced products are costed
// at their single-unit price; use UnitCostAt for larger orders. Pointers to
// either product type are accepted too.
func CalculateCost(p Product) (Cost, error) {
	switch v := p.(type) {
	case *Handmade:
		if v == nil {
			return Cost{}, fmt.Errorf("%w: no product", ErrInvalidProduct)
		}
		p = *v
	case *Sourced:
		if v == nil {
			return Cost{}, fmt.Errorf("%w: no product", ErrInvalidProduct)
		}
		p = *v
	}

	switch p := p.(type) {
	case Handmade:
		return p.cost()
	case Sourced:
		if err := p.Validate(); err != nil {
			return Cost{}, err
		}
		return Cost{
			Material:  p.UnitCost,
			Packaging: p.Packaging,
			Total:     p.UnitCost + p.Packaging,
		}, nil
	case nil:
		return Cost{}, fmt.Errorf("%w: no product", ErrInvalidProduct)
	default:
		panic(fmt.Sprintf("costing: unhandled product type %T", p))
	}
}

func (h Handmade) cost() (Cost, error) {
	if err := h.Validate(); err != nil {
		return Cost{}, err
	}

	var c Cost
	for _, m := range h.Materials {
		c.Material += currency.Round(decimal.NewFromInt(m.UnitCost).Mul(decimal.NewFromFloat(m.Quantity)))
	}
	c.Labour = currency.Round(decimal.NewFromInt(h.HourlyRate).Mul(decimal.NewFromFloat(h.LabourMinutes)).Div(sixty))
	c.Packaging = h.Packaging
	c.Total = c.Material + c.Labour + c.Packaging
	return c, nil
}

// Validate rejects negative or non-finite values.
func (h Handmade) Validate() error {
	if h.HourlyRate < 0 || h.Packaging < 0 {
		return fmt.Errorf("%w: hourly rate and packaging must not be negative", ErrInvalidProduct)
	}
	if !nonNegative(h.LabourMinutes) {
		return fmt.Errorf("%w: labour minutes must be a non-negative number, got %v", ErrInvalidProduct, h.LabourMinutes)
	}
	for _, m := range h.Materials {
		if m.UnitCost < 0 || !nonNegative(m.Quantity) {
			return fmt.Errorf("%w: material %q has a negative cost or quantity", ErrInvalidProduct, m.Name)
		}
	}
	return nil
}

// Validate rejects negative costs and malformed quantity breaks.
func (s Sourced) Validate() error {
	if s.UnitCost < 0 || s.Packaging < 0 {
		return fmt.Errorf("%w: unit cost and packaging must not be negative", ErrInvalidProduct)
	}
	return ValidateBreaks(s.QuantityBreaks)
}

// ValidateBreaks checks that every break has a positive quantity, a
// non-negative cost, and that no quantity appears twice.
func ValidateBreaks(breaks []QuantityBreak) error {
	seen := make(map[int]bool, len(breaks))
	for _, b := range breaks {
		if b.MinQuantity < 1 {
			return fmt.Errorf("%w: quantity break must start at 1 or more, got %d", ErrInvalidProduct, b.MinQuantity)
		}
		if b.UnitCost < 0 {
			return fmt.Errorf("%w: quantity break at %d has a negative cost", ErrInvalidProduct, b.MinQuantity)
		}
		if seen[b.MinQuantity] {
			return fmt.Errorf("%w: duplicate quantity break at %d", ErrInvalidProduct, b.MinQuantity)
		}
		seen[b.MinQuantity] = true
	}
	return nil
}

// UnitCostAt returns the supplier's unit price when ordering qty units: the
// break with the largest MinQuantity not above qty, or UnitCost if none
// applies.
func (s Sourced) UnitCostAt(qty int) int64 {
	cost, best := s.UnitCost, 0
	for _, b := range s.QuantityBreaks {
		if b.MinQuantity <= qty && b.MinQuantity > best {
			cost, best = b.UnitCost, b.MinQuantity
		}
	}
	return cost
}

// PriceTable returns the supplier's full price table sorted by quantity,
// with the base unit cost at quantity 1 unless a break already covers it.
func (s Sourced) PriceTable() []QuantityBreak {
	out := make([]QuantityBreak, 0, len(s.QuantityBreaks)+1)
	hasOne := false
	for _, b := range s.QuantityBreaks {
		if b.MinQuantity == 1 {
			hasOne = true
		}
		out = append(out, b)
	}
	if !hasOne {
		out = append(out, QuantityBreak{MinQuantity: 1, UnitCost: s.UnitCost})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinQuantity < out[j].MinQuantity })
	return out
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
