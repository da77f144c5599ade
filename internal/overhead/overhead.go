// Package overhead spreads recurring monthly costs over expected sales.
package overhead

import (
	"fmt"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/calculator"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
)

// Category groups overhead items for reporting.
type Category string

const (
	CategoryRent      Category = "rent"
	CategoryUtilities Category = "utilities"
	CategorySoftware  Category = "software"
	CategoryInsurance Category = "insurance"
	CategoryMarketing Category = "marketing"
	CategoryOther     Category = "other"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryRent, CategoryUtilities, CategorySoftware, CategoryInsurance, CategoryMarketing, CategoryOther}
}

// Item is one recurring monthly cost.
type Item struct {
	Name     string   `json:"name"`
	Category Category `json:"category,omitempty"` // empty means other
	Amount   int64    `json:"amount"`
}

// Allocation is the result of Allocate.
type Allocation struct {
	TotalMonthly int64              `json:"total_monthly"`
	TotalYearly  int64              `json:"total_yearly"`
	PerUnit      int64              `json:"per_unit"` // 0 when no sales are expected
	ByCategory   map[Category]int64 `json:"by_category"`
}

// Allocate totals items and divides the monthly total across
// estimatedMonthlySales units.
func Allocate(items []Item, estimatedMonthlySales int64) (Allocation, error) {
	if estimatedMonthlySales < 0 {
		return Allocation{}, fmt.Errorf("%w: estimated monthly sales must not be negative", calculator.ErrInvalidInput)
	}

	a := Allocation{ByCategory: make(map[Category]int64)}
	for _, it := range items {
		if it.Amount < 0 {
			return Allocation{}, fmt.Errorf("%w: overhead %q has a negative amount", calculator.ErrInvalidInput, it.Name)
		}
		cat, err := category(it.Category)
		if err != nil {
			return Allocation{}, err
		}
		a.TotalMonthly += it.Amount
		a.ByCategory[cat] += it.Amount
	}
	a.TotalYearly = a.TotalMonthly * 12
	a.PerUnit = currency.Ratio(a.TotalMonthly, estimatedMonthlySales)
	return a, nil
}

func category(c Category) (Category, error) {
	if c == "" {
		return CategoryOther, nil
	}
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown overhead category %q", calculator.ErrInvalidInput, c)
}

// Adjusted is a profit figure with overhead taken off.
type Adjusted struct {
	AdjustedProfit int64 `json:"adjusted_profit"`
	TotalOverhead  int64 `json:"total_overhead"`
}

// Apply subtracts perUnit overhead for quantity units from baseProfit. The
// result may be negative.
func Apply(baseProfit, perUnit int64, quantity int) Adjusted {
	total := perUnit * int64(quantity)
	return Adjusted{
		AdjustedProfit: baseProfit - total,
		TotalOverhead:  total,
	}
}
