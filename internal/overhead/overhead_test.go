package overhead

import (
	"errors"
	"testing"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/calculator"
)

func TestAllocate(t *testing.T) {
	items := []Item{
		{Name: "Studio", Category: CategoryRent, Amount: 45000},
		{Name: "Electricity", Category: CategoryUtilities, Amount: 6000},
		{Name: "Design suite", Category: CategorySoftware, Amount: 2000},
		{Name: "Listing tool", Category: CategorySoftware, Amount: 1000},
		{Name: "Misc", Amount: 500},
	}

	a, err := Allocate(items, 150)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if a.TotalMonthly != 54500 {
		t.Errorf("total monthly = %d, want 54500", a.TotalMonthly)
	}
	if a.TotalYearly != 654000 {
		t.Errorf("total yearly = %d, want 654000", a.TotalYearly)
	}
	// 54500 / 150 = 363.33.
	if a.PerUnit != 363 {
		t.Errorf("per unit = %d, want 363", a.PerUnit)
	}
	if a.ByCategory[CategorySoftware] != 3000 {
		t.Errorf("software = %d, want 3000", a.ByCategory[CategorySoftware])
	}
	if a.ByCategory[CategoryOther] != 500 {
		t.Errorf("uncategorised item not filed under other: %v", a.ByCategory)
	}
}

func TestAllocate_RoundsHalfAwayFromZero(t *testing.T) {
	a, err := Allocate([]Item{{Name: "x", Amount: 5}}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if a.PerUnit != 3 {
		t.Errorf("per unit = %d, want 3", a.PerUnit)
	}
}

func TestAllocate_ZeroSales(t *testing.T) {
	a, err := Allocate([]Item{{Name: "Studio", Category: CategoryRent, Amount: 45000}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if a.PerUnit != 0 {
		t.Errorf("per unit = %d, want 0", a.PerUnit)
	}
	if a.TotalMonthly != 45000 {
		t.Errorf("total monthly = %d, want 45000", a.TotalMonthly)
	}
}

func TestAllocate_Empty(t *testing.T) {
	a, err := Allocate(nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if a.TotalMonthly != 0 || a.PerUnit != 0 || len(a.ByCategory) != 0 {
		t.Errorf("allocation = %+v", a)
	}
}

func TestAllocate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		sales int64
	}{
		{"negative sales", nil, -1},
		{"negative amount", []Item{{Name: "x", Amount: -100}}, 10},
		{"unknown category", []Item{{Name: "x", Category: "payroll", Amount: 100}}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Allocate(tt.items, tt.sales); !errors.Is(err, calculator.ErrInvalidInput) {
				t.Errorf("got %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		profit   int64
		perUnit  int64
		quantity int
		want     Adjusted
	}{
		{"positive", 923, 363, 1, Adjusted{AdjustedProfit: 560, TotalOverhead: 363}},
		{"several units", 2769, 363, 3, Adjusted{AdjustedProfit: 1680, TotalOverhead: 1089}},
		{"goes negative", 100, 363, 1, Adjusted{AdjustedProfit: -263, TotalOverhead: 363}},
		{"no overhead", 500, 0, 4, Adjusted{AdjustedProfit: 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(tt.profit, tt.perUnit, tt.quantity); got != tt.want {
				t.Errorf("Apply = %+v, want %+v", got, tt.want)
			}
		})
	}
}
