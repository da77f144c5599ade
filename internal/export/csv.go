package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/batch"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/discount"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/snapshot"
)

// amount renders minor units as a plain major-unit number ("20.00", "1235"),
// which spreadsheets read as numeric.
func amount(minor int64, cfg currency.Config) string {
	return decimal.New(minor, -cfg.DecimalPlaces).StringFixed(cfg.DecimalPlaces)
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteDiscounts writes one row per discount step. It returns the number of
// data rows written.
func WriteDiscounts(w io.Writer, a discount.Analysis, code currency.Code) (int, error) {
	cfg, err := currency.Lookup(code)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	cw.Write([]string{"discount_percent", "price", "fees", "profit", "margin_percent", "profitable"})
	for _, s := range a.Steps {
		cw.Write([]string{
			strconv.FormatFloat(s.Discount, 'f', -1, 64),
			amount(s.Price, cfg),
			amount(s.Fees, cfg),
			amount(s.Profit, cfg),
			percent(s.Margin),
			strconv.FormatBool(s.IsProfitable),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("writing discount csv: %w", err)
	}
	return len(a.Steps), nil
}

// WriteBatch writes one row per tier, flagging the recommended one.
func WriteBatch(w io.Writer, rep batch.Report, code currency.Code) (int, error) {
	cfg, err := currency.Lookup(code)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	cw.Write([]string{"quantity", "unit_cost", "fees_per_unit", "profit_per_unit", "total_profit", "margin_percent", "best"})
	for _, t := range rep.Tiers {
		cw.Write([]string{
			strconv.Itoa(t.Quantity),
			amount(t.UnitCost, cfg),
			amount(t.Fees, cfg),
			amount(t.ProfitPerUnit, cfg),
			amount(t.TotalProfit, cfg),
			percent(t.Margin),
			strconv.FormatBool(t.Quantity == rep.Best.Quantity),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("writing batch csv: %w", err)
	}
	return len(rep.Tiers), nil
}

// WriteSnapshots writes one row per saved calculation, each in its own
// currency.
func WriteSnapshots(w io.Writer, snaps []snapshot.Snapshot) (int, error) {
	cw := csv.NewWriter(w)
	cw.Write([]string{"id", "name", "created_at", "currency", "platform", "quantity", "sale_price", "revenue", "total_cost", "fees", "profit", "margin_percent", "break_even_price"})
	for _, s := range snaps {
		cfg, err := currency.Lookup(s.Currency)
		if err != nil {
			return 0, fmt.Errorf("snapshot %s: %w", s.ID, err)
		}
		breakEven := ""
		if s.Result.BreakEvenReachable {
			breakEven = amount(s.Result.BreakEvenPrice, cfg)
		}
		cw.Write([]string{
			s.ID.String(),
			s.Name,
			s.CreatedAt.UTC().Format(time.RFC3339),
			string(s.Currency),
			string(s.Input.Platform),
			strconv.Itoa(s.Input.Quantity),
			amount(s.Input.SalePrice, cfg),
			amount(s.Result.Revenue, cfg),
			amount(s.Result.TotalCost, cfg),
			amount(s.Result.TotalFees, cfg),
			amount(s.Result.Profit, cfg),
			percent(s.Result.Margin),
			breakEven,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("writing snapshot csv: %w", err)
	}
	return len(snaps), nil
}
