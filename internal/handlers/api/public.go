package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/batch"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/calculator"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/costing"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/discount"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/fees"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/overhead"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/scenario"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/settings"
)

// PublicHandler serves the stateless calculation endpoints. None of them
// need a user.
type PublicHandler struct {
	defaultCurrency currency.Code
	logger          *slog.Logger
}

// NewPublicHandler creates a handler that prices requests without a
// currency in defaultCurrency.
func NewPublicHandler(defaultCurrency currency.Code, logger *slog.Logger) *PublicHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicHandler{defaultCurrency: defaultCurrency, logger: logger}
}

// RegisterRoutes registers all public API routes on the given mux.
func (h *PublicHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/currencies", h.ListCurrencies)
	mux.HandleFunc("GET /api/v1/platforms", h.ListPlatforms)
	mux.HandleFunc("GET /api/v1/platforms/{platform}/payment-methods", h.ListPaymentMethods)
	mux.HandleFunc("POST /api/v1/settings", h.ResolveSettings)
	mux.HandleFunc("POST /api/v1/calculate", h.Calculate)
	mux.HandleFunc("POST /api/v1/discounts", h.Discounts)
	mux.HandleFunc("POST /api/v1/batch", h.Batch)
	mux.HandleFunc("POST /api/v1/overhead", h.Overhead)
	mux.HandleFunc("POST /api/v1/scenarios", h.Scenario)
	mux.HandleFunc("GET /api/v1/scenarios/presets", h.ListPresets)
	mux.HandleFunc("POST /api/v1/scenarios/presets", h.EvaluatePresets)
	mux.HandleFunc("POST /api/v1/costs", h.Cost)
}

// --- Request types ---

// pricingRequest is the body shared by every endpoint that prices an Input.
// Input fields sit at the top level next to currency and settings. When
// settings are present they decide vat_rate and vat_registered.
type pricingRequest struct {
	Currency currency.Code      `json:"currency"`
	Settings *settings.Settings `json:"settings,omitempty"`
	calculator.Input
}

// resolve returns the request's currency and its input with any settings
// applied.
func (p pricingRequest) resolve(fallback currency.Code) (currency.Code, calculator.Input, error) {
	code, err := resolveCurrency(p.Currency, fallback)
	if err != nil {
		return "", calculator.Input{}, err
	}
	in := p.Input
	if p.Settings != nil {
		s := *p.Settings
		if s.Currency == "" {
			s.Currency = code
		}
		if err := s.Apply(&in); err != nil {
			return "", calculator.Input{}, err
		}
	}
	return code, in, nil
}

// minimumMargin is the request's settings minimum margin, or 0.
func (p pricingRequest) minimumMargin() float64 {
	if p.Settings == nil {
		return 0
	}
	return p.Settings.MinimumMargin
}

func resolveCurrency(code, fallback currency.Code) (currency.Code, error) {
	if code == "" {
		code = fallback
	}
	return currency.Parse(string(code))
}

type discountRequest struct {
	pricingRequest
	Range         *discount.Range `json:"range,omitempty"`
	MinimumMargin *float64        `json:"minimum_margin,omitempty"`
}

func (d discountRequest) analyze(fallback currency.Code) (currency.Code, discount.Analysis, error) {
	code, in, err := d.resolve(fallback)
	if err != nil {
		return "", discount.Analysis{}, err
	}
	rng := discount.DefaultRange
	if d.Range != nil {
		rng = *d.Range
	}
	minMargin := d.minimumMargin()
	if d.MinimumMargin != nil {
		minMargin = *d.MinimumMargin
	}
	a, err := discount.Analyze(in, rng, minMargin)
	return code, a, err
}

type batchRequest struct {
	pricingRequest
	QuantityBreaks    []costing.QuantityBreak `json:"quantity_breaks,omitempty"`
	Sourced           *costing.Sourced        `json:"sourced,omitempty"`
	FixedCostsPerUnit int64                   `json:"fixed_costs_per_unit"`
}

func (b batchRequest) compute(fallback currency.Code) (currency.Code, batch.Report, error) {
	code, in, err := b.resolve(fallback)
	if err != nil {
		return "", batch.Report{}, err
	}
	var rep batch.Report
	if b.Sourced != nil {
		rep, err = batch.ComputeSourced(in, *b.Sourced, b.FixedCostsPerUnit)
	} else {
		rep, err = batch.Compute(in, b.QuantityBreaks, b.FixedCostsPerUnit)
	}
	return code, rep, err
}

// --- JSON response types ---

// calculationJSON is a calculator.Result with display strings for the headline
// amounts.
type calculationJSON struct {
	Currency currency.Code `json:"currency"`
	calculator.Result
	Display calculationDisplay `json:"display"`
}

type calculationDisplay struct {
	Revenue        string  `json:"revenue"`
	TotalCost      string  `json:"total_cost"`
	TotalFees      string  `json:"total_fees"`
	Profit         string  `json:"profit"`
	ProfitPerUnit  string  `json:"profit_per_unit"`
	BreakEvenPrice *string `json:"break_even_price"`
	TargetPrice    *string `json:"target_price"`
}

func newCalculationJSON(code currency.Code, res calculator.Result) calculationJSON {
	out := calculationJSON{
		Currency: code,
		Result:   res,
		Display: calculationDisplay{
			Revenue:       currency.Display(res.Revenue, code),
			TotalCost:     currency.Display(res.TotalCost, code),
			TotalFees:     currency.Display(res.TotalFees, code),
			Profit:        currency.Display(res.Profit, code),
			ProfitPerUnit: currency.Display(res.ProfitPerUnit, code),
		},
	}
	if res.BreakEvenReachable {
		s := currency.Display(res.BreakEvenPrice, code)
		out.Display.BreakEvenPrice = &s
	}
	if res.TargetPrice != nil {
		s := currency.Display(*res.TargetPrice, code)
		out.Display.TargetPrice = &s
	}
	return out
}

type discountJSON struct {
	Currency currency.Code `json:"currency"`
	discount.Analysis
	BreakEvenPriceDisplay string `json:"break_even_price_display,omitempty"`
}

type batchJSON struct {
	Currency currency.Code `json:"currency"`
	batch.Report
	BestTotalProfitDisplay string `json:"best_total_profit_display"`
}

type overheadRequest struct {
	Currency              currency.Code   `json:"currency"`
	Items                 []overhead.Item `json:"items"`
	EstimatedMonthlySales int64           `json:"estimated_monthly_sales"`
	// BaseProfit and Quantity, when given, also return the profit with
	// overhead deducted.
	BaseProfit *int64 `json:"base_profit,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
}

type overheadJSON struct {
	Currency currency.Code `json:"currency"`
	overhead.Allocation
	PerUnitDisplay string             `json:"per_unit_display"`
	Adjusted       *overhead.Adjusted `json:"adjusted,omitempty"`
}

type scenarioRequest struct {
	Currency     currency.Code      `json:"currency"`
	Settings     *settings.Settings `json:"settings,omitempty"`
	Input        calculator.Input   `json:"input"`
	MaterialCost int64              `json:"material_cost"`
	LabourCost   int64              `json:"labour_cost"`
	Deltas       scenario.Deltas    `json:"deltas"`
}

func (s scenarioRequest) baseline(fallback currency.Code) (currency.Code, scenario.Baseline, error) {
	code, in, err := pricingRequest{Currency: s.Currency, Settings: s.Settings, Input: s.Input}.resolve(fallback)
	if err != nil {
		return "", scenario.Baseline{}, err
	}
	return code, scenario.Baseline{Input: in, MaterialCost: s.MaterialCost, LabourCost: s.LabourCost}, nil
}

type scenarioJSON struct {
	Currency currency.Code `json:"currency"`
	scenario.Result
	ProfitChangeDisplay string `json:"profit_change_display"`
}

type costRequest struct {
	Currency currency.Code `json:"currency"`
	costing.Envelope
}

type costJSON struct {
	Currency currency.Code `json:"currency"`
	costing.Cost
	TotalDisplay string `json:"total_display"`
	// PriceTable is the supplier's effective unit cost by quantity; sourced
	// products only.
	PriceTable []costing.QuantityBreak `json:"price_table,omitempty"`
}

type settingsRequest struct {
	settings.Settings
	// AnnualTurnover, when given, is checked against the VAT registration
	// threshold.
	AnnualTurnover *int64 `json:"annual_turnover,omitempty"`
}

type settingsJSON struct {
	settings.Settings
	VATThreshold            int64 `json:"vat_threshold"`
	VATRegistrationRequired *bool `json:"vat_registration_required,omitempty"`
}

// --- Handlers ---

// Health reports that the process is serving.
func (h *PublicHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListCurrencies returns every supported currency configuration.
func (h *PublicHandler) ListCurrencies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": currency.Supported()})
}

// ListPlatforms returns every built-in fee schedule.
func (h *PublicHandler) ListPlatforms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": fees.Platforms()})
}

// ListPaymentMethods returns the payment methods a seller on the path's
// platform may choose.
func (h *PublicHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	p, err := fees.ParsePlatform(r.PathValue("platform"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	methods, err := fees.AvailablePaymentMethods(p)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": methods})
}

// ResolveSettings validates seller settings, fills in the currency's
// standard VAT rate and optionally checks the VAT registration threshold.
func (h *PublicHandler) ResolveSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	code, err := resolveCurrency(req.Currency, h.defaultCurrency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.Currency = code

	resolved, err := req.Settings.Resolve()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	cfg, err := currency.Lookup(code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := settingsJSON{Settings: resolved, VATThreshold: cfg.VATThreshold}
	if req.AnnualTurnover != nil {
		required, err := resolved.VATRegistrationRequired(*req.AnnualTurnover)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		out.VATRegistrationRequired = &required
	}
	writeJSON(w, http.StatusOK, out)
}

// Calculate prices one order line.
func (h *PublicHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req pricingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	code, in, err := req.resolve(h.defaultCurrency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := calculator.Calculate(in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalculationJSON(code, res))
}

// Discounts sweeps a range of discounts off the sale price.
func (h *PublicHandler) Discounts(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	code, a, err := req.analyze(h.defaultCurrency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := discountJSON{Currency: code, Analysis: a}
	if a.BreakEvenReachable {
		out.BreakEvenPriceDisplay = currency.Display(a.BreakEvenPrice, code)
	}
	writeJSON(w, http.StatusOK, out)
}

// Batch compares supplier quantity breaks.
func (h *PublicHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	code, rep, err := req.compute(h.defaultCurrency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, batchJSON{
		Currency:               code,
		Report:                 rep,
		BestTotalProfitDisplay: currency.Display(rep.Best.TotalProfit, code),
	})
}

// Overhead allocates monthly running costs across expected sales.
func (h *PublicHandler) Overhead(w http.ResponseWriter, r *http.Request) {
	var req overheadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	code, err := resolveCurrency(req.Currency, h.defaultCurrency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	a, err := overhead.Allocate(req.Items, req.EstimatedMonthlySales)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := overheadJSON{Currency: code, Allocation: a, PerUnitDisplay: currency.Display(a.PerUnit, code)}
	if req.BaseProfit != nil {
		qty := req.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			writeError(w, r, h.logger, fmt.Errorf("%w: quantity must not be negative", calculator.ErrInvalidInput))
			return
		}
		adj := overhead.Apply(*req.BaseProfit, a.PerUnit, qty)
		out.Adjusted = &adj
	}
	writeJSON(w, http.StatusOK, out)
}

// Scenario evaluates one what-if against a baseline.
func (h *PublicHandler) Scenario(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	code, base, err := req.baseline(h.defaultCurrency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := scenario.Evaluate(base, req.Deltas)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scenarioJSON{
		Currency:            code,
		Result:              res,
		ProfitChangeDisplay: currency.Display(res.ProfitChange, code),
	})
}

// ListPresets returns the built-in scenario presets.
func (h *PublicHandler) ListPresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": scenario.Presets()})
}

// EvaluatePresets runs every preset against the request's baseline. The
// request's deltas are ignored.
func (h *PublicHandler) EvaluatePresets(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	code, base, err := req.baseline(h.defaultCurrency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	results, err := scenario.EvaluatePresets(base)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"currency": code, "data": results})
}

// Cost works out the per-unit cost of a handmade or sourced product.
func (h *PublicHandler) Cost(w http.ResponseWriter, r *http.Request) {
	var req costRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	code, err := resolveCurrency(req.Currency, h.defaultCurrency)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := req.Decode()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	cost, err := costing.CalculateCost(p)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := costJSON{Currency: code, Cost: cost, TotalDisplay: currency.Display(cost.Total, code)}
	if s, ok := p.(costing.Sourced); ok {
		out.PriceTable = s.PriceTable()
	}
	writeJSON(w, http.StatusOK, out)
}
