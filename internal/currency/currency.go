// Package currency holds the static configuration for the ten currencies a
// seller can price in, plus minor/major unit conversion and the single
// rounding rule every money computation in this module goes through.
package currency

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnsupportedCurrency is returned for any code outside the supported set.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// ErrInvalidAmount is returned when a major-unit amount is NaN or infinite.
var ErrInvalidAmount = errors.New("invalid amount")

// Code is an ISO 4217 currency code.
type Code string

// Supported currencies.
const (
	GBP Code = "GBP"
	USD Code = "USD"
	EUR Code = "EUR"
	CAD Code = "CAD"
	AUD Code = "AUD"
	JPY Code = "JPY"
	CHF Code = "CHF"
	SEK Code = "SEK"
	NOK Code = "NOK"
	DKK Code = "DKK"
)

// Config is the immutable configuration of a single currency.
type Config struct {
	Code          Code    `json:"code"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Locale        string  `json:"locale"`
	DecimalPlaces int32   `json:"decimal_places"`
	VATRate       float64 `json:"vat_rate"`      // standard VAT/GST rate, percent
	VATThreshold  int64   `json:"vat_threshold"` // registration threshold, minor units
	SymbolAfter   bool    `json:"symbol_after"`  // "12,50 €" rather than "€12,50"
}

// order is the display order used by Supported.
var order = []Code{GBP, USD, EUR, CAD, AUD, JPY, CHF, SEK, NOK, DKK}

var configs = map[Code]Config{
	GBP: {Code: GBP, Symbol: "£", Name: "British Pound", Locale: "en-GB", DecimalPlaces: 2, VATRate: 20, VATThreshold: 9_000_000},
	USD: {Code: USD, Symbol: "$", Name: "US Dollar", Locale: "en-US", DecimalPlaces: 2, VATRate: 0, VATThreshold: 0},
	EUR: {Code: EUR, Symbol: "€", Name: "Euro", Locale: "de-DE", DecimalPlaces: 2, VATRate: 20, VATThreshold: 1_000_000, SymbolAfter: true},
	CAD: {Code: CAD, Symbol: "CA$", Name: "Canadian Dollar", Locale: "en-CA", DecimalPlaces: 2, VATRate: 5, VATThreshold: 3_000_000},
	AUD: {Code: AUD, Symbol: "A$", Name: "Australian Dollar", Locale: "en-AU", DecimalPlaces: 2, VATRate: 10, VATThreshold: 7_500_000},
	JPY: {Code: JPY, Symbol: "¥", Name: "Japanese Yen", Locale: "ja-JP", DecimalPlaces: 0, VATRate: 10, VATThreshold: 10_000_000},
	CHF: {Code: CHF, Symbol: "CHF", Name: "Swiss Franc", Locale: "de-CH", DecimalPlaces: 2, VATRate: 8.1, VATThreshold: 10_000_000},
	SEK: {Code: SEK, Symbol: "kr", Name: "Swedish Krona", Locale: "sv-SE", DecimalPlaces: 2, VATRate: 25, VATThreshold: 12_000_000, SymbolAfter: true},
	NOK: {Code: NOK, Symbol: "kr", Name: "Norwegian Krone", Locale: "nb-NO", DecimalPlaces: 2, VATRate: 25, VATThreshold: 5_000_000, SymbolAfter: true},
	DKK: {Code: DKK, Symbol: "kr.", Name: "Danish Krone", Locale: "da-DK", DecimalPlaces: 2, VATRate: 25, VATThreshold: 5_000_000, SymbolAfter: true},
}

// Lookup returns the configuration for code.
func Lookup(code Code) (Config, error) {
	cfg, ok := configs[code]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, string(code))
	}
	return cfg, nil
}

// Parse normalises s (case and surrounding whitespace) and returns the
// matching Code.
func Parse(s string) (Code, error) {
	code := Code(strings.ToUpper(strings.TrimSpace(s)))
	if _, err := Lookup(code); err != nil {
		return "", err
	}
	return code, nil
}

// Supported returns every currency configuration in display order.
func Supported() []Config {
	out := make([]Config, 0, len(order))
	for _, code := range order {
		out = append(out, configs[code])
	}
	return out
}

// ToMinorUnits converts a major-unit amount (e.g. 12.34 pounds) to minor
// units (1234 pence), rounding half away from zero. The float is read as its
// shortest decimal representation, so 1.005 becomes 101, not 100.
func ToMinorUnits(major float64, code Code) (int64, error) {
	cfg, err := Lookup(code)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(major) || math.IsInf(major, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, major)
	}
	return Round(decimal.NewFromFloat(major).Shift(cfg.DecimalPlaces)), nil
}

// ToMajorUnits converts minor units back to a major-unit amount.
func ToMajorUnits(minor int64, code Code) (float64, error) {
	cfg, err := Lookup(code)
	if err != nil {
		return 0, err
	}
	return decimal.New(minor, -cfg.DecimalPlaces).InexactFloat64(), nil
}
