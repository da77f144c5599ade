// Package settings holds a seller's pricing preferences. They are passed
// explicitly to each calculation; nothing here is process-wide.
package settings

import (
	"fmt"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/calculator"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
)

// Settings are a seller's preferences.
type Settings struct {
	Currency      currency.Code `json:"currency"`
	VATRegistered bool          `json:"vat_registered"`
	// VATRate overrides the currency's standard rate when set.
	VATRate       *float64 `json:"vat_rate,omitempty"`
	TargetMargin  float64  `json:"target_margin"`
	MinimumMargin float64  `json:"minimum_margin"`
}

// Defaults returns settings for code using its standard VAT rate.
func Defaults(code currency.Code) (Settings, error) {
	return Settings{Currency: code}.Resolve()
}

// Resolve validates s and fills in the currency's standard VAT rate when
// none is set.
func (s Settings) Resolve() (Settings, error) {
	cfg, err := currency.Lookup(s.Currency)
	if err != nil {
		return Settings{}, err
	}
	if s.VATRate == nil {
		rate := cfg.VATRate
		s.VATRate = &rate
	}
	if err := calculator.ValidPercent("VAT rate", *s.VATRate); err != nil {
		return Settings{}, err
	}
	if err := calculator.ValidPercent("target margin", s.TargetMargin); err != nil {
		return Settings{}, err
	}
	if s.TargetMargin >= 100 {
		return Settings{}, fmt.Errorf("%w: target margin must be below 100%%", calculator.ErrInvalidInput)
	}
	if err := calculator.ValidPercent("minimum margin", s.MinimumMargin); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Apply copies the VAT treatment into in, and the target margin when in
// does not set its own.
//
// VAT treatment always comes from the settings: VATRate and VATRegistered on
// in are overwritten. A zero rate or an unregistered seller are real choices,
// so there is no unset value on in to leave alone. Callers that want a
// per-request rate set Settings.VATRate instead.
func (s Settings) Apply(in *calculator.Input) error {
	r, err := s.Resolve()
	if err != nil {
		return err
	}
	in.VATRate = *r.VATRate
	in.VATRegistered = r.VATRegistered
	if in.TargetMargin == 0 {
		in.TargetMargin = r.TargetMargin
	}
	return nil
}

// VATRegistrationRequired reports whether annualTurnover, in minor units,
// reaches the registration threshold for the seller's currency. Currencies
// without a threshold never require registration.
func (s Settings) VATRegistrationRequired(annualTurnover int64) (bool, error) {
	cfg, err := currency.Lookup(s.Currency)
	if err != nil {
		return false, err
	}
	return cfg.VATThreshold > 0 && annualTurnover >= cfg.VATThreshold, nil
}
