package fees

import (
	"fmt"
	"strings"
)

// Platform identifies a marketplace fee schedule.
type Platform string

const (
	PlatformEtsy    Platform = "etsy"
	PlatformEbay    Platform = "ebay"
	PlatformAmazon  Platform = "amazon"
	PlatformShopify Platform = "shopify"
	PlatformTikTok  Platform = "tiktok"
	PlatformCustom  Platform = "custom"
)

// Schedule is a platform's ordered fee terms plus the flags that affect how
// the rest of a calculation treats it.
type Schedule struct {
	Platform Platform  `json:"platform"`
	Name     string    `json:"name"`
	Terms    []FeeTerm `json:"terms"`
	// VATOnShipping is true when the platform charges VAT on the shipping
	// component, which matters for VAT-exclusive reporting.
	VATOnShipping bool `json:"vat_on_shipping"`
	// IncludesPaymentProcessing is true when the schedule already carries the
	// platform's own payment processing terms.
	IncludesPaymentProcessing bool `json:"includes_payment_processing"`
}

var platformOrder = []Platform{PlatformEtsy, PlatformEbay, PlatformAmazon, PlatformShopify, PlatformTikTok, PlatformCustom}

var schedules = map[Platform]Schedule{
	PlatformEtsy: {
		Platform: PlatformEtsy,
		Name:     "Etsy",
		Terms: []FeeTerm{
			{Label: "Transaction fee", Type: FeeTypePercentage, Base: BaseSubtotal, Value: 6.5},
			{Label: "Payment processing", Type: FeeTypePercentage, Base: BaseSubtotal, Value: 4},
			{Label: "Payment processing (fixed)", Type: FeeTypeFixed, Base: BaseSubtotal, Value: 20},
			{Label: "Listing fee", Type: FeeTypeFixed, Base: BaseItem, Value: 15},
		},
		VATOnShipping:             true,
		IncludesPaymentProcessing: true,
	},
	PlatformEbay: {
		Platform: PlatformEbay,
		Name:     "eBay",
		Terms: []FeeTerm{
			{Label: "Final value fee", Type: FeeTypePercentage, Base: BaseSubtotal, Value: 12.8},
			{Label: "Per-order fee", Type: FeeTypeFixed, Base: BaseOrder, Value: 30},
		},
		VATOnShipping:             true,
		IncludesPaymentProcessing: true,
	},
	PlatformAmazon: {
		Platform: PlatformAmazon,
		Name:     "Amazon",
		Terms: []FeeTerm{
			{Label: "Referral fee", Type: FeeTypePercentage, Base: BaseItem, Value: 15},
		},
	},
	PlatformShopify: {
		Platform: PlatformShopify,
		Name:     "Shopify",
		Terms: []FeeTerm{
			{Label: "Shopify Payments", Type: FeeTypePercentage, Base: BaseSubtotal, Value: 2},
			{Label: "Shopify Payments (fixed)", Type: FeeTypeFixed, Base: BaseSubtotal, Value: 25},
		},
		VATOnShipping:             true,
		IncludesPaymentProcessing: true,
	},
	PlatformTikTok: {
		Platform: PlatformTikTok,
		Name:     "TikTok Shop",
		Terms: []FeeTerm{
			{Label: "Referral fee", Type: FeeTypePercentage, Base: BaseSubtotal, Value: 9},
		},
		VATOnShipping:             true,
		IncludesPaymentProcessing: true,
	},
	PlatformCustom: {
		Platform: PlatformCustom,
		Name:     "Custom",
	},
}

// ParsePlatform normalises s and returns the matching Platform.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schedules[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
	return p, nil
}

// LookupSchedule returns the static schedule for p. The returned terms are a
// copy. The custom platform's schedule has no terms; use ScheduleFor to
// supply them.
func LookupSchedule(p Platform) (Schedule, error) {
	s, ok := schedules[p]
	if !ok {
		return Schedule{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, string(p))
	}
	s.Terms = append([]FeeTerm(nil), s.Terms...)
	return s, nil
}

// ScheduleFor resolves the schedule used for a calculation. For the custom
// platform the caller's terms are validated and used; they are ignored for
// every other platform.
func ScheduleFor(p Platform, custom []FeeTerm) (Schedule, error) {
	s, err := LookupSchedule(p)
	if err != nil {
		return Schedule{}, err
	}
	if p != PlatformCustom {
		return s, nil
	}
	if len(custom) == 0 {
		return Schedule{}, fmt.Errorf("%w: custom platform requires fee terms", ErrUnknownPlatform)
	}
	for _, t := range custom {
		if err := t.Validate(); err != nil {
			return Schedule{}, err
		}
	}
	s.Terms = append([]FeeTerm(nil), custom...)
	return s, nil
}

// Platforms returns every configured schedule in display order.
func Platforms() []Schedule {
	out := make([]Schedule, 0, len(platformOrder))
	for _, p := range platformOrder {
		s, _ := LookupSchedule(p)
		out = append(out, s)
	}
	return out
}

// PercentageTotal sums the percentage values of terms. A schedule whose
// percentages reach 100 can never be profitable.
func PercentageTotal(terms []FeeTerm) float64 {
	var total float64
	for _, t := range terms {
		if t.Type == FeeTypePercentage {
			total += t.Value
		}
	}
	return total
}
