package calculator

import "github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/fees"

// Input holds everything needed to price one order line. Money is in minor
// units; rates and margins are percentages.
type Input struct {
	ProductCost        int64              `json:"product_cost"`
	SalePrice          int64              `json:"sale_price"`
	ShippingCost       int64              `json:"shipping_cost"`
	SellerPaysShipping bool               `json:"seller_pays_shipping"`
	Quantity           int                `json:"quantity"`
	Platform           fees.Platform      `json:"platform"`
	CustomFees         []fees.FeeTerm     `json:"custom_fees,omitempty"` // only read for the custom platform
	PaymentMethod      fees.PaymentMethod `json:"payment_method"`
	VATRate            float64            `json:"vat_rate"`
	VATRegistered      bool               `json:"vat_registered"`
	TargetMargin       float64            `json:"target_margin"` // 0 means "target = break-even"
}

// Result is the full profit breakdown for an Input.
type Result struct {
	Revenue   int64 `json:"revenue"`
	TotalCost int64 `json:"total_cost"`

	TotalFees    int64       `json:"total_fees"`
	PlatformFees int64       `json:"platform_fees"`
	PaymentFees  int64       `json:"payment_fees"`
	Fees         []fees.Line `json:"fees"` // itemised, scaled by quantity

	Profit        int64   `json:"profit"`
	ProfitPerUnit int64   `json:"profit_per_unit"`
	Margin        float64 `json:"margin"`

	// BreakEvenPrice is the per-unit sale price at which profit is zero. It
	// is only meaningful when BreakEvenReachable is set; fee percentages that
	// add up to 100% or more leave no such price.
	BreakEvenPrice     int64 `json:"break_even_price"`
	BreakEvenReachable bool  `json:"break_even_reachable"`
	// TargetPrice is the per-unit sale price that reaches TargetMargin, or
	// nil when no price can.
	TargetPrice  *int64  `json:"target_price"`
	TargetMargin float64 `json:"target_margin"`

	// VAT-registered sellers only.
	ReceiptsExVAT int64 `json:"receipts_ex_vat,omitempty"`
	VATAmount     int64 `json:"vat_amount,omitempty"`
	// ShippingVAT is the VAT contained in buyer-paid shipping on platforms
	// that charge VAT on shipping. Reported only; it does not change Profit.
	ShippingVAT int64 `json:"shipping_vat,omitempty"`
}
