package fees

import (
	"fmt"
	"strings"
)

// PaymentMethod identifies an external payment processor, or none.
type PaymentMethod string

const (
	PaymentPlatformIncluded PaymentMethod = "platform_included"
	PaymentPayPal           PaymentMethod = "paypal"
	PaymentStripe           PaymentMethod = "stripe"
	PaymentSquare           PaymentMethod = "square"
	PaymentManual           PaymentMethod = "manual"
)

// PaymentConfig is a processor's fee structure.
type PaymentConfig struct {
	Method        PaymentMethod `json:"method"`
	Name          string        `json:"name"`
	PercentageFee float64       `json:"percentage_fee"`
	FixedFee      int64         `json:"fixed_fee"` // minor units
}

var paymentOrder = []PaymentMethod{PaymentPlatformIncluded, PaymentPayPal, PaymentStripe, PaymentSquare, PaymentManual}

var paymentConfigs = map[PaymentMethod]PaymentConfig{
	PaymentPlatformIncluded: {Method: PaymentPlatformIncluded, Name: "Included in platform fees"},
	PaymentPayPal:           {Method: PaymentPayPal, Name: "PayPal", PercentageFee: 2.9, FixedFee: 30},
	PaymentStripe:           {Method: PaymentStripe, Name: "Stripe", PercentageFee: 1.5, FixedFee: 20},
	PaymentSquare:           {Method: PaymentSquare, Name: "Square", PercentageFee: 1.75},
	PaymentManual:           {Method: PaymentManual, Name: "Manual / bank transfer"},
}

// ParsePaymentMethod normalises s and returns the matching method. An empty
// string is not a method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := paymentConfigs[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, s)
	}
	return m, nil
}

// LookupPaymentMethod returns the fee configuration for m.
func LookupPaymentMethod(m PaymentMethod) (PaymentConfig, error) {
	cfg, ok := paymentConfigs[m]
	if !ok {
		return PaymentConfig{}, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, string(m))
	}
	return cfg, nil
}

// CalculatePaymentFees returns the processor fees charged on orderTotal.
// platform_included and manual never add fees.
func CalculatePaymentFees(orderTotal int64, m PaymentMethod) (Breakdown, error) {
	cfg, err := LookupPaymentMethod(m)
	if err != nil {
		return Breakdown{}, err
	}

	if m == PaymentPlatformIncluded || m == PaymentManual {
		return Breakdown{Lines: []Line{}}, nil
	}

	return Evaluate([]FeeTerm{
		{Label: cfg.Name + " fee", Type: FeeTypePercentage, Base: BaseSubtotal, Value: cfg.PercentageFee},
		{Label: cfg.Name + " fixed fee", Type: FeeTypeFixed, Base: BaseSubtotal, Value: float64(cfg.FixedFee)},
	}, OrderContext{ItemPrice: orderTotal, Subtotal: orderTotal})
}

// PlatformIncludesPaymentProcessing reports whether p's schedule already
// bundles payment processing.
func PlatformIncludesPaymentProcessing(p Platform) (bool, error) {
	s, err := LookupSchedule(p)
	if err != nil {
		return false, err
	}
	return s.IncludesPaymentProcessing, nil
}

// AvailablePaymentMethods lists the methods a seller on p may choose.
// platform_included is only offered when the platform bundles processing.
func AvailablePaymentMethods(p Platform) ([]PaymentConfig, error) {
	included, err := PlatformIncludesPaymentProcessing(p)
	if err != nil {
		return nil, err
	}

	out := make([]PaymentConfig, 0, len(paymentOrder))
	for _, m := range paymentOrder {
		if m == PaymentPlatformIncluded && !included {
			continue
		}
		out = append(out, paymentConfigs[m])
	}
	return out, nil
}
