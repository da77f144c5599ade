package costing

import (
	"encoding/json"
	"fmt"
)

// Kind tags a Product on the wire.
type Kind string

const (
	KindHandmade Kind = "handmade"
	KindSourced  Kind = "sourced"
)

// Envelope is the JSON form of a Product:
//
//	{"type": "handmade", "product": {...}}
type Envelope struct {
	Type    Kind            `json:"type"`
	Product json.RawMessage `json:"product"`
}

// Decode unpacks the envelope into a Handmade or Sourced value.
func (e Envelope) Decode() (Product, error) {
	switch e.Type {
	case KindHandmade:
		var h Handmade
		if err := json.Unmarshal(e.Product, &h); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProduct, err)
		}
		return h, nil
	case KindSourced:
		var s Sourced
		if err := json.Unmarshal(e.Product, &s); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProduct, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown product type %q", ErrInvalidProduct, e.Type)
	}
}
