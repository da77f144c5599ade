package currency

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Format renders minor units as a display string in the currency's locale,
// e.g. "£1,234.56", "¥1,235" or "1.234,56 €". It never alters the amount.
func Format(minor int64, code Code) (string, error) {
	cfg, err := Lookup(code)
	if err != nil {
		return "", err
	}

	negative := minor < 0
	if negative {
		minor = -minor
	}
	major, _ := ToMajorUnits(minor, code)

	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	digits := p.Sprint(number.Decimal(major, number.Scale(int(cfg.DecimalPlaces))))

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	switch {
	case cfg.SymbolAfter:
		b.WriteString(digits)
		b.WriteString(" ")
		b.WriteString(cfg.Symbol)
	case len(cfg.Symbol) > 1 && cfg.Symbol == string(cfg.Code):
		// Code-style symbols ("CHF") read better with a space.
		b.WriteString(cfg.Symbol)
		b.WriteString(" ")
		b.WriteString(digits)
	default:
		b.WriteString(cfg.Symbol)
		b.WriteString(digits)
	}
	return b.String(), nil
}

// Display is Format for callers that have already validated code. An
// unsupported code yields the bare minor-unit amount.
func Display(minor int64, code Code) string {
	s, err := Format(minor, code)
	if err != nil {
		return strconv.FormatInt(minor, 10)
	}
	return s
}
