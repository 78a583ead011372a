package importer

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountRequired  = errors.New("amount is required")
	ErrAmountFormat    = errors.New("amount is not a number")
	ErrAmountZero      = errors.New("amount must be non-zero")
	ErrAmountPrecision = errors.New("amount has more decimal places than the currency allows")
	ErrAmountTooLarge  = errors.New("amount is too large")
)

// maxMinorUnits keeps amounts well inside int64 and the NUMERIC column
var maxMinorUnits = decimal.New(1, 15)

// zeroDecimalCurrencies have no minor unit
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"CLP": true,
	"ISK": true,
}

// CurrencyExponent is the number of minor-unit digits for a currency
func CurrencyExponent(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// ParseAmount converts a statement amount into minor units. The returned value
// is always positive; negative reports whether the source carried a sign.
func ParseAmount(raw, currency string) (int64, bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, ErrAmountRequired
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-':
			negative = !negative
		case r == '+', r == ' ', r == '\u00a0', r == '\'':
		case r == '€', r == '$', r == '£':
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			// currency codes such as "EUR 12,00"
		default:
			return 0, false, ErrAmountFormat
		}
	}

	normalized := normalizeSeparators(b.String())
	if normalized == "" {
		return 0, false, ErrAmountFormat
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, false, ErrAmountFormat
	}

	minor := d.Shift(CurrencyExponent(currency))
	if !minor.Equal(minor.Truncate(0)) {
		return 0, false, ErrAmountPrecision
	}
	if minor.IsZero() {
		return 0, false, ErrAmountZero
	}
	if minor.Abs().GreaterThanOrEqual(maxMinorUnits) {
		return 0, false, ErrAmountTooLarge
	}

	return minor.Abs().IntPart(), negative, nil
}

// normalizeSeparators turns grouped or comma-decimal numbers into plain
// dot-decimal form: "1.234,56" and "1,234.56" both become "1234.56"
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}
