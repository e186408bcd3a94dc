package tables

import (
	"fmt"
	"strconv"
	"strings"
)

// UnknownMarker is the SII sentinel for an undisclosed value. It always
// converts to null, never to zero.
const UnknownMarker = "*"

// NumericParser converts SII numeric text into float64 values. Source
// files carry quotation artifacts and locale-specific thousands separators
// ("1.234.567" or "1,234,567" depending on the export).
type NumericParser struct {
	DecimalSeparator   string
	ThousandsSeparator string
}

// NewNumericParser builds a parser for the configured separators. Empty
// separators fall back to "." decimal and "," thousands.
func NewNumericParser(decimal, thousands string) NumericParser {
	if decimal == "" {
		decimal = "."
	}
	if thousands == "" {
		thousands = ","
	}
	return NumericParser{DecimalSeparator: decimal, ThousandsSeparator: thousands}
}

// Parse converts a raw cell string into a float64. The second return is
// false when the value is null (empty or the unknown marker). Unparseable
// text returns an error so callers can decide between coercing to null and
// failing the column.
func (p NumericParser) Parse(raw string) (float64, bool, error) {
	cleaned := strings.ReplaceAll(raw, `"`, "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || cleaned == UnknownMarker {
		return 0, false, nil
	}

	cleaned = strings.ReplaceAll(cleaned, p.ThousandsSeparator, "")
	if p.DecimalSeparator != "." {
		cleaned = strings.ReplaceAll(cleaned, p.DecimalSeparator, ".")
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse numeric %q: %w", raw, err)
	}
	return f, true, nil
}

// NormalizeText trims surrounding whitespace and converts the literal
// string "nan" (a pandas serialization artifact present in older exports)
// to null. The second return is false for null.
func NormalizeText(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "nan" {
		return "", false
	}
	return trimmed, true
}
