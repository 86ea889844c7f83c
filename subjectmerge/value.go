package subjectmerge

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindEmpty marks a blank cell.
	KindEmpty Kind = iota
	// KindNumber marks a finite floating point metric.
	KindNumber
	// KindText marks a value that did not parse as a number.
	KindText
)

// Value is a single table cell: a number, a text or nothing.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Empty returns the blank value.
func Empty() Value { return Value{} }

// Number wraps a float as a Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text wraps a string as a Value. The empty string becomes Empty.
func Text(s string) Value {
	if s == "" {
		return Empty()
	}
	return Value{kind: KindText, text: s}
}

// Coerce trims raw and converts it to a Number when the whole string is a
// finite number, otherwise keeps it as Text.
func Coerce(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Empty()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Number(f)
	}
	return Text(s)
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is blank.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Float returns the numeric payload and whether v is a number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// String renders the cell for CSV output and previews.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.num)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// formatNumber writes plain decimals for ordinary magnitudes and switches to
// exponent form at 1e21 and above or below 1e-6.
func formatNumber(f float64) string {
	if abs := math.Abs(f); abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
