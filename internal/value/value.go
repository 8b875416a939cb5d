// Package value defines the runtime value model shared by formulas, variables
// and bricks. A Value is a small tagged union; every coercion between its
// variants is total so that a badly typed formula degrades to a default
// instead of failing a running program.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Tag identifies which variant a Value holds.
type Tag int

const (
	// NumberTag holds a float64.
	NumberTag Tag = iota
	// TextTag holds a string.
	TextTag
	// BoolTag holds a bool.
	BoolTag
)

// String implements fmt.Stringer.
func (t Tag) String() string {
	switch t {
	case NumberTag:
		return "number"
	case TextTag:
		return "text"
	case BoolTag:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is an immutable tagged union of Number, Text and Bool.
// The zero Value is Number 0.
type Value struct {
	tag Tag
	num float64
	str string
	b   bool
}

// Number returns a Number value.
func Number(f float64) Value { return Value{tag: NumberTag, num: f} }

// Text returns a Text value.
func Text(s string) Value { return Value{tag: TextTag, str: s} }

// Bool returns a Bool value.
func Bool(b bool) Value { return Value{tag: BoolTag, b: b} }

// Zero is the default substituted for anything that cannot be evaluated.
var Zero = Number(0)

// Tag returns the variant held by v.
func (v Value) Tag() Tag { return v.tag }

// Number coerces v to a float64. Text yields its leading numeric prefix, or 0
// when there is none.
func (v Value) Number() float64 {
	switch v.tag {
	case TextTag:
		f, _ := parsePrefix(v.str)
		return f
	case BoolTag:
		if v.b {
			return 1
		}
		return 0
	default:
		return v.num
	}
}

// Text coerces v to its string representation.
func (v Value) Text() string {
	switch v.tag {
	case TextTag:
		return v.str
	case BoolTag:
		return strconv.FormatBool(v.b)
	default:
		return FormatNumber(v.num)
	}
}

// Bool coerces v to a bool. Numbers are true when non-zero; NaN is false.
// Text is true for a case-insensitive "true" or a non-zero numeric prefix.
func (v Value) Bool() bool {
	switch v.tag {
	case BoolTag:
		return v.b
	case TextTag:
		s := strings.TrimSpace(v.str)
		if strings.EqualFold(s, "true") {
			return true
		}
		f, ok := parsePrefix(s)
		return ok && f != 0 && !math.IsNaN(f)
	default:
		return v.num != 0 && !math.IsNaN(v.num)
	}
}

// IsNumeric reports whether v can be compared as a number without losing
// information: Numbers and Bools always, Text only when the whole trimmed
// string is a number in the grammar Number reads.
func (v Value) IsNumeric() bool {
	if v.tag != TextTag {
		return true
	}
	s := strings.TrimSpace(v.str)
	_, n := scanNumber(s)
	return n > 0 && n == len(s)
}

// String implements fmt.Stringer.
func (v Value) String() string { return v.Text() }

// Equal reports whether a and b hold the same variant and payload. Unlike
// float comparison, NaN equals NaN so that repeated evaluation of the same
// formula compares equal.
func Equal(a, b Value) bool {
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case TextTag:
		return a.str == b.str
	case BoolTag:
		return a.b == b.b
	default:
		if math.IsNaN(a.num) && math.IsNaN(b.num) {
			return true
		}
		return a.num == b.num
	}
}

// FormatNumber renders f the way users expect to see it on a stage: integral
// values have no fractional part.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// parsePrefix parses the longest leading numeric prefix of s after
// trimming. It reports false when no number was found.
func parsePrefix(s string) (float64, bool) {
	f, n := scanNumber(strings.TrimSpace(s))
	return f, n > 0
}

// specialNumbers are the spellings FormatNumber uses for non-finite values.
var specialNumbers = []struct {
	text string
	val  float64
}{
	{"-Infinity", math.Inf(-1)},
	{"+Infinity", math.Inf(1)},
	{"Infinity", math.Inf(1)},
	{"NaN", math.NaN()},
}

// scanNumber parses a number at the start of s: optional sign, digits, an
// optional fraction and an optional exponent, or one of the non-finite
// spellings. It returns the value and the number of bytes consumed, 0 when
// s does not start with a number.
func scanNumber(s string) (float64, int) {
	for _, sp := range specialNumbers {
		if strings.HasPrefix(s, sp.text) {
			return sp.val, len(sp.text)
		}
	}

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0, 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	// Out of range prefixes parse to ±Inf with a range error.
	f, _ := strconv.ParseFloat(s[:i], 64)
	return f, i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
