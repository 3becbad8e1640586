// Package fields converts raw source scalars into storable profile values.
//
// Source records are loosely typed: the same attribute may arrive as a string,
// a number or nil depending on the source. The conversions here are total:
// malformed input normalizes to an absent value or a zero, never an error.
package fields

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FursAndrey/staffsync/pkg/constants"
)

// Conversion selects how a raw source value becomes a stored value.
type Conversion int

const (
	// AsString stores the value's string form.
	AsString Conversion = iota
	// AsInt stores the value coerced to an integer.
	AsInt
	// AsDate stores the value only when it matches YYYY-MM-DD.
	AsDate
	// AsTrimmed stores the string form with surrounding whitespace removed.
	AsTrimmed
	// AsRaw stores the value as received.
	AsRaw
)

// String returns the conversion name.
func (c Conversion) String() string {
	switch c {
	case AsString:
		return "string"
	case AsInt:
		return "int"
	case AsDate:
		return "date"
	case AsTrimmed:
		return "trimmed"
	case AsRaw:
		return "raw"
	default:
		return "unknown"
	}
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Apply runs the conversion on raw. The boolean is false when the result is
// absent, which only AsDate produces.
func (c Conversion) Apply(raw any) (any, bool) {
	switch c {
	case AsInt:
		return ToInt(raw), true
	case AsDate:
		return FormatDate(raw)
	case AsTrimmed:
		return strings.TrimSpace(ToString(raw)), true
	case AsRaw:
		return raw, true
	default:
		return ToString(raw), true
	}
}

// FormatDate returns raw when its string form matches YYYY-MM-DD exactly.
// Only the shape is checked, so 2020-02-30 is accepted. Empty or
// non-matching input yields no value.
func FormatDate(raw any) (string, bool) {
	s := ToString(raw)
	if s == "" || !datePattern.MatchString(s) {
		return "", false
	}
	return s, true
}

// IsDate reports whether s has the YYYY-MM-DD shape.
func IsDate(s string) bool {
	return s != "" && datePattern.MatchString(s)
}

// SuppressEmpty reports whether v should be stored. Nil and the empty string
// clear a single-valued field instead of storing an empty value.
func SuppressEmpty(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case string:
		if x == "" {
			return nil, false
		}
	case *string:
		if x == nil || *x == "" {
			return nil, false
		}
		return *x, true
	}
	return v, true
}

// ToString renders a scalar the way a loosely typed source would print it.
// Nil and false become the empty string, true becomes "1", whole floats
// drop their fraction and times render as calendar dates.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "1"
		}
		return ""
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(constants.DateLayout)
	case interface{ String() string }:
		return x.String()
	default:
		return ""
	}
}

// ToInt coerces a scalar to an integer. Strings contribute their leading
// integer part ("12abc" is 12, "abc" is 0), floats truncate toward zero and
// anything unrecognized is 0.
func ToInt(v any) int64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return clampUint(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return clampUint(x)
	case float32:
		return truncFloat(float64(x))
	case float64:
		return truncFloat(x)
	case string:
		return leadingInt(x)
	case *string:
		if x == nil {
			return 0
		}
		return leadingInt(*x)
	default:
		return 0
	}
}

func clampUint(u uint64) int64 {
	if u > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(u)
}

func truncFloat(f float64) int64 {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// leadingInt parses the numeric prefix of s after leading whitespace.
// A decimal prefix such as "12.9" truncates to 12.
func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	// Accept a float-looking prefix so exponents behave like a numeric cast.
	if end < len(s) && (s[end] == '.' || s[end] == 'e' || s[end] == 'E') {
		if f, err := strconv.ParseFloat(floatPrefix(s), 64); err == nil {
			return truncFloat(f)
		}
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		if s[0] == '-' {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return n
}

// floatPrefix returns the longest prefix of s that parses as a float.
func floatPrefix(s string) string {
	for end := len(s); end > 0; end-- {
		if _, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return s[:end]
		}
	}
	return ""
}
