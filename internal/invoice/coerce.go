package invoice

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var errDigitSeparator = errors.New("misplaced digit separator")

// CoerceInt reads v as an integer and never fails.
//
// The conversion is lossy on purpose: nil, values of an unsupported type,
// non-numeric text, NaN, infinities and out-of-range numbers all become 0.
// Floats are truncated toward zero and booleans read as 0/1. Every numeric
// field of a raw invoice (ids, prices, quantities, type codes) goes through
// here, so a malformed number zeroes one field instead of dropping a record.
func CoerceInt(v interface{}) int64 {
	n, ok := toInt(v)
	if !ok {
		return 0
	}
	return n
}

func toInt(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return uintToInt(uint64(x))
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return uintToInt(x)
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		n, err := parseIntString(x)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func uintToInt(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	// float64(math.MaxInt64) rounds up to 2^63, which is itself out of range.
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, false
	}
	return int64(t), true
}

// parseIntString parses a base-10 integer literal. Surrounding whitespace, a
// leading sign, leading zeros and single underscores between digits are
// accepted.
func parseIntString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "_") {
		digits := strings.TrimLeft(s, "+-")
		if strings.HasPrefix(digits, "_") || strings.HasSuffix(digits, "_") || strings.Contains(digits, "__") {
			return 0, errDigitSeparator
		}
		s = strings.ReplaceAll(s, "_", "")
	}
	return strconv.ParseInt(s, 10, 64)
}
