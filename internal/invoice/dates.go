package invoice

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// parseCreatedOn reads a created_on value leniently. Values that cannot be
// read as a point in time yield ok == false rather than an error.
//
// Strings go through dateparse, which accepts ISO dates, RFC3339, common
// US/European layouts and more. Numbers are taken as nanoseconds since the
// Unix epoch. Timestamps without a zone are UTC.
func parseCreatedOn(v interface{}) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x, true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		t, err := dateparse.ParseAny(s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return time.Unix(0, n).UTC(), true
		}
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return epochNanos(f)
	case float64:
		return epochNanos(x)
	case float32:
		return epochNanos(float64(x))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, ok := toInt(x)
		if !ok {
			return time.Time{}, false
		}
		return time.Unix(0, n).UTC(), true
	default:
		return time.Time{}, false
	}
}

func epochNanos(f float64) (time.Time, bool) {
	n, ok := floatToInt(f)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(0, n).UTC(), true
}
