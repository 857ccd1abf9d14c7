package utils

import (
	"encoding/json"
	"strconv"
	"time"
)

// WarehouseTimeLayout is the timestamp layout Redshift COPY is configured
// for (TIMEFORMAT 'YYYY-MM-DDTHH:MI:SS').
const WarehouseTimeLayout = "2006-01-02T15:04:05"

// epochMillisThreshold separates second-resolution epochs from
// millisecond-resolution ones. Source tables mix both.
const epochMillisThreshold = 1e10

// NowRFC3339 returns the current time in RFC3339 format
func NowRFC3339() string {
	return time.Now().Format(time.RFC3339)
}

// ParseRFC3339 parses a time string in RFC3339 format
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// ParseFlexibleTime parses the loosely typed created_time/updated_time
// attributes found in the source tables. It accepts epoch seconds, epoch
// milliseconds, RFC3339 strings and bare warehouse-layout strings. The
// second return value is false when the value is absent or unparseable.
func ParseFlexibleTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case float64:
		return fromEpoch(t)
	case int64:
		return fromEpoch(float64(t))
	case int:
		return fromEpoch(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f)
	case string:
		if t == "" {
			return time.Time{}, false
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(WarehouseTimeLayout, t); err == nil {
			return parsed, true
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return fromEpoch(f)
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func fromEpoch(f float64) (time.Time, bool) {
	if f <= 0 {
		return time.Time{}, false
	}
	if f > epochMillisThreshold {
		f = f / 1000
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec), true
}

// FormatWarehouseTime renders a timestamp the way the staged CSV files and
// the warehouse COPY configuration expect. A nil timestamp renders as the
// empty string, which the load step treats as NULL.
func FormatWarehouseTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(WarehouseTimeLayout)
}
