package loyalty

import (
	"github.com/shopspring/decimal"
)

// StreamChange is one change-stream record, decoded to plain values and
// routed by source table name.
type StreamChange struct {
	Table string
	Event string
	Old   map[string]interface{}
	New   map[string]interface{}
}

// StringField reads a string attribute from a stream image, empty when
// absent or of another type.
func StringField(image map[string]interface{}, key string) string {
	if image == nil {
		return ""
	}
	s, _ := image[key].(string)
	return s
}

// NumberField reads a numeric attribute from a stream image, zero when
// absent or unparseable.
func NumberField(image map[string]interface{}, key string) decimal.Decimal {
	if image == nil {
		return decimal.Zero
	}
	switch v := image[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
