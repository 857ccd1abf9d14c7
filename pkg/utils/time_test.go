package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleTime_EpochSecondsAndMillis(t *testing.T) {
	// 2025-03-10T08:26:40Z as seconds and as milliseconds
	want := time.Date(2025, 3, 10, 8, 26, 40, 0, time.UTC)

	got, ok := ParseFlexibleTime(float64(1741595200))
	require.True(t, ok)
	assert.Equal(t, want, got.UTC())

	got, ok = ParseFlexibleTime(float64(1741595200000))
	require.True(t, ok)
	assert.Equal(t, want, got.UTC())
}

func TestParseFlexibleTime_Strings(t *testing.T) {
	got, ok := ParseFlexibleTime("2025-03-10T08:26:40Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 26, 40, 0, time.UTC), got.UTC())

	got, ok = ParseFlexibleTime("2025-03-10T08:26:40")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 26, 40, 0, time.UTC), got)

	got, ok = ParseFlexibleTime("1741595200000")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 26, 40, 0, time.UTC), got.UTC())
}

func TestParseFlexibleTime_AbsentValues(t *testing.T) {
	for _, v := range []interface{}{nil, "", "not a time", float64(0), float64(-5), struct{}{}} {
		_, ok := ParseFlexibleTime(v)
		assert.False(t, ok, "value %v should not parse", v)
	}
}

func TestFormatWarehouseTime(t *testing.T) {
	ts := time.Date(2025, 3, 15, 6, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-15T06:30:00", FormatWarehouseTime(&ts))
	assert.Equal(t, "", FormatWarehouseTime(nil))

	var zero time.Time
	assert.Equal(t, "", FormatWarehouseTime(&zero))
}

func TestFormatWarehouseTime_ConvertsToUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	ts := time.Date(2025, 3, 15, 12, 0, 0, 0, ist)

	assert.Equal(t, "2025-03-15T06:30:00", FormatWarehouseTime(&ts))
}
