package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAmountCoercion(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
		ok    bool
	}{
		{"string", "100.50", "100.5", true},
		{"decimal", decimal.NewFromFloat(108.5), "108.5", true},
		{"padded string", " 75 ", "75", true},
		{"float64", 42.25, "42.25", true},
		{"int", 7, "7", true},
		{"json number", json.Number("19.99"), "19.99", true},
		{"garbage", "abc", "", false},
		{"nil", nil, "", false},
		{"bool", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := Record{FieldAmount: tt.value}

			got, ok := record.Amount(FieldAmount)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				want, err := decimal.NewFromString(tt.want)
				require.NoError(t, err)
				assert.True(t, want.Equal(got), "want %s, got %s", want, got)
			}
		})
	}
}

func TestRecordAmountAbsentField(t *testing.T) {
	_, ok := Record{}.Amount(FieldAmount)
	assert.False(t, ok)
}

func TestRecordString(t *testing.T) {
	record := Record{
		"name":  "  Jon Smith ",
		"count": json.Number("3"),
		"nil":   nil,
	}

	assert.Equal(t, "Jon Smith", record.String("name"))
	assert.Equal(t, "3", record.String("count"))
	assert.Equal(t, "", record.String("nil"))
	assert.Equal(t, "", record.String("absent"))
}

func TestRecordTimestampFormats(t *testing.T) {
	fixed := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time { return fixed }

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2026-05-10T14:30:00Z", time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC)},
		{"2026-05-10 14:30:00", time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC)},
		{"2026-05-10", time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)},
		{"not a date", fixed},
		{"", fixed},
	}

	for _, tt := range tests {
		record := Record{FieldTimestamp: tt.raw}
		assert.Equal(t, tt.want, record.Timestamp(now), "raw %q", tt.raw)
	}
}

func TestRecordClone(t *testing.T) {
	original := Record{FieldOrderID: "ORD-1"}

	clone := original.Clone()
	clone[FieldError] = "boom"

	_, tainted := original[FieldError]
	assert.False(t, tainted)
}
