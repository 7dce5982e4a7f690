package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSaleStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"completed", SaleStatusCompleted, false},
		{"Pending", SaleStatusPending, false},
		{" CANCELLED ", SaleStatusCancelled, false},
		{"", SaleStatusCompleted, false},
		{"shipped", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSaleStatus(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestJSONPayloadRoundTrip(t *testing.T) {
	payload := JSONPayload{"order_id": "ORD-1", "amount": "100.50"}

	value, err := payload.Value()
	require.NoError(t, err)

	var scanned JSONPayload
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, payload, scanned)
}

func TestJSONPayloadScanString(t *testing.T) {
	var payload JSONPayload
	require.NoError(t, payload.Scan(`{"currency":"EUR"}`))
	assert.Equal(t, "EUR", payload["currency"])
}

func TestJSONPayloadNil(t *testing.T) {
	var payload JSONPayload

	value, err := payload.Value()
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, payload.Scan(nil))
	assert.Nil(t, payload)
}

func TestJSONPayloadScanUnsupportedType(t *testing.T) {
	var payload JSONPayload
	assert.Error(t, payload.Scan(42))
}
