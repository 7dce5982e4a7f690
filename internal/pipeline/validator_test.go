package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePartitionsRows(t *testing.T) {
	records := []Record{
		{"order_id": "ORD-1", "amount": "100.50", "customer_id": "CUST-1"},
		{"order_id": "ORD-2", "amount": "not-a-number", "customer_id": "CUST-2"},
		{"order_id": "ORD-3", "amount": "75", "customer_id": nil},
		{"order_id": "ORD-4", "amount": 42.0, "customer_id": "CUST-4", "channel": "Web"},
	}

	valid, invalid := Validate(records)

	require.Len(t, valid, 2)
	require.Len(t, invalid, 2)

	assert.Equal(t, "ORD-1", valid[0].String(FieldOrderID))
	assert.Equal(t, "ORD-4", valid[1].String(FieldOrderID))

	for _, record := range invalid {
		assert.Equal(t, rowErrorReason, record.String(FieldError))
	}

	// Original fields survive on both sides.
	assert.Equal(t, "Web", valid[1].String(FieldChannel))
	assert.Equal(t, "not-a-number", invalid[0]["amount"])
}

func TestValidateMissingRequiredColumnRejectsWholeBatch(t *testing.T) {
	// No row carries an amount column, so none can ever validate.
	records := []Record{
		{"order_id": "ORD-1", "customer_id": "CUST-1"},
		{"order_id": "ORD-2", "customer_id": "CUST-2"},
		{"order_id": "ORD-3", "customer_id": "CUST-3"},
	}

	valid, invalid := Validate(records)

	assert.Empty(t, valid)
	require.Len(t, invalid, 3)
	for _, record := range invalid {
		assert.Equal(t, "missing columns: amount", record.String(FieldError))
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	records := []Record{
		{"order_id": "ORD-1", "customer_id": "CUST-1"},
	}

	_, invalid := Validate(records)

	require.Len(t, invalid, 1)
	_, tainted := records[0][FieldError]
	assert.False(t, tainted, "input record gained an error field")
}

func TestValidateEmptyBatch(t *testing.T) {
	valid, invalid := Validate(nil)
	assert.Empty(t, valid)
	assert.Empty(t, invalid)
}

func TestValidateMissingCustomerIDRejectsRow(t *testing.T) {
	records := []Record{
		{"order_id": "ORD-1", "amount": "10", "customer_id": "CUST-1"},
		{"order_id": "ORD-2", "amount": "20"},
	}

	valid, invalid := Validate(records)

	require.Len(t, valid, 1)
	require.Len(t, invalid, 1)
	assert.Equal(t, "ORD-2", invalid[0].String(FieldOrderID))
}
