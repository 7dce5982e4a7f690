package pipeline

import (
	"fmt"
	"strings"
)

// requiredFields must be present and non-empty for a row to become a
// canonical event.
var requiredFields = []string{FieldOrderID, FieldAmount, FieldCustomerID}

const rowErrorReason = "missing required data or invalid amount format"

// Validate partitions a batch into valid and invalid records. It is a pure
// partition: inputs are not mutated, all original fields are preserved, and
// invalid records carry an added error field describing the rejection.
//
// When one or more required columns are absent from the entire batch, no
// row can possibly satisfy the contract, so the whole batch is rejected
// with a missing-columns reason instead of per-row errors.
func Validate(records []Record) (valid, invalid []Record) {
	if len(records) == 0 {
		return nil, nil
	}

	var missingCols []string
	for _, field := range requiredFields {
		if !hasColumn(records, field) {
			missingCols = append(missingCols, field)
		}
	}
	if len(missingCols) > 0 {
		reason := fmt.Sprintf("missing columns: %s", strings.Join(missingCols, ", "))
		invalid = make([]Record, 0, len(records))
		for _, record := range records {
			rejected := record.Clone()
			rejected[FieldError] = reason
			invalid = append(invalid, rejected)
		}
		return nil, invalid
	}

	for _, record := range records {
		if isValidRow(record) {
			valid = append(valid, record)
			continue
		}
		rejected := record.Clone()
		rejected[FieldError] = rowErrorReason
		invalid = append(invalid, rejected)
	}

	return valid, invalid
}

func isValidRow(record Record) bool {
	if record.String(FieldOrderID) == "" {
		return false
	}
	if record.String(FieldCustomerID) == "" {
		return false
	}
	_, ok := record.Amount(FieldAmount)
	return ok
}
