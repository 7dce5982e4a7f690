package pipeline

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is a loosely-typed row moving through the pipeline: the raw
// payload plus bookkeeping fields the stages add. Rows stay untyped until
// they pass validation; typed access happens through the helpers below.
type Record map[string]interface{}

// Field names the stages read and write.
const (
	FieldOrderID       = "order_id"
	FieldCustomerID    = "customer_id"
	FieldCustomerName  = "customer_name"
	FieldProductID     = "product_id"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldNetAmount     = "net_amount"
	FieldChannel       = "channel"
	FieldStatus        = "status"
	FieldTimestamp     = "timestamp"
	FieldCanonicalName = "canonical_name"
	FieldError         = "error"
	FieldRawRecordID   = "raw_record_id"
)

// Clone returns a shallow copy. Stages that add fields work on copies so
// the caller's input slice is never mutated.
func (r Record) Clone() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the field as a trimmed string, or "" when absent or nil.
func (r Record) String(field string) string {
	val, ok := r[field]
	if !ok || val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return strings.Trim(string(b), `"`)
	}
}

// Amount coerces the field to a decimal. The second return reports whether
// the value was present and numeric.
func (r Record) Amount(field string) (decimal.Decimal, bool) {
	val, ok := r[field]
	if !ok || val == nil {
		return decimal.Zero, false
	}
	switch v := val.(type) {
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// RawRecordID returns the back-reference to the originating raw record.
func (r Record) RawRecordID() uint64 {
	val, ok := r[FieldRawRecordID]
	if !ok || val == nil {
		return 0
	}
	switch v := val.(type) {
	case uint64:
		return v
	case int64:
		return uint64(v)
	case int:
		return uint64(v)
	case float64:
		return uint64(v)
	default:
		return 0
	}
}

// timestampFormats are tried in order when parsing an uploaded timestamp.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp parses the row's timestamp field into UTC. Absent or
// unparseable timestamps fall back to the current time, matching the
// source-system behavior of stamping rows on arrival.
func (r Record) Timestamp(now func() time.Time) time.Time {
	raw := r.String(FieldTimestamp)
	if raw != "" {
		for _, layout := range timestampFormats {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts.UTC()
			}
		}
	}
	return now().UTC()
}

// hasColumn reports whether any record in the batch carries the field with
// a non-nil value. Batches built from CSV uploads share a header, so a
// field missing from every row means the source column does not exist.
func hasColumn(records []Record, field string) bool {
	for _, record := range records {
		if val, ok := record[field]; ok && val != nil {
			return true
		}
	}
	return false
}
