package pipeline

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NormalizeCurrency converts each record's amount into the base currency
// and stores the result in the net_amount field. Original amount and
// currency fields are left untouched.
//
// A currency code missing from the rate table converts at 1.0 — the row is
// treated as already being in the base currency. This is a deliberate
// leniency for sources that omit or invent codes, not an error path.
func NormalizeCurrency(records []Record, table map[string]float64, base string, logger *zap.Logger) []Record {
	if len(records) == 0 {
		return records
	}

	unknownWarned := make(map[string]struct{})

	out := make([]Record, 0, len(records))
	for _, record := range records {
		currency := record.String(FieldCurrency)
		if currency == "" {
			currency = base
		}

		rate, known := table[currency]
		if !known {
			rate = 1.0
			if logger != nil {
				if _, warned := unknownWarned[currency]; !warned {
					unknownWarned[currency] = struct{}{}
					logger.Warn("Unknown currency code, converting at rate 1.0",
						zap.String("currency", currency),
					)
				}
			}
		}

		amount, _ := record.Amount(FieldAmount)
		normalized := record.Clone()
		normalized[FieldNetAmount] = amount.Mul(decimal.NewFromFloat(rate))
		out = append(out, normalized)
	}

	return out
}
