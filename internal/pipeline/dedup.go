package pipeline

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// DedupeExact drops records sharing the same key value, keeping the first
// occurrence in arrival order. Records with an empty key value pass
// through untouched.
func DedupeExact(records []Record, key string) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, record := range records {
		val := record.String(key)
		if val == "" {
			out = append(out, record)
			continue
		}
		if _, dup := seen[val]; dup {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, record)
	}
	return out
}

// DefaultFuzzyThreshold is the minimum token-sort similarity (0-100) for
// two field values to be treated as the same identity.
const DefaultFuzzyThreshold = 90

// DedupeFuzzy clusters near-duplicate values of the given field and
// annotates every record with a canonical_name field holding the cluster
// representative. Representatives are the first-seen value among the
// distinct values, and matching uses case- and order-insensitive token
// comparison, so "Jon Smith" and "Smith, Jon" collapse to one identity.
//
// Clustering is a single greedy pass, not a transitive closure: if A
// matches B and B matches C but A does not match C, A and C only share a
// representative when both independently clear the threshold against it.
// This mirrors the upstream cleaning behavior and is accepted as an
// approximation.
//
// No records are dropped; when the field is absent the input is returned
// unchanged.
func DedupeFuzzy(records []Record, field string, threshold int) []Record {
	if !hasColumn(records, field) {
		return records
	}

	distinct := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		val := record.String(field)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		distinct = append(distinct, val)
	}

	canonical := make(map[string]string, len(distinct))
	for _, val := range distinct {
		if _, assigned := canonical[val]; assigned {
			continue
		}
		canonical[val] = val
		for _, other := range distinct {
			if other == val {
				continue
			}
			if _, assigned := canonical[other]; assigned {
				continue
			}
			if fuzzy.TokenSortRatio(val, other) >= threshold {
				canonical[other] = val
			}
		}
	}

	out := make([]Record, 0, len(records))
	for _, record := range records {
		annotated := record.Clone()
		if val := record.String(field); val != "" {
			annotated[FieldCanonicalName] = canonical[val]
		}
		out = append(out, annotated)
	}
	return out
}
