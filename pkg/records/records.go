// Package records holds the flat key/value rows read from a record source
// and the grouping index built over them.
package records

import (
	"github.com/FursAndrey/staffsync/pkg/fields"
)

// Record is one flat source row.
type Record map[string]any

// Get returns the raw value stored under key, or nil.
func (r Record) Get(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// String returns the value under key in its string form.
func (r Record) String(key string) string {
	return fields.ToString(r.Get(key))
}

// Has reports whether key is present in the record, even with a nil value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Groups maps a key value to the records carrying it, in source order.
type Groups map[string][]Record

// GroupByKey partitions recs by the string form of keyField. Records with a
// missing or empty key are dropped. Each group preserves source order.
func GroupByKey(recs []Record, keyField string) Groups {
	grouped := make(Groups)
	for _, rec := range recs {
		key := rec.String(keyField)
		if key == "" {
			continue
		}
		grouped[key] = append(grouped[key], rec)
	}
	return grouped
}

// Lookup returns the records for key and whether any exist.
func (g Groups) Lookup(key string) ([]Record, bool) {
	recs, ok := g[key]
	return recs, ok && len(recs) > 0
}

// Keys returns the number of distinct keys in the index.
func (g Groups) Keys() int {
	return len(g)
}
