package sources

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/records"
)

// Snapshot is a fixed, in-memory record source. It is safe for concurrent
// reads; callers must not modify the returned records.
type Snapshot struct {
	name string
	data map[Collection][]records.Record
}

// NewSnapshot returns a snapshot holding data. Missing collections are empty.
func NewSnapshot(name string, data map[Collection][]records.Record) *Snapshot {
	s := &Snapshot{name: name, data: make(map[Collection][]records.Record, len(data))}
	for c, recs := range data {
		s.data[c] = recs
	}
	return s
}

// Name returns the snapshot's origin.
func (s *Snapshot) Name() string {
	return s.name
}

// Renamed returns a snapshot sharing s's rows under a different name.
func (s *Snapshot) Renamed(name string) *Snapshot {
	return NewSnapshot(name, s.data)
}

// Records returns the rows of collection c.
func (s *Snapshot) Records(c Collection) []records.Record {
	return slices.Clone(s.data[c])
}

// Counts returns the number of rows per collection.
func (s *Snapshot) Counts() map[Collection]int {
	counts := make(map[Collection]int, len(Collections()))
	for _, c := range Collections() {
		counts[c] = len(s.data[c])
	}
	return counts
}

// Document returns the snapshot in its serialized layout, keyed by collection name.
func (s *Snapshot) Document() map[string][]records.Record {
	doc := make(map[string][]records.Record, len(Collections()))
	for _, c := range Collections() {
		doc[c.String()] = s.Records(c)
	}
	return doc
}

func (s *Snapshot) read(ctx context.Context, c Collection) ([]records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Records(c), nil
}

// Employees implements RecordSource.
func (s *Snapshot) Employees(ctx context.Context) ([]records.Record, error) {
	return s.read(ctx, Employees)
}

// Family implements RecordSource.
func (s *Snapshot) Family(ctx context.Context) ([]records.Record, error) {
	return s.read(ctx, Family)
}

// Education implements RecordSource.
func (s *Snapshot) Education(ctx context.Context) ([]records.Record, error) {
	return s.read(ctx, Education)
}

// Medical implements RecordSource.
func (s *Snapshot) Medical(ctx context.Context) ([]records.Record, error) {
	return s.read(ctx, Medical)
}

// Violations implements RecordSource.
func (s *Snapshot) Violations(ctx context.Context) ([]records.Record, error) {
	return s.read(ctx, Violations)
}

// Decode parses a YAML or JSON document whose top-level keys are collection
// names and whose values are lists of flat rows. name is used for error
// messages and as the snapshot name.
func Decode(name string, data []byte) (*Snapshot, error) {
	format := FormatOf(name)

	var doc map[string][]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse(format, name, err)
	}
	if len(doc) == 0 {
		return nil, errors.NewParseError(format, name, "document has no collections", nil)
	}

	out := make(map[Collection][]records.Record, len(doc))
	for key, rows := range doc {
		c, err := ParseCollection(key)
		if err != nil {
			return nil, errors.NewParseError(format, name, err.Error(), err)
		}
		recs := make([]records.Record, 0, len(rows))
		for i, row := range rows {
			rec, err := flatten(row)
			if err != nil {
				return nil, errors.NewParseError(format, name, fmt.Sprintf("%s[%d]: %v", key, i, err), err)
			}
			recs = append(recs, rec)
		}
		out[c] = recs
	}
	return NewSnapshot(name, out), nil
}

// Encode renders the snapshot as a YAML document readable by Decode.
func Encode(s *Snapshot) ([]byte, error) {
	return yaml.Marshal(s.Document())
}

// FormatOf returns "json" for .json paths and "yaml" otherwise.
func FormatOf(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return "json"
	}
	return "yaml"
}

// flatten rejects nested values; source rows are flat scalars.
func flatten(row map[string]any) (records.Record, error) {
	rec := make(records.Record, len(row))
	for k, v := range row {
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("field %q is not a scalar", k)
		}
		rec[k] = v
	}
	return rec, nil
}
