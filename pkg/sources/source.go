// Package sources defines the read-only record source the reconciler pulls
// employee data from, plus an in-memory snapshot of one.
//
// A source exposes five collections of flat rows. Every row except the
// employee row carries fiz_code to correlate it with one employee.
//
// Example usage:
//
//	src := file.New("employees.yaml")
//	employees, err := src.Employees(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
package sources

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/profiles"
	"github.com/FursAndrey/staffsync/pkg/records"
)

// RecordSource is the contract the reconciler reads employee data through.
type RecordSource interface {
	Employees(ctx context.Context) ([]records.Record, error)
	Family(ctx context.Context) ([]records.Record, error)
	Education(ctx context.Context) ([]records.Record, error)
	Medical(ctx context.Context) ([]records.Record, error)
	Violations(ctx context.Context) ([]records.Record, error)
}

// Named is implemented by sources that can identify themselves in logs.
type Named interface {
	Name() string
}

// NameOf returns the name of src, or its type when it has none.
func NameOf(src RecordSource) string {
	if n, ok := src.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", src)
}

// Collection identifies one of the five record collections.
type Collection string

// String returns the collection name.
func (c Collection) String() string {
	return string(c)
}

// Record collections.
const (
	Employees  Collection = "employees"
	Family     Collection = "family"
	Education  Collection = "education"
	Medical    Collection = "medical"
	Violations Collection = "violations"
)

// Collections returns every collection, employees first.
func Collections() []Collection {
	return []Collection{Employees, Family, Education, Medical, Violations}
}

// IsValid reports whether c is one of the defined collections.
func (c Collection) IsValid() bool {
	return slices.Contains(Collections(), c)
}

// Category returns the multi-valued profile category built from c.
// Employees feed the single-valued categories and report false.
func (c Collection) Category() (profiles.Category, bool) {
	switch c {
	case Family:
		return profiles.Family, true
	case Education:
		return profiles.Education, true
	case Medical:
		return profiles.Medical, true
	case Violations:
		return profiles.Violation, true
	}
	return 0, false
}

// CollectionFor returns the collection a multi-valued category is built from.
func CollectionFor(c profiles.Category) (Collection, bool) {
	for _, coll := range Collections() {
		if cat, ok := coll.Category(); ok && cat == c {
			return coll, true
		}
	}
	return "", false
}

// ParseCollection resolves a collection name, case-insensitively.
func ParseCollection(s string) (Collection, error) {
	c := Collection(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", errors.NewValidationError("collection", s, fmt.Sprintf("unknown collection %q", s))
	}
	return c, nil
}

// Read fetches one collection from src. Failures are returned as *errors.SourceError.
func Read(ctx context.Context, src RecordSource, c Collection) ([]records.Record, error) {
	var (
		recs []records.Record
		err  error
	)
	switch c {
	case Employees:
		recs, err = src.Employees(ctx)
	case Family:
		recs, err = src.Family(ctx)
	case Education:
		recs, err = src.Education(ctx)
	case Medical:
		recs, err = src.Medical(ctx)
	case Violations:
		recs, err = src.Violations(ctx)
	default:
		err = errors.NewValidationError("collection", string(c), "unknown collection")
	}
	if err != nil {
		return nil, errors.NewSourceError(c.String(), err)
	}
	return recs, nil
}

// Load reads every collection of src into a snapshot.
func Load(ctx context.Context, src RecordSource) (*Snapshot, error) {
	data := make(map[Collection][]records.Record, len(Collections()))
	for _, c := range Collections() {
		recs, err := Read(ctx, src, c)
		if err != nil {
			return nil, err
		}
		data[c] = recs
	}
	return NewSnapshot(NameOf(src), data), nil
}
