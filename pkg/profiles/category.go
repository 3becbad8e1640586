// Package profiles declares the closed set of profile categories and the
// static field schema of each one.
package profiles

import (
	"fmt"
	"strings"

	"github.com/FursAndrey/staffsync/pkg/errors"
)

// Category is a profile category. The zero value is not a valid category.
type Category int

// Profile categories, in the order the reconciler processes them.
const (
	Personal Category = iota + 1
	Contact
	Work
	Family
	Education
	Medical
	Violation
)

var categoryNames = map[Category]string{
	Personal:  "personal",
	Contact:   "contact",
	Work:      "work",
	Family:    "family",
	Education: "education",
	Medical:   "medical",
	Violation: "violation",
}

var categoryBundles = map[Category]string{
	Personal:  "personal_information",
	Contact:   "contact_information",
	Work:      "work_information",
	Family:    "family_information",
	Education: "education_information",
	Medical:   "med_information",
	Violation: "violation_information",
}

// All returns every category in processing order.
func All() []Category {
	return []Category{Personal, Contact, Work, Family, Education, Medical, Violation}
}

// SingleValued returns the categories stored as flat field maps.
func SingleValued() []Category {
	return []Category{Personal, Contact, Work}
}

// MultiValued returns the categories stored as parallel value lists.
func MultiValued() []Category {
	return []Category{Family, Education, Medical, Violation}
}

// String returns the short category name.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Bundle returns the storage bundle name of the category.
func (c Category) Bundle() string {
	return categoryBundles[c]
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// MultiValued reports whether profiles of this category hold lists of sub-records.
func (c Category) MultiValued() bool {
	return c >= Family && c <= Violation
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errors.NewValidationError("category", int(c), "unknown category")
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Parse resolves a category from its short name or its bundle name.
func Parse(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range All() {
		if s == c.String() || s == c.Bundle() {
			return c, nil
		}
	}
	return 0, errors.NewValidationError("category", s, fmt.Sprintf("unknown category %q", s))
}

// FromBundle returns the category stored under bundle.
func FromBundle(bundle string) (Category, bool) {
	for c, b := range categoryBundles {
		if b == bundle {
			return c, true
		}
	}
	return 0, false
}

// ParseList parses each name and returns them in processing order without duplicates.
func ParseList(names []string) ([]Category, error) {
	seen := make(map[Category]bool, len(names))
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, err := Parse(part)
			if err != nil {
				return nil, err
			}
			seen[c] = true
		}
	}
	out := make([]Category, 0, len(seen))
	for _, c := range All() {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out, nil
}
