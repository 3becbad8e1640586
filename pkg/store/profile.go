package store

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/FursAndrey/staffsync/pkg/constants"
	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/fields"
)

// Value is a stored field value: string, int64, float64, bool or nil.
type Value = any

// Profile is one (owner, bundle) record. Every field holds a list of values:
// single-valued fields hold exactly one, multi-valued fields hold one per
// sub-record. An absent field is null.
type Profile struct {
	ID        int64              `json:"id" yaml:"id"`
	OwnerID   int64              `json:"owner_id" yaml:"owner_id"`
	Bundle    string             `json:"bundle" yaml:"bundle"`
	Fields    map[string][]Value `json:"fields" yaml:"fields"`
	CreatedAt time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" yaml:"updated_at"`
}

// NewProfile returns an unsaved profile of bundle for ownerID.
func NewProfile(ownerID int64, bundle string) *Profile {
	return &Profile{
		OwnerID: ownerID,
		Bundle:  bundle,
		Fields:  make(map[string][]Value),
	}
}

// IsNew reports whether the profile has never been saved.
func (p *Profile) IsNew() bool {
	return p.ID == 0
}

// Set stores a single value under name.
func (p *Profile) Set(name string, v any) error {
	nv, err := NormalizeValue(v)
	if err != nil {
		return errors.WrapValidation(name, err)
	}
	p.ensure()
	p.Fields[name] = []Value{nv}
	return nil
}

// SetList replaces every value stored under name. An empty list clears the field.
func (p *Profile) SetList(name string, values []any) error {
	if len(values) == 0 {
		p.Clear(name)
		return nil
	}
	list := make([]Value, len(values))
	for i, v := range values {
		nv, err := NormalizeValue(v)
		if err != nil {
			return errors.WrapValidation(fmt.Sprintf("%s[%d]", name, i), err)
		}
		list[i] = nv
	}
	p.ensure()
	p.Fields[name] = list
	return nil
}

// Clear removes name, leaving the field null.
func (p *Profile) Clear(name string) {
	delete(p.Fields, name)
}

// Get returns the first value stored under name.
func (p *Profile) Get(name string) (Value, bool) {
	list := p.Fields[name]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

// List returns every value stored under name.
func (p *Profile) List(name string) []Value {
	return p.Fields[name]
}

// FieldNames returns the names of all non-null fields in sorted order.
func (p *Profile) FieldNames() []string {
	names := make([]string, 0, len(p.Fields))
	for name := range p.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rows returns the length of the longest field list.
func (p *Profile) Rows() int {
	n := 0
	for _, list := range p.Fields {
		if len(list) > n {
			n = len(list)
		}
	}
	return n
}

// HasKey reports whether the first value of keyField renders as keyValue.
func (p *Profile) HasKey(keyField, keyValue string) bool {
	v, ok := p.Get(keyField)
	return ok && fields.ToString(v) == keyValue
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Fields = make(map[string][]Value, len(p.Fields))
	for name, list := range p.Fields {
		out.Fields[name] = append([]Value(nil), list...)
	}
	return &out
}

func (p *Profile) ensure() {
	if p.Fields == nil {
		p.Fields = make(map[string][]Value)
	}
}

// NormalizeValue converts v to one of the storable value types.
func NormalizeValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case *string:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case bool:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return normalizeUint(uint64(x))
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return normalizeUint(x)
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case time.Time:
		return x.Format(constants.DateLayout), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func normalizeUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("integer %d overflows int64", u)
	}
	return int64(u), nil
}
