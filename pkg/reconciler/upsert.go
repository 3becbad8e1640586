package reconciler

import (
	"context"
	"fmt"

	"github.com/FursAndrey/staffsync/pkg/constants"
	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/fields"
	"github.com/FursAndrey/staffsync/pkg/profiles"
	"github.com/FursAndrey/staffsync/pkg/records"
	"github.com/FursAndrey/staffsync/pkg/store"
)

// Outcome tells whether an upsert created or updated its profile.
type Outcome int

// Upsert outcomes.
const (
	Created Outcome = iota + 1
	Updated
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "none"
	}
}

// Upserter writes one (owner, category) profile from source rows.
// Every failure is returned as *errors.ProfileWriteError.
type Upserter struct {
	store store.EntityStore
}

// NewUpserter returns an upserter over s.
func NewUpserter(s store.EntityStore) *Upserter {
	return &Upserter{store: s}
}

// UpsertSingle loads the owner's profile of c, creating it when absent, and
// overwrites every schema field from values. Empty values clear their field.
func (u *Upserter) UpsertSingle(ctx context.Context, owner store.Owner, c profiles.Category, values records.Record) (Outcome, error) {
	fizCode := values.String(constants.KeyField)
	if c.MultiValued() {
		return 0, profileError(fizCode, c, "build", fmt.Errorf("category %s is multi-valued", c))
	}

	p, outcome, err := u.load(ctx, owner, c)
	if err != nil {
		return 0, profileError(fizCode, c, "load", err)
	}

	for _, f := range c.Schema().Fields {
		v, ok := f.Convert.Apply(values.Get(f.Source))
		if ok {
			v, ok = fields.SuppressEmpty(v)
		}
		if !ok {
			p.Clear(f.Name)
			continue
		}
		if err := p.Set(f.Name, v); err != nil {
			return 0, profileError(fizCode, c, "build", err)
		}
	}

	if err := u.store.SaveProfile(ctx, p); err != nil {
		return 0, profileError(fizCode, c, "save", err)
	}
	return outcome, nil
}

// UpsertMulti loads the owner's profile of c, creating it when absent, and
// replaces each schema field with the projection of that field across
// subRecords. Lists are index-aligned; no values from earlier syncs survive.
// Callers skip employees without rows, so an empty subRecords is rejected.
func (u *Upserter) UpsertMulti(ctx context.Context, owner store.Owner, c profiles.Category, subRecords []records.Record) (Outcome, error) {
	var fizCode string
	if len(subRecords) > 0 {
		fizCode = subRecords[0].String(constants.KeyField)
	}
	if !c.MultiValued() {
		return 0, profileError(fizCode, c, "build", fmt.Errorf("category %s is single-valued", c))
	}
	if len(subRecords) == 0 {
		return 0, profileError(fizCode, c, "build", fmt.Errorf("no %s rows", c))
	}

	p, outcome, err := u.load(ctx, owner, c)
	if err != nil {
		return 0, profileError(fizCode, c, "load", err)
	}

	for _, f := range c.Schema().Fields {
		list := make([]any, len(subRecords))
		for i, rec := range subRecords {
			list[i], _ = f.Convert.Apply(rec.Get(f.Source))
		}
		if err := p.SetList(f.Name, list); err != nil {
			return 0, profileError(fizCode, c, "build", err)
		}
	}

	if err := u.store.SaveProfile(ctx, p); err != nil {
		return 0, profileError(fizCode, c, "save", err)
	}
	return outcome, nil
}

// load returns the stored profile or a fresh one.
func (u *Upserter) load(ctx context.Context, owner store.Owner, c profiles.Category) (*store.Profile, Outcome, error) {
	p, found, err := u.store.LoadProfile(ctx, owner, c.Bundle())
	if err != nil {
		return nil, 0, err
	}
	if found && p != nil {
		return p, Updated, nil
	}
	return u.store.CreateProfile(owner, c.Bundle()), Created, nil
}

func profileError(fizCode string, c profiles.Category, op string, err error) error {
	return errors.NewProfileWriteError(fizCode, c.String(), op, err)
}
