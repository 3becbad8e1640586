package reconciler

import (
	"context"

	"github.com/FursAndrey/staffsync/pkg/constants"
	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/logging"
	"github.com/FursAndrey/staffsync/pkg/profiles"
	"github.com/FursAndrey/staffsync/pkg/store"
)

// Resolver maps an employee key to the owner its profiles belong to.
type Resolver struct {
	store store.EntityStore
}

// NewResolver returns a resolver over s.
func NewResolver(s store.EntityStore) *Resolver {
	return &Resolver{store: s}
}

// OwnerName returns the username generated for an employee key.
func OwnerName(fizCode string) string {
	return constants.OwnerNamePrefix + fizCode
}

// Resolve returns the owner whose personal profile carries fizCode, creating
// an active owner named fiz_<fizCode> when none does. A newly created owner
// is persisted immediately. An owner already registered under that name but
// without a personal profile is reused. Failures are returned as
// *errors.OwnerResolutionError.
func (r *Resolver) Resolve(ctx context.Context, fizCode string) (store.Owner, error) {
	if fizCode == "" {
		return store.Owner{}, errors.NewOwnerResolutionError(fizCode,
			errors.NewValidationError(constants.KeyField, fizCode, "must not be empty"))
	}

	owner, found, err := r.store.FindOwnerByProfileKey(ctx, profiles.Personal.Bundle(), constants.OwnerKeyField, fizCode)
	if err != nil {
		return store.Owner{}, errors.NewOwnerResolutionError(fizCode, err)
	}
	if found {
		return owner, nil
	}

	name := OwnerName(fizCode)
	owner, err = r.store.CreateOwner(ctx, store.OwnerAttrs{
		Name:   name,
		Mail:   nil,
		Active: true,
	})
	if errors.IsAlreadyExists(err) {
		return r.adopt(ctx, fizCode, name, err)
	}
	if err != nil {
		return store.Owner{}, errors.NewOwnerResolutionError(fizCode, err)
	}

	logging.FromContext(ctx).Debug().
		Int64("owner_id", owner.ID).
		Str("owner", owner.Name).
		Msg("Created owner")
	return owner, nil
}

// adopt returns the existing owner registered under name.
func (r *Resolver) adopt(ctx context.Context, fizCode, name string, createErr error) (store.Owner, error) {
	owner, found, err := r.store.FindOwnerByName(ctx, name)
	if err != nil {
		return store.Owner{}, errors.NewOwnerResolutionError(fizCode, err)
	}
	if !found {
		return store.Owner{}, errors.NewOwnerResolutionError(fizCode, createErr)
	}

	logging.FromContext(ctx).Debug().
		Int64("owner_id", owner.ID).
		Str("owner", owner.Name).
		Msg("Reusing owner without personal profile")
	return owner, nil
}

// Lookup is the read-only half of Resolve: it never creates an owner.
func (r *Resolver) Lookup(ctx context.Context, fizCode string) (store.Owner, bool, error) {
	if fizCode == "" {
		return store.Owner{}, false, nil
	}
	owner, found, err := r.store.FindOwnerByProfileKey(ctx, profiles.Personal.Bundle(), constants.OwnerKeyField, fizCode)
	if err != nil || found {
		return owner, found, err
	}
	return r.store.FindOwnerByName(ctx, OwnerName(fizCode))
}
