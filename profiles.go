package staffsync

import (
	"context"

	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/logging"
	"github.com/FursAndrey/staffsync/pkg/profiles"
	"github.com/FursAndrey/staffsync/pkg/reconciler"
	"github.com/FursAndrey/staffsync/pkg/store"
)

// Compile-time interface checks to ensure proper implementation.
var (
	_ Reader     = (*client)(nil)
	_ Maintainer = (*client)(nil)
)

// OwnerProfiles is an owner with every profile it holds.
type OwnerProfiles struct {
	FizCode  string           `json:"fiz_code" yaml:"fiz_code"`
	Owner    store.Owner      `json:"owner" yaml:"owner"`
	Profiles []*store.Profile `json:"profiles" yaml:"profiles"`
}

// Profile returns the owner's profile of category c, if present.
func (op *OwnerProfiles) Profile(c profiles.Category) (*store.Profile, bool) {
	for _, p := range op.Profiles {
		if p.Bundle == c.Bundle() {
			return p, true
		}
	}
	return nil, false
}

// Reader provides read-only views of the store.
type Reader interface {
	// Owners lists every owner, ordered by id.
	Owners(ctx context.Context) ([]store.Owner, error)

	// Profiles returns the owner resolved for fizCode and its profiles.
	// Nothing is created when no owner matches.
	Profiles(ctx context.Context, fizCode string) (*OwnerProfiles, error)
}

// Maintainer removes stored data.
type Maintainer interface {
	// Purge deletes every profile of category c and returns how many were
	// removed. Owners are kept.
	Purge(ctx context.Context, c profiles.Category) (int, error)
}

// Owners lists every owner in the store.
func (c *client) Owners(ctx context.Context) ([]store.Owner, error) {
	owners, err := c.store.ListOwners(c.context(ctx))
	if err != nil {
		return nil, errors.WrapResource("list", "owners", "", err)
	}
	return owners, nil
}

// Profiles returns the stored profiles of the owner resolved for fizCode.
func (c *client) Profiles(ctx context.Context, fizCode string) (*OwnerProfiles, error) {
	ctx = c.context(ctx)

	owner, found, err := reconciler.NewResolver(c.store).Lookup(ctx, fizCode)
	if err != nil {
		return nil, errors.WrapResource("lookup", "owner", fizCode, err)
	}
	if !found {
		return nil, errors.NewNotFoundError("owner", fizCode)
	}

	list, err := c.store.ListProfiles(ctx, owner)
	if err != nil {
		return nil, errors.WrapResource("list", "profiles", fizCode, err)
	}
	return &OwnerProfiles{FizCode: fizCode, Owner: owner, Profiles: list}, nil
}

// Purge deletes every profile of category cat.
func (c *client) Purge(ctx context.Context, cat profiles.Category) (int, error) {
	if !cat.Valid() {
		return 0, &errors.ValidationError{Field: "category", Value: cat, Message: "unknown category"}
	}
	ctx = logging.WithCategory(c.context(ctx), cat.String())

	deleted, err := c.store.DeleteProfiles(ctx, cat.Bundle())
	if err != nil {
		return 0, errors.WrapResource("purge", "profiles", cat.Bundle(), err)
	}

	logging.FromContext(ctx).Info().
		Str("bundle", cat.Bundle()).
		Int("deleted", deleted).
		Msg("Purged profiles")
	return deleted, nil
}
