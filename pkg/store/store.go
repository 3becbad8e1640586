// Package store defines the entity store the reconciler writes to: owners
// (user-like entities) and the per-category profiles they own.
//
// Implementations live in the memory and sqlite subpackages. Overlay wraps
// any store for runs that must not persist anything.
package store

import (
	"context"
	"io"
	"time"
)

// Owner is the user-like entity profiles belong to.
type Owner struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Mail      *string   `json:"mail" yaml:"mail"`
	Active    bool      `json:"active" yaml:"active"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// OwnerAttrs are the attributes an owner is created with.
type OwnerAttrs struct {
	Name   string
	Mail   *string
	Active bool
}

// EntityStore is the persistence contract the reconciler depends on.
type EntityStore interface {
	// CreateOwner persists a new owner immediately. Owner names are unique.
	CreateOwner(ctx context.Context, attrs OwnerAttrs) (Owner, error)

	// LoadOwner returns the owner with id or a not-found error.
	LoadOwner(ctx context.Context, id int64) (Owner, error)

	// FindOwnerByName returns the owner with the given unique name, if any.
	FindOwnerByName(ctx context.Context, name string) (Owner, bool, error)

	// FindOwnerByProfileKey returns the owner of the first profile of bundle,
	// by profile id, whose keyField holds keyValue.
	FindOwnerByProfileKey(ctx context.Context, bundle, keyField, keyValue string) (Owner, bool, error)

	// LoadProfile returns the owner's profile of bundle, if one exists.
	LoadProfile(ctx context.Context, owner Owner, bundle string) (*Profile, bool, error)

	// CreateProfile returns a new, unsaved profile of bundle owned by owner.
	CreateProfile(owner Owner, bundle string) *Profile

	// SaveProfile inserts a new profile or replaces the values of an existing one.
	SaveProfile(ctx context.Context, p *Profile) error
}

// Lister enumerates stored entities for read views.
type Lister interface {
	ListOwners(ctx context.Context) ([]Owner, error)
	ListProfiles(ctx context.Context, owner Owner) ([]*Profile, error)
}

// Purger removes every profile of a bundle. Owners are kept.
type Purger interface {
	DeleteProfiles(ctx context.Context, bundle string) (int, error)
}

// Store is a complete backend: the reconciler contract plus maintenance.
type Store interface {
	EntityStore
	Lister
	Purger
	io.Closer
}
