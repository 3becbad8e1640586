// Package memory provides a map-backed store.Store. Values handed in and out
// are deep copies, so callers never share state with the store.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/store"
)

type profileKey struct {
	ownerID int64
	bundle  string
}

// Store is an in-memory entity store safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	nextOwnerID   int64
	nextProfileID int64
	owners        map[int64]store.Owner
	ownerNames    map[string]int64
	profiles      map[int64]*store.Profile
	byOwner       map[profileKey]int64
	now           func() time.Time
}

var _ store.Store = (*Store)(nil)

// Option configures a memory store.
type Option func(*Store)

// WithClock sets the time source used for entity timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		owners:     make(map[int64]store.Owner),
		ownerNames: make(map[string]int64),
		profiles:   make(map[int64]*store.Profile),
		byOwner:    make(map[profileKey]int64),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOwner persists a new owner.
func (s *Store) CreateOwner(ctx context.Context, attrs store.OwnerAttrs) (store.Owner, error) {
	if err := ctx.Err(); err != nil {
		return store.Owner{}, err
	}
	if attrs.Name == "" {
		return store.Owner{}, errors.NewValidationError("name", attrs.Name, "owner name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ownerNames[attrs.Name]; exists {
		return store.Owner{}, errors.NewAlreadyExistsError("owner", attrs.Name)
	}

	s.nextOwnerID++
	owner := store.Owner{
		ID:        s.nextOwnerID,
		Name:      attrs.Name,
		Mail:      copyString(attrs.Mail),
		Active:    attrs.Active,
		CreatedAt: s.now(),
	}
	s.owners[owner.ID] = owner
	s.ownerNames[owner.Name] = owner.ID
	return cloneOwner(owner), nil
}

// LoadOwner returns the owner with id.
func (s *Store) LoadOwner(ctx context.Context, id int64) (store.Owner, error) {
	if err := ctx.Err(); err != nil {
		return store.Owner{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.owners[id]
	if !ok {
		return store.Owner{}, errors.NewNotFoundError("owner", strconv.FormatInt(id, 10))
	}
	return cloneOwner(owner), nil
}

// FindOwnerByName returns the owner registered under name.
func (s *Store) FindOwnerByName(ctx context.Context, name string) (store.Owner, bool, error) {
	if err := ctx.Err(); err != nil {
		return store.Owner{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.ownerNames[name]
	if !ok {
		return store.Owner{}, false, nil
	}
	return cloneOwner(s.owners[id]), true, nil
}

// FindOwnerByProfileKey scans profiles of bundle in ID order.
func (s *Store) FindOwnerByProfileKey(ctx context.Context, bundle, keyField, keyValue string) (store.Owner, bool, error) {
	if err := ctx.Err(); err != nil {
		return store.Owner{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var match *store.Profile
	for _, p := range s.profiles {
		if p.Bundle != bundle || !p.HasKey(keyField, keyValue) {
			continue
		}
		if match == nil || p.ID < match.ID {
			match = p
		}
	}
	if match == nil {
		return store.Owner{}, false, nil
	}

	owner, ok := s.owners[match.OwnerID]
	if !ok {
		return store.Owner{}, false, errors.NewNotFoundError("owner", strconv.FormatInt(match.OwnerID, 10))
	}
	return cloneOwner(owner), true, nil
}

// LoadProfile returns a copy of the owner's profile of bundle.
func (s *Store) LoadProfile(ctx context.Context, owner store.Owner, bundle string) (*store.Profile, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byOwner[profileKey{owner.ID, bundle}]
	if !ok {
		return nil, false, nil
	}
	return s.profiles[id].Clone(), true, nil
}

// CreateProfile returns a new unsaved profile.
func (s *Store) CreateProfile(owner store.Owner, bundle string) *store.Profile {
	return store.NewProfile(owner.ID, bundle)
}

// SaveProfile inserts or replaces a profile. The caller's profile receives
// its ID and timestamps.
func (s *Store) SaveProfile(ctx context.Context, p *store.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == nil {
		return errors.NewValidationError("profile", nil, "cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owners[p.OwnerID]; !ok {
		return errors.NewNotFoundError("owner", strconv.FormatInt(p.OwnerID, 10))
	}

	now := s.now()
	key := profileKey{p.OwnerID, p.Bundle}

	if p.IsNew() {
		if _, exists := s.byOwner[key]; exists {
			return errors.NewAlreadyExistsError("profile", p.Bundle+" for owner "+strconv.FormatInt(p.OwnerID, 10))
		}
		s.nextProfileID++
		p.ID = s.nextProfileID
		p.CreatedAt = now
		s.byOwner[key] = p.ID
	} else {
		existing, ok := s.profiles[p.ID]
		if !ok {
			return errors.NewNotFoundError("profile", strconv.FormatInt(p.ID, 10))
		}
		if existing.OwnerID != p.OwnerID || existing.Bundle != p.Bundle {
			return errors.NewValidationError("profile", p.ID, "owner and bundle cannot change")
		}
	}

	p.UpdatedAt = now
	s.profiles[p.ID] = p.Clone()
	return nil
}

// ListOwners returns all owners ordered by ID.
func (s *Store) ListOwners(ctx context.Context) ([]store.Owner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]store.Owner, 0, len(s.owners))
	for _, owner := range s.owners {
		owners = append(owners, cloneOwner(owner))
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].ID < owners[j].ID })
	return owners, nil
}

// ListProfiles returns copies of the owner's profiles ordered by bundle.
func (s *Store) ListProfiles(ctx context.Context, owner store.Owner) ([]*store.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := []*store.Profile{}
	for _, p := range s.profiles {
		if p.OwnerID == owner.ID {
			profiles = append(profiles, p.Clone())
		}
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Bundle < profiles[j].Bundle })
	return profiles, nil
}

// DeleteProfiles removes every profile of bundle.
func (s *Store) DeleteProfiles(ctx context.Context, bundle string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, p := range s.profiles {
		if p.Bundle != bundle {
			continue
		}
		delete(s.profiles, id)
		delete(s.byOwner, profileKey{p.OwnerID, p.Bundle})
		deleted++
	}
	return deleted, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func cloneOwner(o store.Owner) store.Owner {
	o.Mail = copyString(o.Mail)
	return o
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
