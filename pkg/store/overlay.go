package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/FursAndrey/staffsync/pkg/errors"
)

type profileKey struct {
	ownerID int64
	bundle  string
}

// Overlay is a copy-on-write view over a base store. Reads fall through to
// the base; writes land in memory and are discarded with the overlay.
// Entities created in the overlay get negative IDs so they never collide
// with base IDs.
type Overlay struct {
	base EntityStore

	mu         sync.RWMutex
	nextID     int64
	owners     map[int64]Owner
	ownerNames map[string]int64
	profiles   map[profileKey]*Profile
	now        func() time.Time
}

// NewOverlay wraps base.
func NewOverlay(base EntityStore) *Overlay {
	return &Overlay{
		base:       base,
		owners:     make(map[int64]Owner),
		ownerNames: make(map[string]int64),
		profiles:   make(map[profileKey]*Profile),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Pending returns how many owners and profiles were written to the overlay.
func (o *Overlay) Pending() (owners, profiles int) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.owners), len(o.profiles)
}

func (o *Overlay) allocID() int64 {
	o.nextID--
	return o.nextID
}

// CreateOwner records a new owner in the overlay.
func (o *Overlay) CreateOwner(ctx context.Context, attrs OwnerAttrs) (Owner, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.ownerNames[attrs.Name]; exists {
		return Owner{}, errors.NewAlreadyExistsError("owner", attrs.Name)
	}
	_, exists, err := o.base.FindOwnerByName(ctx, attrs.Name)
	if err != nil {
		return Owner{}, err
	}
	if exists {
		return Owner{}, errors.NewAlreadyExistsError("owner", attrs.Name)
	}

	owner := Owner{
		ID:        o.allocID(),
		Name:      attrs.Name,
		Mail:      attrs.Mail,
		Active:    attrs.Active,
		CreatedAt: o.now(),
	}
	o.owners[owner.ID] = owner
	o.ownerNames[owner.Name] = owner.ID
	return owner, nil
}

// LoadOwner returns an overlay owner or falls through to the base.
func (o *Overlay) LoadOwner(ctx context.Context, id int64) (Owner, error) {
	o.mu.RLock()
	owner, ok := o.owners[id]
	o.mu.RUnlock()
	if ok {
		return owner, nil
	}
	if id < 0 {
		return Owner{}, errors.NewNotFoundError("owner", strconv.FormatInt(id, 10))
	}
	return o.base.LoadOwner(ctx, id)
}

// FindOwnerByName checks overlay owners before the base.
func (o *Overlay) FindOwnerByName(ctx context.Context, name string) (Owner, bool, error) {
	o.mu.RLock()
	id, ok := o.ownerNames[name]
	owner := o.owners[id]
	o.mu.RUnlock()
	if ok {
		return owner, true, nil
	}
	return o.base.FindOwnerByName(ctx, name)
}

// FindOwnerByProfileKey prefers base matches that the overlay has not
// rewritten, then overlay profiles in creation order.
func (o *Overlay) FindOwnerByProfileKey(ctx context.Context, bundle, keyField, keyValue string) (Owner, bool, error) {
	owner, found, err := o.base.FindOwnerByProfileKey(ctx, bundle, keyField, keyValue)
	if err != nil {
		return Owner{}, false, err
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	if found {
		shadow, rewritten := o.profiles[profileKey{owner.ID, bundle}]
		if !rewritten || shadow.HasKey(keyField, keyValue) {
			return owner, true, nil
		}
	}

	var matches []*Profile
	for key, p := range o.profiles {
		if key.bundle == bundle && p.HasKey(keyField, keyValue) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return Owner{}, false, nil
	}
	// Overlay IDs count down, so the earliest write has the largest ID.
	sort.Slice(matches, func(i, j int) bool {
		return overlayOrder(matches[i].ID) < overlayOrder(matches[j].ID)
	})

	ownerID := matches[0].OwnerID
	if owner, ok := o.owners[ownerID]; ok {
		return owner, true, nil
	}
	owner, err = o.base.LoadOwner(ctx, ownerID)
	if err != nil {
		return Owner{}, false, err
	}
	return owner, true, nil
}

// overlayOrder maps profile IDs to write order: base IDs first, then
// overlay IDs from -1 downwards.
func overlayOrder(id int64) int64 {
	if id > 0 {
		return id - (1 << 62)
	}
	return -id
}

// LoadProfile returns the overlay copy of a profile, or a copy of the base one.
func (o *Overlay) LoadProfile(ctx context.Context, owner Owner, bundle string) (*Profile, bool, error) {
	o.mu.RLock()
	p, ok := o.profiles[profileKey{owner.ID, bundle}]
	o.mu.RUnlock()
	if ok {
		return p.Clone(), true, nil
	}
	if owner.ID < 0 {
		return nil, false, nil
	}
	base, found, err := o.base.LoadProfile(ctx, owner, bundle)
	if err != nil || !found {
		return nil, found, err
	}
	return base.Clone(), true, nil
}

// CreateProfile returns a new unsaved profile.
func (o *Overlay) CreateProfile(owner Owner, bundle string) *Profile {
	return NewProfile(owner.ID, bundle)
}

// SaveProfile records the profile in the overlay only.
func (o *Overlay) SaveProfile(_ context.Context, p *Profile) error {
	if p == nil {
		return errors.NewValidationError("profile", nil, "cannot be nil")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	key := profileKey{p.OwnerID, p.Bundle}
	if p.IsNew() {
		if _, ok := o.profiles[key]; ok {
			return errors.NewAlreadyExistsError("profile", p.Bundle)
		}
		p.ID = o.allocID()
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	o.profiles[key] = p.Clone()
	return nil
}

// ListOwners merges base owners with overlay owners when the base can list.
func (o *Overlay) ListOwners(ctx context.Context) ([]Owner, error) {
	var owners []Owner
	if lister, ok := o.base.(Lister); ok {
		base, err := lister.ListOwners(ctx)
		if err != nil {
			return nil, err
		}
		owners = append(owners, base...)
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	created := make([]Owner, 0, len(o.owners))
	for _, owner := range o.owners {
		created = append(created, owner)
	}
	sort.Slice(created, func(i, j int) bool { return created[i].ID > created[j].ID })
	return append(owners, created...), nil
}

// ListProfiles merges base profiles with their overlay replacements.
func (o *Overlay) ListProfiles(ctx context.Context, owner Owner) ([]*Profile, error) {
	var profiles []*Profile
	if lister, ok := o.base.(Lister); ok && owner.ID > 0 {
		base, err := lister.ListProfiles(ctx, owner)
		if err != nil {
			return nil, err
		}
		profiles = base
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]*Profile, 0, len(profiles))
	seen := make(map[string]bool)
	for _, p := range profiles {
		if shadow, ok := o.profiles[profileKey{owner.ID, p.Bundle}]; ok {
			out = append(out, shadow.Clone())
		} else {
			out = append(out, p)
		}
		seen[p.Bundle] = true
	}
	for key, p := range o.profiles {
		if key.ownerID == owner.ID && !seen[key.bundle] {
			out = append(out, p.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Bundle < out[j].Bundle })
	return out, nil
}
