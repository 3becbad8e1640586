// Package storetest holds the behavioral contract every store.Store backend
// must satisfy. Backends call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/store"
)

// Factory opens an empty store using now as its clock.
type Factory func(t *testing.T, now func() time.Time) store.Store

// Epoch is the fixed time the contract clock starts at.
var Epoch = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// Run executes the store contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	open := func(t *testing.T) store.Store {
		t.Helper()
		s := newStore(t, func() time.Time { return Epoch })
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("owners", func(t *testing.T) { testOwners(t, open(t)) })
	t.Run("profile round trip", func(t *testing.T) { testProfileRoundTrip(t, open(t)) })
	t.Run("profile replace", func(t *testing.T) { testProfileReplace(t, open(t)) })
	t.Run("one profile per owner and bundle", func(t *testing.T) { testProfileUniqueness(t, open(t)) })
	t.Run("find owner by profile key", func(t *testing.T) { testFindOwnerByProfileKey(t, open(t)) })
	t.Run("list", func(t *testing.T) { testList(t, open(t)) })
	t.Run("delete profiles", func(t *testing.T) { testDeleteProfiles(t, open(t)) })
	t.Run("overlay isolates writes", func(t *testing.T) { testOverlay(t, open(t)) })
}

func mustOwner(t *testing.T, s store.Store, name string) store.Owner {
	t.Helper()
	owner, err := s.CreateOwner(context.Background(), store.OwnerAttrs{Name: name, Active: true})
	require.NoError(t, err)
	return owner
}

func mustSave(t *testing.T, s store.EntityStore, owner store.Owner, bundle string, values map[string]any) *store.Profile {
	t.Helper()
	ctx := context.Background()
	p, found, err := s.LoadProfile(ctx, owner, bundle)
	require.NoError(t, err)
	if !found {
		p = s.CreateProfile(owner, bundle)
	}
	for name, v := range values {
		if list, ok := v.([]any); ok {
			require.NoError(t, p.SetList(name, list))
			continue
		}
		require.NoError(t, p.Set(name, v))
	}
	require.NoError(t, s.SaveProfile(ctx, p))
	return p
}

func testOwners(t *testing.T, s store.Store) {
	ctx := context.Background()

	mail := "fiz@example.com"
	owner, err := s.CreateOwner(ctx, store.OwnerAttrs{Name: "fiz_AdVUAlmVdy", Mail: &mail, Active: true})
	require.NoError(t, err)
	assert.Positive(t, owner.ID)
	assert.True(t, owner.CreatedAt.Equal(Epoch))

	loaded, err := s.LoadOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "fiz_AdVUAlmVdy", loaded.Name)
	assert.True(t, loaded.Active)
	require.NotNil(t, loaded.Mail)
	assert.Equal(t, mail, *loaded.Mail)

	noMail := mustOwner(t, s, "fiz_jyxDsKrUFM")
	loaded, err = s.LoadOwner(ctx, noMail.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.Mail)
	assert.NotEqual(t, owner.ID, noMail.ID)

	_, err = s.CreateOwner(ctx, store.OwnerAttrs{Name: "fiz_AdVUAlmVdy"})
	assert.True(t, errors.IsAlreadyExists(err), "duplicate owner name: %v", err)

	_, err = s.CreateOwner(ctx, store.OwnerAttrs{})
	assert.True(t, errors.IsValidationError(err))

	_, err = s.LoadOwner(ctx, 9999)
	assert.True(t, errors.IsNotFound(err))

	byName, found, err := s.FindOwnerByName(ctx, "fiz_jyxDsKrUFM")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, noMail.ID, byName.ID)

	_, found, err = s.FindOwnerByName(ctx, "fiz_missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func testProfileRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := mustOwner(t, s, "fiz_oA80a12fi9")

	_, found, err := s.LoadProfile(ctx, owner, "personal_information")
	require.NoError(t, err)
	assert.False(t, found)

	p := s.CreateProfile(owner, "personal_information")
	assert.True(t, p.IsNew())
	assert.Equal(t, owner.ID, p.OwnerID)

	require.NoError(t, p.Set("field_personal_fio", "Ivanov Ivan"))
	require.NoError(t, p.Set("field_work_number", 301))
	require.NoError(t, p.Set("field_ratio", 0.25))
	require.NoError(t, p.Set("field_flag", true))
	require.NoError(t, p.SetList("field_med_amount", []any{1500, nil, "n/a"}))
	require.NoError(t, s.SaveProfile(ctx, p))
	assert.False(t, p.IsNew())
	assert.True(t, p.CreatedAt.Equal(Epoch))

	loaded, found, err := s.LoadProfile(ctx, owner, "personal_information")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, p.ID, loaded.ID)
	assert.Equal(t, "personal_information", loaded.Bundle)

	v, ok := loaded.Get("field_personal_fio")
	require.True(t, ok)
	assert.Equal(t, "Ivanov Ivan", v)
	v, _ = loaded.Get("field_work_number")
	assert.Equal(t, int64(301), v)
	v, _ = loaded.Get("field_ratio")
	assert.Equal(t, 0.25, v)
	v, _ = loaded.Get("field_flag")
	assert.Equal(t, true, v)
	assert.Equal(t, []store.Value{int64(1500), nil, "n/a"}, loaded.List("field_med_amount"))

	// Loaded profiles are copies.
	require.NoError(t, loaded.Set("field_personal_fio", "changed"))
	again, _, err := s.LoadProfile(ctx, owner, "personal_information")
	require.NoError(t, err)
	v, _ = again.Get("field_personal_fio")
	assert.Equal(t, "Ivanov Ivan", v)
}

func testProfileReplace(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := mustOwner(t, s, "fiz_3vaj94Dh1E")

	first := mustSave(t, s, owner, "family_information", map[string]any{
		"field_fam_fio":      []any{"A", "B", "C"},
		"field_fam_relation": []any{"wife", "son", "daughter"},
	})

	p, found, err := s.LoadProfile(ctx, owner, "family_information")
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, p.SetList("field_fam_fio", []any{"A", "D"}))
	p.Clear("field_fam_relation")
	require.NoError(t, s.SaveProfile(ctx, p))
	assert.Equal(t, first.ID, p.ID)

	loaded, _, err := s.LoadProfile(ctx, owner, "family_information")
	require.NoError(t, err)
	assert.Equal(t, []store.Value{"A", "D"}, loaded.List("field_fam_fio"))
	_, ok := loaded.Get("field_fam_relation")
	assert.False(t, ok, "cleared field must be absent")
	assert.Equal(t, []string{"field_fam_fio"}, loaded.FieldNames())
}

func testProfileUniqueness(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := mustOwner(t, s, "fiz_0frZxKU5kQ")

	mustSave(t, s, owner, "work_information", map[string]any{"field_work_unit": "IT"})

	dup := s.CreateProfile(owner, "work_information")
	require.NoError(t, dup.Set("field_work_unit", "HR"))
	err := s.SaveProfile(ctx, dup)
	assert.True(t, errors.IsAlreadyExists(err), "second profile for the same bundle: %v", err)

	orphan := s.CreateProfile(store.Owner{ID: 4242}, "work_information")
	err = s.SaveProfile(ctx, orphan)
	assert.True(t, errors.IsNotFound(err), "profile for missing owner: %v", err)
}

func testFindOwnerByProfileKey(t *testing.T, s store.Store) {
	ctx := context.Background()
	const bundle, key = "personal_information", "field_personal_fiz_code"

	_, found, err := s.FindOwnerByProfileKey(ctx, bundle, key, "ibOdlwSeXI")
	require.NoError(t, err)
	assert.False(t, found)

	first := mustOwner(t, s, "fiz_ibOdlwSeXI")
	second := mustOwner(t, s, "fiz_pa4ixLPZoB")
	mustSave(t, s, first, bundle, map[string]any{key: "ibOdlwSeXI"})
	mustSave(t, s, second, bundle, map[string]any{key: "pa4ixLPZoB"})
	mustSave(t, s, second, "contact_information", map[string]any{key: "ibOdlwSeXI"})

	owner, found, err := s.FindOwnerByProfileKey(ctx, bundle, key, "ibOdlwSeXI")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.ID, owner.ID, "other bundles must not match")

	owner, found, err = s.FindOwnerByProfileKey(ctx, bundle, key, "pa4ixLPZoB")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second.ID, owner.ID)

	// Two profiles carrying the same key: the earliest profile wins.
	third := mustOwner(t, s, "fiz_dup")
	mustSave(t, s, third, bundle, map[string]any{key: "ibOdlwSeXI"})
	owner, _, err = s.FindOwnerByProfileKey(ctx, bundle, key, "ibOdlwSeXI")
	require.NoError(t, err)
	assert.Equal(t, first.ID, owner.ID)
}

func testList(t *testing.T, s store.Store) {
	ctx := context.Background()

	owners, err := s.ListOwners(ctx)
	require.NoError(t, err)
	assert.Empty(t, owners)

	a := mustOwner(t, s, "fiz_a")
	b := mustOwner(t, s, "fiz_b")
	mustSave(t, s, a, "work_information", map[string]any{"field_work_unit": "IT"})
	mustSave(t, s, a, "contact_information", map[string]any{"field_contact_email": "a@example.com"})

	owners, err = s.ListOwners(ctx)
	require.NoError(t, err)
	require.Len(t, owners, 2)
	assert.Equal(t, a.ID, owners[0].ID)
	assert.Equal(t, b.ID, owners[1].ID)

	profiles, err := s.ListProfiles(ctx, a)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "contact_information", profiles[0].Bundle)
	assert.Equal(t, "work_information", profiles[1].Bundle)
	v, _ := profiles[1].Get("field_work_unit")
	assert.Equal(t, "IT", v)

	profiles, err = s.ListProfiles(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func testDeleteProfiles(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := mustOwner(t, s, "fiz_P0Z1JyjcBC")
	b := mustOwner(t, s, "fiz_TuFcUnUu5i")
	mustSave(t, s, a, "med_information", map[string]any{"field_med_amount": []any{100, 200}})
	mustSave(t, s, b, "med_information", map[string]any{"field_med_amount": []any{300}})
	mustSave(t, s, a, "work_information", map[string]any{"field_work_unit": "IT"})

	n, err := s.DeleteProfiles(ctx, "med_information")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, found, err := s.LoadProfile(ctx, a, "med_information")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = s.LoadProfile(ctx, a, "work_information")
	require.NoError(t, err)
	assert.True(t, found)

	owners, err := s.ListOwners(ctx)
	require.NoError(t, err)
	assert.Len(t, owners, 2, "owners survive a purge")

	n, err = s.DeleteProfiles(ctx, "med_information")
	require.NoError(t, err)
	assert.Zero(t, n)

	// The bundle can be recreated afterwards.
	mustSave(t, s, a, "med_information", map[string]any{"field_med_amount": []any{1}})
}

func testOverlay(t *testing.T, s store.Store) {
	ctx := context.Background()
	const bundle, key = "personal_information", "field_personal_fiz_code"

	existing := mustOwner(t, s, "fiz_vl7WaqD1D3")
	mustSave(t, s, existing, bundle, map[string]any{key: "vl7WaqD1D3", "field_personal_fio": "Old"})

	o := store.NewOverlay(s)

	// Base data is visible through the overlay.
	owner, found, err := o.FindOwnerByProfileKey(ctx, bundle, key, "vl7WaqD1D3")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, existing.ID, owner.ID)

	mustSave(t, o, owner, bundle, map[string]any{key: "vl7WaqD1D3", "field_personal_fio": "New"})

	created, err := o.CreateOwner(ctx, store.OwnerAttrs{Name: "fiz_zajhQxB6gV", Active: true})
	require.NoError(t, err)
	assert.Negative(t, created.ID)
	mustSave(t, o, created, bundle, map[string]any{key: "zajhQxB6gV"})

	_, err = o.CreateOwner(ctx, store.OwnerAttrs{Name: "fiz_vl7WaqD1D3"})
	assert.True(t, errors.IsAlreadyExists(err), "overlay must see base owner names")

	byName, found, err := o.FindOwnerByName(ctx, "fiz_zajhQxB6gV")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.ID, byName.ID)
	byName, found, err = o.FindOwnerByName(ctx, "fiz_vl7WaqD1D3")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, existing.ID, byName.ID)

	owner, found, err = o.FindOwnerByProfileKey(ctx, bundle, key, "zajhQxB6gV")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.ID, owner.ID)

	p, _, err := o.LoadProfile(ctx, existing, bundle)
	require.NoError(t, err)
	v, _ := p.Get("field_personal_fio")
	assert.Equal(t, "New", v)

	owners, profiles := o.Pending()
	assert.Equal(t, 1, owners)
	assert.Equal(t, 2, profiles)

	// The base store is untouched.
	p, _, err = s.LoadProfile(ctx, existing, bundle)
	require.NoError(t, err)
	v, _ = p.Get("field_personal_fio")
	assert.Equal(t, "Old", v)
	_, found, err = s.FindOwnerByProfileKey(ctx, bundle, key, "zajhQxB6gV")
	require.NoError(t, err)
	assert.False(t, found)
	all, err := s.ListOwners(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	merged, err := o.ListOwners(ctx)
	require.NoError(t, err)
	assert.Len(t, merged, 2)
}
