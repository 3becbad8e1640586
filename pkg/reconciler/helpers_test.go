package reconciler_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FursAndrey/staffsync/pkg/constants"
	"github.com/FursAndrey/staffsync/pkg/profiles"
	"github.com/FursAndrey/staffsync/pkg/records"
	"github.com/FursAndrey/staffsync/pkg/sources"
	"github.com/FursAndrey/staffsync/pkg/store"
	"github.com/FursAndrey/staffsync/pkg/store/memory"
	"github.com/FursAndrey/staffsync/pkg/store/sqlite"
)

// backends lists the stores every reconciler property is checked against.
var backends = map[string]func(t *testing.T) store.Store{
	"memory": func(t *testing.T) store.Store {
		return memory.New()
	},
	"sqlite": func(t *testing.T) store.Store {
		s, err := sqlite.Open(filepath.Join(t.TempDir(), "staffsync.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	},
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s store.Store)) {
	t.Helper()
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func employeeA() records.Record {
	return records.Record{
		"FIO":           "Иванов Иван Иванович",
		"birth_date":    "1980-01-05",
		"enter_date":    "2010-01-05",
		"fired_date":    "",
		"fiz_code":      "A",
		"unit":          "01",
		"position":      "Руководитель",
		"position_type": "01",
		"phone":         "+79001230001",
		"inner_phone":   "10-01",
		"email":         "a@example.com",
		"address":       "г. Москва",
		"number":        300,
	}
}

func employeeB() records.Record {
	return records.Record{
		"FIO":        "Петров Пётр Петрович",
		"birth_date": "1981-03-12",
		"fiz_code":   "B",
		"email":      "b@example.com",
		"number":     "301",
	}
}

func familyRow(code, fio string, relationCode int, birth string) records.Record {
	return records.Record{
		"fiz_code":      code,
		"fio":           fio,
		"relation":      "сын",
		"relation_code": relationCode,
		"birth_date":    birth,
	}
}

// twoEmployees has A with two family members and B with none.
func twoEmployees() *sources.Snapshot {
	return sources.NewSnapshot("test", map[sources.Collection][]records.Record{
		sources.Employees: {employeeA(), employeeB()},
		sources.Family: {
			familyRow("A", "Иванова Мария", 2, "1981-01-05"),
			familyRow("A", "Иванов Сергей", 3, " 2013-02-14 "),
		},
	})
}

func ownerFor(t *testing.T, s store.EntityStore, fizCode string) store.Owner {
	t.Helper()
	owner, found, err := s.FindOwnerByProfileKey(context.Background(),
		profiles.Personal.Bundle(), constants.OwnerKeyField, fizCode)
	require.NoError(t, err)
	require.True(t, found, "no owner for %s", fizCode)
	return owner
}

func profileFor(t *testing.T, s store.EntityStore, fizCode string, c profiles.Category) *store.Profile {
	t.Helper()
	p, found, err := s.LoadProfile(context.Background(), ownerFor(t, s, fizCode), c.Bundle())
	require.NoError(t, err)
	require.True(t, found, "no %s profile for %s", c, fizCode)
	return p
}

func countOwners(t *testing.T, s store.Lister) int {
	t.Helper()
	owners, err := s.ListOwners(context.Background())
	require.NoError(t, err)
	return len(owners)
}

// faultyStore injects failures into selected calls of a real store.
type faultyStore struct {
	store.Store
	createOwner func(attrs store.OwnerAttrs) error
	save        func(ctx context.Context, p *store.Profile) error
}

func (f *faultyStore) CreateOwner(ctx context.Context, attrs store.OwnerAttrs) (store.Owner, error) {
	if f.createOwner != nil {
		if err := f.createOwner(attrs); err != nil {
			return store.Owner{}, err
		}
	}
	return f.Store.CreateOwner(ctx, attrs)
}

func (f *faultyStore) SaveProfile(ctx context.Context, p *store.Profile) error {
	if f.save != nil {
		if err := f.save(ctx, p); err != nil {
			return err
		}
	}
	return f.Store.SaveProfile(ctx, p)
}

// ownedBy reports whether p belongs to the owner resolved for fizCode.
func (f *faultyStore) ownedBy(ctx context.Context, p *store.Profile, fizCode string) bool {
	owner, found, err := f.Store.FindOwnerByProfileKey(ctx,
		profiles.Personal.Bundle(), constants.OwnerKeyField, fizCode)
	return err == nil && found && owner.ID == p.OwnerID
}

// failingSource fails reading one collection.
type failingSource struct {
	*sources.Snapshot
	fail sources.Collection
	err  error
}

func (f failingSource) Employees(ctx context.Context) ([]records.Record, error) {
	if f.fail == sources.Employees {
		return nil, f.err
	}
	return f.Snapshot.Employees(ctx)
}

func (f failingSource) Family(ctx context.Context) ([]records.Record, error) {
	if f.fail == sources.Family {
		return nil, f.err
	}
	return f.Snapshot.Family(ctx)
}
