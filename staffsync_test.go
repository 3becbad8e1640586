package staffsync_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FursAndrey/staffsync"
	pkgerrors "github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/logging"
	"github.com/FursAndrey/staffsync/pkg/profiles"
	"github.com/FursAndrey/staffsync/pkg/reconciler"
	"github.com/FursAndrey/staffsync/pkg/records"
	"github.com/FursAndrey/staffsync/pkg/sources"
	"github.com/FursAndrey/staffsync/pkg/sources/remote"
	"github.com/FursAndrey/staffsync/pkg/store/memory"
	pkgsync "github.com/FursAndrey/staffsync/pkg/sync"
)

const document = `
employees:
  - fiz_code: A
    FIO: Иванов Иван Иванович
    birth_date: "1980-01-05"
    email: a@example.com
    number: 300
  - fiz_code: B
    FIO: Петров Пётр Петрович
    birth_date: "1981-03-12"
family:
  - fiz_code: A
    fio: Иванова Мария
    relation: жена
    relation_code: 2
    birth_date: "1981-01-05"
  - fiz_code: A
    fio: Иванов Сергей
    relation: сын
    relation_code: 3
    birth_date: "2013-02-14"
`

func newClient(t *testing.T, opts ...staffsync.Option) staffsync.Client {
	t.Helper()
	c, err := staffsync.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "employees.yaml")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))
	return path
}

func TestNewDefaults(t *testing.T) {
	logging.DisableLoggingForTest(t)
	c := newClient(t)

	assert.Equal(t, "fixture", sources.NameOf(c.Source()))
	assert.Equal(t, reconciler.NotStarted, c.State())
	assert.Nil(t, c.LastResult())

	result, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, result.UsersProcessed)
	assert.Equal(t, 128, result.ProfilesCreated)
	assert.False(t, result.HasErrors())
	assert.Equal(t, reconciler.Completed, c.State())
	assert.Same(t, result, c.LastResult())
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  staffsync.Option
	}{
		{"nil store", staffsync.WithStore(nil)},
		{"empty sqlite path", staffsync.WithSQLite("")},
		{"nil source", staffsync.WithSource(nil)},
		{"empty source file", staffsync.WithSourceFile("")},
		{"empty source url", staffsync.WithSourceURL("")},
		{"non-http source url", staffsync.WithSourceURL("ftp://hr.example/export.yaml")},
		{"nil logger", staffsync.WithLogger(nil)},
		{"nil clock", staffsync.WithClock(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := staffsync.New(tt.opt)
			assert.True(t, pkgerrors.IsValidationError(err))
		})
	}
}

func TestSyncFromFileIntoSQLite(t *testing.T) {
	logging.DisableLoggingForTest(t)
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "staffsync.db")
	srcPath := writeDocument(t)

	c := newClient(t, staffsync.WithSQLite(dbPath), staffsync.WithSourceFile(srcPath))
	assert.Equal(t, srcPath, sources.NameOf(c.Source()))

	result, err := c.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.UsersProcessed)
	assert.Equal(t, 7, result.ProfilesCreated)
	assert.Empty(t, result.Errors)
	require.NoError(t, c.Close())

	// A second client on the same database sees the first run's owners.
	again := newClient(t, staffsync.WithSQLite(dbPath), staffsync.WithSourceFile(srcPath))
	result, err = again.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ProfilesCreated)
	assert.Equal(t, 7, result.ProfilesUpdated)

	owners, err := again.Owners(ctx)
	require.NoError(t, err)
	assert.Len(t, owners, 2)
}

func TestSyncFromURL(t *testing.T) {
	logging.DisableLoggingForTest(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(document))
	}))
	defer srv.Close()

	c := newClient(t, staffsync.WithSourceURL(srv.URL+"/export.yaml", remote.WithToken("s3cret")))
	assert.Equal(t, srv.URL+"/export.yaml", sources.NameOf(c.Source()))

	result, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.UsersProcessed)
	assert.Equal(t, 7, result.ProfilesCreated)

	denied := newClient(t, staffsync.WithSourceURL(srv.URL+"/export.yaml"))
	_, err = denied.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsSourceError(err))
}

func TestHooks(t *testing.T) {
	logging.DisableLoggingForTest(t)
	snapshot := sources.NewSnapshot("hooks", map[sources.Collection][]records.Record{
		sources.Employees: {
			{"fiz_code": "A", "FIO": "A"},
			{"fiz_code": "", "FIO": "nobody"},
			{"fiz_code": "B", "FIO": "B"},
		},
	})
	c := newClient(t, staffsync.WithSource(snapshot))

	var synced []string
	var failed []staffsync.Failure
	c.OnEmployeeSynced(func(o staffsync.EmployeeOutcome) { synced = append(synced, o.FizCode) })
	c.OnEmployeeSynced(func(o staffsync.EmployeeOutcome) {
		assert.Equal(t, []profiles.Category{profiles.Personal, profiles.Contact, profiles.Work}, o.Created)
	})
	c.OnEmployeeFailed(func(f staffsync.Failure) { failed = append(failed, f) })
	c.OnEmployeeFailed(nil)

	result, err := c.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, synced)
	require.Len(t, failed, 1)
	assert.Equal(t, pkgsync.FailureOwner, failed[0].Kind)
	assert.Equal(t, result.Failures, failed)
}

func TestSyncOptionsAndDefaults(t *testing.T) {
	logging.DisableLoggingForTest(t)
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newClient(t,
		staffsync.WithClock(func() time.Time { return clock }),
		staffsync.WithSyncDefaults(
			pkgsync.WithCategories(profiles.Personal),
			pkgsync.WithRunIDGenerator(func() string { return "run-1" }),
		),
	)

	result, err := c.Sync(context.Background(), pkgsync.WithDryRun(true))
	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, clock, result.StartedAt)
	assert.True(t, result.DryRun)
	assert.Equal(t, 20, result.ProfilesCreated)

	owners, err := c.Owners(context.Background())
	require.NoError(t, err)
	assert.Empty(t, owners, "dry run persists nothing")
}

func TestProfiles(t *testing.T) {
	logging.DisableLoggingForTest(t)
	ctx := context.Background()
	c := newClient(t, staffsync.WithSourceFile(writeDocument(t)))

	_, err := c.Profiles(ctx, "A")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = c.Sync(ctx)
	require.NoError(t, err)

	view, err := c.Profiles(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "fiz_A", view.Owner.Name)
	assert.Len(t, view.Profiles, 4)

	family, ok := view.Profile(profiles.Family)
	require.True(t, ok)
	assert.Equal(t, 2, family.Rows())

	_, ok = view.Profile(profiles.Medical)
	assert.False(t, ok)

	view, err = c.Profiles(ctx, "B")
	require.NoError(t, err)
	assert.Len(t, view.Profiles, 3, "no family rows, no family profile")
}

func TestPurge(t *testing.T) {
	logging.DisableLoggingForTest(t)
	ctx := context.Background()
	c := newClient(t, staffsync.WithSourceFile(writeDocument(t)))

	_, err := c.Sync(ctx)
	require.NoError(t, err)

	deleted, err := c.Purge(ctx, profiles.Family)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	view, err := c.Profiles(ctx, "A")
	require.NoError(t, err)
	_, ok := view.Profile(profiles.Family)
	assert.False(t, ok)

	// The next sync recreates the purged bundle.
	result, err := c.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProfilesCreated)

	// Owners keep their identity when the personal bundle is purged.
	deleted, err = c.Purge(ctx, profiles.Personal)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	view, err = c.Profiles(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "fiz_A", view.Owner.Name)
	assert.Len(t, view.Profiles, 3)

	result, err = c.Sync(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.UsersProcessed)
	assert.Equal(t, 2, result.ProfilesCreated)

	owners, err := c.Owners(ctx)
	require.NoError(t, err)
	assert.Len(t, owners, 2)

	_, err = c.Purge(ctx, profiles.Category(0))
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestCloseLeavesBorrowedStoreOpen(t *testing.T) {
	logging.DisableLoggingForTest(t)
	ctx := context.Background()
	s := memory.New()
	c, err := staffsync.New(staffsync.WithStore(s), staffsync.WithSourceFile(writeDocument(t)))
	require.NoError(t, err)

	_, err = c.Sync(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	owners, err := s.ListOwners(ctx)
	require.NoError(t, err)
	assert.Len(t, owners, 2)
}

func TestSyncLogsThroughClientLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)
	c := newClient(t,
		staffsync.WithLogger(tl.Logger),
		staffsync.WithSourceFile(writeDocument(t)),
	)

	_, err := c.Sync(context.Background())
	require.NoError(t, err)
	tl.AssertContains(t, "Sync completed")
}
