package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FursAndrey/staffsync/pkg/store"
	"github.com/FursAndrey/staffsync/pkg/store/storetest"
)

// createTestStore opens a fresh database file under t.TempDir.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T, now func() time.Time) store.Store {
		path := filepath.Join(t.TempDir(), "contract.db")
		s, err := Open(path, WithClock(now))
		require.NoError(t, err)
		return s
	})
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		var got string
		require.NoError(t, s.db.QueryRow("PRAGMA "+tt.pragma).Scan(&got))
		assert.Equal(t, tt.want, got, tt.pragma)
	}

	version, err := s.schemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "staffsync.db")

	s, err := Open(path)
	require.NoError(t, err)
	owner, err := s.CreateOwner(ctx, store.OwnerAttrs{Name: "fiz_PVgFuCWFzA", Active: true})
	require.NoError(t, err)
	p := s.CreateProfile(owner, "personal_information")
	require.NoError(t, p.Set("field_personal_fiz_code", "PVgFuCWFzA"))
	require.NoError(t, s.SaveProfile(ctx, p))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	found, ok, err := reopened.FindOwnerByProfileKey(ctx, "personal_information", "field_personal_fiz_code", "PVgFuCWFzA")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, owner.ID, found.ID)
	assert.Equal(t, path, reopened.Path())
}

func TestMigrationFromVersionZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// Simulate a database created before the lookup index existed.
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("DROP INDEX idx_profile_values_lookup")
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 0")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var name string
	err = s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_profile_values_lookup'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_profile_values_lookup", name)
}

func TestSaveProfileRollsBackOnBadValue(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	owner, err := s.CreateOwner(ctx, store.OwnerAttrs{Name: "fiz_gnzfrmZTop", Active: true})
	require.NoError(t, err)

	p := s.CreateProfile(owner, "med_information")
	require.NoError(t, p.SetList("field_med_amount", []any{100}))
	// Bypass Set to plant a value the store cannot encode.
	p.Fields["field_med_visit_date"] = []store.Value{struct{}{}}

	err = s.SaveProfile(ctx, p)
	require.Error(t, err)
	assert.True(t, p.IsNew(), "failed save must not assign an ID")

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&count))
	assert.Zero(t, count)
}

func TestValueEncoding(t *testing.T) {
	tests := []struct {
		in   store.Value
		kind string
		text sql.NullString
	}{
		{nil, kindNull, sql.NullString{}},
		{"abc", kindString, sql.NullString{String: "abc", Valid: true}},
		{int64(-3), kindInt, sql.NullString{String: "-3", Valid: true}},
		{1.5, kindFloat, sql.NullString{String: "1.5", Valid: true}},
		{false, kindBool, sql.NullString{String: "0", Valid: true}},
	}
	for _, tt := range tests {
		kind, text, err := encodeValue(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.kind, kind)
		assert.Equal(t, tt.text, text)

		back, err := decodeValue(kind, text)
		require.NoError(t, err)
		assert.Equal(t, tt.in, back)
	}

	_, err := decodeValue("blob", sql.NullString{String: "x", Valid: true})
	assert.Error(t, err)
}
