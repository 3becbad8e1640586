package app

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FursAndrey/staffsync"
	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/logging"
)

func memoryConfig() *Config {
	return &Config{
		Store:     StoreMemory,
		Source:    SourceFixture,
		LogFormat: "json",
		LogOutput: "stderr",
	}
}

// newTestApp returns an app on the in-memory store and the built-in dataset.
func newTestApp(t *testing.T, opts ...Option) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{
		WithConfig(memoryConfig()),
		WithLogger(logging.NewNopLogger()),
		WithOutput(&out),
	}, opts...)

	app, err := New("1.0.0", "abc123", "2025-01-01", "test", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app, &out
}

func run(t *testing.T, app *App, out *bytes.Buffer, args ...string) string {
	t.Helper()
	out.Reset()
	require.NoError(t, app.Execute(context.Background(), args))
	return out.String()
}

func TestNew(t *testing.T) {
	app, _ := newTestApp(t)

	assert.Equal(t, "1.0.0", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2025-01-01", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Config())
	assert.Equal(t, "", app.OutputFormat())
}

func TestClientSingleton(t *testing.T) {
	app, _ := newTestApp(t)

	const goroutines = 20
	var wg sync.WaitGroup
	clients := make([]staffsync.Client, goroutines)
	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			c, err := app.Client()
			assert.NoError(t, err)
			clients[idx] = c
		}(i)
	}
	wg.Wait()

	for _, c := range clients[1:] {
		assert.Same(t, clients[0], c)
	}
}

func TestClientRejectsInvalidConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.Store = "postgres"
	app, _ := newTestApp(t, WithConfig(cfg))

	_, err := app.Client()
	var configErr *errors.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "store", configErr.Component)
}

func TestShutdownWithoutClient(t *testing.T) {
	app, _ := newTestApp(t)
	assert.NoError(t, app.Shutdown(context.Background()))
}

func TestExecuteSync(t *testing.T) {
	app, out := newTestApp(t)

	var result staffsync.Result
	require.NoError(t, json.Unmarshal([]byte(run(t, app, out, "sync", "-o", "json")), &result))
	assert.Equal(t, 20, result.UsersProcessed)
	assert.Equal(t, 128, result.ProfilesCreated)
	assert.Empty(t, result.Errors)

	// The second run in the same process updates everything.
	require.NoError(t, json.Unmarshal([]byte(run(t, app, out, "sync", "-o", "json")), &result))
	assert.Equal(t, 0, result.ProfilesCreated)
	assert.Equal(t, 128, result.ProfilesUpdated)
}

func TestExecuteSyncFlags(t *testing.T) {
	app, out := newTestApp(t)

	var result staffsync.Result
	text := run(t, app, out, "sync", "--dry-run", "--category", "personal,family", "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.True(t, result.DryRun)
	assert.Equal(t, 40, result.ProfilesCreated)
	assert.Len(t, result.Categories, 2)

	text = run(t, app, out, "profiles", "-o", "json")
	assert.JSONEq(t, `[]`, text, "dry run persists nothing")

	err := app.Execute(context.Background(), []string{"sync", "--category", "salary"})
	assert.True(t, errors.IsValidationError(err))
}

func TestExecuteSyncTable(t *testing.T) {
	app, out := newTestApp(t)

	text := run(t, app, out, "sync", "-o", "table")
	assert.Contains(t, text, "20 users processed: 128 profiles created, 0 updated, 0 errors")
	assert.Contains(t, text, "Violation")
	assert.NotContains(t, text, "Failures:")
}

func TestExecuteProfiles(t *testing.T) {
	app, out := newTestApp(t)
	run(t, app, out, "sync", "-o", "json")

	var owners []map[string]any
	require.NoError(t, json.Unmarshal([]byte(run(t, app, out, "profiles", "-o", "json")), &owners))
	assert.Len(t, owners, 20)

	var view staffsync.OwnerProfiles
	require.NoError(t, json.Unmarshal([]byte(run(t, app, out, "profiles", "AdVUAlmVdy", "-o", "json")), &view))
	assert.Equal(t, "fiz_AdVUAlmVdy", view.Owner.Name)
	assert.Len(t, view.Profiles, 7)

	err := app.Execute(context.Background(), []string{"profiles", "missing"})
	assert.True(t, errors.IsNotFound(err))
}

func TestExecutePurge(t *testing.T) {
	app, out := newTestApp(t)
	run(t, app, out, "sync", "-o", "json")

	err := app.Execute(context.Background(), []string{"purge", "family"})
	assert.True(t, errors.IsValidationError(err), "purge needs --yes")

	text := run(t, app, out, "purge", "family", "--yes")
	assert.Equal(t, "Deleted 20 family_information profiles\n", text)

	err = app.Execute(context.Background(), []string{"purge", "salary", "-y"})
	assert.True(t, errors.IsValidationError(err))
}

func TestExecuteSource(t *testing.T) {
	app, out := newTestApp(t)

	var family []map[string]any
	require.NoError(t, json.Unmarshal([]byte(run(t, app, out, "source", "family", "-o", "json")), &family))
	assert.Len(t, family, 61)

	var doc map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(run(t, app, out, "source", "-o", "json")), &doc))
	assert.Len(t, doc["employees"], 20)
	assert.Len(t, doc["violations"], 22)

	text := run(t, app, out, "source", "-o", "table")
	assert.Contains(t, text, "Employees")
	assert.Contains(t, text, "61")

	err := app.Execute(context.Background(), []string{"source", "salaries"})
	assert.True(t, errors.IsValidationError(err))
}

func TestExecuteVersion(t *testing.T) {
	app, out := newTestApp(t)

	text := run(t, app, out, "version")
	assert.Contains(t, text, "staffsync version 1.0.0")
	assert.Contains(t, text, "commit: abc123")
}

func TestExecuteBackendFlags(t *testing.T) {
	app, out := newTestApp(t)
	dbPath := filepath.Join(t.TempDir(), "nested", "staffsync.db")

	var result staffsync.Result
	text := run(t, app, out, "sync", "--store", "sqlite", "--database", dbPath, "--category", "personal", "-o", "json")
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.Equal(t, 20, result.ProfilesCreated)
	assert.Equal(t, StoreSQLite, app.Config().Store)
	assert.FileExists(t, dbPath)

	err := app.Execute(context.Background(), []string{"version", "--store", "bogus"})
	var configErr *errors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}
