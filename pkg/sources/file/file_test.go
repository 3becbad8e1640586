package file_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/sources"
	"github.com/FursAndrey/staffsync/pkg/sources/file"
)

func writeDoc(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSourceYAML(t *testing.T) {
	path := writeDoc(t, "staff.yaml", `
employees:
  - fiz_code: "A1"
    FIO: "Иванов Иван"
violations:
  - fiz_code: "A1"
    violation_date: "2025-03-12"
    violation_code: 1
`)
	src := file.New(path)
	assert.Equal(t, path, src.Name())

	employees, err := src.Employees(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "Иванов Иван", employees[0].String("FIO"))

	violations, err := src.Violations(context.Background())
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "1", violations[0].String("violation_code"))

	family, err := src.Family(context.Background())
	require.NoError(t, err)
	assert.Empty(t, family)
}

func TestSourceJSON(t *testing.T) {
	path := writeDoc(t, "staff.json", `{"employees": [{"fiz_code": "J1"}, {"fiz_code": "J2"}]}`)

	employees, err := file.New(path).Employees(context.Background())
	require.NoError(t, err)
	assert.Len(t, employees, 2)
}

func TestSourceReadsOnce(t *testing.T) {
	reads := 0
	src := file.New("virtual.yaml", file.WithReadFile(func(string) ([]byte, error) {
		reads++
		return []byte("employees:\n  - fiz_code: A\n"), nil
	}))

	ctx := context.Background()
	_, err := src.Employees(ctx)
	require.NoError(t, err)
	_, err = src.Medical(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reads)

	src.Reset()
	_, err = src.Education(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, reads)
}

func TestSourceMissingFile(t *testing.T) {
	src := file.New(filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := src.Employees(context.Background())
	require.Error(t, err)
	var ioErr *pkgerrors.IOError
	assert.True(t, errors.As(err, &ioErr))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = sources.Load(context.Background(), src)
	assert.True(t, pkgerrors.IsSourceError(err))
}

func TestSourceMalformed(t *testing.T) {
	path := writeDoc(t, "bad.yaml", "cars:\n  - fiz_code: A\n")

	_, err := file.New(path).Family(context.Background())
	var perr *pkgerrors.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "yaml", perr.Format)
	assert.Equal(t, path, perr.File)
}

func TestSourceCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := file.New("unused.yaml").Employees(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
