package purge

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FursAndrey/staffsync"
	"github.com/FursAndrey/staffsync/internal/appcontext"
	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/records"
	"github.com/FursAndrey/staffsync/pkg/sources"
)

func newClient(t *testing.T) staffsync.Client {
	t.Helper()
	snapshot := sources.NewSnapshot("purge", map[sources.Collection][]records.Record{
		sources.Employees: {{"fiz_code": "A", "FIO": "Иванов Иван"}},
		sources.Family: {
			{"fiz_code": "A", "fio": "Иванова Мария", "relation": "жена"},
		},
	})
	nop := zerolog.Nop()
	c, err := staffsync.New(staffsync.WithSource(snapshot), staffsync.WithLogger(&nop))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.Sync(context.Background())
	require.NoError(t, err)
	return c
}

func execute(app appcontext.Interface, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPurge(t *testing.T) {
	client := newClient(t)
	app := &appcontext.Mock{ClientFunc: func() (staffsync.Client, error) { return client, nil }}

	out, err := execute(app, "family", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Deleted 1 family_information profiles\n", out)

	out, err = execute(app, "family_information", "-y")
	require.NoError(t, err)
	assert.Equal(t, "Deleted 0 family_information profiles\n", out)
}

func TestPurgePersonalThenSync(t *testing.T) {
	client := newClient(t)
	app := &appcontext.Mock{ClientFunc: func() (staffsync.Client, error) { return client, nil }}

	out, err := execute(app, "personal", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Deleted 1 personal_information profiles\n", out)

	result, err := client.Sync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.UsersProcessed)

	owners, err := client.Owners(context.Background())
	require.NoError(t, err)
	assert.Len(t, owners, 1)
}

func TestPurgeRequiresConfirmation(t *testing.T) {
	called := false
	app := &appcontext.Mock{ClientFunc: func() (staffsync.Client, error) {
		called = true
		return nil, errors.New("unexpected")
	}}

	_, err := execute(app, "medical")
	assert.True(t, errors.IsValidationError(err))
	assert.Contains(t, err.Error(), "--yes")
	assert.False(t, called, "no client is opened without confirmation")
}

func TestPurgeUnknownCategory(t *testing.T) {
	_, err := execute(&appcontext.Mock{}, "payroll", "--yes")
	assert.True(t, errors.IsValidationError(err))
}

func TestCategoryNames(t *testing.T) {
	names := categoryNames()
	assert.Len(t, names, 7)
	assert.Contains(t, names, "family")
}
