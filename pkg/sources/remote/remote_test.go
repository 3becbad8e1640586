package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FursAndrey/staffsync/internal/transport"
	pkgerrors "github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/records"
	"github.com/FursAndrey/staffsync/pkg/sources"
	"github.com/FursAndrey/staffsync/pkg/sources/remote"
)

const exportYAML = `
employees:
  - fiz_code: "R1"
    FIO: "Петров Пётр"
  - fiz_code: "R2"
family:
  - fiz_code: "R1"
    family_member: "дочь"
`

func serve(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSourceFetchesOnce(t *testing.T) {
	var hits int32
	srv := serve(t, exportYAML, &hits)

	src, err := remote.New(srv.URL+"/export.yaml", remote.WithToken("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/export.yaml", src.Name())

	var _ sources.RecordSource = src

	employees, err := src.Employees(context.Background())
	require.NoError(t, err)
	want := []records.Record{
		{"fiz_code": "R1", "FIO": "Петров Пётр"},
		{"fiz_code": "R2"},
	}
	if diff := cmp.Diff(want, employees); diff != "" {
		t.Errorf("employees mismatch (-want +got):\n%s", diff)
	}

	family, err := src.Family(context.Background())
	require.NoError(t, err)
	assert.Len(t, family, 1)

	medical, err := src.Medical(context.Background())
	require.NoError(t, err)
	assert.Empty(t, medical)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	snap, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, src.Name(), snap.Name())

	src.Reset()
	_, err = src.Violations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSourceCacheTTL(t *testing.T) {
	var hits int32
	srv := serve(t, exportYAML, &hits)

	src, err := remote.New(srv.URL+"/export.yaml", remote.WithToken("s3cret"), remote.WithCacheTTL(50*time.Millisecond))
	require.NoError(t, err)

	_, err = src.Employees(context.Background())
	require.NoError(t, err)
	_, err = src.Family(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	time.Sleep(100 * time.Millisecond)
	_, err = src.Employees(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "expired snapshot is fetched again")
}

func TestSourceJSONByExtension(t *testing.T) {
	var hits int32
	srv := serve(t, `{"employees": [{"fiz_code": "J1"}]}`, &hits)

	src, err := remote.New(srv.URL+"/export.json?day=today", remote.WithToken("s3cret"))
	require.NoError(t, err)
	employees, err := src.Employees(context.Background())
	require.NoError(t, err)
	assert.Len(t, employees, 1)
}

func TestSourceHeaderAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Export-Key") != "k" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(exportYAML))
	}))
	defer srv.Close()

	src, err := remote.New(srv.URL+"/export", remote.WithAuth(&transport.HeaderAuth{Header: "X-Export-Key"}, "k"))
	require.NoError(t, err)
	employees, err := src.Employees(context.Background())
	require.NoError(t, err)
	assert.Len(t, employees, 2)
}

func TestSourceErrors(t *testing.T) {
	var hits int32
	srv := serve(t, exportYAML, &hits)

	t.Run("unauthorized", func(t *testing.T) {
		src, err := remote.New(srv.URL + "/export.yaml")
		require.NoError(t, err)
		_, err = src.Employees(context.Background())
		var apiErr *pkgerrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})

	t.Run("malformed document", func(t *testing.T) {
		bad := serve(t, "employees: [unterminated", &hits)
		src, err := remote.New(bad.URL+"/export.yaml", remote.WithToken("s3cret"))
		require.NoError(t, err)
		_, err = src.Employees(context.Background())
		var parseErr *pkgerrors.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("canceled", func(t *testing.T) {
		src, err := remote.New(srv.URL+"/export.yaml", remote.WithToken("s3cret"))
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = src.Employees(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		for _, endpoint := range []string{"", "ftp://hr.example/x.yaml", "/relative/x.yaml", "://"} {
			_, err := remote.New(endpoint)
			assert.True(t, pkgerrors.IsValidationError(err), endpoint)
		}
		_, err := remote.New(srv.URL, remote.WithFormat("csv"))
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}
