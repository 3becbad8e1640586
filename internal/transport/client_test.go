package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FursAndrey/staffsync/pkg/constants"
	"github.com/FursAndrey/staffsync/pkg/errors"
)

func TestClientFetch(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("employees: []\n"))
	}))
	defer srv.Close()

	c := New(&BearerAuth{}, "s3cret")
	data, err := c.Fetch(context.Background(), srv.URL+"/export.yaml")
	require.NoError(t, err)
	assert.Equal(t, "employees: []\n", string(data))
	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.Contains(t, gotAccept, "application/yaml")
}

func TestClientFetchWithoutSecret(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	_, err := New(&BearerAuth{}, "").Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)

	_, err = New(nil, "ignored").Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClientFetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/down":
			http.Error(w, "maintenance window", http.StatusServiceUnavailable)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			http.Error(w, "bad token", http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := New(&BearerAuth{}, "s3cret")

	_, err := c.Fetch(context.Background(), srv.URL+"/down")
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "maintenance window", apiErr.Message)
	assert.ErrorIs(t, err, errors.ErrSourceUnavailable)

	_, err = c.Fetch(context.Background(), srv.URL+"/missing")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Not Found", apiErr.Message)
	assert.True(t, errors.IsNotFound(err))

	_, err = c.Fetch(context.Background(), srv.URL+"/auth")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClientFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(&NoAuth{}, "", WithTimeout(20*time.Millisecond))
	_, err := c.Fetch(context.Background(), srv.URL)
	var resErr *errors.ResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "fetch", resErr.Operation)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(&NoAuth{}, "", WithHTTPClient(srv.Client())).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientTimeoutOptionOrder(t *testing.T) {
	shared := &http.Client{Timeout: time.Hour}

	before := New(&NoAuth{}, "", WithTimeout(time.Second), WithHTTPClient(shared))
	after := New(&NoAuth{}, "", WithHTTPClient(shared), WithTimeout(2*time.Second))

	assert.Equal(t, time.Second, before.http.Timeout)
	assert.Equal(t, 2*time.Second, after.http.Timeout)
	assert.Equal(t, time.Hour, shared.Timeout, "the caller's client is never modified")
	assert.NotSame(t, shared, after.http)

	assert.Equal(t, time.Hour, New(&NoAuth{}, "", WithHTTPClient(shared)).http.Timeout)
	assert.Equal(t, constants.DefaultHTTPTimeout, New(&NoAuth{}, "").http.Timeout)
}
