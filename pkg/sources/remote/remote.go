// Package remote provides a record source backed by a YAML or JSON document
// served over HTTP, such as a nightly HR export.
package remote

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/FursAndrey/staffsync/internal/transport"
	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/records"
	"github.com/FursAndrey/staffsync/pkg/sources"
)

// Source fetches its document once and serves every later read from that
// snapshot until it expires or Reset is called. Without WithCacheTTL the
// snapshot never expires.
type Source struct {
	endpoint string
	format   string
	client   *transport.Client
	ttl      time.Duration

	auth        transport.Authenticator
	secret      string
	transportOp []transport.Option

	mu    sync.Mutex
	cache *gocache.Cache
}

// Option configures a remote source.
type Option func(*Source)

// WithToken authenticates with a bearer token.
func WithToken(token string) Option {
	return func(s *Source) {
		s.auth = &transport.BearerAuth{}
		s.secret = token
	}
}

// WithAuth authenticates with an arbitrary scheme.
func WithAuth(auth transport.Authenticator, secret string) Option {
	return func(s *Source) {
		s.auth = auth
		s.secret = secret
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Source) {
		s.transportOp = append(s.transportOp, transport.WithHTTPClient(hc))
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		s.transportOp = append(s.transportOp, transport.WithTimeout(d))
	}
}

// WithCacheTTL refetches the document once the cached snapshot is older
// than ttl.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Source) {
		s.ttl = ttl
	}
}

// WithFormat forces "json" or "yaml" decoding. By default the format
// follows the extension of the URL path.
func WithFormat(format string) Option {
	return func(s *Source) {
		s.format = format
	}
}

// New returns a source for the document at endpoint. Only http and https
// URLs are accepted. Nothing is fetched until the first collection is
// requested.
func New(endpoint string, opts ...Option) (*Source, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.NewValidationError("source_url", endpoint, "must be an absolute http or https URL")
	}

	s := &Source{endpoint: endpoint, ttl: gocache.NoExpiration}
	for _, opt := range opts {
		opt(s)
	}
	cleanup := time.Duration(0)
	if s.ttl > 0 {
		cleanup = s.ttl
	}
	s.cache = gocache.New(s.ttl, cleanup)
	if s.format == "" {
		s.format = sources.FormatOf(path.Base(u.Path))
	}
	if s.format != "json" && s.format != "yaml" {
		return nil, errors.NewValidationError("format", s.format, "must be json or yaml")
	}
	s.client = transport.New(s.auth, s.secret, s.transportOp...)
	return s, nil
}

// Name returns the endpoint URL.
func (s *Source) Name() string {
	return s.endpoint
}

// Snapshot fetches the document if needed and returns it.
func (s *Source) Snapshot(ctx context.Context) (*sources.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache.Get(s.endpoint); ok {
		return cached.(*sources.Snapshot), nil
	}

	data, err := s.client.Fetch(ctx, s.endpoint)
	if err != nil {
		return nil, err
	}
	// Decode picks the parser from the name's extension.
	snap, err := sources.Decode("document."+s.format, data)
	if err != nil {
		return nil, err
	}
	snap = snap.Renamed(s.endpoint)
	s.cache.Set(s.endpoint, snap, gocache.DefaultExpiration)
	return snap, nil
}

// Reset drops the cached snapshot so the next read fetches again.
func (s *Source) Reset() {
	s.cache.Flush()
}

func (s *Source) collection(ctx context.Context, c sources.Collection) ([]records.Record, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Records(c), nil
}

// Employees implements sources.RecordSource.
func (s *Source) Employees(ctx context.Context) ([]records.Record, error) {
	return s.collection(ctx, sources.Employees)
}

// Family implements sources.RecordSource.
func (s *Source) Family(ctx context.Context) ([]records.Record, error) {
	return s.collection(ctx, sources.Family)
}

// Education implements sources.RecordSource.
func (s *Source) Education(ctx context.Context) ([]records.Record, error) {
	return s.collection(ctx, sources.Education)
}

// Medical implements sources.RecordSource.
func (s *Source) Medical(ctx context.Context) ([]records.Record, error) {
	return s.collection(ctx, sources.Medical)
}

// Violations implements sources.RecordSource.
func (s *Source) Violations(ctx context.Context) ([]records.Record, error) {
	return s.collection(ctx, sources.Violations)
}
