package transport

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/FursAndrey/staffsync/pkg/errors"
)

// Authentication schemes accepted by NewAuthenticator.
const (
	SchemeNone   = "none"
	SchemeBearer = "bearer"
	SchemeHeader = "header"
	SchemeQuery  = "query"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, secret string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, secret string) {
	req.Header.Set("Authorization", "Bearer "+secret)
}

// HeaderAuth sends the secret verbatim in a custom header.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, secret string) {
	req.Header.Set(a.Header, secret)
}

// QueryAuth sends the secret as a query parameter.
type QueryAuth struct {
	Param string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(req *http.Request, secret string) {
	if req.URL == nil {
		return
	}
	query := req.URL.Query()
	query.Set(a.Param, secret)
	req.URL.RawQuery = query.Encode()
}

// NewAuthenticator returns the authenticator for scheme. name is the header
// or query parameter for the header and query schemes and is ignored
// otherwise. An empty scheme means bearer.
func NewAuthenticator(scheme, name string) (Authenticator, error) {
	switch strings.ToLower(scheme) {
	case "", SchemeBearer:
		return &BearerAuth{}, nil
	case SchemeNone:
		return &NoAuth{}, nil
	case SchemeHeader:
		if name == "" {
			return nil, errors.NewValidationError("auth_name", name, "header scheme requires a header name")
		}
		return &HeaderAuth{Header: name}, nil
	case SchemeQuery:
		if name == "" {
			return nil, errors.NewValidationError("auth_name", name, "query scheme requires a parameter name")
		}
		return &QueryAuth{Param: name}, nil
	default:
		return nil, errors.NewValidationError("auth_scheme", scheme,
			fmt.Sprintf("must be one of %s, %s, %s or %s", SchemeNone, SchemeBearer, SchemeHeader, SchemeQuery))
	}
}
