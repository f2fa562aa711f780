package transport

import "net/http"

// Authenticator applies credentials to outgoing requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (NoAuth) Apply(*http.Request) {}

// BearerAuth sends Authorization: Bearer <token>.
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a BearerAuth) Apply(req *http.Request) {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
}

// HeaderAuth sends the credential verbatim in a custom header, e.g.
// X-Access-Token for the admin API.
type HeaderAuth struct {
	Header string
	Value  string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a HeaderAuth) Apply(req *http.Request) {
	if a.Header == "" || a.Value == "" {
		return
	}
	req.Header.Set(a.Header, a.Value)
}

// AuthFor picks an authenticator for a header/value pair. An Authorization
// header without a scheme is sent as a bearer token.
func AuthFor(header, value string) Authenticator {
	switch {
	case value == "":
		return NoAuth{}
	case header == "" || header == "Authorization":
		return BearerAuth{Token: value}
	default:
		return HeaderAuth{Header: header, Value: value}
	}
}
