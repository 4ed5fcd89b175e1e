package session

import "net/http"

// Transport is an http.RoundTripper that injects the session's
// bearer token into every outgoing request. Requests clone before
// modification, as RoundTripper requires.
type Transport struct {
	// Provider supplies the current token. Required.
	Provider Provider

	// Base is the underlying round tripper. Defaults to
	// http.DefaultTransport.
	Base http.RoundTripper
}

// NewTransport creates a bearer-injecting transport over base.
func NewTransport(p Provider, base http.RoundTripper) *Transport {
	return &Transport{Provider: p, Base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	token := ""
	if t.Provider != nil {
		token = t.Provider.Token()
	}
	if token == "" {
		return base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(clone)
}

// HTTPClient returns an http.Client wired with this transport.
func (t *Transport) HTTPClient() *http.Client {
	return &http.Client{Transport: t}
}

// Ensure Transport implements http.RoundTripper.
var _ http.RoundTripper = (*Transport)(nil)
