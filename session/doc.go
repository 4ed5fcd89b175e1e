// Package session supplies the bearer credential and user identity
// the sync layer operates under.
//
// The client is agnostic to how the token was obtained; it only needs
// something that yields the current token for header injection and,
// when available, the identity encoded in it. Token verification is
// the server's job; identity here is read from unverified claims the
// same way the browser client reads its stored token.
package session
