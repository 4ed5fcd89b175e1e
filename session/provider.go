package session

import (
	"errors"
	"strconv"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors for session handling.
var (
	ErrNoToken        = errors.New("session: no token set")
	ErrTokenMalformed = errors.New("session: token malformed")
)

// Identity is the user identity carried by the session credential.
type Identity struct {
	UserID int
	Name   string
	Email  string
	Role   string
}

// Provider supplies the current bearer token and the identity it
// encodes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Token returns "" when no session is active.
type Provider interface {
	// Token returns the current bearer token, or "" when logged out.
	Token() string

	// Identity returns the current user identity. ok is false when no
	// session is active or the token carries no identity claims.
	Identity() (identity Identity, ok bool)
}

// StaticProvider is a fixed-token Provider for short-lived tooling
// and tests. It derives identity once at construction.
type StaticProvider struct {
	token    string
	identity Identity
	hasID    bool
}

// NewStaticProvider wraps a fixed token.
func NewStaticProvider(token string) *StaticProvider {
	identity, err := ParseIdentity(token)
	return &StaticProvider{
		token:    token,
		identity: identity,
		hasID:    token != "" && err == nil,
	}
}

// Token returns the fixed token.
func (p *StaticProvider) Token() string { return p.token }

// Identity returns the identity derived at construction.
func (p *StaticProvider) Identity() (Identity, bool) {
	return p.identity, p.hasID
}

// TokenProvider holds a mutable bearer token and derives identity
// from its claims. SetToken with "" logs out.
type TokenProvider struct {
	mu       sync.RWMutex
	token    string
	identity Identity
	hasID    bool
}

// NewTokenProvider creates a provider, optionally seeded with a token.
func NewTokenProvider(token string) *TokenProvider {
	p := &TokenProvider{}
	if token != "" {
		p.SetToken(token)
	}
	return p
}

// SetToken replaces the session credential and re-derives identity.
// Malformed tokens are kept for header injection (the server will
// reject them) but yield no identity.
func (p *TokenProvider) SetToken(token string) {
	identity, err := ParseIdentity(token)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
	p.identity = identity
	p.hasID = token != "" && err == nil
}

// Clear drops the session, e.g. after an unauthorized response.
func (p *TokenProvider) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.identity = Identity{}
	p.hasID = false
}

// Token returns the current bearer token.
func (p *TokenProvider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// Identity returns the identity derived from the current token.
func (p *TokenProvider) Identity() (Identity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity, p.hasID
}

// ParseIdentity extracts identity claims from a JWT without verifying
// its signature. The claim layout matches the backend's tokens: "id"
// or "sub" for the user ID, plus "name", "email", "role".
func ParseIdentity(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrNoToken
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Identity{}, errors.Join(ErrTokenMalformed, err)
	}

	var id Identity
	id.UserID = claimInt(claims, "id")
	if id.UserID == 0 {
		if sub, err := claims.GetSubject(); err == nil {
			if n, err := strconv.Atoi(sub); err == nil {
				id.UserID = n
			}
		}
	}
	id.Name = claimString(claims, "name")
	id.Email = claimString(claims, "email")
	id.Role = claimString(claims, "role")
	return id, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func claimInt(claims jwt.MapClaims, key string) int {
	switch v := claims[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// Ensure implementations satisfy Provider.
var (
	_ Provider = (*TokenProvider)(nil)
	_ Provider = (*StaticProvider)(nil)
)
