package session

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

// signToken builds a real HS256 token carrying the given claims. The
// provider never verifies signatures, so any key works.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestParseIdentity_IDClaim(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"id": 7, "name": "Ada", "email": "ada@example.com", "role": "USER",
	})

	id, err := ParseIdentity(token)
	if err != nil {
		t.Fatalf("ParseIdentity() error = %v", err)
	}
	if id.UserID != 7 {
		t.Errorf("UserID = %d, want 7", id.UserID)
	}
	if id.Name != "Ada" || id.Email != "ada@example.com" || id.Role != "USER" {
		t.Errorf("identity = %+v, want claims copied through", id)
	}
}

func TestParseIdentity_SubjectFallback(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "12", "role": "ADMIN"})

	id, err := ParseIdentity(token)
	if err != nil {
		t.Fatalf("ParseIdentity() error = %v", err)
	}
	if id.UserID != 12 {
		t.Errorf("UserID = %d, want 12 from sub", id.UserID)
	}
}

func TestParseIdentity_EmptyToken(t *testing.T) {
	_, err := ParseIdentity("")
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("error = %v, want ErrNoToken", err)
	}
}

func TestParseIdentity_MalformedToken(t *testing.T) {
	_, err := ParseIdentity("not-a-jwt")
	if !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("error = %v, want ErrTokenMalformed", err)
	}
}

func TestTokenProvider_Lifecycle(t *testing.T) {
	p := NewTokenProvider("")

	if p.Token() != "" {
		t.Errorf("Token() = %q, want empty before login", p.Token())
	}
	if _, ok := p.Identity(); ok {
		t.Error("Identity() ok = true before login, want false")
	}

	token := signToken(t, jwt.MapClaims{"id": 3, "name": "Ada"})
	p.SetToken(token)

	if p.Token() != token {
		t.Errorf("Token() = %q, want the set token", p.Token())
	}
	id, ok := p.Identity()
	if !ok {
		t.Fatal("Identity() ok = false after login, want true")
	}
	if id.UserID != 3 {
		t.Errorf("UserID = %d, want 3", id.UserID)
	}

	p.Clear()
	if p.Token() != "" {
		t.Errorf("Token() = %q after Clear, want empty", p.Token())
	}
	if _, ok := p.Identity(); ok {
		t.Error("Identity() ok = true after Clear, want false")
	}
}

func TestTokenProvider_MalformedTokenKeptForHeader(t *testing.T) {
	p := NewTokenProvider("")
	p.SetToken("garbage")

	// The server decides whether the credential is valid; the client
	// still sends it.
	if p.Token() != "garbage" {
		t.Errorf("Token() = %q, want malformed token kept", p.Token())
	}
	if _, ok := p.Identity(); ok {
		t.Error("Identity() ok = true for malformed token, want false")
	}
}
