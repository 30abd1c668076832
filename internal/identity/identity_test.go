package identity

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/janekbaraniewski/cursorusage/internal/core"
)

func makeJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(body)
	return header + "." + payload + ".c2lnbmF0dXJl"
}

func TestExtractAccountID_Separator(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "user_01J8ABC::eyJhbGciOiJIUzI1NiJ9.e30.sig", "user_01J8ABC"},
		{"percent encoded", "user_01J8ABC%3A%3AeyJhbGciOiJIUzI1NiJ9.e30.sig", "user_01J8ABC"},
		{"first separator wins", "user_X::part::rest", "user_X"},
		{"surrounding whitespace", "  user_Y::tok \n", "user_Y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAccountID(tt.raw)
			if !ok || got != tt.want {
				t.Errorf("ExtractAccountID(%q) = (%q, %v), want %q", tt.raw, got, ok, tt.want)
			}
		})
	}
}

func TestExtractAccountID_JWTSubject(t *testing.T) {
	token := makeJWT(t, map[string]any{"sub": "auth0|user_AB12", "exp": 1900000000})
	got, ok := ExtractAccountID(token)
	if !ok || got != "user_AB12" {
		t.Fatalf("ExtractAccountID = (%q, %v), want user_AB12", got, ok)
	}
}

func TestExtractAccountID_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no id before separator", "::token"},
		{"two segments", "abc.def"},
		{"bad base64", "aaa.!!!.ccc"},
		{"payload not json", "aaa." + base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".ccc"},
		{"sub without user id", makeJWT(t, map[string]any{"sub": "auth0|github|12345"})},
		{"no sub", makeJWT(t, map[string]any{"email": "a@b.c"})},
		{"malformed percent", "%zz.%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := ExtractAccountID(tt.raw); ok {
				t.Errorf("ExtractAccountID(%q) = %q, want failure", tt.raw, got)
			}
		})
	}
}

func TestDecodeClaims_PadsPayload(t *testing.T) {
	// payload length not a multiple of 4 and containing URL-safe characters
	body := []byte(`{"sub":"auth0|user_Z9","n":"??>>"}`)
	token := "h." + base64.RawURLEncoding.EncodeToString(body) + ".s"
	claims, ok := DecodeClaims(token)
	if !ok {
		t.Fatal("expected claims to decode")
	}
	if claims["sub"] != "auth0|user_Z9" {
		t.Errorf("sub = %v", claims["sub"])
	}
}

func TestResolve(t *testing.T) {
	id, err := Resolve("user_abc::tok")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if id.AccountID != "user_abc" || id.Credential != "user_abc::tok" {
		t.Errorf("unexpected identity %+v", id)
	}

	_, err = Resolve("garbage")
	if !errors.Is(err, core.ErrNotAuthenticated) {
		t.Errorf("Resolve(garbage) error = %v, want ErrNotAuthenticated", err)
	}
	if core.KindOf(err) != core.KindNotAuthenticated {
		t.Errorf("kind = %s", core.KindOf(err))
	}
}

func TestSessionCookie(t *testing.T) {
	jwt := makeJWT(t, map[string]any{"sub": "auth0|user_AB12"})

	fromJWT := SessionCookie(core.AccountIdentity{AccountID: "user_AB12", Credential: jwt})
	if fromJWT != "user_AB12%3A%3A"+jwt {
		t.Errorf("cookie from JWT = %q", fromJWT)
	}

	fromPair := SessionCookie(core.AccountIdentity{AccountID: "user_AB12", Credential: "user_AB12::" + jwt})
	if fromPair != fromJWT {
		t.Errorf("cookie from pair = %q, want %q", fromPair, fromJWT)
	}

	fromEncoded := SessionCookie(core.AccountIdentity{AccountID: "user_AB12", Credential: "user_AB12%3A%3A" + jwt})
	if fromEncoded != fromJWT {
		t.Errorf("cookie from encoded pair = %q, want %q", fromEncoded, fromJWT)
	}

	header := CookieHeader(core.AccountIdentity{AccountID: "user_AB12", Credential: jwt})
	if !strings.HasPrefix(header, CookieName+"=user_AB12%3A%3A") {
		t.Errorf("header = %q", header)
	}
}

func TestExpiresAt(t *testing.T) {
	jwt := makeJWT(t, map[string]any{"sub": "auth0|user_AB12", "exp": 1900000000})
	got, ok := ExpiresAt("user_AB12::" + jwt)
	if !ok || !got.Equal(time.Unix(1900000000, 0)) {
		t.Errorf("ExpiresAt = (%v, %v)", got, ok)
	}
	if _, ok := ExpiresAt("user_AB12::opaque"); ok {
		t.Error("opaque token should have no expiry")
	}
}
