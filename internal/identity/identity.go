// Package identity derives the Cursor account id from a session credential
// and builds the session cookie the dashboard API expects.
package identity

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/janekbaraniewski/cursorusage/internal/core"
)

// CookieName is the session cookie the cursor.com dashboard authenticates with.
const CookieName = "WorkosCursorSessionToken"

const separator = "::"

var accountIDPattern = regexp.MustCompile(`user_[A-Za-z0-9]+`)

// ExtractAccountID derives the account id from either "<accountId>::<token>"
// (optionally percent-encoded) or a bare JWT whose "sub" claim carries
// "user_...". It never panics; ok is false when no id can be derived.
func ExtractAccountID(raw string) (string, bool) {
	decoded := decode(raw)
	if idx := strings.Index(decoded, separator); idx >= 0 {
		id := decoded[:idx]
		return id, id != ""
	}

	claims, ok := DecodeClaims(decoded)
	if !ok {
		return "", false
	}
	sub, _ := claims["sub"].(string)
	id := accountIDPattern.FindString(sub)
	return id, id != ""
}

// Resolve pairs the credential with its account id.
func Resolve(raw string) (core.AccountIdentity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.AccountIdentity{}, core.ErrNotAuthenticated
	}
	id, ok := ExtractAccountID(raw)
	if !ok {
		return core.AccountIdentity{}, core.NewError(core.KindNotAuthenticated, "extract account id",
			fmt.Errorf("credential carries no account id: %w", core.ErrNotAuthenticated))
	}
	return core.AccountIdentity{AccountID: id, Credential: raw}, nil
}

// SessionCookie returns the cookie value for id: the credential itself when it
// already has the "<id>::<token>" shape, otherwise "<id>::<jwt>", percent-encoded.
func SessionCookie(id core.AccountIdentity) string {
	decoded := decode(id.Credential)
	if idx := strings.Index(decoded, separator); idx >= 0 {
		return url.PathEscape(decoded[:idx]) + "%3A%3A" + decoded[idx+len(separator):]
	}
	return url.PathEscape(id.AccountID) + "%3A%3A" + decoded
}

// CookieHeader renders the full Cookie header value.
func CookieHeader(id core.AccountIdentity) string {
	return CookieName + "=" + SessionCookie(id)
}

// DecodeClaims decodes the payload segment of a three-part signed token.
func DecodeClaims(token string) (map[string]any, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, false
	}

	payload := strings.NewReplacer("-", "+", "_", "/").Replace(parts[1])
	if rem := len(payload) % 4; rem != 0 {
		payload += strings.Repeat("=", 4-rem)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}

	var claims map[string]any
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, false
	}
	return claims, true
}

// ExpiresAt reads the "exp" claim of a JWT credential, if any.
func ExpiresAt(raw string) (time.Time, bool) {
	token := decode(raw)
	if idx := strings.Index(token, separator); idx >= 0 {
		token = token[idx+len(separator):]
	}
	claims, ok := DecodeClaims(token)
	if !ok {
		return time.Time{}, false
	}
	exp, ok := claims["exp"].(float64)
	if !ok || exp <= 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(exp), 0), true
}

func decode(raw string) string {
	raw = strings.TrimSpace(raw)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
