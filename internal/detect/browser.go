package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all"

	"github.com/janekbaraniewski/cursorusage/internal/identity"
)

// findBrowserCookie reads the dashboard session cookie from installed
// browsers' cookie stores. Stores that fail to decrypt are skipped.
func findBrowserCookie(ctx context.Context) (string, error) {
	cookies, err := kooky.ReadCookies(ctx,
		kooky.Valid,
		kooky.DomainHasSuffix("cursor.com"),
		kooky.Name(identity.CookieName),
	)
	if err != nil && len(cookies) == 0 {
		return "", fmt.Errorf("reading browser cookies: %w", err)
	}
	for _, c := range cookies {
		if c == nil {
			continue
		}
		if v := strings.TrimSpace(c.Value); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s cookie: %w", identity.CookieName, errNotFound)
}
