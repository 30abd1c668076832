package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// jsonTokenKeys are the key names a legacy JSON config may hold the session under.
var jsonTokenKeys = []string{
	"cursorAuth/accessToken",
	"accessToken",
	"WorkosCursorSessionToken",
	"sessionToken",
	"token",
}

var cookiePattern = regexp.MustCompile(`WorkosCursorSessionToken=([^;\s"']+)`)

func configFileFinder(paths []string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		for _, path := range paths {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if token, ok := scanConfigFile(path); ok {
				return token, nil
			}
		}
		return "", fmt.Errorf("%d legacy config files: %w", len(paths), errNotFound)
	}
}

func scanConfigFile(path string) (string, bool) {
	if !fileExists(path) {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var doc any
		if json.Unmarshal(data, &doc) == nil {
			if token, ok := findJSONKey(doc, jsonTokenKeys); ok {
				return token, true
			}
			return "", false
		}
	}

	if m := cookiePattern.FindSubmatch(data); m != nil {
		return string(m[1]), true
	}
	return "", false
}

// findJSONKey walks doc depth-first, object keys in sorted order, and returns
// the first non-empty string stored under one of keys.
func findJSONKey(doc any, keys []string) (string, bool) {
	switch v := doc.(type) {
	case map[string]any:
		for _, k := range keys {
			if s, ok := v[k].(string); ok && strings.TrimSpace(s) != "" {
				return s, true
			}
		}
		names := lo.Keys(v)
		sort.Strings(names)
		for _, name := range names {
			if token, ok := findJSONKey(v[name], keys); ok {
				return token, true
			}
		}
	case []any:
		for _, item := range v {
			if token, ok := findJSONKey(item, keys); ok {
				return token, true
			}
		}
	}
	return "", false
}
