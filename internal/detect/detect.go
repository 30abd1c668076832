// Package detect locates the Cursor session credential on the workstation:
// the secure cache first, then Cursor's own state database, legacy config
// files and browser cookie stores.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/janekbaraniewski/cursorusage/internal/identity"
	"github.com/janekbaraniewski/cursorusage/internal/parsers"
	"github.com/janekbaraniewski/cursorusage/internal/secrets"
)

var errNotFound = errors.New("not found")

// Strategy is one way of finding the credential. Find returns a non-nil
// error (usually errNotFound) when it has nothing to offer.
type Strategy struct {
	Name       string
	AutoDetect bool // only consulted when auto-detection is enabled
	Find       func(ctx context.Context) (string, error)
}

// FirstSuccess runs steps in order and returns the first value produced
// without error, along with its index. Failures are collected, not returned.
func FirstSuccess[T comparable](ctx context.Context, steps []func(context.Context) (T, error)) (T, int, []error) {
	var zero T
	var errs []error
	for i, step := range steps {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		v, err := step(ctx)
		if err == nil && v != zero {
			return v, i, errs
		}
		if err == nil {
			err = errNotFound
		}
		errs = append(errs, err)
	}
	return zero, -1, errs
}

// Found is a located credential and the strategy that produced it.
type Found struct {
	Credential string
	Source     string
}

type Locator struct {
	cache      secrets.Store
	strategies []Strategy
}

// Options selects the local sources a Locator reads. Zero values fall back
// to the OS defaults.
type Options struct {
	StateDBPath  string
	ConfigPaths  []string
	SQLiteBinary string
	Browsers     bool
}

func NewLocator(cache secrets.Store, opts Options) *Locator {
	if opts.StateDBPath == "" {
		opts.StateDBPath = StateDBPath()
	}
	if opts.ConfigPaths == nil {
		opts.ConfigPaths = LegacyConfigPaths()
	}
	if opts.SQLiteBinary == "" {
		opts.SQLiteBinary = "sqlite3"
	}

	l := &Locator{cache: cache}
	l.strategies = []Strategy{
		{Name: "secure-cache", Find: l.fromCache},
		{Name: "state-db", AutoDetect: true, Find: newStateDBReader(opts.StateDBPath, opts.SQLiteBinary).Find},
		{Name: "config-files", AutoDetect: true, Find: configFileFinder(opts.ConfigPaths)},
	}
	if opts.Browsers {
		l.strategies = append(l.strategies, Strategy{Name: "browser-cookies", AutoDetect: true, Find: findBrowserCookie})
	}
	return l
}

// NewLocatorWithStrategies is used where the default sources are replaced.
func NewLocatorWithStrategies(cache secrets.Store, strategies ...Strategy) *Locator {
	l := &Locator{cache: cache}
	l.strategies = append([]Strategy{{Name: "secure-cache", Find: l.fromCache}}, strategies...)
	return l
}

// Locate returns the first credential found. A hit from any source other than
// the secure cache is written back to the cache. It never returns an error.
func (l *Locator) Locate(ctx context.Context, allowAutoDetect bool) (Found, bool) {
	var active []Strategy
	for _, s := range l.strategies {
		if s.AutoDetect && !allowAutoDetect {
			continue
		}
		active = append(active, s)
	}

	steps := make([]func(context.Context) (string, error), len(active))
	for i, s := range active {
		steps[i] = s.Find
	}

	cred, idx, errs := FirstSuccess(ctx, steps)
	for i, err := range errs {
		if !errors.Is(err, errNotFound) && !errors.Is(err, secrets.ErrNotFound) {
			log.Printf("[detect] %s: %v", active[i].Name, err)
		}
	}
	if idx < 0 {
		return Found{}, false
	}

	found := Found{Credential: strings.TrimSpace(cred), Source: active[idx].Name}
	log.Printf("[detect] credential %s found via %s", parsers.MaskSecret(found.Credential), found.Source)

	if idx > 0 {
		l.remember(ctx, found)
	}
	return found, true
}

// Resync compares an auto-detected cached credential with what the local
// sources hold now and updates the cache when they differ. It reports whether
// the cached credential changed. Credentials stored with `token set` are
// never replaced.
func (l *Locator) Resync(ctx context.Context) bool {
	if l.cache == nil {
		return false
	}
	cached, cacheErr := l.fromCache(ctx)
	if cacheErr == nil {
		if src, err := l.cache.Get(ctx, secrets.SessionSourceKey); err != nil || src == "" {
			return false
		}
	}

	var steps []func(context.Context) (string, error)
	var names []string
	for _, s := range l.strategies {
		if s.AutoDetect {
			steps = append(steps, s.Find)
			names = append(names, s.Name)
		}
	}
	cred, idx, _ := FirstSuccess(ctx, steps)
	cred = strings.TrimSpace(cred)

	switch {
	case idx >= 0 && cred == strings.TrimSpace(cached):
		return false
	case idx >= 0:
		log.Printf("[detect] local credential changed to %s via %s", parsers.MaskSecret(cred), names[idx])
		l.remember(ctx, Found{Credential: cred, Source: names[idx]})
		return true
	case cacheErr == nil:
		log.Println("[detect] local credential removed, forgetting cached copy")
		l.forget(ctx)
		return true
	}
	return false
}

func (l *Locator) remember(ctx context.Context, found Found) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Put(ctx, secrets.SessionTokenKey, found.Credential); err != nil {
		log.Printf("[detect] caching credential failed: %v", err)
		return
	}
	if err := l.cache.Put(ctx, secrets.SessionSourceKey, found.Source); err != nil {
		log.Printf("[detect] caching credential source failed: %v", err)
	}
}

func (l *Locator) forget(ctx context.Context) {
	for _, key := range []string{secrets.SessionTokenKey, secrets.SessionSourceKey} {
		if err := l.cache.Delete(ctx, key); err != nil && !errors.Is(err, secrets.ErrNotFound) {
			log.Printf("[detect] removing %s: %v", key, err)
		}
	}
}

// ProbeResult reports what one strategy saw, for diagnostics.
type ProbeResult struct {
	Strategy  string
	Found     bool
	Masked    string
	AccountID string
	Err       error
}

// Probe runs every strategy independently without writing to the cache.
func (l *Locator) Probe(ctx context.Context) []ProbeResult {
	out := make([]ProbeResult, 0, len(l.strategies))
	for _, s := range l.strategies {
		r := ProbeResult{Strategy: s.Name}
		cred, err := s.Find(ctx)
		cred = strings.TrimSpace(cred)
		switch {
		case err != nil:
			if !errors.Is(err, errNotFound) && !errors.Is(err, secrets.ErrNotFound) {
				r.Err = err
			}
		case cred != "":
			r.Found = true
			r.Masked = parsers.MaskSecret(cred)
			r.AccountID, _ = identity.ExtractAccountID(cred)
		}
		out = append(out, r)
	}
	return out
}

func (l *Locator) fromCache(ctx context.Context) (string, error) {
	if l.cache == nil {
		return "", errNotFound
	}
	v, err := l.cache.Get(ctx, secrets.SessionTokenKey)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", errNotFound
	}
	return v, nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return h
}

// cursorAppSupportDir returns the OS-specific Cursor Application Support directory.
func cursorAppSupportDir() string {
	home := homeDir()
	if home == "" {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Cursor")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Cursor")
		}
		return filepath.Join(home, "AppData", "Roaming", "Cursor")
	default:
		return filepath.Join(home, ".config", "Cursor")
	}
}

// StateDBPath is Cursor's global VS Code state database.
func StateDBPath() string {
	return filepath.Join(cursorAppSupportDir(), "User", "globalStorage", "state.vscdb")
}

// LegacyConfigPaths lists, in lookup order, files older Cursor builds kept
// the session in.
func LegacyConfigPaths() []string {
	appSupport := cursorAppSupportDir()
	return []string{
		filepath.Join(appSupport, "User", "globalStorage", "storage.json"),
		filepath.Join(homeDir(), ".cursor", "session.json"),
		filepath.Join(appSupport, "Session Storage", "cookies.txt"),
	}
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func describeMissing(path string) error {
	return fmt.Errorf("%s: %w", path, errNotFound)
}
