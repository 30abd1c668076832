package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/janekbaraniewski/cursorusage/internal/config"
	"github.com/janekbaraniewski/cursorusage/internal/core"
	"github.com/janekbaraniewski/cursorusage/internal/secrets"
	"github.com/janekbaraniewski/cursorusage/internal/version"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore { return &memStore{data: map[string]string{}} }

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", secrets.ErrNotFound
	}
	return v, nil
}

func (m *memStore) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func run(t *testing.T, store secrets.Store, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommandWith(&globalFlags{store: store})
	root.SetOut(&out)
	root.SetErr(&out)
	settings := filepath.Join(t.TempDir(), "settings.json")
	root.SetArgs(append([]string{"--config", settings, "--no-auto-detect"}, args...))
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func dashboardServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/stripe", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"membershipType":"pro"}`))
	})
	mux.HandleFunc("/api/usage", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"gpt-4":{"numRequests":123,"maxRequestUsage":500},"gpt-3.5-turbo":{"numRequests":7},"startOfMonth":"2026-10-01T00:00:00.000Z"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusCommand(t *testing.T) {
	srv := dashboardServer(t)
	store := newMemStore()
	store.data[secrets.SessionTokenKey] = "user_01ABC::jwt"

	out := run(t, store, "status", "--api-base-url", srv.URL, "--display-mode", "both")
	if strings.TrimSpace(out) != "● 123/500 (25%)" {
		t.Errorf("status = %q", out)
	}
}

func TestStatusCommand_JSON(t *testing.T) {
	srv := dashboardServer(t)
	store := newMemStore()
	store.data[secrets.SessionTokenKey] = "user_01ABC::jwt"

	out := run(t, store, "status", "--json", "--api-base-url", srv.URL)
	var snap core.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if snap.Status != core.StatusOK || snap.AccountID != "user_01ABC" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Usage == nil || snap.Usage.RequestBased == nil || snap.Usage.RequestBased.StandardUsed != 7 {
		t.Errorf("usage = %+v", snap.Usage)
	}
}

func TestStatusCommand_NotSignedIn(t *testing.T) {
	out := run(t, newMemStore(), "status")
	if strings.TrimSpace(out) != "◈ Cursor: sign in" {
		t.Errorf("status = %q", out)
	}
}

func TestTokenCommands(t *testing.T) {
	store := newMemStore()
	store.data[secrets.SessionSourceKey] = "state-db"

	if out := run(t, store, "token", "set", "user_01ABC%3A%3Aeyjwtpayloadvalue"); !strings.Contains(out, "user_01ABC") {
		t.Errorf("set output = %q", out)
	}
	if store.data[secrets.SessionTokenKey] == "" {
		t.Fatal("credential was not stored")
	}
	if _, ok := store.data[secrets.SessionSourceKey]; ok {
		t.Error("manual credential still marked as auto-detected")
	}

	out := run(t, store, "token", "show")
	if !strings.Contains(out, "Account:    user_01ABC") || strings.Contains(out, "eyjwtpayloadvalue") {
		t.Errorf("show output = %q", out)
	}

	run(t, store, "token", "clear")
	if out := run(t, store, "token", "show"); !strings.Contains(out, "No credential stored") {
		t.Errorf("show after clear = %q", out)
	}
}

func TestTokenSet_RejectsCredentialWithoutAccount(t *testing.T) {
	root := newRootCommandWith(&globalFlags{store: newMemStore()})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "s.json"), "token", "set", "not-a-session"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error for a credential without an account id")
	}
}

func TestGlobalFlags_Load(t *testing.T) {
	settings := filepath.Join(t.TempDir(), "settings.json")
	cfg := config.DefaultConfig()
	cfg.UI.DisplayMode = config.DisplayPercentage
	if err := config.SaveTo(settings, cfg); err != nil {
		t.Fatal(err)
	}

	f := &globalFlags{configPath: settings, refresh: 5, billingModel: "usage_based"}
	got, err := f.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.UI.RefreshIntervalSeconds != 60 {
		t.Errorf("refresh = %d, want floor 60", got.UI.RefreshIntervalSeconds)
	}
	if got.BillingModel != core.BillingUsageBased {
		t.Errorf("billing model = %s", got.BillingModel)
	}
	if got.UI.DisplayMode != config.DisplayPercentage {
		t.Errorf("display mode from file = %s", got.UI.DisplayMode)
	}

	if _, err := (&globalFlags{configPath: settings, displayMode: "fancy"}).load(); err == nil {
		t.Error("expected error for unknown display mode")
	}
}

func TestVersionCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"tag_name":"v9.0.0"}`))
	}))
	defer srv.Close()

	orig := version.Version
	version.Version = "v0.1.0"
	defer func() { version.Version = orig }()

	out := run(t, newMemStore(), "version", "--check", "--release-url", srv.URL)
	if !strings.Contains(out, "update available: v0.1.0 -> v9.0.0") {
		t.Errorf("output = %q", out)
	}
}

func TestRootCommand_ReportsErrorWithoutUsage(t *testing.T) {
	root := newRootCommandWith(&globalFlags{store: newMemStore()})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "s.json"), "token", "set", "not-a-session"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(out.String(), "Error: credential rejected") {
		t.Errorf("error not printed: %q", out.String())
	}
	if strings.Contains(out.String(), "Usage:") {
		t.Errorf("usage printed for a runtime error: %q", out.String())
	}
}
