package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"
)

type memStore struct {
	values map[string]string
	err    error
	puts   int
}

func newMemStore() *memStore { return &memStore{values: make(map[string]string)} }

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *memStore) Put(_ context.Context, key, value string) error {
	m.puts++
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.values, key)
	return nil
}

func TestFileStore_RoundTripSealsValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	store := NewFileStore(path)
	ctx := context.Background()

	token := "user_01ABC::eyJhbGciOiJIUzI1NiJ9.payload.sig"
	if err := store.Put(ctx, SessionTokenKey, token); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := store.Get(ctx, SessionTokenKey)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != token {
		t.Errorf("Get = %q, want %q", got, token)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "eyJhbGciOiJIUzI1NiJ9") {
		t.Error("secret file contains the plaintext token")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("permissions = %o, want 600", perm)
		}
	}
}

func TestFileStore_MissingKeyAndDelete(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "secrets.json"))
	ctx := context.Background()

	if _, err := store.Get(ctx, SessionTokenKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, SessionTokenKey); err != nil {
		t.Fatalf("Delete on empty store error = %v", err)
	}

	if err := store.Put(ctx, SessionTokenKey, "user_a::b"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, SessionTokenKey); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, SessionTokenKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
}

func TestFileStore_TamperedValueFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	store := NewFileStore(path)
	ctx := context.Background()
	if err := store.Put(ctx, "a", "value-a"); err != nil {
		t.Fatal(err)
	}

	// sealed values are bound to their key name
	f, err := store.load()
	if err != nil {
		t.Fatal(err)
	}
	f.Keys["b"] = f.Keys["a"]
	if err := store.write(f); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, "b"); err == nil {
		t.Error("expected value moved to another key to fail authentication")
	}
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore("cursorusage-test")
	ctx := context.Background()

	if _, err := store.Get(ctx, SessionTokenKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty keyring error = %v, want ErrNotFound", err)
	}
	if err := store.Put(ctx, SessionTokenKey, "user_x::y"); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, SessionTokenKey)
	if err != nil || got != "user_x::y" {
		t.Errorf("Get = (%q, %v)", got, err)
	}
	if err := store.Delete(ctx, SessionTokenKey); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, SessionTokenKey); err != nil {
		t.Errorf("second Delete error = %v", err)
	}
}

func TestChain_FallsBackWhenPrimaryFails(t *testing.T) {
	primary := newMemStore()
	primary.err = errors.New("keyring locked")
	fallback := newMemStore()
	chain, err := NewChain(primary, fallback)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := chain.Put(ctx, SessionTokenKey, "tok"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if fallback.values[SessionTokenKey] != "tok" {
		t.Error("value not written to fallback")
	}
	got, err := chain.Get(ctx, SessionTokenKey)
	if err != nil || got != "tok" {
		t.Errorf("Get = (%q, %v)", got, err)
	}
}

func TestChain_MissInBothIsNotFound(t *testing.T) {
	chain, _ := NewChain(newMemStore(), newMemStore())
	if _, err := chain.Get(context.Background(), SessionTokenKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestChain_DeleteClearsBoth(t *testing.T) {
	primary, fallback := newMemStore(), newMemStore()
	primary.values[SessionTokenKey] = "a"
	fallback.values[SessionTokenKey] = "b"
	chain, _ := NewChain(primary, fallback)

	if err := chain.Delete(context.Background(), SessionTokenKey); err != nil {
		t.Fatal(err)
	}
	if len(primary.values) != 0 || len(fallback.values) != 0 {
		t.Errorf("values left behind: %v %v", primary.values, fallback.values)
	}
}

func TestChain_CancelledContextSkipsFallback(t *testing.T) {
	primary := newMemStore()
	primary.err = context.Canceled
	fallback := newMemStore()
	chain, _ := NewChain(primary, fallback)

	if err := chain.Put(context.Background(), SessionTokenKey, "tok"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if fallback.puts != 0 {
		t.Error("fallback must not be used after cancellation")
	}
}

func TestNewChain_RejectsNil(t *testing.T) {
	if _, err := NewChain(nil, newMemStore()); err == nil {
		t.Error("expected error for nil primary")
	}
	if _, err := NewChain(newMemStore(), nil); err == nil {
		t.Error("expected error for nil fallback")
	}
}
