package secrets

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

const (
	kdfIterations = 100_000
	saltSize      = 16
)

type sealedFile struct {
	Salt string            `json:"salt"`
	Keys map[string]string `json:"keys"` // key → base64(nonce || ciphertext)
}

// FileStore keeps secrets in a 0600 JSON file, each value sealed with
// XChaCha20-Poly1305 under a key derived from the local user and host.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path)}
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return "", err
	}
	sealed, ok := f.Keys[key]
	if !ok {
		return "", ErrNotFound
	}
	return open(f.Salt, key, sealed)
}

func (s *FileStore) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		f = sealedFile{Keys: make(map[string]string)}
	}
	if f.Salt == "" {
		salt := make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("generating salt: %w", err)
		}
		f.Salt = base64.StdEncoding.EncodeToString(salt)
		// a new salt invalidates anything sealed under the old one
		f.Keys = make(map[string]string)
	}

	sealed, err := seal(f.Salt, key, value)
	if err != nil {
		return err
	}
	f.Keys[key] = sealed
	return s.write(f)
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil
	}
	if _, ok := f.Keys[key]; !ok {
		return nil
	}
	delete(f.Keys, key)
	return s.write(f)
}

func (s *FileStore) load() (sealedFile, error) {
	f := sealedFile{Keys: make(map[string]string)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return f, fmt.Errorf("reading secrets: %w", err)
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return sealedFile{Keys: make(map[string]string)}, fmt.Errorf("parsing secrets %s: %w", s.path, err)
	}
	if f.Keys == nil {
		f.Keys = make(map[string]string)
	}
	return f, nil
}

func (s *FileStore) write(f sealedFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling secrets: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing secrets: %w", err)
	}
	return nil
}

func deriveKey(salt string) ([]byte, error) {
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("decoding salt: %w", err)
	}
	return pbkdf2.Key([]byte(machineSecret()), rawSalt, kdfIterations, chacha20poly1305.KeySize, sha256.New), nil
}

func machineSecret() string {
	host, _ := os.Hostname()
	name := ""
	if u, err := user.Current(); err == nil {
		name = u.Username + ":" + u.Uid
	}
	return "cursorusage|" + name + "|" + host
}

func seal(salt, key, value string) (string, error) {
	k, err := deriveKey(salt)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	out := aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return base64.StdEncoding.EncodeToString(out), nil
}

func open(salt, key, sealed string) (string, error) {
	k, err := deriveKey(salt)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(k)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decoding secret %q: %w", key, err)
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("secret %q is truncated", key)
	}
	plain, err := aead.Open(nil, raw[:aead.NonceSize()], raw[aead.NonceSize():], []byte(key))
	if err != nil {
		return "", fmt.Errorf("opening secret %q: %w", key, err)
	}
	return string(plain), nil
}
