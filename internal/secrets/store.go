// Package secrets is the secure cache the session credential is persisted in:
// the OS keyring first, a sealed file under the config directory second.
package secrets

import (
	"context"
	"errors"
	"fmt"
)

// SessionTokenKey is the fixed slot the Cursor credential lives in.
const SessionTokenKey = "cursor.sessionToken"

// SessionSourceKey records which local source an auto-detected credential
// came from. It is absent for credentials stored with `token set`.
const SessionSourceKey = "cursor.sessionTokenSource"

var ErrNotFound = errors.New("secret not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// Chain reads and writes through primary and falls back to fallback when the
// primary backend fails. A miss on the primary is not a failure.
type Chain struct {
	primary  Store
	fallback Store
}

var _ Store = (*Chain)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewChain(primary, fallback Store) (*Chain, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}
	return &Chain{primary: primary, fallback: fallback}, nil
}

// NewDefault wires the keyring with a sealed file fallback at path.
func NewDefault(path string) *Chain {
	c, _ := NewChain(NewKeyringStore(defaultService), NewFileStore(path))
	return c
}

func (c *Chain) Get(ctx context.Context, key string) (string, error) {
	value, err := c.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := c.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}
	if errors.Is(err, ErrNotFound) && errors.Is(fallbackErr, ErrNotFound) {
		return "", ErrNotFound
	}
	return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

func (c *Chain) Put(ctx context.Context, key, value string) error {
	err := c.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := c.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}
	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

// Delete removes key from both backends so a logout leaves nothing behind.
func (c *Chain) Delete(ctx context.Context, key string) error {
	primaryErr := c.primary.Delete(ctx, key)
	if shouldSkipFallback(primaryErr) {
		return primaryErr
	}
	fallbackErr := c.fallback.Delete(ctx, key)
	if primaryErr != nil && fallbackErr != nil {
		return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", primaryErr, fallbackErr)
	}
	return nil
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
