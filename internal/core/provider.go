package core

import "context"

// RefreshOptions carries the configuration a refresh cycle consumes.
type RefreshOptions struct {
	ConfiguredModel BillingModel
	AutoDetect      bool
}

// UsageProvider runs one refresh cycle and always returns a snapshot; failures
// are reported through Snapshot.Status and Snapshot.Message.
type UsageProvider interface {
	ID() string
	Fetch(ctx context.Context, session *Session, opts RefreshOptions) Snapshot
}
