package model

import (
	"context"
)

// HistoryCache keeps the last-known-good History per identity so that a view
// entered after a failed fetch still has something to show.
type HistoryCache interface {
	// Store fully replaces the cached history for identity.
	Store(ctx context.Context, identity string, h History) error

	// Load returns the cached history; ok is false when nothing is cached.
	Load(ctx context.Context, identity string) (h History, ok bool, err error)
}

// SnapshotStore is the persisted key-value side channel read by the embedded map view.
type SnapshotStore interface {
	// Put writes value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Get reads the value under key.
	Get(ctx context.Context, key string) ([]byte, error)
}

// NavigationSource delivers raw inbound messages from the embedded map view.
type NavigationSource interface {
	// Listen blocks, calling deliver once per received message, until ctx is
	// done or the source fails.
	Listen(ctx context.Context, deliver func(payload []byte)) error
}
