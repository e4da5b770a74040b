package ports

import "context"

// SnapshotStore persists encoded derivation snapshots. Stores treat the
// payload as opaque bytes; encoding and decoding are the engine's business.
type SnapshotStore interface {
	// Save persists the snapshot for a given session ID, replacing any
	// previous one.
	Save(ctx context.Context, sessionID string, snapshot []byte) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) ([]byte, error)

	// Delete removes the snapshot for a given session ID. Deleting a
	// missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
