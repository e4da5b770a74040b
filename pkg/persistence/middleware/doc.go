// Package middleware provides decorators for ports.SnapshotStore.
//
// The encryption middleware seals every snapshot with AES-256-GCM before it
// reaches the wrapped store and supports key rotation through fallback keys:
//
//	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
//	store := middleware.Chain(file.New(dir), mw)
package middleware
