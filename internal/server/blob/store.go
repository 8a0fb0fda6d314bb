// Package blob abstracts reading and writing asset bytes under logical
// paths. The catalog stores paths like "/uploads/<name>"; a Store resolves
// them against its backend. Callers serialize per-asset, so implementations
// carry no concurrency control.
package blob

import (
	"context"
	"fmt"

	sc "github.com/artfolio/mediakeeper/internal/server/config"
)

// Store is the blob-store contract used by the reconciliation and backup
// engines.
type Store interface {
	// Exists reports whether a regular file is present at the logical
	// path. It never returns an error; any failure reads as absent.
	Exists(ctx context.Context, relPath string) bool

	// Read returns the full contents. Returns common.ErrorNotFound when
	// absent and a wrapped common.ErrorIO otherwise.
	Read(ctx context.Context, relPath string) ([]byte, error)

	// Write stores data, creating missing parent directories. Fails with a
	// wrapped common.ErrorIO on backend failure.
	Write(ctx context.Context, relPath string, data []byte) error

	// Remove deletes the file if present. Removing an absent file is not
	// an error.
	Remove(ctx context.Context, relPath string) error
}

// NewStore selects a backend from configuration.
func NewStore(cfg *sc.Config) (Store, error) {
	switch cfg.StorageBackend {
	case "local", "":
		return NewLocalStore(cfg.AssetRoot)
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}
