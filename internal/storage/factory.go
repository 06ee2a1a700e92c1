package storage

import (
	"context"
	"fmt"

	"github.com/Bekawhite/DigitalLab/config"
)

// NewBackend selects the ObjectStorage named by cfg.Backend.
func NewBackend(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	switch cfg.Backend {
	case "", config.BackendFilesystem:
		return NewFilesystemClient(cfg.Dir)
	case config.BackendMinio:
		return NewMinioClient(cfg.Minio)
	case config.BackendGCS:
		return NewGCSClient(ctx, cfg.GCS)
	case config.BackendS3:
		return NewS3Client(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// Open builds the configured backend, ensures its bucket exists and wraps it
// with the upload limits from cfg.
func Open(ctx context.Context, cfg config.Config) (*Storage, error) {
	backend, err := NewBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure %s bucket %s: %w", cfg.Storage.Backend, backend.Bucket(), err)
	}
	return NewStorage(backend,
		WithMaxBytes(cfg.Upload.MaxBytes),
		WithAllowedExtensions(cfg.Upload.AllowedExtensions),
	), nil
}
