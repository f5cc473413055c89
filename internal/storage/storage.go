package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Provider names accepted by New.
const (
	ProviderAWS   = "aws"
	ProviderMinio = "minio"
)

// ObjectStorage captures the bucket operations the smoke test needs.
type ObjectStorage interface {
	// Bucket returns the configured bucket name.
	Bucket() string

	// CheckBucket verifies the bucket exists and is accessible. Failures are
	// *BucketError.
	CheckBucket(ctx context.Context) error

	// UploadFile streams the file at path to the bucket and returns the key it
	// was stored under. An empty key is derived with ObjectKey. Failures are
	// *UploadError.
	UploadFile(ctx context.Context, path, key string) (string, error)
}

// Config holds everything a backend needs. It is passed to the constructor
// and never read from the process environment.
type Config struct {
	Provider        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string
	UsePathStyle    bool
}

// ObjectKey returns override without leading slashes when that leaves a
// non-empty key, otherwise the base name of path.
func ObjectKey(path, override string) string {
	if k := strings.TrimLeft(strings.TrimSpace(override), "/"); k != "" {
		return k
	}
	return filepath.Base(path)
}

// New builds the backend selected by cfg.Provider and wraps it with outcome
// logging.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (ObjectStorage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket must be provided")
	}

	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderAWS:
		backend, err = NewS3Client(ctx, cfg)
	case ProviderMinio:
		backend, err = NewMinioClient(cfg)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return WithLogging(backend, log), nil
}
