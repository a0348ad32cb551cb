package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Config contains the information required to talk to an object store.
type Config struct {
	Provider       string
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	ForcePathStyle bool
}

// Client represents the capabilities the extractor expects.
type Client interface {
	// Get opens the object for reading. Callers must close the returned reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Close() error
}

// New creates an object store client based on the given configuration.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case "s3":
		return newS3Client(ctx, cfg)
	case "minio":
		return newMinioClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported object store provider: %s", cfg.Provider)
	}
}
