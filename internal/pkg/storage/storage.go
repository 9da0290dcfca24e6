// Package storage uploads objects to S3, MinIO or Google Cloud Storage
// behind one interface. The driver is chosen by configuration.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	DriverS3    = "s3"
	DriverMinIO = "minio"
	DriverGCS   = "gcs"
)

var ErrUnknownDriver = errors.New("storage: unknown driver")

type Storage interface {
	io.Closer

	// PutObject streams r to bucket/key. A positive opts.Size lets drivers
	// skip multipart buffering.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
}

type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

type ObjectInfo struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string
}

type Config struct {
	Driver string
	S3     S3Config
	MinIO  MinIOConfig
	GCS    GCSConfig
}

func New(ctx context.Context, cfg Config) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMinIO:
		return NewMinIO(cfg.MinIO)
	case DriverGCS:
		return NewGCS(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
