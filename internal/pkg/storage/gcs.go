package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

type GCSConfig struct {
	// CredentialsFile and CredentialsJSON are alternatives; JSON wins when
	// both are set. With neither, application default credentials apply.
	CredentialsFile string
	CredentialsJSON []byte
	Endpoint        string
	UserAgent       string
	WithoutAuth     bool
}

func (c GCSConfig) options(ctx context.Context) ([]option.ClientOption, error) {
	var opts []option.ClientOption

	creds := c.CredentialsJSON
	if len(creds) == 0 && c.CredentialsFile != "" {
		b, err := os.ReadFile(c.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("storage: read gcs credentials: %w", err)
		}
		creds = b
	}

	switch {
	case c.WithoutAuth:
		opts = append(opts, option.WithoutAuthentication())
	case len(creds) > 0:
		parsed, err := google.CredentialsFromJSON(ctx, creds, gcs.ScopeReadWrite)
		if err != nil {
			return nil, fmt.Errorf("storage: parse gcs credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(parsed))
	}

	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}
	if c.UserAgent != "" {
		opts = append(opts, option.WithUserAgent(c.UserAgent))
	}

	return opts, nil
}

type GCS struct {
	client *gcs.Client
}

func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	opts, err := cfg.options(ctx)
	if err != nil {
		return nil, err
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}

	return &GCS{client: client}, nil
}

func (g *GCS) Close() error { return g.client.Close() }

func (g *GCS) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = opts.Metadata

	n, err := io.Copy(w, r)
	if cerr := w.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("storage: gcs put %s/%s: %w", bucket, key, err)
	}

	info := ObjectInfo{Bucket: bucket, Key: key, Size: n}
	if attrs := w.Attrs(); attrs != nil {
		info.ETag = attrs.Etag
	}

	return info, nil
}
