package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "floppy"})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	stg, err := New(context.Background(), Config{
		Driver: " MinIO ",
		MinIO: MinIOConfig{
			Endpoint:  "localhost:9000",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
		},
	})
	require.NoError(t, err)
	assert.IsType(t, &MinIO{}, stg)
	assert.NoError(t, stg.Close())
}

func TestGCSConfig_Options(t *testing.T) {
	opts, err := GCSConfig{WithoutAuth: true, Endpoint: "http://localhost:4443/storage/v1/", UserAgent: "datasprint"}.options(context.Background())
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	_, err = GCSConfig{CredentialsJSON: []byte("{")}.options(context.Background())
	assert.Error(t, err)

	_, err = GCSConfig{CredentialsFile: "/does/not/exist.json"}.options(context.Background())
	assert.Error(t, err)
}

func TestS3_PutObject(t *testing.T) {
	// Arrange
	var (
		mu   sync.Mutex
		path string
		ct   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		path, ct = r.URL.Path, r.Header.Get("Content-Type")
		mu.Unlock()
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("ETag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	stg, err := NewS3(context.Background(), S3Config{
		Endpoint:     srv.URL,
		AccessKey:    "key",
		SecretKey:    "secret",
		UsePathStyle: true,
	})
	require.NoError(t, err)

	body := []byte(`"ID","TEAM_NAME"` + "\n")

	// Act
	info, err := stg.PutObject(context.Background(), "exports", "registrations/a.csv", bytes.NewReader(body), PutOptions{
		Size:        int64(len(body)),
		ContentType: "text/csv",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ObjectInfo{Bucket: "exports", Key: "registrations/a.csv", Size: int64(len(body)), ETag: `"abc123"`}, info)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/exports/registrations/a.csv", path)
	assert.Equal(t, "text/csv", ct)
}
