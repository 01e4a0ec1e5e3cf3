package libraries

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSBlobStore struct {
	client *storage.Client
	bucket string
}

// NewGCSBlobStore builds the client from a base64 encoded service account JSON,
// or from application default credentials when encodedCreds is empty.
func NewGCSBlobStore(ctx context.Context, bucket, encodedCreds string) (*GCSBlobStore, error) {
	var opts []option.ClientOption
	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode service account json: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSBlobStore{client: client, bucket: bucket}, nil
}

func (s *GCSBlobStore) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close failed: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path), nil
}

func (s *GCSBlobStore) Delete(ctx context.Context, path string) error {
	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete failed: %w", err)
	}
	return nil
}

func (s *GCSBlobStore) Close() error {
	return s.client.Close()
}
