package libraries

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore keeps uploaded board documents.
type BlobStore interface {
	// Upload stores r at path and returns a URL the document can be fetched from.
	Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
	// Close releases the backend client.
	Close() error
}

type BlobStoreType string

const (
	BlobStoreFS  BlobStoreType = "fs"
	BlobStoreGCS BlobStoreType = "gcs"
	BlobStoreS3  BlobStoreType = "s3"
)

type BlobConfig struct {
	Type           BlobStoreType
	Dir            string
	PublicURL      string
	GCSBucket      string
	GCPCredentials string // base64 service account JSON; empty uses ADC
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
}

func NewBlobStore(ctx context.Context, cfg BlobConfig) (BlobStore, error) {
	switch cfg.Type {
	case BlobStoreFS, "":
		return NewFileBlobStore(cfg.Dir, cfg.PublicURL)
	case BlobStoreGCS:
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET not set")
		}
		return NewGCSBlobStore(ctx, cfg.GCSBucket, cfg.GCPCredentials)
	case BlobStoreS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET not set")
		}
		return NewS3BlobStore(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
	default:
		return nil, fmt.Errorf("unsupported blob storage type: %s", cfg.Type)
	}
}

// FileBlobStore writes blobs below a local directory, served by the api under /files.
type FileBlobStore struct {
	baseDir   string
	publicURL string
}

func NewFileBlobStore(baseDir, publicURL string) (*FileBlobStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	return &FileBlobStore{baseDir: baseDir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *FileBlobStore) Close() error { return nil }

func (s *FileBlobStore) Dir() string {
	return s.baseDir
}

func (s *FileBlobStore) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if clean == "/" {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

func (s *FileBlobStore) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	full, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create blob: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close blob: %w", err)
	}
	return s.publicURL + "/" + strings.TrimLeft(path, "/"), nil
}

func (s *FileBlobStore) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
