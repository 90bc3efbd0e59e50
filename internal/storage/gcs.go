package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/hugh/go-folio/pkg/config"
)

type GCSStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewGCSStore(ctx context.Context, cfg config.StorageConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is not configured")
	}

	var opts []option.ClientOption
	if cfg.GCSCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentials))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + cfg.Bucket
	}

	return &GCSStore{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

func (s *GCSStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("writing gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing gcs object: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
