package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hugh/go-folio/pkg/config"
)

// ImageStore persists an object and returns its public URL.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// ProfileImageKey is the object key of a portfolio's profile image.
func ProfileImageKey(portfolioID string) string {
	return "portfolio_profiles/" + portfolioID
}

func NewImageStore(ctx context.Context, cfg config.StorageConfig) (ImageStore, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "gcs":
		return NewGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

type Uploader struct {
	store       ImageStore
	constraints Constraints
	timeout     time.Duration
	logger      *slog.Logger
}

func NewUploader(store ImageStore, constraints Constraints, timeout time.Duration, logger *slog.Logger) *Uploader {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		store:       store,
		constraints: constraints,
		timeout:     timeout,
		logger:      logger,
	}
}

func (u *Uploader) Constraints() Constraints {
	return u.constraints
}

// Upload validates the image before any bytes leave the process.
func (u *Uploader) Upload(ctx context.Context, key string, data []byte) (string, error) {
	prepared, contentType, err := PrepareImage(data, u.constraints)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	url, err := u.store.Put(ctx, key, contentType, prepared)
	if err != nil {
		u.logger.Error("image upload failed", "key", key, "error", err)
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	return url, nil
}
