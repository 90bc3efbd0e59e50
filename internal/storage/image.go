package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var (
	ErrImageTooLarge = errors.New("image exceeds the maximum upload size")
	ErrInvalidImage  = errors.New("file is not a supported image")
)

type Constraints struct {
	MaxBytes int64
	MaxDim   int
}

func DefaultConstraints() Constraints {
	return Constraints{MaxBytes: 1 << 20, MaxDim: 1024}
}

var contentTypes = map[imaging.Format]string{
	imaging.JPEG: "image/jpeg",
	imaging.PNG:  "image/png",
	imaging.GIF:  "image/gif",
	imaging.BMP:  "image/bmp",
	imaging.TIFF: "image/tiff",
}

// PrepareImage enforces the byte cap and fits oversized images inside a
// MaxDim square. Images already within bounds are returned unchanged.
func PrepareImage(data []byte, c Constraints) ([]byte, string, error) {
	if c.MaxBytes > 0 && int64(len(data)) > c.MaxBytes {
		return nil, "", ErrImageTooLarge
	}

	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidImage, name)
	}
	contentType := contentTypes[format]

	if c.MaxDim <= 0 || (cfg.Width <= c.MaxDim && cfg.Height <= c.MaxDim) {
		return data, contentType, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img = imaging.Fit(img, c.MaxDim, c.MaxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, "", fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), contentType, nil
}
