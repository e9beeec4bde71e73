package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

// ProcessedImage is a photo ready for storage
type ProcessedImage struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	Resized     bool
}

// Config for image processing
type Config struct {
	MaxWidth  int // Max width (default 2000)
	MaxHeight int // Max height (default 2000)
	Quality   int // JPEG quality 1-100 (default 85)
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		MaxWidth:  2000,
		MaxHeight: 2000,
		Quality:   85,
	}
}

// Processor handles image processing
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	return &Processor{config: config}
}

// Process shrinks an image to fit the configured bounds.
// Images already within bounds, or in formats that cannot be decoded, are returned untouched.
func (p *Processor) Process(data []byte, contentType string) (*ProcessedImage, error) {
	result := &ProcessedImage{Data: data, ContentType: contentType}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if err == image.ErrFormat {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	result.Width, result.Height = cfg.Width, cfg.Height

	if cfg.Width <= p.config.MaxWidth && cfg.Height <= p.config.MaxHeight {
		return result, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Fit(img, p.config.MaxWidth, p.config.MaxHeight, imaging.Lanczos)

	encoded, encodedType, err := p.encode(resized, format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	result.Data = encoded
	result.ContentType = encodedType
	result.Width = resized.Bounds().Dx()
	result.Height = resized.Bounds().Dy()
	result.Resized = true
	return result, nil
}

// encode encodes image to bytes
func (p *Processor) encode(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer

	if format == "png" {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	}

	// Everything else becomes JPEG
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.config.Quality}); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/jpeg", nil
}
