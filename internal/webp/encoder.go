// Package webp encodes images as lossy WebP through libwebp.
package webp

import (
	"fmt"
	"image"
	"io"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// Extension is the file extension of encoded output.
const Extension = ".webp"

// Encoder writes lossy WebP images.
type Encoder struct{}

// NewEncoder creates a WebP encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode writes img to w as lossy WebP at the given quality (0-100).
func (e *Encoder) Encode(w io.Writer, img image.Image, quality int) error {
	if quality < 0 || quality > 100 {
		return fmt.Errorf("quality must be between 0 and 100, got %d", quality)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetPhoto, float32(quality))
	if err != nil {
		return fmt.Errorf("failed to create encoder options: %w", err)
	}

	if err := webp.Encode(w, img, options); err != nil {
		return fmt.Errorf("webp encode failed: %w", err)
	}
	return nil
}

// Extension returns ".webp".
func (e *Encoder) Extension() string {
	return Extension
}
