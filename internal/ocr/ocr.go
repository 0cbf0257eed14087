// Package ocr recognizes text on rasterized statement pages. Recognition is
// slow (seconds per page) and is only invoked for pages without a usable
// native text layer.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
)

// Engine recognizes the text of one page image.
type Engine interface {
	Name() string
	// Recognize returns the page text. Low-confidence or blank pages yield an
	// empty or partial string, not an error; errors mean the engine itself failed.
	Recognize(ctx context.Context, in Input) (string, error)
}

// Closer is implemented by engines holding resources.
type Closer interface {
	Close() error
}

// Input is one grayscale PNG page ready for recognition.
type Input struct {
	Page        int
	Image       []byte
	Languages   []string
	DPI         int
	PageSegMode int
}

// InputOption mutates an OCR input.
type InputOption func(*Input)

// WithPage tags the input with its 1-based page number.
func WithPage(page int) InputOption {
	return func(in *Input) { in.Page = page }
}

// WithLanguages sets the model set used in the single recognition pass.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithDPI records the resolution the page was rasterized at.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithPageSegMode sets the tesseract page segmentation mode.
func WithPageSegMode(mode int) InputOption {
	return func(in *Input) { in.PageSegMode = mode }
}

// NewInput normalizes img to grayscale and encodes it as PNG.
func NewInput(img image.Image, opts ...InputOption) (Input, error) {
	if img == nil {
		return Input{}, fmt.Errorf("nil page image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, Grayscale(img)); err != nil {
		return Input{}, fmt.Errorf("encode page image: %w", err)
	}
	in := Input{Image: buf.Bytes()}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}
