package ocr

import (
	"image"

	"golang.org/x/image/draw"
)

// Grayscale converts img to a single-channel image. Recognition on grayscale
// input is more stable than on the RGBA rasterizer output.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}
