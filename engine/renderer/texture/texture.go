// Package texture decodes and generates RGBA images and keeps the renderer's texture table.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrEmptyImage is returned when a decoded image has no pixels.
var ErrEmptyImage = errors.New("texture: empty image")

// Image is tightly packed 8-bit RGBA pixel data ready for upload.
type Image struct {
	Name   string
	Pixels []byte
	Width  int
	Height int
}

// Decode reads and decodes a PNG, JPEG, BMP or WebP file.
//
// Parameters:
//   - path: the file to read
//   - maxSize: the largest allowed dimension, 0 for no limit. Larger images are downscaled
//     preserving aspect ratio.
//
// Returns:
//   - *Image: the RGBA image named after path
//   - error: error if the file cannot be read or decoded
func Decode(path string, maxSize int) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture file %s: %w", path, err)
	}
	img, err := DecodeBytes(data, maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture file %s: %w", path, err)
	}
	img.Name = path
	return img, nil
}

// DecodeBytes decodes an encoded image held in memory.
//
// Parameters:
//   - data: PNG, JPEG, BMP or WebP bytes
//   - maxSize: the largest allowed dimension, 0 for no limit
//
// Returns:
//   - *Image: the RGBA image
//   - error: error if decoding fails
func DecodeBytes(data []byte, maxSize int) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return FromImage(src, maxSize)
}

// FromImage converts any image.Image to packed RGBA, downscaling with bilinear filtering when
// either side exceeds maxSize.
//
// Parameters:
//   - src: the source image
//   - maxSize: the largest allowed dimension, 0 for no limit
//
// Returns:
//   - *Image: the RGBA image
//   - error: ErrEmptyImage if src has no pixels
func FromImage(src image.Image, maxSize int) (*Image, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}

	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = max(h*maxSize/w, 1)
			w = maxSize
		} else {
			w = max(w*maxSize/h, 1)
			h = maxSize
		}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == bounds.Dx() && h == bounds.Dy() {
		draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(rgba, rgba.Bounds(), src, bounds, draw.Src, nil)
	}
	return &Image{Pixels: rgba.Pix, Width: w, Height: h}, nil
}

// Solid creates a 1x1 image of one color.
//
// Parameters:
//   - c: the color
//
// Returns:
//   - *Image: the image
func Solid(c color.RGBA) *Image {
	return &Image{
		Name:   fmt.Sprintf("solid_%02x%02x%02x%02x", c.R, c.G, c.B, c.A),
		Pixels: []byte{c.R, c.G, c.B, c.A},
		Width:  1,
		Height: 1,
	}
}

// Checker creates a square checkerboard.
//
// Parameters:
//   - size: width and height in pixels
//   - cell: side of one square in pixels
//   - a, b: the two alternating colors, a at the origin
//
// Returns:
//   - *Image: the image
func Checker(size, cell int, a, b color.RGBA) *Image {
	size = max(size, 1)
	cell = max(cell, 1)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			if ((x/cell)+(y/cell))%2 == 0 {
				img.SetRGBA(x, y, a)
			} else {
				img.SetRGBA(x, y, b)
			}
		}
	}
	return &Image{
		Name:   fmt.Sprintf("checker_%d_%d", size, cell),
		Pixels: img.Pix,
		Width:  size,
		Height: size,
	}
}
