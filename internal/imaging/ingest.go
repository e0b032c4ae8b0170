package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidInput marks uploads rejected before decoding.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDecode marks uploads whose bytes could not be decoded as an image.
	ErrDecode = errors.New("image decode failed")
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Ingest validates the uploaded file by extension, decodes it and flattens
// the result to 3-channel RGB. The extension check is case-insensitive and
// runs before any decoding work.
func Ingest(data []byte, filename string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: unsupported file type %q, expected .png, .jpg or .jpeg", ErrInvalidInput, ext)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return flattenRGB(img), nil
}

// flattenRGB composites the image over a black background so that palette
// and alpha images end up as plain opaque RGB pixels.
func flattenRGB(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}
