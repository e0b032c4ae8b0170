package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"
)

// EncodeSnapshot re-encodes the image as JPEG for storage, downscaling it
// (aspect ratio preserved) when either dimension exceeds maxDim so the
// base64 payload stays bounded.
func EncodeSnapshot(img image.Image, maxDim, quality int) ([]byte, error) {
	b := img.Bounds()
	if w, h := b.Dx(), b.Dy(); w > maxDim || h > maxDim {
		if w >= h {
			img = resize.Resize(uint(maxDim), 0, img, resize.Lanczos3)
		} else {
			img = resize.Resize(0, uint(maxDim), img, resize.Lanczos3)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
