package imaging

import (
	"image"

	"github.com/nfnt/resize"

	"github.com/ophthalmoscan/fundus-api/internal/config"
)

// ImageNet channel statistics used by the network_specific convention.
var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// Preprocessor turns a decoded RGB image into the planar CHW float32 tensor
// the classifier expects. Size and normalization are fixed per deployed
// model; the same image always yields an identical tensor.
type Preprocessor struct {
	Size int
	Norm config.Normalization
}

// Preprocess stretch-resizes to Size×Size (no aspect preservation, no
// cropping) and writes the pixels channel-plane by channel-plane.
func (p Preprocessor) Preprocess(img image.Image) []float32 {
	resized := resize.Resize(uint(p.Size), uint(p.Size), img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height
	data := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			px := [3]float32{
				float32(r) / 65535.0,
				float32(g) / 65535.0,
				float32(b) / 65535.0,
			}
			if p.Norm == config.NormalizationNetwork {
				for c := range px {
					px[c] = (px[c] - imagenetMean[c]) / imagenetStd[c]
				}
			}

			idx := y*width + x
			data[idx] = px[0]
			data[plane+idx] = px[1]
			data[2*plane+idx] = px[2]
		}
	}

	return data
}
