package bestshot

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	hueBins        = 16
	saturationBins = 16
	maxHue         = 360.0
)

// Histogram is L1-normalized hue/saturation histogram (hueBins x saturationBins, row-major by hue).
// Empty histogram means "appearance unknown".
type Histogram []float64

// Describe computes appearance descriptor of the crop. Value channel is not binned.
func Describe(crop image.Image) Histogram {
	if crop == nil {
		return nil
	}
	bounds := crop.Bounds()
	if bounds.Empty() {
		return nil
	}
	hist := make(Histogram, hueBins*saturationBins)
	if rgba, ok := crop.(*image.RGBA); ok {
		describeRGBA(rgba, hist)
	} else {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c, ok := colorful.MakeColor(crop.At(x, y))
				if !ok {
					// Fully transparent pixel
					continue
				}
				h, s, _ := c.Hsv()
				hist[histogramBin(h, s)]++
			}
		}
	}
	total := floats.Sum(hist)
	if total == 0 {
		return nil
	}
	floats.Scale(1.0/total, hist)
	return hist
}

// describeRGBA bins pixels reading Pix directly. Crops made by CopyRegion are *image.RGBA
func describeRGBA(img *image.RGBA, hist Histogram) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		offset := img.PixOffset(bounds.Min.X, y)
		row := img.Pix[offset : offset+4*bounds.Dx()]
		for i := 0; i < len(row); i += 4 {
			a := row[i+3]
			if a == 0 {
				continue
			}
			// Pix is alpha-premultiplied. Same integer math as colorful.MakeColor
			alpha := uint32(a) * 0x101
			c := colorful.Color{
				R: float64(uint32(row[i])*0x101*0xffff/alpha) / 0xffff,
				G: float64(uint32(row[i+1])*0x101*0xffff/alpha) / 0xffff,
				B: float64(uint32(row[i+2])*0x101*0xffff/alpha) / 0xffff,
			}
			h, s, _ := c.Hsv()
			hist[histogramBin(h, s)]++
		}
	}
}

func histogramBin(hue, saturation float64) int {
	hb := int(hue / maxHue * hueBins)
	if hb >= hueBins {
		hb = hueBins - 1
	}
	sb := int(saturation * saturationBins)
	if sb >= saturationBins {
		sb = saturationBins - 1
	}
	if hb < 0 {
		hb = 0
	}
	if sb < 0 {
		sb = 0
	}
	return hb*saturationBins + sb
}

// IsEmpty reports whether histogram carries no appearance information
func (h Histogram) IsEmpty() bool {
	return len(h) == 0
}

// Distance returns bounded Bhattacharyya distance sqrt(1 - BC) in [0, 1].
// 0 means identical distributions, 1 means no overlap. Unknown appearance on either side is 1.
func (h Histogram) Distance(other Histogram) float64 {
	if h.IsEmpty() || other.IsEmpty() || len(h) != len(other) {
		return 1.0
	}
	// stat.Bhattacharyya returns -ln(BC); BC = 0 gives +Inf and exp(-Inf) = 0
	coeff := math.Exp(-stat.Bhattacharyya(h, other))
	return math.Sqrt(maxFloat64(0, 1-coeff))
}
