package bestshot

import (
	"image"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"
)

// SharpnessFunc estimates image sharpness. Larger is sharper
type SharpnessFunc func(img image.Image) float64

const focusDownscale = 8

// FocusMeasure is variance of Laplacian of the grayscale image downsampled 8 times.
// Images too small for downsampling are measured as is. Returns 0 for images smaller than 3x3
func FocusMeasure(img image.Image) float64 {
	if img == nil {
		return 0
	}
	bounds := img.Bounds()
	width := bounds.Dx() / focusDownscale
	height := bounds.Dy() / focusDownscale
	if width < 3 || height < 3 {
		width = bounds.Dx()
		height = bounds.Dy()
	}
	if width < 3 || height < 3 {
		return 0
	}

	gray := image.NewGray(image.Rect(0, 0, width, height))
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, bounds, draw.Src, nil)
	}

	// 3x3 kernel [0 1 0; 1 -4 1; 0 1 0] over interior pixels
	responses := make([]float64, 0, (width-2)*(height-2))
	stride := gray.Stride
	for y := 1; y < height-1; y++ {
		row := y * stride
		for x := 1; x < width-1; x++ {
			center := float64(gray.Pix[row+x])
			sum := float64(gray.Pix[row+x-1]) + float64(gray.Pix[row+x+1]) +
				float64(gray.Pix[row-stride+x]) + float64(gray.Pix[row+stride+x])
			responses = append(responses, sum-4*center)
		}
	}
	return stat.PopVariance(responses, nil)
}
