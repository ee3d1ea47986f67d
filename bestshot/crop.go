package bestshot

import (
	"image"

	"golang.org/x/image/draw"
)

// Detection is a single detector output for the current frame
type Detection struct {
	Box        Rectangle
	Confidence float64
	// Crop is owned by the detection. Nil when appearance is unknown
	Crop image.Image
}

// NewDetection cuts owned crop of the box out of the frame
func NewDetection(frame image.Image, box Rectangle, confidence float64) Detection {
	detection := Detection{
		Box:        box,
		Confidence: confidence,
	}
	if frame != nil {
		region := box.Image().Add(frame.Bounds().Min)
		if crop := CopyRegion(frame, region); crop != nil {
			detection.Crop = crop
		}
	}
	return detection
}

// CopyRegion returns deep copy of the region (in img coordinates) with bounds starting at (0, 0).
// Returns nil when region does not overlap the image
func CopyRegion(img image.Image, region image.Rectangle) *image.RGBA {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Copy(dst, image.Point{}, img, region, draw.Src, nil)
	return dst
}

func cloneImage(img image.Image) image.Image {
	if img == nil {
		return nil
	}
	copied := CopyRegion(img, img.Bounds())
	if copied == nil {
		return nil
	}
	return copied
}
