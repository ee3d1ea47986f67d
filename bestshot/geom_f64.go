package bestshot

import (
	"image"
	"math"
)

// Rectangle is an axis-aligned box. X and Y are the top-left corner.
type Rectangle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func NewRect(x, y, width, height float64) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// NewRectCorners creates rectangle from detector-style corners (x1, y1) and (x2, y2)
func NewRectCorners(x1, y1, x2, y2 float64) Rectangle {
	return Rectangle{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}

func NewRectFrom(rect image.Rectangle) Rectangle {
	return Rectangle{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Dx()),
		Height: float64(rect.Dy()),
	}
}

// newRectCenter creates rectangle from center position and size
func newRectCenter(cx, cy, w, h float64) Rectangle {
	return Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
}

// Area returns rectangle's area. Degenerate rectangles have zero area
func (r Rectangle) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Center returns center of the rectangle
func (r Rectangle) Center() Point {
	return Point{
		X: r.X + r.Width/2.0,
		Y: r.Y + r.Height/2.0,
	}
}

// Image converts rectangle to integer image coordinates (truncating like the detector does)
func (r Rectangle) Image() image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
}

// IsFinite reports whether every component is a real number
func (r Rectangle) IsFinite() bool {
	for _, v := range [4]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Intersect returns the overlapping part of two rectangles (zero-size when disjoint)
func (r Rectangle) Intersect(other Rectangle) Rectangle {
	x1 := maxFloat64(r.X, other.X)
	y1 := maxFloat64(r.Y, other.Y)
	x2 := minFloat64(r.X+r.Width, other.X+other.Width)
	y2 := minFloat64(r.Y+r.Height, other.Y+other.Height)
	if x2 <= x1 || y2 <= y1 {
		return Rectangle{X: x1, Y: y1}
	}
	return NewRectCorners(x1, y1, x2, y2)
}

// ClampTo clips rectangle to [0, width) x [0, height). Result may be degenerate
func (r Rectangle) ClampTo(width, height float64) Rectangle {
	return r.Intersect(Rectangle{X: 0, Y: 0, Width: width, Height: height})
}

// clampWithFloor keeps rectangle inside the image and never lets it shrink below minSize.
// The box is shifted (not shrunk) when the floor pushes it past the border.
func (r Rectangle) clampWithFloor(width, height, minSize float64) Rectangle {
	w := minFloat64(maxFloat64(r.Width, minSize), width)
	h := minFloat64(maxFloat64(r.Height, minSize), height)
	x := minFloat64(maxFloat64(r.X, 0), width-w)
	y := minFloat64(maxFloat64(r.Y, 0), height-h)
	return Rectangle{X: x, Y: y, Width: w, Height: h}
}

// Expand grows rectangle by the given fraction of its size (split evenly between both sides)
func (r Rectangle) Expand(fraction float64) Rectangle {
	dw := r.Width * fraction / 2.0
	dh := r.Height * fraction / 2.0
	return Rectangle{
		X:      r.X - dw,
		Y:      r.Y - dh,
		Width:  r.Width + 2*dw,
		Height: r.Height + 2*dh,
	}
}

type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func NewPointFrom(point image.Point) Point {
	return Point{
		X: float64(point.X),
		Y: float64(point.Y),
	}
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
}
