package bestshot

// IoU calculates Intersection over Union between two rectangles.
// Returns 0 for disjoint or degenerate rectangles.
func IoU(r1, r2 Rectangle) float64 {
	xA := maxFloat64(r1.X, r2.X)
	yA := maxFloat64(r1.Y, r2.Y)
	xB := minFloat64(r1.X+r1.Width, r2.X+r2.Width)
	yB := minFloat64(r1.Y+r1.Height, r2.Y+r2.Height)

	interArea := maxFloat64(0, xB-xA) * maxFloat64(0, yB-yA)
	if interArea == 0 {
		return 0.0
	}

	unionArea := r1.Area() + r2.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}
	return interArea / unionArea
}

// areaRatio returns smaller-to-larger area ratio of two rectangles in [0, 1]
func areaRatio(r1, r2 Rectangle) float64 {
	a1 := r1.Area()
	a2 := r2.Area()
	larger := maxFloat64(a1, a2)
	if larger == 0 {
		return 0
	}
	return minFloat64(a1, a2) / larger
}

func clamp01(v float64) float64 {
	return minFloat64(maxFloat64(v, 0), 1)
}

func maxFloat64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
