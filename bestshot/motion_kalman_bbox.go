package bestshot

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// accelerationFilter wraps 8-D kalman_filter.KalmanBBox whose process noise is driven by
// the acceleration standard deviation rather than fixed per-component values.
type accelerationFilter struct {
	tracker *kalman_filter.KalmanBBox
	bounds  frameBounds
}

func newAccelerationFilter(box Rectangle, bounds frameBounds) *accelerationFilter {
	return &accelerationFilter{
		tracker: newKalmanBBox(box),
		bounds:  bounds,
	}
}

func newKalmanBBox(box Rectangle) *kalman_filter.KalmanBBox {
	center := box.Center()

	// Kalman filter props
	dt := 1.0
	uCx := 0.0
	uCy := 0.0
	uW := 0.0
	uH := 0.0
	stdDevA := 2.0
	stdDevMCx := 0.1
	stdDevMCy := 0.1
	stdDevMW := 0.1
	stdDevMH := 0.1
	return kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevMCx, stdDevMCy, stdDevMW, stdDevMH,
		kalman_filter.WithStateBBox(center.X, center.Y, box.Width, box.Height),
	)
}

// Predict executes Kalman filter prediction step. KalmanBBox state is not writable,
// so the filter is re-seeded from the clamped box when clamping moved it
func (af *accelerationFilter) Predict() Rectangle {
	af.tracker.Predict()
	state := af.State()
	clamped := af.bounds.clamp(state)
	if clamped != state {
		af.tracker = newKalmanBBox(clamped)
	}
	return clamped
}

// Correct executes Kalman filter update step with full bbox measurement
func (af *accelerationFilter) Correct(observation Rectangle) error {
	center := observation.Center()
	err := af.tracker.Update(center.X, center.Y, observation.Width, observation.Height)
	if err != nil {
		return errors.Wrap(err, "Can't update object tracker")
	}
	return nil
}

// State returns smoothed bounding box
func (af *accelerationFilter) State() Rectangle {
	cx, cy, w, h := af.tracker.GetState()
	return newRectCenter(cx, cy, w, h)
}

// Velocity returns current velocity estimates (vx, vy, vw, vh)
func (af *accelerationFilter) Velocity() (float64, float64, float64, float64) {
	return af.tracker.GetVelocity()
}
