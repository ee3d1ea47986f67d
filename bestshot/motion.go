package bestshot

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MotionModel selects the state estimator used by tracks
type MotionModel uint16

const (
	// MotionModelConstantVelocity uses fixed diagonal process/measurement noise (default)
	MotionModelConstantVelocity MotionModel = iota
	// MotionModelAcceleration uses kalman_filter.KalmanBBox with acceleration-driven process noise
	MotionModelAcceleration
)

func (m MotionModel) String() string {
	switch m {
	case MotionModelConstantVelocity:
		return "constant_velocity"
	case MotionModelAcceleration:
		return "acceleration"
	default:
		return "unknown"
	}
}

const (
	stateDim       = 8
	measurementDim = 4
)

// Process noise per state component. Extents change slower than position
const (
	processNoisePosition     = 1.0
	processNoiseSize         = 0.5
	processNoiseVelocity     = 0.25
	processNoiseSizeVelocity = 0.05
	measurementNoise         = 1.0
	initialUncertaintyState  = 10.0
	// Velocity of a new track is unknown
	initialUncertaintyVelocity = 1000.0
)

// MotionFilter estimates bounding box dynamics of a single track.
// State vector: [cx, cy, w, h, vx, vy, vw, vh].
type MotionFilter interface {
	// Predict advances state by one step and returns the predicted box clamped to frame bounds
	Predict() Rectangle
	// Correct applies measurement update with directly observed box
	Correct(observation Rectangle) error
	// State returns current box estimate
	State() Rectangle
	// Velocity returns current velocity estimates (vx, vy, vw, vh)
	Velocity() (float64, float64, float64, float64)
}

// frameBounds describes the image the boxes live in
type frameBounds struct {
	width   float64
	height  float64
	minSize float64
}

func (b frameBounds) clamp(r Rectangle) Rectangle {
	return r.clampWithFloor(b.width, b.height, b.minSize)
}

func newMotionFilter(model MotionModel, box Rectangle, bounds frameBounds) MotionFilter {
	switch model {
	case MotionModelAcceleration:
		return newAccelerationFilter(box, bounds)
	default:
		return newConstantVelocityFilter(box, bounds)
	}
}

// constantVelocityFilter is linear Kalman filter with identity measurement of (cx, cy, w, h)
type constantVelocityFilter struct {
	x      *mat.VecDense
	p      *mat.Dense
	f      *mat.Dense
	q      *mat.DiagDense
	h      *mat.Dense
	r      *mat.DiagDense
	bounds frameBounds
}

func newConstantVelocityFilter(box Rectangle, bounds frameBounds) *constantVelocityFilter {
	center := box.Center()
	x := mat.NewVecDense(stateDim, []float64{center.X, center.Y, box.Width, box.Height, 0, 0, 0, 0})

	// Position += velocity, velocity unchanged
	f := mat.NewDense(stateDim, stateDim, nil)
	for i := 0; i < stateDim; i++ {
		f.Set(i, i, 1)
	}
	for i := 0; i < measurementDim; i++ {
		f.Set(i, i+measurementDim, 1)
	}

	h := mat.NewDense(measurementDim, stateDim, nil)
	for i := 0; i < measurementDim; i++ {
		h.Set(i, i, 1)
	}

	q := mat.NewDiagDense(stateDim, []float64{
		processNoisePosition, processNoisePosition,
		processNoiseSize, processNoiseSize,
		processNoiseVelocity, processNoiseVelocity,
		processNoiseSizeVelocity, processNoiseSizeVelocity,
	})
	r := mat.NewDiagDense(measurementDim, []float64{
		measurementNoise, measurementNoise, measurementNoise, measurementNoise,
	})

	p := mat.NewDense(stateDim, stateDim, nil)
	for i := 0; i < measurementDim; i++ {
		p.Set(i, i, initialUncertaintyState)
		p.Set(i+measurementDim, i+measurementDim, initialUncertaintyVelocity)
	}

	return &constantVelocityFilter{
		x:      x,
		p:      p,
		f:      f,
		q:      q,
		h:      h,
		r:      r,
		bounds: bounds,
	}
}

// Predict executes Kalman filter prediction step. Clamped box is written back into the state
func (kf *constantVelocityFilter) Predict() Rectangle {
	var xNext mat.VecDense
	xNext.MulVec(kf.f, kf.x)

	var fp, fpf, pNext mat.Dense
	fp.Mul(kf.f, kf.p)
	fpf.Mul(&fp, kf.f.T())
	pNext.Add(&fpf, kf.q)

	kf.x = &xNext
	kf.p = &pNext

	clamped := kf.bounds.clamp(kf.State())
	kf.setBox(clamped)
	return clamped
}

// Correct executes Kalman filter update step
func (kf *constantVelocityFilter) Correct(observation Rectangle) error {
	center := observation.Center()
	z := mat.NewVecDense(measurementDim, []float64{center.X, center.Y, observation.Width, observation.Height})

	var hx, innovation mat.VecDense
	hx.MulVec(kf.h, kf.x)
	innovation.SubVec(z, &hx)

	// S = H*P*H' + R
	var hp, hph, s mat.Dense
	hp.Mul(kf.h, kf.p)
	hph.Mul(&hp, kf.h.T())
	s.Add(&hph, kf.r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		return errors.Wrap(err, "Can't invert innovation covariance")
	}

	// K = P*H'*S^-1
	var pht, gain mat.Dense
	pht.Mul(kf.p, kf.h.T())
	gain.Mul(&pht, &sInv)

	var correction, xNext mat.VecDense
	correction.MulVec(&gain, &innovation)
	xNext.AddVec(kf.x, &correction)

	// P = (I - K*H)*P
	var kh, ikh, pNext mat.Dense
	kh.Mul(&gain, kf.h)
	ikh.Sub(eye(stateDim), &kh)
	pNext.Mul(&ikh, kf.p)

	kf.x = &xNext
	kf.p = &pNext
	return nil
}

// State returns current bounding box estimate
func (kf *constantVelocityFilter) State() Rectangle {
	return newRectCenter(kf.x.AtVec(0), kf.x.AtVec(1), kf.x.AtVec(2), kf.x.AtVec(3))
}

// Velocity returns current velocity estimates (vx, vy, vw, vh)
func (kf *constantVelocityFilter) Velocity() (float64, float64, float64, float64) {
	return kf.x.AtVec(4), kf.x.AtVec(5), kf.x.AtVec(6), kf.x.AtVec(7)
}

func (kf *constantVelocityFilter) setBox(box Rectangle) {
	center := box.Center()
	kf.x.SetVec(0, center.X)
	kf.x.SetVec(1, center.Y)
	kf.x.SetVec(2, box.Width)
	kf.x.SetVec(3, box.Height)
}

func eye(n int) *mat.DiagDense {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	return mat.NewDiagDense(n, ones)
}
