package bestshot

import "image"

// Pose is secondary classifier result in the coordinates of the classified crop
type Pose struct {
	// Box of the face (or other part of interest)
	Box Rectangle
	// Keypoints in detector order: left eye, right eye, nose, then optional extra points
	Keypoints []Point
	Score     float64
}

// PoseClassifier finds pose of the subject on person crop
type PoseClassifier interface {
	Classify(crop image.Image) (Pose, bool)
}

// PoseClassifierFunc adapts plain function to PoseClassifier
type PoseClassifierFunc func(crop image.Image) (Pose, bool)

func (f PoseClassifierFunc) Classify(crop image.Image) (Pose, bool) {
	return f(crop)
}

// PoseAcceptor decides whether pose is good enough for a candidate
type PoseAcceptor func(pose Pose) bool

const (
	// Eye distance should be at least 20% of face width
	defaultMinEyeDistanceRatio = 0.2
	// Nose to eye midpoint should be at least 15% of face height
	defaultMinNoseDistanceRatio = 0.15
)

// FrontalPose accepts faces looking towards the camera using landmark geometry.
// Non-positive ratios fall back to defaults
func FrontalPose(minEyeDistanceRatio, minNoseDistanceRatio float64) PoseAcceptor {
	if minEyeDistanceRatio <= 0 {
		minEyeDistanceRatio = defaultMinEyeDistanceRatio
	}
	if minNoseDistanceRatio <= 0 {
		minNoseDistanceRatio = defaultMinNoseDistanceRatio
	}
	return func(pose Pose) bool {
		if len(pose.Keypoints) < 3 || pose.Box.Area() == 0 {
			return false
		}
		leftEye := pose.Keypoints[0]
		rightEye := pose.Keypoints[1]
		nose := pose.Keypoints[2]

		eyeDistance := euclideanDistance(leftEye, rightEye)
		if eyeDistance < pose.Box.Width*minEyeDistanceRatio {
			return false
		}

		eyeMidpoint := Point{
			X: (leftEye.X + rightEye.X) / 2,
			Y: (leftEye.Y + rightEye.Y) / 2,
		}
		// Nose should be below eyes
		if nose.Y <= eyeMidpoint.Y {
			return false
		}
		if euclideanDistance(nose, eyeMidpoint) < pose.Box.Height*minNoseDistanceRatio {
			return false
		}

		// Profile faces have nose outside of the eyes span
		minX := minFloat64(leftEye.X, rightEye.X)
		maxX := maxFloat64(leftEye.X, rightEye.X)
		return nose.X >= minX && nose.X <= maxX
	}
}
