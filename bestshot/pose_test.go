package bestshot

import "testing"

func TestFrontalPose(t *testing.T) {
	accept := FrontalPose(0.2, 0.15)
	box := NewRect(0, 0, 100, 100)

	tests := []struct {
		name      string
		keypoints []Point
		correct   bool
	}{
		{"frontal", []Point{{X: 30, Y: 30}, {X: 70, Y: 30}, {X: 50, Y: 60}}, true},
		{"eyes too close", []Point{{X: 45, Y: 30}, {X: 55, Y: 30}, {X: 50, Y: 60}}, false},
		{"nose above eyes", []Point{{X: 30, Y: 60}, {X: 70, Y: 60}, {X: 50, Y: 30}}, false},
		{"nose too close to eyes", []Point{{X: 30, Y: 30}, {X: 70, Y: 30}, {X: 50, Y: 35}}, false},
		{"profile", []Point{{X: 30, Y: 30}, {X: 70, Y: 30}, {X: 90, Y: 60}}, false},
		{"missing keypoints", []Point{{X: 30, Y: 30}, {X: 70, Y: 30}}, false},
	}
	for _, tt := range tests {
		pose := Pose{Box: box, Keypoints: tt.keypoints}
		if answer := accept(pose); answer != tt.correct {
			t.Errorf("[%s] Wrong answer: %v, correct answer: %v", tt.name, answer, tt.correct)
		}
	}
}

func TestFrontalPoseDefaults(t *testing.T) {
	pose := Pose{
		Box:       NewRect(0, 0, 100, 100),
		Keypoints: []Point{{X: 30, Y: 30}, {X: 70, Y: 30}, {X: 50, Y: 60}},
	}
	if !FrontalPose(0, -1)(pose) {
		t.Errorf("Expected frontal pose to be accepted with default ratios")
	}
	if FrontalPose(0, 0)(Pose{Keypoints: pose.Keypoints}) {
		t.Errorf("Expected pose without box to be rejected")
	}
}
