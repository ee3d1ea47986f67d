package bestshot

import (
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
)

func findView(views []TrackView, id int) (TrackView, bool) {
	for _, view := range views {
		if view.ID == id {
			return view, true
		}
	}
	return TrackView{}, false
}

func TestNewTrackerInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMissed = -1
	if _, err := NewTracker(cfg); err == nil {
		t.Errorf("Expected error for invalid config")
	}
}

func TestTrackerStationary(t *testing.T) {
	tracker := NewDefaultTracker()
	crop := solidImage(40, 40, color.RGBA{R: 200, G: 40, B: 40, A: 255})
	detection := Detection{Box: NewRectCorners(10, 10, 50, 50), Confidence: 0.9, Crop: crop}

	var views []TrackView
	for i := 0; i < 10; i++ {
		views = tracker.Update([]Detection{detection})
	}

	correctViews := []TrackView{{
		ID:        1,
		Confirmed: true,
		Active:    true,
		Hits:      10,
		Missed:    0,
		Age:       9,
	}}
	if diff := cmp.Diff(correctViews, views, cmpopts.IgnoreFields(TrackView{}, "Box", "Velocity")); diff != "" {
		t.Errorf("Views mismatch (-want +got):\n%s", diff)
	}
	if iou := IoU(views[0].Box, detection.Box); iou < 0.95 {
		t.Errorf("Expected box close to detection, IoU is %f", iou)
	}
}

func TestTrackerConfirmation(t *testing.T) {
	tracker := NewDefaultTracker()
	detection := Detection{Box: NewRect(100, 100, 60, 120), Confidence: 0.8}
	for frame, correctConfirmed := range []bool{false, false, true, true} {
		views := tracker.Update([]Detection{detection})
		if len(views) != 1 {
			t.Fatalf("Frame %d: expected 1 track, got %d", frame, len(views))
		}
		if views[0].Confirmed != correctConfirmed {
			t.Errorf("Frame %d: expected confirmed %v, got %v (hits %d)", frame, correctConfirmed, views[0].Confirmed, views[0].Hits)
		}
	}
}

func TestTrackerTimeout(t *testing.T) {
	removed := make([]RemovedTrack, 0)
	tracker := NewDefaultTracker(WithRemovalHook(func(r RemovedTrack) {
		removed = append(removed, r)
	}))
	tracker.Update([]Detection{{Box: NewRect(200, 200, 50, 100), Confidence: 0.9}})

	for i := 1; i <= 30; i++ {
		views := tracker.Update(nil)
		if len(views) != 1 {
			t.Fatalf("Update %d: expected track to be alive, got %d tracks", i, len(views))
		}
		if views[0].Missed != i {
			t.Errorf("Update %d: expected missed %d, got %d", i, i, views[0].Missed)
		}
		if views[0].Active != (i < 3) {
			t.Errorf("Update %d: expected active %v, got %v", i, i < 3, views[0].Active)
		}
	}
	views := tracker.Update(nil)
	if len(views) != 0 {
		t.Errorf("Expected track to be removed on update 31, got %d tracks", len(views))
	}
	if len(removed) != 1 {
		t.Fatalf("Expected removal hook to be called once, got %d", len(removed))
	}
	if removed[0].View.ID != 1 || removed[0].Best != nil {
		t.Errorf("Unexpected removed track: %+v", removed[0])
	}
}

func TestTrackerRemovalHookBest(t *testing.T) {
	var removed *RemovedTrack
	tracker := NewDefaultTracker(WithRemovalHook(func(r RemovedTrack) {
		removed = &r
	}))
	tracker.Update([]Detection{{Box: NewRect(200, 200, 50, 100), Confidence: 0.9}})
	for _, score := range []float64{3, 7, 5} {
		if _, err := tracker.AddCandidate(1, FrameCandidate{Score: score}); err != nil {
			t.Fatalf("AddCandidate failed: %v", err)
		}
	}
	for i := 0; i <= DefaultConfig().MaxMissed; i++ {
		tracker.Update(nil)
	}
	if removed == nil || removed.Best == nil {
		t.Fatalf("Expected removed track with best candidate")
	}
	if removed.Best.Score != 7 {
		t.Errorf("Expected best score 7, got %f", removed.Best.Score)
	}
}

func TestTrackerIDsNeverReused(t *testing.T) {
	tracker := NewDefaultTracker()
	views := tracker.Update([]Detection{
		{Box: NewRect(10, 10, 50, 50), Confidence: 0.9},
		{Box: NewRect(600, 300, 50, 50), Confidence: 0.9},
	})
	if len(views) != 2 {
		t.Fatalf("Expected 2 tracks, got %d", len(views))
	}
	seen := map[int]bool{}
	for _, view := range views {
		seen[view.ID] = true
	}
	if !seen[1] || !seen[2] {
		t.Errorf("Expected ids 1 and 2, got %+v", seen)
	}

	for i := 0; i <= 30; i++ {
		tracker.Update(nil)
	}
	if tracker.Len() != 0 {
		t.Fatalf("Expected all tracks to be removed, got %d", tracker.Len())
	}

	views = tracker.Update([]Detection{{Box: NewRect(10, 10, 50, 50), Confidence: 0.9}})
	if len(views) != 1 || views[0].ID != 3 {
		t.Errorf("Expected single track with id 3, got %+v", views)
	}
}

func TestTrackerCostTieBreak(t *testing.T) {
	tracker := NewDefaultTracker()
	tracker.Update([]Detection{{Box: NewRect(100, 100, 50, 50), Confidence: 0.9}})

	far := NewRect(120, 100, 50, 50)
	near := NewRect(102, 100, 50, 50)
	views := tracker.Update([]Detection{
		{Box: far, Confidence: 0.9},
		{Box: near, Confidence: 0.9},
	})
	if len(views) != 2 {
		t.Fatalf("Expected 2 tracks, got %d", len(views))
	}
	first, ok := findView(views, 1)
	if !ok {
		t.Fatalf("Expected track 1 to survive")
	}
	if first.Hits != 2 {
		t.Errorf("Expected track 1 to be matched, hits %d", first.Hits)
	}
	if first.Box.X <= 100 || first.Box.X > 102+eps {
		t.Errorf("Expected track 1 to move towards the near detection, got %+v", first.Box)
	}
	second, ok := findView(views, 2)
	if !ok {
		t.Fatalf("Expected new track 2")
	}
	if diff := cmp.Diff(far, second.Box); diff != "" {
		t.Errorf("Expected track 2 at the far detection (-want +got):\n%s", diff)
	}
}

func TestTrackerApproaching(t *testing.T) {
	tracker := NewDefaultTracker()
	for frame := 1; frame <= 6; frame++ {
		side := 40 + 4*float64(frame-1)
		box := NewRect(30-side/2, 30-side/2, side, side)
		views := tracker.Update([]Detection{{Box: box, Confidence: 0.9}})
		if len(views) != 1 || views[0].ID != 1 {
			t.Fatalf("Frame %d: expected single track with id 1, got %+v", frame, views)
		}
		correctApproaching := frame == 6
		if views[0].IsApproaching != correctApproaching {
			t.Errorf("Frame %d: expected approaching %v, got %v", frame, correctApproaching, views[0].IsApproaching)
		}
	}
}

func TestTrackerSanitize(t *testing.T) {
	tracker := NewDefaultTracker()
	views := tracker.Update([]Detection{
		{Box: NewRect(math.NaN(), 10, 50, 50), Confidence: 0.9},
		{Box: NewRect(10, 10, 0, 50), Confidence: 0.9},
		{Box: NewRect(10, 10, 50, -5), Confidence: 0.9},
		{Box: NewRect(5000, 10, 50, 50), Confidence: 0.9},
		{Box: NewRect(10, 10, 50, 50), Confidence: math.NaN()},
		{Box: NewRect(1250, 700, 100, 100), Confidence: 0.9},
	})
	if len(views) != 1 {
		t.Fatalf("Expected only one valid detection, got %d tracks", len(views))
	}
	correctBox := NewRect(1250, 700, 30, 20)
	if diff := cmp.Diff(correctBox, views[0].Box); diff != "" {
		t.Errorf("Expected detection clamped to the frame (-want +got):\n%s", diff)
	}
}

func TestTrackerLookup(t *testing.T) {
	tracker := NewDefaultTracker()
	tracker.Update([]Detection{{Box: NewRect(10, 10, 50, 50), Confidence: 0.9}})
	if _, ok := tracker.Track(1); !ok {
		t.Errorf("Expected track 1")
	}
	if _, ok := tracker.Track(2); ok {
		t.Errorf("Expected no track 2")
	}
	if count := tracker.CandidateCount(2); count != 0 {
		t.Errorf("Expected 0 candidates for unknown track, got %d", count)
	}
	if _, ok := tracker.BestCandidate(1); ok {
		t.Errorf("Expected no candidates")
	}
}

func TestTrackerAccelerationModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MotionModel = MotionModelAcceleration
	cfg.Assignment = AssignmentHungarian
	tracker, err := NewTracker(cfg)
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}
	detection := Detection{Box: NewRect(300, 200, 80, 160), Confidence: 0.9}
	var views []TrackView
	for i := 0; i < 5; i++ {
		views = tracker.Update([]Detection{detection})
	}
	if len(views) != 1 || views[0].ID != 1 || views[0].Hits != 5 {
		t.Errorf("Expected single track with 5 hits, got %+v", views)
	}
}

func TestTrackerErrorsWrapped(t *testing.T) {
	tracker := NewDefaultTracker()
	_, err := tracker.AddCandidate(1, FrameCandidate{})
	if errors.Cause(err) != ErrTrackNotFound {
		t.Errorf("Expected cause ErrTrackNotFound, got %v", errors.Cause(err))
	}
}

func TestTrackerRemovalHookSeesSettledTracks(t *testing.T) {
	var tracker *Tracker
	removedIDs := make([]int, 0)
	tracker = NewDefaultTracker(WithRemovalHook(func(r RemovedTrack) {
		removedIDs = append(removedIDs, r.View.ID)
		seen := map[int]bool{}
		for _, view := range tracker.Tracks() {
			if seen[view.ID] {
				t.Errorf("Track %d is listed twice inside removal hook", view.ID)
			}
			seen[view.ID] = true
		}
		if seen[1] || seen[3] {
			t.Errorf("Removed tracks are still listed inside removal hook: %+v", seen)
		}
		if !seen[2] {
			t.Errorf("Expected track 2 to be listed inside removal hook")
		}
	}))

	stay := Detection{Box: NewRect(600, 300, 50, 50), Confidence: 0.9}
	views := tracker.Update([]Detection{
		{Box: NewRect(10, 10, 50, 50), Confidence: 0.9},
		stay,
		{Box: NewRect(1100, 600, 50, 50), Confidence: 0.9},
	})
	if len(views) != 3 {
		t.Fatalf("Expected 3 tracks, got %d", len(views))
	}
	for i := 0; i <= DefaultConfig().MaxMissed; i++ {
		tracker.Update([]Detection{stay})
	}
	if diff := cmp.Diff([]int{1, 3}, removedIDs); diff != "" {
		t.Errorf("Removed ids mismatch (-want +got):\n%s", diff)
	}
	if tracker.Len() != 1 {
		t.Errorf("Expected 1 live track, got %d", tracker.Len())
	}
}
