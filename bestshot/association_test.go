package bestshot

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestAssociator(strategy AssignmentStrategy) *Associator {
	cfg := DefaultConfig()
	cfg.Assignment = strategy
	return NewAssociator(cfg)
}

func TestAssociatorCost(t *testing.T) {
	associator := newTestAssociator(AssignmentGreedy)
	box := NewRect(100, 100, 50, 50)

	// Perfect overlap, unknown appearance, full confidence
	cost := associator.Cost(box, nil, box, nil, 1.0)
	if math.Abs(cost-0.3) > eps {
		t.Errorf("Expected cost 0.3, got %f", cost)
	}

	// Confidence is clamped into [0, 1]
	cost = associator.Cost(box, nil, box, nil, 5.0)
	if math.Abs(cost-0.3) > eps {
		t.Errorf("Expected cost 0.3 for clamped confidence, got %f", cost)
	}

	// Area ratio 0.25 is below guard: penalty applies
	small := NewRect(100, 100, 25, 25)
	cost = associator.Cost(box, nil, small, nil, 1.0)
	correctAnswer := 0.6*(1-0.25) + 0.3 + 0.5
	if math.Abs(cost-correctAnswer) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", cost, correctAnswer)
	}
}

func TestAssignGreedyVsHungarian(t *testing.T) {
	cost := [][]float64{
		{0.1, 0.2},
		{0.15, 0.6},
	}

	greedy := newTestAssociator(AssignmentGreedy).Assign(cost, 2, 2)
	correctGreedy := [][2]int{{0, 0}, {1, 1}}
	if diff := cmp.Diff(correctGreedy, greedy.Matches); diff != "" {
		t.Errorf("Greedy matches mismatch (-want +got):\n%s", diff)
	}

	hung := newTestAssociator(AssignmentHungarian).Assign(cost, 2, 2)
	correctHungarian := [][2]int{{0, 1}, {1, 0}}
	if diff := cmp.Diff(correctHungarian, hung.Matches); diff != "" {
		t.Errorf("Hungarian matches mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignCeiling(t *testing.T) {
	for _, strategy := range []AssignmentStrategy{AssignmentGreedy, AssignmentHungarian} {
		associator := newTestAssociator(strategy)
		cost := [][]float64{
			{0.7, 0.9},
			{0.8, 0.2},
		}
		assignment := associator.Assign(cost, 2, 2)
		correctMatches := [][2]int{{1, 1}}
		if diff := cmp.Diff(correctMatches, assignment.Matches); diff != "" {
			t.Errorf("[%s] matches mismatch (-want +got):\n%s", strategy, diff)
		}
		if diff := cmp.Diff([]int{0}, assignment.UnmatchedTracks); diff != "" {
			t.Errorf("[%s] unmatched tracks mismatch (-want +got):\n%s", strategy, diff)
		}
		if diff := cmp.Diff([]int{0}, assignment.UnmatchedDetections); diff != "" {
			t.Errorf("[%s] unmatched detections mismatch (-want +got):\n%s", strategy, diff)
		}
	}
}

func TestAssignGreedyTies(t *testing.T) {
	cost := [][]float64{
		{0.3, 0.3},
		{0.3, 0.3},
	}
	assignment := newTestAssociator(AssignmentGreedy).Assign(cost, 2, 2)
	correctMatches := [][2]int{{0, 0}, {1, 1}}
	if diff := cmp.Diff(correctMatches, assignment.Matches); diff != "" {
		t.Errorf("Matches mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignRectangular(t *testing.T) {
	cost := [][]float64{
		{0.5, 0.1, 0.4},
	}
	for _, strategy := range []AssignmentStrategy{AssignmentGreedy, AssignmentHungarian} {
		assignment := newTestAssociator(strategy).Assign(cost, 1, 3)
		if diff := cmp.Diff([][2]int{{0, 1}}, assignment.Matches); diff != "" {
			t.Errorf("[%s] matches mismatch (-want +got):\n%s", strategy, diff)
		}
		if diff := cmp.Diff([]int{0, 2}, assignment.UnmatchedDetections); diff != "" {
			t.Errorf("[%s] unmatched detections mismatch (-want +got):\n%s", strategy, diff)
		}
	}
}

func TestAssignEmpty(t *testing.T) {
	associator := newTestAssociator(AssignmentGreedy)

	assignment := associator.Assign(nil, 0, 3)
	if len(assignment.Matches) != 0 {
		t.Errorf("Expected no matches, got %d", len(assignment.Matches))
	}
	if diff := cmp.Diff([]int{0, 1, 2}, assignment.UnmatchedDetections); diff != "" {
		t.Errorf("Unmatched detections mismatch (-want +got):\n%s", diff)
	}

	assignment = associator.Assign(nil, 2, 0)
	if diff := cmp.Diff([]int{0, 1}, assignment.UnmatchedTracks); diff != "" {
		t.Errorf("Unmatched tracks mismatch (-want +got):\n%s", diff)
	}
}
