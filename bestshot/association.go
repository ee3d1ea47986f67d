package bestshot

import (
	"container/heap"
	"sort"

	"github.com/arthurkushman/go-hungarian"
)

// AssignmentStrategy is for algorithm type for matching detections to tracks
type AssignmentStrategy uint16

const (
	// AssignmentGreedy repeatedly takes the globally cheapest remaining pair. Fast, but not optimal in ambiguous scenes
	AssignmentGreedy AssignmentStrategy = iota
	// AssignmentHungarian uses the Hungarian algorithm (Kuhn-Munkres) for optimal assignment
	AssignmentHungarian
)

func (s AssignmentStrategy) String() string {
	switch s {
	case AssignmentGreedy:
		return "greedy"
	case AssignmentHungarian:
		return "hungarian"
	default:
		return "unknown"
	}
}

// CostWeights are weights of the additive association cost terms
type CostWeights struct {
	IoU        float64 `yaml:"iou"`
	Appearance float64 `yaml:"appearance"`
	Confidence float64 `yaml:"confidence"`
}

// Assignment is partial bijection between track indices (rows) and detection indices (columns)
type Assignment struct {
	Matches             [][2]int
	UnmatchedTracks     []int
	UnmatchedDetections []int
}

// Associator builds cost matrices and solves track-to-detection assignment
type Associator struct {
	weights          CostWeights
	ceiling          float64
	areaRatioGuard   float64
	areaRatioPenalty float64
	strategy         AssignmentStrategy
}

// NewAssociator creates associator from tracker configuration
func NewAssociator(cfg Config) *Associator {
	return &Associator{
		weights:          cfg.Weights,
		ceiling:          cfg.CostCeiling,
		areaRatioGuard:   cfg.AreaRatioGuard,
		areaRatioPenalty: cfg.AreaRatioPenalty,
		strategy:         cfg.Assignment,
	}
}

// Cost returns association cost between predicted track box and detection.
// Every term is a "smaller is better" value in [0, 1] before weighting: IoU is flipped, histogram distance is used as is.
func (a *Associator) Cost(trackBox Rectangle, trackAppearance Histogram, detBox Rectangle, detAppearance Histogram, confidence float64) float64 {
	cost := a.weights.IoU*(1-IoU(trackBox, detBox)) +
		a.weights.Appearance*trackAppearance.Distance(detAppearance) +
		a.weights.Confidence*(1-clamp01(confidence))
	if areaRatio(trackBox, detBox) < a.areaRatioGuard {
		cost += a.areaRatioPenalty
	}
	return cost
}

// costMatrix builds cost matrix: rows = tracks, columns = detections
func (a *Associator) costMatrix(tracks []*track, detections []observation) [][]float64 {
	matrix := make([][]float64, len(tracks))
	for i, trk := range tracks {
		row := make([]float64, len(detections))
		for j := range detections {
			det := &detections[j]
			row[j] = a.Cost(trk.predicted, trk.appearance, det.box, det.appearance, det.confidence)
		}
		matrix[i] = row
	}
	return matrix
}

// Assign computes assignment for the given cost matrix. Pairs with cost not below the ceiling are never matched.
func (a *Associator) Assign(cost [][]float64, numTracks, numDetections int) Assignment {
	var matches [][2]int
	if numTracks > 0 && numDetections > 0 {
		switch a.strategy {
		case AssignmentHungarian:
			matches = a.assignHungarian(cost, numTracks, numDetections)
		default:
			matches = a.assignGreedy(cost)
		}
	}

	matchedTracks := make([]bool, numTracks)
	matchedDetections := make([]bool, numDetections)
	for _, m := range matches {
		matchedTracks[m[0]] = true
		matchedDetections[m[1]] = true
	}
	result := Assignment{
		Matches:             matches,
		UnmatchedTracks:     make([]int, 0, numTracks-len(matches)),
		UnmatchedDetections: make([]int, 0, numDetections-len(matches)),
	}
	for i, ok := range matchedTracks {
		if !ok {
			result.UnmatchedTracks = append(result.UnmatchedTracks, i)
		}
	}
	for j, ok := range matchedDetections {
		if !ok {
			result.UnmatchedDetections = append(result.UnmatchedDetections, j)
		}
	}
	return result
}

// assignGreedy pops the cheapest entry, accepts it if both row and column are free, and repeats
func (a *Associator) assignGreedy(cost [][]float64) [][2]int {
	pq := make(costHeap, 0)
	for i, row := range cost {
		for j, c := range row {
			if c < a.ceiling {
				pq = append(pq, costEntry{row: i, col: j, cost: c})
			}
		}
	}
	heap.Init(&pq)

	matches := make([][2]int, 0)
	usedRows := make(map[int]struct{})
	usedCols := make(map[int]struct{})
	for pq.Len() > 0 {
		entry := heap.Pop(&pq).(costEntry)
		if _, found := usedRows[entry.row]; found {
			continue
		}
		if _, found := usedCols[entry.col]; found {
			continue
		}
		matches = append(matches, [2]int{entry.row, entry.col})
		usedRows[entry.row] = struct{}{}
		usedCols[entry.col] = struct{}{}
	}
	return matches
}

// assignHungarian maximizes (ceiling - cost) over a padded square matrix
func (a *Associator) assignHungarian(cost [][]float64, numTracks, numDetections int) [][2]int {
	paddedSize := maxInt(numTracks, numDetections)
	profit := make([][]float64, paddedSize)
	for i := 0; i < paddedSize; i++ {
		profit[i] = make([]float64, paddedSize)
	}
	for i := 0; i < numTracks; i++ {
		for j := 0; j < numDetections; j++ {
			if cost[i][j] < a.ceiling {
				profit[i][j] = a.ceiling - cost[i][j]
			}
		}
	}

	assignmentsMap := hungarian.SolveMax(profit)
	matches := make([][2]int, 0)
	for trackIndex, rowMap := range assignmentsMap {
		for detectionIndex := range rowMap {
			// Padding rows/columns and gated pairs are dropped
			if trackIndex < numTracks && detectionIndex < numDetections && cost[trackIndex][detectionIndex] < a.ceiling {
				matches = append(matches, [2]int{trackIndex, detectionIndex})
			}
			break
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i][0] < matches[j][0]
	})
	return matches
}
