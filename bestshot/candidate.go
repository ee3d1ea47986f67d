package bestshot

import (
	"image"
	"math"
)

// FrameCandidate is a scored snapshot of a track
type FrameCandidate struct {
	Score float64
	// Primary is the person crop
	Primary image.Image
	// Secondary is the expanded face crop, nil when no pose classifier is used
	Secondary image.Image
	Clarity   float64
	AreaRatio float64
}

func (fc FrameCandidate) clone() FrameCandidate {
	fc.Primary = cloneImage(fc.Primary)
	fc.Secondary = cloneImage(fc.Secondary)
	return fc
}

// candidatePool is bounded set of candidates of a single track
type candidatePool struct {
	items    []FrameCandidate
	capacity int
}

func newCandidatePool(capacity int) *candidatePool {
	return &candidatePool{
		items:    make([]FrameCandidate, 0, capacity),
		capacity: capacity,
	}
}

// insert appends candidate while there is room. When full, candidate replaces the worst one
// only if its score is strictly greater. Candidate is stored as is (caller clones)
func (cp *candidatePool) insert(candidate FrameCandidate) bool {
	if math.IsNaN(candidate.Score) {
		return false
	}
	if len(cp.items) < cp.capacity {
		cp.items = append(cp.items, candidate)
		return true
	}
	worst := 0
	for i := 1; i < len(cp.items); i++ {
		if cp.items[i].Score < cp.items[worst].Score {
			worst = i
		}
	}
	if candidate.Score <= cp.items[worst].Score {
		return false
	}
	cp.items[worst] = candidate
	return true
}

// best returns the highest scored candidate. Earliest inserted wins ties
func (cp *candidatePool) best() (FrameCandidate, bool) {
	if len(cp.items) == 0 {
		return FrameCandidate{}, false
	}
	best := 0
	for i := 1; i < len(cp.items); i++ {
		if cp.items[i].Score > cp.items[best].Score {
			best = i
		}
	}
	return cp.items[best], true
}

func (cp *candidatePool) len() int {
	return len(cp.items)
}

func (cp *candidatePool) clear() {
	for i := range cp.items {
		cp.items[i] = FrameCandidate{}
	}
	cp.items = cp.items[:0]
}
