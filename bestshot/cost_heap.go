package bestshot

// costEntry is a single (track, detection) pair in the cost matrix
type costEntry struct {
	row  int
	col  int
	cost float64
}

// costHeap implements heap.Interface as min-heap by cost.
// Equal costs are ordered by row, then column, so the result never depends on heap internals.
type costHeap []costEntry

func (h costHeap) Len() int { return len(h) }

func (h costHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if h[i].row != h[j].row {
		return h[i].row < h[j].row
	}
	return h[i].col < h[j].col
}

func (h costHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *costHeap) Push(x any) {
	*h = append(*h, x.(costEntry))
}

func (h *costHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}
