package bestshot

// Trend is motion direction relative to the camera derived from box area growth
type Trend int

const (
	// TrendUnknown means not enough samples or growth within hysteresis band
	TrendUnknown Trend = iota
	TrendApproaching
	TrendReceding
)

func (t Trend) String() string {
	switch t {
	case TrendApproaching:
		return "approaching"
	case TrendReceding:
		return "receding"
	default:
		return "unknown"
	}
}

// areaTrend keeps bounded history of observed box areas
type areaTrend struct {
	areas     []float64
	maxLen    int
	lookback  int
	threshold float64
}

func newAreaTrend(maxLen, lookback int, threshold float64) *areaTrend {
	return &areaTrend{
		areas:     make([]float64, 0, maxLen),
		maxLen:    maxLen,
		lookback:  lookback,
		threshold: threshold,
	}
}

// push appends area and drops the oldest one when history is full
func (at *areaTrend) push(area float64) {
	at.areas = append(at.areas, area)
	if len(at.areas) > at.maxLen {
		at.areas = at.areas[1:]
	}
}

// classify compares the newest area with the one lookback-1 samples before it.
// Growth above threshold is approaching, shrink below -threshold is receding
func (at *areaTrend) classify() Trend {
	n := len(at.areas)
	if n < at.lookback {
		return TrendUnknown
	}
	then := at.areas[n-at.lookback]
	if then <= 0 {
		return TrendUnknown
	}
	ratio := (at.areas[n-1] - then) / then
	switch {
	case ratio > at.threshold:
		return TrendApproaching
	case ratio < -at.threshold:
		return TrendReceding
	default:
		return TrendUnknown
	}
}

func (at *areaTrend) len() int {
	return len(at.areas)
}
