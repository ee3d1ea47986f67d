package bestshot

// track is a single tracked subject. Owned by Tracker, never exposed to callers
type track struct {
	id     int
	filter MotionFilter
	bounds frameBounds
	// Box predicted on the current frame (association input)
	predicted Rectangle
	// Current box estimate
	box        Rectangle
	appearance Histogram

	age       int
	missed    int
	hits      int
	confirmed bool

	trend         *areaTrend
	isApproaching bool

	hasCaptured bool
	candidates  *candidatePool
}

func newTrack(id int, obs observation, cfg Config, bounds frameBounds) *track {
	return &track{
		id:         id,
		filter:     newMotionFilter(cfg.MotionModel, obs.box, bounds),
		bounds:     bounds,
		predicted:  obs.box,
		box:        obs.box,
		appearance: obs.appearance,
		hits:       1,
		confirmed:  cfg.ConfirmHits <= 1,
		trend:      newAreaTrend(cfg.TrendHistory, cfg.TrendLookback, cfg.TrendThreshold),
		candidates: newCandidatePool(cfg.CandidateCapacity),
	}
}

// predict advances the track by one frame
func (trk *track) predict() {
	trk.predicted = trk.filter.Predict()
	trk.box = trk.predicted
	trk.age++
	trk.missed++
}

// correct applies matched observation. Bookkeeping happens even if the filter update fails:
// the track keeps predicted box then
func (trk *track) correct(obs observation, confirmHits int) error {
	err := trk.filter.Correct(obs.box)
	if err == nil {
		trk.box = trk.bounds.clamp(trk.filter.State())
	}
	trk.missed = 0
	trk.hits++
	if trk.hits >= confirmHits {
		trk.confirmed = true
	}
	if !obs.appearance.IsEmpty() {
		trk.appearance = obs.appearance
	}
	trk.trend.push(obs.box.Area())
	switch trk.trend.classify() {
	case TrendApproaching:
		trk.isApproaching = true
	case TrendReceding:
		trk.isApproaching = false
	}
	return err
}

// TrackView is a read-only snapshot of a track for the current frame
type TrackView struct {
	ID            int
	Box           Rectangle
	Confirmed     bool
	Active        bool
	IsApproaching bool
	HasCaptured   bool
	Hits          int
	Missed        int
	Age           int
	// Velocity of (cx, cy, w, h) in pixels per frame
	Velocity   [4]float64
	Candidates int
}

func (trk *track) view(activeWindow int) TrackView {
	vx, vy, vw, vh := trk.filter.Velocity()
	return TrackView{
		ID:            trk.id,
		Box:           trk.box,
		Confirmed:     trk.confirmed,
		Active:        trk.missed < activeWindow,
		IsApproaching: trk.isApproaching,
		HasCaptured:   trk.hasCaptured,
		Hits:          trk.hits,
		Missed:        trk.missed,
		Age:           trk.age,
		Velocity:      [4]float64{vx, vy, vw, vh},
		Candidates:    trk.candidates.len(),
	}
}
