package bestshot

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrTrackNotFound   = errors.New("track not found")
	ErrAlreadyCaptured = errors.New("track already captured")
	ErrNoCandidates    = errors.New("track has no candidates")
)

// RemovedTrack is passed to RemovalHook when a track times out
type RemovedTrack struct {
	View TrackView
	// Best is the highest scored pooled candidate, nil if the track was captured or had none
	Best *FrameCandidate
}

// RemovalHook is called from Update for every pruned track
type RemovalHook func(removed RemovedTrack)

// Option configures Tracker
type Option func(*Tracker)

// WithLogger sets logger for lifecycle events
func WithLogger(logger logrus.FieldLogger) Option {
	return func(tr *Tracker) {
		if logger != nil {
			tr.log = logger
		}
	}
}

// WithRemovalHook sets callback invoked for pruned tracks
func WithRemovalHook(hook RemovalHook) Option {
	return func(tr *Tracker) {
		tr.onRemove = hook
	}
}

// observation is sanitized detection
type observation struct {
	box        Rectangle
	confidence float64
	appearance Histogram
}

// Tracker maintains identities of subjects across frames. Not safe for concurrent use
type Tracker struct {
	cfg        Config
	bounds     frameBounds
	associator *Associator
	tracks     []*track
	nextID     int
	log        logrus.FieldLogger
	onRemove   RemovalHook
}

// NewTracker creates tracker with validated configuration
func NewTracker(cfg Config, opts ...Option) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Can't create tracker")
	}
	tr := &Tracker{
		cfg: cfg,
		bounds: frameBounds{
			width:   cfg.FrameWidth,
			height:  cfg.FrameHeight,
			minSize: cfg.MinBoxSize,
		},
		associator: NewAssociator(cfg),
		tracks:     make([]*track, 0),
		nextID:     1,
		log:        newDiscardLogger(),
	}
	for _, opt := range opts {
		opt(tr)
	}
	return tr, nil
}

// NewDefaultTracker creates tracker with DefaultConfig
func NewDefaultTracker(opts ...Option) *Tracker {
	tr, err := NewTracker(DefaultConfig(), opts...)
	if err != nil {
		panic(err)
	}
	return tr
}

// Config returns tracker configuration
func (tr *Tracker) Config() Config {
	return tr.cfg
}

// Update runs one frame: predict, associate, correct, spawn, prune. Returns views of live tracks
func (tr *Tracker) Update(detections []Detection) []TrackView {
	observations := tr.sanitize(detections)

	for _, trk := range tr.tracks {
		trk.predict()
	}

	var assignment Assignment
	if len(tr.tracks) > 0 && len(observations) > 0 {
		cost := tr.associator.costMatrix(tr.tracks, observations)
		assignment = tr.associator.Assign(cost, len(tr.tracks), len(observations))
	} else {
		assignment = tr.associator.Assign(nil, len(tr.tracks), len(observations))
	}

	for _, match := range assignment.Matches {
		trk := tr.tracks[match[0]]
		wasConfirmed := trk.confirmed
		if err := trk.correct(observations[match[1]], tr.cfg.ConfirmHits); err != nil {
			tr.log.WithFields(trackFields(trk)).WithError(err).Warn("Can't correct track, keeping prediction")
		}
		if !wasConfirmed && trk.confirmed {
			tr.log.WithFields(trackFields(trk)).Debug("Track confirmed")
		}
	}

	for _, j := range assignment.UnmatchedDetections {
		trk := newTrack(tr.nextID, observations[j], tr.cfg, tr.bounds)
		tr.nextID++
		tr.tracks = append(tr.tracks, trk)
		tr.log.WithFields(trackFields(trk)).Debug("Track created")
	}

	tr.prune()
	return tr.Tracks()
}

// sanitize clamps detections to the frame and drops degenerate ones
func (tr *Tracker) sanitize(detections []Detection) []observation {
	observations := make([]observation, 0, len(detections))
	for i := range detections {
		detection := &detections[i]
		if !detection.Box.IsFinite() || math.IsNaN(detection.Confidence) {
			tr.log.WithField("detection", i).Debug("Non-finite detection dropped")
			continue
		}
		box := detection.Box.ClampTo(tr.bounds.width, tr.bounds.height)
		if box.Width <= 0 || box.Height <= 0 {
			tr.log.WithField("detection", i).Debug("Degenerate detection dropped")
			continue
		}
		observations = append(observations, observation{
			box:        box,
			confidence: detection.Confidence,
			appearance: Describe(detection.Crop),
		})
	}
	return observations
}

// prune removes tracks which were not matched for more than MaxMissed frames.
// Removal hook runs after the track list is settled
func (tr *Tracker) prune() {
	kept := tr.tracks[:0]
	var removed []*track
	for _, trk := range tr.tracks {
		if trk.missed <= tr.cfg.MaxMissed {
			kept = append(kept, trk)
			continue
		}
		removed = append(removed, trk)
	}
	for i := len(kept); i < len(tr.tracks); i++ {
		tr.tracks[i] = nil
	}
	tr.tracks = kept

	for _, trk := range removed {
		tr.log.WithFields(trackFields(trk)).Debug("Track removed")
		if tr.onRemove == nil {
			continue
		}
		event := RemovedTrack{
			View: trk.view(tr.cfg.ActiveWindow),
		}
		if !trk.hasCaptured {
			if best, ok := trk.candidates.best(); ok {
				event.Best = &best
			}
		}
		tr.onRemove(event)
	}
}

// Tracks returns views of all live tracks
func (tr *Tracker) Tracks() []TrackView {
	views := make([]TrackView, 0, len(tr.tracks))
	for _, trk := range tr.tracks {
		views = append(views, trk.view(tr.cfg.ActiveWindow))
	}
	return views
}

// Len returns number of live tracks
func (tr *Tracker) Len() int {
	return len(tr.tracks)
}

// Track returns view of the track with given id
func (tr *Tracker) Track(id int) (TrackView, bool) {
	trk := tr.find(id)
	if trk == nil {
		return TrackView{}, false
	}
	return trk.view(tr.cfg.ActiveWindow), true
}

func (tr *Tracker) find(id int) *track {
	for _, trk := range tr.tracks {
		if trk.id == id {
			return trk
		}
	}
	return nil
}

// AddCandidate offers candidate to the track's pool. Images are cloned.
// Returns false when the pool is full and candidate is not better than the worst pooled one
func (tr *Tracker) AddCandidate(id int, candidate FrameCandidate) (bool, error) {
	trk := tr.find(id)
	if trk == nil {
		return false, errors.Wrapf(ErrTrackNotFound, "track %d", id)
	}
	if trk.hasCaptured {
		return false, errors.Wrapf(ErrAlreadyCaptured, "track %d", id)
	}
	return trk.candidates.insert(candidate.clone()), nil
}

// BestCandidate returns copy of the highest scored pooled candidate
func (tr *Tracker) BestCandidate(id int) (FrameCandidate, bool) {
	trk := tr.find(id)
	if trk == nil {
		return FrameCandidate{}, false
	}
	best, ok := trk.candidates.best()
	if !ok {
		return FrameCandidate{}, false
	}
	return best.clone(), true
}

// CandidateCount returns pool size of the track, 0 for unknown id
func (tr *Tracker) CandidateCount(id int) int {
	trk := tr.find(id)
	if trk == nil {
		return 0
	}
	return trk.candidates.len()
}

// MarkCaptured marks the track captured and releases its pool
func (tr *Tracker) MarkCaptured(id int) error {
	trk := tr.find(id)
	if trk == nil {
		return errors.Wrapf(ErrTrackNotFound, "track %d", id)
	}
	trk.hasCaptured = true
	trk.candidates.clear()
	tr.log.WithFields(trackFields(trk)).Debug("Track captured")
	return nil
}
