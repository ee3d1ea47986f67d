package bestshot

import (
	"image"
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Labels passed to BestFrameHandler
const (
	LabelPerson = "person"
	LabelFace   = "face"
)

// BestFrameHandler receives captured crops (upload, storage and so on)
type BestFrameHandler func(img image.Image, trackID int, label string)

// BestShot is result of a finalized track
type BestShot struct {
	ID        uuid.UUID
	TrackID   int
	Candidate FrameCandidate
}

// Selector evaluates approaching tracks on full-resolution frames and finalizes the best ones
type Selector struct {
	cfg        SelectionConfig
	sharpness  SharpnessFunc
	classifier PoseClassifier
	accept     PoseAcceptor
	log        logrus.FieldLogger
}

// SelectorOption configures Selector
type SelectorOption func(*Selector)

// WithSharpness replaces FocusMeasure
func WithSharpness(fn SharpnessFunc) SelectorOption {
	return func(s *Selector) {
		if fn != nil {
			s.sharpness = fn
		}
	}
}

// WithPoseClassifier enables secondary crop. Nil acceptor accepts every found pose
func WithPoseClassifier(classifier PoseClassifier, accept PoseAcceptor) SelectorOption {
	return func(s *Selector) {
		s.classifier = classifier
		s.accept = accept
	}
}

// WithSelectorLogger sets logger
func WithSelectorLogger(logger logrus.FieldLogger) SelectorOption {
	return func(s *Selector) {
		if logger != nil {
			s.log = logger
		}
	}
}

// NewSelector creates selector
func NewSelector(cfg SelectionConfig, opts ...SelectorOption) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "Can't create selector")
	}
	s := &Selector{
		cfg:       cfg,
		sharpness: FocusMeasure,
		log:       newDiscardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Evaluate offers candidate for every eligible track of the current frame.
// Frame may have different resolution than the tracker: boxes are scaled to it.
// Returns number of candidates accepted into pools
func (s *Selector) Evaluate(tracker *Tracker, frame image.Image) int {
	if frame == nil {
		return 0
	}
	bounds := frame.Bounds()
	if bounds.Empty() {
		return 0
	}
	cfg := tracker.Config()
	scaleX := float64(bounds.Dx()) / cfg.FrameWidth
	scaleY := float64(bounds.Dy()) / cfg.FrameHeight

	accepted := 0
	for _, view := range tracker.Tracks() {
		if !view.IsApproaching || view.HasCaptured || view.Missed != 0 {
			continue
		}
		box := Rectangle{
			X:      view.Box.X * scaleX,
			Y:      view.Box.Y * scaleY,
			Width:  view.Box.Width * scaleX,
			Height: view.Box.Height * scaleY,
		}
		candidate, ok := s.candidate(frame, box)
		if !ok {
			continue
		}
		added, err := tracker.AddCandidate(view.ID, candidate)
		if err != nil {
			s.log.WithField("track_id", view.ID).WithError(err).Warn("Can't add candidate")
			continue
		}
		if added {
			accepted++
			s.log.WithFields(logrus.Fields{
				"track_id": view.ID,
				"score":    candidate.Score,
			}).Debug("Candidate accepted")
		}
	}
	return accepted
}

// candidate applies gating and scoring to the box (in frame coordinates)
func (s *Selector) candidate(frame image.Image, box Rectangle) (FrameCandidate, bool) {
	bounds := frame.Bounds()
	frameArea := float64(bounds.Dx() * bounds.Dy())
	box = box.ClampTo(float64(bounds.Dx()), float64(bounds.Dy()))

	ratio := box.Area() / frameArea
	if ratio <= s.cfg.MinAreaRatio {
		return FrameCandidate{}, false
	}

	primary := CopyRegion(frame, box.Image().Add(bounds.Min))
	if primary == nil {
		return FrameCandidate{}, false
	}
	clarity := s.sharpness(primary)
	if clarity <= s.cfg.MinClarity {
		return FrameCandidate{}, false
	}

	var secondary image.Image
	if s.classifier != nil {
		pose, found := s.classifier.Classify(primary)
		if !found {
			return FrameCandidate{}, false
		}
		if s.accept != nil && !s.accept(pose) {
			return FrameCandidate{}, false
		}
		region := pose.Box.Expand(s.cfg.SecondaryExpand).ClampTo(float64(primary.Rect.Dx()), float64(primary.Rect.Dy()))
		face := CopyRegion(primary, region.Image())
		if face == nil {
			return FrameCandidate{}, false
		}
		if s.sharpness(face) <= s.cfg.MinClarity {
			return FrameCandidate{}, false
		}
		secondary = face
	}

	ideal := frameArea * s.cfg.IdealAreaRatio
	areaScore := 1.0 / (1.0 + math.Abs(box.Area()-ideal)/ideal)
	return FrameCandidate{
		Score:     clarity*s.cfg.ClarityWeight + areaScore*s.cfg.AreaWeight,
		Primary:   primary,
		Secondary: secondary,
		Clarity:   clarity,
		AreaRatio: ratio,
	}, true
}

// Finalize hands the best candidate of the track to handler and marks the track captured
func (s *Selector) Finalize(tracker *Tracker, trackID int, handler BestFrameHandler) (BestShot, error) {
	view, ok := tracker.Track(trackID)
	if !ok {
		return BestShot{}, errors.Wrapf(ErrTrackNotFound, "track %d", trackID)
	}
	if view.HasCaptured {
		return BestShot{}, errors.Wrapf(ErrAlreadyCaptured, "track %d", trackID)
	}
	best, ok := tracker.BestCandidate(trackID)
	if !ok {
		return BestShot{}, errors.Wrapf(ErrNoCandidates, "track %d", trackID)
	}
	shot := s.deliver(trackID, best, handler)
	if err := tracker.MarkCaptured(trackID); err != nil {
		return shot, errors.Wrap(err, "Can't mark track captured")
	}
	return shot, nil
}

// FinalizeReady finalizes every uncaptured track having at least FinalizeAfter candidates
func (s *Selector) FinalizeReady(tracker *Tracker, handler BestFrameHandler) ([]BestShot, error) {
	shots := make([]BestShot, 0)
	for _, view := range tracker.Tracks() {
		if view.HasCaptured || view.Candidates < s.cfg.FinalizeAfter {
			continue
		}
		shot, err := s.Finalize(tracker, view.ID, handler)
		if err != nil {
			return shots, errors.Wrapf(err, "Can't finalize track %d", view.ID)
		}
		shots = append(shots, shot)
	}
	return shots, nil
}

// FinalizeRemoved delivers the best candidate of a track which timed out before capture.
// Intended to be called from RemovalHook
func (s *Selector) FinalizeRemoved(removed RemovedTrack, handler BestFrameHandler) (BestShot, bool) {
	if removed.Best == nil || removed.View.HasCaptured {
		return BestShot{}, false
	}
	return s.deliver(removed.View.ID, *removed.Best, handler), true
}

func (s *Selector) deliver(trackID int, best FrameCandidate, handler BestFrameHandler) BestShot {
	shot := BestShot{
		ID:        uuid.New(),
		TrackID:   trackID,
		Candidate: best,
	}
	if handler != nil {
		handler(best.Primary, trackID, LabelPerson)
		if best.Secondary != nil {
			handler(best.Secondary, trackID, LabelFace)
		}
	}
	s.log.WithFields(logrus.Fields{
		"track_id": trackID,
		"shot_id":  shot.ID,
		"score":    best.Score,
	}).Info("Best shot delivered")
	return shot
}
