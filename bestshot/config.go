package bestshot

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds tracker parameters. Zero value is not usable, start from DefaultConfig
type Config struct {
	// Detection frame size in pixels. Boxes are clamped to it
	FrameWidth  float64 `yaml:"frame_width"`
	FrameHeight float64 `yaml:"frame_height"`
	// Minimum size of predicted box side in pixels
	MinBoxSize float64 `yaml:"min_box_size"`

	// Association
	CostCeiling      float64            `yaml:"cost_ceiling"`
	Weights          CostWeights        `yaml:"weights"`
	AreaRatioGuard   float64            `yaml:"area_ratio_guard"`
	AreaRatioPenalty float64            `yaml:"area_ratio_penalty"`
	Assignment       AssignmentStrategy `yaml:"assignment"`
	MotionModel      MotionModel        `yaml:"motion_model"`

	// Lifecycle
	MaxMissed    int `yaml:"max_missed"`
	ConfirmHits  int `yaml:"confirm_hits"`
	ActiveWindow int `yaml:"active_window"`

	// Trend
	TrendHistory   int     `yaml:"trend_history"`
	TrendLookback  int     `yaml:"trend_lookback"`
	TrendThreshold float64 `yaml:"trend_threshold"`

	CandidateCapacity int             `yaml:"candidate_capacity"`
	Selection         SelectionConfig `yaml:"selection"`
}

// SelectionConfig holds candidate gating and scoring parameters
type SelectionConfig struct {
	// Minimum fraction of the frame covered by person box (exclusive)
	MinAreaRatio float64 `yaml:"min_area_ratio"`
	// Fraction of the frame considered the ideal person size
	IdealAreaRatio float64 `yaml:"ideal_area_ratio"`
	// Minimum sharpness of both crops (exclusive)
	MinClarity    float64 `yaml:"min_clarity"`
	ClarityWeight float64 `yaml:"clarity_weight"`
	AreaWeight    float64 `yaml:"area_weight"`
	// Growth of the pose box before cutting secondary crop
	SecondaryExpand float64 `yaml:"secondary_expand"`
	// Number of pooled candidates after which FinalizeReady captures the track
	FinalizeAfter int `yaml:"finalize_after"`
}

// DefaultConfig returns reference parameters
func DefaultConfig() Config {
	return Config{
		FrameWidth:  1280,
		FrameHeight: 720,
		MinBoxSize:  10,

		CostCeiling: 0.7,
		Weights: CostWeights{
			IoU:        0.6,
			Appearance: 0.3,
			Confidence: 0.1,
		},
		AreaRatioGuard:   0.3,
		AreaRatioPenalty: 0.5,
		Assignment:       AssignmentGreedy,
		MotionModel:      MotionModelConstantVelocity,

		MaxMissed:    30,
		ConfirmHits:  3,
		ActiveWindow: 3,

		TrendHistory:   20,
		TrendLookback:  5,
		TrendThreshold: 0.1,

		CandidateCapacity: 20,
		Selection:         DefaultSelectionConfig(),
	}
}

// DefaultSelectionConfig returns reference candidate gating parameters
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{
		MinAreaRatio:    0.05,
		IdealAreaRatio:  0.15,
		MinClarity:      100,
		ClarityWeight:   0.5,
		AreaWeight:      500,
		SecondaryExpand: 0.5,
		FinalizeAfter:   10,
	}
}

// LoadConfig reads YAML file on top of DefaultConfig and validates the result
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "Can't read config file '%s'", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "Can't parse config file '%s'", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "Bad config file '%s'", path)
	}
	return cfg, nil
}

// Validate rejects parameters the tracker can't work with
func (cfg Config) Validate() error {
	if cfg.FrameWidth <= 0 || cfg.FrameHeight <= 0 {
		return errors.Errorf("frame size must be positive, got %vx%v", cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.MinBoxSize <= 0 || cfg.MinBoxSize > minFloat64(cfg.FrameWidth, cfg.FrameHeight) {
		return errors.Errorf("min_box_size must be in (0, %v], got %v", minFloat64(cfg.FrameWidth, cfg.FrameHeight), cfg.MinBoxSize)
	}
	if cfg.CostCeiling <= 0 {
		return errors.Errorf("cost_ceiling must be positive, got %v", cfg.CostCeiling)
	}
	if cfg.Weights.IoU < 0 || cfg.Weights.Appearance < 0 || cfg.Weights.Confidence < 0 {
		return errors.New("cost weights must be non-negative")
	}
	if cfg.AreaRatioGuard < 0 || cfg.AreaRatioGuard > 1 {
		return errors.Errorf("area_ratio_guard must be in [0, 1], got %v", cfg.AreaRatioGuard)
	}
	if cfg.AreaRatioPenalty < 0 {
		return errors.Errorf("area_ratio_penalty must be non-negative, got %v", cfg.AreaRatioPenalty)
	}
	if cfg.Assignment != AssignmentGreedy && cfg.Assignment != AssignmentHungarian {
		return errors.Errorf("unknown assignment strategy %d", cfg.Assignment)
	}
	if cfg.MotionModel != MotionModelConstantVelocity && cfg.MotionModel != MotionModelAcceleration {
		return errors.Errorf("unknown motion model %d", cfg.MotionModel)
	}
	if cfg.MaxMissed < 0 {
		return errors.Errorf("max_missed must be non-negative, got %d", cfg.MaxMissed)
	}
	if cfg.ConfirmHits < 1 {
		return errors.Errorf("confirm_hits must be at least 1, got %d", cfg.ConfirmHits)
	}
	if cfg.ActiveWindow < 1 {
		return errors.Errorf("active_window must be at least 1, got %d", cfg.ActiveWindow)
	}
	if cfg.TrendLookback < 2 || cfg.TrendHistory < cfg.TrendLookback {
		return errors.Errorf("trend window must satisfy 2 <= trend_lookback (%d) <= trend_history (%d)", cfg.TrendLookback, cfg.TrendHistory)
	}
	if cfg.TrendThreshold < 0 {
		return errors.Errorf("trend_threshold must be non-negative, got %v", cfg.TrendThreshold)
	}
	if cfg.CandidateCapacity < 1 {
		return errors.Errorf("candidate_capacity must be at least 1, got %d", cfg.CandidateCapacity)
	}
	return errors.Wrap(cfg.Selection.Validate(), "selection")
}

// Validate rejects nonsensical selection parameters
func (cfg SelectionConfig) Validate() error {
	if cfg.MinAreaRatio < 0 || cfg.MinAreaRatio >= 1 {
		return errors.Errorf("min_area_ratio must be in [0, 1), got %v", cfg.MinAreaRatio)
	}
	if cfg.IdealAreaRatio <= 0 || cfg.IdealAreaRatio > 1 {
		return errors.Errorf("ideal_area_ratio must be in (0, 1], got %v", cfg.IdealAreaRatio)
	}
	if cfg.MinClarity < 0 {
		return errors.Errorf("min_clarity must be non-negative, got %v", cfg.MinClarity)
	}
	if cfg.SecondaryExpand < 0 {
		return errors.Errorf("secondary_expand must be non-negative, got %v", cfg.SecondaryExpand)
	}
	if cfg.FinalizeAfter < 1 {
		return errors.Errorf("finalize_after must be at least 1, got %d", cfg.FinalizeAfter)
	}
	return nil
}

// UnmarshalYAML accepts strategy by name ("greedy", "hungarian")
func (s *AssignmentStrategy) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return errors.Wrap(err, "assignment strategy must be a string")
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "greedy", "":
		*s = AssignmentGreedy
	case "hungarian":
		*s = AssignmentHungarian
	default:
		return errors.Errorf("unknown assignment strategy '%s'", name)
	}
	return nil
}

// UnmarshalYAML accepts motion model by name ("constant_velocity", "acceleration")
func (m *MotionModel) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return errors.Wrap(err, "motion model must be a string")
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "constant_velocity", "":
		*m = MotionModelConstantVelocity
	case "acceleration":
		*m = MotionModelAcceleration
	default:
		return errors.Errorf("unknown motion model '%s'", name)
	}
	return nil
}
