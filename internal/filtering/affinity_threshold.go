package filtering

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/candidates"
)

type affinityThresholdFilter struct {
	threshold float64
}

// NewAffinityThreshold creates a filter that keeps candidates whose affinity
// score is at least the configured threshold.
func NewAffinityThreshold() Filter {
	return &affinityThresholdFilter{}
}

func (f *affinityThresholdFilter) Name() string { return "affinity_threshold" }

func (f *affinityThresholdFilter) Disable(string) {}

func (f *affinityThresholdFilter) IsEnabled() bool { return true }

func (f *affinityThresholdFilter) Validate(cfg *Config) error {
	f.threshold = 0
	if cfg != nil {
		f.threshold = cfg.Threshold
	}
	if math.IsNaN(f.threshold) || f.threshold < -1 || f.threshold > 1 {
		return fmt.Errorf("threshold %v is outside [-1, 1]", f.threshold)
	}
	return nil
}

func (f *affinityThresholdFilter) Apply(_ context.Context, deps Deps, s *candidates.Scored) (*candidates.Scored, Step, error) {
	initial := s.Len()
	dropped := s.Keep(func(a *candidates.Affinity) bool {
		return a.Score >= f.threshold
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding candidates below affinity threshold",
			zap.Float64("threshold", f.threshold),
			zap.Ints("excluded_candidates", dropped),
			zap.Int("candidates_left", s.Len()),
		)
	}

	return s, Step{Initial: initial, Dropped: len(dropped), Left: s.Len()}, nil
}

func (f *affinityThresholdFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"threshold": strconv.FormatFloat(f.threshold, 'f', -1, 64)},
	}
}
