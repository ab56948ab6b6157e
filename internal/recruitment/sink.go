package recruitment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spigell/talent-suite/internal/candidates"
	"github.com/spigell/talent-suite/internal/evaluation"
)

// Run is what a sink persists at the end of a ranking run.
type Run struct {
	ID        string
	Offer     evaluation.Offer
	Threshold float64
	Verdicts  []evaluation.Verdict
	Qualified []*candidates.Affinity
	CreatedAt time.Time
}

// ResultSink persists the verdicts of a run.
type ResultSink interface {
	Name() string
	SaveResults(ctx context.Context, run *Run) error
}

// FileSink writes the verdicts as an indented JSON array.
type FileSink struct {
	Path string
}

// NewFileSink returns a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) SaveResults(_ context.Context, run *Run) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(run.Verdicts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal verdicts: %w", err)
	}

	if err := os.WriteFile(s.Path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write verdicts: %w", err)
	}
	return nil
}
