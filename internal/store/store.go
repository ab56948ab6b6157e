package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ReportFileName is the name of the feedback report inside a session.
const ReportFileName = "Report_Feedback_Candidato.pdf"

// Session stage keys.
const (
	StageParsedCV             = "parsed_cv"
	StageCVAnalysisReport     = "cv_analysis_report"
	StageCaseEvaluationReport = "case_evaluation_report"
	StageConsolidatedReport   = "consolidated_report"
	StageGapAnalysis          = "gap_analysis"
	StageGapsWithCourses      = "gaps_with_courses"
	StageFeedbackReport       = "feedback_report_location"
)

// StatusInitialized is the status of a freshly created session.
const StatusInitialized = "initialized"

// ErrNotFound is returned when an update targets a missing row.
var ErrNotFound = errors.New("not found")

// Session is one candidate going through the assessment of a position.
type Session struct {
	ID            string
	PositionID    string
	CandidateName string
	Status        string
	Stages        map[string]json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasStage reports whether the stage is stored and not null.
func (s *Session) HasStage(name string) bool {
	raw, ok := s.Stages[name]
	return ok && len(raw) > 0 && string(raw) != "null"
}

// Stage decodes the stage into out. It returns false when the stage is absent.
func (s *Session) Stage(name string, out any) (bool, error) {
	if !s.HasStage(name) {
		return false, nil
	}
	if err := json.Unmarshal(s.Stages[name], out); err != nil {
		return true, fmt.Errorf("decode stage %s: %w", name, err)
	}
	return true, nil
}

// StageText returns a stage as text. String stages are unquoted, any other
// JSON value is returned as is.
func (s *Session) StageText(name string) string {
	if !s.HasStage(name) {
		return ""
	}
	var text string
	if err := json.Unmarshal(s.Stages[name], &text); err == nil {
		return text
	}
	return string(s.Stages[name])
}

// Position is an open job position.
type Position struct {
	ID      string         `json:"id"`
	Name    string         `json:"position_name"`
	Payload map[string]any `json:"payload,omitempty"`
}

// SessionStore keeps sessions and their stage outputs.
type SessionStore interface {
	// Get returns nil, nil when the session does not exist.
	Get(ctx context.Context, id string) (*Session, error)
	SetStage(ctx context.Context, id, stage string, value any) error
	CreateSession(ctx context.Context, id, positionID, candidateName string) error
}

// PositionStore keeps job positions.
type PositionStore interface {
	UpsertPosition(ctx context.Context, position Position) error
	ListPositions(ctx context.Context) ([]Position, error)
	GetPosition(ctx context.Context, id string) (*Position, error)
}

// ArtifactStore keeps binary artifacts of a session.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, data []byte, sessionID string) (string, error)
}
