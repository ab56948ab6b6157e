package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/ai"
	"github.com/spigell/talent-suite/internal/courses"
	"github.com/spigell/talent-suite/internal/logger"
	"github.com/spigell/talent-suite/internal/schemas"
	"github.com/spigell/talent-suite/internal/store"
)

const (
	// CoursesPerFamily is how many courses are retrieved per skill family.
	CoursesPerFamily = courses.DefaultTopK

	queryTemperature  float32 = 0.1
	reportTemperature float32 = 0.3
	jsonTemperature   float32 = 0.2
	defaultCandidate          = "Candidato"
	defaultTargetRole         = "Ruolo non specificato"
)

var (
	// ErrSessionNotFound is returned when the session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrReportNotFound is returned when neither a consolidated report nor
	// both source reports are stored in the session.
	ErrReportNotFound = errors.New("cv analysis or case evaluation report not found")
)

// CourseSearcher finds courses for a free text query.
type CourseSearcher interface {
	Search(ctx context.Context, query string, k int) ([]courses.Course, error)
}

// Renderer turns report content into a document.
type Renderer interface {
	Render(content Content) ([]byte, error)
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Sessions  store.SessionStore
	Positions store.PositionStore
	Artifacts store.ArtifactStore
	Chat      ai.Chat
	Courses   CourseSearcher
	Renderer  Renderer
	Logger    *zap.Logger
}

// Pipeline builds the feedback report of a session.
type Pipeline struct {
	deps   Deps
	logger *zap.Logger
}

// New checks deps and returns a Pipeline. Positions is optional.
func New(deps Deps) (*Pipeline, error) {
	switch {
	case deps.Sessions == nil:
		return nil, errors.New("session store is required")
	case deps.Artifacts == nil:
		return nil, errors.New("artifact store is required")
	case deps.Chat == nil:
		return nil, errors.New("chat model is required")
	case deps.Courses == nil:
		return nil, errors.New("course searcher is required")
	case deps.Renderer == nil:
		return nil, errors.New("renderer is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{deps: deps, logger: deps.Logger}, nil
}

// Run executes the five feedback steps and returns where the report was saved.
func (p *Pipeline) Run(ctx context.Context, sessionID string) (string, error) {
	log := logger.WithSession(p.logger, sessionID)
	log.Info("feedback generation started")

	session, err := p.deps.Sessions.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	log.Info("step 1/5: consolidated report", logger.StageFields(store.StageConsolidatedReport)...)
	consolidated, err := p.consolidate(ctx, session, log)
	if err != nil {
		return "", err
	}

	log.Info("step 2/5: skill gaps", logger.StageFields(store.StageGapAnalysis)...)
	gaps, err := p.identifyGaps(ctx, consolidated)
	if err != nil {
		return "", err
	}
	if err := p.deps.Sessions.SetStage(ctx, sessionID, store.StageGapAnalysis, gaps); err != nil {
		return "", fmt.Errorf("save gap analysis: %w", err)
	}

	log.Info("step 3/5: course retrieval", logger.StageFields(store.StageGapsWithCourses)...)
	enriched, err := p.retrieveCourses(ctx, gaps, log)
	if err != nil {
		return "", err
	}
	if err := p.deps.Sessions.SetStage(ctx, sessionID, store.StageGapsWithCourses, enriched); err != nil {
		return "", fmt.Errorf("save gaps with courses: %w", err)
	}

	log.Info("step 4/5: report content")
	content, err := p.buildContent(ctx, session, enriched)
	if err != nil {
		return "", err
	}

	log.Info("step 5/5: render report", logger.StageFields(store.StageFeedbackReport)...)
	document, err := p.deps.Renderer.Render(*content)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	location, err := p.deps.Artifacts.SaveArtifact(ctx, document, sessionID)
	if err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	if err := p.deps.Sessions.SetStage(ctx, sessionID, store.StageFeedbackReport, location); err != nil {
		return "", fmt.Errorf("save report location: %w", err)
	}

	log.Info("feedback generation completed", zap.String("location", location))
	return location, nil
}

func (p *Pipeline) consolidate(ctx context.Context, session *store.Session, log *zap.Logger) (string, error) {
	if report := session.StageText(store.StageConsolidatedReport); strings.TrimSpace(report) != "" {
		log.Info("consolidated report already present")
		return report, nil
	}

	cvReport := session.StageText(store.StageCVAnalysisReport)
	caseReport := session.StageText(store.StageCaseEvaluationReport)
	if strings.TrimSpace(cvReport) == "" || strings.TrimSpace(caseReport) == "" {
		return "", ErrReportNotFound
	}

	report, err := p.deps.Chat.Chat(ctx, ai.Request{
		System: systemPrompt,
		User: render(consolidateTemplate, map[string]string{
			"CV_REPORT":   cvReport,
			"CASE_REPORT": caseReport,
		}),
		Temperature: ai.Temperature(reportTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("consolidate reports: %w", err)
	}
	report = strings.TrimSpace(report)
	if report == "" {
		return "", errors.New("consolidate reports: empty answer")
	}

	if err := p.deps.Sessions.SetStage(ctx, session.ID, store.StageConsolidatedReport, report); err != nil {
		return "", fmt.Errorf("save consolidated report: %w", err)
	}
	return report, nil
}

func (p *Pipeline) identifyGaps(ctx context.Context, consolidated string) (*GapAnalysis, error) {
	raw, err := p.deps.Chat.Chat(ctx, ai.Request{
		System:      systemPrompt,
		User:        render(gapsTemplate, map[string]string{"REPORT": consolidated}),
		Temperature: ai.Temperature(jsonTemperature),
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("identify gaps: %w", err)
	}

	var gaps GapAnalysis
	if err := decodeModelJSON(raw, schemas.GapAnalysis, &gaps); err != nil {
		return nil, fmt.Errorf("identify gaps: %w", err)
	}
	return &gaps, nil
}

func (p *Pipeline) retrieveCourses(ctx context.Context, gaps *GapAnalysis, log *zap.Logger) (*GapsWithCourses, error) {
	out := &GapsWithCourses{SkillFamiliesWithCourses: make([]FamilyWithCourses, 0, len(gaps.SkillFamilies))}
	for _, family := range gaps.SkillFamilies {
		query, err := p.deps.Chat.Chat(ctx, ai.Request{
			System: systemPrompt,
			User: render(queryTemplate, map[string]string{
				"FAMILY": family.SkillFamilyGap,
				"GAPS":   strings.Join(family.Names(), ", "),
			}),
			Temperature: ai.Temperature(queryTemperature),
		})
		if err != nil {
			return nil, fmt.Errorf("refine query for %q: %w", family.SkillFamilyGap, err)
		}
		query = strings.Trim(strings.TrimSpace(query), `"`)

		found, err := p.deps.Courses.Search(ctx, query, CoursesPerFamily)
		if err != nil {
			return nil, fmt.Errorf("search courses for %q: %w", family.SkillFamilyGap, err)
		}
		log.Debug("courses for skill family",
			zap.String("family", family.SkillFamilyGap),
			zap.String("query", query),
			zap.Int("courses", len(found)),
		)

		out.SkillFamiliesWithCourses = append(out.SkillFamiliesWithCourses, FamilyWithCourses{
			SkillFamily:      family,
			SuggestedCourses: found,
		})
	}
	return out, nil
}

func (p *Pipeline) buildContent(ctx context.Context, session *store.Session, enriched *GapsWithCourses) (*Content, error) {
	candidate := strings.TrimSpace(session.CandidateName)
	if candidate == "" {
		candidate = defaultCandidate
	}
	role := p.targetRole(ctx, session)

	gapsJSON, err := jsonString(enriched)
	if err != nil {
		return nil, err
	}

	raw, err := p.deps.Chat.Chat(ctx, ai.Request{
		System: systemPrompt,
		User: render(contentTemplate, map[string]string{
			"CANDIDATE":         candidate,
			"ROLE":              role,
			"CV_REPORT":         session.StageText(store.StageCVAnalysisReport),
			"CASE_REPORT":       session.StageText(store.StageCaseEvaluationReport),
			"GAPS_WITH_COURSES": gapsJSON,
		}),
		Temperature: ai.Temperature(reportTemperature),
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("build report content: %w", err)
	}

	var content Content
	if err := decodeModelJSON(raw, schemas.FeedbackContent, &content); err != nil {
		return nil, fmt.Errorf("build report content: %w", err)
	}
	content.CandidateName = candidate
	content.TargetRole = role

	if err := content.Validate(); err != nil {
		return nil, err
	}
	return &content, nil
}

// targetRole is the position name when known, the position id otherwise.
func (p *Pipeline) targetRole(ctx context.Context, session *store.Session) string {
	if session.PositionID == "" {
		return defaultTargetRole
	}
	if p.deps.Positions != nil {
		position, err := p.deps.Positions.GetPosition(ctx, session.PositionID)
		if err != nil {
			p.logger.Warn("position lookup failed", zap.String("position_id", session.PositionID), zap.Error(err))
		} else if position != nil && position.Name != "" {
			return position.Name
		}
	}
	return session.PositionID
}
