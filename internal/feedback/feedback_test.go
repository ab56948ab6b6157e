package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/talent-suite/internal/ai"
	"github.com/spigell/talent-suite/internal/courses"
	"github.com/spigell/talent-suite/internal/store"
)

type memorySessions struct {
	sessions map[string]*store.Session
	getErr   error
}

func newMemorySessions(sessions ...*store.Session) *memorySessions {
	m := &memorySessions{sessions: map[string]*store.Session{}}
	for _, s := range sessions {
		if s.Stages == nil {
			s.Stages = map[string]json.RawMessage{}
		}
		m.sessions[s.ID] = s
	}
	return m
}

func (m *memorySessions) Get(_ context.Context, id string) (*store.Session, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.sessions[id], nil
}

func (m *memorySessions) SetStage(_ context.Context, id, stage string, value any) error {
	session, ok := m.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	session.Stages[stage] = data
	return nil
}

func (m *memorySessions) CreateSession(_ context.Context, id, positionID, name string) error {
	m.sessions[id] = &store.Session{ID: id, PositionID: positionID, CandidateName: name, Stages: map[string]json.RawMessage{}}
	return nil
}

type positions map[string]*store.Position

func (p positions) UpsertPosition(context.Context, store.Position) error { return nil }
func (p positions) ListPositions(context.Context) ([]store.Position, error) {
	return nil, nil
}
func (p positions) GetPosition(_ context.Context, id string) (*store.Position, error) {
	return p[id], nil
}

// scriptedChat answers according to which prompt it receives.
type scriptedChat struct {
	requests []ai.Request
	content  string
	gaps     string
	fail     string
}

func (c *scriptedChat) Model() string { return "scripted" }

func (c *scriptedChat) Chat(_ context.Context, req ai.Request) (string, error) {
	c.requests = append(c.requests, req)
	switch {
	case c.fail != "" && strings.Contains(req.User, c.fail):
		return "", errors.New("model unavailable")
	case strings.Contains(req.User, "Unisci i due report"):
		return "Report consolidato del candidato.", nil
	case strings.Contains(req.User, "report di feedback"):
		return c.content, nil
	case strings.Contains(req.User, "query di ricerca"):
		return `"corsi SQL avanzato"`, nil
	case strings.Contains(req.User, "skill_families"):
		return c.gaps, nil
	}
	return "", errors.New("unexpected prompt")
}

type fakeCourses struct {
	queries []string
	k       int
}

func (f *fakeCourses) Search(_ context.Context, query string, k int) ([]courses.Course, error) {
	f.queries = append(f.queries, query)
	f.k = k
	return []courses.Course{{Title: "SQL avanzato", Description: "Query complesse", URL: "https://example.com/sql", Level: "Avanzato", DurationHours: 10}}, nil
}

type fakeRenderer struct {
	content *Content
}

func (r *fakeRenderer) Render(content Content) ([]byte, error) {
	r.content = &content
	return []byte("%PDF-1.3"), nil
}

type fakeArtifacts struct {
	saved map[string][]byte
}

func (a *fakeArtifacts) SaveArtifact(_ context.Context, data []byte, sessionID string) (string, error) {
	if a.saved == nil {
		a.saved = map[string][]byte{}
	}
	a.saved[sessionID] = data
	return "data/sessions/" + sessionID + "/" + store.ReportFileName, nil
}

const gapsAnswer = "```json\n" + `{"skill_families": [{"skill_family_gap": "Analisi dati", "skill_gaps": [{"skill_gap": "SQL", "description": "join complesse"}, {"skill_gap": "Statistica"}]}]}` + "\n```"

const contentAnswer = `{
  "profile_summary": "Profilo solido.",
  "cv_analysis_outcome": "Esperienza coerente.",
  "interview_outcome": "Buona soluzione del case.",
  "suggested_pathway": [{"course_name": "SQL avanzato", "justification": "Colma la lacuna su SQL", "level": "Avanzato", "duration_hours": 10, "url": "https://example.com/sql"}],
  "market_benchmark": "In linea con il mercato."
}`

type fixture struct {
	sessions  *memorySessions
	chat      *scriptedChat
	courses   *fakeCourses
	renderer  *fakeRenderer
	artifacts *fakeArtifacts
	pipeline  *Pipeline
}

func newFixture(t *testing.T, session *store.Session) *fixture {
	t.Helper()

	f := &fixture{
		sessions:  newMemorySessions(session),
		chat:      &scriptedChat{gaps: gapsAnswer, content: contentAnswer},
		courses:   &fakeCourses{},
		renderer:  &fakeRenderer{},
		artifacts: &fakeArtifacts{},
	}

	pipeline, err := New(Deps{
		Sessions:  f.sessions,
		Positions: positions{"pos-1": {ID: "pos-1", Name: "Data Analyst"}},
		Artifacts: f.artifacts,
		Chat:      f.chat,
		Courses:   f.courses,
		Renderer:  f.renderer,
	})
	require.NoError(t, err)
	f.pipeline = pipeline
	return f
}

func sessionWithReports() *store.Session {
	return &store.Session{
		ID:            "s-1",
		PositionID:    "pos-1",
		CandidateName: "Mario Rossi",
		Stages: map[string]json.RawMessage{
			store.StageCVAnalysisReport:     json.RawMessage(`"CV buono"`),
			store.StageCaseEvaluationReport: json.RawMessage(`"Case risolto"`),
		},
	}
}

func TestRunGeneratesReport(t *testing.T) {
	t.Parallel()

	f := newFixture(t, sessionWithReports())

	location, err := f.pipeline.Run(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "data/sessions/s-1/"+store.ReportFileName, location)
	assert.Equal(t, []byte("%PDF-1.3"), f.artifacts.saved["s-1"])

	session := f.sessions.sessions["s-1"]
	assert.Equal(t, "Report consolidato del candidato.", session.StageText(store.StageConsolidatedReport))
	assert.Equal(t, location, session.StageText(store.StageFeedbackReport))

	var gaps GapAnalysis
	found, err := session.Stage(store.StageGapAnalysis, &gaps)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, gaps.SkillFamilies, 1)
	assert.Equal(t, []string{"SQL", "Statistica"}, gaps.SkillFamilies[0].Names())

	var enriched GapsWithCourses
	found, err = session.Stage(store.StageGapsWithCourses, &enriched)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, enriched.SkillFamiliesWithCourses, 1)
	assert.Equal(t, "Analisi dati", enriched.SkillFamiliesWithCourses[0].SkillFamilyGap)
	assert.Len(t, enriched.SkillFamiliesWithCourses[0].SuggestedCourses, 1)

	assert.Equal(t, []string{"corsi SQL avanzato"}, f.courses.queries)
	assert.Equal(t, 8, f.courses.k)

	require.NotNil(t, f.renderer.content)
	assert.Equal(t, "Mario Rossi", f.renderer.content.CandidateName)
	assert.Equal(t, "Data Analyst", f.renderer.content.TargetRole)
	require.Len(t, f.renderer.content.SuggestedPathway, 1)
	assert.InDelta(t, 10, f.renderer.content.SuggestedPathway[0].DurationHours, 1e-9)

	var queryTemp float32
	for _, req := range f.chat.requests {
		if strings.Contains(req.User, "query di ricerca") {
			require.NotNil(t, req.Temperature)
			queryTemp = *req.Temperature
		}
	}
	assert.InDelta(t, 0.1, queryTemp, 1e-6)
}

func TestRunReusesConsolidatedReport(t *testing.T) {
	t.Parallel()

	session := &store.Session{
		ID:         "s-2",
		PositionID: "unknown-position",
		Stages: map[string]json.RawMessage{
			store.StageConsolidatedReport: json.RawMessage(`"già consolidato"`),
		},
	}
	f := newFixture(t, session)

	_, err := f.pipeline.Run(context.Background(), "s-2")
	require.NoError(t, err)

	for _, req := range f.chat.requests {
		assert.NotContains(t, req.User, "Unisci i due report")
	}
	assert.Equal(t, defaultCandidate, f.renderer.content.CandidateName)
	assert.Equal(t, "unknown-position", f.renderer.content.TargetRole)
}

func TestRunMissingReports(t *testing.T) {
	t.Parallel()

	session := sessionWithReports()
	delete(session.Stages, store.StageCaseEvaluationReport)
	f := newFixture(t, session)

	_, err := f.pipeline.Run(context.Background(), "s-1")
	require.ErrorIs(t, err, ErrReportNotFound)
	assert.Empty(t, f.chat.requests)
	assert.Empty(t, f.artifacts.saved)
}

func TestRunMissingSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t, sessionWithReports())

	_, err := f.pipeline.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRunInvalidGapAnswer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, sessionWithReports())
	f.chat.gaps = `{"skill_families": [{"skill_family_gap": "Analisi dati"}]}`

	_, err := f.pipeline.Run(context.Background(), "s-1")
	require.Error(t, err)
	assert.False(t, f.sessions.sessions["s-1"].HasStage(store.StageGapAnalysis))
}

func TestRunInvalidContent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, sessionWithReports())
	f.chat.content = `{"profile_summary": "", "cv_analysis_outcome": "x", "interview_outcome": "y", "suggested_pathway": [], "market_benchmark": "z"}`

	_, err := f.pipeline.Run(context.Background(), "s-1")
	require.Error(t, err)
	assert.Nil(t, f.renderer.content)
}

func TestRunQueryRefinementFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, sessionWithReports())
	f.chat.fail = "query di ricerca"

	_, err := f.pipeline.Run(context.Background(), "s-1")
	assert.ErrorContains(t, err, "model unavailable")
}

func TestNewRequiresDeps(t *testing.T) {
	t.Parallel()

	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestContentValidate(t *testing.T) {
	t.Parallel()

	content := Content{
		CandidateName:     "Mario",
		TargetRole:        "Analyst",
		ProfileSummary:    "a",
		CVAnalysisOutcome: "b",
		InterviewOutcome:  "c",
		SuggestedPathway:  []CourseSuggestion{{CourseName: "SQL", DurationHours: -1}},
	}
	assert.Error(t, content.Validate())

	content.SuggestedPathway[0].DurationHours = 4
	assert.NoError(t, content.Validate())
}
