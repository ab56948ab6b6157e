package recruitment

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/talent-suite/internal/candidates"
	"github.com/spigell/talent-suite/internal/evaluation"
)

type mapEncoder struct {
	vectors map[string][]float32
	calls   []string
}

func (e *mapEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	e.calls = append(e.calls, text)
	v, ok := e.vectors[text]
	if !ok {
		return nil, errors.New("unexpected text: " + text)
	}
	return v, nil
}

func (e *mapEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if text == "" {
			continue
		}
		v, err := e.Encode(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// unitAt returns a unit vector whose cosine with [1, 0] is score.
func unitAt(score float64) []float32 {
	return []float32{float32(score), float32(math.Sqrt(1 - score*score))}
}

type fakeEvaluator struct {
	maxBatch int
	batches  [][]evaluation.Dossier
	fail     map[int]error
}

func (e *fakeEvaluator) MaxBatchSize() int { return e.maxBatch }

func (e *fakeEvaluator) EvaluateBatch(_ context.Context, _ evaluation.Offer, dossiers []evaluation.Dossier) evaluation.BatchResult {
	index := len(e.batches)
	e.batches = append(e.batches, dossiers)
	if err, ok := e.fail[index]; ok {
		return evaluation.BatchResult{Err: err}
	}

	verdicts := make([]evaluation.Verdict, 0, len(dossiers))
	for _, d := range dossiers {
		verdicts = append(verdicts, evaluation.Verdict{ID: d.ID, Rejected: d.ID%2 == 0, Reason: "motivo"})
	}
	return evaluation.BatchResult{Verdicts: verdicts}
}

type recordingSink struct {
	runs []*Run
	err  error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) SaveResults(_ context.Context, run *Run) error {
	s.runs = append(s.runs, run)
	return s.err
}

func enriched(id int, text string) *candidates.Candidate {
	c := &candidates.Candidate{ID: id, CurrentPosition: "Analyst"}
	if text != "" {
		c.NormalizedExperiences = []candidates.NormalizedExperience{{LLMEnrichedText: text}}
	}
	return c
}

func noWait(t *testing.T) *[]time.Duration {
	t.Helper()
	var pauses []time.Duration
	previous := wait
	wait = func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}
	t.Cleanup(func() { wait = previous })
	return &pauses
}

var offer = evaluation.Offer{Title: "Data Analyst", Description: "SQL"}

func TestRunThresholdScenario(t *testing.T) {
	pauses := noWait(t)

	encoder := &mapEncoder{vectors: map[string][]float32{
		offer.Text(): {1, 0},
		"a":          unitAt(0.9),
		"b":          unitAt(0.75),
		"c":          unitAt(0.81),
	}}
	evaluator := &fakeEvaluator{maxBatch: 10}
	sink := &recordingSink{}

	pipeline, err := New(Deps{Encoder: encoder, Evaluator: evaluator, Sinks: []ResultSink{sink}}, Options{Threshold: 0.8})
	require.NoError(t, err)

	result, err := pipeline.Run(context.Background(), offer, []*candidates.Candidate{
		enriched(1, "a"), enriched(2, "b"), enriched(3, "c"),
	})
	require.NoError(t, err)

	require.Len(t, result.Qualified, 2)
	assert.Equal(t, 1, result.Qualified[0].ID)
	assert.Equal(t, 3, result.Qualified[1].ID)
	assert.InDelta(t, 0.9, result.Qualified[0].Score, 1e-6)
	assert.InDelta(t, 0.81, result.Qualified[1].Score, 1e-6)

	require.Len(t, result.Scores, 3)
	assert.InDelta(t, 0.75, result.Scores[1].Score, 1e-6)

	require.Len(t, evaluator.batches, 1)
	assert.Equal(t, 0, evaluator.batches[0][0].Index)
	assert.Equal(t, 1, evaluator.batches[0][1].Index)
	assert.Len(t, result.Verdicts, 2)
	assert.Empty(t, *pauses)

	require.Len(t, sink.runs, 1)
	assert.Equal(t, result.RunID, sink.runs[0].ID)
	assert.Equal(t, StageDone, result.Stage)
}

func TestRunBatchesWithPauseAndSkipsFailedBatch(t *testing.T) {
	pauses := noWait(t)

	vectors := map[string][]float32{offer.Text(): {1, 0}}
	var list []*candidates.Candidate
	for i := 1; i <= 5; i++ {
		text := strings.Repeat("x", i)
		vectors[text] = unitAt(0.9)
		list = append(list, enriched(i, text))
	}

	evaluator := &fakeEvaluator{maxBatch: 2, fail: map[int]error{1: errors.New("schema mismatch")}}
	core, observed := observer.New(zapcore.InfoLevel)

	pipeline, err := New(Deps{
		Encoder:   &mapEncoder{vectors: vectors},
		Evaluator: evaluator,
		Logger:    zap.New(core),
	}, Options{Threshold: 0.5, BatchSize: 5, Pause: time.Second})
	require.NoError(t, err)

	result, err := pipeline.Run(context.Background(), offer, list)
	require.NoError(t, err)

	require.Len(t, evaluator.batches, 3, "batch size is capped by the evaluator")
	assert.Equal(t, []time.Duration{time.Second, time.Second}, *pauses)

	require.Len(t, result.Batches, 3)
	assert.Equal(t, []int{3, 4}, result.Batches[1].Candidates)
	assert.Error(t, result.Batches[1].Err)

	ids := make([]int, 0, len(result.Verdicts))
	for _, v := range result.Verdicts {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []int{1, 2, 5}, ids)
	assert.Equal(t, 1, observed.FilterMessage("batch skipped").Len())
}

func TestRunEmptyTextScoresZeroWithoutEmbedding(t *testing.T) {
	noWait(t)

	encoder := &mapEncoder{vectors: map[string][]float32{offer.Text(): {1, 0}}}
	evaluator := &fakeEvaluator{maxBatch: 10}

	pipeline, err := New(Deps{Encoder: encoder, Evaluator: evaluator}, Options{Threshold: 0.1})
	require.NoError(t, err)

	result, err := pipeline.Run(context.Background(), offer, []*candidates.Candidate{enriched(7, "")})
	require.NoError(t, err)

	assert.Equal(t, []string{offer.Text()}, encoder.calls)
	require.Len(t, result.Scores, 1)
	assert.Zero(t, result.Scores[0].Score)
	assert.Empty(t, result.Qualified)
	assert.Empty(t, evaluator.batches)
	assert.Empty(t, result.Verdicts)
	assert.Equal(t, StageDone, result.Stage)
}

func TestRunSinkFailureIsNotFatal(t *testing.T) {
	noWait(t)

	encoder := &mapEncoder{vectors: map[string][]float32{offer.Text(): {1, 0}, "a": {1, 0}}}
	failing := &recordingSink{err: errors.New("db down")}
	path := filepath.Join(t.TempDir(), "out", "verdicts.json")

	pipeline, err := New(Deps{
		Encoder:   encoder,
		Evaluator: &fakeEvaluator{maxBatch: 10},
		Sinks:     []ResultSink{failing, NewFileSink(path)},
	}, Options{Threshold: 0.5})
	require.NoError(t, err)

	result, err := pipeline.Run(context.Background(), offer, []*candidates.Candidate{enriched(1, "a")})
	require.NoError(t, err)
	require.Len(t, result.Verdicts, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved []map[string]any
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, float64(1), saved[0]["ID"])
	assert.Equal(t, false, saved[0]["scartato"])
	assert.Equal(t, "motivo", saved[0]["motivazione"])
}

func TestRunNoVerdictsSkipsPersistence(t *testing.T) {
	noWait(t)

	encoder := &mapEncoder{vectors: map[string][]float32{offer.Text(): {1, 0}, "a": {1, 0}}}
	sink := &recordingSink{}

	pipeline, err := New(Deps{
		Encoder:   encoder,
		Evaluator: &fakeEvaluator{maxBatch: 10, fail: map[int]error{0: errors.New("timeout")}},
		Sinks:     []ResultSink{sink},
	}, Options{Threshold: 0.5})
	require.NoError(t, err)

	result, err := pipeline.Run(context.Background(), offer, []*candidates.Candidate{enriched(1, "a")})
	require.NoError(t, err)

	assert.Empty(t, result.Verdicts)
	assert.Empty(t, sink.runs)
}

func TestRunExcludeFileRoundTrip(t *testing.T) {
	noWait(t)

	path := filepath.Join(t.TempDir(), "exclude.json")
	encoder := &mapEncoder{vectors: map[string][]float32{
		offer.Text(): {1, 0},
		"a":          {1, 0},
		"b":          {1, 0},
	}}
	list := []*candidates.Candidate{enriched(1, "a"), enriched(2, "b")}
	opts := Options{Threshold: 0.5, ExcludeFile: path, ExcludeRejected: true}

	first, err := New(Deps{Encoder: encoder, Evaluator: &fakeEvaluator{maxBatch: 10}}, opts)
	require.NoError(t, err)

	result, err := first.Run(context.Background(), offer, list)
	require.NoError(t, err)
	require.Len(t, result.Rejected(), 1)

	excluded, err := candidates.LoadExcluded(path)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, excluded.IDs())

	evaluator := &fakeEvaluator{maxBatch: 10}
	second, err := New(Deps{Encoder: encoder, Evaluator: evaluator}, opts)
	require.NoError(t, err)

	result, err = second.Run(context.Background(), offer, list)
	require.NoError(t, err)
	require.Len(t, result.Qualified, 1)
	assert.Equal(t, 1, result.Qualified[0].ID)
}

func TestRunOfferEmbeddingFailure(t *testing.T) {
	pipeline, err := New(Deps{Encoder: &mapEncoder{}, Evaluator: &fakeEvaluator{maxBatch: 1}}, Options{})
	require.NoError(t, err)

	_, err = pipeline.Run(context.Background(), offer, nil)
	require.Error(t, err)
	assert.Equal(t, StageEmbedOffer, pipeline.Stage())
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := New(Deps{Evaluator: &fakeEvaluator{}}, Options{})
	assert.Error(t, err)

	_, err = New(Deps{Encoder: &mapEncoder{}}, Options{})
	assert.Error(t, err)
}

func TestStageString(t *testing.T) {
	t.Parallel()

	cases := map[Stage]string{
		StageInit:            "INIT",
		StageBatchEvaluate:   "BATCH_LLM_EVALUATE",
		StageDone:            "DONE",
		Stage(42):            "UNKNOWN",
	}
	for stage, want := range cases {
		assert.Equal(t, want, stage.String())
	}
}
