package recruitment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/candidates"
	"github.com/spigell/talent-suite/internal/evaluation"
	"github.com/spigell/talent-suite/internal/filtering"
	"github.com/spigell/talent-suite/internal/logger"
	"github.com/spigell/talent-suite/internal/similarity"
	"github.com/spigell/talent-suite/internal/utils"
)

const (
	// DefaultThreshold is the minimum affinity sent to the model.
	DefaultThreshold = 0.5
	// DefaultPause separates consecutive model calls.
	DefaultPause = time.Second
)

var wait = utils.WaitFor

// Encoder turns text into embeddings.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// BatchEvaluator judges batches of dossiers against an offer.
type BatchEvaluator interface {
	EvaluateBatch(ctx context.Context, offer evaluation.Offer, dossiers []evaluation.Dossier) evaluation.BatchResult
	MaxBatchSize() int
}

// Options tune a Pipeline.
type Options struct {
	Threshold float64
	BatchSize int
	Pause     time.Duration
	// ExcludeFile lists candidates skipped before evaluation.
	ExcludeFile string
	// ExcludeRejected appends rejected candidates to ExcludeFile.
	ExcludeRejected bool
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Encoder   Encoder
	Evaluator BatchEvaluator
	Sinks     []ResultSink
	Logger    *zap.Logger
}

// Pipeline ranks candidates against an offer: embedding affinity first, then
// model verdicts for the candidates above the threshold.
type Pipeline struct {
	encoder   Encoder
	evaluator BatchEvaluator
	sinks     []ResultSink
	opts      Options
	logger    *zap.Logger

	stage Stage
}

// BatchReport describes one evaluated batch.
type BatchReport struct {
	Index      int
	Candidates []int
	Verdicts   int
	Err        error
}

// Result is the outcome of a run.
type Result struct {
	RunID     string
	Verdicts  []evaluation.Verdict
	Qualified []*candidates.Affinity
	Scores    []*candidates.Affinity
	Batches   []BatchReport
	Stage     Stage
}

// Rejected returns the verdicts that reject the candidate.
func (r *Result) Rejected() []evaluation.Verdict {
	var out []evaluation.Verdict
	for _, v := range r.Verdicts {
		if v.Rejected {
			out = append(out, v)
		}
	}
	return out
}

// New returns a Pipeline.
func New(deps Deps, opts Options) (*Pipeline, error) {
	if deps.Encoder == nil {
		return nil, errors.New("encoder is required")
	}
	if deps.Evaluator == nil {
		return nil, errors.New("evaluator is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	maxBatch := deps.Evaluator.MaxBatchSize()
	if opts.BatchSize <= 0 || (maxBatch > 0 && opts.BatchSize > maxBatch) {
		opts.BatchSize = maxBatch
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = evaluation.DefaultMaxBatchSize
	}
	if opts.Pause < 0 {
		opts.Pause = 0
	}

	return &Pipeline{
		encoder:   deps.Encoder,
		evaluator: deps.Evaluator,
		sinks:     deps.Sinks,
		opts:      opts,
		logger:    deps.Logger,
	}, nil
}

// Stage returns the stage the last run reached.
func (p *Pipeline) Stage() Stage {
	return p.stage
}

func (p *Pipeline) enter(stage Stage) {
	p.stage = stage
	p.logger.Info("stage", logger.StageFields(stage.String())...)
}

// Run executes a ranking run. An empty qualified set ends the run early with
// an empty result.
func (p *Pipeline) Run(ctx context.Context, offer evaluation.Offer, list []*candidates.Candidate) (*Result, error) {
	p.stage = StageInit
	p.enter(StageInit)

	result := &Result{RunID: uuid.NewString(), Verdicts: []evaluation.Verdict{}}

	p.enter(StageEmbedOffer)
	offerVector, err := p.encoder.Encode(ctx, offer.Text())
	if err != nil {
		return nil, fmt.Errorf("embed offer: %w", err)
	}

	p.enter(StageScoreAffinity)
	scored, err := p.score(ctx, offerVector, list)
	if err != nil {
		return nil, err
	}
	result.Scores = scored.Clone().Items

	p.enter(StageFilterThreshold)
	qualified, err := p.filter(ctx, scored)
	if err != nil {
		return nil, err
	}
	result.Qualified = qualified.Items

	p.logger.Info("candidates above threshold",
		zap.Float64("threshold", p.opts.Threshold),
		zap.Int("qualified", qualified.Len()),
		zap.Int("total", len(list)),
	)

	if qualified.Len() == 0 {
		p.enter(StageDone)
		result.Stage = p.stage
		return result, nil
	}

	p.enter(StageBatchEvaluate)
	if err := p.evaluate(ctx, offer, qualified, result); err != nil {
		return nil, err
	}

	p.enter(StagePersistResults)
	p.persist(ctx, offer, result)
	p.excludeRejected(qualified, result)

	p.enter(StageDone)
	result.Stage = p.stage
	return result, nil
}

func (p *Pipeline) score(ctx context.Context, offerVector []float32, list []*candidates.Candidate) (*candidates.Scored, error) {
	scored := &candidates.Scored{Items: make([]*candidates.Affinity, 0, len(list))}
	for _, c := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var score float64
		if text := c.EnrichedText(); text != "" {
			vector, err := p.encoder.Encode(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("embed candidate %d: %w", c.ID, err)
			}
			score = similarity.Cosine(offerVector, vector)
		}

		scored.Items = append(scored.Items, &candidates.Affinity{ID: c.ID, Score: score, Candidate: c})
	}
	return scored, nil
}

func (p *Pipeline) filter(ctx context.Context, scored *candidates.Scored) (*candidates.Scored, error) {
	steps := filtering.Default()
	if p.opts.ExcludeFile == "" {
		filtering.DisableByName(steps, "exclude_file", "no exclude file configured")
	}

	cfg := &filtering.Config{Threshold: p.opts.Threshold, ExcludeFile: p.opts.ExcludeFile}
	out, err := filtering.Run(ctx, cfg, filtering.Deps{Logger: p.logger}, steps, scored.Clone())
	if err != nil {
		return nil, fmt.Errorf("filter candidates: %w", err)
	}
	return out, nil
}

func (p *Pipeline) evaluate(ctx context.Context, offer evaluation.Offer, qualified *candidates.Scored, result *Result) error {
	dossiers := make([]evaluation.Dossier, 0, qualified.Len())
	for i, item := range qualified.Items {
		dossiers = append(dossiers, evaluation.Dossier{
			ID:                  item.ID,
			Score:               item.Score,
			CurrentPosition:     item.Candidate.Position(),
			EnrichedDescription: item.Candidate.EnrichedText(),
			Index:               i,
		})
	}

	size := p.opts.BatchSize
	total := (len(dossiers) + size - 1) / size
	for i := 0; i < total; i++ {
		start := i * size
		end := start + size
		if end > len(dossiers) {
			end = len(dossiers)
		}
		batch := dossiers[start:end]

		log := p.logger.With(logger.BatchFields(i+1, total, len(batch))...)
		log.Info("evaluating batch", zap.Int("from", start+1), zap.Int("to", end))

		res := p.evaluator.EvaluateBatch(ctx, offer, batch)
		report := BatchReport{Index: i, Verdicts: len(res.Verdicts), Err: res.Err}
		for _, d := range batch {
			report.Candidates = append(report.Candidates, d.ID)
		}
		result.Batches = append(result.Batches, report)

		if res.Failed() {
			log.Error("batch skipped", zap.Error(res.Err))
		} else {
			result.Verdicts = append(result.Verdicts, res.Verdicts...)
		}
		log.Info("batch completed", zap.Int("verdicts_total", len(result.Verdicts)))

		if i < total-1 {
			if err := wait(ctx, p.opts.Pause); err != nil {
				return err
			}
		}
	}

	p.logger.Info("evaluation completed",
		zap.Int("verdicts", len(result.Verdicts)),
		zap.Int("sent", len(dossiers)),
	)
	return nil
}

func (p *Pipeline) persist(ctx context.Context, offer evaluation.Offer, result *Result) {
	if len(result.Verdicts) == 0 {
		p.logger.Info("no verdicts to persist")
		return
	}

	run := &Run{
		ID:        result.RunID,
		Offer:     offer,
		Threshold: p.opts.Threshold,
		Verdicts:  result.Verdicts,
		Qualified: result.Qualified,
		CreatedAt: time.Now().UTC(),
	}
	for _, sink := range p.sinks {
		if err := sink.SaveResults(ctx, run); err != nil {
			p.logger.Error("saving results failed", zap.String("sink", sink.Name()), zap.Error(err))
			continue
		}
		p.logger.Info("results saved", zap.String("sink", sink.Name()))
	}
}

func (p *Pipeline) excludeRejected(qualified *candidates.Scored, result *Result) {
	if !p.opts.ExcludeRejected || p.opts.ExcludeFile == "" {
		return
	}

	reasons := make(map[int]string)
	for _, v := range result.Rejected() {
		reasons[v.ID] = v.Reason
	}
	if len(reasons) == 0 {
		return
	}

	if err := candidates.AppendToFile(p.opts.ExcludeFile, candidates.NewExcluded(qualified, reasons)); err != nil {
		p.logger.Error("updating exclude file failed", zap.String("path", p.opts.ExcludeFile), zap.Error(err))
		return
	}
	p.logger.Info("rejected candidates added to exclude file", zap.Int("count", len(reasons)))
}
