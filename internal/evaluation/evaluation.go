package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/ai"
	"github.com/spigell/talent-suite/internal/schemas"
	"github.com/spigell/talent-suite/internal/utils"
)

const (
	// DefaultTemperature keeps verdicts close to deterministic.
	DefaultTemperature float32 = 0.2
	// DefaultMaxBatchSize bounds how many dossiers go into one prompt.
	DefaultMaxBatchSize = 10
	// MaxReasonWords is the soft cap on a verdict justification.
	MaxReasonWords = 20

	defaultMaxLogLength = 200
)

// ErrBatchTooLarge is returned for batches above the configured maximum.
var ErrBatchTooLarge = errors.New("batch exceeds maximum size")

// Offer is the job opening candidates are evaluated against.
type Offer struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Text is the title and description as one string.
func (o Offer) Text() string {
	return strings.TrimSpace(o.Title + " " + o.Description)
}

// Dossier is the part of a candidate sent to the model.
type Dossier struct {
	ID                  int
	Score               float64
	CurrentPosition     string
	EnrichedDescription string
	// Index is the 0-based position among all candidates sent for evaluation.
	Index int
}

// Verdict is the model's judgment of one candidate.
type Verdict struct {
	ID       int    `json:"ID"`
	Rejected bool   `json:"scartato"`
	Reason   string `json:"motivazione"`
}

// BatchResult is the outcome of one batch. Err is set when the whole batch
// was dropped; Verdicts is then empty.
type BatchResult struct {
	Verdicts []Verdict
	Err      error
}

// Failed reports whether the batch was dropped.
func (r BatchResult) Failed() bool {
	return r.Err != nil
}

// Options tune an Evaluator.
type Options struct {
	// Temperature defaults to DefaultTemperature when nil. Zero is kept.
	Temperature  *float32
	MaxBatchSize int
	MaxLogLength int
}

// Evaluator asks a chat model to accept or reject batches of candidates.
type Evaluator struct {
	chat         ai.Chat
	temperature  float32
	maxBatchSize int
	maxLogLen    int
	logger       *zap.Logger
}

// New returns an Evaluator. Zero options fall back to the defaults.
func New(chat ai.Chat, opts Options, logger *zap.Logger) *Evaluator {
	temperature := DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = DefaultMaxBatchSize
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Evaluator{
		chat:         chat,
		temperature:  temperature,
		maxBatchSize: opts.MaxBatchSize,
		maxLogLen:    opts.MaxLogLength,
		logger:       logger,
	}
}

// MaxBatchSize returns the largest batch EvaluateBatch accepts.
func (e *Evaluator) MaxBatchSize() int {
	return e.maxBatchSize
}

// EvaluateBatch sends one prompt for dossiers and validates the answer. Any
// transport, parse or schema failure drops the whole batch.
func (e *Evaluator) EvaluateBatch(ctx context.Context, offer Offer, dossiers []Dossier) BatchResult {
	if len(dossiers) == 0 {
		return BatchResult{}
	}
	if len(dossiers) > e.maxBatchSize {
		return BatchResult{Err: fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(dossiers), e.maxBatchSize)}
	}
	if e.chat == nil {
		return BatchResult{Err: errors.New("chat model is not configured")}
	}

	prompt := buildUserPrompt(offer, dossiers)
	e.logger.Debug("evaluation request",
		zap.Int("dossiers", len(dossiers)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.chat.Chat(ctx, ai.Request{
		System:      buildSystemPrompt(),
		User:        prompt,
		Temperature: ai.Temperature(e.temperature),
		JSON:        true,
	})
	if err != nil {
		return BatchResult{Err: fmt.Errorf("evaluation call: %w", err)}
	}

	e.logger.Debug("evaluation response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	verdicts, err := ParseResponse(raw)
	if err != nil {
		return BatchResult{Err: err}
	}

	known := make(map[int]struct{}, len(dossiers))
	for _, d := range dossiers {
		known[d.ID] = struct{}{}
	}
	for _, v := range verdicts {
		if _, ok := known[v.ID]; !ok {
			e.logger.Warn("verdict for a candidate outside the batch", zap.Int("candidate_id", v.ID))
		}
		if words := utils.WordCount(v.Reason); words > MaxReasonWords {
			e.logger.Warn("verdict justification exceeds soft cap",
				zap.Int("candidate_id", v.ID),
				zap.Int("words", words),
				zap.Int("cap", MaxReasonWords),
			)
		}
	}

	return BatchResult{Verdicts: verdicts}
}

type response struct {
	Results []Verdict `json:"results"`
}

// ParseResponse strips code fences, validates raw against the evaluation
// schema and decodes the verdicts.
func ParseResponse(raw string) ([]Verdict, error) {
	cleaned := utils.StripCodeFences(raw)

	if err := schemas.ValidateJSONString(schemas.Evaluation, cleaned); err != nil {
		return nil, fmt.Errorf("evaluation response: %w", err)
	}

	var resp response
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("decode evaluation response: %w", err)
	}

	for i := range resp.Results {
		resp.Results[i].Reason = strings.TrimSpace(resp.Results[i].Reason)
	}
	if resp.Results == nil {
		resp.Results = []Verdict{}
	}
	return resp.Results, nil
}
