package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-suite/internal/ai"
	"github.com/spigell/talent-suite/internal/similarity"
)

// Engine encodes text with one embedder instance for the whole run.
type Engine struct {
	embedder ai.Embedder
	logger   *zap.Logger
	calls    int
}

// New returns an Engine around embedder.
func New(embedder ai.Embedder, logger *zap.Logger) (*Engine, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{embedder: embedder, logger: logger}, nil
}

// Encode returns the embedding of text. Blank text yields a nil vector
// without a remote call.
func (e *Engine) Encode(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	e.calls++
	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("encode text: %w", err)
	}
	return vector, nil
}

// EncodeBatch encodes texts in order. Blank entries get nil vectors and are
// not sent.
func (e *Engine) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var (
		pending []string
		index   []int
	)
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pending = append(pending, text)
		index = append(index, i)
	}
	if len(pending) == 0 {
		return out, nil
	}

	e.calls++
	vectors, err := e.embedder.EmbedBatch(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	if len(vectors) != len(pending) {
		return nil, fmt.Errorf("encode batch: expected %d vectors, got %d", len(pending), len(vectors))
	}

	for i, v := range vectors {
		out[index[i]] = v
	}

	e.logger.Debug("encoded batch", zap.Int("texts", len(texts)), zap.Int("sent", len(pending)))
	return out, nil
}

// Similarity encodes text and scores it against ref. Blank text scores 0.
func (e *Engine) Similarity(ctx context.Context, ref []float32, text string) (float64, error) {
	vector, err := e.Encode(ctx, text)
	if err != nil {
		return 0, err
	}
	return similarity.Cosine(ref, vector), nil
}

// Calls returns how many remote requests the engine made.
func (e *Engine) Calls() int {
	return e.calls
}
