package courses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// DefaultTopK is how many courses a search returns.
const DefaultTopK = 8

// Encoder turns text into embeddings.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index stores and searches course vectors.
type Index interface {
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, list []Course, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)
}

// Retriever finds catalog courses relevant to a free text query.
type Retriever struct {
	encoder Encoder
	index   Index
	logger  *zap.Logger
}

// NewRetriever returns a Retriever.
func NewRetriever(encoder Encoder, index Index, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{encoder: encoder, index: index, logger: logger}
}

// Search returns up to k courses for query, best first. k <= 0 means DefaultTopK.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]Course, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if strings.TrimSpace(query) == "" {
		return []Course{}, nil
	}

	vector, err := r.encoder.Encode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	found := make([]Course, 0, len(hits))
	for _, hit := range hits {
		found = append(found, hit.Course)
	}

	r.logger.Debug("courses retrieved", zap.String("query", query), zap.Int("found", len(found)))
	return found, nil
}

// Ingest embeds the catalog and stores it in the index.
func (r *Retriever) Ingest(ctx context.Context, catalog []Course) (int, error) {
	if len(catalog) == 0 {
		return 0, nil
	}

	texts := make([]string, len(catalog))
	for i, c := range catalog {
		texts[i] = c.Text()
	}

	vectors, err := r.encoder.EncodeBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed catalog: %w", err)
	}

	var (
		list []Course
		kept [][]float32
	)
	for i, v := range vectors {
		if len(v) == 0 {
			r.logger.Warn("course without text skipped", zap.String("course", catalog[i].Key()))
			continue
		}
		list = append(list, catalog[i])
		kept = append(kept, v)
	}
	if len(list) == 0 {
		return 0, errors.New("no course could be embedded")
	}

	if err := r.index.EnsureCollection(ctx, len(kept[0])); err != nil {
		return 0, err
	}
	if err := r.index.Upsert(ctx, list, kept); err != nil {
		return 0, err
	}

	r.logger.Info("courses ingested", zap.Int("count", len(list)))
	return len(list), nil
}
