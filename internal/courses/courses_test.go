package courses

import (
	"context"
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `[
  {"id": "sql-101", "title": "SQL per l'analisi dati", "description": "Query e aggregazioni", "level": "Base", "duration_hours": 12, "url": "https://example.com/sql", "skills": ["SQL"]},
  {"title": "Python avanzato", "description": "Pandas e visualizzazione", "level": "Avanzato", "duration_hours": 20.5, "url": "https://example.com/python"}
]`

func TestParseCatalog(t *testing.T) {
	t.Parallel()

	catalog, err := ParseCatalog([]byte(catalogJSON))
	require.NoError(t, err)
	require.Len(t, catalog, 2)

	assert.Equal(t, "sql-101", catalog[0].Key())
	assert.Equal(t, "https://example.com/python", catalog[1].Key())
	assert.Equal(t, "SQL per l'analisi dati\nQuery e aggregazioni\nSQL", catalog[0].Text())
	assert.InDelta(t, 20.5, catalog[1].DurationHours, 1e-9)
}

func TestParseCatalogRejectsInvalid(t *testing.T) {
	t.Parallel()

	_, err := ParseCatalog([]byte(`[{"title": "Senza descrizione", "url": "x"}]`))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte(`{"title": "not an array"}`))
	assert.Error(t, err)
}

type fakePoints struct {
	exists  bool
	created *qdrant.CreateCollection
	upserts []*qdrant.UpsertPoints
	query   *qdrant.QueryPoints
	results []*qdrant.ScoredPoint
}

func (f *fakePoints) CollectionExists(context.Context, string) (bool, error) { return f.exists, nil }

func (f *fakePoints) CreateCollection(_ context.Context, request *qdrant.CreateCollection) error {
	f.created = request
	return nil
}

func (f *fakePoints) Upsert(_ context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserts = append(f.upserts, request)
	return &qdrant.UpdateResult{}, nil
}

func (f *fakePoints) Query(_ context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.query = request
	return f.results, nil
}

func TestQdrantIndexEnsureCollection(t *testing.T) {
	t.Parallel()

	client := &fakePoints{}
	index := &QdrantIndex{client: client, collection: "courses"}

	require.NoError(t, index.EnsureCollection(context.Background(), 768))
	require.NotNil(t, client.created)
	assert.Equal(t, "courses", client.created.GetCollectionName())

	existing := &fakePoints{exists: true}
	index = &QdrantIndex{client: existing, collection: "courses"}
	require.NoError(t, index.EnsureCollection(context.Background(), 768))
	assert.Nil(t, existing.created)
}

func TestQdrantIndexUpsertAndSearch(t *testing.T) {
	t.Parallel()

	catalog, err := ParseCatalog([]byte(catalogJSON))
	require.NoError(t, err)

	client := &fakePoints{}
	index := &QdrantIndex{client: client, collection: "courses"}

	require.NoError(t, index.Upsert(context.Background(), catalog, [][]float32{{1, 0}, {0, 1}}))
	require.Len(t, client.upserts, 1)

	points := client.upserts[0].GetPoints()
	require.Len(t, points, 2)
	assert.Equal(t, pointID(catalog[0]), points[0].GetId().GetUuid())

	client.results = []*qdrant.ScoredPoint{{Payload: points[0].GetPayload(), Score: 0.93}}
	hits, err := index.Search(context.Background(), []float32{1, 0}, 8)
	require.NoError(t, err)

	assert.Equal(t, uint64(8), client.query.GetLimit())
	require.Len(t, hits, 1)
	assert.Equal(t, catalog[0], hits[0].Course)
	assert.InDelta(t, 0.93, hits[0].Score, 1e-6)
}

func TestQdrantIndexUpsertLengthMismatch(t *testing.T) {
	t.Parallel()

	index := &QdrantIndex{client: &fakePoints{}, collection: "courses"}
	err := index.Upsert(context.Background(), []Course{{Title: "a"}}, nil)
	assert.Error(t, err)
}

func TestPointIDIsStable(t *testing.T) {
	t.Parallel()

	a := pointID(Course{ID: "sql-101"})
	b := pointID(Course{ID: "sql-101", Title: "changed"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, pointID(Course{ID: "sql-102"}))
}

type fakeEncoder struct {
	err error
}

func (f fakeEncoder) Encode(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (f fakeEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if text == "" {
			continue
		}
		out[i], _ = f.Encode(ctx, text)
	}
	return out, f.err
}

type memoryIndex struct {
	dimension int
	courses   []Course
	k         int
}

func (m *memoryIndex) EnsureCollection(_ context.Context, dimension int) error {
	m.dimension = dimension
	return nil
}

func (m *memoryIndex) Upsert(_ context.Context, list []Course, _ [][]float32) error {
	m.courses = append(m.courses, list...)
	return nil
}

func (m *memoryIndex) Search(_ context.Context, _ []float32, k int) ([]Hit, error) {
	m.k = k
	var hits []Hit
	for i, c := range m.courses {
		if i == k {
			break
		}
		hits = append(hits, Hit{Course: c})
	}
	return hits, nil
}

func TestRetrieverIngestAndSearch(t *testing.T) {
	t.Parallel()

	catalog, err := ParseCatalog([]byte(catalogJSON))
	require.NoError(t, err)
	catalog = append(catalog, Course{URL: "empty"})

	index := &memoryIndex{}
	retriever := NewRetriever(fakeEncoder{}, index, nil)

	count, err := retriever.Ingest(context.Background(), catalog)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, index.dimension)

	found, err := retriever.Search(context.Background(), "corsi di SQL", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, index.k)
	assert.Len(t, found, 2)

	found, err = retriever.Search(context.Background(), "  ", 3)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestRetrieverSearchEmbeddingError(t *testing.T) {
	t.Parallel()

	retriever := NewRetriever(fakeEncoder{err: errors.New("quota")}, &memoryIndex{}, nil)
	_, err := retriever.Search(context.Background(), "sql", 8)
	assert.ErrorContains(t, err, "quota")
}
