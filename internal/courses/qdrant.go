package courses

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const defaultGRPCPort = 6334

// QdrantConfig configures the course index.
type QdrantConfig struct {
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api-key"`
	Collection string `mapstructure:"collection"`
}

type pointsClient interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// QdrantIndex stores course embeddings in a Qdrant collection.
type QdrantIndex struct {
	client     pointsClient
	collection string
}

// NewQdrantIndex connects to the gRPC endpoint in cfg.URL.
func NewQdrantIndex(cfg QdrantConfig) (*QdrantIndex, error) {
	if cfg.Collection == "" {
		return nil, errors.New("qdrant collection is required")
	}

	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid qdrant url: %w", err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("invalid qdrant url %q", cfg.URL)
	}

	port := defaultGRPCPort
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   parsed.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: parsed.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	return &QdrantIndex{client: client, collection: cfg.Collection}, nil
}

// EnsureCollection creates the collection with cosine distance when missing.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dimension int) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Upsert stores courses with their vectors. Re-ingesting a course replaces
// its point.
func (q *QdrantIndex) Upsert(ctx context.Context, list []Course, vectors [][]float32) error {
	if len(list) != len(vectors) {
		return fmt.Errorf("got %d vectors for %d courses", len(vectors), len(list))
	}

	points := make([]*qdrant.PointStruct, 0, len(list))
	for i, c := range list {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(c)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload(c)),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert courses: %w", err)
	}
	return nil
}

// Hit is a course found by a search.
type Hit struct {
	Course Course
	Score  float32
}

// Search returns the k nearest courses to vector.
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search courses: %w", err)
	}

	hits := make([]Hit, 0, len(points))
	for _, point := range points {
		hits = append(hits, Hit{Course: fromPayload(point.GetPayload()), Score: point.GetScore()})
	}
	return hits, nil
}

func pointID(c Course) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(c.Key())).String()
}

func payload(c Course) map[string]any {
	skills := make([]any, 0, len(c.Skills))
	for _, s := range c.Skills {
		skills = append(skills, s)
	}
	return map[string]any{
		"id":             c.ID,
		"title":          c.Title,
		"description":    c.Description,
		"provider":       c.Provider,
		"level":          c.Level,
		"duration_hours": c.DurationHours,
		"url":            c.URL,
		"skills":         skills,
	}
}

func fromPayload(p map[string]*qdrant.Value) Course {
	c := Course{
		ID:          p["id"].GetStringValue(),
		Title:       p["title"].GetStringValue(),
		Description: p["description"].GetStringValue(),
		Provider:    p["provider"].GetStringValue(),
		Level:       p["level"].GetStringValue(),
		URL:         p["url"].GetStringValue(),
	}

	switch v := p["duration_hours"].GetKind().(type) {
	case *qdrant.Value_DoubleValue:
		c.DurationHours = v.DoubleValue
	case *qdrant.Value_IntegerValue:
		c.DurationHours = float64(v.IntegerValue)
	}

	for _, s := range p["skills"].GetListValue().GetValues() {
		if text := s.GetStringValue(); text != "" {
			c.Skills = append(c.Skills, text)
		}
	}
	return c
}
