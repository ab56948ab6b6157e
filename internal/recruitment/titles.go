package recruitment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/talent-suite/internal/candidates"
	"github.com/spigell/talent-suite/internal/similarity"
)

// DefaultTopTitles is how many best title matches form the archetype.
const DefaultTopTitles = 5

// ErrNoTitles is returned when no candidate has a current position.
var ErrNoTitles = errors.New("no candidate has a current position")

// TitleMatch is a candidate position scored against the offer.
type TitleMatch struct {
	ID    int
	Title string
	Score float64
}

// RankTitles scores the current position of every candidate against
// offerText, best first. Candidates without a position are skipped.
func RankTitles(ctx context.Context, encoder Encoder, offerText string, list []*candidates.Candidate) ([]TitleMatch, error) {
	var (
		titles []string
		ids    []int
	)
	for _, c := range list {
		title := strings.TrimSpace(c.CurrentPosition)
		if title == "" {
			continue
		}
		titles = append(titles, title)
		ids = append(ids, c.ID)
	}
	if len(titles) == 0 {
		return nil, ErrNoTitles
	}

	offerVector, err := encoder.Encode(ctx, offerText)
	if err != nil {
		return nil, fmt.Errorf("embed offer: %w", err)
	}

	vectors, err := encoder.EncodeBatch(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("embed titles: %w", err)
	}

	ranked := similarity.Rank(titles, similarity.CosineMany(offerVector, vectors))
	matches := make([]TitleMatch, 0, len(ranked))
	for _, r := range ranked {
		matches = append(matches, TitleMatch{ID: ids[r.Index], Title: r.Label, Score: r.Score})
	}
	return matches, nil
}

// ArchetypeMetric compares a candidate with the archetype.
type ArchetypeMetric struct {
	ID                int
	Title             string
	CosineSimilarity  float64
	EuclideanDistance float64
}

// ArchetypeResult is the archetype built from the best title matches and the
// remaining candidates measured against it.
type ArchetypeResult struct {
	Titles    []TitleMatch
	Selected  []int
	Centroid  []float32
	Remaining []ArchetypeMetric
}

// Archetype picks the topN candidates whose position best matches offerText,
// averages the embeddings of their aggregated experience and measures every
// other candidate against that average, most similar first.
func Archetype(ctx context.Context, encoder Encoder, offerText string, list []*candidates.Candidate, topN int) (*ArchetypeResult, error) {
	if topN <= 0 {
		topN = DefaultTopTitles
	}

	titles, err := RankTitles(ctx, encoder, offerText, list)
	if err != nil {
		return nil, err
	}

	selected := make(map[int]struct{}, topN)
	result := &ArchetypeResult{Titles: titles}
	for _, m := range titles {
		if len(result.Selected) == topN {
			break
		}
		selected[m.ID] = struct{}{}
		result.Selected = append(result.Selected, m.ID)
	}

	var best, rest []*candidates.Candidate
	for _, c := range list {
		if _, ok := selected[c.ID]; ok {
			best = append(best, c)
			continue
		}
		rest = append(rest, c)
	}

	bestVectors, err := encoder.EncodeBatch(ctx, experienceTexts(best))
	if err != nil {
		return nil, fmt.Errorf("embed selected experience: %w", err)
	}

	centroid, err := similarity.Centroid(nonEmpty(bestVectors))
	if err != nil {
		return nil, fmt.Errorf("archetype: %w", err)
	}
	result.Centroid = centroid

	restVectors, err := encoder.EncodeBatch(ctx, experienceTexts(rest))
	if err != nil {
		return nil, fmt.Errorf("embed remaining experience: %w", err)
	}

	for i, c := range rest {
		vector := restVectors[i]
		if len(vector) == 0 {
			vector = make([]float32, len(centroid))
		}
		distance, err := similarity.Euclidean(vector, centroid)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", c.ID, err)
		}
		result.Remaining = append(result.Remaining, ArchetypeMetric{
			ID:                c.ID,
			Title:             c.Position(),
			CosineSimilarity:  similarity.Cosine(centroid, vector),
			EuclideanDistance: distance,
		})
	}

	sort.SliceStable(result.Remaining, func(i, j int) bool {
		return result.Remaining[i].CosineSimilarity > result.Remaining[j].CosineSimilarity
	})
	return result, nil
}

func experienceTexts(list []*candidates.Candidate) []string {
	texts := make([]string, len(list))
	for i, c := range list {
		texts[i] = c.ExperienceText()
	}
	return texts
}

func nonEmpty(vectors [][]float32) [][]float32 {
	out := make([][]float32, 0, len(vectors))
	for _, v := range vectors {
		if len(v) > 0 {
			out = append(out, v)
		}
	}
	return out
}
