package similarity

import (
	"errors"
	"math"
	"sort"
)

// ErrDimensionMismatch is returned when vectors of different length are combined.
var ErrDimensionMismatch = errors.New("vector dimensions differ")

// Cosine returns the cosine similarity of a and b in [-1, 1]. Empty, zero or
// mismatched vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}

	score := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, score))
}

// CosineMany scores every vector against ref.
func CosineMany(ref []float32, vectors [][]float32) []float64 {
	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		scores[i] = Cosine(ref, v)
	}
	return scores
}

// Euclidean returns the L2 distance between a and b.
func Euclidean(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// DistancesFrom returns the Euclidean distance of every vector from centroid.
func DistancesFrom(centroid []float32, vectors [][]float32) ([]float64, error) {
	out := make([]float64, len(vectors))
	for i, v := range vectors {
		d, err := Euclidean(centroid, v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// Centroid returns the element-wise mean of vectors.
func Centroid(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, errors.New("centroid of no vectors")
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, ErrDimensionMismatch
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
	}

	mean := make([]float32, dim)
	n := float64(len(vectors))
	for i := range sum {
		mean[i] = float32(sum[i] / n)
	}
	return mean, nil
}

// Ranked is a label with its score and position in the input.
type Ranked struct {
	Index int
	Label string
	Score float64
}

// Rank orders labels by score, highest first. Equal scores keep input order.
func Rank(labels []string, scores []float64) []Ranked {
	n := len(labels)
	if len(scores) < n {
		n = len(scores)
	}

	ranked := make([]Ranked, n)
	for i := 0; i < n; i++ {
		ranked[i] = Ranked{Index: i, Label: labels[i], Score: scores[i]}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
