// Package vector holds the pure similarity primitives: normalization, cosine
// similarity and top-k ranking. Arithmetic runs in float64 to keep the
// accumulated dot products stable, inputs and outputs stay float32.
package vector

import (
	"fmt"
	"math"
	"sort"

	"github.com/clipserve/clipserve/internal/model"
	appErr "github.com/clipserve/clipserve/internal/pkg/errors"
)

// Top-k bounds for ranked search.
const (
	MinTopK = 1
	MaxTopK = 100
)

// Normalize returns v scaled to unit Euclidean length. A zero-norm vector has
// no direction and is rejected: a legitimate embedding is never all-zero.
func Normalize(v []float32) ([]float32, error) {
	norm := euclideanNorm(v)
	if norm == 0 {
		return nil, fmt.Errorf("%w: zero-norm vector of dimension %d", appErr.ErrDegenerateVector, len(v))
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

// Cosine returns the cosine similarity of a and b. Both inputs are
// re-normalized unconditionally, even if a producer claims they already are.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", appErr.ErrDimensionMismatch, len(a), len(b))
	}
	normA := euclideanNorm(a)
	normB := euclideanNorm(b)
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("%w: zero-norm input to cosine similarity", appErr.ErrDegenerateVector)
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB), nil
}

// RankTopK scores every candidate against query and returns at most k
// results, best first. Ties break toward the lower original index so the
// ordering is deterministic. k is clamped to [MinTopK, MaxTopK] and capped at
// the candidate count.
func RankTopK(query []float32, candidates [][]float32, k int) ([]model.SimilarityResult, error) {
	if k < MinTopK {
		k = MinTopK
	}
	if k > MaxTopK {
		k = MaxTopK
	}
	results := make([]model.SimilarityResult, 0, len(candidates))
	for i, candidate := range candidates {
		score, err := Cosine(query, candidate)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		results = append(results, model.SimilarityResult{Index: i, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func euclideanNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
