package model

// An embedding is carried as a plain []float32; its dimension is the slice
// length and similarity math re-normalizes unconditionally, so no wrapper
// type is needed.

// SimilarityResult is one ranked candidate from a top-k search.
type SimilarityResult struct {
	Index int     `json:"index"`
	Score float64 `json:"similarity"`
}

// ConsistencyVerdict is the outcome of a single character-consistency check.
// TextSimilarity is nil when no text description was supplied.
type ConsistencyVerdict struct {
	Score             float64   `json:"consistency_score"`
	ImageSimilarities []float64 `json:"image_similarities"`
	TextSimilarity    *float64  `json:"text_similarity"`
	Passed            bool      `json:"passed"`
	Threshold         float64   `json:"threshold"`
}
