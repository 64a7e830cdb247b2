package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipserve/clipserve/internal/pkg/response"
	"github.com/clipserve/clipserve/internal/vector"
)

// SimilarityHandler serves the pure vector endpoints. No oracle or cache is
// involved; callers bring their own embeddings.
type SimilarityHandler struct{}

func NewSimilarityHandler() *SimilarityHandler {
	return &SimilarityHandler{}
}

type similarityRequest struct {
	Embedding1 []float32 `json:"embedding1"`
	Embedding2 []float32 `json:"embedding2"`
}

type searchRequest struct {
	QueryEmbedding      []float32   `json:"query_embedding"`
	CandidateEmbeddings [][]float32 `json:"candidate_embeddings"`
	TopK                int         `json:"top_k"`
}

func (h *SimilarityHandler) Similarity(c *gin.Context) {
	var req similarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	similarity, err := vector.Cosine(req.Embedding1, req.Embedding2)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"similarity": similarity})
}

func (h *SimilarityHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	topK := req.TopK
	if topK == 0 {
		topK = 5
	}
	results, err := vector.RankTopK(req.QueryEmbedding, req.CandidateEmbeddings, topK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": results})
}
