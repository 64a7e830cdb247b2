package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipserve/clipserve/internal/pkg/response"
	"github.com/clipserve/clipserve/internal/service"
)

type ConsistencyHandler struct {
	consistency *service.ConsistencyService
}

func NewConsistencyHandler(consistency *service.ConsistencyService) *ConsistencyHandler {
	return &ConsistencyHandler{consistency: consistency}
}

type consistencyRequest struct {
	GeneratedImage  string   `json:"generated_image"`
	ReferenceImages []string `json:"reference_images"`
	TextDescription string   `json:"text_description"`
	Threshold       *float64 `json:"threshold"`
}

// Check handles POST /character/consistency. The generated image's embedding
// rides along in the response so callers can index it without a second
// encode.
func (h *ConsistencyHandler) Check(c *gin.Context) {
	var req consistencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	threshold := 0.85
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	verdict, embedding, err := h.consistency.Check(c.Request.Context(), req.GeneratedImage, req.ReferenceImages, req.TextDescription, threshold)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"consistency_score":  verdict.Score,
		"image_similarities": verdict.ImageSimilarities,
		"text_similarity":    verdict.TextSimilarity,
		"passed":             verdict.Passed,
		"threshold":          verdict.Threshold,
		"embedding":          embedding,
	})
}
