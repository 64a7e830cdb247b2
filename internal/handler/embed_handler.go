package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	appErr "github.com/clipserve/clipserve/internal/pkg/errors"
	"github.com/clipserve/clipserve/internal/pkg/response"
	"github.com/clipserve/clipserve/internal/service"
	"github.com/clipserve/clipserve/internal/vector"
)

type EmbedHandler struct {
	embed *service.EmbedService
}

func NewEmbedHandler(embed *service.EmbedService) *EmbedHandler {
	return &EmbedHandler{embed: embed}
}

type textEmbedRequest struct {
	Text     json.RawMessage `json:"text"`
	CacheKey string          `json:"cache_key"`
}

type imageEmbedRequest struct {
	Image    string `json:"image"`
	CacheKey string `json:"cache_key"`
}

type multimodalRequest struct {
	Text     string `json:"text"`
	Image    string `json:"image"`
	CacheKey string `json:"cache_key"`
}

type batchRequest struct {
	Items     []json.RawMessage `json:"items"`
	BatchType string            `json:"batch_type"`
}

type batchItemObject struct {
	Text     string `json:"text"`
	Image    string `json:"image"`
	CacheKey string `json:"cache_key"`
}

// Text handles POST /embed/text. The text field is either a single string or
// an array of strings; the union is resolved here, once, at the boundary.
func (h *EmbedHandler) Text(c *gin.Context) {
	var req textEmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	texts, single, err := resolveTextUnion(req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	embeddings, err := h.embed.EncodeText(c.Request.Context(), texts, req.CacheKey)
	if err != nil {
		handleError(c, err)
		return
	}
	if single {
		response.Success(c, gin.H{"embeddings": embeddings[0], "dimension": h.embed.Dimension()})
		return
	}
	response.Success(c, gin.H{"embeddings": embeddings, "dimension": h.embed.Dimension()})
}

// Image handles POST /embed/image.
func (h *EmbedHandler) Image(c *gin.Context) {
	var req imageEmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	embedding, err := h.embed.EncodeImage(c.Request.Context(), req.Image, req.CacheKey)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"embedding": embedding, "dimension": h.embed.Dimension()})
}

// Multimodal handles POST /embed/multimodal: both encodes plus their
// cross-modal cosine similarity.
func (h *EmbedHandler) Multimodal(c *gin.Context) {
	var req multimodalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	textEmbeddings, err := h.embed.EncodeText(c.Request.Context(), []string{req.Text}, "")
	if err != nil {
		handleError(c, err)
		return
	}
	imageEmbedding, err := h.embed.EncodeImage(c.Request.Context(), req.Image, req.CacheKey)
	if err != nil {
		handleError(c, err)
		return
	}
	similarity, err := vector.Cosine(textEmbeddings[0], imageEmbedding)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"text_embedding":         textEmbeddings[0],
		"image_embedding":        imageEmbedding,
		"cross_modal_similarity": similarity,
	})
}

// Batch handles POST /embed/batch.
func (h *EmbedHandler) Batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	items, err := resolveBatchItems(req.Items, req.BatchType)
	if err != nil {
		handleError(c, err)
		return
	}
	embeddings, err := h.embed.BatchEncode(c.Request.Context(), items, req.BatchType)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"embeddings": embeddings,
		"dimension":  h.embed.Dimension(),
		"count":      len(embeddings),
	})
}

func resolveTextUnion(raw json.RawMessage) ([]string, bool, error) {
	if len(raw) == 0 {
		return nil, false, fmt.Errorf("%w: text is required", appErr.ErrValidation)
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, true, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, false, nil
	}
	return nil, false, fmt.Errorf("%w: text must be a string or an array of strings", appErr.ErrValidation)
}

func resolveBatchItems(raw []json.RawMessage, batchType string) ([]service.BatchItem, error) {
	items := make([]service.BatchItem, 0, len(raw))
	for i, entry := range raw {
		var content string
		if err := json.Unmarshal(entry, &content); err == nil {
			items = append(items, service.BatchItem{Content: content})
			continue
		}
		var obj batchItemObject
		if err := json.Unmarshal(entry, &obj); err != nil {
			return nil, fmt.Errorf("%w: batch item %d must be a string or an object", appErr.ErrValidation, i)
		}
		content = obj.Text
		if batchType == service.BatchKindImage {
			content = obj.Image
		}
		items = append(items, service.BatchItem{Content: content, CacheKey: obj.CacheKey})
	}
	return items, nil
}
