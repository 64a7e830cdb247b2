package oracle

import (
	"context"
	"fmt"
	"image"
	"strings"

	"google.golang.org/genai"

	appErr "github.com/clipserve/clipserve/internal/pkg/errors"
	"github.com/clipserve/clipserve/internal/vector"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

// geminiOracle embeds text through the Gemini embedding API. It is a
// text-only backend: image requests need the remote CLIP backend.
type geminiOracle struct {
	apiKey    string
	model     string
	dimension int
}

func (o *geminiOracle) Name() string {
	return "gemini"
}

func (o *geminiOracle) Dimension() int {
	return o.dimension
}

func (o *geminiOracle) EncodeText(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to encode", appErr.ErrValidation)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  o.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini client: %v", appErr.ErrEncoding, err)
	}
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: text}}})
	}
	resp, err := client.Models.EmbedContent(ctx, o.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini embed: %v", appErr.ErrEncoding, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: gemini returned %d embeddings for %d texts", appErr.ErrEncoding, len(resp.Embeddings), len(texts))
	}
	out := make([][]float32, 0, len(texts))
	for _, emb := range resp.Embeddings {
		normalized, err := vector.Normalize(emb.Values)
		if err != nil {
			return nil, fmt.Errorf("%w: gemini returned an empty embedding", appErr.ErrEncoding)
		}
		out = append(out, normalized)
	}
	return out, nil
}

func (o *geminiOracle) EncodeImage(ctx context.Context, img image.Image) ([]float32, error) {
	return nil, fmt.Errorf("%w: gemini backend does not encode images", appErr.ErrEncoding)
}

func createGeminiFactory(args interface{}, dimension int) (Oracle, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("oracle.data.api_key is required for gemini")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-embedding-001"
	}
	return &geminiOracle{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		model:     model,
		dimension: dimension,
	}, nil
}

func init() {
	Register("gemini", createGeminiFactory)
}
