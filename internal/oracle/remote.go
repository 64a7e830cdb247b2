package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	appErr "github.com/clipserve/clipserve/internal/pkg/errors"
)

type remoteConfig struct {
	BaseURL   string `json:"base_url"`
	TimeoutMS int    `json:"timeout_ms"`
}

// remoteOracle talks to a CLIP model sidecar over HTTP. It is the only
// backend that encodes both modalities. A 4xx from the sidecar means the
// content itself was rejected (recoverable, caller's fault); 5xx and
// transport failures mean the model is unavailable.
type remoteOracle struct {
	baseURL   string
	client    *http.Client
	dimension int
}

type remoteTextRequest struct {
	Texts []string `json:"texts"`
}

type remoteImageRequest struct {
	Image string `json:"image"`
}

type remoteTextResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type remoteImageResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (o *remoteOracle) Name() string {
	return "remote"
}

func (o *remoteOracle) Dimension() int {
	return o.dimension
}

func (o *remoteOracle) EncodeText(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to encode", appErr.ErrValidation)
	}
	var out remoteTextResponse
	if err := o.post(ctx, "/encode/text", remoteTextRequest{Texts: texts}, &out); err != nil {
		return nil, err
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: backend returned %d embeddings for %d texts", appErr.ErrEncoding, len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}

func (o *remoteOracle) EncodeImage(ctx context.Context, img image.Image) ([]float32, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: re-encode image: %v", appErr.ErrValidation, err)
	}
	var out remoteImageResponse
	req := remoteImageRequest{Image: base64.StdEncoding.EncodeToString(buf.Bytes())}
	if err := o.post(ctx, "/encode/image", req, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("%w: backend returned an empty embedding", appErr.ErrEncoding)
	}
	return out.Embedding, nil
}

func (o *remoteOracle) post(ctx context.Context, path string, in interface{}, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", appErr.ErrEncoding, err)
	}
	endpoint := strings.TrimRight(o.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", appErr.ErrEncoding, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: model backend unreachable: %v", appErr.ErrEncoding, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: backend rejected content: %s: %s", appErr.ErrValidation, resp.Status, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: backend request failed: %s: %s", appErr.ErrEncoding, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", appErr.ErrEncoding, err)
	}
	return nil
}

func createRemoteFactory(args interface{}, dimension int) (Oracle, error) {
	cfg := &remoteConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("oracle.data.base_url is required for remote")
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &remoteOracle{
		baseURL:   strings.TrimSpace(cfg.BaseURL),
		client:    &http.Client{Timeout: timeout},
		dimension: dimension,
	}, nil
}

func init() {
	Register("remote", createRemoteFactory)
}
