package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/clipserve/clipserve/internal/cache"
	"github.com/clipserve/clipserve/internal/oracle"
	appErr "github.com/clipserve/clipserve/internal/pkg/errors"
)

// Batch kinds accepted by BatchEncode.
const (
	BatchKindText  = "text"
	BatchKindImage = "image"
)

// MaxBatchItems caps a single batch request.
const MaxBatchItems = 50

// BatchItem is one entry of a batch request. CacheKey overrides the derived
// key when set; it is only meaningful for image items.
type BatchItem struct {
	Content  string
	CacheKey string
}

// OracleFailureRecorder counts backend failures; nil disables counting.
type OracleFailureRecorder interface {
	OracleFailure()
}

// EmbedService runs the content → key → cache → oracle → cache pipeline.
// The oracle is the only component that produces vectors; this service never
// re-implements inference, it only avoids repeating it.
type EmbedService struct {
	oracle   oracle.Oracle
	cache    *cache.TieredCache
	ttl      time.Duration
	failures OracleFailureRecorder
}

func NewEmbedService(o oracle.Oracle, c *cache.TieredCache, ttl time.Duration, failures OracleFailureRecorder) *EmbedService {
	return &EmbedService{oracle: o, cache: c, ttl: ttl, failures: failures}
}

func (s *EmbedService) Dimension() int {
	return s.oracle.Dimension()
}

func (s *EmbedService) OracleName() string {
	return s.oracle.Name()
}

// EncodeText embeds one or more texts. Single texts go through the cache;
// multi-text requests are submitted to the oracle as one batched call and
// bypass per-item caching, matching the granularity the oracle call exposes.
func (s *EmbedService) EncodeText(ctx context.Context, texts []string, cacheKey string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no text provided", appErr.ErrValidation)
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: empty text at index %d", appErr.ErrValidation, i)
		}
	}
	single := len(texts) == 1
	key := cacheKey
	if single {
		if key == "" {
			key = cache.DeriveKeyString(cache.NamespaceText, texts[0])
		}
		if values, ok := s.cache.Get(ctx, key); ok {
			return [][]float32{values}, nil
		}
	}
	start := time.Now()
	embeddings, err := s.oracle.EncodeText(ctx, texts)
	if err != nil {
		return nil, s.classifyOracleErr(err)
	}
	logutil.GetLogger(ctx).Debug("text encoded",
		zap.Int("count", len(texts)),
		zap.Duration("elapsed", time.Since(start)),
	)
	if single {
		s.cache.Put(ctx, key, embeddings[0], s.ttl)
	}
	return embeddings, nil
}

// EncodeImage embeds a base64 image payload through the full single-item
// cache path. The key derives from the decoded bytes unless the caller
// supplied one.
func (s *EmbedService) EncodeImage(ctx context.Context, payload string, cacheKey string) ([]float32, error) {
	img, raw, err := decodeImagePayload(payload)
	if err != nil {
		return nil, err
	}
	key := cacheKey
	if key == "" {
		key = cache.DeriveKey(cache.NamespaceImage, raw)
	}
	if values, ok := s.cache.Get(ctx, key); ok {
		return values, nil
	}
	start := time.Now()
	embedding, err := s.oracle.EncodeImage(ctx, img)
	if err != nil {
		return nil, s.classifyOracleErr(err)
	}
	logutil.GetLogger(ctx).Debug("image encoded", zap.Duration("elapsed", time.Since(start)))
	s.cache.Put(ctx, key, embedding, s.ttl)
	return embedding, nil
}

// BatchEncode fans a batch out by kind: text items become one batched oracle
// call, image items run sequentially through the full single-item path.
// Output index i always embeds input index i.
func (s *EmbedService) BatchEncode(ctx context.Context, items []BatchItem, kind string) ([][]float32, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty batch", appErr.ErrValidation)
	}
	if len(items) > MaxBatchItems {
		return nil, fmt.Errorf("%w: batch of %d exceeds limit of %d", appErr.ErrValidation, len(items), MaxBatchItems)
	}
	switch kind {
	case BatchKindText:
		texts := make([]string, 0, len(items))
		for _, item := range items {
			texts = append(texts, item.Content)
		}
		return s.EncodeText(ctx, texts, "")
	case BatchKindImage:
		results := make([][]float32, 0, len(items))
		for i, item := range items {
			embedding, err := s.EncodeImage(ctx, item.Content, item.CacheKey)
			if err != nil {
				return nil, fmt.Errorf("batch item %d: %w", i, err)
			}
			results = append(results, embedding)
		}
		return results, nil
	default:
		return nil, fmt.Errorf("%w: unknown batch_type %q", appErr.ErrValidation, kind)
	}
}

// classifyOracleErr keeps already-classified errors as-is and folds anything
// else into the encoding kind. Validation failures (backend rejected the
// content) stay the caller's problem.
func (s *EmbedService) classifyOracleErr(err error) error {
	if appErr.IsEncoding(err) {
		if s.failures != nil {
			s.failures.OracleFailure()
		}
		return err
	}
	if appErr.IsValidation(err) {
		return err
	}
	if s.failures != nil {
		s.failures.OracleFailure()
	}
	return fmt.Errorf("%w: %v", appErr.ErrEncoding, err)
}
