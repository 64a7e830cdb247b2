package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/clipserve/clipserve/internal/model"
	appErr "github.com/clipserve/clipserve/internal/pkg/errors"
	"github.com/clipserve/clipserve/internal/vector"
)

// Blend weights for the consistency score when a text description is
// present. Fixed, not configurable.
const (
	imageWeight = 0.7
	textWeight  = 0.3
)

// ConsistencyService decides whether a generated image stays on-character
// relative to a set of reference images, optionally anchored by a text
// description.
type ConsistencyService struct {
	embed *EmbedService
}

func NewConsistencyService(embed *EmbedService) *ConsistencyService {
	return &ConsistencyService{embed: embed}
}

// Check runs the single-pass scoring pipeline. Any oracle failure while
// obtaining an embedding aborts the whole check; there are no partial
// verdicts. The generated image's embedding is returned alongside the
// verdict so callers can reuse it.
func (s *ConsistencyService) Check(ctx context.Context, generatedImage string, referenceImages []string, textDescription string, threshold float64) (*model.ConsistencyVerdict, []float32, error) {
	if threshold < 0 || threshold > 1 {
		return nil, nil, fmt.Errorf("%w: threshold %v outside [0, 1]", appErr.ErrValidation, threshold)
	}
	generated, err := s.embed.EncodeImage(ctx, generatedImage, "")
	if err != nil {
		return nil, nil, fmt.Errorf("generated image: %w", err)
	}
	imageSims := make([]float64, 0, len(referenceImages))
	for i, ref := range referenceImages {
		refEmbedding, err := s.embed.EncodeImage(ctx, ref, "")
		if err != nil {
			return nil, nil, fmt.Errorf("reference image %d: %w", i, err)
		}
		sim, err := vector.Cosine(generated, refEmbedding)
		if err != nil {
			return nil, nil, fmt.Errorf("reference image %d: %w", i, err)
		}
		imageSims = append(imageSims, sim)
	}
	var textSim *float64
	if strings.TrimSpace(textDescription) != "" {
		textEmbeddings, err := s.embed.EncodeText(ctx, []string{textDescription}, "")
		if err != nil {
			return nil, nil, fmt.Errorf("text description: %w", err)
		}
		sim, err := vector.Cosine(generated, textEmbeddings[0])
		if err != nil {
			return nil, nil, fmt.Errorf("text description: %w", err)
		}
		textSim = &sim
	}
	verdict := scoreVerdict(imageSims, textSim, threshold)
	logutil.GetLogger(ctx).Info("consistency check",
		zap.Float64("score", verdict.Score),
		zap.Int("references", len(referenceImages)),
		zap.Bool("passed", verdict.Passed),
	)
	return &verdict, generated, nil
}

// scoreVerdict blends the similarity stages into a verdict. No references
// means an average image similarity of zero, not an error. The threshold
// comparison is non-strict: a score exactly at the threshold passes.
func scoreVerdict(imageSims []float64, textSim *float64, threshold float64) model.ConsistencyVerdict {
	avg := 0.0
	if len(imageSims) > 0 {
		for _, sim := range imageSims {
			avg += sim
		}
		avg /= float64(len(imageSims))
	}
	score := avg
	if textSim != nil {
		score = imageWeight*avg + textWeight*(*textSim)
	}
	return model.ConsistencyVerdict{
		Score:             score,
		ImageSimilarities: imageSims,
		TextSimilarity:    textSim,
		Passed:            score >= threshold,
		Threshold:         threshold,
	}
}
