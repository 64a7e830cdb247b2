package service

import (
	"context"
	"fmt"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/clipserve/clipserve/internal/pkg/errors"
)

func TestScoreVerdictImagesOnly(t *testing.T) {
	verdict := scoreVerdict([]float64{0.9, 0.8}, nil, 0.85)
	require.InDelta(t, 0.85, verdict.Score, 1e-9)
	require.True(t, verdict.Passed)
	require.Nil(t, verdict.TextSimilarity)
	require.Equal(t, []float64{0.9, 0.8}, verdict.ImageSimilarities)
	require.Equal(t, 0.85, verdict.Threshold)
}

func TestScoreVerdictBlendsTextSignal(t *testing.T) {
	text := 0.5
	verdict := scoreVerdict([]float64{0.9, 0.8}, &text, 0.85)
	require.InDelta(t, 0.745, verdict.Score, 1e-9)
	require.False(t, verdict.Passed)
	require.NotNil(t, verdict.TextSimilarity)
	require.Equal(t, 0.5, *verdict.TextSimilarity)
}

func TestScoreVerdictBoundaryPasses(t *testing.T) {
	verdict := scoreVerdict([]float64{0.85}, nil, 0.85)
	require.Equal(t, verdict.Score, verdict.Threshold)
	require.True(t, verdict.Passed)
}

func TestScoreVerdictNoReferences(t *testing.T) {
	verdict := scoreVerdict(nil, nil, 0.5)
	require.Equal(t, 0.0, verdict.Score)
	require.False(t, verdict.Passed)
	require.Empty(t, verdict.ImageSimilarities)
}

func TestScoreVerdictNoReferencesWithText(t *testing.T) {
	text := 1.0
	verdict := scoreVerdict(nil, &text, 0.3)
	require.InDelta(t, 0.3, verdict.Score, 1e-9)
	require.True(t, verdict.Passed)
}

func TestConsistencyCheckPipeline(t *testing.T) {
	// Generated image encodes to [1,0]; references to directions whose
	// cosine against it is 0.9 and 0.8.
	oracle := &stubOracle{
		dim: 2,
		imageQueue: [][]float32{
			{1, 0},
			{0.9, 0.43588989},
			{0.8, 0.6},
		},
	}
	svc := NewConsistencyService(newTestEmbedService(oracle))

	verdict, embedding, err := svc.Check(
		context.Background(),
		testImagePayload(t, color.RGBA{R: 255, A: 255}),
		[]string{
			testImagePayload(t, color.RGBA{G: 255, A: 255}),
			testImagePayload(t, color.RGBA{B: 255, A: 255}),
		},
		"",
		0.8,
	)
	require.NoError(t, err)
	require.Equal(t, []float32{1, 0}, embedding)
	require.Len(t, verdict.ImageSimilarities, 2)
	require.InDelta(t, 0.9, verdict.ImageSimilarities[0], 1e-6)
	require.InDelta(t, 0.8, verdict.ImageSimilarities[1], 1e-6)
	require.InDelta(t, 0.85, verdict.Score, 1e-6)
	require.True(t, verdict.Passed)
	require.Nil(t, verdict.TextSimilarity)
}

func TestConsistencyCheckWithTextDescription(t *testing.T) {
	oracle := &stubOracle{
		dim: 2,
		// generated, one reference; the text embedding comes from
		// EncodeText, which returns [1,0] for a single input.
		imageQueue: [][]float32{{1, 0}, {0.8, 0.6}},
	}
	svc := NewConsistencyService(newTestEmbedService(oracle))

	verdict, _, err := svc.Check(
		context.Background(),
		testImagePayload(t, color.RGBA{R: 255, A: 255}),
		[]string{testImagePayload(t, color.RGBA{G: 255, A: 255})},
		"a red square",
		0.9,
	)
	require.NoError(t, err)
	require.NotNil(t, verdict.TextSimilarity)
	require.InDelta(t, 1.0, *verdict.TextSimilarity, 1e-6)
	// 0.7*0.8 + 0.3*1.0
	require.InDelta(t, 0.86, verdict.Score, 1e-6)
	require.False(t, verdict.Passed)
}

func TestConsistencyCheckThresholdValidation(t *testing.T) {
	svc := NewConsistencyService(newTestEmbedService(&stubOracle{dim: 2}))
	_, _, err := svc.Check(context.Background(), "x", nil, "", 1.5)
	require.ErrorIs(t, err, appErr.ErrValidation)
}

func TestConsistencyCheckAbortsOnOracleFailure(t *testing.T) {
	oracle := &stubOracle{dim: 2, imageErr: fmt.Errorf("model unavailable")}
	svc := NewConsistencyService(newTestEmbedService(oracle))

	_, _, err := svc.Check(
		context.Background(),
		testImagePayload(t, color.RGBA{R: 255, A: 255}),
		nil,
		"",
		0.5,
	)
	require.ErrorIs(t, err, appErr.ErrEncoding)
}
