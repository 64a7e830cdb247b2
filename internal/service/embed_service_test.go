package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clipserve/clipserve/internal/cache"
	appErr "github.com/clipserve/clipserve/internal/pkg/errors"
)

type stubOracle struct {
	dim        int
	textErr    error
	imageErr   error
	imageQueue [][]float32
	textCalls  int
	imageCalls int
}

func (s *stubOracle) Name() string {
	return "stub"
}

func (s *stubOracle) Dimension() int {
	return s.dim
}

func (s *stubOracle) EncodeText(ctx context.Context, texts []string) ([][]float32, error) {
	s.textCalls++
	if s.textErr != nil {
		return nil, s.textErr
	}
	out := make([][]float32, 0, len(texts))
	for i := range texts {
		// Unit vectors that differ per input position.
		out = append(out, []float32{float32(i + 1), 0})
	}
	return out, nil
}

func (s *stubOracle) EncodeImage(ctx context.Context, img image.Image) ([]float32, error) {
	s.imageCalls++
	if s.imageErr != nil {
		return nil, s.imageErr
	}
	if len(s.imageQueue) > 0 {
		next := s.imageQueue[0]
		s.imageQueue = s.imageQueue[1:]
		return next, nil
	}
	return []float32{1, 0}, nil
}

func testImagePayload(t *testing.T, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestEmbedService(oracle *stubOracle) *EmbedService {
	tiered := cache.NewTieredCache(nil, 100, time.Hour, nil)
	return NewEmbedService(oracle, tiered, time.Hour, nil)
}

func TestEncodeTextSingleUsesCache(t *testing.T) {
	oracle := &stubOracle{dim: 2}
	svc := newTestEmbedService(oracle)

	first, err := svc.EncodeText(context.Background(), []string{"hello"}, "")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.EncodeText(context.Background(), []string{"hello"}, "")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, oracle.textCalls)
}

func TestEncodeTextMultiBypassesCache(t *testing.T) {
	oracle := &stubOracle{dim: 2}
	svc := newTestEmbedService(oracle)

	_, err := svc.EncodeText(context.Background(), []string{"a", "b"}, "")
	require.NoError(t, err)
	_, err = svc.EncodeText(context.Background(), []string{"a", "b"}, "")
	require.NoError(t, err)
	require.Equal(t, 2, oracle.textCalls)
}

func TestEncodeTextRejectsEmptyInput(t *testing.T) {
	svc := newTestEmbedService(&stubOracle{dim: 2})

	_, err := svc.EncodeText(context.Background(), nil, "")
	require.ErrorIs(t, err, appErr.ErrValidation)

	_, err = svc.EncodeText(context.Background(), []string{"ok", "  "}, "")
	require.ErrorIs(t, err, appErr.ErrValidation)
}

func TestEncodeTextExplicitCacheKey(t *testing.T) {
	oracle := &stubOracle{dim: 2}
	svc := newTestEmbedService(oracle)

	_, err := svc.EncodeText(context.Background(), []string{"hello"}, "custom:key")
	require.NoError(t, err)
	_, err = svc.EncodeText(context.Background(), []string{"completely different"}, "custom:key")
	require.NoError(t, err)
	require.Equal(t, 1, oracle.textCalls)
}

func TestEncodeImageCachesByContent(t *testing.T) {
	oracle := &stubOracle{dim: 2}
	svc := newTestEmbedService(oracle)
	payload := testImagePayload(t, color.RGBA{R: 255, A: 255})

	first, err := svc.EncodeImage(context.Background(), payload, "")
	require.NoError(t, err)
	second, err := svc.EncodeImage(context.Background(), payload, "")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, oracle.imageCalls)
}

func TestEncodeImageDataURLPrefix(t *testing.T) {
	oracle := &stubOracle{dim: 2}
	svc := newTestEmbedService(oracle)
	payload := "data:image/png;base64," + testImagePayload(t, color.RGBA{G: 255, A: 255})

	_, err := svc.EncodeImage(context.Background(), payload, "")
	require.NoError(t, err)
}

func TestEncodeImageRejectsGarbage(t *testing.T) {
	svc := newTestEmbedService(&stubOracle{dim: 2})

	_, err := svc.EncodeImage(context.Background(), "", "")
	require.ErrorIs(t, err, appErr.ErrValidation)

	_, err = svc.EncodeImage(context.Background(), "!!!not-base64!!!", "")
	require.ErrorIs(t, err, appErr.ErrValidation)

	garbage := base64.StdEncoding.EncodeToString([]byte("not an image"))
	_, err = svc.EncodeImage(context.Background(), garbage, "")
	require.ErrorIs(t, err, appErr.ErrValidation)
}

func TestEncodeImageOracleFailureIsEncodingError(t *testing.T) {
	oracle := &stubOracle{dim: 2, imageErr: fmt.Errorf("model exploded")}
	svc := newTestEmbedService(oracle)
	payload := testImagePayload(t, color.RGBA{B: 255, A: 255})

	_, err := svc.EncodeImage(context.Background(), payload, "")
	require.ErrorIs(t, err, appErr.ErrEncoding)
}

func TestBatchEncodeTextPreservesOrder(t *testing.T) {
	oracle := &stubOracle{dim: 2}
	svc := newTestEmbedService(oracle)

	items := []BatchItem{{Content: "a"}, {Content: "b"}, {Content: "c"}}
	out, err := svc.BatchEncode(context.Background(), items, BatchKindText)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, emb := range out {
		require.Equal(t, []float32{float32(i + 1), 0}, emb)
	}
	require.Equal(t, 1, oracle.textCalls)
}

func TestBatchEncodeImagePreservesOrder(t *testing.T) {
	oracle := &stubOracle{dim: 2, imageQueue: [][]float32{{1, 0}, {0, 1}}}
	svc := newTestEmbedService(oracle)

	items := []BatchItem{
		{Content: testImagePayload(t, color.RGBA{R: 255, A: 255})},
		{Content: testImagePayload(t, color.RGBA{B: 255, A: 255})},
	}
	out, err := svc.BatchEncode(context.Background(), items, BatchKindImage)
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)
	require.Equal(t, 2, oracle.imageCalls)
}

func TestBatchEncodeUnknownKind(t *testing.T) {
	svc := newTestEmbedService(&stubOracle{dim: 2})
	_, err := svc.BatchEncode(context.Background(), []BatchItem{{Content: "x"}}, "audio")
	require.ErrorIs(t, err, appErr.ErrValidation)
}

func TestBatchEncodeLimits(t *testing.T) {
	svc := newTestEmbedService(&stubOracle{dim: 2})

	_, err := svc.BatchEncode(context.Background(), nil, BatchKindText)
	require.ErrorIs(t, err, appErr.ErrValidation)

	tooMany := make([]BatchItem, MaxBatchItems+1)
	for i := range tooMany {
		tooMany[i] = BatchItem{Content: "x"}
	}
	_, err = svc.BatchEncode(context.Background(), tooMany, BatchKindText)
	require.ErrorIs(t, err, appErr.ErrValidation)
}
