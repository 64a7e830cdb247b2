package cache

import (
	"encoding/binary"
	"fmt"
	"math"

	appErr "github.com/clipserve/clipserve/internal/pkg/errors"
)

// EncodeVector serializes a vector as its float32 components in little-endian
// byte order, 4 bytes per component.
func EncodeVector(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeVector reverses EncodeVector. The dimension is reconstructed from the
// byte length; a length that is not a multiple of 4 means the stored blob is
// corrupt.
func DecodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: bad vector blob length %d", appErr.ErrCache, len(data))
	}
	values := make([]float32, len(data)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return values, nil
}
