package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	appErr "github.com/clipserve/clipserve/internal/pkg/errors"
)

// decodeImagePayload turns a base64 payload (with or without a data-URL
// prefix) into a decoded image plus the raw bytes used for key derivation.
func decodeImagePayload(payload string) (image.Image, []byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, nil, fmt.Errorf("%w: empty image payload", appErr.ErrValidation)
	}
	if strings.HasPrefix(payload, "data:image") {
		if idx := strings.Index(payload, ","); idx >= 0 {
			payload = payload[idx+1:]
		}
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid base64 image: %v", appErr.ErrValidation, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: undecodable image: %v", appErr.ErrValidation, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, nil, fmt.Errorf("%w: zero-area image", appErr.ErrValidation)
	}
	return img, raw, nil
}
