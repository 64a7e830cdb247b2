// Package oracle abstracts the external embedding backend. The cache and
// scoring core only ever talk to the Oracle interface; backends register a
// factory and are selected by configuration, so swapping the model server
// never duplicates any cache or scoring logic.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strings"
)

// Oracle converts raw content into embeddings. EncodeText is batch-capable
// and returns one vector per input in the same order. Both methods return
// unit-normalized vectors.
type Oracle interface {
	Name() string
	Dimension() int
	EncodeText(ctx context.Context, texts []string) ([][]float32, error)
	EncodeImage(ctx context.Context, img image.Image) ([]float32, error)
}

type Factory func(args interface{}, dimension int) (Oracle, error)

var registry = map[string]Factory{}

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

// New builds the backend registered under name. args is the raw provider
// config from the config file, decoded by each factory.
func New(name string, args interface{}, dimension int) (Oracle, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("oracle.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported oracle provider: %s", name)
	}
	return factory(args, dimension)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("oracle provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode oracle provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode oracle provider config: %w", err)
	}
	return nil
}
