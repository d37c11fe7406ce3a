// Package artifact persists the trained model at the end of a session.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ModelName is the fixed name of the final model artifact. Each run
// overwrites it.
const ModelName = "trained_model.cbor"

var (
	ErrInvalidName = errors.New("invalid artifact name")
	ErrUnsupported = errors.New("unsupported artifact store")
)

type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
}

type Config struct {
	Type string   `toml:"type" env:"TYPE" envDefault:"file"`
	Dir  string   `toml:"dir"  env:"DIR"  envDefault:"."`
	S3   S3Config `toml:"s3"   envPrefix:"S3_"`
}

func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Type {
	case "file", "":
		return NewFileStore(cfg.Dir)
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, cfg.Type)
	}
}

// sanitizeName strips path separators, parent references and control
// characters so a name always stays inside the store.
func sanitizeName(name string) (string, error) {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 32 || r == 127:
			continue
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}

	clean := strings.ReplaceAll(b.String(), "..", "")
	clean = strings.Trim(clean, ".")
	if clean == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return clean, nil
}
