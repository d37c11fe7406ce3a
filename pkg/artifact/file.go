package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	pkgerrors "github.com/absmach/flclient/pkg/errors"
)

type FileStore struct {
	dir string
	mu  sync.RWMutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

// Save writes data atomically; readers never observe a partial artifact.
func (fs *FileStore) Save(_ context.Context, name string, data []byte) error {
	clean, err := sanitizeName(name)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	tmp, err := os.CreateTemp(fs.dir, clean+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()

		return fmt.Errorf("failed to write artifact file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write artifact file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(fs.dir, clean)); err != nil {
		return fmt.Errorf("failed to write artifact file: %w", err)
	}

	return nil
}

func (fs *FileStore) Load(_ context.Context, name string) ([]byte, error) {
	clean, err := sanitizeName(name)
	if err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(fs.dir, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", pkgerrors.ErrNotFound, clean)
		}

		return nil, fmt.Errorf("failed to read artifact file: %w", err)
	}

	return data, nil
}
