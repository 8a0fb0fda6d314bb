package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/artfolio/mediakeeper/internal/common"
	"github.com/artfolio/mediakeeper/internal/filex"
)

// LocalStore keeps assets on the local filesystem under a public root
// directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed and returns a store
// rooted there.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("asset root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// resolve maps a logical path onto the root, refusing to escape it.
func (s *LocalStore) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean("/" + strings.TrimPrefix(relPath, "/"))
	full := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: path escapes asset root: %s", common.ErrorValidation, relPath)
	}
	return full, nil
}

func (s *LocalStore) Exists(ctx context.Context, relPath string) bool {
	full, err := s.resolve(relPath)
	if err != nil {
		return false
	}
	fi, err := os.Stat(full)
	if err != nil {
		return false
	}
	return fi.Mode().IsRegular()
}

func (s *LocalStore) Read(ctx context.Context, relPath string) ([]byte, error) {
	full, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", common.ErrorNotFound, relPath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrorIO, relPath, err)
	}
	return data, nil
}

func (s *LocalStore) Write(ctx context.Context, relPath string, data []byte) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o770); err != nil {
		return fmt.Errorf("%w: mkdir for %s: %w", common.ErrorIO, relPath, err)
	}
	if err := os.WriteFile(full, data, 0o660); err != nil {
		return fmt.Errorf("%w: write %s: %w", common.ErrorIO, relPath, err)
	}
	return nil
}

func (s *LocalStore) Remove(ctx context.Context, relPath string) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %w", common.ErrorIO, relPath, err)
	}
	return nil
}
