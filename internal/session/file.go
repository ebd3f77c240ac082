package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend persists the token as the whole content of a single file.
// Only the "token" key is supported.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend writing to path, e.g. ~/.trashpanel/token.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the token file location.
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Get(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (b *FileBackend) Put(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(b.path, []byte(value), 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func (b *FileBackend) Delete(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

func checkKey(key string) error {
	if key != tokenKey {
		return fmt.Errorf("file backend: unsupported key %q", key)
	}
	return nil
}
