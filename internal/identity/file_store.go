package identity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	tokenFile   = "token"
	profileFile = "profile.json"
)

// FileStore keeps credentials as files in a private directory, the CLI's
// equivalent of browser local storage.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) LoadToken(_ context.Context) (string, error) {
	data, err := s.read(tokenFile)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

func (s *FileStore) SaveToken(_ context.Context, token string) error {
	return s.write(tokenFile, []byte(token))
}

func (s *FileStore) ClearToken(_ context.Context) error {
	return s.remove(tokenFile)
}

func (s *FileStore) LoadProfile(_ context.Context) ([]byte, error) {
	return s.read(profileFile)
}

func (s *FileStore) SaveProfile(_ context.Context, profile []byte) error {
	return s.write(profileFile, profile)
}

func (s *FileStore) ClearProfile(_ context.Context) error {
	return s.remove(profileFile)
}

func (s *FileStore) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("identity: read %s: %w", name, err)
	}
	return data, nil
}

func (s *FileStore) write(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("identity: create credential dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o600); err != nil {
		return fmt.Errorf("identity: write %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("identity: remove %s: %w", name, err)
	}
	return nil
}
