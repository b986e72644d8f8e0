package credstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"taskdeck/internal/service"
)

// FileStore keeps the session record in a JSON file with mode 0600.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (service.Session, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return service.Session{}, false, nil
	}
	if err != nil {
		return service.Session{}, false, err
	}
	sess, err := decode(data)
	if err != nil {
		return service.Session{}, false, err
	}
	return sess, true, nil
}

// Save replaces the file via a temp file and rename.
func (s *FileStore) Save(ctx context.Context, sess service.Session) error {
	data, err := encode(sess)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Remove(ctx context.Context) error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) Close() error { return nil }
