package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileBlobStore keeps the board blob in a single file. Writes go to a
// temporary file that is renamed over the target while holding an
// exclusive lock on "<path>.lock".
type FileBlobStore struct {
	path string
}

// NewFileBlobStore creates a store writing to path.
func NewFileBlobStore(path string) *FileBlobStore {
	return &FileBlobStore{path: path}
}

// Path returns the file backing the store.
func (s *FileBlobStore) Path() string { return s.path }

func (s *FileBlobStore) lockPath() string { return s.path + ".lock" }

// Load returns the stored blob, or nil when the file does not exist.
func (s *FileBlobStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading board file: %w", err)
	}
	return data, nil
}

// Save replaces the stored blob.
func (s *FileBlobStore) Save(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating board directory: %w", err)
	}

	unlock, err := lockFile(s.lockPath())
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp board file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp board file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp board file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing board file: %w", err)
	}
	return nil
}

// Clear removes the stored blob. Clearing an empty store is not an error.
func (s *FileBlobStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing board file: %w", err)
	}
	_ = os.Remove(s.lockPath())
	return nil
}
