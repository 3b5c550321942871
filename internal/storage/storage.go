// Package storage keeps uploaded attachments on the local filesystem, one
// directory per task.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotExist    = errors.New("stored file does not exist")
	ErrOutsideRoot = errors.New("path escapes storage root")
)

type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir %q: %w", abs, err)
	}
	return &DiskStore{root: abs}, nil
}

func (s *DiskStore) Root() string {
	return s.root
}

// Save writes r to <root>/<taskID>/<name> and returns the path relative to
// the root along with the number of bytes written.
func (s *DiskStore) Save(taskID, name string, r io.Reader) (string, int64, error) {
	rel := filepath.Join(taskID, name)
	full, err := s.resolve(rel)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("create task dir: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", rel, err)
	}
	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(full)
		if copyErr != nil {
			return "", 0, fmt.Errorf("write %s: %w", rel, copyErr)
		}
		return "", 0, fmt.Errorf("close %s: %w", rel, closeErr)
	}
	return rel, n, nil
}

// Open returns the file at rel. The caller closes it.
func (s *DiskStore) Open(rel string) (*os.File, os.FileInfo, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotExist
		}
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, ErrNotExist
	}
	return f, info, nil
}

func (s *DiskStore) Remove(rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotExist
		}
		return err
	}
	return nil
}

// RemoveTaskDir deletes the directory holding all attachments of taskID.
func (s *DiskStore) RemoveTaskDir(taskID string) error {
	full, err := s.resolve(taskID)
	if err != nil {
		return err
	}
	if full == s.root {
		return ErrOutsideRoot
	}
	return os.RemoveAll(full)
}

func (s *DiskStore) resolve(rel string) (string, error) {
	full := filepath.Join(s.root, rel)
	inside, err := filepath.Rel(s.root, full)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}
