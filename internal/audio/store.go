package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/snonux/worldly/internal/errs"
)

// Store persists audio artifacts by base name.
type Store interface {
	Has(ctx context.Context, name string) (bool, error)
	Put(ctx context.Context, name string, data []byte) error
	PathFor(name string) string
}

// FileStore keeps artifacts as files in a single directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// the first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// PathFor returns the artifact path for name.
func (s *FileStore) PathFor(name string) string {
	return filepath.Join(s.dir, name)
}

// Has reports whether a non-empty artifact called name exists.
func (s *FileStore) Has(_ context.Context, name string) (bool, error) {
	info, err := os.Stat(s.PathFor(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errs.New(errs.ErrIO, "stat artifact "+name, err)
	}
	return info.Mode().IsRegular() && info.Size() > 0, nil
}

// Put writes data to a temporary file and renames it into place.
func (s *FileStore) Put(_ context.Context, name string, data []byte) error {
	op := "write artifact " + name
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errs.New(errs.ErrIO, op, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return errs.New(errs.ErrIO, op, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.New(errs.ErrIO, op, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.New(errs.ErrIO, op, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errs.New(errs.ErrIO, op, err)
	}
	if err := os.Rename(tmp.Name(), s.PathFor(name)); err != nil {
		return errs.New(errs.ErrIO, op, err)
	}
	return nil
}

// MemoryStore keeps artifacts in memory. PathFor still yields paths below
// dir so callers see the same names as with a FileStore.
type MemoryStore struct {
	dir string

	mu    sync.Mutex
	files map[string][]byte
	puts  int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(dir string) *MemoryStore {
	return &MemoryStore{dir: dir, files: make(map[string][]byte)}
}

func (s *MemoryStore) PathFor(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *MemoryStore) Has(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[name]
	return ok, nil
}

func (s *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = append([]byte(nil), data...)
	s.puts++
	return nil
}

// Get returns the stored bytes for name.
func (s *MemoryStore) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

// Puts returns the number of writes so far.
func (s *MemoryStore) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
