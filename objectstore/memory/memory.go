// Package memory provides an in-memory ObjectStore used by tests and
// by the in-memory catalog reference implementation.
package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/icelake-io/iceberg-engine/objectstore"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// Store is a map-backed ObjectStore. It offers true atomic
// PutIfAbsent and CompareAndSwap since all operations take the same
// mutex, making it suitable for exercising the commit protocol's
// conflict-retry path deterministically in tests.
type Store struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, errors.NotFound("object not found").AddContext("path", path)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *Store) Put(_ context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[path] = cp
	return nil
}

func (s *Store) PutIfAbsent(_ context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[path]; exists {
		return errors.Conflict("object already exists").AddContext("path", path)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[path] = cp
	return nil
}

func (s *Store) CompareAndSwap(_ context.Context, path string, expected, newData []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.objects[path]
	if expected == nil {
		if ok {
			return errors.Conflict("object already exists").AddContext("path", path)
		}
	} else {
		if !ok || !bytes.Equal(current, expected) {
			return errors.Conflict("compare-and-swap mismatch").AddContext("path", path)
		}
	}
	cp := make([]byte, len(newData))
	copy(cp, newData)
	s.objects[path] = cp
	return nil
}

func (s *Store) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for path := range s.objects {
		if strings.HasPrefix(path, prefix) {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Capabilities() objectstore.Capabilities {
	return objectstore.Capabilities{AtomicPutIfAbsent: true, AtomicCompareAndSwap: true}
}

var _ objectstore.ObjectStore = (*Store)(nil)
