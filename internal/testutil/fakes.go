package testutil

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/recipebox/webapp/internal/storage"
	"github.com/recipebox/webapp/types"
)

// MemImages is an in-memory object store that records released keys.
type MemImages struct {
	mu       sync.Mutex
	objects  map[string][]byte
	released []string
	PutErr   error
}

func NewMemImages() *MemImages {
	return &MemImages{objects: make(map[string][]byte)}
}

func (m *MemImages) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *MemImages) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Release deletes key right away and remembers it.
func (m *MemImages) Release(ctx context.Context, _ int, key string) error {
	m.mu.Lock()
	m.released = append(m.released, key)
	m.mu.Unlock()
	return m.Delete(ctx, key)
}

// Keys returns the stored keys in sorted order.
func (m *MemImages) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Released returns the keys passed to Release, in call order.
func (m *MemImages) Released() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.released...)
}

// StubNutrition returns a fixed result or error.
type StubNutrition struct {
	Result *types.Nutrition
	Err    error
	Calls  int
}

func (s *StubNutrition) Lookup(_ context.Context, _ string, _ []types.Ingredient) (*types.Nutrition, error) {
	s.Calls++
	return s.Result, s.Err
}
