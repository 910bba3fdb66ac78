package blobstore

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Memory is a Bucket kept in process memory. Objects are stored compressed
// the same way Store writes them.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// Gets counts Get calls per key.
	Gets map[string]int
}

var _ Bucket = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}, Gets: map[string]int{}}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	m.Gets[key]++
	raw, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return nil, errors.Wrap(ErrObjectNotFound, key)
	}
	return Decompress(raw)
}

func (m *Memory) PutGzip(_ context.Context, key string, body []byte) error {
	compressed, err := Compress(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = compressed
	return nil
}

// PutRaw stores body as is, without compression.
func (m *Memory) PutRaw(key string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = body
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *Memory) ListPrefixes(_ context.Context, prefix string) ([]string, error) {
	prefix = withSlash(prefix)
	m.mu.RLock()
	keys := maps.Keys(m.objects)
	m.mu.RUnlock()

	children := lo.FilterMap(keys, func(key string, _ int) (string, bool) {
		if !strings.HasPrefix(key, prefix) {
			return "", false
		}
		rest := strings.TrimPrefix(key, prefix)
		i := strings.Index(rest, "/")
		if i <= 0 {
			return "", false
		}
		return rest[:i], true
	})
	children = lo.Uniq(children)
	slices.Sort(children)
	return children, nil
}

// Keys lists every stored key, sorted.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := maps.Keys(m.objects)
	slices.Sort(keys)
	return keys
}
