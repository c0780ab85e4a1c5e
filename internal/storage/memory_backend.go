package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/Benny93/socialgraph-go/internal/graph"
)

// MemoryBackend is an in-memory implementation of Backend for testing.
type MemoryBackend struct {
	mu          sync.RWMutex
	users       []UserRecord
	edges       []EdgeRecord
	initialized bool
}

// NewMemoryBackend creates a new in-memory storage backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Initialize implements Backend.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = nil
	m.edges = nil
	return nil
}

// BulkLoad implements Backend.
func (m *MemoryBackend) BulkLoad(ctx context.Context, g *graph.SocialGraph) error {
	users, edges, err := Snapshot(g)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = users
	m.edges = edges
	return nil
}

// LoadGraph implements Backend.
func (m *MemoryBackend) LoadGraph(ctx context.Context) (*graph.SocialGraph, error) {
	m.mu.RLock()
	users := slices.Clone(m.users)
	edges := slices.Clone(m.edges)
	m.mu.RUnlock()

	return Restore(users, edges)
}

// Search implements Backend.
func (m *MemoryBackend) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	tokens := queryTokens(query)
	results := []SearchResult{}
	if len(tokens) == 0 {
		return results, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.users {
		freq := termFrequencies(rec)
		score := 0
		for _, token := range tokens {
			score += freq[token]
		}
		if score == 0 {
			continue
		}
		results = append(results, SearchResult{
			UserID:  rec.ID,
			Name:    rec.Name,
			Score:   float64(score),
			Snippet: snippet(rec, tokens),
		})
	}

	return rankResults(results, limit), nil
}

// UserCount implements Backend.
func (m *MemoryBackend) UserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// EdgeCount implements Backend.
func (m *MemoryBackend) EdgeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.edges)
}

// IsInitialized returns true if the backend has been initialized.
func (m *MemoryBackend) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}
