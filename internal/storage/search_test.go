package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"Empty", "", nil},
		{"Words", "Always look", []string{"always", "look"}},
		{"Punctuation", "Stop that, it's silly!", []string{"stop", "that", "it", "s", "silly"}},
		{"Unicode", "Größe über", []string{"größe", "über"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tokenize(tt.text))
		})
	}
}

func TestQueryTokens(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"life", "of"}, queryTokens("of LIFE, of life"))
}

func TestRankResults(t *testing.T) {
	t.Parallel()

	results := []SearchResult{
		{Name: "b", Score: 1},
		{Name: "a", Score: 1},
		{Name: "c", Score: 3},
	}

	ranked := rankResults(results, 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, "c", ranked[0].Name)
	assert.Equal(t, "a", ranked[1].Name)
}

func TestBackend_Search(t *testing.T) {
	t.Parallel()

	backends := map[string]func(t *testing.T) Backend{
		"Memory": func(t *testing.T) Backend {
			return NewMemoryBackend()
		},
		"Badger": func(t *testing.T) Backend {
			b := NewBadgerBackend()
			require.NoError(t, b.Initialize(filepath.Join(t.TempDir(), "badger"), false))
			t.Cleanup(func() { _ = b.Close() })
			return b
		},
	}

	ctx := context.Background()

	for name, newBackend := range backends {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := newBackend(t)
			g, users := buildTestGraph(t)
			require.NoError(t, store.BulkLoad(ctx, g))

			t.Run("ByPost", func(t *testing.T) {
				results, err := store.Search(ctx, "silly", 10)

				require.NoError(t, err)
				require.Len(t, results, 1)
				assert.Equal(t, users["graham"].ID(), results[0].UserID)
				assert.Equal(t, "Stop that, it's silly", results[0].Snippet)
			})

			t.Run("ByName", func(t *testing.T) {
				results, err := store.Search(ctx, "eric", 10)

				require.NoError(t, err)
				require.Len(t, results, 1)
				assert.Equal(t, "Eric Idle", results[0].Name)
				assert.Equal(t, float64(nameWeight), results[0].Score)
				assert.Empty(t, results[0].Snippet)
			})

			t.Run("Ranked", func(t *testing.T) {
				results, err := store.Search(ctx, "life terry", 10)

				require.NoError(t, err)
				require.Len(t, results, 2)
				assert.Equal(t, "Terry Gilliam", results[0].Name)
				assert.Equal(t, "Eric Idle", results[1].Name)
				assert.Equal(t, "of life", results[1].Snippet)
			})

			t.Run("NoMatch", func(t *testing.T) {
				results, err := store.Search(ctx, "parrot", 10)

				require.NoError(t, err)
				assert.Empty(t, results)
			})

			t.Run("EmptyQuery", func(t *testing.T) {
				results, err := store.Search(ctx, "  ", 10)

				require.NoError(t, err)
				assert.Empty(t, results)
			})

			t.Run("ReplacedOnBulkLoad", func(t *testing.T) {
				users["graham"].AddPost("a parrot")
				require.NoError(t, store.BulkLoad(ctx, g))

				results, err := store.Search(ctx, "parrot", 10)

				require.NoError(t, err)
				require.Len(t, results, 1)
				assert.Equal(t, users["graham"].ID(), results[0].UserID)
			})
		})
	}
}
