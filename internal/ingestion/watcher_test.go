package ingestion

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/socialgraph-go/internal/graph"
	"github.com/Benny93/socialgraph-go/internal/storage"
)

func TestWatchSeed(t *testing.T) {
	t.Parallel()

	t.Run("RebuildsOnChange", func(t *testing.T) {
		dir := t.TempDir()
		path := writeSeed(t, dir, "[[users]]\nhandle = \"solo\"\n")
		store := storage.NewMemoryBackend()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		rebuilt := make(chan *PipelineResult, 4)
		done := make(chan error, 1)
		go func() {
			done <- WatchSeed(ctx, path, store, WatchOptions{
				Debounce: 50 * time.Millisecond,
				Full:     true,
				Logger:   log.New(io.Discard),
				OnRebuild: func(_ *graph.SocialGraph, r *PipelineResult, err error) {
					if err != nil {
						return
					}
					select {
					case rebuilt <- r:
					default:
					}
				},
			})
		}()

		// Give the watcher time to register before writing.
		time.Sleep(200 * time.Millisecond)
		require.NoError(t, os.WriteFile(path, []byte(pythonSeed), 0o644))

		select {
		case r := <-rebuilt:
			assert.Equal(t, 3, r.Users)
			assert.Equal(t, 3, store.UserCount())
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not rebuild after seed change")
		}

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		store := storage.NewMemoryBackend()

		err := WatchSeed(context.Background(), "/nonexistent/dir/seed.toml", store, WatchOptions{})

		assert.Error(t, err)
	})
}
