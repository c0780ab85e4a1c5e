package ingestion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/Benny93/socialgraph-go/internal/graph"
	"github.com/Benny93/socialgraph-go/internal/storage"
)

// DefaultDebounce is how long the watcher waits after the last change to the
// seed file before rebuilding.
const DefaultDebounce = 2 * time.Second

// WatchOptions configures WatchSeed.
type WatchOptions struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// Full rebuilds the stored graph from the seed alone on every change.
	Full bool

	// Logger defaults to log.Default().
	Logger *log.Logger

	// OnRebuild, if set, is called after every pipeline run with the
	// rebuilt graph, or with the error that stopped it.
	OnRebuild func(*graph.SocialGraph, *PipelineResult, error)
}

// WatchSeed reruns the pipeline whenever seedPath changes.
// Blocks until the context is cancelled.
//
// The directory holding the seed is watched rather than the file itself, so
// editors that save by writing a new file and renaming it are picked up.
func WatchSeed(ctx context.Context, seedPath string, store storage.Backend, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	absPath, err := filepath.Abs(seedPath)
	if err != nil {
		return fmt.Errorf("resolving seed path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(absPath), err)
	}

	batchTimer := time.NewTimer(opts.Debounce)
	batchTimer.Stop() // Don't start yet

	logger.Info("Watching seed for changes", "path", absPath)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Seed changed", "op", event.Op.String())
			batchTimer.Reset(opts.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watch error", "err", err)

		case <-batchTimer.C:
			g, result, err := RunPipeline(ctx, absPath, store, opts.Full, nil)
			switch {
			case errors.Is(err, context.Canceled):
				return err
			case err != nil:
				logger.Error("Rebuild failed", "err", err)
			default:
				logger.Info("Rebuilt graph",
					"users", result.Users,
					"edges", result.Edges,
					"created", result.Seed.UsersCreated)
			}
			if opts.OnRebuild != nil {
				opts.OnRebuild(g, result, err)
			}
		}
	}
}
