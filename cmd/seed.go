package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Benny93/socialgraph-go/internal/graph"
	"github.com/Benny93/socialgraph-go/internal/ingestion"
	"github.com/Benny93/socialgraph-go/mcp"
)

// SeedCmd applies a seed file to the stored graph.
type SeedCmd struct {
	File string `arg:"" type:"existingfile" help:"TOML seed file"`
	Full bool   `help:"Replace the stored graph instead of merging into it"`
}

// Run executes the seed command.
func (c *SeedCmd) Run(env *Env) error {
	store, err := env.openStore(false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	progress := func(phase string, pct float64) {
		if pct == 0 {
			env.Logger.Debug(phase)
		}
	}

	g, result, err := ingestion.RunPipeline(context.Background(), c.File, store, c.Full, progress)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	if err := env.writeMeta(g, result); err != nil {
		return err
	}

	env.success("✓ Seed applied")
	env.printf("  Users:        %d (%d new)\n", result.Users, result.Seed.UsersCreated)
	env.printf("  Follows:      %d\n", result.Edges)
	env.printf("  Posts:        %d\n", result.Seed.Posts)
	env.printf("  Communities:  %d\n", result.Communities)
	env.printf("  Duration:     %.2fs\n", result.DurationSecs)
	return nil
}

// WatchCmd keeps the stored graph in sync with a seed file.
type WatchCmd struct {
	File     string        `arg:"" type:"existingfile" help:"TOML seed file"`
	Full     bool          `help:"Rebuild from the seed alone on every change"`
	Debounce time.Duration `default:"2s" help:"Quiet period before rebuilding"`
}

// Run executes the watch command.
func (c *WatchCmd) Run(env *Env) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	store, err := env.openStore(false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	g, result, err := ingestion.RunPipeline(ctx, c.File, store, c.Full, nil)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}
	if err := env.writeMeta(g, result); err != nil {
		return err
	}
	env.success("Loaded %d users, %d follows", result.Users, result.Edges)

	err = ingestion.WatchSeed(ctx, c.File, store, ingestion.WatchOptions{
		Debounce: c.Debounce,
		Full:     c.Full,
		Logger:   env.Logger,
		OnRebuild: func(g *graph.SocialGraph, result *ingestion.PipelineResult, err error) {
			if err != nil {
				return
			}
			if err := env.writeMeta(g, result); err != nil {
				env.Logger.Error("Updating meta.json", "err", err)
			}
		},
	})
	return ignoreCanceled(err)
}

// MCPCmd starts the MCP server.
type MCPCmd struct {
	Watch string `help:"Seed file to watch; the served graph is rebuilt on change"`
}

// Run executes the mcp command.
func (c *MCPCmd) Run(env *Env) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	// Note: No output to stdout - MCP server uses stdio for JSON-RPC only
	if c.Watch == "" {
		g, err := env.readGraph(ctx)
		if err != nil {
			return err
		}
		return ignoreCanceled(mcp.NewServer(g, Version).Run(ctx, os.Stdin, os.Stdout))
	}

	store, err := env.openStore(false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	g, _, err := ingestion.RunPipeline(ctx, c.Watch, store, false, nil)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}
	server := mcp.NewServer(g, Version)

	go func() {
		err := ingestion.WatchSeed(ctx, c.Watch, store, ingestion.WatchOptions{
			Logger: env.Logger,
			OnRebuild: func(g *graph.SocialGraph, _ *ingestion.PipelineResult, err error) {
				if err == nil {
					server.SetGraph(g)
				}
			},
		})
		if ignoreCanceled(err) != nil {
			env.Logger.Error("Watch stopped", "err", err)
		}
	}()

	env.Logger.Info("File watching enabled", "seed", c.Watch)
	return ignoreCanceled(server.Run(ctx, os.Stdin, os.Stdout))
}

// StatusCmd shows the stored graph's status.
type StatusCmd struct{}

// Run executes the status command.
func (c *StatusCmd) Run(env *Env) error {
	metaBytes, err := os.ReadFile(env.metaPath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no graph found at %s. Run 'socialgraph user add' or 'socialgraph seed' first", env.Dir)
		}
		return fmt.Errorf("reading meta.json: %w", err)
	}

	var meta Meta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return fmt.Errorf("parsing meta.json: %w", err)
	}

	env.printf("Graph status for %s\n", env.Dir)
	env.printf("  Version:      %s\n", meta.Version)
	env.printf("  Updated:      %s\n", meta.UpdatedAt)
	env.printf("  Users:        %d\n", meta.Users)
	env.printf("  Follows:      %d\n", meta.Edges)
	env.printf("  Communities:  %d\n", meta.Communities)
	return nil
}

// CleanCmd deletes the stored graph.
type CleanCmd struct {
	Force bool `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run(env *Env) error {
	if _, err := os.Stat(env.Dir); os.IsNotExist(err) {
		return fmt.Errorf("no graph found at %s. Nothing to clean", env.Dir)
	}

	if !c.Force {
		env.printf("Delete stored graph at %s? [y/N] ", env.Dir)
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			env.printf("Aborted\n")
			return nil
		}
	}

	if err := os.RemoveAll(env.Dir); err != nil {
		return fmt.Errorf("deleting graph: %w", err)
	}

	env.success("Deleted %s", env.Dir)
	return nil
}
