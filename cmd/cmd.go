// Package cmd provides CLI command implementations for socialgraph.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/Benny93/socialgraph-go/internal/graph"
	"github.com/Benny93/socialgraph-go/internal/ingestion"
	"github.com/Benny93/socialgraph-go/internal/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Env is passed to every command's Run method.
type Env struct {
	// Dir holds the badger snapshot and meta.json.
	Dir    string
	Logger *log.Logger
	Out    io.Writer
}

// CLI is the root Kong command structure.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`
	Verbose bool             `short:"v" help:"Enable verbose output"`
	Quiet   bool             `short:"q" help:"Suppress non-essential output"`
	Dir     string           `short:"d" default:".socialgraph" env:"SOCIALGRAPH_DIR" type:"path" help:"Directory holding the stored graph"`

	// Commands
	User        UserCmd        `cmd:"" help:"Manage users"`
	Post        PostCmd        `cmd:"" help:"Publish a post as a user"`
	Follow      FollowCmd      `cmd:"" help:"Make a user follow another"`
	Unfollow    UnfollowCmd    `cmd:"" help:"Make a user stop following another"`
	IsFollowing IsFollowingCmd `cmd:"" help:"Check whether a user follows another"`
	Followers   FollowersCmd   `cmd:"" help:"List the users following a user"`
	Following   FollowingCmd   `cmd:"" help:"List the users a user follows"`
	Friends     FriendsCmd     `cmd:"" help:"List users that follow each other"`
	MaxDistance MaxDistanceCmd `cmd:"" help:"Greatest follow distance reachable from a user"`
	MinDistance MinDistanceCmd `cmd:"" help:"Shortest follow distance between two users"`
	Layer       LayerCmd       `cmd:"" help:"List users exactly n follow steps away"`
	Feed        FeedCmd        `cmd:"" help:"Show a user's feed"`
	Communities CommunitiesCmd `cmd:"" help:"List groups of users connected by friendships"`
	Search      SearchCmd      `cmd:"" help:"Find users by words in their name or posts"`
	Seed        SeedCmd        `cmd:"" help:"Load users, follows and posts from a TOML seed file"`
	Watch       WatchCmd       `cmd:"" help:"Watch a seed file and reload on change"`
	MCP         MCPCmd         `cmd:"" help:"Start MCP server (stdio transport)"`
	Status      StatusCmd      `cmd:"" help:"Show stored graph status"`
	Clean       CleanCmd       `cmd:"" help:"Delete the stored graph"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("socialgraph"),
		kong.Description("Social follow graph with feeds and distance queries"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	env := &Env{
		Dir:    c.Dir,
		Logger: newLogger(os.Stderr, logLevel(c.Verbose, c.Quiet)),
		Out:    os.Stdout,
	}
	return kongCtx.Run(env)
}

// Meta is the content of meta.json, rewritten after every save.
type Meta struct {
	Version     string                    `json:"version"`
	Users       int                       `json:"users"`
	Edges       int                       `json:"edges"`
	Communities int                       `json:"communities"`
	Seed        *ingestion.PipelineResult `json:"seed,omitempty"`
	UpdatedAt   string                    `json:"updated_at"`
}

func (e *Env) dbPath() string {
	return filepath.Join(e.Dir, "badger")
}

func (e *Env) metaPath() string {
	return filepath.Join(e.Dir, "meta.json")
}

// openStore opens the badger snapshot. Read-only opens fail when nothing
// has been stored yet.
func (e *Env) openStore(readOnly bool) (*storage.BadgerBackend, error) {
	dbPath := e.dbPath()
	if readOnly {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("no graph found at %s. Run 'socialgraph user add' or 'socialgraph seed' first", e.Dir)
		}
	} else if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dbPath, err)
	}

	store := storage.NewBadgerBackend()
	if err := store.Initialize(dbPath, readOnly); err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// readGraph loads the stored graph for a query.
func (e *Env) readGraph(ctx context.Context) (*graph.SocialGraph, error) {
	store, err := e.openStore(true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	g, err := store.LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	e.Logger.Debug("Loaded graph", "users", g.UserCount(), "edges", g.EdgeCount())
	return g, nil
}

// updateGraph loads the stored graph, applies fn and stores the result.
// Nothing is written when fn fails.
func (e *Env) updateGraph(ctx context.Context, fn func(g *graph.SocialGraph) error) error {
	store, err := e.openStore(false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	g, err := store.LoadGraph(ctx)
	if err != nil {
		return fmt.Errorf("loading graph: %w", err)
	}

	if err := fn(g); err != nil {
		return err
	}

	if err := store.BulkLoad(ctx, g); err != nil {
		return fmt.Errorf("storing graph: %w", err)
	}
	e.Logger.Debug("Stored graph", "users", g.UserCount(), "edges", g.EdgeCount())

	return e.writeMeta(g, nil)
}

func (e *Env) writeMeta(g *graph.SocialGraph, seed *ingestion.PipelineResult) error {
	meta := Meta{
		Version:     Version,
		Users:       g.UserCount(),
		Edges:       g.EdgeCount(),
		Communities: len(ingestion.DetectCommunities(g)),
		Seed:        seed,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	metaJSON, _ := json.MarshalIndent(meta, "", "  ")
	if err := os.WriteFile(e.metaPath(), metaJSON, 0o644); err != nil {
		return fmt.Errorf("writing meta.json: %w", err)
	}
	return nil
}

func (e *Env) success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(e.Out, format+"\n", args...)
}

func (e *Env) printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}

// printUsers prints one "name  id" line per user, or none when empty.
func (e *Env) printUsers(g *graph.SocialGraph, ids []uuid.UUID, none string) {
	if len(ids) == 0 {
		e.printf("%s\n", none)
		return
	}
	for _, id := range ids {
		e.printf("  %-24s %s\n", displayName(g, id), id)
	}
}

func displayName(g *graph.SocialGraph, id uuid.UUID) string {
	u, err := g.GetUser(id)
	if err != nil {
		return id.String()
	}
	return u.Name()
}

// lookupAll resolves every reference or returns the first failure.
func lookupAll(g *graph.SocialGraph, refs ...string) ([]*graph.User, error) {
	users := make([]*graph.User, len(refs))
	for i, ref := range refs {
		u, err := g.Lookup(ref)
		if err != nil {
			return nil, err
		}
		users[i] = u
	}
	return users, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
