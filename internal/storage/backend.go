// Package storage provides snapshot storage backends for socialgraph.
//
// A backend persists a complete copy of a SocialGraph (users, their posts and
// every follow edge) and rebuilds an equivalent graph on demand. The graph
// package itself never touches storage; the CLI and MCP server load a graph,
// work on it in memory, and write it back.
package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/Benny93/socialgraph-go/internal/graph"
)

// UserRecord is the stored form of a user.
type UserRecord struct {
	// ID is the user's identifier.
	ID uuid.UUID `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Posts holds the user's posts, oldest first.
	Posts []graph.Post `json:"posts"`
}

// EdgeRecord is the stored form of a follow edge.
type EdgeRecord struct {
	Follower uuid.UUID `json:"follower"`
	Followee uuid.UUID `json:"followee"`
}

// Backend defines the interface for snapshot storage implementations.
//
// Implementations must be thread-safe and support concurrent access.
type Backend interface {
	// Lifecycle methods

	// Initialize opens or creates the storage backend at the given path.
	// If readOnly is true, the backend is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the backend.
	Close() error

	// Snapshot operations

	// BulkLoad replaces the entire store with the contents of the graph.
	BulkLoad(ctx context.Context, g *graph.SocialGraph) error

	// LoadGraph rebuilds a graph from the stored snapshot. An empty store
	// yields an empty graph.
	LoadGraph(ctx context.Context) (*graph.SocialGraph, error)

	// Search

	// Search ranks users whose name or posts contain the query's words.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)

	// Stats

	// UserCount returns the number of stored users.
	UserCount() int

	// EdgeCount returns the number of stored follow edges.
	EdgeCount() int
}

// Snapshot converts a graph into records, users and edges ordered by ID.
func Snapshot(g *graph.SocialGraph) ([]UserRecord, []EdgeRecord, error) {
	users := g.Users()
	userRecs := make([]UserRecord, 0, len(users))
	var edgeRecs []EdgeRecord

	for _, u := range users {
		userRecs = append(userRecs, UserRecord{
			ID:    u.ID(),
			Name:  u.Name(),
			Posts: slices.Collect(u.Posts()),
		})

		following, err := g.Following(u.ID())
		if err != nil {
			return nil, nil, fmt.Errorf("reading followees of %s: %w", u.ID(), err)
		}
		for _, followee := range following {
			edgeRecs = append(edgeRecs, EdgeRecord{Follower: u.ID(), Followee: followee})
		}
	}

	return userRecs, edgeRecs, nil
}

// Restore builds a graph from records. Every edge must reference users
// present in users.
func Restore(users []UserRecord, edges []EdgeRecord) (*graph.SocialGraph, error) {
	g := graph.NewSocialGraph()

	for _, rec := range users {
		if err := g.AddUser(graph.RestoreUser(rec.ID, rec.Name, rec.Posts)); err != nil {
			return nil, fmt.Errorf("restoring user: %w", err)
		}
	}

	for _, e := range edges {
		if err := g.Follow(e.Follower, e.Followee); err != nil {
			return nil, fmt.Errorf("restoring edge %s -> %s: %w", e.Follower, e.Followee, err)
		}
	}

	return g, nil
}
