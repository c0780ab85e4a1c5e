// Package mcp provides the MCP (Model Context Protocol) server for socialgraph.
//
// The server speaks line-delimited JSON-RPC over stdio and exposes read-only
// queries against a SocialGraph as tools and resources.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Benny93/socialgraph-go/internal/graph"
	"github.com/Benny93/socialgraph-go/internal/ingestion"
	"github.com/Benny93/socialgraph-go/internal/storage"
)

// Server represents the MCP server.
type Server struct {
	mu     sync.RWMutex
	graph  *graph.SocialGraph
	impl   *mcp.Implementation
	server *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server answering queries against g.
func NewServer(g *graph.SocialGraph, version string) *Server {
	s := &Server{
		graph: g,
		impl: &mcp.Implementation{
			Name:    "socialgraph",
			Version: version,
		},
	}
	s.server = mcp.NewServer(s.impl, nil)
	return s
}

// SetGraph swaps the graph queries run against. Used by watch mode after a
// rebuild.
func (s *Server) SetGraph(g *graph.SocialGraph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = g
}

func (s *Server) current() *graph.SocialGraph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph
}

func userSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	userOnly := func() *jsonschema.Schema {
		return &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"user": userSchema("User ID or display name"),
			},
			Required: []string{"user"},
		}
	}

	return []Tool{
		{
			Name:        "social_user",
			Description: "Show a user's profile: name, ID, post count, and follow counts.",
			InputSchema: userOnly(),
		},
		{
			Name:        "social_following",
			Description: "List the users a user follows.",
			InputSchema: userOnly(),
		},
		{
			Name:        "social_followers",
			Description: "List the users following a user.",
			InputSchema: userOnly(),
		},
		{
			Name:        "social_friends",
			Description: "List a user's friends (users that follow each other).",
			InputSchema: userOnly(),
		},
		{
			Name:        "social_distance",
			Description: "Shortest follow path length from one user to another. Without 'to', the greatest distance reachable from 'from'.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"from": userSchema("Starting user ID or display name"),
					"to":   userSchema("Target user ID or display name"),
				},
				Required: []string{"from"},
			},
		},
		{
			Name:        "social_layer",
			Description: "List the users exactly n follow steps away from a user.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"user": userSchema("User ID or display name"),
					"n":    {Type: "integer", Description: "Number of follow steps"},
				},
				Required: []string{"user", "n"},
			},
		},
		{
			Name:        "social_search",
			Description: "Find users by words in their name or posts. Returns ranked users with the newest matching post.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {Type: "string", Description: "Search query text"},
					"limit": {Type: "integer", Description: "Maximum number of results"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "social_feed",
			Description: "Newest posts from the users a user follows.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"user":   userSchema("User ID or display name"),
					"offset": {Type: "integer", Description: "Posts to skip"},
					"limit":  {Type: "integer", Description: "Maximum number of posts"},
				},
				Required: []string{"user"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "social://overview",
			Name:        "Graph Overview",
			Description: "User, follow and community counts",
			MimeType:    "text/plain",
		},
		{
			URI:         "social://schema",
			Name:        "Graph Schema",
			Description: "Description of the social graph model",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	g := s.current()

	switch name {
	case "social_user":
		return handleUser(g, stringArg(args, "user"))
	case "social_following":
		return handleUserList(g, stringArg(args, "user"), "follows", g.Following)
	case "social_followers":
		return handleUserList(g, stringArg(args, "user"), "is followed by", g.Followers)
	case "social_friends":
		return handleUserList(g, stringArg(args, "user"), "is friends with", g.Friends)
	case "social_distance":
		return handleDistance(g, stringArg(args, "from"), stringArg(args, "to"))
	case "social_layer":
		return handleLayer(g, stringArg(args, "user"), intArg(args, "n", 1))
	case "social_search":
		return handleSearch(ctx, g, stringArg(args, "query"), intArg(args, "limit", 20))
	case "social_feed":
		return handleFeed(g, stringArg(args, "user"),
			intArg(args, "offset", graph.DefaultFeedOffset),
			intArg(args, "limit", graph.DefaultFeedLimit))
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "social://overview":
		return getOverview(s.current()), nil
	case "social://schema":
		return getSchema(), nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	encoder := json.NewEncoder(stdout)
	// Note: Do NOT use SetIndent - MCP protocol requires compact JSON (one line per message)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			if err := encoder.Encode(errorResponse(nil, -32700, "Parse error")); err != nil {
				return err
			}
			continue
		}

		// Notifications carry no id and get no response.
		if _, ok := req["id"]; !ok {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "ping":
		return result(id, map[string]any{})
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return result(id, map[string]any{
		"protocolVersion": "2024-11-05",
		"serverInfo": map[string]any{
			"name":    s.impl.Name,
			"version": s.impl.Version,
		},
		"capabilities": map[string]any{
			"tools": map[string]any{
				"listChanged": false,
			},
			"resources": map[string]any{
				"listChanged": false,
			},
		},
	})
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		_ = json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return result(id, map[string]any{"tools": toolList})
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	text, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return result(id, map[string]any{
		"content": []map[string]any{
			{
				"type": "text",
				"text": text,
			},
		},
	})
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return result(id, map[string]any{"resources": resourceList})
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return result(id, map[string]any{
		"contents": []map[string]any{
			{
				"uri":      uri,
				"mimeType": "text/plain",
				"text":     content,
			},
		},
	})
}

// Tool Handlers

func handleUser(g *graph.SocialGraph, ref string) (string, error) {
	u, err := g.Lookup(ref)
	if err != nil {
		return "", err
	}

	following, err := g.Following(u.ID())
	if err != nil {
		return "", err
	}
	followers, err := g.Followers(u.ID())
	if err != nil {
		return "", err
	}
	friends, err := g.Friends(u.ID())
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", u.Name()))
	sb.WriteString(fmt.Sprintf("ID: %s\n", u.ID()))
	sb.WriteString(fmt.Sprintf("Posts: %d\n", u.PostCount()))
	sb.WriteString(fmt.Sprintf("Following: %d\n", len(following)))
	sb.WriteString(fmt.Sprintf("Followers: %d\n", len(followers)))
	sb.WriteString(fmt.Sprintf("Friends: %d\n", len(friends)))
	return sb.String(), nil
}

func handleUserList(g *graph.SocialGraph, ref, verb string, list func(uuid.UUID) ([]uuid.UUID, error)) (string, error) {
	u, err := g.Lookup(ref)
	if err != nil {
		return "", err
	}

	ids, err := list(u.ID())
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return fmt.Sprintf("%s %s nobody", u.Name(), verb), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s %d users:\n\n", u.Name(), verb, len(ids)))
	writeUsers(&sb, g, ids)
	return sb.String(), nil
}

func handleDistance(g *graph.SocialGraph, fromRef, toRef string) (string, error) {
	from, err := g.Lookup(fromRef)
	if err != nil {
		return "", err
	}

	if toRef == "" {
		d, err := g.MaxDistance(from.ID())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Greatest distance reachable from %s: %d", from.Name(), d), nil
	}

	to, err := g.Lookup(toRef)
	if err != nil {
		return "", err
	}

	d, err := g.MinDistance(from.ID(), to.ID())
	if errors.Is(err, graph.ErrUsersNotConnected) {
		return fmt.Sprintf("%s cannot reach %s by following", from.Name(), to.Name()), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Distance from %s to %s: %d", from.Name(), to.Name(), d), nil
}

func handleLayer(g *graph.SocialGraph, ref string, n int) (string, error) {
	u, err := g.Lookup(ref)
	if err != nil {
		return "", err
	}

	ids, err := g.NthLayerFollowings(u.ID(), n)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return fmt.Sprintf("Nobody is exactly %d steps from %s", n, u.Name()), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d users exactly %d steps from %s:\n\n", len(ids), n, u.Name()))
	writeUsers(&sb, g, ids)
	return sb.String(), nil
}

func handleFeed(g *graph.SocialGraph, ref string, offset, limit int) (string, error) {
	u, err := g.Lookup(ref)
	if err != nil {
		return "", err
	}

	posts, err := g.GenerateFeed(u.ID(), offset, limit)
	if err != nil {
		return "", err
	}
	if len(posts) == 0 {
		return fmt.Sprintf("No posts in %s's feed", u.Name()), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Feed for %s\n\n", u.Name()))
	first := max(offset, 0) + 1
	for i, p := range posts {
		sb.WriteString(fmt.Sprintf("%d. **%s** (%s)\n", first+i, authorName(g, p.Author), p.PublishedAt.Format("2006-01-02 15:04:05")))
		sb.WriteString(fmt.Sprintf("   %s\n", p.Content))
	}
	return sb.String(), nil
}

func handleSearch(ctx context.Context, g *graph.SocialGraph, query string, limit int) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "No query provided", nil
	}

	index := storage.NewMemoryBackend()
	if err := index.BulkLoad(ctx, g); err != nil {
		return "", fmt.Errorf("indexing graph: %w", err)
	}

	results, err := index.Search(ctx, query, limit)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No results found", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d users for '%s':\n\n", len(results), query))
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("%d. **%s** (%s)\n", i+1, r.Name, r.UserID))
		sb.WriteString(fmt.Sprintf("   Score: %.0f\n", r.Score))
		if r.Snippet != "" {
			snippet := r.Snippet
			if len(snippet) > 200 {
				snippet = snippet[:200] + "..."
			}
			sb.WriteString(fmt.Sprintf("   %s\n", snippet))
		}
	}
	return sb.String(), nil
}

// Resource Handlers

func getOverview(g *graph.SocialGraph) string {
	communities := ingestion.DetectCommunities(g)

	var sb strings.Builder
	sb.WriteString("# Social Graph Overview\n\n")
	sb.WriteString(fmt.Sprintf("**Users:** %d\n", g.UserCount()))
	sb.WriteString(fmt.Sprintf("**Follows:** %d\n", g.EdgeCount()))
	sb.WriteString(fmt.Sprintf("**Communities:** %d\n", len(communities)))

	if len(communities) > 0 {
		sb.WriteString("\n## Largest Communities\n\n")
		for i, members := range communities[:min(5, len(communities))] {
			sb.WriteString(fmt.Sprintf("%d. %d members, including %s\n", i+1, len(members), authorName(g, members[0])))
		}
	}

	return sb.String()
}

func getSchema() string {
	var sb strings.Builder
	sb.WriteString("# Social Graph Schema\n\n")
	sb.WriteString("## Entities\n\n")
	sb.WriteString("| Entity | Description | Key Properties |\n")
	sb.WriteString("|--------|-------------|----------------|\n")
	sb.WriteString("| `user` | Member of the graph | id (UUID), name |\n")
	sb.WriteString(fmt.Sprintf("| `post` | Content authored by a user, newest %d kept | author, content, published_at |\n", graph.MaxPosts))
	sb.WriteString("\n## Relationships\n\n")
	sb.WriteString("| Type | Source → Target | Notes |\n")
	sb.WriteString("|------|-----------------|-------|\n")
	sb.WriteString("| `follows` | User → User | directed |\n")
	sb.WriteString("| `friends` | User ↔ User | derived from mutual follows |\n")
	sb.WriteString("\n## Feed\n\n")
	sb.WriteString("Posts of directly followed users, newest first, paged by offset and limit.\n")

	return sb.String()
}

// Helper functions

func writeUsers(sb *strings.Builder, g *graph.SocialGraph, ids []uuid.UUID) {
	for i, id := range ids {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, authorName(g, id), id))
	}
}

// authorName returns the display name of id, or the ID itself once the
// user has been deleted.
func authorName(g *graph.SocialGraph, id uuid.UUID) string {
	u, err := g.GetUser(id)
	if err != nil {
		return id.String()
	}
	return u.Name()
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// intArg reads a JSON number argument, which decodes as float64.
// Values outside the int range saturate.
func intArg(args map[string]any, key string, def int) int {
	v, ok := args[key].(float64)
	switch {
	case !ok || math.IsNaN(v):
		return def
	case v >= math.MaxInt:
		return math.MaxInt
	case v <= math.MinInt:
		return math.MinInt
	}
	return int(v)
}

func result(id any, body map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  body,
	}
}

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}
