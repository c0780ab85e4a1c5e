package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// MaxDistance returns the greatest BFS depth reachable from id by following
// edges forward. A user that reaches nobody has a max distance of 0.
func (g *SocialGraph) MaxDistance(id uuid.UUID) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.requireUsers(id); err != nil {
		return 0, err
	}

	maxDepth := 0
	g.bfs(id, func(_ uuid.UUID, depth int) bool {
		maxDepth = max(maxDepth, depth)
		return true
	})
	return maxDepth, nil
}

// MinDistance returns the number of edges on the shortest directed path
// from one user to another. The distance from a user to itself is 0.
func (g *SocialGraph) MinDistance(from, to uuid.UUID) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.requireUsers(from, to); err != nil {
		return 0, err
	}

	distance := -1
	g.bfs(from, func(id uuid.UUID, depth int) bool {
		if id == to {
			distance = depth
			return false
		}
		return true
	})

	if distance < 0 {
		return 0, fmt.Errorf("%w: %s -> %s", ErrUsersNotConnected, from, to)
	}
	return distance, nil
}

// NthLayerFollowings returns the IDs at exactly BFS depth n from id.
// Depth 0 is id itself; a negative n yields an empty result.
func (g *SocialGraph) NthLayerFollowings(id uuid.UUID, n int) ([]uuid.UUID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.requireUsers(id); err != nil {
		return nil, err
	}

	result := make([]uuid.UUID, 0)
	if n < 0 {
		return result, nil
	}

	g.bfs(id, func(visited uuid.UUID, depth int) bool {
		if depth == n {
			result = append(result, visited)
		}
		// Depths only grow as the queue drains.
		return depth <= n
	})
	return sortIDs(result), nil
}

// bfs visits every user reachable from start in breadth-first order,
// calling visit with each user's depth. Each user is visited once, at the
// depth it was first discovered. Traversal stops when visit returns false.
// Must be called with the lock held.
func (g *SocialGraph) bfs(start uuid.UUID, visit func(id uuid.UUID, depth int) bool) {
	type queueItem struct {
		id    uuid.UUID
		depth int
	}

	visited := map[uuid.UUID]bool{start: true}
	queue := []queueItem{{start, 0}}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if !visit(item.id, item.depth) {
			return
		}

		for _, next := range g.followeesOf(item.id) {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, queueItem{next, item.depth + 1})
		}
	}
}
