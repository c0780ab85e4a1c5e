package ingestion

import (
	"bytes"
	"slices"

	"github.com/google/uuid"

	"github.com/Benny93/socialgraph-go/internal/graph"
)

// DetectCommunities groups users into communities of friends: two users
// share a community when a chain of mutual follows connects them.
//
// Users without friends belong to no community. Each community is sorted by
// ID; communities are ordered largest first, ties by their first ID.
func DetectCommunities(g *graph.SocialGraph) [][]uuid.UUID {
	assigned := make(map[uuid.UUID]bool)
	var communities [][]uuid.UUID

	for _, id := range g.UserIDs() {
		if assigned[id] {
			continue
		}

		members := collectFriends(g, id, assigned)
		if len(members) < 2 {
			continue
		}
		slices.SortFunc(members, compareIDs)
		communities = append(communities, members)
	}

	slices.SortStableFunc(communities, func(a, b []uuid.UUID) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return compareIDs(a[0], b[0])
	})
	return communities
}

// collectFriends returns every user reachable from start over friend edges,
// marking each as assigned.
func collectFriends(g *graph.SocialGraph, start uuid.UUID, assigned map[uuid.UUID]bool) []uuid.UUID {
	assigned[start] = true
	members := []uuid.UUID{start}
	queue := []uuid.UUID{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		friends, err := g.Friends(current)
		if err != nil {
			// Deleted since UserIDs was read.
			continue
		}
		for _, f := range friends {
			if assigned[f] {
				continue
			}
			assigned[f] = true
			members = append(members, f)
			queue = append(queue, f)
		}
	}

	return members
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
