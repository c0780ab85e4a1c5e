package graph

import (
	"slices"

	"github.com/google/uuid"
)

// Feed pagination defaults.
const (
	DefaultFeedOffset = 0
	DefaultFeedLimit  = 10
)

// GenerateFeed returns the posts of every user that id follows directly,
// newest first, skipping offset posts and returning at most limit.
//
// Posts with equal timestamps keep their collection order: followees are
// read in ID order and each followee's posts oldest first. An offset past
// the end yields an empty feed. Negative offset or limit count as 0.
func (g *SocialGraph) GenerateFeed(id uuid.UUID, offset, limit int) ([]Post, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.requireUsers(id); err != nil {
		return nil, err
	}

	var posts []Post
	for _, followee := range g.followeesOf(id) {
		posts = append(posts, g.users[followee].snapshot()...)
	}

	slices.SortStableFunc(posts, func(a, b Post) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})

	offset = max(offset, 0)
	limit = max(limit, 0)
	if offset >= len(posts) {
		return []Post{}, nil
	}
	end := offset + min(limit, len(posts)-offset)
	return posts[offset:end], nil
}
