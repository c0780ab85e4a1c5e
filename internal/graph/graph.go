// Package graph provides the in-memory social graph for socialgraph.
//
// SocialGraph is a map-backed directed graph: a registry of Users keyed by
// ID and an adjacency map from each follower to the set of users it follows.
// The reverse direction is never stored; Followers scans the adjacency map.
package graph

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SocialGraph is a directed "follows" graph between registered Users.
//
// Every ID appearing in the adjacency map, as follower or followee, is also
// a registry key. Deleting a user cascades to every edge that references it.
//
// A single RWMutex guards the whole graph: mutations take the write lock,
// queries and traversals the read lock.
type SocialGraph struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]*User
	following map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewSocialGraph creates a new empty social graph.
func NewSocialGraph() *SocialGraph {
	return &SocialGraph{
		users:     make(map[uuid.UUID]*User),
		following: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// UserCount returns the number of registered users.
func (g *SocialGraph) UserCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.users)
}

// EdgeCount returns the number of follow edges.
func (g *SocialGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, followees := range g.following {
		n += len(followees)
	}
	return n
}

// Users returns all registered users ordered by ID.
func (g *SocialGraph) Users() []*User {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*User, 0, len(g.users))
	for _, u := range g.users {
		result = append(result, u)
	}
	slices.SortFunc(result, func(a, b *User) int {
		return compareIDs(a.id, b.id)
	})
	return result
}

// UserIDs returns the IDs of all registered users ordered by ID.
func (g *SocialGraph) UserIDs() []uuid.UUID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(g.users))
	for id := range g.users {
		ids = append(ids, id)
	}
	return sortIDs(ids)
}

// FindByName returns the registered users whose display name matches name,
// ignoring case, ordered by ID.
func (g *SocialGraph) FindByName(name string) []*User {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var matches []*User
	for _, u := range g.users {
		if strings.EqualFold(u.name, name) {
			matches = append(matches, u)
		}
	}
	slices.SortFunc(matches, func(a, b *User) int {
		return compareIDs(a.id, b.id)
	})
	return matches
}

// AddUser registers u with an empty followee set.
func (g *SocialGraph) AddUser(u *User) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.users[u.id]; ok {
		return fmt.Errorf("%w: %s", ErrUserAlreadyExists, u.id)
	}

	g.users[u.id] = u
	g.following[u.id] = make(map[uuid.UUID]struct{})
	return nil
}

// GetUser returns the registered user with the given ID.
func (g *SocialGraph) GetUser(id uuid.UUID) (*User, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.requireUsers(id); err != nil {
		return nil, err
	}
	return g.users[id], nil
}

// DeleteUser unregisters a user and removes every edge that references it,
// both as follower and as followee. The User value itself is left intact.
func (g *SocialGraph) DeleteUser(id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireUsers(id); err != nil {
		return err
	}

	for _, followees := range g.following {
		delete(followees, id)
	}
	delete(g.following, id)
	delete(g.users, id)
	return nil
}

// Follow adds the edge follower -> followee. Following twice is a no-op.
func (g *SocialGraph) Follow(follower, followee uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireUsers(follower, followee); err != nil {
		return err
	}

	g.following[follower][followee] = struct{}{}
	return nil
}

// Unfollow removes the edge follower -> followee if it exists.
func (g *SocialGraph) Unfollow(follower, followee uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireUsers(follower, followee); err != nil {
		return err
	}

	delete(g.following[follower], followee)
	return nil
}

// IsFollowing reports whether follower follows followee.
func (g *SocialGraph) IsFollowing(follower, followee uuid.UUID) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.requireUsers(follower, followee); err != nil {
		return false, err
	}

	_, ok := g.following[follower][followee]
	return ok, nil
}

// Followers returns the IDs of users following id.
// It scans every followee set, so it costs O(users).
func (g *SocialGraph) Followers(id uuid.UUID) ([]uuid.UUID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.requireUsers(id); err != nil {
		return nil, err
	}

	result := make([]uuid.UUID, 0)
	for follower, followees := range g.following {
		if _, ok := followees[id]; ok {
			result = append(result, follower)
		}
	}
	return sortIDs(result), nil
}

// Following returns the IDs of users that id follows.
func (g *SocialGraph) Following(id uuid.UUID) ([]uuid.UUID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.requireUsers(id); err != nil {
		return nil, err
	}
	return g.followeesOf(id), nil
}

// Friends returns the IDs of users that id follows and that follow id back.
func (g *SocialGraph) Friends(id uuid.UUID) ([]uuid.UUID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.requireUsers(id); err != nil {
		return nil, err
	}

	result := make([]uuid.UUID, 0)
	for followee := range g.following[id] {
		if _, ok := g.following[followee][id]; ok {
			result = append(result, followee)
		}
	}
	return sortIDs(result), nil
}

// requireUsers returns ErrUserNotFound for the first unregistered ID.
// Must be called with the lock held.
func (g *SocialGraph) requireUsers(ids ...uuid.UUID) error {
	for _, id := range ids {
		if _, ok := g.users[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
	}
	return nil
}

// followeesOf returns the sorted followee set of id.
// Must be called with the lock held.
func (g *SocialGraph) followeesOf(id uuid.UUID) []uuid.UUID {
	result := make([]uuid.UUID, 0, len(g.following[id]))
	for followee := range g.following[id] {
		result = append(result, followee)
	}
	return sortIDs(result)
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

func sortIDs(ids []uuid.UUID) []uuid.UUID {
	slices.SortFunc(ids, compareIDs)
	return ids
}
