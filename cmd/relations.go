package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Benny93/socialgraph-go/internal/graph"
	"github.com/Benny93/socialgraph-go/internal/ingestion"
)

// FollowCmd adds a follow edge.
type FollowCmd struct {
	Follower string `arg:"" help:"User that follows"`
	Followee string `arg:"" help:"User to be followed"`
}

// Run executes the follow command.
func (c *FollowCmd) Run(env *Env) error {
	var names [2]string
	err := env.updateGraph(context.Background(), func(g *graph.SocialGraph) error {
		users, err := lookupAll(g, c.Follower, c.Followee)
		if err != nil {
			return err
		}
		names = [2]string{users[0].Name(), users[1].Name()}
		return g.Follow(users[0].ID(), users[1].ID())
	})
	if err != nil {
		return err
	}

	env.success("%s now follows %s", names[0], names[1])
	return nil
}

// UnfollowCmd removes a follow edge.
type UnfollowCmd struct {
	Follower string `arg:"" help:"User that follows"`
	Followee string `arg:"" help:"User to stop following"`
}

// Run executes the unfollow command.
func (c *UnfollowCmd) Run(env *Env) error {
	var names [2]string
	err := env.updateGraph(context.Background(), func(g *graph.SocialGraph) error {
		users, err := lookupAll(g, c.Follower, c.Followee)
		if err != nil {
			return err
		}
		names = [2]string{users[0].Name(), users[1].Name()}
		return g.Unfollow(users[0].ID(), users[1].ID())
	})
	if err != nil {
		return err
	}

	env.success("%s no longer follows %s", names[0], names[1])
	return nil
}

// IsFollowingCmd reports whether one user follows another.
type IsFollowingCmd struct {
	Follower string `arg:"" help:"User that may follow"`
	Followee string `arg:"" help:"User that may be followed"`
}

// Run executes the is-following command.
func (c *IsFollowingCmd) Run(env *Env) error {
	g, err := env.readGraph(context.Background())
	if err != nil {
		return err
	}

	users, err := lookupAll(g, c.Follower, c.Followee)
	if err != nil {
		return err
	}

	ok, err := g.IsFollowing(users[0].ID(), users[1].ID())
	if err != nil {
		return err
	}

	if ok {
		env.printf("%s follows %s\n", users[0].Name(), users[1].Name())
	} else {
		env.printf("%s does not follow %s\n", users[0].Name(), users[1].Name())
	}
	return nil
}

// FollowersCmd lists a user's followers.
type FollowersCmd struct {
	User string `arg:"" help:"User ID or display name"`
}

// Run executes the followers command.
func (c *FollowersCmd) Run(env *Env) error {
	return listRelated(env, c.User, "followers", (*graph.SocialGraph).Followers)
}

// FollowingCmd lists the users a user follows.
type FollowingCmd struct {
	User string `arg:"" help:"User ID or display name"`
}

// Run executes the following command.
func (c *FollowingCmd) Run(env *Env) error {
	return listRelated(env, c.User, "following", (*graph.SocialGraph).Following)
}

// FriendsCmd lists a user's friends.
type FriendsCmd struct {
	User string `arg:"" help:"User ID or display name"`
}

// Run executes the friends command.
func (c *FriendsCmd) Run(env *Env) error {
	return listRelated(env, c.User, "friends", (*graph.SocialGraph).Friends)
}

func listRelated(env *Env, ref, what string, list func(*graph.SocialGraph, uuid.UUID) ([]uuid.UUID, error)) error {
	g, err := env.readGraph(context.Background())
	if err != nil {
		return err
	}

	u, err := g.Lookup(ref)
	if err != nil {
		return err
	}

	ids, err := list(g, u.ID())
	if err != nil {
		return err
	}

	env.printf("%s: %d %s\n", u.Name(), len(ids), what)
	env.printUsers(g, ids, "  none")
	return nil
}

// CommunitiesCmd lists friend communities.
type CommunitiesCmd struct{}

// Run executes the communities command.
func (c *CommunitiesCmd) Run(env *Env) error {
	g, err := env.readGraph(context.Background())
	if err != nil {
		return err
	}

	communities := ingestion.DetectCommunities(g)
	if len(communities) == 0 {
		env.printf("No communities found\n")
		return nil
	}

	for i, members := range communities {
		env.printf("\n%d. %d members\n", i+1, len(members))
		env.printUsers(g, members, "")
	}
	return nil
}

// SearchCmd finds users by words in their name or posts.
type SearchCmd struct {
	Query string `arg:"" help:"Search query"`
	Limit int    `short:"n" default:"20" help:"Maximum results"`
}

// Run executes the search command.
func (c *SearchCmd) Run(env *Env) error {
	store, err := env.openStore(true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	results, err := store.Search(context.Background(), c.Query, c.Limit)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if len(results) == 0 {
		env.printf("No results found\n")
		return nil
	}

	for i, r := range results {
		env.printf("\n%d. %s (%s)\n", i+1, r.Name, r.UserID)
		env.printf("   Score: %.0f\n", r.Score)
		if r.Snippet != "" {
			env.printf("   %s\n", r.Snippet)
		}
	}
	return nil
}
