package cmd

import (
	"context"
	"errors"

	"github.com/Benny93/socialgraph-go/internal/graph"
)

// MaxDistanceCmd prints the greatest BFS depth reachable from a user.
type MaxDistanceCmd struct {
	User string `arg:"" help:"User ID or display name"`
}

// Run executes the max-distance command.
func (c *MaxDistanceCmd) Run(env *Env) error {
	g, err := env.readGraph(context.Background())
	if err != nil {
		return err
	}

	u, err := g.Lookup(c.User)
	if err != nil {
		return err
	}

	d, err := g.MaxDistance(u.ID())
	if err != nil {
		return err
	}

	env.printf("%d\n", d)
	return nil
}

// MinDistanceCmd prints the shortest follow path length between two users.
type MinDistanceCmd struct {
	From string `arg:"" help:"Starting user"`
	To   string `arg:"" help:"Target user"`
}

// Run executes the min-distance command.
func (c *MinDistanceCmd) Run(env *Env) error {
	g, err := env.readGraph(context.Background())
	if err != nil {
		return err
	}

	users, err := lookupAll(g, c.From, c.To)
	if err != nil {
		return err
	}

	d, err := g.MinDistance(users[0].ID(), users[1].ID())
	if errors.Is(err, graph.ErrUsersNotConnected) {
		env.Logger.Debug("No path", "from", users[0].ID(), "to", users[1].ID())
	}
	if err != nil {
		return err
	}

	env.printf("%d\n", d)
	return nil
}

// LayerCmd lists the users at an exact follow distance.
type LayerCmd struct {
	User string `arg:"" help:"User ID or display name"`
	N    int    `arg:"" help:"Number of follow steps"`
}

// Run executes the layer command.
func (c *LayerCmd) Run(env *Env) error {
	g, err := env.readGraph(context.Background())
	if err != nil {
		return err
	}

	u, err := g.Lookup(c.User)
	if err != nil {
		return err
	}

	ids, err := g.NthLayerFollowings(u.ID(), c.N)
	if err != nil {
		return err
	}

	env.printf("%s: %d users at distance %d\n", u.Name(), len(ids), c.N)
	env.printUsers(g, ids, "  none")
	return nil
}

// FeedCmd prints a page of a user's feed.
type FeedCmd struct {
	User   string `arg:"" help:"User ID or display name"`
	Offset int    `default:"0" help:"Posts to skip"`
	Limit  int    `short:"n" default:"10" help:"Maximum posts"`
}

// Run executes the feed command.
func (c *FeedCmd) Run(env *Env) error {
	g, err := env.readGraph(context.Background())
	if err != nil {
		return err
	}

	u, err := g.Lookup(c.User)
	if err != nil {
		return err
	}

	posts, err := g.GenerateFeed(u.ID(), c.Offset, c.Limit)
	if err != nil {
		return err
	}

	if len(posts) == 0 {
		env.printf("No posts\n")
		return nil
	}

	for i, p := range posts {
		env.printf("\n%d. %s  %s\n", max(c.Offset, 0)+i+1, displayName(g, p.Author), p.PublishedAt.Format("2006-01-02 15:04:05"))
		env.printf("   %s\n", p.Content)
	}
	return nil
}
