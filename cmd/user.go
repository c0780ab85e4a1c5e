package cmd

import (
	"context"

	"github.com/Benny93/socialgraph-go/internal/graph"
)

// UserCmd groups the user management commands.
type UserCmd struct {
	Add    UserAddCmd    `cmd:"" help:"Register a new user"`
	Show   UserShowCmd   `cmd:"" help:"Show a user's profile and posts"`
	Delete UserDeleteCmd `cmd:"" help:"Delete a user and all of its follows"`
	List   UserListCmd   `cmd:"" help:"List all users"`
}

// UserAddCmd registers a new user.
type UserAddCmd struct {
	Name string `arg:"" help:"Display name"`
}

// Run executes the user add command.
func (c *UserAddCmd) Run(env *Env) error {
	u := graph.NewUser(c.Name)
	err := env.updateGraph(context.Background(), func(g *graph.SocialGraph) error {
		return g.AddUser(u)
	})
	if err != nil {
		return err
	}

	env.success("Added %s", u.Name())
	env.printf("  ID: %s\n", u.ID())
	return nil
}

// UserShowCmd shows a user's profile.
type UserShowCmd struct {
	User string `arg:"" help:"User ID or display name"`
}

// Run executes the user show command.
func (c *UserShowCmd) Run(env *Env) error {
	g, err := env.readGraph(context.Background())
	if err != nil {
		return err
	}

	u, err := g.Lookup(c.User)
	if err != nil {
		return err
	}

	following, err := g.Following(u.ID())
	if err != nil {
		return err
	}
	followers, err := g.Followers(u.ID())
	if err != nil {
		return err
	}
	friends, err := g.Friends(u.ID())
	if err != nil {
		return err
	}

	env.printf("%s\n", u.Name())
	env.printf("  ID:         %s\n", u.ID())
	env.printf("  Following:  %d\n", len(following))
	env.printf("  Followers:  %d\n", len(followers))
	env.printf("  Friends:    %d\n", len(friends))
	env.printf("  Posts:      %d\n", u.PostCount())

	for p := range u.Posts() {
		env.printf("    [%s] %s\n", p.PublishedAt.Format("2006-01-02 15:04:05"), p.Content)
	}
	return nil
}

// UserDeleteCmd deletes a user.
type UserDeleteCmd struct {
	User string `arg:"" help:"User ID or display name"`
}

// Run executes the user delete command.
func (c *UserDeleteCmd) Run(env *Env) error {
	var name string
	err := env.updateGraph(context.Background(), func(g *graph.SocialGraph) error {
		u, err := g.Lookup(c.User)
		if err != nil {
			return err
		}
		name = u.Name()
		return g.DeleteUser(u.ID())
	})
	if err != nil {
		return err
	}

	env.success("Deleted %s", name)
	return nil
}

// UserListCmd lists all registered users.
type UserListCmd struct{}

// Run executes the user list command.
func (c *UserListCmd) Run(env *Env) error {
	g, err := env.readGraph(context.Background())
	if err != nil {
		return err
	}

	env.printf("%d users\n", g.UserCount())
	env.printUsers(g, g.UserIDs(), "No users yet")
	return nil
}

// PostCmd publishes a post.
type PostCmd struct {
	User    string `arg:"" help:"User ID or display name"`
	Content string `arg:"" help:"Post content"`
}

// Run executes the post command.
func (c *PostCmd) Run(env *Env) error {
	var post graph.Post
	var name string
	err := env.updateGraph(context.Background(), func(g *graph.SocialGraph) error {
		u, err := g.Lookup(c.User)
		if err != nil {
			return err
		}
		name = u.Name()
		post = u.AddPost(c.Content)
		return nil
	})
	if err != nil {
		return err
	}

	env.success("%s posted at %s", name, post.PublishedAt.Format("2006-01-02 15:04:05"))
	return nil
}
