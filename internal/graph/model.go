// Package graph provides the social data model for socialgraph.
//
// It defines the Post and User types. A User owns a bounded, insertion-ordered
// history of its own Posts; once the history is full the oldest Post is
// evicted to make room for the newest one.
package graph

import (
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxPosts is the number of posts a User keeps before evicting the oldest.
const MaxPosts = 50

// Post is a piece of content authored by a User.
//
// Posts are values: every copy handed out by a User is independent of the
// User's own history, so a Post cannot be changed after creation.
type Post struct {
	// Author is the ID of the User that created the post.
	Author uuid.UUID `json:"author"`

	// Content is the text of the post.
	Content string `json:"content"`

	// PublishedAt is the creation time assigned by the author's clock.
	PublishedAt time.Time `json:"published_at"`
}

// User is a member of the social graph.
//
// The ID is assigned at construction and never changes. A User exists
// independently of any SocialGraph; it has to be registered with
// SocialGraph.AddUser before it can follow or be followed.
type User struct {
	id    uuid.UUID
	name  string
	clock Clock

	// posts is a ring buffer; head is the index of the oldest post.
	mu    sync.RWMutex
	posts [MaxPosts]Post
	head  int
	size  int
}

// UserOption configures a User created by NewUser.
type UserOption func(*User)

// WithClock sets the clock used to timestamp the user's posts.
func WithClock(c Clock) UserOption {
	return func(u *User) {
		u.clock = c
	}
}

// NewUser creates a User with a fresh random ID and no posts.
func NewUser(name string, opts ...UserOption) *User {
	u := &User{
		id:    uuid.New(),
		name:  name,
		clock: DefaultClock(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// RestoreUser rebuilds a User from previously stored state.
//
// Posts are taken oldest first. If more than MaxPosts are given only the
// newest MaxPosts are kept, exactly as if they had been added one by one.
func RestoreUser(id uuid.UUID, name string, posts []Post, opts ...UserOption) *User {
	u := NewUser(name, opts...)
	u.id = id
	for _, p := range posts {
		p.Author = id
		u.push(p)
	}
	return u
}

// ID returns the user's identifier.
func (u *User) ID() uuid.UUID {
	return u.id
}

// Name returns the user's display name.
func (u *User) Name() string {
	return u.name
}

// AddPost creates a post authored by this user, stamped with the current
// time. When the history is full the oldest post is evicted first.
func (u *User) AddPost(content string) Post {
	p := Post{
		Author:      u.id,
		Content:     content,
		PublishedAt: u.clock.Now(),
	}
	u.push(p)
	return p
}

// Posts returns the user's posts, oldest first.
//
// The sequence is restartable: every iteration reads the history as it is
// when the iteration starts.
func (u *User) Posts() iter.Seq[Post] {
	return func(yield func(Post) bool) {
		for _, p := range u.snapshot() {
			if !yield(p) {
				return
			}
		}
	}
}

// PostCount returns the number of posts currently held.
func (u *User) PostCount() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.size
}

func (u *User) push(p Post) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.size < MaxPosts {
		u.posts[(u.head+u.size)%MaxPosts] = p
		u.size++
		return
	}

	// Full: overwrite the oldest slot and advance head.
	u.posts[u.head] = p
	u.head = (u.head + 1) % MaxPosts
}

// snapshot copies the current history, oldest first.
func (u *User) snapshot() []Post {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]Post, u.size)
	for i := 0; i < u.size; i++ {
		out[i] = u.posts[(u.head+i)%MaxPosts]
	}
	return out
}
