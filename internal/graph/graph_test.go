package graph

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture is a graph with four registered users and one unregistered user.
type fixture struct {
	g       *SocialGraph
	clock   *stubClock
	terry   *User
	eric    *User
	graham  *User
	john    *User
	michael *User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := newStubClock()
	f := &fixture{
		g:       NewSocialGraph(),
		clock:   clock,
		terry:   NewUser("Terry Gilliam", WithClock(clock)),
		eric:    NewUser("Eric Idle", WithClock(clock)),
		graham:  NewUser("Graham Chapman", WithClock(clock)),
		john:    NewUser("John Cleese", WithClock(clock)),
		michael: NewUser("Michael Palin", WithClock(clock)),
	}
	for _, u := range []*User{f.terry, f.eric, f.graham, f.john} {
		require.NoError(t, f.g.AddUser(u))
	}
	return f
}

func (f *fixture) follow(t *testing.T, follower, followee *User) {
	t.Helper()
	require.NoError(t, f.g.Follow(follower.ID(), followee.ID()))
}

func TestNewSocialGraph(t *testing.T) {
	t.Parallel()

	g := NewSocialGraph()

	assert.NotNil(t, g)
	assert.Equal(t, 0, g.UserCount())
	assert.Equal(t, 0, g.EdgeCount())
	assert.Empty(t, g.Users())
}

func TestSocialGraph_AddUser(t *testing.T) {
	t.Parallel()

	t.Run("AddSingle", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		require.NoError(t, f.g.AddUser(f.michael))

		assert.Equal(t, 5, f.g.UserCount())
		assert.Contains(t, f.g.UserIDs(), f.michael.ID())
	})

	t.Run("RejectsDuplicate", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		require.NoError(t, f.g.AddUser(f.michael))

		err := f.g.AddUser(f.michael)

		assert.ErrorIs(t, err, ErrUserAlreadyExists)
		assert.Equal(t, 5, f.g.UserCount())
	})

	t.Run("StartsWithNoFollowees", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		require.NoError(t, f.g.AddUser(f.michael))

		following, err := f.g.Following(f.michael.ID())

		require.NoError(t, err)
		assert.Empty(t, following)
	})
}

func TestSocialGraph_GetUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.g.GetUser(f.michael.ID())
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, f.g.AddUser(f.michael))
	u, err := f.g.GetUser(f.michael.ID())

	require.NoError(t, err)
	assert.Same(t, f.michael, u)
}

func TestSocialGraph_DeleteUser(t *testing.T) {
	t.Parallel()

	t.Run("Missing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		err := f.g.DeleteUser(f.michael.ID())

		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Equal(t, 4, f.g.UserCount())
	})

	t.Run("RemovesFromRegistry", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		require.NoError(t, f.g.AddUser(f.michael))

		require.NoError(t, f.g.DeleteUser(f.michael.ID()))

		assert.NotContains(t, f.g.UserIDs(), f.michael.ID())
		_, err := f.g.GetUser(f.michael.ID())
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("CascadesEdges", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		f.follow(t, f.graham, f.eric)
		f.follow(t, f.eric, f.graham)
		f.follow(t, f.terry, f.graham)
		require.Equal(t, 4, f.g.EdgeCount())

		require.NoError(t, f.g.DeleteUser(f.eric.ID()))

		assert.Equal(t, 1, f.g.EdgeCount())
		_, err := f.g.IsFollowing(f.terry.ID(), f.eric.ID())
		assert.ErrorIs(t, err, ErrUserNotFound)

		following, err := f.g.Following(f.graham.ID())
		require.NoError(t, err)
		assert.NotContains(t, following, f.eric.ID())

		followers, err := f.g.Followers(f.graham.ID())
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{f.terry.ID()}, followers)
	})

	t.Run("UserValueSurvives", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.eric.AddPost("still here")

		require.NoError(t, f.g.DeleteUser(f.eric.ID()))

		assert.Equal(t, 1, f.eric.PostCount())
		require.NoError(t, f.g.AddUser(f.eric))
	})
}

func TestSocialGraph_Follow(t *testing.T) {
	t.Parallel()

	t.Run("UnknownUser", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		assert.ErrorIs(t, f.g.Follow(f.michael.ID(), f.eric.ID()), ErrUserNotFound)
		assert.ErrorIs(t, f.g.Follow(f.eric.ID(), f.michael.ID()), ErrUserNotFound)
		assert.Equal(t, 0, f.g.EdgeCount())
	})

	t.Run("Directed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)

		ok, err := f.g.IsFollowing(f.terry.ID(), f.eric.ID())
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = f.g.IsFollowing(f.eric.ID(), f.terry.ID())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Idempotent", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		f.follow(t, f.terry, f.eric)

		following, err := f.g.Following(f.terry.ID())

		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{f.eric.ID()}, following)
		assert.Equal(t, 1, f.g.EdgeCount())
	})
}

func TestSocialGraph_Unfollow(t *testing.T) {
	t.Parallel()

	t.Run("RemovesEdge", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)

		require.NoError(t, f.g.Unfollow(f.terry.ID(), f.eric.ID()))

		ok, err := f.g.IsFollowing(f.terry.ID(), f.eric.ID())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("MissingEdgeIsNoop", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		assert.NoError(t, f.g.Unfollow(f.terry.ID(), f.eric.ID()))
	})

	t.Run("UnknownUser", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		assert.ErrorIs(t, f.g.Unfollow(f.terry.ID(), f.michael.ID()), ErrUserNotFound)
	})
}

func TestSocialGraph_IsFollowing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.g.IsFollowing(f.michael.ID(), f.terry.ID())

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSocialGraph_Followers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.g.Followers(f.michael.ID())
	assert.ErrorIs(t, err, ErrUserNotFound)

	f.follow(t, f.terry, f.eric)
	f.follow(t, f.john, f.eric)
	followers, err := f.g.Followers(f.eric.ID())

	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{f.terry.ID(), f.john.ID()}, followers)
}

func TestSocialGraph_Following(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.g.Following(f.michael.ID())
	assert.ErrorIs(t, err, ErrUserNotFound)

	f.follow(t, f.terry, f.eric)
	f.follow(t, f.terry, f.john)
	following, err := f.g.Following(f.terry.ID())

	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{f.eric.ID(), f.john.ID()}, following)
}

func TestSocialGraph_Friends(t *testing.T) {
	t.Parallel()

	t.Run("MutualOnly", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		f.follow(t, f.terry, f.graham)
		f.follow(t, f.eric, f.graham)

		friends, err := f.g.Friends(f.terry.ID())
		require.NoError(t, err)
		assert.Empty(t, friends)

		friends, err = f.g.Friends(f.eric.ID())
		require.NoError(t, err)
		assert.Empty(t, friends)

		f.follow(t, f.eric, f.terry)

		friends, err = f.g.Friends(f.terry.ID())
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{f.eric.ID()}, friends)

		friends, err = f.g.Friends(f.eric.ID())
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{f.terry.ID()}, friends)
	})

	t.Run("MatchesIsFollowingBothWays", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		f.follow(t, f.eric, f.terry)
		f.follow(t, f.graham, f.john)
		f.follow(t, f.john, f.graham)
		f.follow(t, f.terry, f.john)

		users := []*User{f.terry, f.eric, f.graham, f.john}
		for _, u := range users {
			friends, err := f.g.Friends(u.ID())
			require.NoError(t, err)
			for _, v := range users {
				uv, err := f.g.IsFollowing(u.ID(), v.ID())
				require.NoError(t, err)
				vu, err := f.g.IsFollowing(v.ID(), u.ID())
				require.NoError(t, err)
				assert.Equal(t, uv && vu, contains(friends, v.ID()), "%s/%s", u.Name(), v.Name())
			}
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.g.Friends(f.michael.ID())

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestSocialGraph_FindByName(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	matches := f.g.FindByName("eric idle")
	require.Len(t, matches, 1)
	assert.Same(t, f.eric, matches[0])

	assert.Empty(t, f.g.FindByName("Michael Palin"))
}

func TestSocialGraph_Users(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	users := f.g.Users()

	require.Len(t, users, 4)
	for i := 1; i < len(users); i++ {
		assert.Negative(t, compareIDs(users[i-1].ID(), users[i].ID()))
	}
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
