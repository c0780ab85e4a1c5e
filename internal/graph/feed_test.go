package graph

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocialGraph_GenerateFeed(t *testing.T) {
	t.Parallel()

	t.Run("NewestFirst", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		f.follow(t, f.terry, f.john)
		for _, step := range []struct {
			author  *User
			content string
		}{{f.eric, "1"}, {f.eric, "2"}, {f.john, "3"}, {f.john, "4"}} {
			f.clock.Advance(time.Second)
			step.author.AddPost(step.content)
		}

		feed, err := f.g.GenerateFeed(f.terry.ID(), DefaultFeedOffset, DefaultFeedLimit)

		require.NoError(t, err)
		assert.Equal(t, []string{"4", "3", "2", "1"}, contents(feed))
	})

	t.Run("OffsetAndLimit", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		f.follow(t, f.terry, f.john)
		for _, step := range []struct {
			author  *User
			content string
		}{{f.eric, "1"}, {f.john, "2"}, {f.eric, "3"}, {f.john, "4"}} {
			f.clock.Advance(time.Second)
			step.author.AddPost(step.content)
		}

		feed, err := f.g.GenerateFeed(f.terry.ID(), 2, 2)

		require.NoError(t, err)
		assert.Equal(t, []string{"2", "1"}, contents(feed))
	})

	t.Run("DefaultLimit", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		for i := 0; i < 15; i++ {
			f.clock.Advance(time.Second)
			f.eric.AddPost(fmt.Sprintf("%d", i))
		}

		feed, err := f.g.GenerateFeed(f.terry.ID(), DefaultFeedOffset, DefaultFeedLimit)

		require.NoError(t, err)
		require.Len(t, feed, DefaultFeedLimit)
		assert.Equal(t, "14", feed[0].Content)
		assert.Equal(t, "5", feed[9].Content)
	})

	t.Run("NegativeOffset", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		f.eric.AddPost("1")
		f.clock.Advance(time.Second)
		f.eric.AddPost("2")

		feed, err := f.g.GenerateFeed(f.terry.ID(), -3, 10)

		require.NoError(t, err)
		assert.Equal(t, []string{"2", "1"}, contents(feed))
	})

	t.Run("NegativeLimit", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		f.eric.AddPost("1")

		feed, err := f.g.GenerateFeed(f.terry.ID(), 0, -1)

		require.NoError(t, err)
		assert.Empty(t, feed)
	})

	t.Run("HugeLimit", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		f.follow(t, f.terry, f.john)
		f.eric.AddPost("1")
		f.clock.Advance(time.Second)
		f.john.AddPost("2")

		var feed []Post
		var err error
		require.NotPanics(t, func() {
			feed, err = f.g.GenerateFeed(f.terry.ID(), 1, math.MaxInt)
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, contents(feed))
	})

	t.Run("OffsetPastEnd", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		f.eric.AddPost("only")

		feed, err := f.g.GenerateFeed(f.terry.ID(), 5, 10)

		require.NoError(t, err)
		assert.Empty(t, feed)
	})

	t.Run("DirectFolloweesOnly", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		f.follow(t, f.eric, f.john)
		f.john.AddPost("transitive")
		f.terry.AddPost("own")
		f.clock.Advance(time.Second)
		f.eric.AddPost("direct")

		feed, err := f.g.GenerateFeed(f.terry.ID(), 0, 10)

		require.NoError(t, err)
		assert.Equal(t, []string{"direct"}, contents(feed))
	})

	t.Run("TiesKeepInsertionOrder", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.follow(t, f.terry, f.eric)
		f.eric.AddPost("first")
		f.eric.AddPost("second")

		feed, err := f.g.GenerateFeed(f.terry.ID(), 0, 10)

		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, contents(feed))
	})

	t.Run("NonIncreasingTimestamps", func(t *testing.T) {
		t.Parallel()
		g := NewSocialGraph()
		reader := NewUser("reader")
		require.NoError(t, g.AddUser(reader))
		for i := 0; i < 5; i++ {
			u := NewUser(fmt.Sprintf("writer %d", i))
			require.NoError(t, g.AddUser(u))
			require.NoError(t, g.Follow(reader.ID(), u.ID()))
			for j := 0; j < 7; j++ {
				u.AddPost(fmt.Sprintf("%d-%d", i, j))
			}
		}

		feed, err := g.GenerateFeed(reader.ID(), 0, 100)

		require.NoError(t, err)
		require.Len(t, feed, 35)
		for i := 1; i < len(feed); i++ {
			assert.False(t, feed[i].PublishedAt.After(feed[i-1].PublishedAt))
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.g.GenerateFeed(f.michael.ID(), 0, 10)

		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
