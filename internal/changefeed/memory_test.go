package changefeed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "listener closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	return Event{}
}

func TestMemoryFeed_FanOut(t *testing.T) {
	feed := NewMemoryFeed()
	defer feed.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l1, err := feed.Listen(ctx)
	require.NoError(t, err)
	l2, err := feed.Listen(ctx)
	require.NoError(t, err)

	ev := Event{Entity: EntityFriend, Op: OpDelete, ID: 4}
	require.NoError(t, feed.Publish(ctx, ev))

	assert.Equal(t, ev, next(t, l1))
	assert.Equal(t, ev, next(t, l2))
}

func TestMemoryFeed_CancelClosesListener(t *testing.T) {
	feed := NewMemoryFeed()
	defer feed.Close()
	ctx, cancel := context.WithCancel(context.Background())

	l, err := feed.Listen(ctx)
	require.NoError(t, err)

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-l:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryFeed_Closed(t *testing.T) {
	feed := NewMemoryFeed()
	l, err := feed.Listen(context.Background())
	require.NoError(t, err)

	require.NoError(t, feed.Close())
	_, ok := <-l
	assert.False(t, ok)

	assert.ErrorIs(t, feed.Publish(context.Background(), Resync), ErrClosed)
	_, err = feed.Listen(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, feed.Close())
}
