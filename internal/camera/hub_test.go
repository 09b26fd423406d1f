package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBufferedDeliversInOrder(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe("recorder", Buffered)
	for i := 1; i <= 10; i++ {
		hub.Publish(&Frame{Seq: uint64(i)})
	}

	for i := 1; i <= 10; i++ {
		f := <-sub.Frames()
		assert.Equal(t, uint64(i), f.Seq)
	}
	assert.Zero(t, sub.Drops())
}

func TestHubLatestWinsKeepsNewest(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe("display", LatestWins)
	for i := 1; i <= 5; i++ {
		hub.Publish(&Frame{Seq: uint64(i)})
	}

	f := <-sub.Frames()
	assert.Equal(t, uint64(5), f.Seq, "older frames are evicted")
	assert.Equal(t, uint64(4), sub.Drops())
}

func TestHubBufferedOverflowDropsNewest(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe("slow", Buffered)
	for i := 1; i <= bufferedQueueSize+3; i++ {
		hub.Publish(&Frame{Seq: uint64(i)})
	}

	assert.Equal(t, uint64(3), sub.Drops())
	f := <-sub.Frames()
	assert.Equal(t, uint64(1), f.Seq, "queued frames keep arrival order")
}

func TestHubResubscribeReplaces(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	old := hub.Subscribe("display", LatestWins)
	sub := hub.Subscribe("display", LatestWins)

	_, ok := <-old.Frames()
	assert.False(t, ok, "previous subscription channel is closed")

	hub.Publish(&Frame{Seq: 1})
	f := <-sub.Frames()
	assert.Equal(t, uint64(1), f.Seq)
}

func TestHubUnsubscribeAndClose(t *testing.T) {
	hub := NewHub()

	sub := hub.Subscribe("a", Buffered)
	hub.Unsubscribe("a")
	_, ok := <-sub.Frames()
	require.False(t, ok)

	// Unknown ids are fine.
	hub.Unsubscribe("never-registered")

	b := hub.Subscribe("b", Buffered)
	hub.Close()
	_, ok = <-b.Frames()
	require.False(t, ok)

	// Subscribing after close yields a closed channel immediately.
	late := hub.Subscribe("late", LatestWins)
	_, ok = <-late.Frames()
	require.False(t, ok)
}
