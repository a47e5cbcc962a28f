package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	p := NewRedisPublisher(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, stop := p.Subscribe(ctx, "abc")
	defer stop()

	// wait for the subscription to be registered before publishing
	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("interview:abc:*")) == 1
	}, time.Second, 5*time.Millisecond)

	cursor := 2
	require.NoError(t, p.Publish(ctx, Event{Type: TypeTurn, InterviewID: "abc", Status: "in_progress", Cursor: &cursor}))

	select {
	case raw := <-msgs:
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(raw), &ev))
		assert.Equal(t, TypeTurn, ev.Type)
		assert.Equal(t, "abc", ev.InterviewID)
		require.NotNil(t, ev.Cursor)
		assert.Equal(t, 2, *ev.Cursor)
		assert.False(t, ev.At.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "interview:xyz:events", Channel("xyz"))
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}
