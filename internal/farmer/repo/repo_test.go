package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

const identity = "123456789012"

func init() {
	logx.Disable()
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func sampleHistory() model.History {
	return model.History{
		Chats: []model.ChatExchange{
			{Question: "why are leaves yellow?", Answer: "nitrogen deficiency"},
			{Question: "what fertiliser?", Answer: "urea"},
		},
		Detections: []model.DetectionHistoryEntry{
			{Disease: "blight", Confidence: 0.87, Timestamp: "2025-03-01T09:00:00Z"},
		},
	}
}

func TestRedisHistoryCache_RoundTrip(t *testing.T) {
	mr, rdb := newRedis(t)
	c := NewRedisHistoryCache(rdb, time.Hour)
	ctx := context.Background()

	_, ok, err := c.Load(ctx, identity)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Store(ctx, identity, sampleHistory()))
	got, ok, err := c.Load(ctx, identity)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleHistory(), got)

	assert.Equal(t, time.Hour, mr.TTL("history:"+identity+":chats"))
	assert.Equal(t, time.Hour, mr.TTL("history:"+identity+":detections"))
}

func TestRedisHistoryCache_StoreReplaces(t *testing.T) {
	_, rdb := newRedis(t)
	c := NewRedisHistoryCache(rdb, 0)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, identity, sampleHistory()))
	require.NoError(t, c.Store(ctx, identity, model.History{}))

	got, ok, err := c.Load(ctx, identity)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, got.Chats)
	assert.Empty(t, got.Detections)
	assert.NotNil(t, got.Detections)
}

func TestRedisHistoryCache_Expired(t *testing.T) {
	mr, rdb := newRedis(t)
	c := NewRedisHistoryCache(rdb, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, identity, sampleHistory()))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Load(ctx, identity)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisHistoryCache_Unavailable(t *testing.T) {
	mr, rdb := newRedis(t)
	c := NewRedisHistoryCache(rdb, 0)
	mr.Close()

	err := c.Store(context.Background(), identity, sampleHistory())
	assert.True(t, errx.IsTransport(err))
}

func TestMemoryHistoryCache(t *testing.T) {
	c := NewMemoryHistoryCache(0)
	ctx := context.Background()

	_, ok, err := c.Load(ctx, identity)
	require.NoError(t, err)
	assert.False(t, ok)

	h := sampleHistory()
	require.NoError(t, c.Store(ctx, identity, h))
	h.Chats[0].Answer = "mutated"

	got, ok, err := c.Load(ctx, identity)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleHistory(), got)
}

func TestRedisSnapshotStore(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewRedisSnapshotStore(rdb, time.Hour)
	ctx := context.Background()

	_, err := s.Get(ctx, "mapData")
	assert.ErrorIs(t, err, errx.ErrNotFound)

	require.NoError(t, s.Put(ctx, "mapData", []byte(`{"query":"123456789012"}`)))
	got, err := s.Get(ctx, "mapData")
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"123456789012"}`, string(got))

	raw, err := mr.Get("mapData")
	require.NoError(t, err)
	assert.Equal(t, string(got), raw)
	assert.Equal(t, time.Hour, mr.TTL("mapData"))
}

func TestMemorySnapshotStore(t *testing.T) {
	s := NewMemorySnapshotStore(time.Hour)
	ctx := context.Background()

	_, err := s.Get(ctx, "mapData")
	assert.ErrorIs(t, err, errx.ErrNotFound)

	require.NoError(t, s.Put(ctx, "mapData", []byte("a")))
	require.NoError(t, s.Put(ctx, "mapData", []byte("b")))
	got, err := s.Get(ctx, "mapData")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
}

type collector struct {
	mu  sync.Mutex
	got []string
}

func (c *collector) deliver(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, string(p))
}

func (c *collector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.got...)
}

func TestRedisNavigationSource(t *testing.T) {
	mr, rdb := newRedis(t)
	src := NewRedisNavigationSource(rdb, "map:navigate")

	ctx, cancel := context.WithCancel(context.Background())
	var c collector
	done := make(chan error, 1)
	go func() { done <- src.Listen(ctx, c.deliver) }()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("map:navigate")) == 1
	}, time.Second, 5*time.Millisecond)

	mr.Publish("map:navigate", `{"navigateTo":"/submitted"}`)
	mr.Publish("map:navigate", `{"navigateTo":"/chatbot"}`)

	require.Eventually(t, func() bool { return len(c.all()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{`{"navigateTo":"/submitted"}`, `{"navigateTo":"/chatbot"}`}, c.all())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestChannelNavigationSource(t *testing.T) {
	src := NewChannelNavigationSource()
	ctx, cancel := context.WithCancel(context.Background())
	var c collector
	done := make(chan error, 1)
	go func() { done <- src.Listen(ctx, c.deliver) }()

	require.NoError(t, src.Send(ctx, []byte("one")))
	require.Eventually(t, func() bool { return len(c.all()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"one"}, c.all())
}
