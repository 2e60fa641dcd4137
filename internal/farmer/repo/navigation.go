package repo

import (
	"context"

	"github.com/redis/go-redis/v9"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

// RedisNavigationSource receives the map view's messages over Redis Pub/Sub.
type RedisNavigationSource struct {
	rdb     *redis.Client
	channel string
}

func NewRedisNavigationSource(rdb *redis.Client, channel string) *RedisNavigationSource {
	return &RedisNavigationSource{rdb: rdb, channel: channel}
}

// Listen subscribes and delivers each published payload once. It returns nil
// when ctx ends.
func (r *RedisNavigationSource) Listen(ctx context.Context, deliver func(payload []byte)) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer func() { _ = sub.Close() }()

	// wait for the subscription to be confirmed so no early publish is lost
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logx.Error().Err(err).Str("channel", r.channel).Msg("failed to subscribe")
		return errx.WrapRedis(err)
	}
	logx.Debug().Str("channel", r.channel).Msg("listening for map navigation")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			deliver([]byte(msg.Payload))
		}
	}
}

var _ model.NavigationSource = (*RedisNavigationSource)(nil)

// ChannelNavigationSource is an in-process NavigationSource fed by Send.
type ChannelNavigationSource struct {
	ch chan []byte
}

func NewChannelNavigationSource() *ChannelNavigationSource {
	return &ChannelNavigationSource{ch: make(chan []byte, 8)}
}

// Send queues a payload, blocking while the queue is full or until ctx ends.
func (c *ChannelNavigationSource) Send(ctx context.Context, payload []byte) error {
	select {
	case c.ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ChannelNavigationSource) Listen(ctx context.Context, deliver func(payload []byte)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case p := <-c.ch:
			deliver(p)
		}
	}
}

var _ model.NavigationSource = (*ChannelNavigationSource)(nil)
