package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

// RedisHistoryCache keeps the last-known-good history per identity. Chats are
// stored as alternating user/assistant messages, detections as one JSON blob
// whose presence marks the entry as cached.
type RedisHistoryCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisHistoryCache(rdb redis.Cmdable, ttl time.Duration) *RedisHistoryCache {
	return &RedisHistoryCache{rdb: rdb, ttl: ttl}
}

func (r *RedisHistoryCache) chatsKey(identity string) string {
	return fmt.Sprintf("history:%s:chats", identity)
}

func (r *RedisHistoryCache) detectionsKey(identity string) string {
	return fmt.Sprintf("history:%s:detections", identity)
}

// Store replaces everything cached for identity in one transaction.
func (r *RedisHistoryCache) Store(ctx context.Context, identity string, h model.History) error {
	msgs := make([]any, 0, 2*len(h.Chats))
	for _, c := range h.Chats {
		for _, m := range []*schema.Message{schema.UserMessage(c.Question), schema.AssistantMessage(c.Answer, nil)} {
			b, err := json.Marshal(m)
			if err != nil {
				logx.Error().Err(err).Str("identity", identity).Msg("failed to marshal message")
				return fmt.Errorf("marshal message: %w", err)
			}
			msgs = append(msgs, b)
		}
	}
	detections := h.Detections
	if detections == nil {
		detections = []model.DetectionHistoryEntry{}
	}
	db, err := json.Marshal(detections)
	if err != nil {
		return fmt.Errorf("marshal detections: %w", err)
	}

	chatsKey, detKey := r.chatsKey(identity), r.detectionsKey(identity)
	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, chatsKey)
		if len(msgs) > 0 {
			p.RPush(ctx, chatsKey, msgs...)
			if r.ttl > 0 {
				p.Expire(ctx, chatsKey, r.ttl)
			}
		}
		p.Set(ctx, detKey, db, r.ttl)
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("identity", identity).Msg("failed to store history in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// Load returns the cached history; ok is false if nothing was ever stored or it expired.
func (r *RedisHistoryCache) Load(ctx context.Context, identity string) (model.History, bool, error) {
	detKey := r.detectionsKey(identity)
	raw, err := r.rdb.Get(ctx, detKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.History{}, false, nil
		}
		logx.Error().Err(err).Str("key", detKey).Msg("failed to load detections from redis")
		return model.History{}, false, errx.WrapRedis(err)
	}
	h := model.History{Chats: []model.ChatExchange{}}
	if err := json.Unmarshal(raw, &h.Detections); err != nil {
		return model.History{}, false, fmt.Errorf("unmarshal detections: %w", err)
	}

	chatsKey := r.chatsKey(identity)
	rows, err := r.rdb.LRange(ctx, chatsKey, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", chatsKey).Msg("failed to load chats from redis")
		return model.History{}, false, errx.WrapRedis(err)
	}

	var pending *model.ChatExchange
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("identity", identity).Int("index", i).Msg("failed to unmarshal message")
			return model.History{}, false, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		switch m.Role {
		case schema.User:
			pending = &model.ChatExchange{Question: m.Content}
		case schema.Assistant:
			if pending == nil {
				pending = &model.ChatExchange{}
			}
			pending.Answer = m.Content
			h.Chats = append(h.Chats, *pending)
			pending = nil
		}
	}
	return h, true, nil
}

var _ model.HistoryCache = (*RedisHistoryCache)(nil)

// MemoryHistoryCache is the HistoryCache used when no Redis is configured.
type MemoryHistoryCache struct {
	c *cache.Cache
}

// NewMemoryHistoryCache keeps entries for ttl; zero keeps them forever.
// Expired entries are dropped lazily on read.
func NewMemoryHistoryCache(ttl time.Duration) *MemoryHistoryCache {
	return &MemoryHistoryCache{c: cache.New(ttl, 0)}
}

func (m *MemoryHistoryCache) Store(_ context.Context, identity string, h model.History) error {
	m.c.SetDefault(identity, h.Clone())
	return nil
}

func (m *MemoryHistoryCache) Load(_ context.Context, identity string) (model.History, bool, error) {
	v, ok := m.c.Get(identity)
	if !ok {
		return model.History{}, false, nil
	}
	return v.(model.History).Clone(), true, nil
}

var _ model.HistoryCache = (*MemoryHistoryCache)(nil)
