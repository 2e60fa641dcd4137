// Package history keeps the displayed chat and detection lists for the
// active identity in step with the server.
package history

import (
	"context"
	"sync"

	"golang.org/x/text/language"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/api"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/i18n"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

// Engine owns one view's copy of the history. Every successful fetch fully
// replaces it; a failed fetch leaves it as it was.
type Engine struct {
	client api.Client
	cache  model.HistoryCache

	mu       sync.Mutex
	gen      uint64
	identity string
	history  model.History
	lastErr  error
}

// NewEngine returns an engine with an empty history. cache may be nil.
func NewEngine(client api.Client, cache model.HistoryCache) *Engine {
	return &Engine{client: client, cache: cache, history: empty()}
}

func empty() model.History {
	return model.History{Chats: []model.ChatExchange{}, Detections: []model.DetectionHistoryEntry{}}
}

// Bind points the engine at identity. Switching identity discards what is
// shown and invalidates every fetch still in flight for the old one; the
// cached last-known-good history, if any, is shown until the first fetch lands.
func (e *Engine) Bind(ctx context.Context, identity string) {
	e.mu.Lock()
	if identity == e.identity {
		e.mu.Unlock()
		return
	}
	e.gen++
	gen := e.gen
	e.identity = identity
	e.history = empty()
	e.lastErr = nil
	e.mu.Unlock()

	if identity == "" || e.cache == nil {
		return
	}
	h, ok, err := e.cache.Load(ctx, identity)
	if err != nil {
		logx.Warn().Err(err).Str("identity", identity).Msg("history cache unavailable")
		return
	}
	if !ok {
		return
	}
	e.mu.Lock()
	if gen == e.gen {
		e.history = h.Clone()
		logx.Debug().Str("identity", identity).Int("chats", len(h.Chats)).Int("detections", len(h.Detections)).Msg("history primed from cache")
	}
	e.mu.Unlock()
}

// Identity returns the bound identity.
func (e *Engine) Identity() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identity
}

// Fetch replaces the history with the server's. Without an identity it
// returns the empty history and makes no call. A response that lands after
// the engine was rebound is dropped with errx.ErrStale.
func (e *Engine) Fetch(ctx context.Context, locale language.Tag) (model.History, error) {
	e.mu.Lock()
	identity, gen := e.identity, e.gen
	e.mu.Unlock()

	if identity == "" {
		return empty(), nil
	}

	h, err := e.client.History(ctx, identity, i18n.Code(locale))

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		logx.Debug().Str("identity", identity).Msg("dropping stale history response")
		return model.History{}, errx.ErrStale
	}
	if err != nil {
		e.lastErr = err
		kept := e.history.Clone()
		e.mu.Unlock()
		logx.Error().Err(err).Str("identity", identity).Msg("failed to fetch history")
		return kept, err
	}
	e.history = h.Clone()
	e.lastErr = nil
	out := e.history.Clone()
	e.mu.Unlock()

	logx.Debug().Str("identity", identity).Int("chats", len(out.Chats)).Int("detections", len(out.Detections)).Msg("history replaced")
	if e.cache != nil {
		if err := e.cache.Store(ctx, identity, out); err != nil {
			logx.Warn().Err(err).Str("identity", identity).Msg("failed to cache history")
		}
	}
	return out, nil
}

// History returns a copy of what is currently displayed.
func (e *Engine) History() model.History {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Clone()
}

// Chats returns the displayed chat list in server order.
func (e *Engine) Chats() []model.ChatExchange {
	return e.History().Chats
}

// Detections returns the displayed detection list in server order.
func (e *Engine) Detections() []model.DetectionHistoryEntry {
	return e.History().Detections
}

// LastError returns the error of the most recent fetch, nil if it succeeded.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// ErrorMessage renders the last fetch error in locale under key, or "".
func (e *Engine) ErrorMessage(locale language.Tag, key string) string {
	return i18n.Localize(locale, key, e.LastError())
}
