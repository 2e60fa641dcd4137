package chat

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/text/language"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/dictation"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/history"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/i18n"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

// Controller is the chat view for one SessionContext at a time. At most one
// submission is in flight.
type Controller struct {
	pipeline *Pipeline
	history  *history.Engine
	locale   language.Tag
	inflight *semaphore.Weighted
	sending  atomic.Bool

	mu        sync.Mutex
	gen       uint64
	sc        model.SessionContext
	question  string
	latest    model.ChatExchange
	hasLatest bool
	err       error
	message   string
}

func NewController(pipeline *Pipeline, engine *history.Engine, locale language.Tag) *Controller {
	return &Controller{
		pipeline: pipeline,
		history:  engine,
		locale:   locale,
		inflight: semaphore.NewWeighted(1),
	}
}

// Enter takes ownership of sc. History is loaded only when sc carries an
// identity.
func (c *Controller) Enter(ctx context.Context, sc model.SessionContext) error {
	c.mu.Lock()
	c.gen++
	c.sc = sc
	c.question = ""
	c.latest, c.hasLatest = model.ChatExchange{}, false
	c.err, c.message = nil, ""
	c.mu.Unlock()

	c.history.Bind(ctx, sc.Identity())
	if !sc.HasIdentity() {
		return nil
	}
	if _, err := c.history.Fetch(ctx, c.locale); err != nil {
		if errx.KindOf(err) == errx.KindValidation {
			return err
		}
		c.mu.Lock()
		c.fail(err, "chatbot.error_fetch_history")
		c.mu.Unlock()
		return err
	}
	return nil
}

// fail records err for display; callers hold mu.
func (c *Controller) fail(err error, key string) {
	c.err = err
	c.message = i18n.Localize(c.locale, key, err)
}

// Context returns the context the chat view is working with.
func (c *Controller) Context() model.SessionContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sc
}

// SetQuestion replaces the pending question.
func (c *Controller) SetQuestion(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.question = q
}

// AppendDictation merges a transcript into the pending question.
func (c *Controller) AppendDictation(transcript string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.question = dictation.Merge(c.question, transcript)
}

// Question returns the pending question.
func (c *Controller) Question() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.question
}

// Busy reports whether a submission is in flight; the send action is
// disabled while it is. It never touches the submission slot.
func (c *Controller) Busy() bool {
	return c.sending.Load()
}

// Ask sets the question and submits it.
func (c *Controller) Ask(ctx context.Context, question string) (model.ChatExchange, error) {
	c.SetQuestion(question)
	return c.Submit(ctx)
}

// Submit sends the pending question with the full profile as context. On
// success the question is cleared, the answer becomes the latest response
// and history is refetched. On failure the question stays for a retry.
func (c *Controller) Submit(ctx context.Context) (model.ChatExchange, error) {
	c.mu.Lock()
	asked := c.question
	if strings.TrimSpace(asked) == "" {
		c.fail(errx.ErrEmptyQuestion, "chatbot.error_chat_request")
		c.mu.Unlock()
		return model.ChatExchange{}, errx.ErrEmptyQuestion
	}
	c.mu.Unlock()

	if !c.inflight.TryAcquire(1) {
		return model.ChatExchange{}, errx.ErrInFlight
	}
	c.sending.Store(true)
	defer func() {
		c.sending.Store(false)
		c.inflight.Release(1)
	}()

	c.mu.Lock()
	gen, sc := c.gen, c.sc
	c.err, c.message = nil, ""
	c.mu.Unlock()

	resp, err := c.pipeline.Run(ctx, Request{
		Identity: sc.Identity(),
		Profile:  sc.Profile(),
		Question: asked,
		Locale:   i18n.Code(c.locale),
	})

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		logx.Debug().Msg("dropping chat answer for a superseded context")
		return model.ChatExchange{}, errx.ErrStale
	}
	if err != nil {
		key := "chatbot.error_chat_request"
		if errx.IsDomain(err) {
			key = "chatbot.error_chat_failed"
		}
		c.fail(err, key)
		c.mu.Unlock()
		logx.Warn().Err(err).Str("identity", sc.Identity()).Msg("chat request failed")
		return model.ChatExchange{}, err
	}
	if c.question == asked {
		c.question = ""
	}
	c.latest, c.hasLatest = resp.Exchange, true
	c.mu.Unlock()

	// the refetch may land before the server persisted the new exchange;
	// latest covers that window
	if sc.HasIdentity() {
		if _, ferr := c.history.Fetch(ctx, c.locale); ferr != nil && errx.KindOf(ferr) != errx.KindValidation {
			c.mu.Lock()
			if gen == c.gen {
				c.fail(ferr, "chatbot.error_fetch_history")
			}
			c.mu.Unlock()
		}
	}
	return resp.Exchange, nil
}

// Latest returns the most recent answer received by this controller.
func (c *Controller) Latest() (model.ChatExchange, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.hasLatest
}

// Chats returns the displayed chat history.
func (c *Controller) Chats() []model.ChatExchange {
	return c.history.Chats()
}

// Err returns the error shown to the farmer, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Message returns the localized text for Err.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Dismiss clears the displayed error.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err, c.message = nil, ""
}

// EmptyMessage is shown when there is no chat history.
func (c *Controller) EmptyMessage() string {
	return i18n.T(c.locale, "chatbot.no_chats")
}
