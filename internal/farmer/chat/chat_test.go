package chat

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/api"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/api/apitest"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/history"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

const identity = "123456789012"

func init() {
	logx.Disable()
}

func newController(t *testing.T, fake *apitest.Fake, locale language.Tag) *Controller {
	t.Helper()
	p, err := BuildPipeline(context.Background(), fake)
	require.NoError(t, err)
	return NewController(p, history.NewEngine(fake, nil), locale)
}

func lookupContext(t *testing.T) model.SessionContext {
	t.Helper()
	sc, err := model.NewSessionContext(identity, model.Profile{Name: " Ravi ", CropsGrown: "wheat"}, model.OriginLookup)
	require.NoError(t, err)
	return sc
}

func TestBuildPipeline_NilClient(t *testing.T) {
	_, err := BuildPipeline(context.Background(), nil)
	assert.Error(t, err)
}

func TestPipeline_Run(t *testing.T) {
	fake := apitest.New()
	p, err := BuildPipeline(context.Background(), fake)
	require.NoError(t, err)

	resp, err := p.Run(context.Background(), Request{
		Identity: identity,
		Profile:  model.Profile{Name: " Ravi "},
		Question: "  when to sow?  ",
		Locale:   "en",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ChatExchange{Question: "when to sow?", Answer: "answer to when to sow?"}, resp.Exchange)
	assert.Equal(t, "Ravi", fake.LastChatProfile.Name)

	fake.FailNext(api.EndpointChat, errx.Transport(errors.New("down"), 0))
	_, err = p.Run(context.Background(), Request{Question: "again"})
	assert.True(t, errx.IsTransport(err))

	_, err = p.Run(context.Background(), Request{Question: "   "})
	assert.Error(t, err)
}

func TestEnter_LoadsHistoryOnlyWithIdentity(t *testing.T) {
	fake := apitest.New()
	fake.AddChat(identity, model.ChatExchange{Question: "q", Answer: "a"})
	c := newController(t, fake, language.English)

	require.NoError(t, c.Enter(context.Background(), model.SessionContext{}))
	assert.Zero(t, fake.Calls(api.EndpointHistory))
	assert.Empty(t, c.Chats())

	require.NoError(t, c.Enter(context.Background(), lookupContext(t)))
	assert.Equal(t, 1, fake.Calls(api.EndpointHistory))
	assert.Len(t, c.Chats(), 1)
}

func TestSubmit_EmptyQuestion(t *testing.T) {
	fake := apitest.New()
	c := newController(t, fake, language.English)
	require.NoError(t, c.Enter(context.Background(), lookupContext(t)))

	_, err := c.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, errx.ErrEmptyQuestion)
	assert.Equal(t, "Please type a question", c.Message())
	assert.Zero(t, fake.Calls(api.EndpointChat))
}

func TestSubmit_SuccessAppliesAnswerAndRefetches(t *testing.T) {
	fake := apitest.New()
	c := newController(t, fake, language.English)
	ctx := context.Background()
	require.NoError(t, c.Enter(ctx, lookupContext(t)))
	before := fake.Calls(api.EndpointHistory)

	c.SetQuestion("why yellow leaves?")
	ex, err := c.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, "why yellow leaves?", ex.Question)
	assert.Empty(t, c.Question())
	latest, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, ex, latest)
	assert.Equal(t, before+1, fake.Calls(api.EndpointHistory))
	assert.Equal(t, []model.ChatExchange{ex}, c.Chats())

	assert.Equal(t, model.Profile{Name: "Ravi", CropsGrown: "wheat"}, fake.LastChatProfile)
}

func TestSubmit_FailureKeepsQuestion(t *testing.T) {
	fake := apitest.New()
	c := newController(t, fake, language.Hindi)
	ctx := context.Background()
	require.NoError(t, c.Enter(ctx, lookupContext(t)))

	fake.FailNext(api.EndpointChat, errx.Transport(errors.New("timeout"), 0))
	_, err := c.Ask(ctx, "what fertiliser?")
	assert.True(t, errx.IsTransport(err))
	assert.Equal(t, "what fertiliser?", c.Question())
	assert.Equal(t, "चैट अनुरोध विफल रहा", c.Message())
	_, ok := c.Latest()
	assert.False(t, ok)

	_, err = c.Submit(ctx)
	require.NoError(t, err)
	assert.Empty(t, c.Question())
	assert.Empty(t, c.Message())
}

func TestSubmit_SingleFlight(t *testing.T) {
	fake := apitest.New()
	c := newController(t, fake, language.English)
	ctx := context.Background()
	require.NoError(t, c.Enter(ctx, lookupContext(t)))

	gate := fake.Hold(api.EndpointChat)
	done := make(chan error, 1)
	go func() {
		_, err := c.Ask(ctx, "first")
		done <- err
	}()
	<-gate.Entered

	assert.True(t, c.Busy())
	_, err := c.Ask(ctx, "second")
	assert.ErrorIs(t, err, errx.ErrInFlight)

	gate.Release()
	require.NoError(t, <-done)
	assert.False(t, c.Busy())
	assert.Equal(t, 1, fake.Calls(api.EndpointChat))
	// the question typed during the flight is not wiped by the first answer
	assert.Equal(t, "second", c.Question())
}

func TestSubmit_LateAnswerForOldContextDropped(t *testing.T) {
	fake := apitest.New()
	c := newController(t, fake, language.English)
	ctx := context.Background()
	require.NoError(t, c.Enter(ctx, lookupContext(t)))

	gate := fake.Hold(api.EndpointChat)
	done := make(chan error, 1)
	go func() {
		_, err := c.Ask(ctx, "first")
		done <- err
	}()
	<-gate.Entered

	other, err := model.NewSessionContext("210987654321", model.Profile{}, model.OriginLookup)
	require.NoError(t, err)
	require.NoError(t, c.Enter(ctx, other))
	gate.Release()

	assert.ErrorIs(t, <-done, errx.ErrStale)
	_, ok := c.Latest()
	assert.False(t, ok)
	assert.Empty(t, c.Chats())
}

func TestAppendDictation(t *testing.T) {
	fake := apitest.New()
	c := newController(t, fake, language.English)
	require.NoError(t, c.Enter(context.Background(), lookupContext(t)))

	c.SetQuestion("my wheat")
	c.AppendDictation("has rust spots")
	assert.Equal(t, "my wheat has rust spots", c.Question())
}

func TestBusy_PollingDoesNotBlockSubmit(t *testing.T) {
	fake := apitest.New()
	c := newController(t, fake, language.English)
	ctx := context.Background()
	require.NoError(t, c.Enter(ctx, lookupContext(t)))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					c.Busy()
				}
			}
		}()
	}

	const rounds = 300
	rejected := 0
	for i := 0; i < rounds; i++ {
		if _, err := c.Ask(ctx, "q"); errors.Is(err, errx.ErrInFlight) {
			rejected++
		}
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, rejected)
	assert.Equal(t, rounds, fake.Calls(api.EndpointChat))
	assert.False(t, c.Busy())
}

func TestSubmit_ServerRejectionMessage(t *testing.T) {
	fake := apitest.New()
	c := newController(t, fake, language.English)
	ctx := context.Background()
	require.NoError(t, c.Enter(ctx, lookupContext(t)))

	fake.FailNext(api.EndpointChat, errx.Domain(http.StatusBadRequest, "question too long"))
	_, err := c.Ask(ctx, "a very long question")
	assert.True(t, errx.IsDomain(err))
	assert.Equal(t, "The assistant could not answer: question too long", c.Message())
	assert.Equal(t, "a very long question", c.Question())
}
