package chat

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/compose"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/api"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

const (
	NodeRequestBuilder   = "request_builder"
	NodeChatCall         = "chat_call"
	NodeExchangeRecorder = "exchange_recorder"
)

// Request is one question with the context it is asked in.
type Request struct {
	Identity string
	Profile  model.Profile
	Question string
	Locale   string
}

// Response carries either the exchange or the call's failure. Failures are
// values so the caller sees the API error unchanged.
type Response struct {
	Exchange model.ChatExchange
	Err      error
}

// runState is the graph-local state of one submission.
type runState struct {
	Identity string
	Question string
}

// NewRequestBuilderPreHandler remembers who is asking.
func NewRequestBuilderPreHandler() func(context.Context, Request, *runState) (Request, error) {
	return func(ctx context.Context, in Request, s *runState) (Request, error) {
		s.Identity = in.Identity
		return in, nil
	}
}

// NewRequestBuilderNode normalises the request: the question is trimmed and
// every profile attribute is trimmed so the server always gets the full set.
func NewRequestBuilderNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in Request) (Request, error) {
		in.Question = strings.TrimSpace(in.Question)
		if in.Question == "" {
			return Request{}, errx.ErrEmptyQuestion
		}
		in.Profile = in.Profile.Trimmed()
		return in, nil
	})
}

// NewRequestBuilderPostHandler records the normalised question.
func NewRequestBuilderPostHandler() func(context.Context, Request, *runState) (Request, error) {
	return func(ctx context.Context, out Request, s *runState) (Request, error) {
		s.Question = out.Question
		return out, nil
	}
}

// NewChatCallNode asks the remote assistant.
func NewChatCallNode(client api.Client) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in Request) (*Response, error) {
		ex, err := client.Chat(ctx, in.Identity, in.Profile, in.Question, in.Locale)
		if err != nil {
			return &Response{Err: err}, nil
		}
		return &Response{Exchange: ex}, nil
	})
}

// NewAnswerCondition routes successful answers to the recorder and
// failures straight to the end.
func NewAnswerCondition() func(context.Context, *Response) (string, error) {
	return func(ctx context.Context, in *Response) (string, error) {
		if in == nil || in.Err != nil {
			return compose.END, nil
		}
		return NodeExchangeRecorder, nil
	}
}

// NewExchangeRecorderNode fills in the question when the server left it out.
func NewExchangeRecorderNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in *Response) (*Response, error) {
		err := compose.ProcessState(ctx, func(_ context.Context, s *runState) error {
			if in.Exchange.Question == "" {
				in.Exchange.Question = s.Question
			}
			logx.Debug().Str("identity", s.Identity).Int("answer_chars", len(in.Exchange.Answer)).Msg("chat answered")
			return nil
		})
		if err != nil {
			return nil, err
		}
		return in, nil
	})
}
