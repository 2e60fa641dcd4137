// Package chat drives the question and answer workflow with the remote
// assistant.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/krishthi-drishti/farmer-client/internal/farmer/api"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/observers"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

// Pipeline runs one chat submission through the compiled graph.
type Pipeline struct {
	runnable compose.Runnable[Request, *Response]
}

// Run submits req. Errors are the API's own, or the request builder's
// validation error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Response, error) {
	out, err := p.runnable.Invoke(ctx, req, compose.WithCallbacks(observers.NewLogHandler()))
	if err != nil {
		return nil, fmt.Errorf("chat pipeline: %w", err)
	}
	if out == nil {
		return nil, errors.New("chat pipeline returned nothing")
	}
	if out.Err != nil {
		return nil, out.Err
	}
	return out, nil
}

// GraphBuilder assembles the chat submission graph.
type GraphBuilder struct {
	client api.Client
	graph  *compose.Graph[Request, *Response]
}

// BuildPipeline compiles the chat graph over client.
func BuildPipeline(ctx context.Context, client api.Client) (*Pipeline, error) {
	if client == nil {
		return nil, fmt.Errorf("api client is nil")
	}
	b := &GraphBuilder{
		client: client,
		graph: compose.NewGraph[Request, *Response](
			compose.WithGenLocalState(func(ctx context.Context) *runState {
				return &runState{}
			}),
		),
	}

	if err := b.addNodes(); err != nil {
		return nil, err
	}
	if err := b.addEdges(); err != nil {
		return nil, err
	}
	if err := b.addBranches(); err != nil {
		return nil, err
	}

	runnable, err := b.compile(ctx)
	if err != nil {
		return nil, err
	}
	logx.Debug().Msg("chat pipeline built")
	return &Pipeline{runnable: runnable}, nil
}

func (b *GraphBuilder) addNodes() error {
	if err := b.graph.AddLambdaNode(NodeRequestBuilder,
		NewRequestBuilderNode(),
		compose.WithNodeName(NodeRequestBuilder),
		compose.WithStatePreHandler(NewRequestBuilderPreHandler()),
		compose.WithStatePostHandler(NewRequestBuilderPostHandler()),
	); err != nil {
		return fmt.Errorf("add %s: %w", NodeRequestBuilder, err)
	}

	if err := b.graph.AddLambdaNode(NodeChatCall,
		NewChatCallNode(b.client),
		compose.WithNodeName(NodeChatCall),
	); err != nil {
		return fmt.Errorf("add %s: %w", NodeChatCall, err)
	}

	if err := b.graph.AddLambdaNode(NodeExchangeRecorder,
		NewExchangeRecorderNode(),
		compose.WithNodeName(NodeExchangeRecorder),
	); err != nil {
		return fmt.Errorf("add %s: %w", NodeExchangeRecorder, err)
	}
	return nil
}

func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, NodeRequestBuilder},
		{NodeRequestBuilder, NodeChatCall},
		{NodeExchangeRecorder, compose.END},
	}
	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("add edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

func (b *GraphBuilder) addBranches() error {
	answerBranch := compose.NewGraphBranch(
		NewAnswerCondition(),
		map[string]bool{
			NodeExchangeRecorder: true,
			compose.END:          true,
		},
	)
	if err := b.graph.AddBranch(NodeChatCall, answerBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding answer branch")
		return fmt.Errorf("error adding answer branch: %w", err)
	}
	return nil
}

func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[Request, *Response], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(10), compose.WithGraphName("chat_submission"))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling chat graph")
		return nil, fmt.Errorf("error compiling chat graph: %w", err)
	}
	return runnable, nil
}
