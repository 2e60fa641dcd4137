package observers

import (
	"bytes"
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/stretchr/testify/assert"

	"github.com/krishthi-drishti/farmer-client/internal/core"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

func TestNewLogHandler(t *testing.T) {
	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Production, Output: &buf})
	t.Cleanup(logx.Disable)

	h := NewLogHandler()
	info := &einocb.RunInfo{Name: "chat_call", Component: "Lambda"}

	ctx := h.OnStart(context.Background(), info, nil)
	h.OnError(ctx, info, errors.New("boom"))
	h.OnEnd(ctx, nil, nil)

	out := buf.String()
	assert.Contains(t, out, `"node":"chat_call"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, "node failed")
	// debug events are filtered in production
	assert.NotContains(t, out, "node start")
}
