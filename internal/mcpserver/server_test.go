package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ytshots/internal/media"
)

type fakeTaker struct {
	shots []media.Screenshot
	err   error

	gotURL        string
	gotTimestamps []string
	gotDir        string
	calls         int
}

func (f *fakeTaker) Take(ctx context.Context, videoURL string, timestamps []string, outputDir string) ([]media.Screenshot, error) {
	f.calls++
	f.gotURL, f.gotTimestamps, f.gotDir = videoURL, timestamps, outputDir
	return f.shots, f.err
}

type fakeRecorder struct {
	stem  string
	shots []media.Screenshot
}

func (f *fakeRecorder) Record(ctx context.Context, videoURL, stem string, shots []media.Screenshot) (string, error) {
	f.stem, f.shots = stem, shots
	return "run-1", nil
}

func call(t *testing.T, h *Handler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = ToolName
	req.Params.Arguments = args

	res, err := h.Handle(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultPaths(t *testing.T, res *mcp.CallToolResult) []string {
	t.Helper()
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])

	var paths []string
	require.NoError(t, json.Unmarshal([]byte(text.Text), &paths))
	return paths
}

func TestHandleReturnsPaths(t *testing.T) {
	taker := &fakeTaker{shots: []media.Screenshot{
		{Timestamp: "10", Path: "/out/video_ABC_ts_10.jpg"},
		{Timestamp: "0:45", Path: "/out/video_ABC_ts_0_45.jpg"},
	}}
	rec := &fakeRecorder{}
	h := NewHandler(taker, rec, "screenshots", zaptest.NewLogger(t))

	res := call(t, h, map[string]any{
		"youtube_url": "https://x.test/watch?v=ABC",
		"timestamps":  []any{float64(10), "0:45", 12.5},
		"output_dir":  "/out",
	})

	assert.Equal(t, []string{"/out/video_ABC_ts_10.jpg", "/out/video_ABC_ts_0_45.jpg"}, resultPaths(t, res))
	assert.Equal(t, "https://x.test/watch?v=ABC", taker.gotURL)
	assert.Equal(t, []string{"10", "0:45", "12.5"}, taker.gotTimestamps)
	assert.Equal(t, "/out", taker.gotDir)
	assert.Equal(t, "ABC", rec.stem)
	assert.Len(t, rec.shots, 2)
}

func TestHandleDefaultOutputDir(t *testing.T) {
	taker := &fakeTaker{}
	h := NewHandler(taker, nil, "screenshots", zaptest.NewLogger(t))

	call(t, h, map[string]any{
		"youtube_url": "https://x.test/watch?v=ABC",
		"timestamps":  []any{"10"},
	})

	assert.Equal(t, "screenshots", taker.gotDir)
}

func TestHandleBatchFailureReturnsEmptyList(t *testing.T) {
	taker := &fakeTaker{err: errors.New("no stream URL resolved")}
	rec := &fakeRecorder{}
	h := NewHandler(taker, rec, "screenshots", zaptest.NewLogger(t))

	res := call(t, h, map[string]any{
		"youtube_url": "https://x.test/watch?v=ABC",
		"timestamps":  []any{"10"},
	})

	assert.Equal(t, []string{}, resultPaths(t, res))
	assert.Nil(t, rec.shots, "empty batches are not recorded")
}

func TestHandleArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing url", map[string]any{"timestamps": []any{"10"}}},
		{"missing timestamps", map[string]any{"youtube_url": "https://x.test/v"}},
		{"timestamps not a list", map[string]any{"youtube_url": "https://x.test/v", "timestamps": "10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taker := &fakeTaker{}
			h := NewHandler(taker, nil, "screenshots", zaptest.NewLogger(t))

			res := call(t, h, tt.args)
			assert.True(t, res.IsError)
			assert.Zero(t, taker.calls)
		})
	}
}

func TestTool(t *testing.T) {
	h := NewHandler(&fakeTaker{}, nil, "screenshots", zaptest.NewLogger(t))
	tool := h.Tool()

	assert.Equal(t, ToolName, tool.Name)
	assert.ElementsMatch(t, []string{"youtube_url", "timestamps"}, tool.InputSchema.Required)
	assert.Contains(t, tool.InputSchema.Properties, "output_dir")
}

func TestNewRegistersTool(t *testing.T) {
	h := NewHandler(&fakeTaker{}, nil, "screenshots", zaptest.NewLogger(t))
	s := New(h, "test")
	require.NotNil(t, s)
}

func TestServeUnknownTransport(t *testing.T) {
	h := NewHandler(&fakeTaker{}, nil, "screenshots", zaptest.NewLogger(t))
	err := Serve(context.Background(), New(h, "test"), "pigeon", "", zaptest.NewLogger(t))
	assert.Error(t, err)
}
