package mcptool

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	initErr  error
	listRes  *mcp.ListToolsResult
	listErr  error
	callFn   func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	lastCall mcp.CallToolRequest
	closed   bool
}

func (f *fakeClient) Initialize(_ context.Context, _ mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &mcp.InitializeResult{}, nil
}

func (f *fakeClient) ListTools(_ context.Context, _ mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	return f.listRes, f.listErr
}

func (f *fakeClient) CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.lastCall = req
	return f.callFn(ctx, req)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func weatherTools() *mcp.ListToolsResult {
	return &mcp.ListToolsResult{
		Tools: []mcp.Tool{
			{
				Name:        "get_weather",
				Description: "Returns the current weather for a location.",
				InputSchema: mcp.ToolInputSchema{
					Type: "object",
					Properties: map[string]any{
						"location": map[string]any{"type": "string"},
					},
				},
			},
			{
				Name:        "get_forecast",
				Description: "Returns a multi-day forecast for a location.",
				InputSchema: mcp.ToolInputSchema{
					Type: "object",
					Properties: map[string]any{
						"location": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func TestParseArguments(t *testing.T) {
	t.Parallel()

	tcases := []struct {
		name  string
		input string
		exp   map[string]any
	}{
		{
			name:  "json object",
			input: `{"location": "Paris"}`,
			exp:   map[string]any{"location": "Paris"},
		},
		{
			name:  "bare location",
			input: "  Paris  ",
			exp:   map[string]any{"location": "Paris"},
		},
		{
			name:  "unterminated brace",
			input: "{not json",
			exp:   map[string]any{"location": "{not json"},
		},
		{
			name:  "braced but malformed",
			input: "{not: json}",
			exp:   map[string]any{"location": "{not: json}"},
		},
		{
			name:  "extra fields preserved",
			input: `{"location": "Tokyo", "units": "metric"}`,
			exp:   map[string]any{"location": "Tokyo", "units": "metric"},
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, parseArguments(tc.input))
		})
	}
}

func TestDiscover(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		fc := &fakeClient{listRes: weatherTools()}
		reg, err := Discover(ctx, "http://localhost:8080/mcp", WithClient(fc))
		require.NoError(t, err)
		require.Equal(t, 2, reg.Len())

		names := make([]string, 0, reg.Len())
		for _, tl := range reg.Tools() {
			names = append(names, tl.Name())
		}
		assert.Equal(t, []string{"get_weather", "get_forecast"}, names)

		tl, ok := reg.Tool("get_weather")
		require.True(t, ok)
		assert.Equal(t, "Returns the current weather for a location.", tl.Description())
		assert.NotNil(t, tl.Parameters())

		_, ok = reg.Tool("no_such_tool")
		assert.False(t, ok)

		require.NoError(t, reg.Close())
		assert.True(t, fc.closed)
	})

	t.Run("no tools", func(t *testing.T) {
		fc := &fakeClient{listRes: &mcp.ListToolsResult{}}
		_, err := Discover(ctx, "http://localhost:8080/mcp", WithClient(fc))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoTools))
		assert.True(t, fc.closed)
	})

	t.Run("list fails", func(t *testing.T) {
		fc := &fakeClient{listErr: errors.New("connection refused")}
		_, err := Discover(ctx, "http://localhost:8080/mcp", WithClient(fc))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrServerUnreachable))
	})

	t.Run("handshake fails", func(t *testing.T) {
		fc := &fakeClient{initErr: errors.New("handshake rejected")}
		_, err := Discover(ctx, "http://localhost:8080/mcp", WithClient(fc))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrServerUnreachable))
	})
}

func TestSyncToolCall(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	discover := func(t *testing.T, fc *fakeClient) *Registry {
		t.Helper()
		fc.listRes = weatherTools()
		reg, err := Discover(ctx, "http://localhost:8080/mcp", WithClient(fc), WithRunner(CallerRunner{}))
		require.NoError(t, err)
		return reg
	}

	t.Run("success", func(t *testing.T) {
		fc := &fakeClient{
			callFn: func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return textResult("London: 18C, partly cloudy"), nil
			},
		}
		reg := discover(t, fc)
		tl, _ := reg.Tool("get_weather")

		out, err := tl.Call(ctx, "London")
		require.NoError(t, err)
		assert.Equal(t, "London: 18C, partly cloudy", out)
		assert.Equal(t, "get_weather", fc.lastCall.Params.Name)
		assert.Equal(t, map[string]any{"location": "London"}, fc.lastCall.Params.Arguments)
	})

	t.Run("transport failure contained", func(t *testing.T) {
		fc := &fakeClient{
			callFn: func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return nil, errors.New("connection reset")
			},
		}
		reg := discover(t, fc)
		tl, _ := reg.Tool("get_weather")

		out, err := tl.Call(ctx, "London")
		require.NoError(t, err)
		assert.Contains(t, out, "Error calling get_weather:")
		assert.Contains(t, out, "connection reset")
	})

	t.Run("remote error contained", func(t *testing.T) {
		fc := &fakeClient{
			callFn: func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				res := textResult("unknown location")
				res.IsError = true
				return res, nil
			},
		}
		reg := discover(t, fc)
		tl, _ := reg.Tool("get_weather")

		out, err := tl.Call(ctx, "Atlantis")
		require.NoError(t, err)
		assert.Equal(t, "Error calling get_weather: unknown location", out)
	})

	t.Run("empty result", func(t *testing.T) {
		fc := &fakeClient{
			callFn: func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return &mcp.CallToolResult{}, nil
			},
		}
		reg := discover(t, fc)
		tl, _ := reg.Tool("get_weather")

		out, err := tl.Call(ctx, "London")
		require.NoError(t, err)
		assert.Equal(t, "No result from get_weather", out)
	})
}

func TestRunners(t *testing.T) {
	t.Parallel()

	t.Run("caller runs inline", func(t *testing.T) {
		out, err := CallerRunner{}.Run(context.Background(), func(_ context.Context) (string, error) {
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
	})

	t.Run("detached returns result", func(t *testing.T) {
		out, err := DetachedRunner{}.Run(context.Background(), func(_ context.Context) (string, error) {
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
	})

	t.Run("detached abandons on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		started := make(chan struct{})
		release := make(chan struct{})
		done := make(chan struct{})

		go func() {
			_, err := DetachedRunner{}.Run(ctx, func(_ context.Context) (string, error) {
				close(started)
				<-release
				return "late", nil
			})
			assert.ErrorIs(t, err, context.Canceled)
			close(done)
		}()

		<-started
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("runner did not return after cancel")
		}
		// the abandoned invocation still completes
		close(release)
	})
}
