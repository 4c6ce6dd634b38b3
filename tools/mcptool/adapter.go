package mcptool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/weather-agent/pkg/metricskey"
	"github.com/effective-security/weather-agent/pkg/schema"
	"github.com/effective-security/weather-agent/tools"
	"github.com/effective-security/xlog"
	"github.com/mark3labs/mcp-go/mcp"
)

// syncTool adapts one remote MCP tool to the ITool interface. The model
// produces a single string input; the adapter normalizes it into the
// argument map the remote tool expects, and renders every failure as a
// plain-text observation so the conversation loop keeps running.
type syncTool struct {
	client      Client
	name        string
	description string
	params      any
	runner      Runner
	timeout     time.Duration
}

var _ tools.ITool = (*syncTool)(nil)

func newSyncTool(client Client, t mcp.Tool, runner Runner, timeout time.Duration) *syncTool {
	var params any = t.InputSchema
	if sc, err := schema.FromAny(t.InputSchema); err == nil {
		params = sc
	} else {
		logger.KV(xlog.WARNING,
			"tool", t.Name,
			"reason", "unparsable input schema",
			"err", err.Error(),
		)
	}
	return &syncTool{
		client:      client,
		name:        t.Name,
		description: t.Description,
		params:      params,
		runner:      runner,
		timeout:     timeout,
	}
}

func (t *syncTool) Name() string {
	return t.name
}

func (t *syncTool) Description() string {
	return t.description
}

func (t *syncTool) Parameters() any {
	return t.params
}

// Call invokes the remote tool and always returns a textual observation.
// The error result is always nil: transport failures, timeouts and
// remote-reported errors come back as an "Error calling ..." string that
// the model can read and react to.
func (t *syncTool) Call(ctx context.Context, input string) (string, error) {
	defer metricskey.PerfToolCall.MeasureSince(time.Now(), t.name)

	args := parseArguments(input)
	out, err := t.runner.Run(ctx, func(ctx context.Context) (string, error) {
		return t.invoke(ctx, args)
	})
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, t.name)
		logger.ContextKV(ctx, xlog.WARNING,
			"tool", t.name,
			"err", err.Error(),
		)
		return fmt.Sprintf("Error calling %s: %s", t.name, err.Error()), nil
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, t.name)
	return out, nil
}

func (t *syncTool) invoke(ctx context.Context, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = t.name
	req.Params.Arguments = args

	res, err := t.client.CallTool(ctx, req)
	if err != nil {
		return "", errors.WithStack(err)
	}

	content := extractContent(res)
	if res.IsError {
		if content == "" {
			content = "tool reported an error"
		}
		return "", errors.New(content)
	}
	if content == "" {
		return fmt.Sprintf("No result from %s", t.name), nil
	}
	return content, nil
}

// parseArguments turns the model-produced input string into the argument
// map for the remote tool. A braced string is decoded as a JSON object;
// anything else, including malformed JSON, is treated as a bare location
// value.
func parseArguments(input string) map[string]any {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var args map[string]any
		if err := json.Unmarshal([]byte(trimmed), &args); err == nil {
			return args
		}
	}
	return map[string]any{"location": trimmed}
}

func extractContent(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
