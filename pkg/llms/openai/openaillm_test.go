package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/effective-security/weather-agent/pkg/llms"
	"github.com/effective-security/weather-agent/pkg/llms/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	var gotReq map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "get_weather", "arguments": "{\"location\": \"London\"}"}
					}]
				},
				"finish_reason": "tool_calls"
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer ts.Close()

	llm, err := openai.New(
		openai.WithToken("test-token"),
		openai.WithModel("gpt-4o-mini"),
		openai.WithBaseURL(ts.URL),
	)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", llm.GetName())
	assert.Equal(t, llms.ProviderOpenAI, llm.GetProviderType())

	resp, err := llm.GenerateContent(context.Background(),
		[]llms.Message{
			llms.MessageFromTextParts(llms.RoleSystem, "You answer weather questions."),
			llms.MessageFromTextParts(llms.RoleHuman, "weather in London?"),
		},
		llms.WithTools([]llms.Tool{{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "get_weather",
				Description: "Returns the current weather for a location.",
			},
		}}),
	)
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)

	choice := resp.Choices[0]
	require.Len(t, choice.ToolCalls, 1)
	assert.Equal(t, "get_weather", choice.ToolCalls[0].FunctionCall.Name)
	assert.Equal(t, `{"location": "London"}`, choice.ToolCalls[0].FunctionCall.Arguments)
	assert.Equal(t, "tool_calls", choice.StopReason)
	assert.EqualValues(t, 15, choice.GenerationInfo["TotalTokens"])

	msgs, ok := gotReq["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "system", first["role"])

	tools, ok := gotReq["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
}

func TestGenerateContentToolResponse(t *testing.T) {
	t.Parallel()

	var gotReq map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{
				"message": {"role": "assistant", "content": "{\"status\": \"completed\", \"message\": \"18C in London.\"}"},
				"finish_reason": "stop"
			}]
		}`))
	}))
	defer ts.Close()

	llm, err := openai.New(openai.WithBaseURL(ts.URL), openai.WithModel("gpt-4o-mini"))
	require.NoError(t, err)

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "weather in London?"),
		llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
			ID:   "call_1",
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      "get_weather",
				Arguments: `{"location": "London"}`,
			},
		}),
		llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
			ToolCallID: "call_1",
			Name:       "get_weather",
			Content:    "London: 18C",
		}),
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Contains(t, resp.Choices[0].Content, "completed")

	msgs := gotReq["messages"].([]any)
	require.Len(t, msgs, 3)
	toolMsg := msgs[2].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "call_1", toolMsg["tool_call_id"])
	assert.Equal(t, "London: 18C", toolMsg["content"])

	aiMsg := msgs[1].(map[string]any)
	calls := aiMsg["tool_calls"].([]any)
	require.Len(t, calls, 1)
}

func TestGenerateContentAPIError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "auth"}}`))
	}))
	defer ts.Close()

	llm, err := openai.New(openai.WithBaseURL(ts.URL))
	require.NoError(t, err)

	_, err = llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "hi"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}
