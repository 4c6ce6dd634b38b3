package llms_test

import (
	"testing"

	"github.com/effective-security/weather-agent/pkg/llms"
	"github.com/stretchr/testify/assert"
)

func TestMessageGetContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		msg     llms.Message
		content string
	}{
		{
			"text",
			llms.MessageFromTextParts(llms.RoleHuman, "what is the weather in London?"),
			"what is the weather in London?\n",
		},
		{
			"multi_text",
			llms.MessageFromTextParts(llms.RoleAI, "18C", "partly cloudy"),
			"18C\npartly cloudy\n",
		},
		{
			"tool_call",
			llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
				ID:   "call_1",
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      "get_weather",
					Arguments: `{"location":"London"}`,
				},
			}),
			`Tool Call: {"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"location\":\"London\"}"}}
`,
		},
		{
			"tool_response",
			llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
				ToolCallID: "call_1",
				Name:       "get_weather",
				Content:    "London: 18C, partly cloudy",
			}),
			`Response: {"tool_call_id":"call_1","name":"get_weather","content":"London: 18C, partly cloudy"}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.content, tt.msg.GetContent())
		})
	}
}
