package llmutils_test

import (
	"strings"
	"testing"

	"github.com/effective-security/weather-agent/pkg/llms"
	"github.com/effective-security/weather-agent/pkg/llmutils"
	"github.com/stretchr/testify/assert"
)

func TestCleanJSON(t *testing.T) {
	t.Parallel()

	tcases := []struct {
		name string
		in   string
		exp  string
	}{
		{
			name: "clean",
			in:   `{"status": "completed"}`,
			exp:  `{"status": "completed"}`,
		},
		{
			name: "prose around",
			in:   "Sure, here you go: {\"status\": \"completed\"} hope that helps!",
			exp:  `{"status": "completed"}`,
		},
		{
			name: "fenced",
			in:   "```json\n{\"status\": \"completed\"}\n```",
			exp:  `{"status": "completed"}`,
		},
		{
			name: "array",
			in:   "result: [1, 2, 3].",
			exp:  `[1, 2, 3]`,
		},
		{
			name: "no json",
			in:   "no structured content here",
			exp:  "no structured content here",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, string(llmutils.CleanJSON([]byte(tc.in))))
		})
	}
}

func TestCountTokens(t *testing.T) {
	t.Parallel()

	resp := &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			GenerationInfo: map[string]any{
				"InputTokens":  int64(10),
				"OutputTokens": int64(5),
				"TotalTokens":  int64(15),
			},
		}},
	}
	in, out, total := llmutils.CountTokens(resp)
	assert.EqualValues(t, 10, in)
	assert.EqualValues(t, 5, out)
	assert.EqualValues(t, 15, total)
}

func TestFindLastUserQuestion(t *testing.T) {
	t.Parallel()

	msgs := []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "weather in London?"),
		llms.MessageFromTextParts(llms.RoleAI, "18C and sunny."),
		llms.MessageFromTextParts(llms.RoleHuman, "and tomorrow?"),
	}
	assert.Equal(t, "and tomorrow?", llmutils.FindLastUserQuestion(msgs))
	assert.Equal(t, "", llmutils.FindLastUserQuestion(nil))
}

func TestPrintMessages(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	llmutils.PrintMessages(&buf, []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "weather in London?"),
		llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
			ID:   "call_1",
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      "get_weather",
				Arguments: `{"location": "London"}`,
			},
		}),
	})
	out := buf.String()
	assert.Contains(t, out, "HUMAN: weather in London?")
	assert.Contains(t, out, "get_weather")
}

func TestBackticksJSON(t *testing.T) {
	t.Parallel()

	out := llmutils.BackticksJSON(`{"a": 1}`)
	assert.Equal(t, "\n```json\n{\"a\": 1}\n```\n", out)
}
