package store

import (
	"context"
	"testing"

	"github.com/effective-security/weather-agent/chatmodel"
	"github.com/effective-security/weather-agent/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore()

	msg1 := llms.MessageFromTextParts(llms.RoleHuman, "what is the weather in London?")
	msg2 := llms.MessageFromTextParts(llms.RoleAI, "London: 18C, partly cloudy")

	// no chat context
	ctx := context.Background()
	assert.ErrorIs(t, st.Add(ctx, msg1), ErrInvalidChatContext)
	assert.ErrorIs(t, st.Reset(ctx), ErrInvalidChatContext)
	assert.Empty(t, st.Messages(ctx))

	ctx = chatmodel.WithChatContext(ctx, chatmodel.NewChatContext("chat1"))
	require.NoError(t, st.Add(ctx, msg1, msg2))

	msgs := st.Messages(ctx)
	require.Len(t, msgs, 2)
	assert.Equal(t, "what is the weather in London?\n", msgs[0].GetContent())
	assert.Equal(t, "London: 18C, partly cloudy\n", msgs[1].GetContent())

	// a different chat sees nothing
	other := chatmodel.WithChatContext(context.Background(), chatmodel.NewChatContext("chat2"))
	assert.Empty(t, st.Messages(other))

	require.NoError(t, st.Reset(ctx))
	assert.Empty(t, st.Messages(ctx))
}

func TestMessageRoundTrip(t *testing.T) {
	t.Parallel()

	tcases := []struct {
		name string
		msg  llms.Message
	}{
		{
			name: "text",
			msg:  llms.MessageFromTextParts(llms.RoleHuman, "hello"),
		},
		{
			name: "tool call",
			msg: llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
				ID:   "call_1",
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      "get_weather",
					Arguments: `{"location": "London"}`,
				},
			}),
		},
		{
			name: "tool response",
			msg: llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
				ToolCallID: "call_1",
				Name:       "get_weather",
				Content:    "London: 18C",
			}),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := encodeMessage(tc.msg)
			require.NoError(t, err)
			got, err := decodeMessage(data)
			require.NoError(t, err)
			assert.Equal(t, tc.msg, got)
		})
	}
}

func TestRedisKeys(t *testing.T) {
	t.Parallel()

	rs := &redisStore{prefix: "/weather"}
	assert.Equal(t, "/weather/chatstore/messages/chat1", rs.messagesKey("chat1"))
}
