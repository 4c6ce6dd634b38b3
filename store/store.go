package store

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/weather-agent/pkg/llms"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/weather-agent", "store")

// ErrInvalidChatContext is returned when the context does not carry a
// chat ID to key the history by.
var ErrInvalidChatContext = errors.New("invalid chat context")

// MessageStore persists conversation history per chat ID. The chat ID is
// taken from the context, see chatmodel.WithChatContext.
type MessageStore interface {
	// Messages returns the stored history in insertion order.
	Messages(ctx context.Context) []llms.Message
	Add(ctx context.Context, msgs ...llms.Message) error
	Reset(ctx context.Context) error
}

// messageModel is the serialized form of llms.Message. The live type
// holds content parts behind an interface, so persistence goes through
// this flat representation.
type messageModel struct {
	Role  llms.Role   `json:"role"`
	Parts []partModel `json:"parts"`
}

type partModel struct {
	Type         string                 `json:"type"`
	Text         string                 `json:"text,omitempty"`
	ToolCall     *llms.ToolCall         `json:"tool_call,omitempty"`
	ToolResponse *llms.ToolCallResponse `json:"tool_response,omitempty"`
}

const (
	partText         = "text"
	partToolCall     = "tool_call"
	partToolResponse = "tool_response"
)

func encodeMessage(msg llms.Message) ([]byte, error) {
	model := messageModel{Role: msg.Role}
	for _, part := range msg.Parts {
		switch p := part.(type) {
		case llms.TextContent:
			model.Parts = append(model.Parts, partModel{Type: partText, Text: p.Text})
		case llms.ToolCall:
			model.Parts = append(model.Parts, partModel{Type: partToolCall, ToolCall: &p})
		case llms.ToolCallResponse:
			model.Parts = append(model.Parts, partModel{Type: partToolResponse, ToolResponse: &p})
		default:
			return nil, errors.Newf("unsupported content part: %T", part)
		}
	}
	return json.Marshal(model)
}

func decodeMessage(data []byte) (llms.Message, error) {
	var model messageModel
	if err := json.Unmarshal(data, &model); err != nil {
		return llms.Message{}, errors.Wrap(err, "failed to unmarshal message")
	}

	msg := llms.Message{Role: model.Role}
	for _, p := range model.Parts {
		switch p.Type {
		case partText:
			msg.Parts = append(msg.Parts, llms.TextContent{Text: p.Text})
		case partToolCall:
			if p.ToolCall != nil {
				msg.Parts = append(msg.Parts, *p.ToolCall)
			}
		case partToolResponse:
			if p.ToolResponse != nil {
				msg.Parts = append(msg.Parts, *p.ToolResponse)
			}
		}
	}
	return msg, nil
}
