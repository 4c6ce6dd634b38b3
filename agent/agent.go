package agent

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/weather-agent/chatmodel"
	"github.com/effective-security/weather-agent/encoding"
	"github.com/effective-security/weather-agent/pkg/llms"
	"github.com/effective-security/weather-agent/pkg/llmutils"
	"github.com/effective-security/weather-agent/pkg/metricskey"
	"github.com/effective-security/weather-agent/pkg/prompts"
	"github.com/effective-security/weather-agent/pkg/schema"
	"github.com/effective-security/weather-agent/store"
	"github.com/effective-security/weather-agent/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/weather-agent", "agent")

// SupportedContentTypes lists the output content types the agent can
// produce.
var SupportedContentTypes = []string{"text", "text/plain"}

const systemInstruction = `You are a specialized assistant for weather information. ` +
	`Your sole purpose is to use the provided tools to answer questions about the weather. ` +
	`If the user asks about anything other than the weather, ` +
	`politely state that you cannot help with that topic and can only assist with weather-related queries. ` +
	`Do not attempt to answer unrelated questions or use tools for other purposes.`

const formatInstruction = `Set response status to input_required if the user needs to provide more information to complete the request. ` +
	`Set response status to error if there is an error while processing the request. ` +
	`Set response status to completed if the request is complete.`

const (
	// progress events emitted while a turn is in flight
	msgCheckingWeather = "Checking the weather..."
	msgProcessingData  = "Processing weather data.."
)

const (
	defaultMaxTurns   = 10
	generateRetries   = 3
	defaultMaxHistory = 50
)

// Agent answers weather questions by driving an LLM tool-calling loop
// over the tools discovered from the tool server.
type Agent struct {
	llm         llms.Model
	store       store.MessageStore
	tools       []tools.ITool
	toolsByName map[string]tools.ITool
	llmTools    []llms.Tool
	respFormat  *schema.ResponseFormat
	parser      *encoding.TypedOutputParser[ResponseFormat]
	prompt      string
	maxTurns    int
}

// Option customizes the agent.
type Option func(*Agent)

// WithMaxTurns caps the number of model rounds per request.
func WithMaxTurns(n int) Option {
	return func(a *Agent) {
		a.maxTurns = n
	}
}

// New creates the agent over the given model, history store and tool
// set. At least one tool is required.
func New(llm llms.Model, st store.MessageStore, toolSet []tools.ITool, opts ...Option) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("model is required")
	}
	if st == nil {
		st = store.NewMemoryStore()
	}
	if len(toolSet) == 0 {
		return nil, errors.New("at least one tool is required")
	}

	respFormat, err := schema.NewResponseFormat(reflect.TypeOf(ResponseFormat{}), true)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to build response format")
	}
	parser, err := encoding.NewTypedOutputParser(ResponseFormat{}, encoding.ModeJSON)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to build output parser")
	}

	a := &Agent{
		llm:         llm,
		store:       st,
		tools:       toolSet,
		toolsByName: make(map[string]tools.ITool, len(toolSet)),
		respFormat:  respFormat,
		parser:      parser.WithValidation(true),
		maxTurns:    defaultMaxTurns,
	}
	for _, t := range toolSet {
		a.toolsByName[t.Name()] = t
		a.llmTools = append(a.llmTools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	tmpl := prompts.NewPromptTemplate(systemInstruction, nil)
	pv, err := tmpl.FormatPrompt(nil)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to format system prompt")
	}
	a.prompt = pv.String() + "\n\n" + formatInstruction
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// Tools returns the tool set the agent was built with.
func (a *Agent) Tools() []tools.ITool {
	return a.tools
}

// Stream runs one conversational turn for the query and yields progress
// events followed by exactly one terminal event. The stream never fails:
// every error path ends in a terminal event the caller can show to the
// user. contextID routes the conversation history; an empty value starts
// a fresh conversation.
func (a *Agent) Stream(ctx context.Context, query, contextID string) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		defer metricskey.PerfAgentTurn.MeasureSince(time.Now())

		chatCtx := chatmodel.NewChatContext(contextID)
		ctx := chatmodel.WithChatContext(ctx, chatCtx)

		history := a.store.Messages(ctx)
		msgs := make([]llms.Message, 0, len(history)+2)
		msgs = append(msgs, llms.MessageFromTextParts(llms.RoleSystem, a.prompt))
		msgs = append(msgs, history...)

		userMsg := llms.MessageFromTextParts(llms.RoleHuman, query)
		msgs = append(msgs, userMsg)
		turnMsgs := []llms.Message{userMsg}

		persist := func() {
			if err := a.store.Add(ctx, turnMsgs...); err != nil {
				logger.ContextKV(ctx, xlog.ERROR, "reason", "persist history", "err", err.Error())
			}
		}

		for turn := 0; turn < a.maxTurns; turn++ {
			choice, err := a.generate(ctx, msgs)
			if err != nil {
				logger.ContextKV(ctx, xlog.ERROR,
					"turn", turn,
					"reason", "generate",
					"err", err.Error(),
				)
				metricskey.StatsAgentTurnsFailed.IncrCounter(1)
				persist()
				yield(Event{RequireUserInput: true, Content: FallbackMessage})
				return
			}

			if len(choice.ToolCalls) > 0 {
				if !yield(Event{Content: msgCheckingWeather}) {
					persist()
					return
				}

				aiMsg := llms.MessageFromToolCalls(llms.RoleAI, choice.ToolCalls...)
				msgs = append(msgs, aiMsg)
				turnMsgs = append(turnMsgs, aiMsg)

				for _, tc := range choice.ToolCalls {
					toolMsg := a.executeToolCall(ctx, tc)
					msgs = append(msgs, toolMsg)
					turnMsgs = append(turnMsgs, toolMsg)
				}

				if !yield(Event{Content: msgProcessingData}) {
					persist()
					return
				}
				continue
			}

			aiMsg := llms.MessageFromTextParts(llms.RoleAI, choice.Content)
			turnMsgs = append(turnMsgs, aiMsg)
			persist()

			ev := a.classifyContent(ctx, choice.Content)
			metricskey.StatsAgentTurnsSucceeded.IncrCounter(1)
			yield(ev)
			return
		}

		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "max turns exhausted",
			"max_turns", a.maxTurns,
		)
		metricskey.StatsAgentTurnsFailed.IncrCounter(1)
		persist()
		yield(Event{RequireUserInput: true, Content: FallbackMessage})
	}
}

// generate calls the model, retrying when it returns no choices.
func (a *Agent) generate(ctx context.Context, msgs []llms.Message) (*llms.ContentChoice, error) {
	var lastErr error
	for attempt := 0; attempt < generateRetries; attempt++ {
		resp, err := a.llm.GenerateContent(ctx, msgs,
			llms.WithTools(a.llmTools),
			llms.WithResponseFormat(a.respFormat),
		)
		if err != nil {
			return nil, err
		}

		metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(msgs)))
		in, out, total := llmutils.CountTokens(resp)
		if total > 0 {
			metricskey.StatsLLMInputTokens.IncrCounter(float64(in))
			metricskey.StatsLLMOutputTokens.IncrCounter(float64(out))
			metricskey.StatsLLMTotalTokens.IncrCounter(float64(total))
		}

		if len(resp.Choices) > 0 {
			return resp.Choices[0], nil
		}
		lastErr = errors.New("model returned no choices")
	}
	return nil, lastErr
}

// executeToolCall runs one requested tool and renders the observation
// for the model. Tool failures never escape: the adapters render them
// as text, and an unknown tool name is answered the same way.
func (a *Agent) executeToolCall(ctx context.Context, tc llms.ToolCall) llms.Message {
	name := tc.FunctionCall.Name
	content := ""

	t, ok := a.toolsByName[name]
	if !ok {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, name)
		content = fmt.Sprintf("Error calling %s: tool not found", name)
	} else {
		out, err := t.Call(ctx, tc.FunctionCall.Arguments)
		if err != nil {
			// tool adapters contain their own failures; this is a guard
			content = fmt.Sprintf("Error calling %s: %s", name, err.Error())
		} else {
			content = out
		}
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"tool", name,
		"args", slices.StringUpto(tc.FunctionCall.Arguments, 256),
	)

	return llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
		ToolCallID: tc.ID,
		Name:       name,
		Content:    content,
	})
}

// classifyContent parses the model's final structured answer into the
// terminal event.
func (a *Agent) classifyContent(ctx context.Context, content string) Event {
	resp, err := a.parser.Parse(content)
	if err != nil {
		metricskey.StatsAgentParseErrors.IncrCounter(1)
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "unparsable model response",
			"err", err.Error(),
		)
		return Classify(nil)
	}
	if resp.Status == StatusError {
		// the caller sees error and input_required the same way;
		// the distinction is kept in the logs
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "model reported error",
			"message", resp.Message,
		)
	}
	return Classify(resp)
}
