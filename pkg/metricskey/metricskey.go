package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	StatsAgentTurnsSucceeded = metrics.Describe{
		Type: metrics.TypeCounter,
		Name: "stats_agent_turns_succeeded",
		Help: "stats_agent_turns_succeeded provides total agent turns completed",
	}

	StatsAgentTurnsFailed = metrics.Describe{
		Type: metrics.TypeCounter,
		Name: "stats_agent_turns_failed",
		Help: "stats_agent_turns_failed provides total agent turns failed",
	}

	StatsAgentParseErrors = metrics.Describe{
		Type: metrics.TypeCounter,
		Name: "stats_agent_parse_errors",
		Help: "stats_agent_parse_errors provides total structured response parse errors",
	}

	StatsLLMMessagesSent = metrics.Describe{
		Type: metrics.TypeCounter,
		Name: "stats_llm_messages_sent",
		Help: "stats_llm_messages_sent provides total messages sent to LLM",
	}

	StatsLLMInputTokens = metrics.Describe{
		Type: metrics.TypeCounter,
		Name: "stats_llm_input_tokens",
		Help: "stats_llm_input_tokens provides total input tokens sent to LLM",
	}

	StatsLLMOutputTokens = metrics.Describe{
		Type: metrics.TypeCounter,
		Name: "stats_llm_output_tokens",
		Help: "stats_llm_output_tokens provides total output tokens received from LLM",
	}

	StatsLLMTotalTokens = metrics.Describe{
		Type: metrics.TypeCounter,
		Name: "stats_llm_total_tokens",
		Help: "stats_llm_total_tokens provides total tokens sent and received from LLM",
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls to unknown tools",
		RequiredTags: []string{"tool"},
	}

	StatsToolsDiscovered = metrics.Describe{
		Type: metrics.TypeCounter,
		Name: "stats_tools_discovered",
		Help: "stats_tools_discovered provides total tools discovered from the tool server",
	}
)

// Perf
var (
	PerfAgentTurn = metrics.Describe{
		Type: metrics.TypeSample,
		Name: "perf_agent_turn",
		Help: "perf_agent_turn provides duration of one conversational turn",
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}

	PerfToolDiscovery = metrics.Describe{
		Type: metrics.TypeSample,
		Name: "perf_tool_discovery",
		Help: "perf_tool_discovery provides duration of tool discovery",
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfAgentTurn,
	&PerfToolCall,
	&PerfToolDiscovery,
	&StatsAgentParseErrors,
	&StatsAgentTurnsFailed,
	&StatsAgentTurnsSucceeded,
	&StatsLLMInputTokens,
	&StatsLLMMessagesSent,
	&StatsLLMOutputTokens,
	&StatsLLMTotalTokens,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
	&StatsToolsDiscovered,
}
