package mcptool

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/weather-agent/pkg/metricskey"
	"github.com/effective-security/weather-agent/tools"
	"github.com/effective-security/xlog"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/weather-agent", "mcptool")

// DiscoveryTimeout bounds the initial handshake and tool listing against
// the tool server.
const DiscoveryTimeout = 30 * time.Second

// CallTimeout bounds a single remote tool invocation.
const CallTimeout = 30 * time.Second

var (
	// ErrServerUnreachable is returned when the tool server cannot be
	// reached or does not answer the handshake within DiscoveryTimeout.
	ErrServerUnreachable = errors.New("tool server unreachable")
	// ErrNoTools is returned when the tool server answers but exposes no
	// tools. An agent without tools cannot serve any request, so callers
	// treat this as fatal.
	ErrNoTools = errors.New("tool server returned no tools")
)

// Client is the subset of the MCP client used by the registry and the
// tool adapters.
type Client interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Registry holds the tools discovered from one tool server, in the order
// the server listed them.
type Registry struct {
	serverURL string
	client    Client
	tools     []tools.ITool
	byName    map[string]tools.ITool
}

type discoverOptions struct {
	client  Client
	runner  Runner
	timeout time.Duration
}

// DiscoverOption customizes Discover.
type DiscoverOption func(*discoverOptions)

// WithClient supplies a pre-built MCP client instead of dialing serverURL.
func WithClient(c Client) DiscoverOption {
	return func(o *discoverOptions) {
		o.client = c
	}
}

// WithRunner selects the invocation strategy for the discovered tools.
// The default is DetachedRunner.
func WithRunner(r Runner) DiscoverOption {
	return func(o *discoverOptions) {
		o.runner = r
	}
}

// WithDiscoveryTimeout overrides DiscoveryTimeout.
func WithDiscoveryTimeout(d time.Duration) DiscoverOption {
	return func(o *discoverOptions) {
		o.timeout = d
	}
}

// Discover connects to the tool server at serverURL, performs the MCP
// handshake and wraps every advertised tool. It fails with
// ErrServerUnreachable when the server does not answer within the
// discovery timeout, and with ErrNoTools when the server advertises an
// empty tool list.
func Discover(ctx context.Context, serverURL string, opts ...DiscoverOption) (*Registry, error) {
	defer metricskey.PerfToolDiscovery.MeasureSince(time.Now())

	opt := discoverOptions{
		runner:  DetachedRunner{},
		timeout: DiscoveryTimeout,
	}
	for _, o := range opts {
		o(&opt)
	}

	ctx, cancel := context.WithTimeout(ctx, opt.timeout)
	defer cancel()

	client := opt.client
	if client == nil {
		t, err := transport.NewStreamableHTTP(serverURL)
		if err != nil {
			return nil, errors.WithMessagef(ErrServerUnreachable, "invalid tool server URL %q: %s", serverURL, err.Error())
		}
		c := mcpclient.NewClient(t)
		if err := c.Start(ctx); err != nil {
			return nil, errors.WithMessagef(ErrServerUnreachable, "%s: %s", serverURL, err.Error())
		}
		client = c
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "weather-agent",
		Version: "1.0.0",
	}
	if _, err := client.Initialize(ctx, initReq); err != nil {
		_ = client.Close()
		return nil, errors.WithMessagef(ErrServerUnreachable, "%s: %s", serverURL, err.Error())
	}

	listed, err := client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = client.Close()
		return nil, errors.WithMessagef(ErrServerUnreachable, "%s: %s", serverURL, err.Error())
	}
	if len(listed.Tools) == 0 {
		_ = client.Close()
		return nil, errors.WithMessagef(ErrNoTools, "%s", serverURL)
	}

	reg := &Registry{
		serverURL: serverURL,
		client:    client,
		byName:    make(map[string]tools.ITool, len(listed.Tools)),
	}
	for _, t := range listed.Tools {
		st := newSyncTool(client, t, opt.runner, CallTimeout)
		reg.tools = append(reg.tools, st)
		reg.byName[st.Name()] = st
		logger.ContextKV(ctx, xlog.DEBUG,
			"tool", st.Name(),
			"description", t.Description,
		)
	}

	metricskey.StatsToolsDiscovered.IncrCounter(float64(len(reg.tools)))
	logger.ContextKV(ctx, xlog.INFO,
		"server", serverURL,
		"tools", len(reg.tools),
	)

	return reg, nil
}

// Tools returns the discovered tools in server order.
func (r *Registry) Tools() []tools.ITool {
	return r.tools
}

// Tool returns the named tool.
func (r *Registry) Tool(name string) (tools.ITool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Len returns the number of discovered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}

// Close releases the underlying connection to the tool server.
func (r *Registry) Close() error {
	return r.client.Close()
}
