package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/weather-agent/a2a"
	"github.com/effective-security/weather-agent/agent"
	"github.com/effective-security/weather-agent/llmfactory"
	"github.com/effective-security/weather-agent/store"
	"github.com/effective-security/weather-agent/tools/mcptool"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/weather-agent", "cmd")

const (
	envMCPServerURL = "MCP_SERVER_URL"
	envHostOverride = "HOST_OVERRIDE"
	envRedisAddr    = "REDIS_ADDR"
)

type flags struct {
	host string
	port int
	cfg  string
}

func main() {
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))

	if err := rootCmd().Execute(); err != nil {
		logger.KV(xlog.ERROR, "err", err.Error())
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:          "weather-agent",
		Short:        "Serves a conversational weather agent over the A2A protocol",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.host, "host", "localhost", "interface to listen on")
	cmd.Flags().IntVar(&f.port, "port", 10001, "port to listen on")
	cmd.Flags().StringVar(&f.cfg, "cfg", "", "optional providers config file; the environment is used when omitted")
	return cmd
}

func run(ctx context.Context, f *flags) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadProviders(f.cfg)
	if err != nil {
		return err
	}
	model, err := llmfactory.New(cfg).DefaultModel(ctx)
	if err != nil {
		return err
	}

	// the agent cannot serve anything without its tools, so a missing
	// server address or a discovery failure is fatal at startup
	mcpURL, err := mcpServerURL()
	if err != nil {
		return err
	}
	registry, err := mcptool.Discover(ctx, mcpURL)
	if err != nil {
		return err
	}
	defer func() {
		_ = registry.Close()
	}()

	ag, err := agent.New(model, messageStore(), registry.Tools())
	if err != nil {
		return err
	}

	srv := a2a.NewServer(agentCard(f.host, f.port), ag)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", f.host, f.port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.KV(xlog.INFO,
			"status", "listening",
			"addr", httpServer.Addr,
			"mcp_server", mcpURL,
			"model", model.GetName(),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func loadProviders(cfgFile string) (*llmfactory.Config, error) {
	if cfgFile != "" {
		return llmfactory.LoadConfig(cfgFile)
	}
	return llmfactory.ConfigFromEnv()
}

func mcpServerURL() (string, error) {
	url := os.Getenv(envMCPServerURL)
	if url == "" {
		return "", errors.Newf("%s environment variable not set", envMCPServerURL)
	}
	return url, nil
}

func messageStore() store.MessageStore {
	addr := os.Getenv(envRedisAddr)
	if addr == "" {
		return store.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return store.NewRedisStore(client, "/weather-agent")
}

func agentCard(host string, port int) a2a.AgentCard {
	url := values.StringsCoalesce(os.Getenv(envHostOverride), fmt.Sprintf("http://%s:%d/", host, port))
	return a2a.AgentCard{
		Name:               "Weather Agent",
		Description:        "Helps with weather information",
		URL:                url,
		Version:            "1.0.0",
		DefaultInputModes:  agent.SupportedContentTypes,
		DefaultOutputModes: agent.SupportedContentTypes,
		Capabilities: a2a.AgentCapabilities{
			Streaming:         true,
			PushNotifications: true,
		},
		Skills: []a2a.AgentSkill{{
			ID:          "get_weather",
			Name:        "Weather Tool",
			Description: "Helps with getting the current weather and forecast",
			Tags:        []string{"weather", "forecast"},
			Examples: []string{
				"What is the weather in London?",
				"Give me a 5-day forecast for New York",
			},
		}},
	}
}
