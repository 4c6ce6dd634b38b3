package llmfactory

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/weather-agent/pkg/llms"
	"github.com/effective-security/weather-agent/pkg/llms/googleai"
	"github.com/effective-security/weather-agent/pkg/llms/openai"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/weather-agent", "llmfactory")

// Factory creates and caches model clients from the providers config.
type Factory interface {
	DefaultModel(ctx context.Context) (llms.Model, error)
	ModelByName(ctx context.Context, name string) (llms.Model, error)
}

// Load returns a factory from the config file at location.
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

type factory struct {
	cfg *Config

	byName map[string]llms.Model
	lock   sync.Mutex
}

// New creates a new LLM factory.
func New(cfg *Config) Factory {
	return &factory{
		cfg:    cfg,
		byName: make(map[string]llms.Model),
	}
}

// NewLLM creates a model client for the provider config.
func NewLLM(ctx context.Context, cfg *ProviderConfig) (llms.Model, error) {
	switch llms.ProviderType(cfg.Provider) {
	case llms.ProviderGoogleAI:
		var opts []googleai.Option
		if cfg.Token != "" {
			opts = append(opts, googleai.WithAPIKey(cfg.Token))
		}
		if cfg.DefaultModel != "" {
			opts = append(opts, googleai.WithDefaultModel(cfg.DefaultModel))
		}
		return googleai.New(ctx, opts...)
	case llms.ProviderOpenAI:
		return openai.New(
			openai.WithToken(cfg.Token),
			openai.WithModel(cfg.DefaultModel),
			openai.WithBaseURL(cfg.BaseURL),
		)
	case llms.ProviderOpenAICompat:
		return openai.New(
			openai.WithToken(cfg.Token),
			openai.WithModel(cfg.DefaultModel),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithCompat(),
		)
	default:
		return nil, errors.Newf("unsupported provider: %s", cfg.Provider)
	}
}

// DefaultModel returns the model for the first configured provider.
func (f *factory) DefaultModel(ctx context.Context) (llms.Model, error) {
	if len(f.cfg.Providers) == 0 {
		return nil, errors.New("no providers configured")
	}
	return f.ModelByName(ctx, f.cfg.Providers[0].Name)
}

func (f *factory) ModelByName(ctx context.Context, name string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byName[name]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		if cfg.Name == name {
			model, err := NewLLM(ctx, cfg)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_llm",
				"provider", cfg.Provider,
				"model", cfg.DefaultModel,
				"name", cfg.Name)

			f.byName[name] = model
			return model, nil
		}
	}
	return nil, errors.Newf("provider not found for name: %s", name)
}
