package llmfactory

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/weather-agent/pkg/llms"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/x/values"
	"github.com/go-playground/validator/v10"
)

// Config lists the configured model providers. The first provider is
// the default.
type Config struct {
	Providers []*ProviderConfig `json:"providers" yaml:"providers" validate:"required,min=1,dive"`
}

// ProviderConfig describes one model provider.
type ProviderConfig struct {
	Name     string `json:"name" yaml:"name" validate:"required"`
	Provider string `json:"provider" yaml:"provider" validate:"required,oneof=OPENAI GOOGLEAI OPENAI_COMPAT"`
	// Token is the API key. Values like ${OPENAI_API_KEY} are expanded
	// from the environment at load time.
	Token        string `json:"token,omitempty" yaml:"token,omitempty"`
	DefaultModel string `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	// BaseURL points OPENAI_COMPAT providers at the self-hosted endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// LoadConfig loads and validates the providers config from file.
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.WithMessage(err, "invalid providers config")
	}
	return cfg, nil
}

// Environment variables for ConfigFromEnv.
const (
	EnvModelSource  = "model_source"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvToolLLMURL   = "TOOL_LLM_URL"
	EnvToolLLMName  = "TOOL_LLM_NAME"
)

// ConfigFromEnv builds a single-provider config from the environment.
// model_source selects the provider: "google" requires GOOGLE_API_KEY,
// "openai" requires OPENAI_API_KEY, anything else is treated as an
// OpenAI-compatible endpoint and requires TOOL_LLM_URL and
// TOOL_LLM_NAME.
func ConfigFromEnv() (*Config, error) {
	source := values.StringsCoalesce(os.Getenv(EnvModelSource), "google")

	switch source {
	case "google":
		key := os.Getenv(EnvGoogleAPIKey)
		if key == "" {
			return nil, errors.Newf("%s environment variable not set", EnvGoogleAPIKey)
		}
		return &Config{
			Providers: []*ProviderConfig{{
				Name:         "google",
				Provider:     string(llms.ProviderGoogleAI),
				Token:        key,
				DefaultModel: "gemini-2.0-flash",
			}},
		}, nil
	case "openai":
		key := os.Getenv(EnvOpenAIAPIKey)
		if key == "" {
			return nil, errors.Newf("%s environment variable not set", EnvOpenAIAPIKey)
		}
		return &Config{
			Providers: []*ProviderConfig{{
				Name:         "openai",
				Provider:     string(llms.ProviderOpenAI),
				Token:        key,
				DefaultModel: values.StringsCoalesce(os.Getenv(EnvToolLLMName), "gpt-4o-mini"),
			}},
		}, nil
	default:
		url := os.Getenv(EnvToolLLMURL)
		name := os.Getenv(EnvToolLLMName)
		if url == "" || name == "" {
			return nil, errors.Newf("%s and %s environment variables are required for model_source %q",
				EnvToolLLMURL, EnvToolLLMName, source)
		}
		return &Config{
			Providers: []*ProviderConfig{{
				Name:         source,
				Provider:     string(llms.ProviderOpenAICompat),
				Token:        values.StringsCoalesce(os.Getenv(EnvOpenAIAPIKey), "EMPTY"),
				DefaultModel: name,
				BaseURL:      url,
			}},
		}, nil
	}
}
