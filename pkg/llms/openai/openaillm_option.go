package openai

import (
	"github.com/effective-security/weather-agent/pkg/llms/openai/internal/openaiclient"
)

type options struct {
	token        string
	model        string
	baseURL      string
	organization string
	httpClient   openaiclient.Doer
	compat       bool
}

// Option configures the OpenAI LLM.
type Option func(*options)

// WithToken sets the API token.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithBaseURL points the client at an alternative endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithOrganization sets the organization for quota and billing.
func WithOrganization(organization string) Option {
	return func(o *options) {
		o.organization = organization
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client openaiclient.Doer) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithCompat marks the endpoint as OpenAI-compatible rather than
// OpenAI itself, such as a self-hosted vLLM or Ollama server.
func WithCompat() Option {
	return func(o *options) {
		o.compat = true
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
