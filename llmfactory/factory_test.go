package llmfactory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/effective-security/weather-agent/llmfactory"
	"github.com/effective-security/weather-agent/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_OPENAI_TOKEN", "sk-test")

	dir := t.TempDir()
	file := filepath.Join(dir, "providers.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
providers:
  - name: openai
    provider: OPENAI
    token: ${TEST_OPENAI_TOKEN}
    default_model: gpt-4o-mini
  - name: local
    provider: OPENAI_COMPAT
    default_model: llama3
    base_url: http://localhost:11434/v1
`), 0o644))

	cfg, err := llmfactory.LoadConfig(file)
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, "sk-test", cfg.Providers[0].Token)

	f := llmfactory.New(cfg)
	model, err := f.DefaultModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, llms.ProviderOpenAI, model.GetProviderType())
	assert.Equal(t, "gpt-4o-mini", model.GetName())

	// cached on second lookup
	again, err := f.ModelByName(context.Background(), "openai")
	require.NoError(t, err)
	assert.Same(t, model, again)

	compat, err := f.ModelByName(context.Background(), "local")
	require.NoError(t, err)
	assert.Equal(t, llms.ProviderOpenAICompat, compat.GetProviderType())

	_, err = f.ModelByName(context.Background(), "missing")
	assert.EqualError(t, err, "provider not found for name: missing")
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "providers.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
providers:
  - name: broken
    provider: MAINFRAME
`), 0o644))

	_, err := llmfactory.LoadConfig(file)
	require.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("model_source", "google")
	t.Setenv("GOOGLE_API_KEY", "")
	_, err := llmfactory.ConfigFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")

	t.Setenv("GOOGLE_API_KEY", "g-key")
	cfg, err := llmfactory.ConfigFromEnv()
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, string(llms.ProviderGoogleAI), cfg.Providers[0].Provider)

	t.Setenv("model_source", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err = llmfactory.ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, string(llms.ProviderOpenAI), cfg.Providers[0].Provider)

	t.Setenv("model_source", "vllm")
	t.Setenv("TOOL_LLM_URL", "")
	_, err = llmfactory.ConfigFromEnv()
	require.Error(t, err)

	t.Setenv("TOOL_LLM_URL", "http://localhost:8000/v1")
	t.Setenv("TOOL_LLM_NAME", "llama3")
	cfg, err = llmfactory.ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, string(llms.ProviderOpenAICompat), cfg.Providers[0].Provider)
	assert.Equal(t, "llama3", cfg.Providers[0].DefaultModel)
	assert.Equal(t, "http://localhost:8000/v1", cfg.Providers[0].BaseURL)
}
