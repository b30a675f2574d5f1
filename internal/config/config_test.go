package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/go-toolchat/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY",
		"WEATHER_API_KEY", "SEARCH_ENGINE_ID", "GOOGLE_API_KEY",
		"CHAT_PROVIDER", "CHAT_MODEL", "CHAT_MAX_TOOL_ROUNDS",
	} {
		t.Setenv(key, "")
	}
}

func load(t *testing.T, path string) (config.Config, error) {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	return config.Load(v, path)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := load(t, "")
	require.NoError(t, err)

	assert.Equal(t, config.ProviderGemini, cfg.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, "g-key", cfg.ModelAPIKey)
	assert.Equal(t, 5, cfg.MaxToolRounds)
	assert.Zero(t, cfg.MaxTokens, "backends pick their own output budget")
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "http://api.weatherapi.com/v1", cfg.WeatherBaseURL)
	assert.Equal(t, "https://www.googleapis.com/customsearch/v1", cfg.SearchBaseURL)
	assert.Equal(t, ".chat", cfg.EventsDir)
}

func TestLoad_ToolCredentialsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("WEATHER_API_KEY", "w-key")
	t.Setenv("GOOGLE_API_KEY", "s-key")
	t.Setenv("SEARCH_ENGINE_ID", "cx-id")

	cfg, err := load(t, "")
	require.NoError(t, err)

	assert.Equal(t, "w-key", cfg.WeatherAPIKey)
	assert.Equal(t, "s-key", cfg.SearchAPIKey)
	assert.Equal(t, "cx-id", cfg.SearchEngineID)
}

func TestLoad_ProviderSelectsKeyAndModel(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "a-key")

	cfg, err := load(t, "")
	require.NoError(t, err)

	assert.Equal(t, config.ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "a-key", cfg.ModelAPIKey)
	assert.Equal(t, "claude-3-7-sonnet-latest", cfg.Model)
}

func TestLoad_MissingModelKey(t *testing.T) {
	clearEnv(t)

	_, err := load(t, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrMissingModelKey))
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoad_UnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_PROVIDER", "mystery")

	_, err := load(t, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrUnknownProvider))
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "o-key")

	path := filepath.Join(t.TempDir(), "chat.yaml")
	body := "provider: openai\nmodel: gpt-test\nmax_tool_rounds: 2\nhttp_timeout: 5s\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := load(t, path)
	require.NoError(t, err)

	assert.Equal(t, config.ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-test", cfg.Model)
	assert.Equal(t, 2, cfg.MaxToolRounds)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}
