package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

var (
	ErrUnknownProvider = errors.New("unknown model provider")
	ErrMissingModelKey = errors.New("model API key is not set")
)

// Config carries every externally supplied value; nothing is read from globals after Load.
type Config struct {
	Provider      string
	Model         string
	ModelAPIKey   string
	ModelKeyEnv   string
	ModelBaseURL  string
	MaxTokens     int
	MaxToolRounds int
	HTTPTimeout   time.Duration

	WeatherAPIKey  string
	WeatherBaseURL string
	SearchAPIKey   string
	SearchEngineID string
	SearchBaseURL  string

	Observe   bool
	EventsDir string
	LogLevel  string
	LogFile   string
	Plain     bool
}

// providerDefaults maps a provider to its API key env var and default model.
var providerDefaults = map[string]struct {
	keyEnv string
	model  string
}{
	ProviderGemini:    {keyEnv: "GEMINI_API_KEY", model: "gemini-2.5-flash"},
	ProviderAnthropic: {keyEnv: "ANTHROPIC_API_KEY", model: "claude-3-7-sonnet-latest"},
	ProviderOpenAI:    {keyEnv: "OPENAI_API_KEY", model: "gpt-4o-mini"},
}

// SetDefaults registers defaults and env bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("max_tool_rounds", 5)
	v.SetDefault("http_timeout", 60*time.Second)
	v.SetDefault("weather_base_url", "http://api.weatherapi.com/v1")
	v.SetDefault("search_base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("events_dir", ".chat")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Credentials keep their conventional unprefixed names.
	for _, key := range []string{
		"GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY",
		"WEATHER_API_KEY", "SEARCH_ENGINE_ID", "GOOGLE_API_KEY",
	} {
		_ = v.BindEnv(strings.ToLower(key), key)
	}
}

// Load builds a Config from v. An optional config file is read when path is set.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	provider := strings.ToLower(strings.TrimSpace(v.GetString("provider")))
	defaults, ok := providerDefaults[provider]
	if !ok {
		return Config{}, errors.Wrapf(ErrUnknownProvider, "%q", provider)
	}

	cfg := Config{
		Provider:      provider,
		Model:         v.GetString("model"),
		ModelKeyEnv:   defaults.keyEnv,
		ModelAPIKey:   v.GetString(strings.ToLower(defaults.keyEnv)),
		ModelBaseURL:  v.GetString("model_base_url"),
		MaxTokens:     v.GetInt("max_tokens"),
		MaxToolRounds: v.GetInt("max_tool_rounds"),
		HTTPTimeout:   v.GetDuration("http_timeout"),

		WeatherAPIKey:  v.GetString("weather_api_key"),
		WeatherBaseURL: v.GetString("weather_base_url"),
		SearchAPIKey:   v.GetString("google_api_key"),
		SearchEngineID: v.GetString("search_engine_id"),
		SearchBaseURL:  v.GetString("search_base_url"),

		Observe:   v.GetBool("observe"),
		EventsDir: v.GetString("events_dir"),
		LogLevel:  v.GetString("log_level"),
		LogFile:   v.GetString("log_file"),
		Plain:     v.GetBool("plain"),
	}
	if cfg.Model == "" {
		cfg.Model = defaults.model
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 5
	}
	// Zero leaves the output budget to each backend.
	if cfg.MaxTokens < 0 {
		cfg.MaxTokens = 0
	}
	if cfg.ModelAPIKey == "" {
		return cfg, errors.Wrapf(ErrMissingModelKey, "export %s before running", cfg.ModelKeyEnv)
	}
	return cfg, nil
}
