package tools

import (
	"net/http"

	"github.com/petasbytes/go-toolchat/internal/config"
)

// Registry returns all tool definitions wired for the chat session.
// A nil client falls back to one using cfg.HTTPTimeout.
func Registry(cfg config.Config, client *http.Client) []ToolDefinition {
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return []ToolDefinition{
		NewSearchTool(cfg.SearchAPIKey, cfg.SearchEngineID, cfg.SearchBaseURL, client).Definition(),
		NewWeatherTool(cfg.WeatherAPIKey, cfg.WeatherBaseURL, client).Definition(),
	}
}
