package provider

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/petasbytes/go-toolchat/internal/config"
	"github.com/petasbytes/go-toolchat/memory"
	"github.com/petasbytes/go-toolchat/tools"
)

var ErrEmptyResponse = errors.New("model returned an empty response")

// Request is one call to the remote model: the whole history, the system
// instruction and the tools the model may ask for.
type Request struct {
	System  string
	History []memory.Message
	Tools   []tools.ToolDefinition
}

// Reply is either final text (no ToolCalls) or a request to run tools.
// Text may accompany tool calls.
type Reply struct {
	Text      string
	ToolCalls []memory.ToolCall
}

func (r *Reply) WantsTools() bool { return len(r.ToolCalls) > 0 }

// Model sends a conversation to a hosted language model.
type Model interface {
	Send(ctx context.Context, req Request) (*Reply, error)
	Name() string
}

// New builds the Model selected by cfg.Provider. httpClient may be nil.
func New(ctx context.Context, cfg config.Config, httpClient *http.Client) (Model, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg.ModelAPIKey, cfg.ModelBaseURL, httpClient)
		if err != nil {
			return nil, err
		}
		return NewGemini(client, cfg.Model, cfg.MaxTokens), nil
	case config.ProviderAnthropic:
		return NewAnthropic(NewAnthropicClient(cfg.ModelAPIKey, cfg.ModelBaseURL, httpClient), cfg.Model, cfg.MaxTokens), nil
	case config.ProviderOpenAI:
		return NewOpenAI(NewOpenAIClient(cfg.ModelAPIKey, cfg.ModelBaseURL, httpClient), cfg.Model, cfg.MaxTokens), nil
	}
	return nil, errors.Wrapf(config.ErrUnknownProvider, "%q", cfg.Provider)
}

// rawInput normalizes tool arguments so an absent input is sent as an empty object.
func rawInput(in []byte) []byte {
	if len(in) == 0 {
		return []byte("{}")
	}
	return in
}
