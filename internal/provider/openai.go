package provider

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	openaiapi "github.com/sashabaranov/go-openai"

	"github.com/petasbytes/go-toolchat/memory"
	"github.com/petasbytes/go-toolchat/tools"
)

const DefaultOpenAIModel = "gpt-4o-mini"

func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *openaiapi.Client {
	cfg := openaiapi.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return openaiapi.NewClientWithConfig(cfg)
}

// OpenAI talks to the Chat Completions API.
type OpenAI struct {
	api       *openaiapi.Client
	model     string
	maxTokens int
}

func NewOpenAI(api *openaiapi.Client, model string, maxTokens int) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{api: api, model: model, maxTokens: maxTokens}
}

func (o *OpenAI) Name() string { return "openai/" + o.model }

func (o *OpenAI) Send(ctx context.Context, req Request) (*Reply, error) {
	apiReq := openaiapi.ChatCompletionRequest{
		Model:               o.model,
		MaxCompletionTokens: o.maxTokens,
		Stream:              false,
		Messages:            toOpenAIMessages(req.System, req.History),
		Tools:               openAITools(req.Tools),
	}

	resp, err := o.api.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, errors.Wrap(err, "openai chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	msg := resp.Choices[0].Message
	reply := &Reply{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, memory.ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: rawInput([]byte(tc.Function.Arguments)),
		})
	}
	return reply, nil
}

func openAITools(defs []tools.ToolDefinition) []openaiapi.Tool {
	if len(defs) == 0 {
		return nil
	}
	out := make([]openaiapi.Tool, 0, len(defs))
	for _, t := range defs {
		params := map[string]any{"type": "object", "properties": map[string]any{}}
		if t.InputSchema != nil {
			if t.InputSchema.Properties != nil {
				params["properties"] = t.InputSchema.Properties
			}
			params["required"] = t.InputSchema.Required
		}
		out = append(out, openaiapi.Tool{
			Type: openaiapi.ToolTypeFunction,
			Function: &openaiapi.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

func toOpenAIMessages(system string, history []memory.Message) []openaiapi.ChatCompletionMessage {
	res := make([]openaiapi.ChatCompletionMessage, 0, len(history)+1)
	if system != "" {
		res = append(res, openaiapi.ChatCompletionMessage{
			Role:    openaiapi.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range history {
		switch m.Role {
		case memory.RoleUser:
			res = append(res, openaiapi.ChatCompletionMessage{
				Role:    openaiapi.ChatMessageRoleUser,
				Content: m.Text,
			})
		case memory.RoleAssistant:
			msg := openaiapi.ChatCompletionMessage{
				Role:    openaiapi.ChatMessageRoleAssistant,
				Content: m.Text,
			}
			for _, c := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openaiapi.ToolCall{
					ID:   c.ID,
					Type: openaiapi.ToolTypeFunction,
					Function: openaiapi.FunctionCall{
						Name:      c.Name,
						Arguments: string(rawInput(c.Input)),
					},
				})
			}
			res = append(res, msg)
		case memory.RoleTool:
			if m.Result == nil {
				continue
			}
			res = append(res, openaiapi.ChatCompletionMessage{
				Role:       openaiapi.ChatMessageRoleTool,
				Content:    m.Result.Content,
				Name:       m.Result.Name,
				ToolCallID: m.Result.CallID,
			})
		}
	}
	return res
}
