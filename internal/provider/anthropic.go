package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"

	"github.com/petasbytes/go-toolchat/memory"
	"github.com/petasbytes/go-toolchat/tools"
)

const DefaultAnthropicModel = anthropic.ModelClaude3_7SonnetLatest

// DefaultAnthropicMaxTokens is used when no output budget is configured; the
// Messages API requires one.
const DefaultAnthropicMaxTokens = 1024

// NewAnthropicClient returns a client for apiKey. baseURL and httpClient are optional.
func NewAnthropicClient(apiKey, baseURL string, httpClient *http.Client) *anthropic.Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	c := anthropic.NewClient(opts...)
	return &c
}

// Anthropic talks to the Anthropic Messages API.
type Anthropic struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

func NewAnthropic(client *anthropic.Client, model string, maxTokens int) *Anthropic {
	m := anthropic.Model(model)
	if model == "" {
		m = DefaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultAnthropicMaxTokens
	}
	return &Anthropic{client: client, model: m, maxTokens: int64(maxTokens)}
}

func (a *Anthropic) Name() string { return "anthropic/" + string(a.model) }

func (a *Anthropic) Send(ctx context.Context, req Request) (*Reply, error) {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages:  toAnthropicMessages(req.History),
		Tools:     anthropicTools(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic messages")
	}

	reply := &Reply{}
	var texts []string
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if v.Text != "" {
				texts = append(texts, v.Text)
			}
		case anthropic.ToolUseBlock:
			// Pass raw JSON input through to the tool implementation
			reply.ToolCalls = append(reply.ToolCalls, memory.ToolCall{
				ID:    v.ID,
				Name:  v.Name,
				Input: json.RawMessage(v.JSON.Input.Raw()),
			})
		}
	}
	reply.Text = strings.Join(texts, "\n")
	return reply, nil
}

func anthropicTools(defs []tools.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, t := range defs {
		schema := anthropic.ToolInputSchemaParam{}
		if t.InputSchema != nil {
			schema.Properties = t.InputSchema.Properties
			schema.Required = t.InputSchema.Required
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: schema,
		}})
	}
	return out
}

// toAnthropicMessages maps history onto Messages API turns. Consecutive tool
// messages become one user message of tool_result blocks, directly after the
// assistant tool_use message they answer.
func toAnthropicMessages(history []memory.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(history))
	var results []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}

	for _, m := range history {
		if m.Role == memory.RoleTool {
			if m.Result != nil {
				results = append(results, anthropic.NewToolResultBlock(m.Result.CallID, m.Result.Content, m.Result.IsError))
			}
			continue
		}
		flush()

		switch m.Role {
		case memory.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		case memory.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.ToolCalls)+1)
			if m.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text))
			}
			for _, c := range m.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    c.ID,
					Name:  c.Name,
					Input: json.RawMessage(rawInput(c.Input)),
				}})
			}
			// The API rejects empty assistant content.
			if len(blocks) == 0 {
				continue
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		}
	}
	flush()
	return out
}
