package provider

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"google.golang.org/genai"

	"github.com/petasbytes/go-toolchat/memory"
	"github.com/petasbytes/go-toolchat/tools"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// NewGeminiClient creates a Gemini API (not Vertex) client.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string, httpClient *http.Client) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Gemini client")
	}
	return client, nil
}

// Gemini talks to the Google Gemini API. A zero maxTokens leaves the output
// budget to the API, which matters for thinking models whose budget also
// covers thoughts.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func NewGemini(client *genai.Client, model string, maxTokens int) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model, maxTokens: int32(max(maxTokens, 0))}
}

func (g *Gemini) Name() string { return "gemini/" + g.model }

func (g *Gemini) Send(ctx context.Context, req Request) (*Reply, error) {
	config := &genai.GenerateContentConfig{
		Tools:           geminiTools(req.Tools),
		MaxOutputTokens: g.maxTokens,
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	contents, err := toGeminiContents(req.History)
	if err != nil {
		return nil, err
	}
	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, errors.Wrap(err, "gemini generate content")
	}
	return parseGeminiResponse(response)
}

// geminiTools converts tool definitions into a single Tool holding all function declarations.
func geminiTools(defs []tools.ToolDefinition) []*genai.Tool {
	if len(defs) == 0 {
		return nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, t := range defs {
		properties := make(map[string]*genai.Schema)
		var required []string
		if s := t.InputSchema; s != nil {
			if s.Properties != nil {
				for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
					properties[pair.Key] = &genai.Schema{
						Type:        geminiType(pair.Value.Type),
						Description: pair.Value.Description,
					}
				}
			}
			required = append(required, s.Required...)
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   required,
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func geminiType(jsonType string) genai.Type {
	switch jsonType {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// toGeminiContents maps history onto contents. Tool results are sent back as
// function responses in a user turn, grouped like the calls that produced them.
func toGeminiContents(history []memory.Message) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(history))
	var responses []*genai.Part
	flush := func() {
		if len(responses) > 0 {
			out = append(out, genai.NewContentFromParts(responses, genai.RoleUser))
			responses = nil
		}
	}

	for _, m := range history {
		if m.Role == memory.RoleTool {
			if m.Result == nil {
				continue
			}
			key := "output"
			if m.Result.IsError {
				key = "error"
			}
			part := genai.NewPartFromFunctionResponse(m.Result.Name, map[string]any{key: m.Result.Content})
			part.FunctionResponse.ID = m.Result.CallID
			responses = append(responses, part)
			continue
		}
		flush()

		switch m.Role {
		case memory.RoleUser:
			out = append(out, genai.NewContentFromText(m.Text, genai.RoleUser))
		case memory.RoleAssistant:
			parts := make([]*genai.Part, 0, len(m.ToolCalls)+1)
			if m.Text != "" {
				parts = append(parts, genai.NewPartFromText(m.Text))
			}
			for _, c := range m.ToolCalls {
				args := map[string]any{}
				if err := json.Unmarshal(rawInput(c.Input), &args); err != nil {
					return nil, errors.Wrapf(err, "decode arguments of %s", c.Name)
				}
				part := genai.NewPartFromFunctionCall(c.Name, args)
				part.FunctionCall.ID = c.ID
				part.ThoughtSignature = c.Signature
				parts = append(parts, part)
			}
			if len(parts) == 0 {
				continue
			}
			out = append(out, genai.NewContentFromParts(parts, genai.RoleModel))
		}
	}
	flush()
	return out, nil
}

func parseGeminiResponse(response *genai.GenerateContentResponse) (*Reply, error) {
	if response == nil || len(response.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	reply := &Reply{}
	candidate := response.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if call := part.FunctionCall; call != nil {
				args, err := json.Marshal(call.Args)
				if err != nil {
					return nil, errors.Wrapf(err, "encode arguments of %s", call.Name)
				}
				reply.ToolCalls = append(reply.ToolCalls, memory.ToolCall{
					ID:        call.ID,
					Name:      call.Name,
					Input:     args,
					Signature: part.ThoughtSignature,
				})
				continue
			}
			if part.Text != "" && !part.Thought {
				reply.Text += part.Text
			}
		}
	}

	// A thinking model can spend its whole budget without a visible answer.
	if reply.Text == "" && !reply.WantsTools() {
		return nil, errors.Wrapf(ErrEmptyResponse, "finish reason %s", candidate.FinishReason)
	}
	return reply, nil
}
