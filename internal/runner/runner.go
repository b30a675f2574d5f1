package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/petasbytes/go-toolchat/internal/metrics"
	"github.com/petasbytes/go-toolchat/internal/provider"
	"github.com/petasbytes/go-toolchat/internal/telemetry"
	"github.com/petasbytes/go-toolchat/memory"
	"github.com/petasbytes/go-toolchat/tools"
)

// DefaultMaxToolRounds bounds chained tool rounds within one turn.
const DefaultMaxToolRounds = 5

// ErrorReplyPrefix starts every reply produced from a failed turn.
const ErrorReplyPrefix = "An error occurred: "

var ErrToolRoundLimit = errors.New("tool call limit reached without a final reply")

// Session owns the conversation history and advances it one turn at a time.
// Turns must not overlap; callers serialize them.
type Session struct {
	model     provider.Model
	defs      []tools.ToolDefinition
	byName    map[string]tools.ToolDefinition
	conv      *memory.Conversation
	system    string
	maxRounds int
	logger    *log.Logger
}

type Option func(*Session)

func WithMaxToolRounds(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxRounds = n
		}
	}
}

func WithSystemInstruction(system string) Option {
	return func(s *Session) { s.system = system }
}

func WithConversation(c *memory.Conversation) Option {
	return func(s *Session) {
		if c != nil {
			s.conv = c
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(model provider.Model, toolDefs []tools.ToolDefinition, opts ...Option) *Session {
	s := &Session{
		model:     model,
		defs:      toolDefs,
		byName:    make(map[string]tools.ToolDefinition, len(toolDefs)),
		conv:      memory.NewConversation(),
		system:    SystemInstruction(time.Now()),
		maxRounds: DefaultMaxToolRounds,
		logger:    log.New(io.Discard),
	}
	for _, d := range toolDefs {
		s.byName[d.Name] = d
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Conversation() *memory.Conversation { return s.conv }

func (s *Session) SystemInstruction() string { return s.system }

// Send runs one turn for text and returns the final reply. Failures never
// escape: they come back as a reply starting with ErrorReplyPrefix, and that
// reply is recorded in history like any other so the next turn starts clean.
// Blank text is ignored and returns "".
func (s *Session) Send(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	ctx, turnID := telemetry.NewTurn(ctx)
	start := time.Now()
	telemetry.EmitLocalFeatures(ctx, text)

	s.conv.Append(memory.UserMessage(text))
	reply, rounds, err := s.runGuarded(ctx)
	if err != nil {
		s.logger.Error("turn failed", "turn_id", turnID, "rounds", rounds, "err", err)
		s.closePending(err)
		reply = ErrorReplyPrefix + err.Error()
		s.conv.Append(memory.AssistantMessage(reply))
	}

	fields := map[string]any{
		"turn_id":     turnID,
		"duration_ms": time.Since(start).Milliseconds(),
		"tool_rounds": rounds,
		"history_len": s.conv.Len(),
		"error":       nil,
	}
	if err != nil {
		fields["error"] = "turn error"
	}
	telemetry.Emit("turn_complete", fields)
	s.logger.Debug("turn complete", "turn_id", turnID, "rounds", rounds, "elapsed", time.Since(start))
	return reply
}

// runGuarded is run with panics turned into errors.
func (s *Session) runGuarded(ctx context.Context) (reply string, rounds int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic: %v", r)
		}
	}()
	reply, err = s.run(ctx, &rounds)
	return reply, rounds, err
}

// closePending answers calls left open by an aborted turn so history stays paired.
func (s *Session) closePending(cause error) {
	for _, call := range s.conv.PendingToolCalls() {
		s.conv.Append(memory.ToolMessage(memory.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: "turn aborted: " + cause.Error(),
			IsError: true,
		}))
	}
}

// run drives model calls and tool rounds until a final reply. rounds counts
// completed tool rounds and stays accurate if run panics.
func (s *Session) run(ctx context.Context, rounds *int) (string, error) {
	for {
		reply, err := s.RunOneStep(ctx)
		if err != nil {
			return "", err
		}
		if !reply.WantsTools() {
			s.conv.Append(memory.AssistantMessage(reply.Text))
			return reply.Text, nil
		}
		// Unanswered calls are dropped rather than recorded, keeping history paired.
		if *rounds >= s.maxRounds {
			return "", errors.Mark(
				errors.Newf("tool call limit (%d) reached without a final reply", s.maxRounds),
				ErrToolRoundLimit)
		}
		*rounds++

		s.conv.Append(memory.AssistantMessage(reply.Text, reply.ToolCalls...))
		for _, call := range reply.ToolCalls {
			s.conv.Append(memory.ToolMessage(s.execTool(ctx, call)))
		}
	}
}

// RunOneStep sends the full history once and returns the model's reply
// without modifying history.
func (s *Session) RunOneStep(ctx context.Context) (*provider.Reply, error) {
	turnID, _ := telemetry.TurnIDFromContext(ctx)
	history := s.conv.Messages()

	start := time.Now()
	reply, err := s.model.Send(ctx, provider.Request{
		System:  s.system,
		History: history,
		Tools:   s.defs,
	})

	fields := map[string]any{
		"turn_id":     turnID,
		"model":       s.model.Name(),
		"messages":    len(history),
		"est_input":   metrics.EstimateHistory(history),
		"duration_ms": time.Since(start).Milliseconds(),
		"tool_calls":  0,
		"error":       nil,
	}
	if err != nil {
		fields["error"] = "model error"
		telemetry.Emit("model_call", fields)
		return nil, errors.Wrapf(err, "%s", s.model.Name())
	}
	if reply == nil {
		fields["error"] = "empty reply"
		telemetry.Emit("model_call", fields)
		return nil, provider.ErrEmptyResponse
	}
	fields["tool_calls"] = len(reply.ToolCalls)
	telemetry.Emit("model_call", fields)
	return reply, nil
}

func (s *Session) execTool(ctx context.Context, call memory.ToolCall) memory.ToolResult {
	turnID, _ := telemetry.TurnIDFromContext(ctx)

	// Helper to emit a tool_exec event
	emit := func(durationMs int64, outputSize int, errStr string) {
		fields := map[string]any{
			"tool_name":   call.Name,
			"duration_ms": durationMs,
			"input_size":  len(call.Input),
			"output_size": outputSize,
			"turn_id":     turnID,
		}
		if errStr != "" {
			fields["error"] = errStr
		} else {
			fields["error"] = nil
		}
		telemetry.Emit("tool_exec", fields)
	}

	result := memory.ToolResult{CallID: call.ID, Name: call.Name}
	start := time.Now()

	def, ok := s.byName[call.Name]
	if !ok || def.Function == nil {
		emit(time.Since(start).Milliseconds(), 0, "tool not found")
		s.logger.Warn("model requested unknown tool", "tool", call.Name, "turn_id", turnID)
		result.Content = "tool not found"
		result.IsError = true
		return result
	}

	s.logger.Info("running tool", "tool", call.Name, "input", string(call.Input), "turn_id", turnID)
	out, err := callTool(ctx, def, call.Input)
	if err != nil {
		// Keep raw payloads out of telemetry; the model still sees the detail.
		emit(time.Since(start).Milliseconds(), 0, "tool error")
		s.logger.Warn("tool failed", "tool", call.Name, "err", err, "turn_id", turnID)
		result.Content = fmt.Sprintf("%s: %v", call.Name, err)
		result.IsError = true
		return result
	}
	emit(time.Since(start).Milliseconds(), len(out), "")
	result.Content = out
	return result
}

// callTool runs def, reporting a panic as an error.
func callTool(ctx context.Context, def tools.ToolDefinition, input json.RawMessage) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic: %v", r)
		}
	}()
	return def.Function(ctx, input)
}
