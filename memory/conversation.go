package memory

import (
	"encoding/json"
	"sync"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model request to run a named tool with JSON arguments.
type ToolCall struct {
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input,omitempty"`

	// Signature is opaque backend state replayed with the call.
	Signature []byte `json:"signature,omitempty"`
}

// ToolResult is the plain-text outcome of a ToolCall, fed back to the model.
type ToolResult struct {
	CallID  string `json:"call_id,omitempty"`
	Name    string `json:"name"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Message is one entry of the conversation timeline.
type Message struct {
	Role      Role        `json:"role"`
	Text      string      `json:"text,omitempty"`
	ToolCalls []ToolCall  `json:"tool_calls,omitempty"`
	Result    *ToolResult `json:"result,omitempty"`
}

func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

func AssistantMessage(text string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Text: text, ToolCalls: calls}
}

func ToolMessage(res ToolResult) Message {
	return Message{Role: RoleTool, Result: &res}
}

// Conversation is an ordered, append-only message history.
// Writes come from the single in-flight turn; reads may come from anywhere.
type Conversation struct {
	mu   sync.RWMutex
	msgs []Message
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds msgs to the end of the timeline in the given order.
func (c *Conversation) Append(msgs ...Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msgs...)
}

// Messages returns a copy of the history, oldest first.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.msgs)
}

// PendingToolCalls returns the calls of the newest assistant message that have
// no matching tool message yet. Empty when the history is well paired.
func (c *Conversation) PendingToolCalls() []ToolCall {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := -1
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if c.msgs[i].Role == RoleAssistant {
			idx = i
			break
		}
	}
	if idx < 0 || len(c.msgs[idx].ToolCalls) == 0 {
		return nil
	}

	answered := map[string]int{}
	for _, m := range c.msgs[idx+1:] {
		if m.Role == RoleTool && m.Result != nil {
			answered[m.Result.CallID]++
		}
	}
	var pending []ToolCall
	for _, call := range c.msgs[idx].ToolCalls {
		if answered[call.ID] > 0 {
			answered[call.ID]--
			continue
		}
		pending = append(pending, call)
	}
	return pending
}
