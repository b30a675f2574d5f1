package memory_test

import (
	"encoding/json"
	"testing"

	"github.com/petasbytes/go-toolchat/memory"
)

func TestConversation_AppendKeepsOrder(t *testing.T) {
	c := memory.NewConversation()
	c.Append(memory.UserMessage("hi"))
	c.Append(memory.AssistantMessage("hello"), memory.UserMessage("again"))

	got := c.Messages()
	if len(got) != 3 {
		t.Fatalf("length mismatch: got %d want 3", len(got))
	}
	want := []string{"hi", "hello", "again"}
	for i := range want {
		if got[i].Text != want[i] {
			t.Fatalf("mismatch at %d: got %q want %q", i, got[i].Text, want[i])
		}
	}
	if got[1].Role != memory.RoleAssistant {
		t.Fatalf("role at 1: got %q", got[1].Role)
	}
}

func TestConversation_MessagesReturnsCopy(t *testing.T) {
	c := memory.NewConversation()
	c.Append(memory.UserMessage("original"))

	snap := c.Messages()
	snap[0].Text = "mutated"

	if c.Messages()[0].Text != "original" {
		t.Fatal("history changed through returned slice")
	}
}

func TestConversation_PendingToolCalls(t *testing.T) {
	c := memory.NewConversation()
	if c.PendingToolCalls() != nil {
		t.Fatal("empty conversation should have no pending calls")
	}

	c.Append(
		memory.UserMessage("weather in Paris and Rome?"),
		memory.AssistantMessage("",
			memory.ToolCall{ID: "a", Name: "get_weather", Input: json.RawMessage(`{"city":"Paris"}`)},
			memory.ToolCall{ID: "b", Name: "get_weather", Input: json.RawMessage(`{"city":"Rome"}`)},
		),
		memory.ToolMessage(memory.ToolResult{CallID: "a", Name: "get_weather", Content: "sunny"}),
	)

	pending := c.PendingToolCalls()
	if len(pending) != 1 || pending[0].ID != "b" {
		t.Fatalf("want pending [b], got %+v", pending)
	}

	c.Append(memory.ToolMessage(memory.ToolResult{CallID: "b", Name: "get_weather", Content: "rain"}))
	if p := c.PendingToolCalls(); len(p) != 0 {
		t.Fatalf("want no pending calls, got %+v", p)
	}
}

func TestConversation_PendingToolCalls_FinalTextReply(t *testing.T) {
	c := memory.NewConversation()
	c.Append(memory.UserMessage("hi"), memory.AssistantMessage("hello"))
	if p := c.PendingToolCalls(); len(p) != 0 {
		t.Fatalf("text reply should leave nothing pending, got %+v", p)
	}
	if c.Len() != 2 {
		t.Fatalf("Len: got %d want 2", c.Len())
	}
}
