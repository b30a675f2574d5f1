package metrics

import (
	"unicode/utf8"

	"github.com/petasbytes/go-toolchat/memory"
)

// blockOverhead is the fixed cost added per text, tool call or tool result.
const blockOverhead = 4

// EstimateHistory is a deterministic size estimate of what a model call sends.
// Rules:
//   - text: rune count plus overhead
//   - tool call: runes of name and input plus overhead
//   - tool result: runes of content plus overhead
func EstimateHistory(msgs []memory.Message) int {
	total := 0
	for _, m := range msgs {
		total += EstimateMessage(m)
	}
	return total
}

func EstimateMessage(m memory.Message) int {
	total := 0
	if m.Text != "" {
		total += utf8.RuneCountInString(m.Text) + blockOverhead
	}
	for _, c := range m.ToolCalls {
		total += utf8.RuneCountInString(c.Name) + utf8.RuneCount(c.Input) + blockOverhead
	}
	if m.Result != nil {
		total += utf8.RuneCountInString(m.Result.Content) + blockOverhead
	}
	return total
}
