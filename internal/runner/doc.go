// Package runner advances a conversation by one turn against a remote model
// and dispatches the tool calls the model asks for.
//
// Invariant:
//   - every tool call is answered by exactly one tool message before the next
//     user message, so the model always sees call and result adjacent.
//
// Flow:
//
//	user(text) -> assistant(tool calls) -> tool(result)... -> assistant(text)
package runner
