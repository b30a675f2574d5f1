// Package memory holds the in-process conversation history.
//
// History model:
//   - Messages are append-only; order is the conversation timeline.
//   - An assistant message carrying tool calls is followed by one tool message per call
//     before the next user message.
//   - Nothing is written to disk; the conversation lives as long as the process.
package memory
