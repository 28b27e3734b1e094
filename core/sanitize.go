package core

// SanitizeWindow removes orphaned tool-result messages from a message window.
// Completion providers reject sequences where a tool result is not
// immediately justified by a preceding assistant tool-call request, so every
// window must pass through here before reaching a model.
//
// Rules:
//   - Leading tool results are dropped (they cannot be justified at the
//     start of a window).
//   - An assistant message requesting tool calls opens a pending-call set of
//     its call IDs; tool results matching a pending ID are kept.
//   - Any non-tool message (including an assistant message without calls)
//     resets the pending set.
//   - Tool results with no matching pending ID are dropped.
//
// The input slice is never mutated.
func SanitizeWindow(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	pending := map[string]bool{}

	for _, m := range msgs {
		if m.IsToolResult() {
			if len(pending) == 0 || !pending[m.ToolCallID] {
				continue
			}
			out = append(out, m)
			continue
		}

		// Non-tool message: reset, then re-open for assistant tool requests.
		pending = map[string]bool{}
		if m.HasToolCalls() {
			for _, tc := range m.ToolCalls {
				pending[tc.ID] = true
			}
		}
		out = append(out, m)
	}
	return out
}
