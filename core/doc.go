// Package core provides the foundational domain types shared by the casaflow
// orchestration subsystem. It defines the core abstractions for:
//
//   - Messages (the ordered conversational record, including tool calls and
//     tool results)
//   - ConversationState (the fixed, versioned per-session field set)
//   - Workers (capability-scoped turn handlers and their handoff contract)
//   - Routing decisions and handoff steps (the observable agent path)
//   - Message window sanitization (orphaned tool-result removal)
//
// The package intentionally keeps implementation concerns (persistence,
// routing, coordination, concrete workers) out of scope, exposing small types
// and interfaces so higher layers can be composed and tested independently.
package core
