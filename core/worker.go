package core

import "context"

// HandoffAction is the closed set of outcomes a worker can report for a turn.
// The handoff loop switches over it exhaustively.
type HandoffAction int

const (
	// ActionComplete means the worker produced the turn's final answer.
	ActionComplete HandoffAction = iota
	// ActionRedirect hands control to the worker named in ToWorker.
	ActionRedirect
	// ActionEscalate abandons the worker path and falls back to the
	// coordinator, carrying a reason.
	ActionEscalate
	// ActionError reports a worker failure; the router falls back to the
	// coordinator without losing the routing intent.
	ActionError
)

// String returns the wire/log name of the action.
func (a HandoffAction) String() string {
	switch a {
	case ActionComplete:
		return "complete"
	case ActionRedirect:
		return "redirect"
	case ActionEscalate:
		return "escalate"
	case ActionError:
		return "error"
	default:
		return "unknown"
	}
}

// WorkerContext is the read-only bundle a worker receives alongside the
// user's text: the recent sanitized history, the active domain entity and the
// routing intent that selected the worker.
type WorkerContext struct {
	History        []Message
	ActiveEntityID string
	RoutingIntent  string
}

// WorkerRequest is the input contract for one worker invocation.
type WorkerRequest struct {
	Text    string
	Context WorkerContext
}

// WorkerResponse is the output contract. Which payload fields are meaningful
// depends on Action:
//
//   - ActionComplete: Response (and optionally ActiveEntityID)
//   - ActionRedirect: ToWorker
//   - ActionEscalate / ActionError: Reason
type WorkerResponse struct {
	Action         HandoffAction
	Response       string
	ToWorker       string
	Reason         string
	ActiveEntityID string
}

// Worker is a capability-scoped handler for one class of user intent. A
// worker is polymorphic over this fixed surface; the router neither knows nor
// cares how a worker decides its action. Implementations must be safe for
// concurrent use across sessions.
type Worker interface {
	// Name returns the worker's registry identifier.
	Name() string
	// Description summarizes the worker's capability for routing and logs.
	Description() string
	// Handle processes one turn. Errors are converted by the router into an
	// ActionError handoff; they never crash the turn.
	Handle(ctx context.Context, req WorkerRequest) (WorkerResponse, error)
}
