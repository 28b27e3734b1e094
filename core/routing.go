package core

// DecisionMethod records how a routing decision was produced.
type DecisionMethod string

const (
	// DecisionFreshClassification means the classifier labeled the turn's
	// text on its own.
	DecisionFreshClassification DecisionMethod = "fresh_classification"
	// DecisionContinuityDetected means the turn was recognized as the answer
	// to a worker's open question and the worker was pinned.
	DecisionContinuityDetected DecisionMethod = "continuity_detected"
)

// RoutingDecision selects the worker that starts the handoff loop for a turn.
type RoutingDecision struct {
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Worker     string         `json:"worker"`
	Method     DecisionMethod `json:"method"`
}

// HandoffStep is one entry in the per-turn agent path, recorded for
// observability and loop-bound enforcement.
type HandoffStep struct {
	Worker  string        `json:"worker"`
	Action  HandoffAction `json:"action"`
	Payload string        `json:"payload,omitempty"`
}
