// Package coordinator implements the state machine that drives one
// conversational turn to completion: normalize input, generate against the
// completion provider, validate and execute requested tool calls, post
// process, and loop until no further tool calls are requested or a
// wait-for-confirmation condition is reached.
//
// The coordinator exclusively owns ConversationState mutation during a turn.
// Persistence is the caller's concern: one checkpoint write after the turn,
// never during it.
package coordinator

import (
	"context"
	"fmt"

	"github.com/hmoralesp/casaflow/core"
	"github.com/hmoralesp/casaflow/logging"
	"github.com/hmoralesp/casaflow/model"
	"github.com/hmoralesp/casaflow/tool"
)

// step names the coordinator's states. Transitions are computed by
// shouldContinue after each post-process pass.
type step int

const (
	stepNormalize step = iota
	stepGenerate
	stepExecute
	stepPostProcess
	stepEnd
)

const (
	// defaultHistoryWindow bounds the sanitized message window per model call.
	defaultHistoryWindow = 10
	// defaultMaxModelCalls caps generate iterations within one turn so a
	// model that requests tools forever cannot spin.
	defaultMaxModelCalls = 8

	defaultInstruction = "You are a helpful real-estate assistant. Use the available tools to " +
		"look up properties, prepare documents and answer the user in their own language."

	providerErrorMessage = "Lo siento, no puedo responder en este momento. Por favor, inténtalo de nuevo."
	callBudgetMessage    = "No pude completar la operación tras varios intentos. ¿Puedes reformular tu petición?"
)

// Options configures a Coordinator.
type Options struct {
	// Instruction is the fixed system instruction prefixed to every window.
	Instruction string
	// HistoryWindow bounds the message window sent to the model.
	HistoryWindow int
	// MaxModelCalls caps generate iterations per turn.
	MaxModelCalls int
	// Tools are the executable domain tools, keyed by name.
	Tools map[string]tool.Tool
	// Logger receives structured turn logs. Defaults to NoOp.
	Logger logging.Logger
}

// Coordinator drives turns against a completion provider. Construct once and
// share across sessions; all per-turn state lives in the ConversationState.
type Coordinator struct {
	llm         model.Model
	validator   *tool.Validator
	tools       map[string]tool.Tool
	schemas     []model.ToolSchema
	instruction string
	window      int
	maxCalls    int
	logger      *logging.TurnLogger
}

// FallbackContext carries the task context of an abandoned worker path into
// a coordinator fallback turn so it is not lost.
type FallbackContext struct {
	Reason        string
	RoutingIntent string
	FailedWorker  string
}

// New creates a Coordinator over a model and validator. The validator's
// registry also supplies the tool schemas exposed to the model.
func New(llm model.Model, validator *tool.Validator, registry *tool.Registry, optFns ...func(o *Options)) *Coordinator {
	opts := Options{
		Instruction:   defaultInstruction,
		HistoryWindow: defaultHistoryWindow,
		MaxModelCalls: defaultMaxModelCalls,
		Tools:         map[string]tool.Tool{},
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if validator == nil {
		validator = tool.NewValidator(registry)
	}

	return &Coordinator{
		llm:         llm,
		validator:   validator,
		tools:       opts.Tools,
		schemas:     buildSchemas(opts.Tools, registry),
		instruction: opts.Instruction,
		window:      opts.HistoryWindow,
		maxCalls:    opts.MaxModelCalls,
		logger:      logging.NewTurnLogger(opts.Logger).WithComponent("coordinator"),
	}
}

// buildSchemas derives the provider-facing tool schemas from the executable
// tools, using the registry's required-argument specs where known.
func buildSchemas(tools map[string]tool.Tool, registry *tool.Registry) []model.ToolSchema {
	if registry == nil {
		registry = tool.DefaultRegistry()
	}
	schemas := make([]model.ToolSchema, 0, len(tools))
	for name, t := range tools {
		params := map[string]any{"type": "object", "properties": map[string]any{}}
		if spec, ok := registry.Lookup(name); ok {
			params = model.SchemaFromRequiredArgs(spec.RequiredArgs)
		}
		schemas = append(schemas, model.ToolSchema{
			Name:        name,
			Description: t.Description(),
			Parameters:  params,
		})
	}
	return schemas
}

// turn bundles the mutable scope of one RunTurn invocation.
type turn struct {
	state       *core.ConversationState
	log         *logging.TurnLogger
	modelCalls  int
	errSurfaced bool
	gaveUpOnCap bool
}

// RunTurn drives one turn to completion, mutating state in place, and
// returns the final assistant answer. It never returns an error for
// provider or tool failures; those surface as assistant messages. An error
// here means the turn could not run at all (context cancelled).
func (c *Coordinator) RunTurn(ctx context.Context, sessionID string, state *core.ConversationState) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t := &turn{state: state, log: c.logger.WithTurn(sessionID, core.NewID())}

	current := stepNormalize
	for current != stepEnd {
		switch current {
		case stepNormalize:
			c.normalizeInput(state)
			current = stepGenerate

		case stepGenerate:
			if t.modelCalls >= c.maxCalls {
				t.log.Warn("model call budget exhausted", "max_calls", c.maxCalls)
				state.AddMessage(core.NewAssistantMessage(callBudgetMessage))
				t.gaveUpOnCap = true
				current = stepEnd
				continue
			}
			t.modelCalls++
			c.generate(ctx, t)
			if last, ok := state.LastMessage(); ok && last.HasToolCalls() {
				current = stepExecute
			} else {
				current = stepPostProcess
			}

		case stepExecute:
			c.execute(ctx, t)
			current = stepPostProcess

		case stepPostProcess:
			c.postProcess(t)
			current = c.shouldContinue(state)
		}
	}

	answer := ""
	if last, ok := state.LastAssistant(); ok {
		answer = last.Content
	}
	t.log.Info("turn complete",
		"model_calls", t.modelCalls,
		"waiting_confirmation", state.WaitingConfirmation,
		"budget_exhausted", t.gaveUpOnCap)
	return answer, nil
}

// RunFallback runs a turn after the worker path was abandoned, first
// attaching the abandoned task context so the model does not lose it.
func (c *Coordinator) RunFallback(ctx context.Context, sessionID string, state *core.ConversationState, fb FallbackContext) (string, error) {
	note := "The specialized worker path was abandoned."
	if fb.FailedWorker != "" {
		note += fmt.Sprintf(" Failing worker: %s.", fb.FailedWorker)
	}
	if fb.RoutingIntent != "" {
		note += fmt.Sprintf(" Original intent: %s.", fb.RoutingIntent)
	}
	if fb.Reason != "" {
		note += fmt.Sprintf(" Reason: %s.", fb.Reason)
	}
	note += " Answer the user directly."
	state.AddMessage(core.NewSystemMessage(note))

	return c.RunTurn(ctx, sessionID, state)
}

// normalizeInput wraps a raw-text turn as a user message and clears the raw
// field. Idempotent on repeated application.
func (c *Coordinator) normalizeInput(state *core.ConversationState) {
	if state.RawInput == "" {
		return
	}
	state.AddMessage(core.NewUserMessage(state.RawInput))
	state.RawInput = ""
}

// generate builds the sanitized bounded window, invokes the provider and
// appends the assistant message. Provider failure never crashes the turn: a
// synthesized assistant error message is appended instead.
func (c *Coordinator) generate(ctx context.Context, t *turn) {
	window := core.SanitizeWindow(t.state.RecentMessages(c.window))

	resp, err := c.llm.Generate(ctx, model.Request{
		Instructions: c.instruction,
		Messages:     window,
		Tools:        c.schemas,
	})
	if err != nil {
		t.log.Error("completion provider failed", "error", err.Error())
		t.state.AddMessage(core.NewAssistantMessage(providerErrorMessage))
		return
	}

	t.state.AddMessage(resp.Message)
	t.log.Debug("model generated",
		"finish_reason", resp.FinishReason,
		"tool_calls", len(resp.Message.ToolCalls))
}

// postProcess clears the one-shot validation error after it has been
// surfaced to the model once; otherwise it is a pass-through used as the
// stable re-entry point for the confirmation-wait check.
func (c *Coordinator) postProcess(t *turn) {
	if t.state.LastValidationError == "" {
		return
	}
	if t.errSurfaced {
		t.state.LastValidationError = ""
		t.errSurfaced = false
		return
	}
	t.errSurfaced = true
}

// shouldContinue is the transition rule evaluated after every post-process
// pass: confirmation wait ends the turn, a pending validation error loops to
// generation so the model can react to the rejection, fresh tool results
// loop to generation, unanswered tool calls loop to execution, anything else
// ends the turn.
func (c *Coordinator) shouldContinue(state *core.ConversationState) step {
	if state.WaitingConfirmation {
		return stepEnd
	}
	if state.LastValidationError != "" {
		return stepGenerate
	}
	last, ok := state.LastMessage()
	if !ok {
		return stepEnd
	}
	if last.IsToolResult() {
		return stepGenerate
	}
	if last.HasToolCalls() {
		return stepExecute
	}
	return stepEnd
}
