package worker

import (
	"context"
	"fmt"

	"github.com/hmoralesp/casaflow/core"
	"github.com/hmoralesp/casaflow/model"
)

// ModelWorkerOptions configures a ModelWorker.
type ModelWorkerOptions struct {
	// Instruction guides the model. Static text supports {{ }} templating
	// over the worker context.
	Instruction Instruction
	// HistoryWindow bounds how many context messages accompany the request.
	HistoryWindow int
	// Interpret maps the raw model answer to a worker response. The default
	// completes with the answer text and carries the entity forward.
	Interpret func(answer string, req core.WorkerRequest) core.WorkerResponse
}

// ModelWorker answers requests through a completion provider. It sends the
// sanitized context window plus the request text and, by default, completes
// with whatever the model answered.
type ModelWorker struct {
	name        string
	description string
	llm         model.Model
	instruction Instruction
	window      int
	interpret   func(answer string, req core.WorkerRequest) core.WorkerResponse
}

var _ core.Worker = (*ModelWorker)(nil)

// NewModelWorker creates a model-backed worker.
func NewModelWorker(name, description string, llm model.Model, optFns ...func(o *ModelWorkerOptions)) *ModelWorker {
	opts := ModelWorkerOptions{
		Instruction:   NewInstructionFromText(fmt.Sprintf("You are %s, a helpful assistant.", name)),
		HistoryWindow: 10,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Interpret == nil {
		opts.Interpret = func(answer string, req core.WorkerRequest) core.WorkerResponse {
			return core.WorkerResponse{
				Action:         core.ActionComplete,
				Response:       answer,
				ActiveEntityID: req.Context.ActiveEntityID,
			}
		}
	}

	return &ModelWorker{
		name:        name,
		description: description,
		llm:         llm,
		instruction: opts.Instruction,
		window:      opts.HistoryWindow,
		interpret:   opts.Interpret,
	}
}

// Name implements Worker.
func (w *ModelWorker) Name() string { return w.name }

// Description implements Worker.
func (w *ModelWorker) Description() string { return w.description }

// Handle implements Worker.
func (w *ModelWorker) Handle(ctx context.Context, req core.WorkerRequest) (core.WorkerResponse, error) {
	instruction, err := w.instruction.Resolve(req.Context)
	if err != nil {
		return core.WorkerResponse{}, fmt.Errorf("resolve instruction: %w", err)
	}

	history := req.Context.History
	if w.window > 0 && len(history) > w.window {
		history = history[len(history)-w.window:]
	}
	messages := core.SanitizeWindow(history)
	messages = append(messages, core.NewUserMessage(req.Text))

	resp, err := w.llm.Generate(ctx, model.Request{
		Instructions: instruction,
		Messages:     messages,
	})
	if err != nil {
		return core.WorkerResponse{}, fmt.Errorf("worker %s: %w", w.name, err)
	}

	return w.interpret(resp.Message.Content, req), nil
}
