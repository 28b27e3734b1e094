// Package worker provides concrete Worker implementations: FuncWorker wraps
// a plain function and ModelWorker answers through a completion provider
// with templated instructions.
package worker

import (
	"context"

	"github.com/hmoralesp/casaflow/core"
)

// FuncWorker adapts an ordinary function to the Worker interface.
type FuncWorker struct {
	name        string
	description string
	fn          func(ctx context.Context, req core.WorkerRequest) (core.WorkerResponse, error)
}

var _ core.Worker = (*FuncWorker)(nil)

// NewFuncWorker wraps fn as a named worker.
func NewFuncWorker(name, description string, fn func(ctx context.Context, req core.WorkerRequest) (core.WorkerResponse, error)) *FuncWorker {
	return &FuncWorker{name: name, description: description, fn: fn}
}

// Name implements Worker.
func (w *FuncWorker) Name() string { return w.name }

// Description implements Worker.
func (w *FuncWorker) Description() string { return w.description }

// Handle implements Worker.
func (w *FuncWorker) Handle(ctx context.Context, req core.WorkerRequest) (core.WorkerResponse, error) {
	return w.fn(ctx, req)
}
