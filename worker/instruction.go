package worker

import (
	"github.com/hmoralesp/casaflow/core"
	"github.com/hmoralesp/casaflow/internal/util"
)

// Provider supplies dynamic instruction text at runtime. Implementations can
// derive instructions from the worker context, environment, etc.
type Provider interface {
	Instruction(wctx core.WorkerContext) (string, error)
}

// ProviderFunc is a functional adapter to allow ordinary functions to be
// used as Providers.
type ProviderFunc func(wctx core.WorkerContext) (string, error)

// Instruction implements Provider.
func (f ProviderFunc) Instruction(wctx core.WorkerContext) (string, error) { return f(wctx) }

// Instruction represents either a static instruction string or a dynamic
// provider. Static text may contain {{ }} template markers expanded against
// the worker context.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(wctx core.WorkerContext) (string, error)) Instruction {
	return Instruction{provider: ProviderFunc(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider or rendering
// template markers as needed.
func (i Instruction) Resolve(wctx core.WorkerContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(wctx)
	}
	return util.RenderTemplate(i.text, map[string]any{
		"active_entity_id": wctx.ActiveEntityID,
		"routing_intent":   wctx.RoutingIntent,
	})
}
