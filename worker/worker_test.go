package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmoralesp/casaflow/core"
	"github.com/hmoralesp/casaflow/model"
)

func TestFuncWorker(t *testing.T) {
	w := NewFuncWorker("evaluator", "Evaluates properties.",
		func(ctx context.Context, req core.WorkerRequest) (core.WorkerResponse, error) {
			return core.WorkerResponse{Action: core.ActionComplete, Response: "done: " + req.Text}, nil
		})

	assert.Equal(t, "evaluator", w.Name())
	assert.Equal(t, "Evaluates properties.", w.Description())

	resp, err := w.Handle(context.Background(), core.WorkerRequest{Text: "valora prop-7"})
	require.NoError(t, err)
	assert.Equal(t, core.ActionComplete, resp.Action)
	assert.Equal(t, "done: valora prop-7", resp.Response)
}

func TestModelWorkerCompletes(t *testing.T) {
	mock := model.NewMockModel("test")
	mock.AddResponse("valora prop-7", "La propiedad vale 250.000 EUR.")

	w := NewModelWorker("evaluator", "Evaluates properties.", mock)
	resp, err := w.Handle(context.Background(), core.WorkerRequest{
		Text:    "valora prop-7",
		Context: core.WorkerContext{ActiveEntityID: "prop-7"},
	})
	require.NoError(t, err)
	assert.Equal(t, core.ActionComplete, resp.Action)
	assert.Equal(t, "La propiedad vale 250.000 EUR.", resp.Response)
	assert.Equal(t, "prop-7", resp.ActiveEntityID, "entity must carry forward")
}

func TestModelWorkerPropagatesProviderError(t *testing.T) {
	mock := model.NewMockModel("test")
	mock.FailWith(errors.New("upstream 500"))

	w := NewModelWorker("evaluator", "Evaluates properties.", mock)
	_, err := w.Handle(context.Background(), core.WorkerRequest{Text: "valora"})
	assert.Error(t, err)
}

func TestModelWorkerCustomInterpret(t *testing.T) {
	mock := model.NewMockModel("test")
	mock.AddResponse("ayuda legal", "ESCALATE")

	w := NewModelWorker("legal", "Handles legal questions.", mock, func(o *ModelWorkerOptions) {
		o.Interpret = func(answer string, req core.WorkerRequest) core.WorkerResponse {
			if answer == "ESCALATE" {
				return core.WorkerResponse{Action: core.ActionEscalate, Reason: "needs a human"}
			}
			return core.WorkerResponse{Action: core.ActionComplete, Response: answer}
		}
	})

	resp, err := w.Handle(context.Background(), core.WorkerRequest{Text: "ayuda legal"})
	require.NoError(t, err)
	assert.Equal(t, core.ActionEscalate, resp.Action)
	assert.Equal(t, "needs a human", resp.Reason)
}

func TestInstructionTemplateRendering(t *testing.T) {
	instr := NewInstructionFromText("Focus on property {{.active_entity_id}}.")
	out, err := instr.Resolve(core.WorkerContext{ActiveEntityID: "prop-42"})
	require.NoError(t, err)
	assert.Equal(t, "Focus on property prop-42.", out)
}

func TestInstructionProvider(t *testing.T) {
	instr := NewInstructionFromFunc(func(wctx core.WorkerContext) (string, error) {
		return "intent: " + wctx.RoutingIntent, nil
	})
	assert.False(t, instr.IsStatic())

	out, err := instr.Resolve(core.WorkerContext{RoutingIntent: "document"})
	require.NoError(t, err)
	assert.Equal(t, "intent: document", out)
}
