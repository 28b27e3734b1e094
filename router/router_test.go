package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmoralesp/casaflow/checkpoint"
	"github.com/hmoralesp/casaflow/coordinator"
	"github.com/hmoralesp/casaflow/core"
	"github.com/hmoralesp/casaflow/internal/testutil"
	"github.com/hmoralesp/casaflow/model"
	"github.com/hmoralesp/casaflow/tool"
	"github.com/hmoralesp/casaflow/worker"
)

func newTestCoordinator(answer string) *coordinator.Coordinator {
	mock := model.NewMockModel("test")
	if answer != "" {
		mock.Enqueue(model.Response{
			Message:      core.NewAssistantMessage(answer),
			FinishReason: "stop",
		})
	}
	registry := tool.DefaultRegistry()
	return coordinator.New(mock, tool.NewValidator(registry), registry)
}

func completingWorker(name, answer string) core.Worker {
	return worker.NewFuncWorker(name, name+" worker",
		func(ctx context.Context, req core.WorkerRequest) (core.WorkerResponse, error) {
			return core.WorkerResponse{Action: core.ActionComplete, Response: answer}, nil
		})
}

func redirectingWorker(name, target string) core.Worker {
	return worker.NewFuncWorker(name, name+" worker",
		func(ctx context.Context, req core.WorkerRequest) (core.WorkerResponse, error) {
			return core.WorkerResponse{Action: core.ActionRedirect, ToWorker: target}, nil
		})
}

func TestHandleTurnWorkerCompletes(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	r := New(newTestCoordinator(""), store, []core.Worker{
		completingWorker("document_worker", "Aquí tienes el contrato."),
	})

	res, err := r.HandleTurn(context.Background(), "sess-1", "necesito el contrato de la propiedad")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, "Aquí tienes el contrato.", res.FinalAnswer)
	assert.Equal(t, "document", res.Decision.Intent)
	assert.Equal(t, core.DecisionFreshClassification, res.Decision.Method)
	require.Len(t, res.AgentPath, 1)
	assert.Equal(t, core.ActionComplete, res.AgentPath[0].Action)

	// Exactly one checkpoint write happened; the turn is reloadable.
	state, err := store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "Aquí tienes el contrato.", state.Messages[1].Content)
}

func TestHandleTurnContinuityAfterDocumentQuestion(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	seed := testutil.NewStateBuilder().
		User("necesito ayuda").
		Assistant("¿Quieres subir el documento de la propiedad?").
		Build()
	require.NoError(t, store.Save(context.Background(), "sess-1", seed))

	r := New(newTestCoordinator(""), store, []core.Worker{
		completingWorker("document_worker", "Perfecto, sube el archivo."),
	})

	res, err := r.HandleTurn(context.Background(), "sess-1", "sí")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, core.DecisionContinuityDetected, res.Decision.Method)
	assert.Equal(t, "document_worker", res.Decision.Worker)
	assert.GreaterOrEqual(t, res.Decision.Confidence, 0.9)
}

func TestContinuityDeterministic(t *testing.T) {
	d := NewContinuityDetector()
	question := "¿Quieres subir el documento de la propiedad?"

	first, ok := d.Detect("sí", question)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := d.Detect("sí", question)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestContinuityRequiresConfirmationToken(t *testing.T) {
	d := NewContinuityDetector()
	_, ok := d.Detect("cuéntame más sobre el documento", "¿Quieres subir el documento?")
	assert.False(t, ok, "full sentences must go through fresh classification")

	_, ok = d.Detect("sí", "")
	assert.False(t, ok, "no prior question, nothing to inherit")
}

func TestHandleTurnTripleRedirectFallsBack(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	r := New(newTestCoordinator("Te ayudo yo directamente."), store, []core.Worker{
		redirectingWorker("document_worker", "evaluation_worker"),
		redirectingWorker("evaluation_worker", "finance_worker"),
		redirectingWorker("finance_worker", "legal_worker"),
		redirectingWorker("legal_worker", "document_worker"),
	})

	res, err := r.HandleTurn(context.Background(), "sess-1", "necesito el contrato")
	require.NoError(t, err)
	assert.Equal(t, StatusFallback, res.Status)
	assert.Equal(t, 3, res.RedirectCount)
	assert.Len(t, res.AgentPath, 4)
	assert.Equal(t, "Te ayudo yo directamente.", res.FinalAnswer)
}

func TestHandleTurnRedirectWithinBudgetCompletes(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	r := New(newTestCoordinator(""), store, []core.Worker{
		redirectingWorker("document_worker", "evaluation_worker"),
		completingWorker("evaluation_worker", "Valoración lista."),
	})

	res, err := r.HandleTurn(context.Background(), "sess-1", "necesito el contrato")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 1, res.RedirectCount)
	require.Len(t, res.AgentPath, 2)
	assert.Equal(t, "Valoración lista.", res.FinalAnswer)
}

func TestHandleTurnUnknownRedirectTargetFallsBack(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	r := New(newTestCoordinator("Sigo yo."), store, []core.Worker{
		redirectingWorker("document_worker", "nonexistent_worker"),
	})

	res, err := r.HandleTurn(context.Background(), "sess-1", "necesito el contrato")
	require.NoError(t, err)
	assert.Equal(t, StatusFallback, res.Status)
	assert.Equal(t, "Sigo yo.", res.FinalAnswer)
}

func TestHandleTurnWorkerErrorFallsBack(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	failing := worker.NewFuncWorker("document_worker", "always fails",
		func(ctx context.Context, req core.WorkerRequest) (core.WorkerResponse, error) {
			return core.WorkerResponse{}, errors.New("backend unavailable")
		})

	r := New(newTestCoordinator("Déjame intentarlo."), store, []core.Worker{failing})

	res, err := r.HandleTurn(context.Background(), "sess-1", "necesito el contrato")
	require.NoError(t, err)
	assert.Equal(t, StatusFallback, res.Status)
	require.Len(t, res.AgentPath, 1)
	assert.Equal(t, core.ActionError, res.AgentPath[0].Action)
	assert.Contains(t, res.AgentPath[0].Payload, "backend unavailable")
}

func TestHandleTurnWorkerPanicFallsBack(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	panicking := worker.NewFuncWorker("document_worker", "panics",
		func(ctx context.Context, req core.WorkerRequest) (core.WorkerResponse, error) {
			panic("boom")
		})

	r := New(newTestCoordinator("Sin problema."), store, []core.Worker{panicking})

	res, err := r.HandleTurn(context.Background(), "sess-1", "necesito el contrato")
	require.NoError(t, err, "panics must never crash the turn")
	assert.Equal(t, StatusFallback, res.Status)
	assert.Equal(t, core.ActionError, res.AgentPath[0].Action)
}

func TestHandleTurnNoWorkerMatchesRoutesToCoordinator(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	r := New(newTestCoordinator("Hola, ¿en qué te ayudo?"), store, nil)

	res, err := r.HandleTurn(context.Background(), "sess-1", "hola")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	require.Len(t, res.AgentPath, 1)
	assert.Equal(t, CoordinatorName, res.AgentPath[0].Worker)
}

func TestHandleTurnCarriesActiveEntity(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	w := worker.NewFuncWorker("evaluation_worker", "evaluates",
		func(ctx context.Context, req core.WorkerRequest) (core.WorkerResponse, error) {
			return core.WorkerResponse{
				Action:         core.ActionComplete,
				Response:       "Valorada.",
				ActiveEntityID: "prop-42",
			}, nil
		})
	r := New(newTestCoordinator(""), store, []core.Worker{w})

	res, err := r.HandleTurn(context.Background(), "sess-1", "valora la propiedad")
	require.NoError(t, err)
	assert.Equal(t, "prop-42", res.ActiveEntityID)

	state, err := store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "prop-42", state.ActiveEntityID)
}
