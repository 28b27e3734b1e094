package casaflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmoralesp/casaflow/checkpoint"
	"github.com/hmoralesp/casaflow/config"
	"github.com/hmoralesp/casaflow/core"
	"github.com/hmoralesp/casaflow/model"
	"github.com/hmoralesp/casaflow/router"
	"github.com/hmoralesp/casaflow/worker"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:   config.EnvDevelopment,
		MaxRedirects:  3,
		HistoryWindow: 10,
		MaxModelCalls: 8,
		StoreRetries:  1,
	}
}

func TestNewWithDefaults(t *testing.T) {
	mock := model.NewMockModel("test")

	o, err := New(context.Background(), mock, func(opts *Options) {
		opts.Config = testConfig()
		opts.Store = checkpoint.NewMemoryStore()
	})
	require.NoError(t, err)
	defer o.Close()

	res, err := o.HandleTurn(context.Background(), "sess-1", "hola")
	require.NoError(t, err)
	assert.Equal(t, router.StatusCompleted, res.Status)
	assert.NotEmpty(t, res.FinalAnswer)
}

func TestNewProductionRequiresDurableBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Environment = config.EnvProduction

	_, err := New(context.Background(), model.NewMockModel("test"), func(opts *Options) {
		opts.Config = cfg
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, checkpoint.ErrDurabilityRequired)
}

func TestHandleTurnRoutesToWorker(t *testing.T) {
	mock := model.NewMockModel("test")
	docWorker := worker.NewFuncWorker("document_worker", "Prepares documents.",
		func(ctx context.Context, req core.WorkerRequest) (core.WorkerResponse, error) {
			return core.WorkerResponse{Action: core.ActionComplete, Response: "Contrato listo."}, nil
		})

	o, err := New(context.Background(), mock, func(opts *Options) {
		opts.Config = testConfig()
		opts.Store = checkpoint.NewMemoryStore()
		opts.Workers = []core.Worker{docWorker}
	})
	require.NoError(t, err)
	defer o.Close()

	res, err := o.HandleTurn(context.Background(), "sess-1", "prepara el contrato")
	require.NoError(t, err)
	assert.Equal(t, "Contrato listo.", res.FinalAnswer)
	require.Len(t, res.AgentPath, 1)
	assert.Equal(t, "document_worker", res.AgentPath[0].Worker)
}

func TestTurnsPersistAcrossOrchestrators(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	mock := model.NewMockModel("test")
	mock.AddResponse("hola", "¡Hola!")

	o1, err := New(context.Background(), mock, func(opts *Options) {
		opts.Config = testConfig()
		opts.Store = store
	})
	require.NoError(t, err)
	_, err = o1.HandleTurn(context.Background(), "sess-1", "hola")
	require.NoError(t, err)

	// A fresh orchestrator over the same store resumes the conversation.
	o2, err := New(context.Background(), mock, func(opts *Options) {
		opts.Config = testConfig()
		opts.Store = store
	})
	require.NoError(t, err)
	_, err = o2.HandleTurn(context.Background(), "sess-1", "gracias")
	require.NoError(t, err)

	state, err := store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Len(t, state.Messages, 4)
}
