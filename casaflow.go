// Package casaflow provides a high-level façade over the conversation
// orchestration core: checkpointed sessions, tool call validation, the
// coordinator state machine and the worker handoff router. Most applications
// interact with this package by:
//  1. Creating an Orchestrator via New() with a completion provider
//  2. Registering domain tools and workers through options
//  3. Calling HandleTurn per user input
//
// Initialization order is fixed: the checkpoint store opens first (fatal in
// production without a durable backend), then the tool validator, then the
// router. All defaults are safe for local development; production
// deployments supply a durable connection string and a structured logger.
package casaflow

import (
	"context"
	"fmt"

	"github.com/hmoralesp/casaflow/checkpoint"
	"github.com/hmoralesp/casaflow/config"
	"github.com/hmoralesp/casaflow/coordinator"
	"github.com/hmoralesp/casaflow/core"
	"github.com/hmoralesp/casaflow/logging"
	"github.com/hmoralesp/casaflow/model"
	"github.com/hmoralesp/casaflow/router"
	"github.com/hmoralesp/casaflow/tool"
)

// Options configures the Orchestrator.
type Options struct {
	// Config overrides environment-derived configuration.
	Config *config.Config

	// Store overrides backend selection entirely. When nil, the store opens
	// from configuration with the tiered fallback chain.
	Store checkpoint.Store

	// Registry is the tool validation registry. When nil it is built from
	// the defaults, merged with the configured registry file if one is set.
	Registry *tool.Registry

	// Tools are the executable domain tools available to the coordinator.
	Tools []tool.Tool

	// Workers handle routed intents. The coordinator answers everything that
	// no worker owns.
	Workers []core.Worker

	// Instruction overrides the coordinator's system instruction.
	Instruction string

	// Classifier overrides the default keyword classifier.
	Classifier router.Classifier

	// Continuity overrides the default continuity detector.
	Continuity *router.ContinuityDetector

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Orchestrator is the façade aggregating the store, validator, coordinator
// and router. Construct once per process and share across request handlers.
type Orchestrator struct {
	cfg    *config.Config
	store  checkpoint.Store
	router *router.Router
	logger logging.Logger
}

// New creates an Orchestrator. It fails when configuration is invalid or
// when a production deployment has no reachable durable checkpoint backend.
func New(ctx context.Context, llm model.Model, optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}

	// 1. Checkpoint store. Fatal in production without a durable backend.
	store := opts.Store
	if store == nil {
		opened, err := checkpoint.Open(ctx, cfg, opts.Logger)
		if err != nil {
			return nil, err
		}
		store = opened
	}
	store = checkpoint.WithRetry(store, cfg.StoreRetries, cfg.StoreRetryBackoff, opts.Logger)

	// 2. Tool validator.
	registry := opts.Registry
	if registry == nil {
		if cfg.ToolRegistryPath != "" {
			loaded, err := tool.LoadFile(cfg.ToolRegistryPath)
			if err != nil {
				return nil, fmt.Errorf("load tool registry: %w", err)
			}
			registry = loaded
		} else {
			registry = tool.DefaultRegistry()
		}
	}
	validator := tool.NewValidator(registry)

	tools := make(map[string]tool.Tool, len(opts.Tools))
	for _, t := range opts.Tools {
		tools[t.Name()] = t
	}

	coord := coordinator.New(llm, validator, registry, func(o *coordinator.Options) {
		if opts.Instruction != "" {
			o.Instruction = opts.Instruction
		}
		o.HistoryWindow = cfg.HistoryWindow
		o.MaxModelCalls = cfg.MaxModelCalls
		o.Tools = tools
		o.Logger = opts.Logger
	})

	// 3. Router.
	rt := router.New(coord, store, opts.Workers, func(o *router.Options) {
		o.MaxRedirects = cfg.MaxRedirects
		o.HistoryWindow = cfg.HistoryWindow
		o.Continuity = opts.Continuity
		o.Classifier = opts.Classifier
		o.Logger = opts.Logger
	})

	return &Orchestrator{cfg: cfg, store: store, router: rt, logger: opts.Logger}, nil
}

// HandleTurn processes one user turn for a session and returns the routed
// result. Turns for the same session must be serialized by the caller; turns
// for different sessions may run concurrently.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, userText string) (*router.TurnResult, error) {
	return o.router.HandleTurn(ctx, sessionID, userText)
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() *config.Config { return o.cfg }

// Close releases the checkpoint store's resources.
func (o *Orchestrator) Close() error { return o.store.Close() }
