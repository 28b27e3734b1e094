// Package router decides, per turn, which worker acts and manages the
// bounded handoff protocol between workers, falling back to the coordinator
// whenever the worker path cannot produce a final answer.
package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hmoralesp/casaflow/checkpoint"
	"github.com/hmoralesp/casaflow/coordinator"
	"github.com/hmoralesp/casaflow/core"
	"github.com/hmoralesp/casaflow/logging"
)

// CoordinatorName is the reserved worker name that routes a turn to the
// coordinator instead of a registered worker.
const CoordinatorName = "coordinator"

// defaultMaxRedirects bounds the handoff loop per turn.
const defaultMaxRedirects = 3

// TurnStatus records how a turn concluded.
type TurnStatus string

const (
	// StatusCompleted means a worker or the coordinator produced the final
	// answer within budget.
	StatusCompleted TurnStatus = "completed"
	// StatusFallback means the worker path was abandoned and the coordinator
	// produced the answer instead. Never silently treated as success.
	StatusFallback TurnStatus = "fallback"
)

// TurnResult is the caller-facing outcome of one turn.
type TurnResult struct {
	FinalAnswer    string
	ActiveEntityID string
	AgentPath      []core.HandoffStep
	RedirectCount  int
	Status         TurnStatus
	Decision       core.RoutingDecision
	Latency        time.Duration
}

// Options configures a Router.
type Options struct {
	// MaxRedirects bounds the handoff loop.
	MaxRedirects int
	// HistoryWindow bounds the sanitized history handed to workers.
	HistoryWindow int
	// Continuity overrides the default continuity detector.
	Continuity *ContinuityDetector
	// Classifier overrides the default keyword classifier.
	Classifier Classifier
	// Logger receives structured routing logs. Defaults to NoOp.
	Logger logging.Logger
}

// Router owns turn entry: it loads the checkpoint, picks a worker, drives
// the handoff loop and persists the state exactly once at the end. Safe for
// concurrent use across sessions; the caller serializes turns per session.
type Router struct {
	workers      map[string]core.Worker
	coord        *coordinator.Coordinator
	store        checkpoint.Store
	continuity   *ContinuityDetector
	classifier   Classifier
	maxRedirects int
	window       int
	logger       *logging.TurnLogger
}

// New creates a Router over the coordinator fallback, the checkpoint store
// and the registered workers. The worker registry is read-only after this.
func New(coord *coordinator.Coordinator, store checkpoint.Store, workers []core.Worker, optFns ...func(o *Options)) *Router {
	opts := Options{
		MaxRedirects:  defaultMaxRedirects,
		HistoryWindow: 10,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Continuity == nil {
		opts.Continuity = NewContinuityDetector()
	}
	if opts.Classifier == nil {
		opts.Classifier = NewKeywordClassifier(nil)
	}

	byName := make(map[string]core.Worker, len(workers))
	for _, w := range workers {
		byName[w.Name()] = w
	}

	return &Router{
		workers:      byName,
		coord:        coord,
		store:        store,
		continuity:   opts.Continuity,
		classifier:   opts.Classifier,
		maxRedirects: opts.MaxRedirects,
		window:       opts.HistoryWindow,
		logger:       logging.NewTurnLogger(opts.Logger).WithComponent("router"),
	}
}

// HandleTurn processes one user turn end to end and persists the resulting
// state exactly once. It returns an error only when the turn could not run
// or could not be persisted; worker and provider failures resolve to a
// coordinator fallback answer instead.
func (r *Router) HandleTurn(ctx context.Context, sessionID, userText string) (*TurnResult, error) {
	start := time.Now()
	log := r.logger.WithTurn(sessionID, core.NewID())

	state, err := r.loadState(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	decision := r.decide(ctx, userText, state, log)
	log.Info("routing decided",
		"intent", decision.Intent,
		"worker", decision.Worker,
		"confidence", decision.Confidence,
		"method", string(decision.Method))

	result := r.runHandoffLoop(ctx, sessionID, userText, state, decision, log)
	result.Decision = decision
	result.ActiveEntityID = state.ActiveEntityID
	result.Latency = time.Since(start)

	if err := r.store.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("persist checkpoint: %w", err)
	}

	log.Info("turn routed",
		"status", string(result.Status),
		"redirect_count", result.RedirectCount,
		"path_length", len(result.AgentPath),
		"latency_ms", result.Latency.Milliseconds())
	return result, nil
}

// loadState fetches the latest checkpoint, starting a fresh conversation for
// unknown sessions.
func (r *Router) loadState(ctx context.Context, sessionID string) (*core.ConversationState, error) {
	state, err := r.store.Load(ctx, sessionID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return core.NewConversationState(), nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// decide runs continuity detection first and falls back to the classifier.
// A classifier failure routes to the coordinator rather than failing the turn.
func (r *Router) decide(ctx context.Context, userText string, state *core.ConversationState, log *logging.TurnLogger) core.RoutingDecision {
	lastAssistant := ""
	if last, ok := state.LastAssistant(); ok {
		lastAssistant = last.Content
	}
	if decision, ok := r.continuity.Detect(userText, lastAssistant); ok {
		return decision
	}

	decision, err := r.classifier.Classify(ctx, userText, r.workerContext(state, ""))
	if err != nil {
		log.Warn("classifier failed, routing to coordinator", "error", err.Error())
		return core.RoutingDecision{
			Intent:     "general",
			Confidence: 0,
			Worker:     CoordinatorName,
			Method:     core.DecisionFreshClassification,
		}
	}
	return decision
}

// runHandoffLoop drives the bounded worker loop. Redirect steps over budget
// are still recorded on the path but abandon the loop instead of invoking
// another worker.
func (r *Router) runHandoffLoop(ctx context.Context, sessionID, userText string, state *core.ConversationState, decision core.RoutingDecision, log *logging.TurnLogger) *TurnResult {
	result := &TurnResult{Status: StatusCompleted}

	current := decision.Worker
	if _, known := r.workers[current]; !known || current == CoordinatorName {
		// No worker owns the intent; the coordinator handles the turn directly.
		result.FinalAnswer = r.runCoordinator(ctx, sessionID, userText, state, log)
		result.AgentPath = append(result.AgentPath, core.HandoffStep{
			Worker: CoordinatorName,
			Action: core.ActionComplete,
		})
		return result
	}

	for {
		resp := r.invokeWorker(ctx, r.workers[current], userText, state, decision.Intent, log)
		log.LogHandoff(current, resp.Action.String(), result.RedirectCount)

		switch resp.Action {
		case core.ActionComplete:
			result.AgentPath = append(result.AgentPath, core.HandoffStep{
				Worker: current,
				Action: core.ActionComplete,
			})
			r.commitWorkerAnswer(state, userText, resp)
			result.FinalAnswer = resp.Response
			return result

		case core.ActionRedirect:
			result.AgentPath = append(result.AgentPath, core.HandoffStep{
				Worker:  current,
				Action:  core.ActionRedirect,
				Payload: resp.ToWorker,
			})
			if result.RedirectCount >= r.maxRedirects {
				log.Warn("redirect budget exhausted", "max_redirects", r.maxRedirects)
				return r.fallback(ctx, sessionID, userText, state, result, coordinator.FallbackContext{
					Reason:        "redirect budget exhausted",
					RoutingIntent: decision.Intent,
					FailedWorker:  current,
				}, log)
			}
			target := resp.ToWorker
			if target == CoordinatorName {
				// Redirecting to the coordinator is an escalation exit.
				return r.fallback(ctx, sessionID, userText, state, result, coordinator.FallbackContext{
					Reason:        "worker deferred to coordinator",
					RoutingIntent: decision.Intent,
					FailedWorker:  current,
				}, log)
			}
			if _, known := r.workers[target]; !known {
				return r.fallback(ctx, sessionID, userText, state, result, coordinator.FallbackContext{
					Reason:        fmt.Sprintf("unknown redirect target %q", target),
					RoutingIntent: decision.Intent,
					FailedWorker:  current,
				}, log)
			}
			result.RedirectCount++
			current = target

		case core.ActionEscalate:
			result.AgentPath = append(result.AgentPath, core.HandoffStep{
				Worker:  current,
				Action:  core.ActionEscalate,
				Payload: resp.Reason,
			})
			return r.fallback(ctx, sessionID, userText, state, result, coordinator.FallbackContext{
				Reason:        resp.Reason,
				RoutingIntent: decision.Intent,
				FailedWorker:  current,
			}, log)

		default: // core.ActionError and anything out of range
			result.AgentPath = append(result.AgentPath, core.HandoffStep{
				Worker:  current,
				Action:  core.ActionError,
				Payload: resp.Reason,
			})
			return r.fallback(ctx, sessionID, userText, state, result, coordinator.FallbackContext{
				Reason:        resp.Reason,
				RoutingIntent: decision.Intent,
				FailedWorker:  current,
			}, log)
		}
	}
}

// invokeWorker calls a worker with panic and error conversion: the loop must
// never crash the turn, so both become an ActionError response.
func (r *Router) invokeWorker(ctx context.Context, w core.Worker, userText string, state *core.ConversationState, intent string, log *logging.TurnLogger) (resp core.WorkerResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("worker panicked", "worker", w.Name(), "panic", fmt.Sprintf("%v", rec))
			resp = core.WorkerResponse{
				Action: core.ActionError,
				Reason: fmt.Sprintf("worker panicked: %v", rec),
			}
		}
	}()

	resp, err := w.Handle(ctx, core.WorkerRequest{
		Text:    userText,
		Context: r.workerContext(state, intent),
	})
	if err != nil {
		log.Error("worker failed", "worker", w.Name(), "error", err.Error())
		return core.WorkerResponse{Action: core.ActionError, Reason: err.Error()}
	}
	return resp
}

// workerContext projects the state into the read-only bundle workers see.
func (r *Router) workerContext(state *core.ConversationState, intent string) core.WorkerContext {
	return core.WorkerContext{
		History:        core.SanitizeWindow(state.RecentMessages(r.window)),
		ActiveEntityID: state.ActiveEntityID,
		RoutingIntent:  intent,
	}
}

// commitWorkerAnswer writes the worker-contract fields back into the state:
// the turn's user and assistant messages plus the active entity, nothing else.
func (r *Router) commitWorkerAnswer(state *core.ConversationState, userText string, resp core.WorkerResponse) {
	state.AddMessage(core.NewUserMessage(userText))
	state.AddMessage(core.NewAssistantMessage(resp.Response))
	if resp.ActiveEntityID != "" {
		state.ActiveEntityID = resp.ActiveEntityID
	}
}

// fallback abandons the worker path and lets the coordinator answer,
// carrying the abandoned task context. The outcome is recorded as a distinct
// fallback status, never as a silent success.
func (r *Router) fallback(ctx context.Context, sessionID, userText string, state *core.ConversationState, result *TurnResult, fc coordinator.FallbackContext, log *logging.TurnLogger) *TurnResult {
	result.Status = StatusFallback

	state.RawInput = userText
	answer, err := r.coord.RunFallback(ctx, sessionID, state, fc)
	if err != nil {
		log.Error("coordinator fallback failed", "error", err.Error())
		answer = "Lo siento, no puedo completar tu petición en este momento."
		state.AddMessage(core.NewAssistantMessage(answer))
	}
	result.FinalAnswer = answer
	return result
}

// runCoordinator hands the raw turn to the coordinator and returns its answer.
func (r *Router) runCoordinator(ctx context.Context, sessionID, userText string, state *core.ConversationState, log *logging.TurnLogger) string {
	state.RawInput = userText
	answer, err := r.coord.RunTurn(ctx, sessionID, state)
	if err != nil {
		log.Error("coordinator turn failed", "error", err.Error())
		answer = "Lo siento, no puedo completar tu petición en este momento."
		state.AddMessage(core.NewAssistantMessage(answer))
	}
	return answer
}
