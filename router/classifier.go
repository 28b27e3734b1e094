package router

import (
	"context"
	"strings"

	"github.com/hmoralesp/casaflow/core"
)

// Classifier labels a turn's text with an intent and target worker. The
// router's control flow does not depend on how the classification is made,
// so a model-backed classifier can replace the keyword heuristic without
// touching the handoff loop.
type Classifier interface {
	Classify(ctx context.Context, text string, wctx core.WorkerContext) (core.RoutingDecision, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string, wctx core.WorkerContext) (core.RoutingDecision, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, text string, wctx core.WorkerContext) (core.RoutingDecision, error) {
	return f(ctx, text, wctx)
}

// KeywordRule scores a rule by counting keyword hits in the turn text.
type KeywordRule struct {
	Intent   string
	Worker   string
	Keywords []string
}

// KeywordClassifier is the default heuristic classifier: rules are scored by
// keyword hit count, ties broken by rule order, zero hits falls back to the
// coordinator with low confidence.
type KeywordClassifier struct {
	rules []KeywordRule
}

var _ Classifier = (*KeywordClassifier)(nil)

// DefaultRules derives keyword rules from the continuity topic table so both
// paths agree on intent names and workers.
func DefaultRules() []KeywordRule {
	return []KeywordRule{
		{
			Intent: "document",
			Worker: "document_worker",
			Keywords: []string{
				"documento", "document", "contrato", "contract",
				"subir", "upload", "pdf", "firmar", "firma",
			},
		},
		{
			Intent: "evaluation",
			Worker: "evaluation_worker",
			Keywords: []string{
				"valorac", "valora", "tasac", "tasa", "evaluat", "apprais",
				"cuánto vale", "precio", "valuation",
			},
		},
		{
			Intent: "financial_template",
			Worker: "finance_worker",
			Keywords: []string{
				"plantilla", "template", "financier", "financial",
				"hipoteca", "mortgage", "cuota", "interés",
			},
		},
	}
}

// NewKeywordClassifier builds a classifier; nil rules selects the defaults.
func NewKeywordClassifier(rules []KeywordRule) *KeywordClassifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &KeywordClassifier{rules: rules}
}

// Classify implements Classifier. It never returns an error.
func (c *KeywordClassifier) Classify(_ context.Context, text string, _ core.WorkerContext) (core.RoutingDecision, error) {
	lowered := strings.ToLower(text)

	best := core.RoutingDecision{
		Intent:     "general",
		Confidence: 0.3,
		Worker:     CoordinatorName,
		Method:     core.DecisionFreshClassification,
	}
	bestHits := 0

	for _, rule := range c.rules {
		hits := 0
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				hits++
			}
		}
		// Strict inequality keeps rule order authoritative on ties.
		if hits > bestHits {
			bestHits = hits
			best = core.RoutingDecision{
				Intent:     rule.Intent,
				Confidence: confidenceForHits(hits),
				Worker:     rule.Worker,
				Method:     core.DecisionFreshClassification,
			}
		}
	}
	return best, nil
}

// confidenceForHits maps hit counts to a bounded confidence score.
func confidenceForHits(hits int) float64 {
	c := 0.5 + 0.15*float64(hits)
	if c > 0.9 {
		c = 0.9
	}
	return c
}
