package router

import (
	"strings"

	"github.com/hmoralesp/casaflow/core"
)

// continuityConfidence is the fixed confidence assigned to a pinned decision.
// A confirmation token carries no classifiable intent of its own, so the
// inherited intent is treated as near-certain rather than scored.
const continuityConfidence = 0.95

// TopicPattern associates marker substrings in the assistant's open question
// with the worker that owns the topic. Patterns are evaluated in order and
// the first match wins.
type TopicPattern struct {
	Intent  string
	Worker  string
	Markers []string
}

// ContinuityOptions configures a ContinuityDetector.
type ContinuityOptions struct {
	// Lexicon is the set of short confirmation/negation tokens, lowercase.
	Lexicon []string
	// Patterns is the ordered topic table consulted against the prior
	// assistant message.
	Patterns []TopicPattern
}

// DefaultLexicon covers the Spanish and English confirmation and negation
// tokens seen in real traffic.
func DefaultLexicon() []string {
	return []string{
		"sí", "si", "no", "ok", "okay", "vale", "dale", "claro",
		"yes", "yep", "nope", "sure", "perfecto", "correcto",
	}
}

// DefaultPatterns maps the document, evaluation, financial-template and
// generic-question topics to their workers. The generic fallback matches any
// open question and pins the coordinator.
func DefaultPatterns() []TopicPattern {
	return []TopicPattern{
		{
			Intent: "document",
			Worker: "document_worker",
			Markers: []string{
				"documento", "document", "contrato", "contract",
				"subir", "upload", "adjunt", "attach", "pdf", "firmar",
			},
		},
		{
			Intent: "evaluation",
			Worker: "evaluation_worker",
			Markers: []string{
				"valorac", "tasac", "evaluat", "apprais", "precio", "valuation",
			},
		},
		{
			Intent: "financial_template",
			Worker: "finance_worker",
			Markers: []string{
				"plantilla", "template", "financier", "financial",
				"hipoteca", "mortgage", "cuota",
			},
		},
		{
			Intent:  "generic_question",
			Worker:  CoordinatorName,
			Markers: []string{"?", "¿"},
		},
	}
}

// ContinuityDetector pins a worker when the user answers an open question
// with a bare confirmation token. Detection is purely lexical and therefore
// deterministic for identical inputs.
type ContinuityDetector struct {
	lexicon  map[string]struct{}
	patterns []TopicPattern
}

// NewContinuityDetector builds a detector with the default lexicon and topic
// table unless overridden.
func NewContinuityDetector(optFns ...func(o *ContinuityOptions)) *ContinuityDetector {
	opts := ContinuityOptions{
		Lexicon:  DefaultLexicon(),
		Patterns: DefaultPatterns(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	lex := make(map[string]struct{}, len(opts.Lexicon))
	for _, token := range opts.Lexicon {
		lex[strings.ToLower(token)] = struct{}{}
	}
	return &ContinuityDetector{lexicon: lex, patterns: opts.Patterns}
}

// Detect returns a pinned routing decision when userText is a confirmation
// token and the prior assistant message matches a topic pattern. The second
// return value reports whether continuity applies.
func (d *ContinuityDetector) Detect(userText string, lastAssistant string) (core.RoutingDecision, bool) {
	if !d.isConfirmation(userText) || lastAssistant == "" {
		return core.RoutingDecision{}, false
	}

	question := strings.ToLower(lastAssistant)
	for _, p := range d.patterns {
		for _, marker := range p.Markers {
			if strings.Contains(question, marker) {
				return core.RoutingDecision{
					Intent:     p.Intent,
					Confidence: continuityConfidence,
					Worker:     p.Worker,
					Method:     core.DecisionContinuityDetected,
				}, true
			}
		}
	}
	return core.RoutingDecision{}, false
}

// isConfirmation normalizes punctuation and case, then checks membership in
// the lexicon. Multi-word input is never a bare confirmation.
func (d *ContinuityDetector) isConfirmation(text string) bool {
	token := strings.ToLower(strings.TrimSpace(text))
	token = strings.Trim(token, ".,!¡¿? ")
	if token == "" || strings.ContainsAny(token, " \t") {
		return false
	}
	_, ok := d.lexicon[token]
	return ok
}
