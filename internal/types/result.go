package types

import "time"

// EngineName identifies which lifecycle engine produced a result.
type EngineName string

const (
	EngineStopManagement EngineName = "stop-management"
	EnginePartialClose   EngineName = "partial-close"
	EngineOco            EngineName = "oco"
	// EngineLifecycle marks cycle-level outcomes (e.g. snapshot failures)
	// not attributable to a single engine.
	EngineLifecycle EngineName = "lifecycle"
)

// Outcome classifies the effect of one engine invocation on one item.
type Outcome string

const (
	OutcomeModified  Outcome = "modified"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeClosed    Outcome = "closed"
	OutcomeError     Outcome = "error"
)

// EngineResult is the per-item outcome of an engine invocation within a cycle.
type EngineResult struct {
	Engine  EngineName `yaml:"engine" json:"engine"`
	Ticket  int64      `yaml:"ticket" json:"ticket"`
	Symbol  string     `yaml:"symbol" json:"symbol"`
	Outcome Outcome    `yaml:"outcome" json:"outcome"`
	// Detail carries a human-readable reason sufficient to diagnose cause
	// (strategy applied, threshold reached, rejection reason, ...).
	Detail string `yaml:"detail" json:"detail"`
}

// CycleSummary aggregates all engine results produced by one scheduler cycle.
type CycleSummary struct {
	StartedAt  time.Time      `yaml:"started_at" json:"started_at"`
	FinishedAt time.Time      `yaml:"finished_at" json:"finished_at"`
	Results    []EngineResult `yaml:"results" json:"results"`
}

// Count returns the number of results with the given outcome.
func (s CycleSummary) Count(outcome Outcome) int {
	n := 0

	for _, r := range s.Results {
		if r.Outcome == outcome {
			n++
		}
	}

	return n
}

// Errored returns only the results that ended in an error outcome.
func (s CycleSummary) Errored() []EngineResult {
	var out []EngineResult

	for _, r := range s.Results {
		if r.Outcome == OutcomeError {
			out = append(out, r)
		}
	}

	return out
}
