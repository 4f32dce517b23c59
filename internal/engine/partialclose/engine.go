package partialclose

import (
	"context"
	"fmt"
	"sync"

	"github.com/jeden-/agent-mt5/internal/logger"
	"github.com/jeden-/agent-mt5/internal/types"
	"github.com/jeden-/agent-mt5/pkg/errors"
)

// Execution is the slice of the execution adapter the engine consumes.
type Execution interface {
	GetQuote(ctx context.Context, symbol string) (types.Quote, error)
	PartialClose(ctx context.Context, ticket int64, volume float64) error
}

// positionState tracks per-ticket progress through the staged closes.
type positionState struct {
	// originalVolume is the volume at first sight of the ticket; close
	// fractions always apply to it, not to the shrinking remainder.
	originalVolume float64
	// achievedLevel is the index of the highest level already executed in
	// the ascending level order, or -1.
	achievedLevel int
	oneShotDone   bool
}

// Engine closes configured fractions of a position once profit thresholds
// are reached, in ascending stages.
type Engine struct {
	exec     Execution
	selector Selector
	logger   *logger.Logger

	mu    sync.Mutex
	state map[int64]*positionState
}

// NewEngine creates a partial close engine.
func NewEngine(exec Execution, selector Selector, log *logger.Logger) *Engine {
	return &Engine{
		exec:     exec,
		selector: selector,
		logger:   log,
		mu:       sync.Mutex{},
		state:    make(map[int64]*positionState),
	}
}

// ManagePosition evaluates the configured thresholds for one position and
// closes the corresponding volume when a new stage is reached. The outcome
// is encoded in the returned result; errors never propagate.
func (e *Engine) ManagePosition(ctx context.Context, pos types.Position) types.EngineResult {
	result := types.EngineResult{
		Engine:  types.EnginePartialClose,
		Ticket:  pos.Ticket,
		Symbol:  pos.Symbol,
		Outcome: types.OutcomeUnchanged,
		Detail:  "",
	}

	cfg := e.selector.For(pos.Symbol)
	if cfg == nil {
		result.Detail = "no partial close configured"

		return result
	}

	quote, err := e.exec.GetQuote(ctx, pos.Symbol)
	if err != nil {
		result.Outcome = types.OutcomeError
		result.Detail = fmt.Sprintf("quote fetch failed: %v", err)

		return result
	}

	profit := pos.ProfitPips(quote)
	state := e.stateFor(pos)

	switch cfg.Strategy {
	case StrategyLevels:
		return e.applyLevels(ctx, pos, cfg, state, profit, result)
	case StrategyFixedPercent:
		volume := types.RoundVolumeToStep(state.originalVolume*cfg.CloseFraction, types.DefaultVolumeStep)

		return e.applyOneShot(ctx, pos, cfg.ThresholdPips, volume, state, profit, result)
	case StrategyFixedLots:
		volume := types.RoundVolumeToStep(cfg.CloseLots, types.DefaultVolumeStep)

		return e.applyOneShot(ctx, pos, cfg.ThresholdPips, volume, state, profit, result)
	default:
		result.Outcome = types.OutcomeError
		result.Detail = fmt.Sprintf("unknown strategy %q", cfg.Strategy)

		return result
	}
}

func (e *Engine) applyLevels(ctx context.Context, pos types.Position, cfg *Config, state *positionState, profit float64, result types.EngineResult) types.EngineResult {
	levels := cfg.sortedLevels()

	// Highest level whose threshold is met.
	achieved := -1

	for i, level := range levels {
		if profit >= level.ProfitPips {
			achieved = i
		}
	}

	e.mu.Lock()
	already := state.achievedLevel
	e.mu.Unlock()

	if achieved < 0 || achieved <= already {
		result.Detail = fmt.Sprintf("no new level at %.1f pips profit", profit)

		return result
	}

	level := levels[achieved]

	closeVolume := types.RoundVolumeToStep(state.originalVolume*level.CloseFraction, types.DefaultVolumeStep)
	if closeVolume <= 0 {
		result.Detail = fmt.Sprintf("close volume below venue step at level (%.1f, %.2f)", level.ProfitPips, level.CloseFraction)

		return result
	}

	if closeVolume > pos.Volume {
		closeVolume = pos.Volume
	}

	if err := e.exec.PartialClose(ctx, pos.Ticket, closeVolume); err != nil {
		if errors.IsBenign(err) {
			result.Detail = "position already closed at venue"

			return result
		}

		result.Outcome = types.OutcomeError
		result.Detail = fmt.Sprintf("partial close rejected: %v", err)

		return result
	}

	e.mu.Lock()
	state.achievedLevel = achieved
	e.mu.Unlock()

	remaining := pos.Volume - closeVolume

	result.Outcome = types.OutcomeClosed
	result.Detail = fmt.Sprintf("level (%.1f, %.2f) reached at %.1f pips: closed %.2f, remaining %.2f",
		level.ProfitPips, level.CloseFraction, profit, closeVolume, remaining)

	return result
}

func (e *Engine) applyOneShot(ctx context.Context, pos types.Position, thresholdPips, closeVolume float64, state *positionState, profit float64, result types.EngineResult) types.EngineResult {
	e.mu.Lock()
	done := state.oneShotDone
	e.mu.Unlock()

	if done {
		result.Detail = "one-shot close already taken"

		return result
	}

	if profit < thresholdPips {
		result.Detail = fmt.Sprintf("threshold %.1f pips not reached at %.1f", thresholdPips, profit)

		return result
	}

	if closeVolume <= 0 {
		result.Detail = "close volume below venue step"

		return result
	}

	if closeVolume > pos.Volume {
		closeVolume = pos.Volume
	}

	if err := e.exec.PartialClose(ctx, pos.Ticket, closeVolume); err != nil {
		if errors.IsBenign(err) {
			result.Detail = "position already closed at venue"

			return result
		}

		result.Outcome = types.OutcomeError
		result.Detail = fmt.Sprintf("partial close rejected: %v", err)

		return result
	}

	e.mu.Lock()
	state.oneShotDone = true
	e.mu.Unlock()

	result.Outcome = types.OutcomeClosed
	result.Detail = fmt.Sprintf("closed %.2f at %.1f pips profit, remaining %.2f", closeVolume, profit, pos.Volume-closeVolume)

	return result
}

func (e *Engine) stateFor(pos types.Position) *positionState {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.state[pos.Ticket]
	if !ok {
		state = &positionState{
			originalVolume: pos.Volume,
			achievedLevel:  -1,
			oneShotDone:    false,
		}
		e.state[pos.Ticket] = state
	}

	return state
}

// Prune drops per-ticket bookkeeping for positions no longer open.
func (e *Engine) Prune(live map[int64]struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for ticket := range e.state {
		if _, ok := live[ticket]; !ok {
			delete(e.state, ticket)
		}
	}
}
