package stops

import (
	"context"
	"fmt"
	"sync"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/jeden-/agent-mt5/internal/logger"
	"github.com/jeden-/agent-mt5/internal/types"
	"github.com/jeden-/agent-mt5/pkg/errors"
)

// Execution is the slice of the execution adapter the engine consumes.
type Execution interface {
	GetQuote(ctx context.Context, symbol string) (types.Quote, error)
	ModifyPosition(ctx context.Context, ticket int64, stopLoss, takeProfit optional.Option[float64]) error
	PartialClose(ctx context.Context, ticket int64, volume float64) error
}

// Selector picks the strategy for a symbol, falling back to the default.
type Selector struct {
	defaultStrategy Strategy
	bySymbol        map[string]Strategy
}

// NewSelector builds a selector from the default config and optional
// per-symbol overrides.
func NewSelector(defaultCfg Config, bySymbol map[string]Config) (Selector, error) {
	defaultStrategy, err := NewStrategy(defaultCfg)
	if err != nil {
		return Selector{}, err
	}

	strategies := make(map[string]Strategy, len(bySymbol))

	for symbol, cfg := range bySymbol {
		strategy, err := NewStrategy(cfg)
		if err != nil {
			return Selector{}, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "invalid stop strategy for symbol %s", symbol)
		}

		strategies[symbol] = strategy
	}

	return Selector{defaultStrategy: defaultStrategy, bySymbol: strategies}, nil
}

// For returns the strategy configured for the symbol.
func (s Selector) For(symbol string) Strategy {
	if strategy, ok := s.bySymbol[symbol]; ok {
		return strategy
	}

	return s.defaultStrategy
}

// Engine applies the selected stop strategy to open positions. It issues a
// write only when the computed stop strictly improves on the current one;
// venue rejections are reported per position and retried naturally on the
// next cycle from a fresh snapshot.
type Engine struct {
	exec     Execution
	selector Selector
	logger   *logger.Logger

	mu sync.Mutex
	// partialTaken records tickets whose one-time partial close (partial
	// breakeven strategy) has already been executed.
	partialTaken map[int64]bool
}

// NewEngine creates a stop management engine.
func NewEngine(exec Execution, selector Selector, log *logger.Logger) *Engine {
	return &Engine{
		exec:         exec,
		selector:     selector,
		logger:       log,
		mu:           sync.Mutex{},
		partialTaken: make(map[int64]bool),
	}
}

// ManagePosition evaluates and applies the configured strategy for one
// position. It never panics or propagates errors; the outcome is encoded in
// the returned result.
func (e *Engine) ManagePosition(ctx context.Context, pos types.Position) types.EngineResult {
	result := types.EngineResult{
		Engine:  types.EngineStopManagement,
		Ticket:  pos.Ticket,
		Symbol:  pos.Symbol,
		Outcome: types.OutcomeUnchanged,
		Detail:  "",
	}

	strategy := e.selector.For(pos.Symbol)
	if strategy == nil {
		result.Detail = "no stop strategy configured"

		return result
	}

	quote, err := e.exec.GetQuote(ctx, pos.Symbol)
	if err != nil {
		result.Outcome = types.OutcomeError
		result.Detail = fmt.Sprintf("quote fetch failed: %v", err)

		return result
	}

	decision := strategy.Evaluate(pos, quote)
	if !decision.Modify {
		result.Detail = fmt.Sprintf("%s: no adjustment at %.1f pips profit", strategy.Kind(), pos.ProfitPips(quote))

		return result
	}

	// The one-time partial close is attempted whenever the profit threshold
	// holds, before the stop gate: a close that failed in an earlier cycle
	// must stay retryable even after the stop already landed at its target.
	closed := false
	if decision.CloseFraction.IsSome() {
		closed = e.takePartial(ctx, pos, decision.CloseFraction.Unwrap())
	}

	if !pos.StopImproves(decision.NewStop) {
		if closed {
			result.Outcome = types.OutcomeClosed
			result.Detail = fmt.Sprintf("%s: partial close taken, stop unchanged", strategy.Kind())

			return result
		}

		result.Detail = fmt.Sprintf("%s: stop %.5f does not improve current", strategy.Kind(), decision.NewStop)

		return result
	}

	if err := e.exec.ModifyPosition(ctx, pos.Ticket, optional.Some(decision.NewStop), optional.None[float64]()); err != nil {
		if errors.IsBenign(err) {
			result.Detail = "position already closed at venue"

			return result
		}

		result.Outcome = types.OutcomeError
		result.Detail = fmt.Sprintf("modify rejected: %v", err)

		return result
	}

	result.Outcome = types.OutcomeModified
	result.Detail = decision.Reason

	return result
}

// takePartial performs the one-time partial close attached to a breakeven
// decision and reports whether a close was executed in this call. Failures
// are logged but do not block the stop move; the close is only marked done
// on success so the next cycle retries it.
func (e *Engine) takePartial(ctx context.Context, pos types.Position, fraction float64) bool {
	e.mu.Lock()
	taken := e.partialTaken[pos.Ticket]
	e.mu.Unlock()

	if taken {
		return false
	}

	volume := types.RoundVolumeToStep(pos.Volume*fraction, types.DefaultVolumeStep)
	if volume <= 0 {
		return false
	}

	if err := e.exec.PartialClose(ctx, pos.Ticket, volume); err != nil {
		e.logger.Warn("partial breakeven close failed",
			zap.Int64("ticket", pos.Ticket),
			zap.String("symbol", pos.Symbol),
			zap.Error(err),
		)

		return false
	}

	e.mu.Lock()
	e.partialTaken[pos.Ticket] = true
	e.mu.Unlock()

	return true
}

// Prune drops per-ticket bookkeeping for positions no longer open.
func (e *Engine) Prune(live map[int64]struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for ticket := range e.partialTaken {
		if _, ok := live[ticket]; !ok {
			delete(e.partialTaken, ticket)
		}
	}
}
