package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/jeden-/agent-mt5/internal/logger"
	"github.com/jeden-/agent-mt5/internal/types"
)

// Snapshot is the slice of the execution adapter the lifecycle consumes to
// observe venue state.
type Snapshot interface {
	GetPositions(ctx context.Context) ([]types.Position, error)
	GetPendingOrders(ctx context.Context) ([]types.PendingOrder, error)
}

// PositionEngine is a per-position lifecycle engine (stop management,
// partial close).
type PositionEngine interface {
	ManagePosition(ctx context.Context, pos types.Position) types.EngineResult
	Prune(live map[int64]struct{})
}

// PairMonitor resolves OCO pairs against a venue snapshot.
type PairMonitor interface {
	Monitor(ctx context.Context, positions []types.Position, pending []types.PendingOrder) []types.EngineResult
}

// Lifecycle runs the engines over one consistent venue snapshot per cycle
// and aggregates per-item outcomes. One item's failure never aborts the
// cycle for the others.
type Lifecycle struct {
	snapshot Snapshot
	stops    PositionEngine
	partial  PositionEngine
	oco      PairMonitor
	logger   *logger.Logger
	config   Config

	mu          sync.Mutex
	lastSummary types.CycleSummary
}

// NewLifecycle wires the engines into a cycle runner. Any engine may be nil
// to disable it.
func NewLifecycle(snapshot Snapshot, stops, partial PositionEngine, ocoMonitor PairMonitor, config Config, log *logger.Logger) *Lifecycle {
	return &Lifecycle{
		snapshot:    snapshot,
		stops:       stops,
		partial:     partial,
		oco:         ocoMonitor,
		logger:      log,
		config:      config.withDefaults(),
		mu:          sync.Mutex{},
		lastSummary: types.CycleSummary{StartedAt: time.Time{}, FinishedAt: time.Time{}, Results: nil},
	}
}

// Register adds the lifecycle task to a driver at the configured cadence.
func (l *Lifecycle) Register(driver *Driver) {
	driver.AddTask("lifecycle", l.config.CycleInterval, func(ctx context.Context) {
		l.RunCycle(ctx)
	})
}

// LastSummary returns the most recently completed cycle summary.
func (l *Lifecycle) LastSummary() types.CycleSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.lastSummary
}

// RunCycle fetches the position and pending order sets once, runs the
// configured engines for every position, and the OCO monitor once. All
// engines within the cycle observe the same snapshot.
func (l *Lifecycle) RunCycle(ctx context.Context) types.CycleSummary {
	summary := types.CycleSummary{
		StartedAt:  time.Now(),
		FinishedAt: time.Time{},
		Results:    nil,
	}

	positions, err := l.snapshot.GetPositions(ctx)
	if err != nil {
		return l.finish(summary, types.EngineResult{
			Engine:  types.EngineLifecycle,
			Ticket:  0,
			Symbol:  "",
			Outcome: types.OutcomeError,
			Detail:  fmt.Sprintf("position snapshot failed: %v", err),
		})
	}

	pending, err := l.snapshot.GetPendingOrders(ctx)
	if err != nil {
		return l.finish(summary, types.EngineResult{
			Engine:  types.EngineLifecycle,
			Ticket:  0,
			Symbol:  "",
			Outcome: types.OutcomeError,
			Detail:  fmt.Sprintf("pending order snapshot failed: %v", err),
		})
	}

	live := make(map[int64]struct{}, len(positions))
	for _, pos := range positions {
		live[pos.Ticket] = struct{}{}
	}

	l.pruneEngines(live)

	var (
		resultsMu sync.Mutex
		results   []types.EngineResult
	)

	workers := pool.New().WithMaxGoroutines(l.config.MaxConcurrent)

	for _, pos := range positions {
		workers.Go(func() {
			var itemResults []types.EngineResult

			if l.stops != nil {
				itemResults = append(itemResults, l.safeManage(ctx, l.stops, types.EngineStopManagement, pos))
			}

			if l.partial != nil {
				itemResults = append(itemResults, l.safeManage(ctx, l.partial, types.EnginePartialClose, pos))
			}

			resultsMu.Lock()
			results = append(results, itemResults...)
			resultsMu.Unlock()
		})
	}

	workers.Wait()

	if l.oco != nil {
		results = append(results, l.oco.Monitor(ctx, positions, pending)...)
	}

	return l.finish(summary, results...)
}

// safeManage shields the cycle from a panicking engine: the panic becomes an
// error result for that item.
func (l *Lifecycle) safeManage(ctx context.Context, engine PositionEngine, name types.EngineName, pos types.Position) (result types.EngineResult) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("engine panicked",
				zap.String("engine", string(name)),
				zap.Int64("ticket", pos.Ticket),
				zap.Any("panic", r),
			)

			result = types.EngineResult{
				Engine:  name,
				Ticket:  pos.Ticket,
				Symbol:  pos.Symbol,
				Outcome: types.OutcomeError,
				Detail:  fmt.Sprintf("engine panic: %v", r),
			}
		}
	}()

	return engine.ManagePosition(ctx, pos)
}

func (l *Lifecycle) pruneEngines(live map[int64]struct{}) {
	if l.stops != nil {
		l.stops.Prune(live)
	}

	if l.partial != nil {
		l.partial.Prune(live)
	}
}

func (l *Lifecycle) finish(summary types.CycleSummary, results ...types.EngineResult) types.CycleSummary {
	summary.Results = append(summary.Results, results...)
	summary.FinishedAt = time.Now()

	l.mu.Lock()
	l.lastSummary = summary
	l.mu.Unlock()

	l.logger.Info("lifecycle cycle finished",
		zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
		zap.Int("modified", summary.Count(types.OutcomeModified)),
		zap.Int("closed", summary.Count(types.OutcomeClosed)),
		zap.Int("unchanged", summary.Count(types.OutcomeUnchanged)),
		zap.Int("errored", summary.Count(types.OutcomeError)),
	)

	for _, r := range summary.Errored() {
		l.logger.Warn("cycle item errored",
			zap.String("engine", string(r.Engine)),
			zap.Int64("ticket", r.Ticket),
			zap.String("symbol", r.Symbol),
			zap.String("detail", r.Detail),
		)
	}

	return summary
}
