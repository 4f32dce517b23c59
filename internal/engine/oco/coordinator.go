package oco

import (
	"context"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/jeden-/agent-mt5/internal/logger"
	"github.com/jeden-/agent-mt5/internal/types"
	"github.com/jeden-/agent-mt5/internal/venue"
	"github.com/jeden-/agent-mt5/pkg/errors"
)

// Execution is the slice of the execution adapter the coordinator consumes.
type Execution interface {
	PlacePendingOrder(ctx context.Context, req venue.PendingRequest) (int64, error)
	CancelPendingOrder(ctx context.Context, ticket int64) error
	GetPositions(ctx context.Context) ([]types.Position, error)
	GetPendingOrders(ctx context.Context) ([]types.PendingOrder, error)
}

// Coordinator registers, tracks, and resolves one-cancels-the-other pairs.
// Sibling cancellation is at-least-once: a failed cancel leaves the pair
// active and is retried on the next monitoring cycle; cancelling an order
// that already vanished counts as success.
type Coordinator struct {
	exec   Execution
	repo   *Repository
	logger *logger.Logger
}

// NewCoordinator creates an OCO coordinator over the given pair repository.
func NewCoordinator(exec Execution, repo *Repository, log *logger.Logger) *Coordinator {
	return &Coordinator{
		exec:   exec,
		repo:   repo,
		logger: log,
	}
}

// Repository exposes the pair table for observability.
func (c *Coordinator) Repository() *Repository {
	return c.repo
}

// RegisterPair places both legs and registers the pair. Registration is
// atomic across the legs: when the opposite leg fails after the main leg was
// placed, the main leg is rolled back and no pair is registered.
func (c *Coordinator) RegisterPair(ctx context.Context, main, opposite venue.PendingRequest) (types.OcoPair, error) {
	if main.Symbol != opposite.Symbol {
		return types.OcoPair{}, errors.Newf(errors.ErrCodePairRegistration,
			"pair legs must share a symbol, got %s and %s", main.Symbol, opposite.Symbol)
	}

	mainTicket, err := c.exec.PlacePendingOrder(ctx, main)
	if err != nil {
		return types.OcoPair{}, errors.Wrap(errors.ErrCodePairRegistration, "failed to place main leg", err)
	}

	oppositeTicket, err := c.exec.PlacePendingOrder(ctx, opposite)
	if err != nil {
		if rollbackErr := c.exec.CancelPendingOrder(ctx, mainTicket); rollbackErr != nil && !errors.IsBenign(rollbackErr) {
			c.logger.Error("failed to roll back main leg after opposite leg placement failed",
				zap.Int64("main_ticket", mainTicket),
				zap.Error(rollbackErr),
			)
		}

		return types.OcoPair{}, errors.Wrap(errors.ErrCodePairRegistration, "failed to place opposite leg", err)
	}

	pair := types.OcoPair{
		ID:             types.OcoPairID(mainTicket, oppositeTicket),
		Symbol:         main.Symbol,
		MainTicket:     mainTicket,
		OppositeTicket: oppositeTicket,
		Status:         types.OcoPairStatusActive,
		Volume:         main.Volume,
		StopLossPips:   optional.None[float64](),
		TakeProfitPips: optional.None[float64](),
		CreatedAt:      time.Now(),
		ResolvedAt:     optional.None[time.Time](),
		TriggeredLeg:   optional.None[types.OcoLegRole](),
	}

	if err := c.repo.Register(pair); err != nil {
		return types.OcoPair{}, err
	}

	c.logger.Info("oco pair registered",
		zap.String("pair_id", pair.ID),
		zap.String("symbol", pair.Symbol),
		zap.Int64("main_ticket", mainTicket),
		zap.Int64("opposite_ticket", oppositeTicket),
	)

	return pair, nil
}

// CancelPair cancels both legs of an active pair and marks it cancelled.
// A leg that already vanished at the venue counts as cancelled.
func (c *Coordinator) CancelPair(ctx context.Context, id string) error {
	pair, ok := c.repo.Get(id)
	if !ok {
		return errors.Newf(errors.ErrCodePairNotFound, "pair %s not found", id)
	}

	if pair.Status != types.OcoPairStatusActive {
		return errors.Newf(errors.ErrCodePairNotActive, "pair %s is %s", id, pair.Status)
	}

	for _, ticket := range []int64{pair.MainTicket, pair.OppositeTicket} {
		if err := c.exec.CancelPendingOrder(ctx, ticket); err != nil && !errors.IsBenign(err) {
			return errors.Wrapf(errors.ErrCodeCancelFailed, err, "failed to cancel leg %d of pair %s", ticket, id)
		}
	}

	c.repo.Resolve(id, types.OcoPairStatusCancelled, optional.None[types.OcoLegRole]())

	return nil
}

// Monitor checks every active pair against the given position and pending
// order snapshots and resolves pairs whose leg has triggered. It returns one
// result per active pair.
func (c *Coordinator) Monitor(ctx context.Context, positions []types.Position, pending []types.PendingOrder) []types.EngineResult {
	positionSet := make(map[int64]struct{}, len(positions))
	for _, pos := range positions {
		positionSet[pos.Ticket] = struct{}{}
	}

	pendingSet := make(map[int64]struct{}, len(pending))
	for _, order := range pending {
		pendingSet[order.Ticket] = struct{}{}
	}

	var results []types.EngineResult

	for _, pair := range c.repo.ListByStatus(types.OcoPairStatusActive) {
		results = append(results, c.checkPair(ctx, pair, positionSet, pendingSet))
	}

	return results
}

func (c *Coordinator) checkPair(ctx context.Context, pair types.OcoPair, positionSet, pendingSet map[int64]struct{}) types.EngineResult {
	result := types.EngineResult{
		Engine:  types.EngineOco,
		Ticket:  pair.MainTicket,
		Symbol:  pair.Symbol,
		Outcome: types.OutcomeUnchanged,
		Detail:  "",
	}

	triggered, sibling, role := pair.MainTicket, pair.OppositeTicket, types.OcoLegMain

	if _, ok := positionSet[pair.MainTicket]; !ok {
		if _, ok := positionSet[pair.OppositeTicket]; !ok {
			return c.checkDormant(ctx, pair, pendingSet, result)
		}

		triggered, sibling, role = pair.OppositeTicket, pair.MainTicket, types.OcoLegOpposite
	}

	// One leg is now an open position: cancel the sibling and resolve. A
	// sibling that already vanished counts as cancelled.
	if err := c.exec.CancelPendingOrder(ctx, sibling); err != nil && !errors.IsBenign(err) {
		result.Outcome = types.OutcomeError
		result.Detail = fmt.Sprintf("leg %d triggered but sibling %d cancel failed: %v", triggered, sibling, err)

		return result
	}

	if !c.repo.Resolve(pair.ID, types.OcoPairStatusTriggered, optional.Some(role)) {
		result.Detail = fmt.Sprintf("pair %s already resolved", pair.ID)

		return result
	}

	c.logger.Info("oco pair triggered",
		zap.String("pair_id", pair.ID),
		zap.Int64("triggered_ticket", triggered),
		zap.Int64("cancelled_ticket", sibling),
	)

	result.Ticket = triggered
	result.Outcome = types.OutcomeModified
	result.Detail = fmt.Sprintf("leg %d triggered, sibling %d cancelled", triggered, sibling)

	return result
}

// checkDormant handles an active pair with no triggered leg. Both legs still
// pending means nothing to do. A leg missing from both snapshots was
// cancelled at the venue: the surviving sibling is cancelled too so the pair
// cannot trigger one-sided; with both legs gone the pair resolves directly.
func (c *Coordinator) checkDormant(ctx context.Context, pair types.OcoPair, pendingSet map[int64]struct{}, result types.EngineResult) types.EngineResult {
	_, mainPending := pendingSet[pair.MainTicket]
	_, oppositePending := pendingSet[pair.OppositeTicket]

	if mainPending && oppositePending {
		result.Detail = "both legs pending"

		return result
	}

	if mainPending || oppositePending {
		remaining := pair.MainTicket
		if oppositePending {
			remaining = pair.OppositeTicket
		}

		if err := c.exec.CancelPendingOrder(ctx, remaining); err != nil && !errors.IsBenign(err) {
			result.Outcome = types.OutcomeError
			result.Detail = fmt.Sprintf("sibling of leg %d cancelled externally, cancel failed: %v", remaining, err)

			return result
		}

		if c.repo.Resolve(pair.ID, types.OcoPairStatusCancelled, optional.None[types.OcoLegRole]()) {
			c.logger.Info("oco pair cancelled after external leg cancellation",
				zap.String("pair_id", pair.ID),
				zap.Int64("cancelled_ticket", remaining),
			)
		}

		result.Outcome = types.OutcomeModified
		result.Detail = fmt.Sprintf("one leg cancelled externally, remaining leg %d cancelled", remaining)

		return result
	}

	if c.repo.Resolve(pair.ID, types.OcoPairStatusCancelled, optional.None[types.OcoLegRole]()) {
		c.logger.Info("oco pair cancelled externally", zap.String("pair_id", pair.ID))
	}

	result.Outcome = types.OutcomeModified
	result.Detail = "both legs gone at venue, pair cancelled"

	return result
}
