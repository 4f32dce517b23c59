package oco

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/jeden-/agent-mt5/internal/logger"
	"github.com/jeden-/agent-mt5/internal/types"
	"github.com/jeden-/agent-mt5/internal/venue"
	"github.com/jeden-/agent-mt5/pkg/errors"
)

// stubExecution is a scriptable Execution for coordinator tests.
type stubExecution struct {
	nextTicket int64

	placeErrAfter int
	placed        []venue.PendingRequest

	cancelErr error
	cancelled []int64
}

func (s *stubExecution) PlacePendingOrder(_ context.Context, req venue.PendingRequest) (int64, error) {
	if s.placeErrAfter > 0 && len(s.placed) >= s.placeErrAfter {
		return 0, errors.New(errors.ErrCodeVenueRejected, "order rejected")
	}

	s.placed = append(s.placed, req)
	s.nextTicket++

	return s.nextTicket, nil
}

func (s *stubExecution) CancelPendingOrder(_ context.Context, ticket int64) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}

	s.cancelled = append(s.cancelled, ticket)

	return nil
}

func (s *stubExecution) GetPositions(_ context.Context) ([]types.Position, error) {
	return nil, nil
}

func (s *stubExecution) GetPendingOrders(_ context.Context) ([]types.PendingOrder, error) {
	return nil, nil
}

type CoordinatorTestSuite struct {
	suite.Suite
	exec        *stubExecution
	coordinator *Coordinator
	ctx         context.Context
}

func (suite *CoordinatorTestSuite) SetupTest() {
	suite.exec = &stubExecution{nextTicket: 99}
	suite.coordinator = NewCoordinator(suite.exec, NewRepository(), logger.NewNopLogger())
	suite.ctx = context.Background()
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorTestSuite))
}

func (suite *CoordinatorTestSuite) legs() (venue.PendingRequest, venue.PendingRequest) {
	main := venue.PendingRequest{
		Symbol: "EURUSD",
		Kind:   types.OrderKindBuyStop,
		Volume: 0.5,
		Price:  1.1050,
	}
	opposite := venue.PendingRequest{
		Symbol: "EURUSD",
		Kind:   types.OrderKindSellStop,
		Volume: 0.5,
		Price:  1.0950,
	}

	return main, opposite
}

func (suite *CoordinatorTestSuite) positions(tickets ...int64) []types.Position {
	out := make([]types.Position, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, types.Position{Ticket: ticket, Symbol: "EURUSD", Side: types.PositionSideLong, Volume: 0.5})
	}

	return out
}

func (suite *CoordinatorTestSuite) pending(tickets ...int64) []types.PendingOrder {
	out := make([]types.PendingOrder, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, types.PendingOrder{Ticket: ticket, Symbol: "EURUSD", Kind: types.OrderKindBuyStop, Status: types.OrderStatusPending})
	}

	return out
}

func (suite *CoordinatorTestSuite) TestRegisterPair() {
	main, opposite := suite.legs()

	pair, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().NoError(err)
	suite.Equal(int64(100), pair.MainTicket)
	suite.Equal(int64(101), pair.OppositeTicket)
	suite.Equal(types.OcoPairStatusActive, pair.Status)
	suite.Len(suite.exec.placed, 2)
}

func (suite *CoordinatorTestSuite) TestRegisterPair_SymbolMismatch() {
	main, opposite := suite.legs()
	opposite.Symbol = "GBPUSD"

	_, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePairRegistration))
	suite.Empty(suite.exec.placed)
}

func (suite *CoordinatorTestSuite) TestRegisterPair_RollsBackMainLeg() {
	main, opposite := suite.legs()
	suite.exec.placeErrAfter = 1

	_, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePairRegistration))

	// The orphaned main leg was cancelled and no pair was registered.
	suite.Require().Len(suite.exec.cancelled, 1)
	suite.Equal(int64(100), suite.exec.cancelled[0])
	suite.Empty(suite.coordinator.Repository().List())
}

func (suite *CoordinatorTestSuite) TestMonitor_MainLegTriggered() {
	main, opposite := suite.legs()

	pair, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().NoError(err)

	// Main ticket appears as a position; opposite still pending.
	results := suite.coordinator.Monitor(suite.ctx, suite.positions(pair.MainTicket), suite.pending(pair.OppositeTicket))

	suite.Require().Len(results, 1)
	suite.Equal(types.OutcomeModified, results[0].Outcome)
	suite.Equal(pair.MainTicket, results[0].Ticket)

	suite.Require().Len(suite.exec.cancelled, 1)
	suite.Equal(pair.OppositeTicket, suite.exec.cancelled[0])

	stored, _ := suite.coordinator.Repository().Get(pair.ID)
	suite.Equal(types.OcoPairStatusTriggered, stored.Status)
	suite.Equal(types.OcoLegMain, stored.TriggeredLeg.Unwrap())
}

func (suite *CoordinatorTestSuite) TestMonitor_OppositeLegTriggered() {
	main, opposite := suite.legs()

	pair, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().NoError(err)

	results := suite.coordinator.Monitor(suite.ctx, suite.positions(pair.OppositeTicket), suite.pending(pair.MainTicket))

	suite.Require().Len(results, 1)
	suite.Equal(types.OutcomeModified, results[0].Outcome)

	suite.Require().Len(suite.exec.cancelled, 1)
	suite.Equal(pair.MainTicket, suite.exec.cancelled[0])

	stored, _ := suite.coordinator.Repository().Get(pair.ID)
	suite.Equal(types.OcoPairStatusTriggered, stored.Status)
	suite.Equal(types.OcoLegOpposite, stored.TriggeredLeg.Unwrap())
}

func (suite *CoordinatorTestSuite) TestMonitor_BothLegsPending() {
	main, opposite := suite.legs()

	pair, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().NoError(err)

	results := suite.coordinator.Monitor(suite.ctx, nil, suite.pending(pair.MainTicket, pair.OppositeTicket))

	suite.Require().Len(results, 1)
	suite.Equal(types.OutcomeUnchanged, results[0].Outcome)
	suite.Empty(suite.exec.cancelled)

	stored, _ := suite.coordinator.Repository().Get(pair.ID)
	suite.Equal(types.OcoPairStatusActive, stored.Status)
}

func (suite *CoordinatorTestSuite) TestMonitor_BothLegsGone() {
	main, opposite := suite.legs()

	pair, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().NoError(err)

	// Neither leg is a position nor pending: the venue dropped both.
	results := suite.coordinator.Monitor(suite.ctx, nil, nil)

	suite.Require().Len(results, 1)
	suite.Equal(types.OutcomeModified, results[0].Outcome)

	stored, _ := suite.coordinator.Repository().Get(pair.ID)
	suite.Equal(types.OcoPairStatusCancelled, stored.Status)
}

func (suite *CoordinatorTestSuite) TestMonitor_OrphanedLegCancelled() {
	main, opposite := suite.legs()

	pair, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().NoError(err)

	// The main leg was cancelled at the venue; the opposite still rests. The
	// survivor must be cancelled so the pair cannot trigger one-sided.
	results := suite.coordinator.Monitor(suite.ctx, nil, suite.pending(pair.OppositeTicket))

	suite.Require().Len(results, 1)
	suite.Equal(types.OutcomeModified, results[0].Outcome)
	suite.Contains(results[0].Detail, "cancelled externally")

	suite.Require().Len(suite.exec.cancelled, 1)
	suite.Equal(pair.OppositeTicket, suite.exec.cancelled[0])

	stored, _ := suite.coordinator.Repository().Get(pair.ID)
	suite.Equal(types.OcoPairStatusCancelled, stored.Status)
}

func (suite *CoordinatorTestSuite) TestMonitor_OrphanedLegCancelFailureKeepsPairActive() {
	main, opposite := suite.legs()

	pair, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().NoError(err)

	suite.exec.cancelErr = errors.New(errors.ErrCodeVenueRejected, "busy")

	results := suite.coordinator.Monitor(suite.ctx, nil, suite.pending(pair.MainTicket))
	suite.Require().Len(results, 1)
	suite.Equal(types.OutcomeError, results[0].Outcome)

	stored, _ := suite.coordinator.Repository().Get(pair.ID)
	suite.Equal(types.OcoPairStatusActive, stored.Status)
}

func (suite *CoordinatorTestSuite) TestMonitor_SiblingCancelFailureKeepsPairActive() {
	main, opposite := suite.legs()

	pair, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().NoError(err)

	suite.exec.cancelErr = errors.New(errors.ErrCodeVenueRejected, "busy")

	results := suite.coordinator.Monitor(suite.ctx, suite.positions(pair.MainTicket), suite.pending(pair.OppositeTicket))
	suite.Require().Len(results, 1)
	suite.Equal(types.OutcomeError, results[0].Outcome)

	stored, _ := suite.coordinator.Repository().Get(pair.ID)
	suite.Equal(types.OcoPairStatusActive, stored.Status)

	// Next cycle with the venue healthy: the cancel is retried and the pair
	// resolves.
	suite.exec.cancelErr = nil

	results = suite.coordinator.Monitor(suite.ctx, suite.positions(pair.MainTicket), suite.pending(pair.OppositeTicket))
	suite.Require().Len(results, 1)
	suite.Equal(types.OutcomeModified, results[0].Outcome)

	stored, _ = suite.coordinator.Repository().Get(pair.ID)
	suite.Equal(types.OcoPairStatusTriggered, stored.Status)
}

func (suite *CoordinatorTestSuite) TestMonitor_VanishedSiblingCountsAsCancelled() {
	main, opposite := suite.legs()

	pair, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().NoError(err)

	suite.exec.cancelErr = errors.Newf(errors.ErrCodeTicketNotFound, "order not found")

	results := suite.coordinator.Monitor(suite.ctx, suite.positions(pair.MainTicket), nil)
	suite.Require().Len(results, 1)
	suite.Equal(types.OutcomeModified, results[0].Outcome)

	stored, _ := suite.coordinator.Repository().Get(pair.ID)
	suite.Equal(types.OcoPairStatusTriggered, stored.Status)
}

func (suite *CoordinatorTestSuite) TestMonitor_IgnoresTerminalPairs() {
	main, opposite := suite.legs()

	pair, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.coordinator.CancelPair(suite.ctx, pair.ID))

	results := suite.coordinator.Monitor(suite.ctx, suite.positions(pair.MainTicket), nil)
	suite.Empty(results)
}

func (suite *CoordinatorTestSuite) TestCancelPair() {
	main, opposite := suite.legs()

	pair, err := suite.coordinator.RegisterPair(suite.ctx, main, opposite)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.coordinator.CancelPair(suite.ctx, pair.ID))
	suite.ElementsMatch([]int64{pair.MainTicket, pair.OppositeTicket}, suite.exec.cancelled)

	stored, _ := suite.coordinator.Repository().Get(pair.ID)
	suite.Equal(types.OcoPairStatusCancelled, stored.Status)

	// Cancelling again fails: the pair is no longer active.
	err = suite.coordinator.CancelPair(suite.ctx, pair.ID)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePairNotActive))
}

func (suite *CoordinatorTestSuite) TestCancelPair_NotFound() {
	err := suite.coordinator.CancelPair(suite.ctx, "oco-1-2")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePairNotFound))
}
