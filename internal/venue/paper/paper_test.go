package paper

import (
	"context"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/jeden-/agent-mt5/internal/types"
	"github.com/jeden-/agent-mt5/internal/venue"
	"github.com/jeden-/agent-mt5/pkg/errors"
)

type PaperVenueTestSuite struct {
	suite.Suite
	venue *Venue
	ctx   context.Context
}

func (suite *PaperVenueTestSuite) SetupTest() {
	suite.venue = NewVenue(10000)
	suite.venue.SetQuote("EURUSD", 1.1000, 1.1002)
	suite.ctx = context.Background()
}

func TestPaperVenueSuite(t *testing.T) {
	suite.Run(t, new(PaperVenueTestSuite))
}

func (suite *PaperVenueTestSuite) openRequest() venue.OpenRequest {
	return venue.OpenRequest{
		Symbol: "EURUSD",
		Side:   types.PositionSideLong,
		Volume: 0.5,
	}
}

func (suite *PaperVenueTestSuite) TestOpenPosition() {
	ticket, err := suite.venue.OpenPosition(suite.ctx, suite.openRequest())
	suite.Require().NoError(err)
	suite.Equal(int64(100), ticket)

	positions, err := suite.venue.GetPositions(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(positions, 1)
	suite.Equal("EURUSD", positions[0].Symbol)
	// Longs fill at the ask.
	suite.Equal(1.1002, positions[0].OpenPrice)
	suite.Equal(0.5, positions[0].Volume)
}

func (suite *PaperVenueTestSuite) TestOpenPosition_NoQuote() {
	req := suite.openRequest()
	req.Symbol = "GBPUSD"

	_, err := suite.venue.OpenPosition(suite.ctx, req)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeQuoteUnavailable))
}

func (suite *PaperVenueTestSuite) TestClosePosition_Full() {
	ticket, err := suite.venue.OpenPosition(suite.ctx, suite.openRequest())
	suite.Require().NoError(err)

	suite.Require().NoError(suite.venue.ClosePosition(suite.ctx, ticket, optional.None[float64]()))

	positions, err := suite.venue.GetPositions(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(positions)
}

func (suite *PaperVenueTestSuite) TestClosePosition_Partial() {
	ticket, err := suite.venue.OpenPosition(suite.ctx, suite.openRequest())
	suite.Require().NoError(err)

	suite.Require().NoError(suite.venue.ClosePosition(suite.ctx, ticket, optional.Some(0.2)))

	positions, err := suite.venue.GetPositions(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(positions, 1)
	suite.InDelta(0.3, positions[0].Volume, 1e-9)
}

func (suite *PaperVenueTestSuite) TestClosePosition_NotFound() {
	err := suite.venue.ClosePosition(suite.ctx, 999, optional.None[float64]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeTicketNotFound))
	suite.True(errors.IsBenign(err))
}

func (suite *PaperVenueTestSuite) TestModifyPosition() {
	ticket, err := suite.venue.OpenPosition(suite.ctx, suite.openRequest())
	suite.Require().NoError(err)

	err = suite.venue.ModifyPosition(suite.ctx, ticket, optional.Some(1.0950), optional.None[float64]())
	suite.Require().NoError(err)

	positions, err := suite.venue.GetPositions(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(positions, 1)
	suite.True(positions[0].StopLoss.IsSome())
	suite.Equal(1.0950, positions[0].StopLoss.Unwrap())
	suite.True(positions[0].TakeProfit.IsNone())
}

func (suite *PaperVenueTestSuite) TestPendingOrderLifecycle() {
	ticket, err := suite.venue.PlacePendingOrder(suite.ctx, venue.PendingRequest{
		Symbol: "EURUSD",
		Kind:   types.OrderKindBuyStop,
		Volume: 0.3,
		Price:  1.1050,
	})
	suite.Require().NoError(err)

	orders, err := suite.venue.GetPendingOrders(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(orders, 1)
	suite.Equal(types.OrderStatusPending, orders[0].Status)

	suite.Require().NoError(suite.venue.CancelPendingOrder(suite.ctx, ticket))

	orders, err = suite.venue.GetPendingOrders(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(orders)
}

func (suite *PaperVenueTestSuite) TestTriggerPending() {
	ticket, err := suite.venue.PlacePendingOrder(suite.ctx, venue.PendingRequest{
		Symbol: "EURUSD",
		Kind:   types.OrderKindSellStop,
		Volume: 0.3,
		Price:  1.0950,
	})
	suite.Require().NoError(err)

	suite.True(suite.venue.TriggerPending(ticket))
	suite.False(suite.venue.TriggerPending(ticket))

	orders, err := suite.venue.GetPendingOrders(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(orders)

	positions, err := suite.venue.GetPositions(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(positions, 1)
	// The filled position keeps the order's ticket.
	suite.Equal(ticket, positions[0].Ticket)
	suite.Equal(types.PositionSideShort, positions[0].Side)
	suite.Equal(1.0950, positions[0].OpenPrice)
}

func (suite *PaperVenueTestSuite) TestUnreachable() {
	suite.venue.SetUnreachable(true)

	_, err := suite.venue.GetAccount(suite.ctx)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeVenueUnreachable))

	suite.venue.SetUnreachable(false)

	account, err := suite.venue.GetAccount(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(10000.0, account.Balance)
}

func (suite *PaperVenueTestSuite) TestRejectNext() {
	suite.venue.RejectNext("OpenPosition")

	_, err := suite.venue.OpenPosition(suite.ctx, suite.openRequest())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeVenueRejected))

	// Only the next call is rejected.
	_, err = suite.venue.OpenPosition(suite.ctx, suite.openRequest())
	suite.NoError(err)
}

func (suite *PaperVenueTestSuite) TestCallCount() {
	suite.Equal(0, suite.venue.CallCount("GetQuote"))

	_, err := suite.venue.GetQuote(suite.ctx, "EURUSD")
	suite.Require().NoError(err)
	_, err = suite.venue.GetQuote(suite.ctx, "EURUSD")
	suite.Require().NoError(err)

	suite.Equal(2, suite.venue.CallCount("GetQuote"))
}
