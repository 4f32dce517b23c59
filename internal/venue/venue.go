// Package venue defines the contract toward the remote execution venue.
// The lifecycle core consumes this interface; concrete connectors (live
// terminal bridges, simulators) implement it.
package venue

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/jeden-/agent-mt5/internal/types"
	"github.com/jeden-/agent-mt5/pkg/errors"
)

// Venue is the single point of contact with the remote execution venue.
// Implementations must classify failures with pkg/errors codes:
// ErrCodeVenueUnreachable when the venue cannot be reached,
// ErrCodeTicketNotFound when a ticket vanished before the mutation, and
// ErrCodeVenueRejected when the venue explicitly refuses a mutation.
type Venue interface {
	// OpenPosition opens a market position and returns the assigned ticket.
	OpenPosition(ctx context.Context, req OpenRequest) (int64, error)
	// ClosePosition closes a position fully, or partially when volume is set.
	ClosePosition(ctx context.Context, ticket int64, volume optional.Option[float64]) error
	// ModifyPosition updates a position's protective levels.
	ModifyPosition(ctx context.Context, ticket int64, stopLoss, takeProfit optional.Option[float64]) error
	// PlacePendingOrder places a stop or limit order and returns its ticket.
	PlacePendingOrder(ctx context.Context, req PendingRequest) (int64, error)
	// CancelPendingOrder cancels a resting pending order.
	CancelPendingOrder(ctx context.Context, ticket int64) error
	// GetPositions returns all open positions.
	GetPositions(ctx context.Context) ([]types.Position, error)
	// GetPendingOrders returns all resting pending orders.
	GetPendingOrders(ctx context.Context) ([]types.PendingOrder, error)
	// GetQuote returns the current bid/ask for a symbol.
	GetQuote(ctx context.Context, symbol string) (types.Quote, error)
	// GetAccount returns the current account snapshot.
	GetAccount(ctx context.Context) (types.AccountInfo, error)
}

// OpenRequest describes a market position to open.
type OpenRequest struct {
	Symbol     string                   `yaml:"symbol" json:"symbol" validate:"required"`
	Side       types.PositionSide       `yaml:"side" json:"side" validate:"required,oneof=LONG SHORT"`
	Volume     float64                  `yaml:"volume" json:"volume" validate:"required,gt=0"`
	Price      optional.Option[float64] `yaml:"price" json:"price"`
	StopLoss   optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit optional.Option[float64] `yaml:"take_profit" json:"take_profit"`
	Comment    string                   `yaml:"comment" json:"comment"`
	Tag        string                   `yaml:"tag" json:"tag"`
}

// PendingRequest describes a stop or limit order to place.
type PendingRequest struct {
	Symbol     string                   `yaml:"symbol" json:"symbol" validate:"required"`
	Kind       types.OrderKind          `yaml:"kind" json:"kind" validate:"required,oneof=BUY_STOP SELL_STOP BUY_LIMIT SELL_LIMIT"`
	Volume     float64                  `yaml:"volume" json:"volume" validate:"required,gt=0"`
	Price      float64                  `yaml:"price" json:"price" validate:"required,gt=0"`
	StopLoss   optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit optional.Option[float64] `yaml:"take_profit" json:"take_profit"`
	Comment    string                   `yaml:"comment" json:"comment"`
}

// Validate validates the OpenRequest struct.
func (r *OpenRequest) Validate() error {
	validate := validator.New()

	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOpenRequest, "invalid open request", err)
	}

	return nil
}

// Validate validates the PendingRequest struct.
func (r *PendingRequest) Validate() error {
	validate := validator.New()

	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPendingOrder, "invalid pending order request", err)
	}

	return nil
}
