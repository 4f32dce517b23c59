// Package paper provides an in-memory venue simulator. It backs the
// paper-trading mode of the lifecycle command and doubles as a deterministic
// fixture for exercising error paths in tests.
package paper

import (
	"context"
	"sync"
	"time"

	"github.com/moznion/go-optional"

	"github.com/jeden-/agent-mt5/internal/types"
	"github.com/jeden-/agent-mt5/internal/venue"
	"github.com/jeden-/agent-mt5/pkg/errors"
)

// Venue is an in-memory implementation of venue.Venue. Tickets are assigned
// from a monotonically increasing counter shared by positions and orders.
type Venue struct {
	mu          sync.Mutex
	nextTicket  int64
	quotes      map[string]types.Quote
	positions   map[int64]types.Position
	pending     map[int64]types.PendingOrder
	account     types.AccountInfo
	unreachable bool
	rejectNext  map[string]bool
	callCounts  map[string]int
}

// NewVenue creates an empty paper venue with the given starting balance.
func NewVenue(balance float64) *Venue {
	return &Venue{
		mu:         sync.Mutex{},
		nextTicket: 100,
		quotes:     make(map[string]types.Quote),
		positions:  make(map[int64]types.Position),
		pending:    make(map[int64]types.PendingOrder),
		account: types.AccountInfo{
			Balance:    balance,
			Equity:     balance,
			Margin:     0,
			FreeMargin: balance,
			Currency:   "USD",
		},
		unreachable: false,
		rejectNext:  make(map[string]bool),
		callCounts:  make(map[string]int),
	}
}

// SetQuote injects or replaces the current quote for a symbol.
func (v *Venue) SetQuote(symbol string, bid, ask float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.quotes[symbol] = types.Quote{
		Symbol:  symbol,
		Bid:     bid,
		Ask:     ask,
		PipSize: types.DefaultPipSize(symbol),
		Time:    time.Now(),
	}
}

// SetUnreachable toggles simulated connectivity loss. While unreachable,
// every call fails with ErrCodeVenueUnreachable.
func (v *Venue) SetUnreachable(unreachable bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.unreachable = unreachable
}

// RejectNext makes the next call of the named operation fail with
// ErrCodeVenueRejected. Operation names match the Venue method names.
func (v *Venue) RejectNext(operation string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.rejectNext[operation] = true
}

// CallCount returns how many times the named operation has been invoked.
func (v *Venue) CallCount(operation string) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.callCounts[operation]
}

// TriggerPending simulates the venue filling a pending order: the order is
// removed from the pending set and an open position appears under the same
// ticket.
func (v *Venue) TriggerPending(ticket int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	order, ok := v.pending[ticket]
	if !ok {
		return false
	}

	delete(v.pending, ticket)

	v.positions[ticket] = types.Position{
		Ticket:     ticket,
		Symbol:     order.Symbol,
		Side:       order.Kind.Side(),
		Volume:     order.Volume,
		OpenPrice:  order.Price,
		OpenTime:   time.Now(),
		Comment:    "",
		StopLoss:   order.StopLoss,
		TakeProfit: order.TakeProfit,
	}

	return true
}

func (v *Venue) guard(operation string) error {
	v.callCounts[operation]++

	if v.unreachable {
		return errors.Newf(errors.ErrCodeVenueUnreachable, "venue unreachable during %s", operation)
	}

	if v.rejectNext[operation] {
		delete(v.rejectNext, operation)

		return errors.Newf(errors.ErrCodeVenueRejected, "venue rejected %s", operation)
	}

	return nil
}

// OpenPosition implements venue.Venue.
func (v *Venue) OpenPosition(_ context.Context, req venue.OpenRequest) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.guard("OpenPosition"); err != nil {
		return 0, err
	}

	quote, ok := v.quotes[req.Symbol]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeQuoteUnavailable, "no quote for symbol %s", req.Symbol)
	}

	price := quote.Ask
	if req.Side == types.PositionSideShort {
		price = quote.Bid
	}

	if req.Price.IsSome() {
		price = req.Price.Unwrap()
	}

	ticket := v.allocTicket()

	v.positions[ticket] = types.Position{
		Ticket:     ticket,
		Symbol:     req.Symbol,
		Side:       req.Side,
		Volume:     req.Volume,
		OpenPrice:  price,
		OpenTime:   time.Now(),
		Comment:    req.Comment,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
	}

	return ticket, nil
}

// ClosePosition implements venue.Venue.
func (v *Venue) ClosePosition(_ context.Context, ticket int64, volume optional.Option[float64]) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.guard("ClosePosition"); err != nil {
		return err
	}

	pos, ok := v.positions[ticket]
	if !ok {
		return errors.Newf(errors.ErrCodeTicketNotFound, "position %d not found", ticket)
	}

	if volume.IsNone() || volume.Unwrap() >= pos.Volume {
		delete(v.positions, ticket)

		return nil
	}

	closeVolume := volume.Unwrap()
	if closeVolume <= 0 {
		return errors.Newf(errors.ErrCodeInvalidVolume, "close volume must be positive, got %f", closeVolume)
	}

	pos.Volume -= closeVolume
	v.positions[ticket] = pos

	return nil
}

// ModifyPosition implements venue.Venue.
func (v *Venue) ModifyPosition(_ context.Context, ticket int64, stopLoss, takeProfit optional.Option[float64]) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.guard("ModifyPosition"); err != nil {
		return err
	}

	pos, ok := v.positions[ticket]
	if !ok {
		return errors.Newf(errors.ErrCodeTicketNotFound, "position %d not found", ticket)
	}

	if stopLoss.IsSome() {
		pos.StopLoss = stopLoss
	}

	if takeProfit.IsSome() {
		pos.TakeProfit = takeProfit
	}

	v.positions[ticket] = pos

	return nil
}

// PlacePendingOrder implements venue.Venue.
func (v *Venue) PlacePendingOrder(_ context.Context, req venue.PendingRequest) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.guard("PlacePendingOrder"); err != nil {
		return 0, err
	}

	ticket := v.allocTicket()

	v.pending[ticket] = types.PendingOrder{
		Ticket:     ticket,
		Symbol:     req.Symbol,
		Kind:       req.Kind,
		Volume:     req.Volume,
		Price:      req.Price,
		Status:     types.OrderStatusPending,
		PlacedTime: time.Now(),
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
	}

	return ticket, nil
}

// CancelPendingOrder implements venue.Venue.
func (v *Venue) CancelPendingOrder(_ context.Context, ticket int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.guard("CancelPendingOrder"); err != nil {
		return err
	}

	if _, ok := v.pending[ticket]; !ok {
		return errors.Newf(errors.ErrCodeTicketNotFound, "pending order %d not found", ticket)
	}

	delete(v.pending, ticket)

	return nil
}

// GetPositions implements venue.Venue.
func (v *Venue) GetPositions(_ context.Context) ([]types.Position, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.guard("GetPositions"); err != nil {
		return nil, err
	}

	out := make([]types.Position, 0, len(v.positions))
	for _, pos := range v.positions {
		out = append(out, pos)
	}

	return out, nil
}

// GetPendingOrders implements venue.Venue.
func (v *Venue) GetPendingOrders(_ context.Context) ([]types.PendingOrder, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.guard("GetPendingOrders"); err != nil {
		return nil, err
	}

	out := make([]types.PendingOrder, 0, len(v.pending))
	for _, order := range v.pending {
		out = append(out, order)
	}

	return out, nil
}

// GetQuote implements venue.Venue.
func (v *Venue) GetQuote(_ context.Context, symbol string) (types.Quote, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.guard("GetQuote"); err != nil {
		return types.Quote{}, err
	}

	quote, ok := v.quotes[symbol]
	if !ok {
		return types.Quote{}, errors.Newf(errors.ErrCodeQuoteUnavailable, "no quote for symbol %s", symbol)
	}

	return quote, nil
}

// GetAccount implements venue.Venue.
func (v *Venue) GetAccount(_ context.Context) (types.AccountInfo, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.guard("GetAccount"); err != nil {
		return types.AccountInfo{}, err
	}

	return v.account, nil
}

func (v *Venue) allocTicket() int64 {
	ticket := v.nextTicket
	v.nextTicket++

	return ticket
}
