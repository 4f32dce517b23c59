package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

type PositionSide string

const (
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

// Position is a read-through projection of a position owned by the venue.
// It is never constructed locally except when materializing a venue snapshot;
// all mutations go through the execution adapter.
type Position struct {
	Ticket     int64                   `yaml:"ticket" json:"ticket"`
	Symbol     string                  `yaml:"symbol" json:"symbol"`
	Side       PositionSide            `yaml:"side" json:"side"`
	Volume     float64                 `yaml:"volume" json:"volume"`
	OpenPrice  float64                 `yaml:"open_price" json:"open_price"`
	OpenTime   time.Time               `yaml:"open_time" json:"open_time"`
	Comment    string                  `yaml:"comment" json:"comment"`
	StopLoss   optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit optional.Option[float64] `yaml:"take_profit" json:"take_profit"`
}

// ProfitPips returns the position's unrealized profit in pips against the
// given quote. Longs are valued at the bid (the price a close would fill at),
// shorts at the ask.
func (p Position) ProfitPips(quote Quote) float64 {
	pip := quote.EffectivePipSize()
	if pip <= 0 {
		return 0
	}

	open := decimal.NewFromFloat(p.OpenPrice)

	var diff decimal.Decimal

	switch p.Side {
	case PositionSideLong:
		diff = decimal.NewFromFloat(quote.Bid).Sub(open)
	case PositionSideShort:
		diff = open.Sub(decimal.NewFromFloat(quote.Ask))
	default:
		return 0
	}

	pips, _ := diff.Div(decimal.NewFromFloat(pip)).Float64()

	return pips
}

// ClosePrice returns the price a market close of this position would fill at.
func (p Position) ClosePrice(quote Quote) float64 {
	if p.Side == PositionSideShort {
		return quote.Ask
	}

	return quote.Bid
}

// StopImproves reports whether candidate moves the protective stop strictly
// toward profit lock relative to the current stop. A position without a stop
// is always improved by setting one.
func (p Position) StopImproves(candidate float64) bool {
	if candidate <= 0 {
		return false
	}

	if p.StopLoss.IsNone() {
		return true
	}

	current := p.StopLoss.Unwrap()
	if p.Side == PositionSideLong {
		return candidate > current
	}

	return candidate < current
}
