package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type OrderKind string

type OrderStatus string

const (
	OrderKindBuyStop   OrderKind = "BUY_STOP"
	OrderKindSellStop  OrderKind = "SELL_STOP"
	OrderKindBuyLimit  OrderKind = "BUY_LIMIT"
	OrderKindSellLimit OrderKind = "SELL_LIMIT"
)

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusTriggered OrderStatus = "TRIGGERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// PendingOrder is a read-through projection of a pending order resting at the
// venue, refreshed through the execution adapter.
type PendingOrder struct {
	Ticket     int64                    `yaml:"ticket" json:"ticket"`
	Symbol     string                   `yaml:"symbol" json:"symbol"`
	Kind       OrderKind                `yaml:"kind" json:"kind"`
	Volume     float64                  `yaml:"volume" json:"volume"`
	Price      float64                  `yaml:"price" json:"price"`
	Status     OrderStatus              `yaml:"status" json:"status"`
	PlacedTime time.Time                `yaml:"placed_time" json:"placed_time"`
	StopLoss   optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit optional.Option[float64] `yaml:"take_profit" json:"take_profit"`
}

// Side returns the position side an order of this kind opens when triggered.
func (k OrderKind) Side() PositionSide {
	switch k {
	case OrderKindBuyStop, OrderKindBuyLimit:
		return PositionSideLong
	case OrderKindSellStop, OrderKindSellLimit:
		return PositionSideShort
	default:
		return ""
	}
}
