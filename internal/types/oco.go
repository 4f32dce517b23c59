package types

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
)

type OcoPairStatus string

const (
	OcoPairStatusActive    OcoPairStatus = "ACTIVE"
	OcoPairStatusTriggered OcoPairStatus = "TRIGGERED"
	OcoPairStatusCancelled OcoPairStatus = "CANCELLED"
)

// OcoLegRole identifies which leg of a pair an order ticket plays.
type OcoLegRole string

const (
	OcoLegMain     OcoLegRole = "MAIN"
	OcoLegOpposite OcoLegRole = "OPPOSITE"
)

// OcoPair couples two mutually exclusive pending orders. A pair is created
// with both legs pending and transitions exactly once: either one leg
// triggers and the sibling is cancelled, or both legs are cancelled.
// Terminal statuses never re-activate.
type OcoPair struct {
	ID             string                     `yaml:"id" json:"id"`
	Symbol         string                     `yaml:"symbol" json:"symbol"`
	MainTicket     int64                      `yaml:"main_ticket" json:"main_ticket"`
	OppositeTicket int64                      `yaml:"opposite_ticket" json:"opposite_ticket"`
	Status         OcoPairStatus              `yaml:"status" json:"status"`
	Volume         float64                    `yaml:"volume" json:"volume"`
	StopLossPips   optional.Option[float64]   `yaml:"stop_loss_pips" json:"stop_loss_pips"`
	TakeProfitPips optional.Option[float64]   `yaml:"take_profit_pips" json:"take_profit_pips"`
	CreatedAt      time.Time                  `yaml:"created_at" json:"created_at"`
	ResolvedAt     optional.Option[time.Time] `yaml:"resolved_at" json:"resolved_at"`
	// TriggeredLeg is set when the pair resolves by activation.
	TriggeredLeg optional.Option[OcoLegRole] `yaml:"triggered_leg" json:"triggered_leg"`
}

// OcoPairID derives the pair identifier from the two constituent tickets.
func OcoPairID(mainTicket, oppositeTicket int64) string {
	return fmt.Sprintf("oco-%d-%d", mainTicket, oppositeTicket)
}

// IsTerminal reports whether the pair has reached a terminal status.
func (p OcoPair) IsTerminal() bool {
	return p.Status == OcoPairStatusTriggered || p.Status == OcoPairStatusCancelled
}

// SiblingTicket returns the other leg's ticket for the given ticket, and
// whether the ticket belongs to the pair at all.
func (p OcoPair) SiblingTicket(ticket int64) (int64, bool) {
	switch ticket {
	case p.MainTicket:
		return p.OppositeTicket, true
	case p.OppositeTicket:
		return p.MainTicket, true
	default:
		return 0, false
	}
}

// LegRole returns the role the given ticket plays in the pair.
func (p OcoPair) LegRole(ticket int64) (OcoLegRole, bool) {
	switch ticket {
	case p.MainTicket:
		return OcoLegMain, true
	case p.OppositeTicket:
		return OcoLegOpposite, true
	default:
		return "", false
	}
}
