package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type BatchCommandKind string

const (
	// BatchCommandKindModifyStops updates a position's protective levels.
	BatchCommandKindModifyStops BatchCommandKind = "modify-stops"
)

// BatchCommand is a deferred venue mutation queued for the next flush.
// At flush time commands are grouped by kind and de-duplicated by ticket,
// keeping only the most recently enqueued payload per ticket.
type BatchCommand struct {
	ID         string                   `yaml:"id" json:"id"`
	Kind       BatchCommandKind         `yaml:"kind" json:"kind"`
	Ticket     int64                    `yaml:"ticket" json:"ticket"`
	StopLoss   optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit optional.Option[float64] `yaml:"take_profit" json:"take_profit"`
	EnqueuedAt time.Time                `yaml:"enqueued_at" json:"enqueued_at"`
}
