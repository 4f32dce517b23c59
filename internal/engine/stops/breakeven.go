package stops

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/jeden-/agent-mt5/internal/types"
)

// Breakeven moves the stop to the entry price once profit reaches the
// threshold. Applied at most once per position: a stop already at or beyond
// entry fails the improvement rule.
type Breakeven struct {
	ThresholdPips float64
}

// Kind implements Strategy.
func (s *Breakeven) Kind() StrategyKind {
	return StrategyBreakeven
}

// Evaluate implements Strategy.
func (s *Breakeven) Evaluate(pos types.Position, quote types.Quote) Decision {
	profit := pos.ProfitPips(quote)
	if profit < s.ThresholdPips {
		return unchanged()
	}

	return Decision{
		Modify:        true,
		NewStop:       pos.OpenPrice,
		CloseFraction: optional.None[float64](),
		Reason:        fmt.Sprintf("breakeven: profit %.1f pips >= %.1f", profit, s.ThresholdPips),
	}
}

// LockProfitBreakeven moves the stop past the entry price by a fixed pip
// offset, locking in part of the unrealized profit.
type LockProfitBreakeven struct {
	ThresholdPips float64
	LockPips      float64
}

// Kind implements Strategy.
func (s *LockProfitBreakeven) Kind() StrategyKind {
	return StrategyLockProfitBreakeven
}

// Evaluate implements Strategy.
func (s *LockProfitBreakeven) Evaluate(pos types.Position, quote types.Quote) Decision {
	profit := pos.ProfitPips(quote)
	if profit < s.ThresholdPips {
		return unchanged()
	}

	offset := types.PipsToPrice(s.LockPips, quote.EffectivePipSize())

	newStop := add(pos.OpenPrice, offset)
	if pos.Side == types.PositionSideShort {
		newStop = sub(pos.OpenPrice, offset)
	}

	return Decision{
		Modify:        true,
		NewStop:       newStop,
		CloseFraction: optional.None[float64](),
		Reason:        fmt.Sprintf("lock-profit breakeven: +%.1f pips locked", s.LockPips),
	}
}

// PartialBreakeven combines the standard breakeven move with a one-time
// partial close of a configured fraction of the position's volume.
type PartialBreakeven struct {
	ThresholdPips float64
	CloseFraction float64
}

// Kind implements Strategy.
func (s *PartialBreakeven) Kind() StrategyKind {
	return StrategyPartialBreakeven
}

// Evaluate implements Strategy.
func (s *PartialBreakeven) Evaluate(pos types.Position, quote types.Quote) Decision {
	profit := pos.ProfitPips(quote)
	if profit < s.ThresholdPips {
		return unchanged()
	}

	return Decision{
		Modify:        true,
		NewStop:       pos.OpenPrice,
		CloseFraction: optional.Some(s.CloseFraction),
		Reason:        fmt.Sprintf("partial breakeven: %.0f%% close at %.1f pips", s.CloseFraction*100, profit),
	}
}
