package stops

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/jeden-/agent-mt5/internal/types"
)

// FixedPipsTrailing advances the stop to a fixed pip distance behind the
// current favorable price once profit reaches the activation threshold.
type FixedPipsTrailing struct {
	ActivationPips float64
	StepPips       float64
}

// Kind implements Strategy.
func (s *FixedPipsTrailing) Kind() StrategyKind {
	return StrategyFixedPipsTrailing
}

// Evaluate implements Strategy.
func (s *FixedPipsTrailing) Evaluate(pos types.Position, quote types.Quote) Decision {
	profit := pos.ProfitPips(quote)
	if profit < s.ActivationPips {
		return unchanged()
	}

	pip := quote.EffectivePipSize()
	step := types.PipsToPrice(s.StepPips, pip)

	var newStop float64
	if pos.Side == types.PositionSideLong {
		newStop = sub(quote.Bid, step)
	} else {
		newStop = add(quote.Ask, step)
	}

	return Decision{
		Modify:        true,
		NewStop:       newStop,
		CloseFraction: optional.None[float64](),
		Reason:        fmt.Sprintf("trailing stop at %.1f pips behind price (profit %.1f pips)", s.StepPips, profit),
	}
}

// PercentTrailing is the fixed-pips variant with activation and step
// expressed as a percentage of the entry price.
type PercentTrailing struct {
	ActivationPercent float64
	StepPercent       float64
}

// Kind implements Strategy.
func (s *PercentTrailing) Kind() StrategyKind {
	return StrategyPercentTrailing
}

// Evaluate implements Strategy.
func (s *PercentTrailing) Evaluate(pos types.Position, quote types.Quote) Decision {
	activation := percentOf(pos.OpenPrice, s.ActivationPercent)
	step := percentOf(pos.OpenPrice, s.StepPercent)

	var (
		move    float64
		newStop float64
	)

	if pos.Side == types.PositionSideLong {
		move = sub(quote.Bid, pos.OpenPrice)
		newStop = sub(quote.Bid, step)
	} else {
		move = sub(pos.OpenPrice, quote.Ask)
		newStop = add(quote.Ask, step)
	}

	if move < activation {
		return unchanged()
	}

	return Decision{
		Modify:        true,
		NewStop:       newStop,
		CloseFraction: optional.None[float64](),
		Reason:        fmt.Sprintf("trailing stop at %.2f%% behind price", s.StepPercent),
	}
}

func percentOf(price, percent float64) float64 {
	out, _ := decimal.NewFromFloat(price).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100)).
		Float64()

	return out
}

func add(a, b float64) float64 {
	out, _ := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Float64()

	return out
}

func sub(a, b float64) float64 {
	out, _ := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Float64()

	return out
}
