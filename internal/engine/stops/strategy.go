// Package stops implements protective stop management for open positions:
// trailing stops and breakeven variants under a pluggable strategy.
package stops

import (
	"github.com/moznion/go-optional"

	"github.com/jeden-/agent-mt5/internal/types"
	"github.com/jeden-/agent-mt5/pkg/errors"
)

// StrategyKind names a stop management strategy in configuration.
type StrategyKind string

const (
	StrategyFixedPipsTrailing   StrategyKind = "fixed-pips-trailing"
	StrategyPercentTrailing     StrategyKind = "percent-trailing"
	StrategyBreakeven           StrategyKind = "breakeven"
	StrategyLockProfitBreakeven StrategyKind = "lock-profit-breakeven"
	StrategyPartialBreakeven    StrategyKind = "partial-breakeven"
	StrategyTieredBreakeven     StrategyKind = "tiered-breakeven"
)

// Decision is the outcome of evaluating a strategy against one position.
type Decision struct {
	// Modify requests a stop move to NewStop. The engine still applies the
	// monotonic-improvement rule before issuing a write.
	Modify  bool
	NewStop float64
	// CloseFraction requests a one-time partial close alongside the stop
	// move (partial breakeven strategy only).
	CloseFraction optional.Option[float64]
	Reason        string
}

// unchanged is the zero decision: leave the stop where it is.
func unchanged() Decision {
	return Decision{
		Modify:        false,
		NewStop:       0,
		CloseFraction: optional.None[float64](),
		Reason:        "",
	}
}

// Strategy computes a stop adjustment for a position against a fresh quote.
// Implementations are stateless; one-time semantics (breakeven applied once,
// partial close taken once) fall out of the engine's improvement rule and
// its per-ticket bookkeeping.
type Strategy interface {
	Kind() StrategyKind
	Evaluate(pos types.Position, quote types.Quote) Decision
}

// TierLevel is one (profit threshold, stop offset) step of the tiered
// breakeven strategy.
type TierLevel struct {
	ProfitPips     float64 `yaml:"profit_pips" json:"profit_pips" validate:"gt=0"`
	StopOffsetPips float64 `yaml:"stop_offset_pips" json:"stop_offset_pips" validate:"gte=0"`
}

// Config selects and parameterizes one strategy. Which fields are read
// depends on Strategy.
type Config struct {
	Strategy          StrategyKind `yaml:"strategy" json:"strategy" validate:"required"`
	ActivationPips    float64      `yaml:"activation_pips" json:"activation_pips"`
	StepPips          float64      `yaml:"step_pips" json:"step_pips"`
	ActivationPercent float64      `yaml:"activation_percent" json:"activation_percent"`
	StepPercent       float64      `yaml:"step_percent" json:"step_percent"`
	ThresholdPips     float64      `yaml:"threshold_pips" json:"threshold_pips"`
	LockPips          float64      `yaml:"lock_pips" json:"lock_pips"`
	CloseFraction     float64      `yaml:"close_fraction" json:"close_fraction"`
	Levels            []TierLevel  `yaml:"levels" json:"levels"`
}

// NewStrategy builds the strategy selected by cfg.
func NewStrategy(cfg Config) (Strategy, error) {
	switch cfg.Strategy {
	case StrategyFixedPipsTrailing:
		if cfg.ActivationPips <= 0 || cfg.StepPips <= 0 {
			return nil, errors.New(errors.ErrCodeStrategyConfigError, "fixed-pips trailing requires positive activation_pips and step_pips")
		}

		return &FixedPipsTrailing{ActivationPips: cfg.ActivationPips, StepPips: cfg.StepPips}, nil
	case StrategyPercentTrailing:
		if cfg.ActivationPercent <= 0 || cfg.StepPercent <= 0 {
			return nil, errors.New(errors.ErrCodeStrategyConfigError, "percent trailing requires positive activation_percent and step_percent")
		}

		return &PercentTrailing{ActivationPercent: cfg.ActivationPercent, StepPercent: cfg.StepPercent}, nil
	case StrategyBreakeven:
		if cfg.ThresholdPips <= 0 {
			return nil, errors.New(errors.ErrCodeStrategyConfigError, "breakeven requires positive threshold_pips")
		}

		return &Breakeven{ThresholdPips: cfg.ThresholdPips}, nil
	case StrategyLockProfitBreakeven:
		if cfg.ThresholdPips <= 0 || cfg.LockPips <= 0 {
			return nil, errors.New(errors.ErrCodeStrategyConfigError, "lock-profit breakeven requires positive threshold_pips and lock_pips")
		}

		return &LockProfitBreakeven{ThresholdPips: cfg.ThresholdPips, LockPips: cfg.LockPips}, nil
	case StrategyPartialBreakeven:
		if cfg.ThresholdPips <= 0 || cfg.CloseFraction <= 0 || cfg.CloseFraction >= 1 {
			return nil, errors.New(errors.ErrCodeStrategyConfigError, "partial breakeven requires positive threshold_pips and close_fraction in (0, 1)")
		}

		return &PartialBreakeven{ThresholdPips: cfg.ThresholdPips, CloseFraction: cfg.CloseFraction}, nil
	case StrategyTieredBreakeven:
		if len(cfg.Levels) == 0 {
			return nil, errors.New(errors.ErrCodeStrategyConfigError, "tiered breakeven requires at least one level")
		}

		return NewTieredBreakeven(cfg.Levels), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "unknown stop strategy %q", cfg.Strategy)
	}
}
